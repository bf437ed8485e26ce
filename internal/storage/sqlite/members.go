package sqlite

import (
	"context"
	"fmt"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const memberColumns = `m.id, m.project_id, m.user_id, m.role, m.created_at,
        COALESCE(pr.name, ''), COALESCE(pr.avatar_url, ''), pr.user_id IS NOT NULL`

func scanMember(row interface{ Scan(...any) error }) (models.Member, error) {
	var (
		m          models.Member
		prof       models.Profile
		hasProfile bool
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt, &prof.Name, &prof.AvatarURL, &hasProfile); err != nil {
		return models.Member{}, err
	}
	if hasProfile {
		prof.UserID = m.UserID
		m.Profile = &prof
	}
	return m, nil
}

// ListMembers returns the membership of a project with profiles, owner first.
func (s *Store) ListMembers(ctx context.Context, projectID int64) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+`
        FROM project_members m LEFT JOIN profiles pr ON pr.user_id = m.user_id
        WHERE m.project_id = ?
        ORDER BY CASE m.role WHEN 'owner' THEN 0 WHEN 'member' THEN 1 ELSE 2 END, m.created_at, m.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMember fetches one membership row.
func (s *Store) GetMember(ctx context.Context, id int64) (models.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, `SELECT `+memberColumns+`
        FROM project_members m LEFT JOIN profiles pr ON pr.user_id = m.user_id
        WHERE m.id = ?`, id))
	if err != nil {
		return models.Member{}, notFoundOr(err, "member")
	}
	return m, nil
}

// MemberRole returns userID's role in a project. Non-members get NotFound.
func (s *Store) MemberRole(ctx context.Context, projectID int64, userID string) (models.Role, error) {
	var role models.Role
	err := s.db.QueryRowContext(ctx, `SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID).Scan(&role)
	if err != nil {
		return 0, notFoundOr(err, "project")
	}
	return role, nil
}

// AddMember enrolls a user in a project. Owners are only created with the project.
func (s *Store) AddMember(ctx context.Context, projectID int64, userID string, role models.Role) (models.Member, error) {
	if role != models.RoleMember && role != models.RoleWorker {
		return models.Member{}, apperr.Validation("role must be member or worker")
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return models.Member{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO project_members(project_id, user_id, role) VALUES(?, ?, ?)`, projectID, userID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Member{}, apperr.Conflict("User is already a project member")
		}
		return models.Member{}, fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Member{}, fmt.Errorf("member id: %w", err)
	}
	return s.GetMember(ctx, id)
}

// UpdateMemberRole switches a non-owner member between member and worker.
func (s *Store) UpdateMemberRole(ctx context.Context, id int64, role models.Role) (models.Member, error) {
	if role != models.RoleMember && role != models.RoleWorker {
		return models.Member{}, apperr.Validation("role must be member or worker")
	}
	current, err := s.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	if current.Role == models.RoleOwner {
		return models.Member{}, apperr.Forbidden("The project owner's role cannot be changed")
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE project_members SET role = ? WHERE id = ?`, role, id); err != nil {
		return models.Member{}, fmt.Errorf("update member: %w", err)
	}
	return s.GetMember(ctx, id)
}

// RemoveMember deletes a non-owner membership.
func (s *Store) RemoveMember(ctx context.Context, id int64) error {
	current, err := s.GetMember(ctx, id)
	if err != nil {
		return err
	}
	if current.Role == models.RoleOwner {
		return apperr.Forbidden("The project owner cannot be removed")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM project_members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

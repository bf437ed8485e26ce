package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const projectColumns = `p.id, p.name, p.description, p.color, p.owner_id, p.created_at, p.updated_at,
        (SELECT COUNT(*) FROM project_members pm WHERE pm.project_id = p.id)`

func scanProject(row interface{ Scan(...any) error }) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt, &p.MemberCount)
	return p, err
}

// ListProjects retrieves the projects userID belongs to, newest first.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+`
        FROM projects p
        JOIN project_members m ON m.project_id = p.id AND m.user_id = ?
        ORDER BY p.created_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a new project and enrolls its creator as owner.
func (s *Store) CreateProject(ctx context.Context, ownerID, name, description, color string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, apperr.Validation("project name must not be empty")
	}
	if color == "" {
		color = randomPaletteColor()
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO projects(name, description, color, owner_id) VALUES(?, ?, ?, ?)`,
			strings.TrimSpace(name), strings.TrimSpace(description), color, ownerID)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("project id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_members(project_id, user_id, role) VALUES(?, ?, ?)`, id, ownerID, models.RoleOwner); err != nil {
			return fmt.Errorf("insert owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id))
	if err != nil {
		return models.Project{}, notFoundOr(err, "project")
	}
	return p, nil
}

// UpdateProject renames a project and optionally changes its description and color.
func (s *Store) UpdateProject(ctx context.Context, id int64, name, description, color string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, apperr.Validation("project name must not be empty")
	}
	current, err := s.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if color == "" {
		color = current.Color
	}

	_, err = s.db.ExecContext(ctx, `UPDATE projects SET name = ?, description = ?, color = ? WHERE id = ?`,
		strings.TrimSpace(name), strings.TrimSpace(description), color, id)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project along with its members, tasks and comments.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

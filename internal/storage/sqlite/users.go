package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/apperr"
	"taskboard/internal/lookup"
	"taskboard/internal/models"
)

// CreateUser registers a user with a display profile.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.User{}, apperr.Validation("Email is required")
	}
	name = strings.TrimSpace(name)
	id := uuid.NewString()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(id, email, password_hash) VALUES(?, ?, ?)`, id, email, passwordHash); err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("User already registered")
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO profiles(user_id, name) VALUES(?, ?)`, id, name); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return models.User{}, notFoundOr(err, "user")
	}
	return u, nil
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return models.User{}, notFoundOr(err, "user")
	}
	return u, nil
}

// ListUsers returns one page of the user directory in registration order.
// Pages start at 1.
func (s *Store) ListUsers(ctx context.Context, page, perPage int) ([]lookup.DirectoryUser, error) {
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("invalid page %d/%d", page, perPage)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, email FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []lookup.DirectoryUser
	for rows.Next() {
		var u lookup.DirectoryUser
		if err := rows.Scan(&u.ID, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindUserByEmail is the indexed exact-match lookup used by the lookup service.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (lookup.DirectoryUser, bool, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return lookup.DirectoryUser{}, false, nil
	}
	if err != nil {
		return lookup.DirectoryUser{}, false, err
	}
	return lookup.DirectoryUser{ID: u.ID, Email: u.Email}, true, nil
}

// GetProfile returns the display profile of a user.
func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, `SELECT user_id, name, avatar_url FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Name, &p.AvatarURL)
	if err != nil {
		return models.Profile{}, notFoundOr(err, "profile")
	}
	return p, nil
}

// UpdateProfile changes a user's display name and avatar.
func (s *Store) UpdateProfile(ctx context.Context, userID, name, avatarURL string) (models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Profile{}, apperr.Validation("Name must not be empty")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET name = ?, avatar_url = ? WHERE user_id = ?`, name, strings.TrimSpace(avatarURL), userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Profile{}, err
	}
	if affected == 0 {
		return models.Profile{}, apperr.NotFound("profile not found")
	}
	return s.GetProfile(ctx, userID)
}

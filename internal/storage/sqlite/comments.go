package sqlite

import (
	"context"
	"fmt"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const commentColumns = `c.id, c.task_id, c.user_id, c.content, c.created_at,
        COALESCE(pr.name, ''), COALESCE(pr.avatar_url, '')`

func scanComment(row interface{ Scan(...any) error }) (models.Comment, error) {
	var (
		c    models.Comment
		prof models.Profile
	)
	if err := row.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt, &prof.Name, &prof.AvatarURL); err != nil {
		return models.Comment{}, err
	}
	prof.UserID = c.UserID
	c.Author = &prof
	return c, nil
}

// ListComments returns a task's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+commentColumns+`
        FROM comments c LEFT JOIN profiles pr ON pr.user_id = c.user_id
        WHERE c.task_id = ? ORDER BY c.created_at, c.id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddComment appends a comment to a task.
func (s *Store) AddComment(ctx context.Context, taskID int64, userID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.Validation("comment must not be empty")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO comments(task_id, user_id, content) VALUES(?, ?, ?)`, taskID, userID, content)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment id: %w", err)
	}
	return s.GetComment(ctx, id)
}

// GetComment fetches a comment by id.
func (s *Store) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+`
        FROM comments c LEFT JOIN profiles pr ON pr.user_id = c.user_id
        WHERE c.id = ?`, id))
	if err != nil {
		return models.Comment{}, notFoundOr(err, "comment")
	}
	return c, nil
}

// DeleteComment removes a comment by id.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("comment not found")
	}
	return nil
}

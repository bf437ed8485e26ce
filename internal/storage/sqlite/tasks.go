package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const taskColumns = `id, project_id, title, description, status, priority, deadline, assignee_id, executor_id,
        creator_id, position, was_completed, completed_at, created_at, updated_at`

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	ExecutorID string
}

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var (
		t                     models.Task
		deadline, completedAt sql.NullString
		assignee, executor    sql.NullString
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority, &deadline,
		&assignee, &executor, &t.CreatorID, &t.Position, &t.WasCompleted, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	t.AssigneeID = assignee.String
	t.ExecutorID = executor.String
	if t.Deadline, err = parseTime(deadline); err != nil {
		return models.Task{}, err
	}
	if t.CompletedAt, err = parseTime(completedAt); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func collectTasks(rows *sql.Rows) ([]models.Task, error) {
	defer rows.Close()
	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// statusOrder sorts tasks in board column order.
const statusOrder = `CASE status WHEN 'todo' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'review' THEN 2 ELSE 3 END`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListTasks returns every task of the given project in column order, then by position.
func (s *Store) ListTasks(ctx context.Context, projectID int64, filter TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	args := []any{projectID}
	if filter.ExecutorID != "" {
		query += ` AND executor_id = ?`
		args = append(args, filter.ExecutorID)
	}
	query += ` ORDER BY ` + statusOrder + `, position, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListTasksForUser returns tasks across every project userID belongs to.
func (s *Store) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks
        WHERE project_id IN (SELECT project_id FROM project_members WHERE user_id = ?)
        ORDER BY project_id, `+statusOrder+`, position, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for user: %w", err)
	}
	return collectTasks(rows)
}

// CreateTask inserts a new task at the bottom of its column.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, apperr.Validation("task title must not be empty")
	}
	if !t.Status.Valid() {
		t.Status = models.StatusTodo
	}
	if !t.Priority.Valid() {
		t.Priority = models.PriorityMedium
	}
	if err := checkAssignment(t.AssigneeID, t.ExecutorID); err != nil {
		return models.Task{}, err
	}

	var created models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		pos, err := nextPosition(ctx, tx, t.ProjectID, t.Status)
		if err != nil {
			return err
		}

		var completedAt any
		wasCompleted := t.Status == models.StatusDone
		if wasCompleted {
			now := s.now()
			completedAt = formatTime(&now)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO tasks(project_id, title, description, status, priority, deadline,
                assignee_id, executor_id, creator_id, position, was_completed, completed_at)
            VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ProjectID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), t.Status, t.Priority, formatTime(t.Deadline),
			nullString(t.AssigneeID), nullString(t.ExecutorID), t.CreatorID, pos, wasCompleted, completedAt)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		created, err = getTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return created, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q querier, id int64) (models.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return models.Task{}, notFoundOr(err, "task")
	}
	return t, nil
}

// UpdateTask applies changes and moves the task between columns when needed.
// Entering done marks the task as completed at least once. The read and the
// write share one transaction.
func (s *Store) UpdateTask(ctx context.Context, id int64, changes models.TaskChanges) (models.Task, error) {
	var updated models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}

		next := current
		if changes.Title != nil && strings.TrimSpace(*changes.Title) != "" {
			next.Title = strings.TrimSpace(*changes.Title)
		}
		if changes.Description != nil {
			next.Description = strings.TrimSpace(*changes.Description)
		}
		if changes.Status != nil && changes.Status.Valid() {
			next.Status = *changes.Status
		}
		if changes.Priority != nil && changes.Priority.Valid() {
			next.Priority = *changes.Priority
		}
		if changes.ClearDeadline {
			next.Deadline = nil
		} else if changes.Deadline != nil {
			next.Deadline = changes.Deadline
		}
		if changes.AssigneeID != nil {
			next.AssigneeID = *changes.AssigneeID
		}
		if changes.ExecutorID != nil {
			next.ExecutorID = *changes.ExecutorID
		}
		if err := checkAssignment(next.AssigneeID, next.ExecutorID); err != nil {
			return err
		}

		if next.Status != current.Status {
			pos, err := nextPosition(ctx, tx, current.ProjectID, next.Status)
			if err != nil {
				return err
			}
			next.Position = pos
			if next.Status == models.StatusDone {
				now := s.now()
				next.WasCompleted = true
				next.CompletedAt = &now
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, deadline = ?,
                assignee_id = ?, executor_id = ?, position = ?, was_completed = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
            WHERE id = ?`,
			next.Title, next.Description, next.Status, next.Priority, formatTime(next.Deadline),
			nullString(next.AssigneeID), nullString(next.ExecutorID), next.Position, next.WasCompleted, formatTime(next.CompletedAt), id)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		updated, err = getTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// SetTaskStatus moves a task to another column.
func (s *Store) SetTaskStatus(ctx context.Context, id int64, status models.Status) (models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskChanges{Status: &status})
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("task not found")
	}
	return nil
}

func nextPosition(ctx context.Context, q querier, projectID int64, status models.Status) (int64, error) {
	var position sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT MAX(position) FROM tasks WHERE project_id = ? AND status = ?`, projectID, status).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return position.Int64 + 1, nil
	}
	return 0, nil
}

func checkAssignment(assigneeID, executorID string) error {
	if assigneeID != "" && assigneeID == executorID {
		return apperr.Validation("Assignee and Executor cannot be the same person")
	}
	return nil
}

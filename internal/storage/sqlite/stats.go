package sqlite

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/analytics"
)

// tallyColumns aggregates the tasks of one group. The first placeholder is
// the instant deadlines are compared against.
const tallyColumns = `status, COUNT(*),
        SUM(CASE WHEN status != 'done' AND deadline IS NOT NULL AND julianday(deadline) < julianday(?) THEN 1 ELSE 0 END),
        SUM(CASE WHEN was_completed THEN 1 ELSE 0 END)`

// ProjectTallies aggregates a project's tasks by owner and status. The owner
// is the executor, or the assignee when no executor is set. Unowned tasks
// are keyed by "".
func (s *Store) ProjectTallies(ctx context.Context, projectID int64, now time.Time) (map[string][]analytics.Tally, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(executor_id, assignee_id, ''), `+tallyColumns+`
        FROM tasks WHERE project_id = ?
        GROUP BY 1, status`, formatTime(&now), projectID)
	if err != nil {
		return nil, fmt.Errorf("project tallies: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]analytics.Tally)
	for rows.Next() {
		var (
			owner string
			tl    analytics.Tally
		)
		if err := rows.Scan(&owner, &tl.Status, &tl.Count, &tl.Overdue, &tl.Completed); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		out[owner] = append(out[owner], tl)
	}
	return out, rows.Err()
}

// UserTallies aggregates tasks by project and status across every project
// userID belongs to.
func (s *Store) UserTallies(ctx context.Context, userID string, now time.Time) (map[int64][]analytics.Tally, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT project_id, `+tallyColumns+`
        FROM tasks
        WHERE project_id IN (SELECT project_id FROM project_members WHERE user_id = ?)
        GROUP BY project_id, status`, formatTime(&now), userID)
	if err != nil {
		return nil, fmt.Errorf("user tallies: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]analytics.Tally)
	for rows.Next() {
		var (
			projectID int64
			tl        analytics.Tally
		)
		if err := rows.Scan(&projectID, &tl.Status, &tl.Count, &tl.Overdue, &tl.Completed); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		out[projectID] = append(out[projectID], tl)
	}
	return out, rows.Err()
}

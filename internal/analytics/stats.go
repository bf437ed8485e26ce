// Package analytics summarizes task progress for a board and its members.
package analytics

import (
	"math"
	"sort"
	"time"

	"taskboard/internal/models"
)

// Stats summarizes a set of tasks.
type Stats struct {
	Total          int                   `json:"total"`
	ByStatus       map[models.Status]int `json:"by_status"`
	Overdue        int                   `json:"overdue"`
	Completed      int                   `json:"completed"`
	CompletionRate int                   `json:"completion_rate"`
}

// Tally aggregates the tasks that share a status.
type Tally struct {
	Status models.Status
	Count  int
	// Overdue counts tasks outside done whose deadline has passed.
	Overdue int
	// Completed counts tasks that have reached done at least once.
	Completed int
}

// Tallies groups tasks by status.
func Tallies(tasks []models.Task, now time.Time) []Tally {
	byStatus := make(map[models.Status]*Tally)
	var out []Tally
	for _, t := range tasks {
		if _, ok := byStatus[t.Status]; !ok {
			byStatus[t.Status] = &Tally{Status: t.Status}
		}
		tl := byStatus[t.Status]
		tl.Count++
		if t.Deadline != nil && t.Deadline.Before(now) && t.Status != models.StatusDone {
			tl.Overdue++
		}
		if t.WasCompleted {
			tl.Completed++
		}
	}
	for _, st := range models.Statuses {
		if tl, ok := byStatus[st]; ok {
			out = append(out, *tl)
		}
	}
	return out
}

// Summarize folds tallies into Stats. Tallies for the same status are
// added together. With useWasCompleted, a task counts as completed once it
// has ever reached done, even if it was later reopened.
func Summarize(tallies []Tally, useWasCompleted bool) Stats {
	s := Stats{ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, st := range models.Statuses {
		s.ByStatus[st] = 0
	}

	for _, tl := range tallies {
		s.Total += tl.Count
		s.ByStatus[tl.Status] += tl.Count
		s.Overdue += tl.Overdue
		if useWasCompleted {
			s.Completed += tl.Completed
		} else if tl.Status == models.StatusDone {
			s.Completed += tl.Count
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// Compute counts tasks per status, overdue tasks, and the completion rate
// as a rounded percentage.
func Compute(tasks []models.Task, useWasCompleted bool, now time.Time) Stats {
	return Summarize(Tallies(tasks, now), useWasCompleted)
}

// MemberStats is one member's share of the board.
type MemberStats struct {
	Profile models.Profile `json:"profile"`
	Role    models.Role    `json:"role"`
	Stats   Stats          `json:"stats"`
}

// Owner is the member a task is attributed to: its executor, or its
// assignee when no executor is set. Unowned tasks yield "".
func Owner(t models.Task) string {
	if t.ExecutorID != "" {
		return t.ExecutorID
	}
	return t.AssigneeID
}

// ByMember attributes each task to its Owner and reports every member.
func ByMember(tasks []models.Task, members []models.Member, now time.Time) []MemberStats {
	owned := make(map[string][]models.Task)
	for _, t := range tasks {
		if uid := Owner(t); uid != "" {
			owned[uid] = append(owned[uid], t)
		}
	}
	tallies := make(map[string][]Tally, len(owned))
	for uid, ts := range owned {
		tallies[uid] = Tallies(ts, now)
	}
	return SummarizeMembers(tallies, members)
}

// SummarizeMembers reports every member's stats from tallies keyed by owner
// id, even when they hold no tasks. Members without a profile are skipped.
// Results are ordered by task count, busiest first.
func SummarizeMembers(owned map[string][]Tally, members []models.Member) []MemberStats {
	seen := make(map[string]bool, len(members))
	out := make([]MemberStats, 0, len(members))
	for _, m := range members {
		if m.Profile == nil || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		out = append(out, MemberStats{
			Profile: *m.Profile,
			Role:    m.Role,
			Stats:   Summarize(owned[m.UserID], true),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Stats.Total > out[j].Stats.Total
	})
	return out
}

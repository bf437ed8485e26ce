package models

import (
	"fmt"
	"time"
)

// User is an identity known to the auth layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds the public display data of a user.
type Profile struct {
	UserID    string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Project describes a board that groups tasks and a membership list.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     string    `json:"owner_id"`
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member binds a user to a project with a role.
type Member struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Task represents a single card on the board.
type Task struct {
	ID           int64      `json:"id"`
	ProjectID    int64      `json:"project_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	AssigneeID   string     `json:"assignee_id,omitempty"`
	ExecutorID   string     `json:"executor_id,omitempty"`
	CreatorID    string     `json:"creator_id"`
	Position     int64      `json:"position"`
	WasCompleted bool       `json:"was_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TaskChanges lists the editable fields of a task; nil means unchanged.
// An empty AssigneeID or ExecutorID clears the assignment.
type TaskChanges struct {
	Title         *string
	Description   *string
	Status        *Status
	Priority      *Priority
	Deadline      *time.Time
	ClearDeadline bool
	AssigneeID    *string
	ExecutorID    *string
}

// Comment is a note left on a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Author    *Profile  `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseDeadline accepts a calendar date or a full RFC 3339 timestamp.
func ParseDeadline(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %q: want YYYY-MM-DD or RFC 3339", v)
	}
	return t, nil
}

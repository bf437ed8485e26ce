package models

import (
	"database/sql/driver"
	"fmt"
)

// Status is the kanban column a task occupies.
type Status uint8

const (
	StatusTodo Status = iota + 1
	StatusInProgress
	StatusReview
	StatusDone
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

var statusNames = map[Status]string{
	StatusTodo:       "todo",
	StatusInProgress: "in_progress",
	StatusReview:     "review",
	StatusDone:       "done",
}

// ParseStatus converts the wire name of a status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown task status %q", s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the four board statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid task status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid task status %d", uint8(s))
	}
	return s.String(), nil
}

func (s *Status) Scan(src any) error {
	return scanEnum(src, func(v string) error { return s.UnmarshalText([]byte(v)) })
}

// Role is a member's role within one project.
type Role uint8

const (
	RoleOwner Role = iota + 1
	RoleMember
	RoleWorker
)

var roleNames = map[Role]string{
	RoleOwner:  "owner",
	RoleMember: "member",
	RoleWorker: "worker",
}

// ParseRole converts the wire name of a role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown member role %q", s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the three member roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid member role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid member role %d", uint8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	return scanEnum(src, func(v string) error { return r.UnmarshalText([]byte(v)) })
}

// Priority orders tasks within a column.
type Priority uint8

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
	PriorityUrgent: "urgent",
}

// ParsePriority converts the wire name of a priority.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown task priority %q", s)
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", uint8(p))
}

func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid task priority %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Priority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid task priority %d", uint8(p))
	}
	return p.String(), nil
}

func (p *Priority) Scan(src any) error {
	return scanEnum(src, func(v string) error { return p.UnmarshalText([]byte(v)) })
}

func scanEnum(src any, set func(string) error) error {
	switch v := src.(type) {
	case string:
		return set(v)
	case []byte:
		return set(string(v))
	default:
		return fmt.Errorf("cannot scan %T into enum", src)
	}
}

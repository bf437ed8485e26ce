package sqlite

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// Fixture is a YAML description of users and boards to load into a fresh
// database.
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Projects []FixtureProject `yaml:"projects"`
}

type FixtureUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type FixtureProject struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Color       string          `yaml:"color"`
	Owner       string          `yaml:"owner"`
	Members     []FixtureMember `yaml:"members"`
	Tasks       []FixtureTask   `yaml:"tasks"`
}

type FixtureMember struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

type FixtureTask struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Status      string           `yaml:"status"`
	Priority    string           `yaml:"priority"`
	Deadline    string           `yaml:"deadline"`
	Assignee    string           `yaml:"assignee"`
	Executor    string           `yaml:"executor"`
	Comments    []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	Users    int
	Projects int
	Tasks    int
	Comments int
}

// DecodeFixture parses a YAML fixture.
func DecodeFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// Seed loads f. Users that already exist are reused; hash turns fixture
// passwords into stored hashes.
func (s *Store) Seed(ctx context.Context, f Fixture, hash func(string) (string, error)) (SeedResult, error) {
	var res SeedResult
	ids := make(map[string]string, len(f.Users))

	for _, fu := range f.Users {
		existing, err := s.GetUserByEmail(ctx, fu.Email)
		if err == nil {
			ids[existing.Email] = existing.ID
			continue
		}
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return res, err
		}
		h, err := hash(fu.Password)
		if err != nil {
			return res, fmt.Errorf("user %s: %w", fu.Email, err)
		}
		u, err := s.CreateUser(ctx, fu.Email, h, fu.Name)
		if err != nil {
			return res, fmt.Errorf("user %s: %w", fu.Email, err)
		}
		ids[u.Email] = u.ID
		res.Users++
	}

	userID := func(email string) (string, error) {
		if email == "" {
			return "", nil
		}
		if id, ok := ids[email]; ok {
			return id, nil
		}
		u, err := s.GetUserByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("fixture user %s: %w", email, err)
		}
		ids[email] = u.ID
		return u.ID, nil
	}

	for _, fp := range f.Projects {
		ownerID, err := userID(fp.Owner)
		if err != nil {
			return res, err
		}
		if ownerID == "" {
			return res, fmt.Errorf("project %q has no owner", fp.Name)
		}
		project, err := s.CreateProject(ctx, ownerID, fp.Name, fp.Description, fp.Color)
		if err != nil {
			return res, fmt.Errorf("project %q: %w", fp.Name, err)
		}
		res.Projects++

		for _, fm := range fp.Members {
			role, err := models.ParseRole(fm.Role)
			if err != nil {
				return res, fmt.Errorf("project %q member %s: %w", fp.Name, fm.Email, err)
			}
			uid, err := userID(fm.Email)
			if err != nil {
				return res, err
			}
			if _, err := s.AddMember(ctx, project.ID, uid, role); err != nil {
				return res, fmt.Errorf("project %q member %s: %w", fp.Name, fm.Email, err)
			}
		}

		for _, ft := range fp.Tasks {
			task, err := s.seedTask(ctx, project, ownerID, ft, userID)
			if err != nil {
				return res, fmt.Errorf("project %q task %q: %w", fp.Name, ft.Title, err)
			}
			res.Tasks++

			for _, fc := range ft.Comments {
				author, err := userID(fc.Author)
				if err != nil {
					return res, err
				}
				if author == "" {
					author = ownerID
				}
				if _, err := s.AddComment(ctx, task.ID, author, fc.Content); err != nil {
					return res, fmt.Errorf("comment on %q: %w", ft.Title, err)
				}
				res.Comments++
			}
		}
	}

	s.logger.Info("seed complete",
		slog.Int("users", res.Users),
		slog.Int("projects", res.Projects),
		slog.Int("tasks", res.Tasks),
		slog.Int("comments", res.Comments))
	return res, nil
}

func (s *Store) seedTask(ctx context.Context, project models.Project, creatorID string, ft FixtureTask, userID func(string) (string, error)) (models.Task, error) {
	t := models.Task{
		ProjectID:   project.ID,
		Title:       ft.Title,
		Description: ft.Description,
		CreatorID:   creatorID,
	}
	if ft.Status != "" {
		st, err := models.ParseStatus(ft.Status)
		if err != nil {
			return models.Task{}, err
		}
		t.Status = st
	}
	if ft.Priority != "" {
		p, err := models.ParsePriority(ft.Priority)
		if err != nil {
			return models.Task{}, err
		}
		t.Priority = p
	}
	if ft.Deadline != "" {
		d, err := models.ParseDeadline(ft.Deadline)
		if err != nil {
			return models.Task{}, err
		}
		t.Deadline = &d
	}
	var err error
	if t.AssigneeID, err = userID(ft.Assignee); err != nil {
		return models.Task{}, err
	}
	if t.ExecutorID, err = userID(ft.Executor); err != nil {
		return models.Task{}, err
	}
	return s.CreateTask(ctx, t)
}

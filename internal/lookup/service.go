// Package lookup resolves an email address to a registered user on behalf
// of an authenticated caller, without exposing the user directory.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/auth"
	"taskboard/internal/models"
	"taskboard/internal/ratelimit"
)

const (
	DefaultPageSize = 50
	DefaultMaxPages = 20

	MsgTooManyRequests = "Too many requests. Try again later."
	MsgUserNotFound    = "User not found"
	MsgInvalidBody     = "Invalid request body"
)

// Strategy selects how the directory is searched.
type Strategy string

const (
	// StrategyIndex uses an exact email lookup when the directory has one.
	StrategyIndex Strategy = "index"
	// StrategyScan pages through the directory.
	StrategyScan Strategy = "scan"
)

// DirectoryUser is the slice of a user record the search needs.
type DirectoryUser struct {
	ID    string
	Email string
}

// Directory lists users page by page; pages start at 1.
type Directory interface {
	ListUsers(ctx context.Context, page, perPage int) ([]DirectoryUser, error)
}

// EmailIndex finds a user by exact, already normalized email.
type EmailIndex interface {
	FindUserByEmail(ctx context.Context, email string) (DirectoryUser, bool, error)
}

// Profiles returns display profiles. A missing profile must be reported
// with an apperr NotFound error.
type Profiles interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Result is the public identity returned to the caller.
type Result struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Config tunes the search.
type Config struct {
	Strategy Strategy
	PageSize int
	MaxPages int
}

// Service authenticates, rate limits, validates, and resolves lookups.
type Service struct {
	verifier auth.Verifier
	limiter  *ratelimit.Limiter
	dir      Directory
	profiles Profiles
	cfg      Config
	logger   *slog.Logger
}

// NewService wires a lookup service.
func NewService(verifier auth.Verifier, limiter *ratelimit.Limiter, dir Directory, profiles Profiles, cfg Config, logger *slog.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyIndex
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		verifier: verifier,
		limiter:  limiter,
		dir:      dir,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
	}
}

// Lookup runs one request: credential, quota, body, then resolution.
// Every failure is an *apperr.Error.
func (s *Service) Lookup(ctx context.Context, credential string, body []byte) (Result, error) {
	if strings.TrimSpace(credential) == "" {
		return Result{}, apperr.Unauthorized()
	}
	caller, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthorized) {
			return Result{}, apperr.Unauthorized()
		}
		return Result{}, apperr.Internal(err)
	}

	verdict, err := s.limiter.Allow(ctx, caller.UserID)
	if err != nil {
		return Result{}, apperr.Internal(err)
	}
	if !verdict.Allowed {
		s.logger.Warn("lookup rate limited", slog.String("caller", caller.UserID), slog.Int("count", verdict.Count))
		return Result{}, apperr.RateLimited(MsgTooManyRequests)
	}

	email, err := decodeEmail(body)
	if err != nil {
		return Result{}, err
	}
	return s.Resolve(ctx, email)
}

// Resolve finds the user behind a normalized email and their display name.
func (s *Service) Resolve(ctx context.Context, email string) (Result, error) {
	user, found, err := s.search(ctx, email)
	if err != nil {
		return Result{}, apperr.Internal(err)
	}
	if !found {
		return Result{}, apperr.NotFound(MsgUserNotFound)
	}

	name := email
	profile, err := s.profiles.GetProfile(ctx, user.ID)
	switch {
	case err == nil:
		if strings.TrimSpace(profile.Name) != "" {
			name = profile.Name
		}
	case apperr.IsKind(err, apperr.KindNotFound):
	default:
		return Result{}, apperr.Internal(fmt.Errorf("load profile %s: %w", user.ID, err))
	}
	return Result{ID: user.ID, Name: name}, nil
}

func (s *Service) search(ctx context.Context, email string) (DirectoryUser, bool, error) {
	if idx, ok := s.dir.(EmailIndex); ok && s.cfg.Strategy == StrategyIndex {
		return idx.FindUserByEmail(ctx, email)
	}
	return s.scan(ctx, email)
}

// scan pages through the directory until it finds email, reaches a short
// page, or exhausts MaxPages.
func (s *Service) scan(ctx context.Context, email string) (DirectoryUser, bool, error) {
	for page := 1; page <= s.cfg.MaxPages; page++ {
		users, err := s.dir.ListUsers(ctx, page, s.cfg.PageSize)
		if err != nil {
			return DirectoryUser{}, false, fmt.Errorf("list users page %d: %w", page, err)
		}
		for _, u := range users {
			if strings.ToLower(u.Email) == email {
				return u, true, nil
			}
		}
		if len(users) < s.cfg.PageSize {
			break
		}
	}
	return DirectoryUser{}, false, nil
}

func decodeEmail(body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", apperr.Validation(MsgEmailRequired)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}
	return NormalizeEmail(payload["email"])
}

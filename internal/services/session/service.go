package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/ncecere/billing_api/internal/auth"
	"github.com/ncecere/billing_api/internal/db"
	"github.com/ncecere/billing_api/internal/models"
	"github.com/ncecere/billing_api/internal/rbac"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Identity is the caller resolved from a validated session token.
type Identity struct {
	UserID    int64
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// Renewal is the token that replaces the one presented on a request.
type Renewal struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

type userQueries interface {
	GetUserByUsername(context.Context, string) (db.User, error)
	UpdateUserLastLogin(context.Context, int64) error
}

type projectSource interface {
	ListProjects(ctx context.Context, userID int64) ([]db.Project, error)
	GetUserRoles(ctx context.Context, userID int64) (rbac.RoleMap, error)
}

type revocationStore interface {
	Revoke(ctx context.Context, tokenID string, grace time.Duration, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service issues, validates and rotates session tokens for local users.
type Service struct {
	users       userQueries
	projects    projectSource
	tokens      *auth.TokenManager
	revocations revocationStore
	grace       time.Duration
	logger      *slog.Logger
}

func NewService(users userQueries, projects projectSource, tokens *auth.TokenManager, revocations revocationStore, grace time.Duration) *Service {
	return &Service{
		users:       users,
		projects:    projects,
		tokens:      tokens,
		revocations: revocations,
		grace:       grace,
		logger:      slog.Default(),
	}
}

// Login checks the password and issues a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (string, Identity, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", Identity{}, ErrInvalidCredentials
		}
		return "", Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.PasswordHash.Valid {
		return "", Identity{}, ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash.String)
	if err != nil {
		return "", Identity{}, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return "", Identity{}, ErrInvalidCredentials
	}

	if err := s.users.UpdateUserLastLogin(ctx, user.ID); err != nil {
		return "", Identity{}, fmt.Errorf("update last login: %w", err)
	}

	token, claims, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", Identity{}, err
	}
	return token, identityFromClaims(claims), nil
}

// ValidateToken parses the token and rejects ids revoked past their grace.
func (s *Service) ValidateToken(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return Identity{}, err
		}
		if revoked {
			s.logger.Debug("revoked token presented", slog.Int64("user_id", claims.UserID))
			return Identity{}, ErrInvalidToken
		}
	}
	return identityFromClaims(claims), nil
}

// RenewToken issues a replacement token and revokes the presented one after
// the rotation grace period.
func (s *Service) RenewToken(ctx context.Context, identity Identity) (Renewal, error) {
	token, claims, err := s.tokens.Issue(identity.UserID, identity.Username)
	if err != nil {
		return Renewal{}, err
	}
	if s.revocations != nil {
		if err := s.revocations.Revoke(ctx, identity.TokenID, s.grace, identity.ExpiresAt); err != nil {
			return Renewal{}, err
		}
	}
	return Renewal{Token: token, UserID: claims.UserID, ExpiresAt: claims.ExpiresAt}, nil
}

// ListProjects returns the caller's projects with the roles held on each.
func (s *Service) ListProjects(ctx context.Context, identity Identity) ([]models.Project, error) {
	projects, err := s.projects.ListProjects(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	roles, err := s.projects.GetUserRoles(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	return lo.Map(projects, func(p db.Project, _ int) models.Project {
		return models.Project{ID: p.ID, Name: p.Name, Roles: roles.Roles(p.ID)}
	}), nil
}

// AuthorizedProjects returns the ids of every project the user holds a role on.
func (s *Service) AuthorizedProjects(ctx context.Context, userID int64) ([]string, error) {
	projects, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(projects, func(p db.Project, _ int) string { return p.ID }), nil
}

func identityFromClaims(c auth.Claims) Identity {
	return Identity{
		UserID:    c.UserID,
		Username:  c.Username,
		TokenID:   c.TokenID,
		ExpiresAt: c.ExpiresAt,
	}
}

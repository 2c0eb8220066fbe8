package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ncecere/billing_api/internal/auth"
	"github.com/ncecere/billing_api/internal/config"
	"github.com/ncecere/billing_api/internal/db"
)

type bootstrapQueries interface {
	UpsertUser(context.Context, db.UpsertUserParams) (db.User, error)
	UpsertProject(context.Context, db.UpsertProjectParams) error
	GrantProjectRole(context.Context, db.GrantProjectRoleParams) error
}

// Bootstrap seeds the users, projects and role grants declared in config.
// Existing rows are updated in place and grants are never revoked.
func Bootstrap(ctx context.Context, queries bootstrapQueries, cfg config.BootstrapConfig) error {
	if len(cfg.Users) == 0 && len(cfg.Projects) == 0 {
		return nil
	}

	userIDs := make(map[string]int64, len(cfg.Users))
	for _, user := range cfg.Users {
		username := strings.TrimSpace(user.Username)
		if username == "" {
			continue
		}
		hash, err := auth.HashPassword(user.Password)
		if err != nil {
			return fmt.Errorf("bootstrap user %q password: %w", username, err)
		}
		displayName := strings.TrimSpace(user.DisplayName)
		if displayName == "" {
			displayName = username
		}
		row, err := queries.UpsertUser(ctx, db.UpsertUserParams{
			Username:     username,
			DisplayName:  displayName,
			PasswordHash: pgtype.Text{String: hash, Valid: true},
		})
		if err != nil {
			return fmt.Errorf("bootstrap user %q: %w", username, err)
		}
		userIDs[username] = row.ID
	}

	for _, project := range cfg.Projects {
		id := strings.TrimSpace(project.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(project.Name)
		if name == "" {
			name = id
		}
		if err := queries.UpsertProject(ctx, db.UpsertProjectParams{ID: id, Name: name}); err != nil {
			return fmt.Errorf("bootstrap project %q: %w", id, err)
		}
	}

	for _, grant := range cfg.Grants {
		username := strings.TrimSpace(grant.Username)
		userID, ok := userIDs[username]
		if !ok {
			return fmt.Errorf("bootstrap grant references unknown user %q", username)
		}
		if err := queries.GrantProjectRole(ctx, db.GrantProjectRoleParams{
			UserID:    userID,
			ProjectID: strings.TrimSpace(grant.Project),
			Role:      grant.Role,
		}); err != nil {
			return fmt.Errorf("bootstrap grant %s/%s: %w", username, grant.Project, err)
		}
	}

	slog.Info("bootstrap applied",
		slog.Int("users", len(userIDs)),
		slog.Int("projects", len(cfg.Projects)),
		slog.Int("grants", len(cfg.Grants)),
	)
	return nil
}

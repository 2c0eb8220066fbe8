package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	decimal "github.com/shopspring/decimal"

	"github.com/ncecere/billing_api/internal/cache"
	"github.com/ncecere/billing_api/internal/db"
	"github.com/ncecere/billing_api/internal/models"
	"github.com/ncecere/billing_api/internal/rbac"
	"github.com/ncecere/billing_api/internal/timeutil"
)

type usageQueries interface {
	ListUserProjectRoles(context.Context, int64) ([]db.ListUserProjectRolesRow, error)
	ListUserProjects(context.Context, int64) ([]db.Project, error)
	ListUserNames(context.Context) ([]db.ListUserNamesRow, error)
	UsageStatistics(context.Context, db.UsageStatisticsParams) ([]db.UsageStatisticsRow, error)
	ImageStorageByProject(context.Context, db.ImageStorageByProjectParams) ([]db.ImageStorageByProjectRow, error)
}

// Store reads roles and usage from postgres and owns the user directory.
type Store struct {
	queries usageQueries
	users   *cache.UserDirectory
	logger  *slog.Logger
}

func New(queries usageQueries, users *cache.UserDirectory) *Store {
	if users == nil {
		users = cache.NewUserDirectory()
	}
	return &Store{queries: queries, users: users, logger: slog.Default()}
}

// UserNames exposes the directory refreshed by RefreshUserNames.
func (s *Store) UserNames() *cache.UserDirectory {
	return s.users
}

// GetUserRoles returns the caller's role map. Projects the user belongs to
// without any named role still appear with an empty role list.
func (s *Store) GetUserRoles(ctx context.Context, userID int64) (rbac.RoleMap, error) {
	rows, err := s.queries.ListUserProjectRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list project roles: %w", err)
	}
	roles := rbac.RoleMap{}
	for _, row := range rows {
		roles.Add(row.ProjectID, row.Role)
	}
	return roles, nil
}

func (s *Store) ListProjects(ctx context.Context, userID int64) ([]db.Project, error) {
	projects, err := s.queries.ListUserProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetUsageStatistics returns compute and volume usage within r: every user on
// billingProjects, and only userID on userProjects. Both sets empty matches
// nothing and skips the query.
func (s *Store) GetUsageStatistics(ctx context.Context, r timeutil.Range, billingProjects, userProjects []string, userID int64) ([]models.UsageRecord, error) {
	if len(billingProjects) == 0 && len(userProjects) == 0 {
		return nil, nil
	}
	rows, err := s.queries.UsageStatistics(ctx, db.UsageStatisticsParams{
		FromDate:        toTimestamp(r.Start),
		ToDate:          toTimestamp(r.End),
		BillingProjects: nonNil(billingProjects),
		UserProjects:    nonNil(userProjects),
		UserID:          userID,
	})
	if err != nil {
		return nil, fmt.Errorf("usage statistics: %w", err)
	}
	records := make([]models.UsageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.UsageRecord{
			ProjectID: row.ProjectID,
			User:      row.UserID,
			CPU:       models.NewQuantity(numericToDecimal(row.CpuHours)),
			Volume:    models.NewQuantity(numericToDecimal(row.VolumeGbHours)),
		})
	}
	return records, nil
}

// GetImageStorageGigabyteHoursByProject returns per-project image storage
// within r. An empty project set skips the query.
func (s *Store) GetImageStorageGigabyteHoursByProject(ctx context.Context, r timeutil.Range, billingProjects []string) ([]models.StorageRecord, error) {
	if len(billingProjects) == 0 {
		return nil, nil
	}
	rows, err := s.queries.ImageStorageByProject(ctx, db.ImageStorageByProjectParams{
		FromDate:   toTimestamp(r.Start),
		ToDate:     toTimestamp(r.End),
		ProjectIds: billingProjects,
	})
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}
	records := make([]models.StorageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.StorageRecord{
			ProjectID: row.ProjectID,
			Image:     models.NewQuantity(numericToDecimal(row.ImageGbHours)),
		})
	}
	return records, nil
}

// RefreshUserNames reloads the user directory from the users table.
func (s *Store) RefreshUserNames(ctx context.Context) error {
	rows, err := s.queries.ListUserNames(ctx)
	if err != nil {
		return fmt.Errorf("list user names: %w", err)
	}
	names := make(map[int64]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.DisplayName
	}
	s.users.Replace(names)
	s.logger.Debug("user directory refreshed", slog.Int("users", len(names)))
	return nil
}

func toTimestamp(t time.Time) pgtype.Timestamp {
	return pgtype.Timestamp{Time: timeutil.Naive(t), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

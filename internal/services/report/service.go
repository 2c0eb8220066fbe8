package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncecere/billing_api/internal/models"
	"github.com/ncecere/billing_api/internal/rbac"
	"github.com/ncecere/billing_api/internal/timeutil"
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidUser = errors.New("invalid user")
)

const tracerName = "github.com/ncecere/billing_api/internal/services/report"

// Request describes one /reports call. Empty date strings select the
// defaults; a nil Projects slice selects every authorized project.
type Request struct {
	Caller        int64
	RequestedUser *int64
	Projects      []string
	Bucket        string
	FromDate      string
	ToDate        string
}

// Store is the usage data source.
type Store interface {
	GetUserRoles(ctx context.Context, userID int64) (rbac.RoleMap, error)
	GetUsageStatistics(ctx context.Context, r timeutil.Range, billingProjects, userProjects []string, userID int64) ([]models.UsageRecord, error)
	GetImageStorageGigabyteHoursByProject(ctx context.Context, r timeutil.Range, billingProjects []string) ([]models.StorageRecord, error)
}

type UserNames interface {
	Lookup(id int64) (string, bool)
}

type ProjectLister interface {
	AuthorizedProjects(ctx context.Context, userID int64) ([]string, error)
}

type Recorder interface {
	RecordReport(bucket, scope string, usage, storage int, duration time.Duration, err error)
}

type Options struct {
	// Location is the zone whose wall clock defines "now" for default dates.
	Location *time.Location
	// ValidBuckets limits the accepted bucket names. Empty allows all.
	ValidBuckets []string
	Recorder     Recorder
	Now          func() time.Time
}

// Service assembles bucketed usage reports.
type Service struct {
	store    Store
	users    UserNames
	projects ProjectLister
	location *time.Location
	valid    []timeutil.BucketSize
	recorder Recorder
	now      func() time.Time
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewService(store Store, users UserNames, projects ProjectLister, opts Options) *Service {
	valid := lo.FilterMap(opts.ValidBuckets, func(name string, _ int) (timeutil.BucketSize, bool) {
		return timeutil.ParseBucketSize(name)
	})
	if len(valid) == 0 {
		valid = timeutil.BucketSizes
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		users:    users,
		projects: projects,
		location: timeutil.EnsureLocation(opts.Location),
		valid:    valid,
		recorder: opts.Recorder,
		now:      now,
		tracer:   otel.Tracer(tracerName),
		logger:   slog.Default(),
	}
}

// ParseUser converts the optional user query parameter. Blank means no
// specific user was requested.
func ParseUser(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUser, raw)
	}
	return &id, nil
}

// ParseProjects splits a comma separated project list. A blank value yields
// nil so the caller's authorized projects are used.
func ParseProjects(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
}

// Generate builds the report for req. Any store failure aborts the whole
// report.
func (s *Service) Generate(ctx context.Context, req Request) (report models.Report, err error) {
	bucket := s.bucketFor(req.Bucket)
	scope := rbac.ScopeDefault
	started := time.Now()
	var usageCount, storageCount int

	ctx, span := s.tracer.Start(ctx, "report.Generate", trace.WithAttributes(
		attribute.String("report.bucket", string(bucket)),
		attribute.Int64("report.caller", req.Caller),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.recorder != nil {
			s.recorder.RecordReport(string(bucket), string(scope), usageCount, storageCount, time.Since(started), err)
		}
	}()

	from, to, err := s.resolveRange(req.FromDate, req.ToDate)
	if err != nil {
		return models.Report{}, err
	}

	requested := req.Projects
	if requested == nil {
		requested, err = s.projects.AuthorizedProjects(ctx, req.Caller)
		if err != nil {
			return models.Report{}, fmt.Errorf("list authorized projects: %w", err)
		}
	}
	roles, err := s.store.GetUserRoles(ctx, req.Caller)
	if err != nil {
		return models.Report{}, fmt.Errorf("load roles: %w", err)
	}

	visibility := rbac.Resolve(requested, roles, req.RequestedUser, req.Caller)
	scope = visibility.Scope
	span.SetAttributes(
		attribute.String("report.scope", string(scope)),
		attribute.Int("report.billing_projects", len(visibility.BillingProjects)),
		attribute.Int("report.user_projects", len(visibility.UserProjects)),
	)

	entries := []models.Entry{}
	for _, r := range timeutil.Partition(from, to, timeutil.StrategyFor(string(bucket))) {
		usage, storage, err := s.collectBucket(ctx, r, visibility)
		if err != nil {
			return models.Report{}, err
		}
		usageCount += len(usage)
		storageCount += len(storage)
		for _, rec := range usage {
			entries = append(entries, rec)
		}
		for _, rec := range storage {
			entries = append(entries, rec)
		}
	}

	s.logger.Debug("report generated",
		slog.Int64("caller", req.Caller),
		slog.String("bucket", string(bucket)),
		slog.String("scope", string(scope)),
		slog.Int("entries", len(entries)),
	)

	return models.Report{
		FromDate: timeutil.FormatInstant(from),
		ToDate:   timeutil.FormatInstant(to),
		Bucket:   string(bucket),
		Entries:  entries,
	}, nil
}

func (s *Service) collectBucket(ctx context.Context, r timeutil.Range, v rbac.Visibility) ([]models.UsageRecord, []models.StorageRecord, error) {
	ctx, span := s.tracer.Start(ctx, "report.bucket", trace.WithAttributes(
		attribute.String("bucket.start", r.StartString()),
		attribute.String("bucket.end", r.EndString()),
	))
	defer span.End()

	fromDate, toDate := r.StartString(), r.EndString()

	usage, err := s.store.GetUsageStatistics(ctx, r, v.BillingProjects, v.UserProjects, v.TargetUser)
	if err != nil {
		return nil, nil, fmt.Errorf("usage for %s..%s: %w", fromDate, toDate, err)
	}
	for i := range usage {
		usage[i].FromDate = fromDate
		usage[i].ToDate = toDate
		usage[i].Username = s.username(usage[i].User)
	}

	var storage []models.StorageRecord
	if v.HasBillingProjects() {
		storage, err = s.store.GetImageStorageGigabyteHoursByProject(ctx, r, v.BillingProjects)
		if err != nil {
			return nil, nil, fmt.Errorf("image storage for %s..%s: %w", fromDate, toDate, err)
		}
		for i := range storage {
			storage[i].User = nil
			storage[i].FromDate = fromDate
			storage[i].ToDate = toDate
		}
	}
	return usage, storage, nil
}

// resolveRange parses the requested bounds. Defaults are the first of the
// current month and now, both in the configured zone.
func (s *Service) resolveRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	now := timeutil.NaiveNow(s.now(), s.location)

	from := timeutil.StartOfMonth(now)
	if strings.TrimSpace(rawFrom) != "" {
		parsed, err := timeutil.ParseInstant(rawFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: fromDate %q", ErrInvalidDate, rawFrom)
		}
		from = parsed
	}

	to := now
	if strings.TrimSpace(rawTo) != "" {
		parsed, err := timeutil.ParseInstant(rawTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: toDate %q", ErrInvalidDate, rawTo)
		}
		to = parsed
	}
	return from, to, nil
}

// bucketFor maps a requested name onto an accepted bucket size, falling back
// to daily.
func (s *Service) bucketFor(name string) timeutil.BucketSize {
	size, ok := timeutil.ParseBucketSize(name)
	if !ok || !lo.Contains(s.valid, size) {
		return timeutil.BucketDaily
	}
	return size
}

func (s *Service) username(id int64) string {
	if s.users == nil {
		return ""
	}
	name, _ := s.users.Lookup(id)
	return name
}

package api

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/billing_api/internal/app"
	"github.com/ncecere/billing_api/internal/limits"
	"github.com/ncecere/billing_api/internal/models"
	"github.com/ncecere/billing_api/internal/services/report"
	"github.com/ncecere/billing_api/internal/services/session"
)

type Sessions interface {
	Login(ctx context.Context, username, password string) (string, session.Identity, error)
	ValidateToken(ctx context.Context, token string) (session.Identity, error)
	RenewToken(ctx context.Context, identity session.Identity) (session.Renewal, error)
	ListProjects(ctx context.Context, identity session.Identity) ([]models.Project, error)
}

type Reports interface {
	Generate(ctx context.Context, req report.Request) (models.Report, error)
}

type DirectoryRefresher interface {
	RefreshUserDirectory(ctx context.Context, trigger string) error
}

type LoginLimiter interface {
	Allow(ctx context.Context, key string, cfg limits.LimitConfig) error
	Reset(ctx context.Context, key string, cfg limits.LimitConfig)
}

type LoginRecorder interface {
	RecordLogin(outcome string)
}

// Deps are the collaborators behind the public routes. Limiter and Metrics
// are optional.
type Deps struct {
	Sessions   Sessions
	Reports    Reports
	Directory  DirectoryRefresher
	Limiter    LoginLimiter
	LoginLimit limits.LimitConfig
	Metrics    LoginRecorder
}

// Register wires the login, projects and reports endpoints.
func Register(fiberApp *fiber.App, container *app.Container) {
	if fiberApp == nil || container == nil {
		return
	}
	deps := Deps{
		Sessions:   container.Sessions,
		Reports:    container.Reports,
		Directory:  container,
		LoginLimit: container.LoginLimit(),
	}
	if container.LoginLimiter != nil {
		deps.Limiter = container.LoginLimiter
	}
	if container.Observability != nil {
		deps.Metrics = container.Observability
	}
	Mount(fiberApp, deps)
}

// Mount registers the routes against explicit dependencies.
func Mount(fiberApp *fiber.App, deps Deps) {
	h := &handler{
		sessions:   deps.Sessions,
		reports:    deps.Reports,
		directory:  deps.Directory,
		limiter:    deps.Limiter,
		loginLimit: deps.LoginLimit,
		metrics:    deps.Metrics,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}

	auth := authMiddleware(deps.Sessions)
	fiberApp.Post("/login", h.login)
	fiberApp.Get("/projects", auth, h.listProjects)
	fiberApp.Get("/reports", auth, h.generateReport)
}

type handler struct {
	sessions   Sessions
	reports    Reports
	directory  DirectoryRefresher
	limiter    LoginLimiter
	loginLimit limits.LimitConfig
	metrics    LoginRecorder
	validate   *validator.Validate
}

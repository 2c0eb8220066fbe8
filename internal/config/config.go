package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/ncecere/billing_api/internal/rbac"
	"github.com/ncecere/billing_api/internal/timeutil"
)

// Config captures the runtime configuration for the billing API.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Session       SessionConfig       `mapstructure:"session"`
	Login         LoginConfig         `mapstructure:"login"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
	UserDirectory UserDirectoryConfig `mapstructure:"user_directory"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MinConns        int32         `mapstructure:"min_conns"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type SessionConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
	// RotationGrace keeps a rotated-out token valid briefly so concurrent
	// requests carrying it still succeed.
	RotationGrace time.Duration `mapstructure:"rotation_grace"`
}

type LoginConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
}

type ReportingConfig struct {
	Timezone         string   `mapstructure:"timezone"`
	ValidBucketSizes []string `mapstructure:"valid_bucket_sizes"`
}

// Location returns the reporting zone, UTC when unset or invalid.
func (r ReportingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(r.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

type UserDirectoryConfig struct {
	RefreshSchedule  string `mapstructure:"refresh_schedule"`
	RefreshOnStartup bool   `mapstructure:"refresh_on_startup"`
}

type ObservabilityConfig struct {
	ServiceName   string `mapstructure:"service_name"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

type BootstrapConfig struct {
	Users    []BootstrapUser    `mapstructure:"users"`
	Projects []BootstrapProject `mapstructure:"projects"`
	Grants   []BootstrapGrant   `mapstructure:"grants"`
}

type BootstrapUser struct {
	Username    string `mapstructure:"username"`
	DisplayName string `mapstructure:"display_name"`
	Password    string `mapstructure:"password"`
}

type BootstrapProject struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

type BootstrapGrant struct {
	Username string `mapstructure:"username"`
	Project  string `mapstructure:"project"`
	Role     string `mapstructure:"role"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("BILLING_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		v.SetConfigName("billing")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnv registers keys without defaults so AutomaticEnv can see them.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("database.url", "BILLING_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("redis.url", "BILLING_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("session.jwt_secret", "BILLING_SESSION_JWT_SECRET")
}

// Validate ensures required values are set.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		missing = append(missing, "BILLING_DATABASE_URL")
	}
	if c.Redis.URL == "" {
		missing = append(missing, "BILLING_REDIS_URL")
	}
	if c.Session.JWTSecret == "" {
		missing = append(missing, "BILLING_SESSION_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Database.RunMigrations && c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir must be provided when run_migrations is true")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}

	if c.Session.TokenTTL <= 0 {
		return fmt.Errorf("session.token_ttl must be > 0")
	}
	if c.Session.RotationGrace < 0 {
		return fmt.Errorf("session.rotation_grace must be >= 0")
	}
	if c.Session.RotationGrace >= c.Session.TokenTTL {
		return fmt.Errorf("session.rotation_grace must be shorter than session.token_ttl")
	}
	if strings.TrimSpace(c.Session.Issuer) == "" {
		c.Session.Issuer = "billing-api"
	}

	if c.Login.MaxAttempts < 0 {
		return fmt.Errorf("login.max_attempts must be >= 0")
	}
	if c.Login.MaxAttempts > 0 && c.Login.Window < time.Second {
		return fmt.Errorf("login.window must be at least 1s when login.max_attempts is set")
	}

	if err := c.Reporting.validate(); err != nil {
		return err
	}

	schedule := strings.TrimSpace(c.UserDirectory.RefreshSchedule)
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("invalid user_directory.refresh_schedule: %w", err)
		}
	}
	c.UserDirectory.RefreshSchedule = schedule

	if err := c.Bootstrap.validate(); err != nil {
		return err
	}

	return nil
}

func (r *ReportingConfig) validate() error {
	tz := strings.TrimSpace(r.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	r.Timezone = tz

	sizes := normalizeStringSlice(r.ValidBucketSizes)
	for i, name := range sizes {
		size, ok := timeutil.ParseBucketSize(name)
		if !ok {
			return fmt.Errorf("reporting.valid_bucket_sizes[%d]: unknown bucket size %q", i, name)
		}
		sizes[i] = string(size)
	}
	if len(sizes) == 0 {
		for _, size := range timeutil.BucketSizes {
			sizes = append(sizes, string(size))
		}
	}
	r.ValidBucketSizes = sizes
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 1)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("session.token_ttl", "30m")
	v.SetDefault("session.rotation_grace", "30s")
	v.SetDefault("session.issuer", "billing-api")

	v.SetDefault("login.max_attempts", 10)
	v.SetDefault("login.window", "1m")

	v.SetDefault("reporting.timezone", "UTC")
	v.SetDefault("reporting.valid_bucket_sizes", []string{"daily", "weekly", "monthly", "yearly"})

	v.SetDefault("user_directory.refresh_schedule", "*/15 * * * *")
	v.SetDefault("user_directory.refresh_on_startup", true)

	v.SetDefault("observability.service_name", "billing-api")
	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func (b *BootstrapConfig) validate() error {
	usernames := make(map[string]struct{}, len(b.Users))
	for i, user := range b.Users {
		name := strings.TrimSpace(user.Username)
		if name == "" {
			return fmt.Errorf("bootstrap.users[%d].username must be provided", i)
		}
		if strings.TrimSpace(user.Password) == "" {
			return fmt.Errorf("bootstrap.users[%d].password must be provided", i)
		}
		usernames[name] = struct{}{}
	}
	projects := make(map[string]struct{}, len(b.Projects))
	for i, project := range b.Projects {
		id := strings.TrimSpace(project.ID)
		if id == "" {
			return fmt.Errorf("bootstrap.projects[%d].id must be provided", i)
		}
		if strings.TrimSpace(project.Name) == "" {
			b.Projects[i].Name = id
		}
		projects[id] = struct{}{}
	}
	for i := range b.Grants {
		grant := &b.Grants[i]
		if _, ok := usernames[strings.TrimSpace(grant.Username)]; !ok {
			return fmt.Errorf("bootstrap.grants[%d].username must reference a bootstrap user", i)
		}
		if _, ok := projects[strings.TrimSpace(grant.Project)]; !ok {
			return fmt.Errorf("bootstrap.grants[%d].project must reference a bootstrap project", i)
		}
		grant.Role = rbac.NormalizeRole(grant.Role)
		if grant.Role == "" {
			return fmt.Errorf("bootstrap.grants[%d].role must be provided", i)
		}
	}
	return nil
}

func normalizeStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		// env overrides arrive as one comma separated element
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				clean = append(clean, trimmed)
			}
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}

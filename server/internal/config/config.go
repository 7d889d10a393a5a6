package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values for the queuewatch configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultBaseURL        = "https://queue-times.com"
	DefaultUserAgent      = "Mozilla/5.0"
	DefaultSourceTimeout  = 10 * time.Second
	DefaultRateLimit      = 10.0
	DefaultRideWindow     = 24 * time.Hour
	DefaultLogWindow      = 12 * time.Hour
	DefaultLogLimit       = 200
	DefaultEpicMaxWait    = 45
	DefaultMarqueeMaxWait = 50
	DefaultBroadcast      = 5 * time.Second
	DefaultTable          = "wait_history"
)

// Config is the full queuewatch configuration tree. It is loaded once at
// startup and treated as immutable afterwards; a reload produces a new value.
type Config struct {
	Server     ServerConfig  `yaml:"server"`
	Log        LogConfig     `yaml:"log"`
	Source     SourceConfig  `yaml:"source"`
	Parks      []Park        `yaml:"parks" validate:"required,min=1,dive"`
	Exclusions []string      `yaml:"exclusions"`
	Advice     AdviceConfig  `yaml:"advice"`
	History    HistoryConfig `yaml:"history"`
	Storage    StorageConfig `yaml:"storage"`
	Refresh    RefreshConfig `yaml:"refresh"`
	Alerts     AlertsConfig  `yaml:"alerts"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the dashboard, API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port" validate:"gt=0,lte=65535"`

	// Auth guards the operational endpoints (/metrics, /api/v1/*).
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls API key checks on the operational endpoints.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode" validate:"omitempty,oneof=apikey none"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// LogConfig selects the slog level.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// SourceConfig describes the external queue-times API.
type SourceConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	UserAgent string        `yaml:"user_agent" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`

	// RateLimit caps outbound requests per second. Burst equals the park count.
	RateLimit float64 `yaml:"rate_limit" validate:"gt=0"`
}

// Park maps a display name to its queue-times park identifier.
type Park struct {
	Name  string `yaml:"name" validate:"required"`
	ID    int    `yaml:"id" validate:"gt=0"`
	Hours string `yaml:"hours"`
}

// AdviceConfig parameterises the advice generator.
type AdviceConfig struct {
	// NewestPark is the park the "epic tip" rule looks at.
	NewestPark     string   `yaml:"newest_park"`
	EpicMaxWait    int      `yaml:"epic_max_wait" validate:"gte=0"`
	Marquee        []string `yaml:"marquee"`
	MarqueeMaxWait int      `yaml:"marquee_max_wait" validate:"gte=0"`
}

// HistoryConfig sets the read-back windows for the history views.
type HistoryConfig struct {
	RideWindow time.Duration `yaml:"ride_window" validate:"gt=0"`
	LogWindow  time.Duration `yaml:"log_window" validate:"gt=0"`
	LogLimit   int           `yaml:"log_limit" validate:"gt=0"`

	// Timezone is the IANA zone used for HH:MM labels. Default UTC.
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone, falling back to UTC.
func (h HistoryConfig) Location() *time.Location {
	if h.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StorageConfig selects the history store backend.
type StorageConfig struct {
	// Driver is one of: memory | postgres.
	Driver string `yaml:"driver" validate:"oneof=memory postgres"`

	// DSNEnv is the name of the environment variable holding the connection string.
	DSNEnv string `yaml:"dsn_env"`

	// Table is spliced into SQL, so it must be a plain identifier.
	Table string `yaml:"table" validate:"omitempty,sqlident"`
}

// DSN returns the connection string resolved from the environment.
func (s StorageConfig) DSN() string {
	if s.DSNEnv == "" {
		return ""
	}
	return os.Getenv(s.DSNEnv)
}

// RefreshConfig controls background work.
type RefreshConfig struct {
	// Interval runs an ingestion cycle in the background. Zero disables it and
	// cycles only happen on dashboard loads.
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// Broadcast is how often the WebSocket hub pushes the latest board.
	Broadcast time.Duration `yaml:"broadcast" validate:"gt=0"`
}

// AlertsConfig holds wait alert rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules" validate:"dive"`
	Webhooks []WebhookConfig `yaml:"webhooks" validate:"dive"`
}

// AlertRule fires when an open ride's wait drops to MaxWait or below.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name" validate:"required"`

	// Ride is the exact ride name the rule watches.
	Ride string `yaml:"ride" validate:"required"`

	// Park optionally narrows the rule to one park.
	Park string `yaml:"park"`

	MaxWait int `yaml:"max_wait" validate:"gte=0"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity" validate:"omitempty,oneof=critical warning info"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type" validate:"oneof=teams slack http"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env" validate:"required"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// ParkNames returns the configured park names in configuration order.
func (c *Config) ParkNames() []string {
	out := make([]string, 0, len(c.Parks))
	for _, p := range c.Parks {
		out = append(out, p.Name)
	}
	return out
}

// Load reads and parses the config file at path. An empty path returns the
// built-in defaults. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// sqlIdent matches an unquoted SQL identifier.
var sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return sqlIdent.MatchString(fl.Field().String())
	})
	return v
}

// validate checks struct tags first, then cross-field constraints the tags
// cannot express.
func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(cfg.Parks))
	for _, p := range cfg.Parks {
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("parks: duplicate park name %q", p.Name)
		}
		names[p.Name] = struct{}{}
	}
	if cfg.Advice.NewestPark != "" {
		if _, ok := names[cfg.Advice.NewestPark]; !ok {
			return fmt.Errorf("advice.newest_park %q is not a configured park", cfg.Advice.NewestPark)
		}
	}
	if cfg.Storage.Driver == "postgres" && cfg.Storage.DSNEnv == "" {
		return fmt.Errorf("storage.dsn_env is required for the postgres driver")
	}
	if cfg.History.Timezone != "" {
		if _, err := time.LoadLocation(cfg.History.Timezone); err != nil {
			return fmt.Errorf("history.timezone: %w", err)
		}
	}
	return nil
}

// RestartRequired lists the settings that differ between c and next but are
// only read at startup. Hot reload applies everything else.
func (c *Config) RestartRequired(next *Config) []string {
	var out []string
	if c.Server != next.Server {
		out = append(out, "server")
	}
	if c.Log != next.Log {
		out = append(out, "log")
	}
	if c.Source != next.Source {
		out = append(out, "source")
	}
	if c.Storage != next.Storage {
		out = append(out, "storage")
	}
	if c.Refresh != next.Refresh {
		out = append(out, "refresh")
	}
	if c.History != next.History {
		out = append(out, "history")
	}
	return out
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the form service.
type Config struct {
	AppName   string
	AppEnv    string
	AppPort   string
	LogLevel  string
	AccessLog bool

	AllowOrigins []string

	PlacesBaseURL  string
	PlacesTimeout  time.Duration
	PlacesListMode string

	RedisURL       string
	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string
	LoginURL  string

	NotificationTTL time.Duration
	ReloadDelay     time.Duration
	MaxImageBytes   int64

	SubmissionsCacheTTL time.Duration
	SubmitRateLimit     int
	SubmitRateWindow    time.Duration

	NATSURL     string
	NATSSubject string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix("SPOTFORM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Spot Form API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.access", false)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("places.timeout", "10s")
	v.SetDefault("places.list_mode", "user")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:spotform.db")
	v.SetDefault("auth.login_url", "/login")
	v.SetDefault("form.notification_ttl", "5s")
	v.SetDefault("form.reload_delay", "3s")
	v.SetDefault("form.max_image_mb", 10)
	v.SetDefault("submissions.cache_ttl", "1m")
	v.SetDefault("submit.rate_limit", 5)
	v.SetDefault("submit.rate_window", "10s")
	v.SetDefault("nats.subject", "places.submitted")

	durations := map[string]time.Duration{}
	for _, key := range []string{"places.timeout", "form.notification_ttl", "form.reload_delay", "submissions.cache_ttl", "submit.rate_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		LogLevel:            strings.ToLower(v.GetString("log.level")),
		AccessLog:           v.GetBool("log.access"),
		AllowOrigins:        splitList(v.GetString("cors.allow_origins")),
		PlacesBaseURL:       strings.TrimSpace(v.GetString("places.base_url")),
		PlacesTimeout:       durations["places.timeout"],
		PlacesListMode:      strings.ToLower(strings.TrimSpace(v.GetString("places.list_mode"))),
		RedisURL:            strings.TrimSpace(v.GetString("redis.url")),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:         strings.TrimSpace(v.GetString("database.url")),
		JWTSecret:           v.GetString("jwt.secret"),
		LoginURL:            v.GetString("auth.login_url"),
		NotificationTTL:     durations["form.notification_ttl"],
		ReloadDelay:         durations["form.reload_delay"],
		MaxImageBytes:       int64(v.GetInt("form.max_image_mb")) << 20,
		SubmissionsCacheTTL: durations["submissions.cache_ttl"],
		SubmitRateLimit:     v.GetInt("submit.rate_limit"),
		SubmitRateWindow:    durations["submit.rate_window"],
		NATSURL:             strings.TrimSpace(v.GetString("nats.url")),
		NATSSubject:         strings.TrimSpace(v.GetString("nats.subject")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.PlacesBaseURL == "" {
		return Config{}, fmt.Errorf("places base url must be provided")
	}
	if parsed, err := url.Parse(cfg.PlacesBaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Config{}, fmt.Errorf("places base url must be an http(s) url")
	}

	switch cfg.PlacesListMode {
	case "user", "name":
	default:
		return Config{}, fmt.Errorf("places list mode must be user or name, got %q", cfg.PlacesListMode)
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("database driver must be sqlite or postgres, got %q", cfg.DatabaseDriver)
	}

	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 10 << 20
	}
	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 5
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/parleyhq/parley/internal/settings"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Security SecurityConfig `mapstructure:"security"`
	Settings SettingsConfig `mapstructure:"settings"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TLS serves HTTPS when both files are set.
	TLS struct {
		CertFile string `mapstructure:"cert_file"`
		KeyFile  string `mapstructure:"key_file"`
	} `mapstructure:"tls"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SecurityConfig holds authentication and session configuration.
type SecurityConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
	CookieSameSite    string        `mapstructure:"cookie_samesite"`
	CookieDomain      string        `mapstructure:"cookie_domain"`
	PasswordMinLength int           `mapstructure:"password_min_length"`
	MaxFailedLogins   int           `mapstructure:"max_failed_logins"`
	LockoutDuration   time.Duration `mapstructure:"lockout_duration"`
}

// SettingsConfig holds settings panel configuration.
type SettingsConfig struct {
	// DefaultTab hints which top-level group an admin lands on when no
	// deep link or remembered selection applies.
	DefaultTab string `mapstructure:"default_tab"`

	// CleanupDelay is how long a closed deep-linked panel waits before
	// scrubbing its parameters from the browser URL.
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   struct {
		Path       string `mapstructure:"path"`
		MaxSize    string `mapstructure:"max_size"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"file"`
}

// LoadConfig loads configuration from file and environment.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/parley")
		v.AddConfigPath("$HOME/.parley")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Dual-binding: PARLEY_ prefixed (canonical) + unprefixed (Docker
	// Compose compat). BindEnv picks the first set.
	_ = v.BindEnv("database.url", "PARLEY_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("redis.url", "PARLEY_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("security.jwt_secret", "PARLEY_JWT_SECRET", "JWT_SECRET")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, proceed with env vars and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	// Redis
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Security
	v.SetDefault("security.access_token_ttl", "15m")
	v.SetDefault("security.refresh_token_ttl", "168h") // 7 days
	v.SetDefault("security.session_ttl", "24h")
	v.SetDefault("security.cookie_secure", true)
	v.SetDefault("security.cookie_samesite", "lax")
	v.SetDefault("security.password_min_length", 8)
	v.SetDefault("security.max_failed_logins", 5)
	v.SetDefault("security.lockout_duration", "15m")

	// Settings panel
	v.SetDefault("settings.default_tab", "")
	v.SetDefault("settings.cleanup_delay", "400ms")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file.max_size", "100MB")
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age", 30)
	v.SetDefault("logging.file.compress", true)
}

// Validate validates the configuration. Collects all errors so the
// operator can fix them in one pass.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.url is required"))
	}
	if c.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("redis.url is required"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("security.jwt_secret is required"))
	} else if len(c.Security.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("security.jwt_secret must be at least 32 characters"))
	}
	if c.Security.PasswordMinLength < 8 {
		errs = append(errs, fmt.Errorf("security.password_min_length must be at least 8"))
	}
	switch strings.ToLower(c.Security.CookieSameSite) {
	case "", "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("security.cookie_samesite must be lax, strict or none"))
	}
	if tab := c.Settings.DefaultTab; tab != "" && tab != settings.GroupPersonal && tab != settings.GroupSystem {
		errs = append(errs, fmt.Errorf("settings.default_tab must be %q or %q", settings.GroupPersonal, settings.GroupSystem))
	}
	if c.Settings.CleanupDelay < 0 {
		errs = append(errs, fmt.Errorf("settings.cleanup_delay must not be negative"))
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		errs = append(errs, fmt.Errorf("server.tls.cert_file and server.tls.key_file must be set together"))
	}

	return errors.Join(errs...)
}

// CookieSameSite converts the configured string to the http constant.
func (c *SecurityConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// PrintMasked prints the effective configuration with secrets masked.
func (c *Config) PrintMasked() {
	fmt.Printf("server.host:        %s\n", c.Server.Host)
	fmt.Printf("server.port:        %d\n", c.Server.Port)
	fmt.Printf("server.base_url:    %s\n", c.Server.BaseURL)
	fmt.Printf("database.url:       %s\n", maskURL(c.Database.URL))
	fmt.Printf("redis.url:          %s\n", maskURL(c.Redis.URL))
	fmt.Printf("security.jwt_secret: %s\n", mask(c.Security.JWTSecret))
	fmt.Printf("settings.default_tab:   %q\n", c.Settings.DefaultTab)
	fmt.Printf("settings.cleanup_delay: %s\n", c.Settings.CleanupDelay)
	fmt.Printf("logging.level:      %s\n", c.Logging.Level)
	fmt.Printf("logging.format:     %s\n", c.Logging.Format)
}

func mask(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}

// maskURL hides the password component of a connection URL.
func maskURL(u string) string {
	if u == "" {
		return "(unset)"
	}
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return u
	}
	creds := u[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon != -1 {
		creds = creds[:colon] + ":********"
	}
	return u[:scheme+3] + creds + u[at:]
}

// parseSize parses human sizes like "100MB" into bytes.
func parseSize(s string, defaultBytes int64) int64 {
	if s == "" {
		return defaultBytes
	}
	s = strings.TrimSpace(strings.ToUpper(s))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	var n int64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return defaultBytes
	}
	return n * multiplier
}

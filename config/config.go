// Package config provides configuration management for the application.
//
// Values are layered: built-in defaults, then an optional config.yaml (with
// ${VAR} and ${VAR:-default} placeholders expanded from the environment), then
// environment variables, which always win. A .env file in the working
// directory is loaded into the environment first without overriding it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Body size limits accepted by ValidateBodySizeLimit.
const (
	DefaultBodySizeLimit = "1M"
	minBodySizeLimit     = 1 << 10
	maxBodySizeLimit     = 100 << 20
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	Storage StorageConfig
	Cache   CacheConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `env:"PORT"`
	// BodySizeLimit uses echo's size syntax, e.g. "512K" or "10M".
	BodySizeLimit      string   `env:"BODY_SIZE_LIMIT"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
	SwaggerEnabled     bool     `env:"SWAGGER_ENABLED"`
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	// JWTSecret signs access and refresh tokens. When empty the server
	// generates an ephemeral secret at startup.
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"`
	BcryptCost      int           `env:"BCRYPT_COST"`
}

// StorageConfig selects the database backend
type StorageConfig struct {
	// Type is "sqlite", "postgresql", "mongodb" or "memory"
	Type       string `env:"STORAGE_TYPE"`
	SQLite     SQLiteStorageConfig
	PostgreSQL PostgreSQLStorageConfig
	MongoDB    MongoDBStorageConfig
}

// SQLiteStorageConfig holds SQLite-specific configuration
type SQLiteStorageConfig struct {
	Path string `env:"SQLITE_PATH"`
}

// PostgreSQLStorageConfig holds PostgreSQL-specific configuration
type PostgreSQLStorageConfig struct {
	URL      string `env:"POSTGRES_URL"`
	MaxConns int    `env:"POSTGRES_MAX_CONNS"`
}

// MongoDBStorageConfig holds MongoDB-specific configuration
type MongoDBStorageConfig struct {
	URL      string `env:"MONGODB_URL"`
	Database string `env:"MONGODB_DATABASE"`
}

// CacheConfig configures the item listing cache
type CacheConfig struct {
	// Type is "none", "local" or "redis"
	Type  string        `env:"CACHE_TYPE"`
	TTL   time.Duration `env:"CACHE_TTL"`
	Redis RedisConfig
}

// RedisConfig holds Redis-specific cache configuration
type RedisConfig struct {
	URL string `env:"REDIS_URL"`
	Key string `env:"REDIS_KEY"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled  bool   `env:"METRICS_ENABLED"`
	Endpoint string `env:"METRICS_ENDPOINT"`
}

// LogConfig controls process logging
type LogConfig struct {
	// Format is "text" (colourised) or "json"
	Format string `env:"LOG_FORMAT"`
	// Level is debug, info, warn or error
	Level string `env:"LOG_LEVEL"`
}

var configSearchPaths = []string{".", "./config"}

// Load reads configuration from defaults, config.yaml, .env and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := buildDefaultConfig()

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught while decoding.
func (c *Config) Validate() error {
	if err := ValidateBodySizeLimit(c.Server.BodySizeLimit); err != nil {
		return err
	}

	switch c.Storage.Type {
	case "sqlite", "postgresql", "mongodb", "memory":
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q (valid: sqlite, postgresql, mongodb, memory)", c.Storage.Type)
	}

	switch c.Cache.Type {
	case "none", "local", "redis":
	default:
		return fmt.Errorf("invalid CACHE_TYPE %q (valid: none, local, redis)", c.Cache.Type)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (valid: text, json)", c.Log.Format)
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			BodySizeLimit:  DefaultBodySizeLimit,
			SwaggerEnabled: true,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  5 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			BcryptCost:      10,
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			SQLite:     SQLiteStorageConfig{Path: "data/stockroom.db"},
			PostgreSQL: PostgreSQLStorageConfig{MaxConns: 10},
			MongoDB:    MongoDBStorageConfig{Database: "stockroom"},
		},
		Cache: CacheConfig{
			Type: "none",
			TTL:  30 * time.Second,
		},
		Metrics: MetricsConfig{
			Endpoint: "/metrics",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// applyConfigFile decodes the first config.yaml found on the search path
// over cfg. A missing file is not an error.
func applyConfigFile(cfg *Config) error {
	var raw []byte
	for _, dir := range configSearchPaths {
		data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
		if err == nil {
			raw = data
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if raw == nil {
		return nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader([]byte(expandString(string(raw))))); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := v.Unmarshal(cfg, snakeCaseMatchName(), viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// snakeCaseMatchName lets snake_case YAML keys match Go field names, so
// body_size_limit fills BodySizeLimit. Malformed keys never match.
func snakeCaseMatchName() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.MatchName = func(mapKey, fieldName string) bool {
			if strings.HasPrefix(mapKey, "_") || strings.HasSuffix(mapKey, "_") || strings.Contains(mapKey, "__") {
				return false
			}
			return strings.EqualFold(strings.ReplaceAll(mapKey, "_", ""), fieldName)
		}
	}
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders.
// Unset or empty variables without a default are left as-is.
func expandString(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if parts[2] != "" {
			return parts[3]
		}
		return match
	})
}

var durationType = reflect.TypeOf(time.Duration(0))

// applyEnvOverrides sets every field tagged `env:"NAME"` whose variable is
// set to a non-empty value.
func applyEnvOverrides(cfg *Config) error {
	return applyEnvToStruct(reflect.ValueOf(cfg).Elem())
}

func applyEnvToStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			continue
		}
		if err := setFromEnv(field, raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

func setFromEnv(field reflect.Value, raw string) error {
	switch {
	case field.Type() == durationType:
		d, err := parseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// parseDuration accepts Go duration syntax ("90s", "5m") or a bare number of seconds.
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

var bodySizePattern = regexp.MustCompile(`^(\d+)([KMG])?B?$`)

// ValidateBodySizeLimit checks a limit such as "10M" and enforces the 1KB..100MB range.
// The empty string is accepted and means the default.
func ValidateBodySizeLimit(limit string) error {
	limit = strings.ToUpper(strings.TrimSpace(limit))
	if limit == "" {
		return nil
	}

	m := bodySizePattern.FindStringSubmatch(limit)
	if m == nil || (m[2] == "" && strings.HasSuffix(limit, "B")) {
		return fmt.Errorf("invalid body size limit %q (expected e.g. 512K, 10M)", limit)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid body size limit %q: %w", limit, err)
	}
	switch m[2] {
	case "K":
		n <<= 10
	case "M":
		n <<= 20
	case "G":
		n <<= 30
	}

	if n < minBodySizeLimit || n > maxBodySizeLimit {
		return fmt.Errorf("body size limit %q out of range (1K..100M)", limit)
	}
	return nil
}

// Package config loads the dashboard configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/database"
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig
	Weather   WeatherConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Dashboard DashboardConfig
	Globe     GlobeConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AllowOrigins []string
}

// DefaultRateBurst lets one page activation go out unthrottled: the globe's
// eight presets, or a global search with its geocode, refreshes and redirect.
const DefaultRateBurst = 10

// WeatherConfig configures the upstream weather provider.
type WeatherConfig struct {
	APIKey      string
	BaseURL     string
	GeoURL      string
	IconBaseURL string
	Timeout     time.Duration
	RateLimit   float64 // requests per second
	RateBurst   int
}

// DatabaseConfig configures the preference store.
type DatabaseConfig struct {
	Driver          string
	Path            string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string
}

// DashboardConfig configures the views.
type DashboardConfig struct {
	DefaultCityName      string
	DefaultCityLat       float64
	DefaultCityLon       float64
	Timezone             string
	LegacyUnitConversion bool
}

// GlobeConfig configures the globe render loop.
type GlobeConfig struct {
	FrameInterval time.Duration
	Width         int
	Height        int
}

// Location resolves the dashboard timezone, falling back to the process local zone.
func (d DashboardConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultCity is the active city before any selection.
func (d DashboardConfig) DefaultCity() models.City {
	return models.City{Name: d.DefaultCityName, Lat: d.DefaultCityLat, Lon: d.DefaultCityLon}
}

// Connection converts the section into pkg/database settings.
func (d DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Path:            d.Path,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var errs []string
	env := envReader{errs: &errs}

	cfg := &Config{
		Server: ServerConfig{
			Host:         env.str("SERVER_HOST", ""),
			Port:         env.int("PORT", 8080),
			ReadTimeout:  env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowOrigins: env.list("ORIGIN"),
		},
		Weather: WeatherConfig{
			APIKey:      env.str("OPENWEATHER_API_KEY", ""),
			BaseURL:     env.str("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			GeoURL:      env.str("OPENWEATHER_GEO_URL", "https://api.openweathermap.org/geo/1.0"),
			IconBaseURL: env.str("OPENWEATHER_ICON_URL", "https://openweathermap.org/img/wn"),
			Timeout:     env.duration("OPENWEATHER_TIMEOUT", 10*time.Second),
			RateLimit:   env.float("OPENWEATHER_RATE_LIMIT", 1.0),
			RateBurst:   env.int("OPENWEATHER_RATE_BURST", DefaultRateBurst),
		},
		Database: DatabaseConfig{
			Driver:          env.str("DB_DRIVER", "sqlite"),
			Path:            env.str("DB_PATH", "dashboard.db"),
			Host:            env.str("DB_HOST", "localhost"),
			Port:            env.int("DB_PORT", 5432),
			User:            env.str("DB_USER", "postgres"),
			Password:        env.str("DB_PASSWORD", ""),
			Database:        env.str("DB_NAME", "weather_dashboard"),
			SSLMode:         env.str("DB_SSLMODE", "disable"),
			MaxOpenConns:    env.int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: env.duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: env.str("LOG_LEVEL", "info"),
		},
		Dashboard: DashboardConfig{
			DefaultCityName:      env.str("DASHBOARD_DEFAULT_CITY", "London"),
			DefaultCityLat:       env.float("DASHBOARD_DEFAULT_LAT", 51.5074),
			DefaultCityLon:       env.float("DASHBOARD_DEFAULT_LON", -0.1278),
			Timezone:             env.str("DASHBOARD_TIMEZONE", ""),
			LegacyUnitConversion: env.bool("DASHBOARD_LEGACY_UNIT_CONVERSION", false),
		},
		Globe: GlobeConfig{
			FrameInterval: env.duration("GLOBE_FRAME_INTERVAL", 50*time.Millisecond),
			Width:         env.int("GLOBE_WIDTH", 400),
			Height:        env.int("GLOBE_HEIGHT", 400),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// Validate checks the configuration for values the process cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Server.Port))
	}
	if c.Weather.APIKey == "" {
		problems = append(problems, "OPENWEATHER_API_KEY is required")
	}
	if c.Weather.RateLimit <= 0 || c.Weather.RateBurst <= 0 {
		problems = append(problems, "rate limit and burst must be positive")
	}
	switch c.Database.Driver {
	case database.DriverSQLite:
		if c.Database.Path == "" {
			problems = append(problems, "DB_PATH is required for sqlite")
		}
	case database.DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required for postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.Dashboard.DefaultCityLat < -90 || c.Dashboard.DefaultCityLat > 90 ||
		c.Dashboard.DefaultCityLon < -180 || c.Dashboard.DefaultCityLon > 180 {
		problems = append(problems, "default city coordinates out of range")
	}
	if c.Dashboard.Timezone != "" {
		if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
			problems = append(problems, fmt.Sprintf("unknown DASHBOARD_TIMEZONE %q", c.Dashboard.Timezone))
		}
	}
	if c.Globe.FrameInterval <= 0 {
		problems = append(problems, "GLOBE_FRAME_INTERVAL must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type envReader struct {
	errs *[]string
}

func (e envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e envReader) int(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func (e envReader) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func (e envReader) bool(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func (e envReader) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

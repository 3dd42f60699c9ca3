package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/repository"
	"weather-dashboard/internal/units"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// Theme is the page colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Defaults applied when nothing is stored.
const (
	DefaultTheme = ThemeLight
	DefaultUnit  = units.Celsius
)

// CurrentLocationName labels the city set from the browser's coordinates.
const CurrentLocationName = "Current Location"

var (
	// ErrInvalidTheme is returned for a theme other than light or dark.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidUnit is returned for a unit other than celsius or fahrenheit.
	ErrInvalidUnit = errors.New("invalid temperature unit")
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Icon is the toggle button's icon class: a moon offers dark mode, a sun offers light mode.
func (t Theme) Icon() string {
	if t == ThemeDark {
		return "fas fa-sun"
	}
	return "fas fa-moon"
}

// UnitDisplay is anything showing temperatures that must follow the unit preference.
type UnitDisplay interface {
	ApplyUnit(u units.Unit)
}

// Settings is a snapshot of the current preferences.
type Settings struct {
	Theme          Theme      `json:"theme"`
	ThemeIcon      string     `json:"theme_icon"`
	Unit           units.Unit `json:"unit"`
	Notifications  bool       `json:"notifications"`
	LocationAccess bool       `json:"location_access"`
}

// SettingsService owns the theme and unit preferences and pushes unit changes to displays
type SettingsService struct {
	repo    repository.PreferencesRepository
	active  *ActiveCity
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	// applyMu orders unit fan-outs so displays end on the stored unit
	applyMu sync.Mutex

	mu             sync.RWMutex
	theme          Theme
	unit           units.Unit
	notifications  bool
	locationAccess bool
	displays       []UnitDisplay
}

// NewSettingsService creates a new settings service with defaults applied
func NewSettingsService(repo repository.PreferencesRepository, active *ActiveCity, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SettingsService {
	return &SettingsService{
		repo:    repo,
		active:  active,
		logger:  logger,
		metrics: metricsCollector,
		theme:   DefaultTheme,
		unit:    DefaultUnit,
	}
}

// Register adds a display that re-derives its temperatures on unit changes.
func (s *SettingsService) Register(d UnitDisplay) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.displays = append(s.displays, d)
	unit := s.unit
	s.mu.Unlock()

	d.ApplyUnit(unit)
}

// Load reads every preference from the store, falling back to defaults, and applies them.
func (s *SettingsService) Load(ctx context.Context) {
	theme, err := ParseTheme(s.read(ctx, models.PrefTheme, string(DefaultTheme)))
	if err != nil {
		s.logger.Warn(ctx, "[SETTINGS_LOAD] Stored theme invalid, using default", logging.Fields{"error": err.Error()})
		theme = DefaultTheme
	}

	unit, err := units.ParseUnit(s.read(ctx, models.PrefUnit, string(DefaultUnit)))
	if err != nil {
		s.logger.Warn(ctx, "[SETTINGS_LOAD] Stored unit invalid, using default", logging.Fields{"error": err.Error()})
		unit = DefaultUnit
	}

	notifications, _ := strconv.ParseBool(s.read(ctx, models.PrefNotifications, "false"))
	locationAccess, _ := strconv.ParseBool(s.read(ctx, models.PrefLocationAccess, "false"))

	s.mu.Lock()
	s.theme = theme
	s.notifications = notifications
	s.locationAccess = locationAccess
	s.mu.Unlock()

	s.applyUnit(unit)

	s.logger.Info(ctx, "[SETTINGS_LOAD] Preferences applied", logging.Fields{
		"theme":           theme,
		"unit":            unit,
		"notifications":   notifications,
		"location_access": locationAccess,
	})
}

// read returns the stored value for key, or def when missing or unreadable.
func (s *SettingsService) read(ctx context.Context, key, def string) string {
	pref, err := s.repo.Get(ctx, key)
	if err != nil {
		var nf *repository.NotFoundError
		if !errors.As(err, &nf) {
			s.logger.Error(ctx, "[SETTINGS_LOAD_ERROR] Failed to read preference", logging.Fields{"key": key}, err)
		}
		return def
	}
	return pref.Value
}

// Snapshot returns the current preferences.
func (s *SettingsService) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Settings{
		Theme:          s.theme,
		ThemeIcon:      s.theme.Icon(),
		Unit:           s.unit,
		Notifications:  s.notifications,
		LocationAccess: s.locationAccess,
	}
}

// Unit returns the current temperature unit.
func (s *SettingsService) Unit() units.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unit
}

// SetTheme applies and persists theme.
func (s *SettingsService) SetTheme(ctx context.Context, theme string) (Theme, error) {
	t, err := ParseTheme(theme)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()

	return t, s.persist(ctx, models.PrefTheme, string(t))
}

// ToggleTheme flips between light and dark.
func (s *SettingsService) ToggleTheme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	t := s.theme.Toggle()
	s.theme = t
	s.mu.Unlock()

	return t, s.persist(ctx, models.PrefTheme, string(t))
}

// SetUnit applies unit to every registered display, then persists it.
func (s *SettingsService) SetUnit(ctx context.Context, unit string) (units.Unit, error) {
	u, err := units.ParseUnit(unit)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}

	s.applyUnit(u)
	return u, s.persist(ctx, models.PrefUnit, string(u))
}

func (s *SettingsService) applyUnit(u units.Unit) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.unit = u
	displays := append([]UnitDisplay(nil), s.displays...)
	s.mu.Unlock()

	for _, d := range displays {
		d.ApplyUnit(u)
	}
}

// SetNotifications persists the notifications flag.
func (s *SettingsService) SetNotifications(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	s.notifications = enabled
	s.mu.Unlock()

	s.logger.Info(ctx, "[SETTINGS] Notifications toggled", logging.Fields{"enabled": enabled})
	return s.persist(ctx, models.PrefNotifications, strconv.FormatBool(enabled))
}

// SetLocationAccess persists the location-access flag. When enabled with coordinates,
// the active city becomes "Current Location" at those coordinates.
func (s *SettingsService) SetLocationAccess(ctx context.Context, enabled bool, lat, lon *float64) error {
	s.mu.Lock()
	s.locationAccess = enabled
	s.mu.Unlock()

	if enabled && lat != nil && lon != nil {
		city := models.City{Name: CurrentLocationName, Lat: *lat, Lon: *lon}
		if err := city.Validate(); err != nil {
			return err
		}
		s.active.Set(city)
		s.logger.Info(ctx, "[SETTINGS] Location access granted", logging.Fields{
			"lat": *lat,
			"lon": *lon,
		})
	}

	return s.persist(ctx, models.PrefLocationAccess, strconv.FormatBool(enabled))
}

func (s *SettingsService) persist(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		s.logger.Error(ctx, "[SETTINGS_SAVE_ERROR] Failed to persist preference", logging.Fields{
			"key":   key,
			"value": value,
		}, err)
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/migrations"
	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// PreferencesRepository provides data access for persisted user preferences
type PreferencesRepository interface {
	Get(ctx context.Context, key string) (*models.Preference, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]*models.Preference, error)
	Delete(ctx context.Context, key string) error

	// Utility operations
	EnsureSchema(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// preferencesRepository implements PreferencesRepository
type preferencesRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) PreferencesRepository {
	return &preferencesRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// EnsureSchema applies the embedded up migrations. Every statement is idempotent.
func (r *preferencesRepository) EnsureSchema(ctx context.Context) error {
	ups, err := migrations.Load(migrations.Up)
	if err != nil {
		return err
	}
	for _, m := range ups {
		if _, err := r.db.ExecContext(ctx, "migrate_"+m.Name, m.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		r.logger.Debug(ctx, "[REPO_MIGRATE] Migration applied", logging.Fields{
			"migration": m.Name,
		})
	}
	return nil
}

// Get retrieves a preference by key
func (r *preferencesRepository) Get(ctx context.Context, key string) (*models.Preference, error) {
	query := `
		SELECT pref_key, pref_value, updated_at
		FROM preferences
		WHERE pref_key = ?
	`

	var pref models.Preference
	err := r.db.GetContext(ctx, "get_preference", &pref, query, key)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "preference",
			ID:       key,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return &pref, nil
}

// Set creates or replaces a preference
func (r *preferencesRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO preferences (pref_key, pref_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (pref_key) DO UPDATE
		SET pref_value = excluded.pref_value, updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_preference", query, key, value, r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_SET_PREFERENCE] Preference stored", logging.Fields{
		"key":   key,
		"value": value,
	})

	return nil
}

// List retrieves every stored preference ordered by key
func (r *preferencesRepository) List(ctx context.Context) ([]*models.Preference, error) {
	query := `
		SELECT pref_key, pref_value, updated_at
		FROM preferences
		ORDER BY pref_key
	`

	var prefs []*models.Preference
	if err := r.db.SelectContext(ctx, "list_preferences", &prefs, query); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}

	return prefs, nil
}

// Delete removes a preference. Deleting a missing key is a NotFoundError.
func (r *preferencesRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, "delete_preference", `DELETE FROM preferences WHERE pref_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &NotFoundError{Resource: "preference", ID: key}
	}
	return nil
}

// HealthCheck performs a repository health check
func (r *preferencesRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tj/assert"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

func newTestRepository(t *testing.T) *preferencesRepository {
	t.Helper()

	logger := logging.NewNopLogger()
	db, err := database.Open(&database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "prefs.db"),
	}, logger, metrics.NewTestCollector())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPreferencesRepository(db, logger, metrics.NewTestCollector()).(*preferencesRepository)
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	assert.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestPreferencesRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t)

	pref, err := repo.Get(context.Background(), models.PrefTheme)
	assert.Nil(t, pref)

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "preference", nf.Resource)
	assert.Equal(t, models.PrefTheme, nf.ID)
	assert.False(t, nf.IsTransient())
}

func TestPreferencesRepository_SetGetRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, models.PrefTheme, "dark"))
	assert.NoError(t, repo.Set(ctx, models.PrefUnit, "fahrenheit"))

	pref, err := repo.Get(ctx, models.PrefTheme)
	assert.NoError(t, err)
	assert.Equal(t, "dark", pref.Value)
	assert.Equal(t, int64(1700000000), pref.UpdatedAt)

	// upsert overwrites
	repo.now = func() time.Time { return time.Unix(1700000100, 0) }
	assert.NoError(t, repo.Set(ctx, models.PrefTheme, "light"))
	pref, err = repo.Get(ctx, models.PrefTheme)
	assert.NoError(t, err)
	assert.Equal(t, "light", pref.Value)
	assert.Equal(t, int64(1700000100), pref.UpdatedAt)

	all, err := repo.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, models.PrefTheme, all[0].Key)
	assert.Equal(t, models.PrefUnit, all[1].Key)
}

func TestPreferencesRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, models.PrefNotifications, "true"))
	assert.NoError(t, repo.Delete(ctx, models.PrefNotifications))

	var nf *NotFoundError
	assert.True(t, errors.As(repo.Delete(ctx, models.PrefNotifications), &nf))
}

func TestPreferencesRepository_EnsureSchemaIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, repo.HealthCheck(context.Background()))
}

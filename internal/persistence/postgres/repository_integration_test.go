//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/intelligence/internal/domain"
)

func TestRepositoryRoundTripAndTenantIsolation(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("fitness"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)

	tenantID := uuid.NewString()
	userID := uuid.NewString()
	date := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)

	distance := 12.5
	require.NoError(t, repo.UpsertActivity(ctx, tenantID, userID, domain.ActivityRecord{
		ID:          uuid.NewString(),
		Date:        date,
		Type:        domain.ActivityRunning,
		Title:       "Morning run",
		DurationMin: 75,
		DistanceKm:  &distance,
		Intensity:   domain.IntensityModerate,
	}))

	require.NoError(t, repo.UpsertPlanned(ctx, tenantID, userID, domain.PlannedActivity{
		ID:       uuid.NewString(),
		Date:     date.AddDate(0, 0, 2),
		Category: domain.PlanIntervals,
		Status:   domain.PlanStatusPlanned,
	}))

	require.NoError(t, repo.UpsertGoal(ctx, tenantID, userID, domain.PerformanceGoal{
		ID:      uuid.NewString(),
		Name:    "Weekly distance",
		Status:  domain.GoalActive,
		Targets: []domain.GoalTarget{{Unit: domain.TargetWeeklyDistanceKm, Value: 40}},
	}))

	from, to := date.AddDate(0, 0, -7), date.AddDate(0, 0, 7)

	activities, err := repo.ListActivities(ctx, tenantID, userID, from, to)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, "Morning run", activities[0].Title)
	require.NotNil(t, activities[0].DistanceKm)
	require.Equal(t, 12.5, *activities[0].DistanceKm)

	planned, err := repo.ListPlanned(ctx, tenantID, userID, from, to)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	require.Equal(t, domain.PlanIntervals, planned[0].Category)

	goals, err := repo.ListGoals(ctx, tenantID, userID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	target, ok := goals[0].Target(domain.TargetWeeklyDistanceKm)
	require.True(t, ok)
	require.Equal(t, 40.0, target.Value)

	// Upsert with the same ID must replace, not duplicate.
	updated := activities[0]
	updated.Title = "Morning run (edited)"
	require.NoError(t, repo.UpsertActivity(ctx, tenantID, userID, updated))

	activities, err = repo.ListActivities(ctx, tenantID, userID, from, to)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, "Morning run (edited)", activities[0].Title)

	otherTenant := uuid.NewString()
	leaked, err := repo.ListActivities(ctx, otherTenant, userID, from, to)
	require.NoError(t, err)
	require.Empty(t, leaked, "RLS should prevent cross-tenant access")
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/intelligence/internal/domain"
	"example.com/intelligence/internal/observability"
)

// Repository provides Postgres-backed storage for the ingested training data
// the engines compute from. All queries run inside a transaction carrying the
// tenant setting, so row-level security stays in force.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) withTenantTx(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListActivities returns a user's activities with dates in [from, to),
// ordered by date ascending.
func (r *Repository) ListActivities(ctx context.Context, tenantID, userID string, from, to time.Time) ([]domain.ActivityRecord, error) {
	const query = `SELECT activity_id, occurred_on, activity_type, COALESCE(title,''), duration_min, distance_km, COALESCE(intensity,''), avg_heart_rate, calories, exclude_from_stats
        FROM activities WHERE tenant_id=$1 AND user_id=$2 AND occurred_on >= $3 AND occurred_on < $4
        ORDER BY occurred_on, activity_id`

	var out []domain.ActivityRecord
	err := r.withTenantTx(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec domain.ActivityRecord
			if err := rows.Scan(&rec.ID, &rec.Date, &rec.Type, &rec.Title, &rec.DurationMin, &rec.DistanceKm, &rec.Intensity, &rec.AvgHeartRate, &rec.Calories, &rec.ExcludeFromStats); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlanned returns a user's planned activities with dates in [from, to),
// ordered by date ascending.
func (r *Repository) ListPlanned(ctx context.Context, tenantID, userID string, from, to time.Time) ([]domain.PlannedActivity, error) {
	const query = `SELECT plan_id, planned_on, category, status, estimated_distance_km, COALESCE(target_zone,''), is_race
        FROM planned_activities WHERE tenant_id=$1 AND user_id=$2 AND planned_on >= $3 AND planned_on < $4
        ORDER BY planned_on, plan_id`

	var out []domain.PlannedActivity
	err := r.withTenantTx(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p domain.PlannedActivity
			if err := rows.Scan(&p.ID, &p.Date, &p.Category, &p.Status, &p.EstimatedDistanceKm, &p.TargetZone, &p.IsRace); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListGoals returns all of a user's goals, active and archived. Date-window
// filtering is the caller's concern since goals carry their own validity.
func (r *Repository) ListGoals(ctx context.Context, tenantID, userID string) ([]domain.PerformanceGoal, error) {
	const query = `SELECT goal_id, name, status, targets, valid_from, valid_until
        FROM goals WHERE tenant_id=$1 AND user_id=$2 ORDER BY goal_id`

	var out []domain.PerformanceGoal
	err := r.withTenantTx(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g domain.PerformanceGoal
			var targets []byte
			if err := rows.Scan(&g.ID, &g.Name, &g.Status, &targets, &g.ValidFrom, &g.ValidUntil); err != nil {
				return err
			}
			if g.Targets, err = unmarshalTargets(targets); err != nil {
				return err
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertActivity inserts or replaces an ingested activity record.
func (r *Repository) UpsertActivity(ctx context.Context, tenantID, userID string, rec domain.ActivityRecord) error {
	const stmt = `INSERT INTO activities (activity_id, tenant_id, user_id, occurred_on, activity_type, title, duration_min, distance_km, intensity, avg_heart_rate, calories, exclude_from_stats, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
        ON CONFLICT (tenant_id, activity_id) DO UPDATE SET
            occurred_on=EXCLUDED.occurred_on, activity_type=EXCLUDED.activity_type, title=EXCLUDED.title,
            duration_min=EXCLUDED.duration_min, distance_km=EXCLUDED.distance_km, intensity=EXCLUDED.intensity,
            avg_heart_rate=EXCLUDED.avg_heart_rate, calories=EXCLUDED.calories,
            exclude_from_stats=EXCLUDED.exclude_from_stats, updated_at=now()`

	err := r.withTenantTx(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			rec.ID, tenantID, userID, rec.Date, rec.Type, nullIfEmpty(rec.Title),
			rec.DurationMin, rec.DistanceKm, nullIfEmpty(string(rec.Intensity)),
			rec.AvgHeartRate, rec.Calories, rec.ExcludeFromStats)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordActivityUpserted(rec.Date)
	return nil
}

// UpsertPlanned inserts or replaces a planned activity.
func (r *Repository) UpsertPlanned(ctx context.Context, tenantID, userID string, p domain.PlannedActivity) error {
	const stmt = `INSERT INTO planned_activities (plan_id, tenant_id, user_id, planned_on, category, status, estimated_distance_km, target_zone, is_race, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
        ON CONFLICT (tenant_id, plan_id) DO UPDATE SET
            planned_on=EXCLUDED.planned_on, category=EXCLUDED.category, status=EXCLUDED.status,
            estimated_distance_km=EXCLUDED.estimated_distance_km, target_zone=EXCLUDED.target_zone,
            is_race=EXCLUDED.is_race, updated_at=now()`

	return r.withTenantTx(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			p.ID, tenantID, userID, p.Date, p.Category, p.Status,
			p.EstimatedDistanceKm, nullIfEmpty(p.TargetZone), p.IsRace)
		return err
	})
}

// UpsertGoal inserts or replaces a performance goal. Targets are stored as a
// jsonb document.
func (r *Repository) UpsertGoal(ctx context.Context, tenantID, userID string, g domain.PerformanceGoal) error {
	targets, err := marshalTargets(g.Targets)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO goals (goal_id, tenant_id, user_id, name, status, targets, valid_from, valid_until, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
        ON CONFLICT (tenant_id, goal_id) DO UPDATE SET
            name=EXCLUDED.name, status=EXCLUDED.status, targets=EXCLUDED.targets,
            valid_from=EXCLUDED.valid_from, valid_until=EXCLUDED.valid_until, updated_at=now()`

	return r.withTenantTx(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			g.ID, tenantID, userID, g.Name, g.Status, targets, g.ValidFrom, g.ValidUntil)
		return err
	})
}

// storedTarget is the jsonb shape of a goal target.
type storedTarget struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

func marshalTargets(targets []domain.GoalTarget) ([]byte, error) {
	stored := make([]storedTarget, 0, len(targets))
	for _, t := range targets {
		stored = append(stored, storedTarget{Unit: t.Unit, Value: t.Value})
	}
	return json.Marshal(stored)
}

func unmarshalTargets(data []byte) ([]domain.GoalTarget, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var stored []storedTarget
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	targets := make([]domain.GoalTarget, 0, len(stored))
	for _, t := range stored {
		targets = append(targets, domain.GoalTarget{Unit: t.Unit, Value: t.Value})
	}
	return targets, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

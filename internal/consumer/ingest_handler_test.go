package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/intelligence/internal/domain"
)

type stubStore struct {
	activities []domain.ActivityRecord
	planned    []domain.PlannedActivity
	goals      []domain.PerformanceGoal
	lastTenant string
	lastUser   string
}

func (s *stubStore) UpsertActivity(_ context.Context, tenantID, userID string, rec domain.ActivityRecord) error {
	s.lastTenant, s.lastUser = tenantID, userID
	s.activities = append(s.activities, rec)
	return nil
}

func (s *stubStore) UpsertPlanned(_ context.Context, tenantID, userID string, p domain.PlannedActivity) error {
	s.lastTenant, s.lastUser = tenantID, userID
	s.planned = append(s.planned, p)
	return nil
}

func (s *stubStore) UpsertGoal(_ context.Context, tenantID, userID string, g domain.PerformanceGoal) error {
	s.lastTenant, s.lastUser = tenantID, userID
	s.goals = append(s.goals, g)
	return nil
}

func message(eventType string, payload string) Message {
	return Message{
		Topic:     "training_events",
		EventType: eventType,
		TenantID:  "tenant-1",
		UserID:    "user-1",
		Payload:   json.RawMessage(payload),
		Timestamp: time.Now().UTC(),
	}
}

func TestIngestActivityLogged(t *testing.T) {
	store := &stubStore{}
	handler := NewIngestHandler(store)

	payload := `{"activity_id":"act-1","date":"2026-03-02T07:00:00Z","activity_type":"running","title":"Morning run","duration_min":72,"distance_km":12,"intensity":"low"}`
	require.NoError(t, handler.Handle(context.Background(), message(EventActivityLogged, payload)))

	require.Len(t, store.activities, 1)
	rec := store.activities[0]
	require.Equal(t, "act-1", rec.ID)
	require.Equal(t, domain.ActivityRunning, rec.Type)
	require.Equal(t, domain.IntensityLow, rec.Intensity)
	require.NotNil(t, rec.DistanceKm)
	require.Equal(t, 12.0, *rec.DistanceKm)
	require.Equal(t, "tenant-1", store.lastTenant)
	require.Equal(t, "user-1", store.lastUser)
}

func TestIngestPlanUpdated(t *testing.T) {
	store := &stubStore{}
	handler := NewIngestHandler(store)

	payload := `{"plan_id":"plan-1","date":"2026-03-04T00:00:00Z","category":"INTERVALS","status":"PLANNED","estimated_distance_km":8}`
	require.NoError(t, handler.Handle(context.Background(), message(EventPlanUpdated, payload)))

	require.Len(t, store.planned, 1)
	require.Equal(t, domain.PlanIntervals, store.planned[0].Category)
	require.Equal(t, domain.PlanStatusPlanned, store.planned[0].Status)
}

func TestIngestGoalUpdated(t *testing.T) {
	store := &stubStore{}
	handler := NewIngestHandler(store)

	payload := `{"goal_id":"goal-1","name":"March base","status":"active","targets":[{"unit":"weekly_distance_km","value":40}]}`
	require.NoError(t, handler.Handle(context.Background(), message(EventGoalUpdated, payload)))

	require.Len(t, store.goals, 1)
	target, ok := store.goals[0].Target(domain.TargetWeeklyDistanceKm)
	require.True(t, ok)
	require.Equal(t, 40.0, target.Value)
}

func TestIngestSkipsUnknownEventType(t *testing.T) {
	store := &stubStore{}
	handler := NewIngestHandler(store)

	require.NoError(t, handler.Handle(context.Background(), message("activity.reprocessed", `{}`)))
	require.Empty(t, store.activities)
	require.Empty(t, store.planned)
	require.Empty(t, store.goals)
}

func TestIngestRejectsMissingIdentity(t *testing.T) {
	handler := NewIngestHandler(&stubStore{})

	msg := message(EventActivityLogged, `{"activity_id":"act-1","date":"2026-03-02T07:00:00Z"}`)
	msg.UserID = ""
	require.Error(t, handler.Handle(context.Background(), msg))
}

func TestIngestRejectsMalformedPayload(t *testing.T) {
	handler := NewIngestHandler(&stubStore{})

	require.Error(t, handler.Handle(context.Background(), message(EventActivityLogged, `{"activity_id":""}`)))
	require.Error(t, handler.Handle(context.Background(), message(EventPlanUpdated, `not json`)))
}

package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"example.com/intelligence/internal/domain"
)

// Store is the subset of the repository the ingest handler writes through.
type Store interface {
	UpsertActivity(ctx context.Context, tenantID, userID string, rec domain.ActivityRecord) error
	UpsertPlanned(ctx context.Context, tenantID, userID string, p domain.PlannedActivity) error
	UpsertGoal(ctx context.Context, tenantID, userID string, g domain.PerformanceGoal) error
}

// Event types the handler understands. Anything else is logged and skipped so
// new upstream events never wedge the partition.
const (
	EventActivityLogged = "activity.logged"
	EventPlanUpdated    = "plan.updated"
	EventGoalUpdated    = "goal.updated"
)

// IngestHandler applies training events to the local store.
type IngestHandler struct {
	store  Store
	logger *log.Logger
}

// NewIngestHandler constructs a handler backed by the provided store.
func NewIngestHandler(store Store) *IngestHandler {
	return &IngestHandler{
		store:  store,
		logger: log.New(log.Writer(), "[ingest] ", log.LstdFlags|log.Lshortfile),
	}
}

// Handle routes one decoded message to the matching upsert.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	if msg.TenantID == "" || msg.UserID == "" {
		return errors.New("message missing tenant_id or user_id header")
	}

	switch msg.EventType {
	case EventActivityLogged:
		return h.handleActivity(ctx, msg)
	case EventPlanUpdated:
		return h.handlePlan(ctx, msg)
	case EventGoalUpdated:
		return h.handleGoal(ctx, msg)
	default:
		h.logger.Printf("skipping unknown event type %q (topic=%s offset=%d)", msg.EventType, msg.Topic, msg.Offset)
		return nil
	}
}

type activityLoggedEvent struct {
	ActivityID       string    `json:"activity_id"`
	Date             time.Time `json:"date"`
	ActivityType     string    `json:"activity_type"`
	Title            string    `json:"title"`
	DurationMin      float64   `json:"duration_min"`
	DistanceKm       *float64  `json:"distance_km"`
	Intensity        string    `json:"intensity"`
	AvgHeartRate     *float64  `json:"avg_heart_rate"`
	Calories         *float64  `json:"calories"`
	ExcludeFromStats bool      `json:"exclude_from_stats"`
}

func (h *IngestHandler) handleActivity(ctx context.Context, msg Message) error {
	var ev activityLoggedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	if ev.ActivityID == "" || ev.Date.IsZero() {
		return fmt.Errorf("%s missing activity_id or date", msg.EventType)
	}

	return h.store.UpsertActivity(ctx, msg.TenantID, msg.UserID, domain.ActivityRecord{
		ID:               ev.ActivityID,
		Date:             ev.Date,
		Type:             domain.ActivityType(ev.ActivityType),
		Title:            ev.Title,
		DurationMin:      ev.DurationMin,
		DistanceKm:       ev.DistanceKm,
		Intensity:        domain.Intensity(ev.Intensity),
		AvgHeartRate:     ev.AvgHeartRate,
		Calories:         ev.Calories,
		ExcludeFromStats: ev.ExcludeFromStats,
	})
}

type planUpdatedEvent struct {
	PlanID              string    `json:"plan_id"`
	Date                time.Time `json:"date"`
	Category            string    `json:"category"`
	Status              string    `json:"status"`
	EstimatedDistanceKm *float64  `json:"estimated_distance_km"`
	TargetZone          string    `json:"target_zone"`
	IsRace              bool      `json:"is_race"`
}

func (h *IngestHandler) handlePlan(ctx context.Context, msg Message) error {
	var ev planUpdatedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	if ev.PlanID == "" || ev.Date.IsZero() {
		return fmt.Errorf("%s missing plan_id or date", msg.EventType)
	}

	return h.store.UpsertPlanned(ctx, msg.TenantID, msg.UserID, domain.PlannedActivity{
		ID:                  ev.PlanID,
		Date:                ev.Date,
		Category:            domain.PlanCategory(ev.Category),
		Status:              domain.PlanStatus(ev.Status),
		EstimatedDistanceKm: ev.EstimatedDistanceKm,
		TargetZone:          ev.TargetZone,
		IsRace:              ev.IsRace,
	})
}

type goalUpdatedEvent struct {
	GoalID  string `json:"goal_id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Targets []struct {
		Unit  string  `json:"unit"`
		Value float64 `json:"value"`
	} `json:"targets"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

func (h *IngestHandler) handleGoal(ctx context.Context, msg Message) error {
	var ev goalUpdatedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	if ev.GoalID == "" {
		return fmt.Errorf("%s missing goal_id", msg.EventType)
	}

	goal := domain.PerformanceGoal{
		ID:         ev.GoalID,
		Name:       ev.Name,
		Status:     domain.GoalStatus(ev.Status),
		ValidFrom:  ev.ValidFrom,
		ValidUntil: ev.ValidUntil,
	}
	for _, t := range ev.Targets {
		goal.Targets = append(goal.Targets, domain.GoalTarget{Unit: t.Unit, Value: t.Value})
	}

	return h.store.UpsertGoal(ctx, msg.TenantID, msg.UserID, goal)
}

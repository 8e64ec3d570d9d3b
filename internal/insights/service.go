// Package insights orchestrates the stateless engines over a stored training
// snapshot. The service owns the snapshot window and the clock; the engines
// stay pure functions of their inputs.
package insights

import (
	"context"
	"time"

	"example.com/intelligence/internal/domain"
	"example.com/intelligence/internal/interference"
	"example.com/intelligence/internal/loadanalysis"
	"example.com/intelligence/internal/observability"
	"example.com/intelligence/internal/suggest"
)

// Snapshot window relative to the target date. Six trailing weeks cover every
// baseline the engines compute; one week ahead covers the planning horizon.
const (
	historyWindowDays   = 42
	planningHorizonDays = 7
)

// Repository loads the ingested training data the engines compute from.
type Repository interface {
	ListActivities(ctx context.Context, tenantID, userID string, from, to time.Time) ([]domain.ActivityRecord, error)
	ListPlanned(ctx context.Context, tenantID, userID string, from, to time.Time) ([]domain.PlannedActivity, error)
	ListGoals(ctx context.Context, tenantID, userID string) ([]domain.PerformanceGoal, error)
}

// Service computes insight responses for one tenant/user at a time.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service using the wall clock.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) loadSnapshot(ctx context.Context, tenantID, userID string, date time.Time) (domain.Snapshot, error) {
	from := date.AddDate(0, 0, -historyWindowDays)
	to := date.AddDate(0, 0, planningHorizonDays)

	activities, err := s.repo.ListActivities(ctx, tenantID, userID, from, to)
	if err != nil {
		return domain.Snapshot{}, err
	}
	planned, err := s.repo.ListPlanned(ctx, tenantID, userID, from, to)
	if err != nil {
		return domain.Snapshot{}, err
	}
	goals, err := s.repo.ListGoals(ctx, tenantID, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	observability.RecordSnapshotLoaded(s.now())
	return domain.Snapshot{Activities: activities, Planned: planned, Goals: goals}, nil
}

// Suggestions generates the ranked suggestion list for the given date.
func (s *Service) Suggestions(ctx context.Context, tenantID, userID string, date time.Time, prefs domain.Preferences) ([]domain.TrainingSuggestion, error) {
	started := s.now()

	snap, err := s.loadSnapshot(ctx, tenantID, userID, date)
	if err != nil {
		return nil, err
	}

	weekStart := domain.WeekStart(date)
	out := suggest.Generate(suggest.Input{
		Date:     date,
		History:  snap.Activities,
		Goals:    snap.Goals,
		Forecast: snap.Forecast(weekStart, date),
		Prefs:    prefs,
	})

	for _, sg := range out {
		observability.RecordSuggestion(string(sg.Type))
	}
	observability.ObserveCompute("suggestions", s.now().Sub(started))
	return out, nil
}

// Weekly produces the load and adherence report for the week containing date.
func (s *Service) Weekly(ctx context.Context, tenantID, userID string, date time.Time, prefs domain.Preferences) (loadanalysis.WeeklyReport, error) {
	started := s.now()

	snap, err := s.loadSnapshot(ctx, tenantID, userID, date)
	if err != nil {
		return loadanalysis.WeeklyReport{}, err
	}

	report := loadanalysis.Analyze(snap, domain.WeekStart(date), date, prefs)
	observability.ObserveCompute("weekly", s.now().Sub(started))
	return report, nil
}

// Conflicts runs interference detection over logged and still-planned sessions
// in [from, to).
func (s *Service) Conflicts(ctx context.Context, tenantID, userID string, from, to time.Time) ([]domain.ConflictWarning, error) {
	started := s.now()

	activities, err := s.repo.ListActivities(ctx, tenantID, userID, from, to)
	if err != nil {
		return nil, err
	}
	planned, err := s.repo.ListPlanned(ctx, tenantID, userID, from, to)
	if err != nil {
		return nil, err
	}

	var likes []interference.ActivityLike
	for _, a := range activities {
		if a.ExcludeFromStats {
			continue
		}
		likes = append(likes, interference.FromRecord(a))
	}
	for _, p := range planned {
		if p.Status != domain.PlanStatusPlanned {
			continue
		}
		likes = append(likes, interference.FromPlanned(p))
	}

	warnings := interference.Detect(likes)
	for _, w := range warnings {
		observability.RecordConflict(string(w.Type))
	}
	observability.ObserveCompute("conflicts", s.now().Sub(started))
	return warnings, nil
}

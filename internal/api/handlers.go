// Package api exposes HTTP handlers for the training intelligence service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/intelligence/internal/auth"
	"example.com/intelligence/internal/domain"
	"example.com/intelligence/internal/insights"
	"example.com/intelligence/internal/loadanalysis"
	"example.com/intelligence/internal/performance"
)

const dateLayout = "2006-01-02"

// Handler coordinates HTTP requests with the insight service.
type Handler struct {
	service *insights.Service
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *insights.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// WithClock overrides the handler clock, for tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/insights/suggestions", h.suggestions)
	mux.HandleFunc("/v1/insights/weekly", h.weekly)
	mux.HandleFunc("/v1/insights/conflicts", h.conflicts)
	mux.HandleFunc("/v1/calculator/race", h.racePrediction)
	mux.HandleFunc("/v1/calculator/calories", h.calories)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readClaims extracts claims and checks the insights read scope.
func readClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeInsightsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope insights:read required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := readClaims(w, r)
	if !ok {
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	date, err := h.parseDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	prefs := parsePreferences(r)

	items, err := h.service.Suggestions(r.Context(), claims.TenantID, userID, date, prefs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := SuggestionsResponse{
		Date:  date.Format(dateLayout),
		Items: make([]SuggestionView, 0, len(items)),
	}
	for _, s := range items {
		resp.Items = append(resp.Items, toSuggestionView(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) weekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := readClaims(w, r)
	if !ok {
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	date, err := h.parseDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	prefs := parsePreferences(r)

	report, err := h.service.Weekly(r.Context(), claims.TenantID, userID, date, prefs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toWeeklyView(report))
}

func (h *Handler) conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := readClaims(w, r)
	if !ok {
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	from, err := h.parseDate(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	to := from.AddDate(0, 0, 7)
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid to date, expected YYYY-MM-DD")
			return
		}
		to = to.AddDate(0, 0, 1) // inclusive end date
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "validation_failed", "to must not be before from")
		return
	}

	warnings, err := h.service.Conflicts(r.Context(), claims.TenantID, userID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := ConflictsResponse{Items: make([]ConflictView, 0, len(warnings))}
	for _, c := range warnings {
		resp.Items = append(resp.Items, toConflictView(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) racePrediction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := readClaims(w, r); !ok {
		return
	}

	var req RacePredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	score := performance.FitnessScore(req.DistanceKm, req.TimeSeconds)
	predicted := performance.PredictRaceTime(score, req.TargetDistanceKm)
	riegel := performance.RiegelPredict(req.TimeSeconds, req.DistanceKm, req.TargetDistanceKm)
	zones := performance.PaceZones(score)

	writeJSON(w, http.StatusOK, RacePredictionResponse{
		FitnessScore:       score,
		TargetDistanceKm:   req.TargetDistanceKm,
		PredictedSeconds:   predicted,
		PredictedFormatted: performance.FormatSeconds(predicted),
		RiegelSeconds:      riegel,
		RiegelFormatted:    performance.FormatSeconds(riegel),
		Zones: PaceZonesView{
			Easy:      performance.FormatPace(zones.Easy),
			Threshold: performance.FormatPace(zones.Threshold),
			Interval:  performance.FormatPace(zones.Interval),
		},
	})
}

func (h *Handler) calories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := readClaims(w, r); !ok {
		return
	}

	var req CaloriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	calories := performance.EstimateCalories(req.ActivityType, req.DurationSeconds, performance.CalorieParams{
		WeightKg:   req.WeightKg,
		SpeedKph:   req.SpeedKph,
		PowerWatts: req.PowerWatts,
	})

	writeJSON(w, http.StatusOK, CaloriesResponse{Calories: calories})
}

// parseDate reads a YYYY-MM-DD query parameter, defaulting to today.
func (h *Handler) parseDate(r *http.Request, param string) (time.Time, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		now := h.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + param + " date, expected YYYY-MM-DD")
	}
	return date, nil
}

// parsePreferences reads the optional preference knobs from query parameters.
func parsePreferences(r *http.Request) domain.Preferences {
	prefs := domain.DefaultPreferences()

	if raw := r.URL.Query().Get("long_run_threshold_km"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			prefs.LongRunThresholdKm = v
		}
	}
	if raw := r.URL.Query().Get("birth_year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			prefs.BirthYear = v
		}
	}
	if raw := r.URL.Query().Get("modalities"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			m = strings.TrimSpace(m)
			if m != "" {
				prefs.Modalities = append(prefs.Modalities, domain.ActivityType(m))
			}
		}
	}
	return prefs
}

// RacePredictionRequest is the payload for POST /v1/calculator/race.
type RacePredictionRequest struct {
	DistanceKm       float64 `json:"distance_km"`
	TimeSeconds      float64 `json:"time_seconds"`
	TargetDistanceKm float64 `json:"target_distance_km"`
}

// Validate ensures request correctness.
func (r RacePredictionRequest) Validate() error {
	if r.DistanceKm <= 0 {
		return errors.New("distance_km must be > 0")
	}
	if r.TimeSeconds <= 0 {
		return errors.New("time_seconds must be > 0")
	}
	if r.TargetDistanceKm <= 0 {
		return errors.New("target_distance_km must be > 0")
	}
	return nil
}

// RacePredictionResponse carries the fitness score, both prediction models,
// and derived training paces.
type RacePredictionResponse struct {
	FitnessScore       float64       `json:"fitness_score"`
	TargetDistanceKm   float64       `json:"target_distance_km"`
	PredictedSeconds   float64       `json:"predicted_seconds"`
	PredictedFormatted string        `json:"predicted_formatted"`
	RiegelSeconds      float64       `json:"riegel_seconds"`
	RiegelFormatted    string        `json:"riegel_formatted"`
	Zones              PaceZonesView `json:"zones"`
}

// PaceZonesView renders training paces as m:ss strings.
type PaceZonesView struct {
	Easy      string `json:"easy"`
	Threshold string `json:"threshold"`
	Interval  string `json:"interval"`
}

// CaloriesRequest is the payload for POST /v1/calculator/calories.
type CaloriesRequest struct {
	ActivityType    string  `json:"activity_type"`
	DurationSeconds float64 `json:"duration_seconds"`
	WeightKg        float64 `json:"weight_kg"`
	SpeedKph        float64 `json:"speed_kph"`
	PowerWatts      float64 `json:"power_watts"`
}

// Validate ensures request correctness.
func (r CaloriesRequest) Validate() error {
	if strings.TrimSpace(r.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if r.DurationSeconds <= 0 {
		return errors.New("duration_seconds must be > 0")
	}
	return nil
}

// CaloriesResponse carries the estimate; 0 means "not computable from the
// supplied inputs", mirroring the engine's degrade-to-zero contract.
type CaloriesResponse struct {
	Calories float64 `json:"calories"`
}

// SuggestionView exposes a single ranked suggestion.
type SuggestionView struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	DurationMin *float64 `json:"duration_min,omitempty"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	Intensity   string   `json:"intensity,omitempty"`
	Priority    int      `json:"priority"`
}

// SuggestionsResponse packages the ranked list for one date.
type SuggestionsResponse struct {
	Date  string           `json:"date"`
	Items []SuggestionView `json:"items"`
}

// IntensityView buckets the week's cardio minutes.
type IntensityView struct {
	LowMinutes      float64 `json:"low_minutes"`
	ModerateMinutes float64 `json:"moderate_minutes"`
	HighMinutes     float64 `json:"high_minutes"`
	LowPercent      float64 `json:"low_percent"`
	ModeratePercent float64 `json:"moderate_percent"`
	HighPercent     float64 `json:"high_percent"`
}

// TrendView compares forecast volume against the trailing baseline.
type TrendView struct {
	Classification string  `json:"classification"`
	ForecastKm     float64 `json:"forecast_km"`
	BaselineKm     float64 `json:"baseline_km"`
	DiffPercent    float64 `json:"diff_percent"`
}

// AdherenceView summarises plan adherence with its narrative.
type AdherenceView struct {
	Percent      float64  `json:"percent"`
	PlannedCount int      `json:"planned_count"`
	Completed    int      `json:"completed"`
	Missed       int      `json:"missed"`
	Extra        int      `json:"extra"`
	Observations []string `json:"observations"`
}

// WeeklyReportView is the full weekly analysis response.
type WeeklyReportView struct {
	WeekStart string        `json:"week_start"`
	Intensity IntensityView `json:"intensity"`
	Trend     TrendView     `json:"trend"`
	Adherence AdherenceView `json:"adherence"`
}

// ConflictView exposes one same-day interference warning.
type ConflictView struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Risk        string   `json:"risk"`
	Message     string   `json:"message"`
	Explanation string   `json:"explanation"`
	ActivityIDs []string `json:"activity_ids"`
	Suggestion  string   `json:"suggestion"`
}

// ConflictsResponse packages detected conflicts for the window.
type ConflictsResponse struct {
	Items []ConflictView `json:"items"`
}

func toSuggestionView(s domain.TrainingSuggestion) SuggestionView {
	return SuggestionView{
		ID:          s.ID,
		Type:        string(s.Type),
		Label:       s.Label,
		Description: s.Description,
		Reason:      s.Reason,
		DurationMin: s.DurationMin,
		DistanceKm:  s.DistanceKm,
		Intensity:   string(s.Intensity),
		Priority:    s.Priority,
	}
}

func toWeeklyView(r loadanalysis.WeeklyReport) WeeklyReportView {
	return WeeklyReportView{
		WeekStart: r.WeekStart.Format(dateLayout),
		Intensity: IntensityView{
			LowMinutes:      r.Intensity.LowMinutes,
			ModerateMinutes: r.Intensity.ModerateMinutes,
			HighMinutes:     r.Intensity.HighMinutes,
			LowPercent:      r.Intensity.LowPercent,
			ModeratePercent: r.Intensity.ModeratePercent,
			HighPercent:     r.Intensity.HighPercent,
		},
		Trend: TrendView{
			Classification: string(r.Trend.Classification),
			ForecastKm:     r.Trend.ForecastKm,
			BaselineKm:     r.Trend.BaselineKm,
			DiffPercent:    r.Trend.DiffPercent,
		},
		Adherence: AdherenceView{
			Percent:      r.Adherence.Percent,
			PlannedCount: r.Adherence.PlannedCount,
			Completed:    r.Adherence.Completed,
			Missed:       r.Adherence.Missed,
			Extra:        r.Adherence.Extra,
			Observations: r.Adherence.Observations,
		},
	}
}

func toConflictView(c domain.ConflictWarning) ConflictView {
	return ConflictView{
		ID:          c.ID,
		Date:        c.Date.Format(dateLayout),
		Type:        string(c.Type),
		Risk:        string(c.Risk),
		Message:     c.Message,
		Explanation: c.Explanation,
		ActivityIDs: c.ActivityIDs,
		Suggestion:  c.Suggestion,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

package auth

// Known OAuth scopes used by the intelligence service.
const (
	ScopeInsightsRead = "insights:read"
	ScopeIngestWrite  = "activities:ingest"
)

package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"

	RecomputeTotal            = "recompute_total"
	RecomputeDurationSeconds  = "recompute_duration_seconds"
	RecomputeConflictsTotal   = "recompute_conflicts_total"
	AchievementsUnlockedTotal = "achievements_unlocked_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "status_code"}),
		RecomputeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RecomputeTotal,
			Help: "Count of progression recomputations",
		}, []string{"path", "result"}),
		RecomputeConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RecomputeConflictsTotal,
			Help: "Count of recomputations retried because of a concurrent write",
		}, []string{"path"}),
		AchievementsUnlockedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: AchievementsUnlockedTotal,
			Help: "Count of unlocked achievements",
		}, []string{"rarity"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "status_code"}),
		RecomputeDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: RecomputeDurationSeconds,
			Help: "Duration of progression recomputations",
		}, []string{"path"}),
	}
)

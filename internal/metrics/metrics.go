package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Award path outcomes.
const (
	PathPrivileged = "privileged"
	PathDirect     = "direct"
	PathDropped    = "dropped"
)

var (
	XPAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillquest_xp_awarded_total",
			Help: "Total XP credited to profiles",
		},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillquest_level_ups_total",
			Help: "Total number of level-ups",
		},
	)

	AwardOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillquest_award_outcomes_total",
			Help: "Award attempts by the path that applied them",
		},
		[]string{"path"},
	)

	ActivitiesLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillquest_activities_logged_total",
			Help: "Activity entries written, by type",
		},
		[]string{"activity_type"},
	)

	ContentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillquest_content_requests_total",
			Help: "Generated content requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RealtimeDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillquest_realtime_dropped_total",
			Help: "Realtime messages dropped because a subscriber was too slow",
		},
		[]string{"channel"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillquest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
)

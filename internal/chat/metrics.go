package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	submitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medchat",
			Subsystem: "chat",
			Name:      "submits_total",
			Help:      "Chat submits by outcome",
		},
		[]string{"outcome"},
	)

	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medchat",
			Subsystem: "chat",
			Name:      "inference_duration_seconds",
			Help:      "Time spent waiting on the model per submit",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	sessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medchat",
			Subsystem: "chat",
			Name:      "sessions_created_total",
			Help:      "Sessions opened",
		},
	)
)

func init() {
	prometheus.MustRegister(submitsTotal, inferenceDuration, sessionsCreated)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medhire_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	TransitionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medhire_transitions_total",
			Help: "Total number of committed status transitions.",
		},
		[]string{"resource", "from", "to"},
	)
	RejectedTransitionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medhire_rejected_transitions_total",
			Help: "Total number of transitions refused by the lifecycle rules.",
		},
		[]string{"resource", "reason"},
	)
	NotificationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medhire_notifications_total",
			Help: "Total number of notification dispatch attempts.",
		},
		[]string{"kind", "delivered"},
	)
	FanOutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medhire_fan_out_duration_seconds",
			Help:    "Duration of applicant notification fan-out in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	RealtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medhire_realtime_connections",
			Help: "Number of open realtime websocket connections.",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(TransitionsCounter)
		prometheus.MustRegister(RejectedTransitionsCounter)
		prometheus.MustRegister(NotificationsCounter)
		prometheus.MustRegister(FanOutDuration)
		prometheus.MustRegister(RealtimeConnections)
	})
}

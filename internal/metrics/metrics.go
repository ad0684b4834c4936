// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of activity logs uploaded",
		},
		[]string{"category"},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification deliveries by type and status",
		},
		[]string{"type", "status"},
	)
	CycleResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycle_resets_total",
			Help: "30-day cycle resets by outcome",
		},
		[]string{"outcome"},
	)
	FileStoreAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_store_attempts_total",
			Help: "File store calls by operation and result",
		},
		[]string{"op", "result"},
	)
)

var once sync.Once

// Register adds the domain counters to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(UploadsTotal)
		prometheus.MustRegister(NotificationsTotal)
		prometheus.MustRegister(CycleResetsTotal)
		prometheus.MustRegister(FileStoreAttemptsTotal)
	})
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notepad"

var (
	// NoteSaves counts whole-list saves by result (ok, error)
	NoteSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "note_saves_total",
		Help:      "Number of note list saves by result",
	}, []string{"result"})

	// Backups counts backup snapshots by result (ok, error)
	Backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backups_total",
		Help:      "Number of backup snapshots by result",
	}, []string{"result"})

	// NotesLoaded is the size of the in-memory note list
	NotesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notes",
		Help:      "Number of notes currently held in memory",
	})

	// RemindersPending is the number of armed reminder triggers
	RemindersPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reminders_pending",
		Help:      "Number of reminder triggers waiting to fire",
	})

	// RemindersFired counts delivered reminders by result (ok, error)
	RemindersFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_fired_total",
		Help:      "Number of reminders fired by delivery result",
	}, []string{"result"})

	// HTTPRequests counts API requests by method, route pattern and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPDuration records API latency by route pattern
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Result maps an error to the result label
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

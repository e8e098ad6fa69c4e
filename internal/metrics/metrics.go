// Package metrics declares the Prometheus collectors for bot activity.
// HTTP-level metrics live in the middleware; these cover the request
// lifecycle itself so silent failures (fetch errors, skipped reminders)
// stay observable on dashboards.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submission attempts by outcome
	// ("accepted", "rejected", "rate_limited", "failed").
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestbot_submissions_total",
			Help: "Total request submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// SweepsTotal counts maturation sweeps, including no-op sweeps.
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "requestbot_sweeps_total",
			Help: "Total maturation sweeps executed.",
		},
	)

	// RequestsResolvedTotal counts requests removed from the ledger with a
	// computed tally.
	RequestsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "requestbot_requests_resolved_total",
			Help: "Total requests resolved and removed from the ledger.",
		},
	)

	// TallyFetchFailuresTotal counts vote-message fetches that failed and
	// left the request eligible for the next sweep.
	TallyFetchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "requestbot_tally_fetch_failures_total",
			Help: "Total failed reaction-tally fetches (request retried next sweep).",
		},
	)

	// RequestsPending gauges the current ledger size.
	RequestsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "requestbot_requests_pending",
			Help: "Number of requests currently awaiting resolution.",
		},
	)

	// RemindersTotal counts reminder broadcasts by outcome
	// ("sent", "failed").
	RemindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestbot_reminders_total",
			Help: "Total reminder broadcasts by outcome.",
		},
		[]string{"outcome"},
	)
)

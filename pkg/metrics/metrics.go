// Package metrics exposes Prometheus collectors for the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailsSynced counts every raw message seen by a sync call.
	EmailsSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credwise_emails_synced_total",
			Help: "Total number of raw messages processed by email sync",
		},
	)

	// RecordsStored counts extracted obligations persisted per vendor.
	RecordsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credwise_bnpl_records_stored_total",
			Help: "Total number of BNPL records stored",
		},
		[]string{"vendor"},
	)

	// EmailsFiltered counts messages dropped by the pipeline, by reason.
	// Reasons: not_financial, no_amount.
	EmailsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credwise_emails_filtered_total",
			Help: "Total number of messages filtered out during sync",
		},
		[]string{"reason"},
	)

	// EmailsSkipped counts duplicate messages short-circuited by dedup.
	EmailsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credwise_emails_skipped_total",
			Help: "Total number of already-processed messages skipped",
		},
	)

	// SyncDuration observes wall time of whole sync calls.
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credwise_sync_duration_seconds",
			Help:    "Duration of full email sync calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// RemindersSent counts due-date reminder emails delivered.
	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credwise_reminders_sent_total",
			Help: "Total number of due-date reminder emails sent",
		},
	)
)

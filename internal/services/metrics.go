package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics exposed on /metrics.
var (
	mergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mergecli",
		Name:      "merges_total",
		Help:      "Number of merge sessions created successfully.",
	})

	mergeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mergecli",
		Name:      "merge_failures_total",
		Help:      "Number of failed merge attempts by stage.",
	}, []string{"stage"})

	mergedRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mergecli",
		Name:      "merged_rows",
		Help:      "Distribution of merged row counts per session.",
		Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
	})

	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mergecli",
		Name:      "load_duration_seconds",
		Help:      "Time spent loading an uploaded file into a table.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"format"})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mergecli",
		Name:      "exports_total",
		Help:      "Number of exports generated by output format.",
	}, []string{"format"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mergecli",
		Name:      "active_sessions",
		Help:      "Number of merge sessions currently held in memory.",
	})
)

package io

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const resultLabel = "result"

const (
	resultLoaded      = "loaded"
	resultPlaceholder = "placeholder"
	resultFailed      = "failed"
)

var fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "quadtile",
	Name:      "file_fetch_duration_seconds",
	Help:      "Time between a fetch request and its answer, queueing included.",
	Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
}, []string{resultLabel})

package tileloader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	loaderLabel  = "loader"
	errTypeLabel = "error_type"
	stateLabel   = "state"
)

var (
	loadedTilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quadtile",
		Name:      "loaded_tiles_total",
		Help:      "The number of tiles that reached the loaded state.",
	}, []string{loaderLabel})

	failedTilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quadtile",
		Name:      "failed_tiles_total",
		Help:      "The number of tiles that reached the failed state.",
	}, []string{loaderLabel, errTypeLabel})

	staleCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quadtile",
		Name:      "stale_callbacks_total",
		Help:      "The number of fetch results dropped because the tile was no longer loading.",
	}, []string{loaderLabel})

	atlasFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quadtile",
		Name:      "atlas_fallbacks_total",
		Help:      "The number of tiles textured outside of the atlas.",
	}, []string{loaderLabel, errTypeLabel})

	changeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quadtile",
		Name:      "change_requests_total",
		Help:      "The number of change requests handed to the scene.",
	}, []string{loaderLabel})

	residentTiles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quadtile",
		Name:      "resident_tiles",
		Help:      "The number of tiles tracked by the loader, by state.",
	}, []string{loaderLabel, stateLabel})

	outstandingFetches = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quadtile",
		Name:      "outstanding_fetches",
		Help:      "The number of fetches started and not yet answered.",
	}, []string{loaderLabel})

	atlasPages = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quadtile",
		Name:      "atlas_pages",
		Help:      "The number of atlas pages alive.",
	}, []string{loaderLabel})
)

package searchcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_search_cache_hits_total",
		Help: "Album selections served from the search cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_search_cache_misses_total",
		Help: "Album selections not found in the search cache.",
	})
	liveEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "musicapi_search_cache_entries",
		Help: "Search results currently held in memory.",
	})
	sweptEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_search_cache_swept_entries_total",
		Help: "Expired search results removed by sweeps.",
	})
	flushFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_search_cache_flush_failures_total",
		Help: "Albums that failed to persist on expiry or drain.",
	})
	droppedEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_search_cache_dropped_entries_total",
		Help: "Expired search results dropped after repeated persistence failures.",
	})
)

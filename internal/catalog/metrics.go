package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	albumsInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_albums_inserted_total",
		Help: "Albums newly written to the durable store.",
	})
	upsertFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicapi_album_upsert_failures_total",
		Help: "Album upserts that were rejected or rolled back.",
	})
)

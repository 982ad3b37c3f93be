package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	lyricsFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lyricloud_lyrics_fetches_total",
			Help: "Lyrics lookups by source and outcome (found, not_found, error, cache_hit)",
		},
		[]string{"source", "outcome"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lyricloud_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	renderedWords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lyricloud_rendered_words",
			Help:    "Distinct words drawn per cloud",
			Buckets: []float64{10, 25, 50, 100, 150, 200},
		},
	)

	pipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lyricloud_pipeline_errors_total",
			Help: "Pipeline runs that ended in an error, by kind",
		},
		[]string{"kind"},
	)
)

func ObserveFetch(source, outcome string) {
	lyricsFetches.WithLabelValues(source, outcome).Inc()
}

// ObserveStage records the time since start for stage.
func ObserveStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func ObserveWords(n int) {
	renderedWords.Observe(float64(n))
}

func ObserveError(kind string) {
	pipelineErrors.WithLabelValues(kind).Inc()
}

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

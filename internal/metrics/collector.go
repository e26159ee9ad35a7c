// Package metrics exposes pack progress as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "gsdataset"

type Collector struct {
	scenesPacked  *prometheus.CounterVec
	chunksWritten *prometheus.CounterVec
	bytesPacked   *prometheus.CounterVec
	unpairedKeys  *prometheus.CounterVec
	chunkBytes    *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
}

// NewCollector registers the pack metrics on reg. Use a fresh registry per
// run so repeated construction does not collide.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		scenesPacked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scenes_packed_total",
				Help:      "Scenes appended to a chunk",
			},
			[]string{"stage"},
		),
		chunksWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "chunks_written_total",
				Help:      "Chunk files written",
			},
			[]string{"stage"},
		),
		bytesPacked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scene_bytes_total",
				Help:      "On-disk bytes of packed scenes",
			},
			[]string{"stage"},
		),
		unpairedKeys: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "unpaired_keys_total",
				Help:      "Scenes skipped because images or metadata are missing",
			},
			[]string{"stage", "missing"},
		),
		chunkBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "chunk_size_bytes",
				Help:      "Encoded chunk file size",
				Buckets:   prometheus.ExponentialBuckets(1<<20, 2, 10),
			},
			[]string{"stage"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time to pack one stage",
				Buckets:   []float64{1, 10, 60, 300, 1800, 3600, 4 * 3600},
			},
			[]string{"stage"},
		),
	}
}

func (c *Collector) RecordScene(stage string, bytes int64) {
	c.scenesPacked.WithLabelValues(stage).Inc()
	c.bytesPacked.WithLabelValues(stage).Add(float64(bytes))
}

func (c *Collector) RecordChunk(stage string, encoded int) {
	c.chunksWritten.WithLabelValues(stage).Inc()
	c.chunkBytes.WithLabelValues(stage).Observe(float64(encoded))
}

// RecordUnpaired counts keys missing "images" or "metadata".
func (c *Collector) RecordUnpaired(stage, missing string, n int) {
	c.unpairedKeys.WithLabelValues(stage, missing).Add(float64(n))
}

func (c *Collector) RecordStage(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

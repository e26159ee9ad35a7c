package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordScene("train", 100)
	c.RecordScene("train", 50)
	c.RecordScene("test", 7)
	c.RecordChunk("train", 2048)
	c.RecordUnpaired("train", "metadata", 3)
	c.RecordStage("train", 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.scenesPacked.WithLabelValues("train")))
	assert.Equal(t, 150.0, testutil.ToFloat64(c.bytesPacked.WithLabelValues("train")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scenesPacked.WithLabelValues("test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.chunksWritten.WithLabelValues("train")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.unpairedKeys.WithLabelValues("train", "metadata")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.chunkBytes))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollectorFreshRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}

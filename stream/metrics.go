package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/aes128/base/metrics"
)

type Metrics struct {
	blocksEncrypted prometheus.Counter
	bytesRead       prometheus.Counter
	truncatedBlocks prometheus.Counter
}

// NewMetrics creates the stream counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		blocksEncrypted: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.StreamBlocksEncryptedN,
			Help: metrics.StreamBlocksEncryptedH,
		}),
		bytesRead: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.StreamBytesReadN,
			Help: metrics.StreamBytesReadH,
		}),
		truncatedBlocks: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.StreamTruncatedBlocksN,
			Help: metrics.StreamTruncatedBlocksH,
		}),
	}
}

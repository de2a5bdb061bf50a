package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Metrics records render throughput. A nil *Metrics records nothing.
type Metrics struct {
	framesRendered  prometheus.Counter
	frameDuration   prometheus.Histogram
	segmentsTotal   *prometheus.CounterVec
	segmentDuration prometheus.Histogram
	renderDuration  prometheus.Histogram
}

// NewMetrics registers the render metrics on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		framesRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Total number of frames evaluated and rasterized",
		}),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_render_duration_seconds",
			Help:      "Time to evaluate and rasterize one frame",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		segmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Total number of encoded segments",
		}, []string{"status"}),
		segmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_encode_duration_seconds",
			Help:      "Time to render and encode one segment",
			Buckets:   prometheus.DefBuckets,
		}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Wall time of a full render",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *Metrics) observeFrame(d time.Duration) {
	if m == nil {
		return
	}
	m.framesRendered.Inc()
	m.frameDuration.Observe(d.Seconds())
}

func (m *Metrics) observeSegment(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.segmentsTotal.WithLabelValues(status).Inc()
	m.segmentDuration.Observe(d.Seconds())
}

func (m *Metrics) observeRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

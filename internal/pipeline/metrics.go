package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the pipeline's Prometheus counters. All fields are
// registered on construction; a nil *Metrics disables instrumentation.
type Metrics struct {
	FramesProcessed     prometheus.Counter
	EventsByType        *prometheus.CounterVec
	HomographyFallbacks prometheus.Counter
	UnprojectableFrames prometheus.Counter
	KinematicsAnomalies prometheus.Counter
}

// NewMetrics registers the pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "pipeline",
			Name:      "frames_processed_total",
			Help:      "Video frames run through the analytics pipeline.",
		}),
		EventsByType: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Detected game events by type.",
		}, []string{"type"}),
		HomographyFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "pipeline",
			Name:      "homography_fallbacks_total",
			Help:      "Frames that reused an earlier court transform.",
		}),
		UnprojectableFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "pipeline",
			Name:      "unprojectable_frames_total",
			Help:      "Frames with no usable court transform at all.",
		}),
		KinematicsAnomalies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "pipeline",
			Name:      "kinematics_anomalies_total",
			Help:      "Player displacements rejected by the speed cap.",
		}),
	}
}

// Package metrics exposes prometheus collectors for kernel dispatch and
// tensor memory accounting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KernelDispatches counts successful kernel dispatches per kernel name.
	KernelDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ebb_kernel_dispatches_total",
		Help: "The total number of successful kernel dispatches",
	}, []string{"kernel"})

	// KernelFailures counts failed kernel dispatches per kernel name.
	KernelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ebb_kernel_failures_total",
		Help: "The total number of kernel dispatches that returned an error",
	}, []string{"kernel"})

	// KernelDuration tracks kernel execution times per kernel name.
	KernelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ebb_kernel_duration_seconds",
		Help:    "Histogram of kernel execution times",
		Buckets: prometheus.DefBuckets,
	}, []string{"kernel"})

	// LiveTensors is the number of live tensor storages.
	LiveTensors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ebb_live_tensors",
		Help: "Current number of live tensor storages",
	})

	// LiveTensorBytes is the number of bytes held by live tensor storages.
	LiveTensorBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ebb_live_tensor_bytes",
		Help: "Current bytes held by live tensor storages",
	})

	// TapeLength is the number of records on the active gradient tape.
	TapeLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ebb_tape_records",
		Help: "Number of records on the active gradient tape",
	})

	// RecordingSessions counts started recording sessions.
	RecordingSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebb_recording_sessions_total",
		Help: "The total number of started recording sessions",
	})

	// GradientEvaluations counts gradient tape evaluations.
	GradientEvaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ebb_gradient_evaluations_total",
		Help: "The total number of gradient tape evaluations",
	})
)

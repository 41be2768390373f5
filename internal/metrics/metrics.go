// Package metrics holds the Prometheus instruments of the simulation. They
// are registered on the default registry and exposed by the monitoring
// server under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutsideWorld labels steps that carried no volume.
const OutsideWorld = "outside"

var (
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bremsim_events_processed_total",
		Help: "Events fully transported",
	})

	StepsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bremsim_steps_observed_total",
		Help: "Steps handed to the sensitive detector, by volume",
	}, []string{"volume"})

	HitsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bremsim_hits_recorded_total",
		Help: "Hit log rows written",
	})

	HitsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bremsim_hits_dropped_total",
		Help: "Accepted hits not persisted because the hit log is unavailable or closed",
	})

	SecondariesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bremsim_secondaries_created_total",
		Help: "Secondary tracks pushed on the stack, by particle",
	}, []string{"particle"})

	PrimaryEnergy = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bremsim_primary_energy_mev",
		Help:    "Sampled primary kinetic energy",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bremsim_run_duration_seconds",
		Help:    "Wall time of one beamOn",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
)

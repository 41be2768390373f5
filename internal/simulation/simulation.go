// Package simulation wires the geometry, spectrum, generator, navigator and
// hit recorder of one configuration together and executes runs on them.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/bremsim/internal/analysis"
	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/generator"
	"github.com/vk/bremsim/internal/geometry"
	"github.com/vk/bremsim/internal/hits"
	"github.com/vk/bremsim/internal/metrics"
	"github.com/vk/bremsim/internal/monitor"
	"github.com/vk/bremsim/internal/runner"
	"github.com/vk/bremsim/internal/spectrum"
	"github.com/vk/bremsim/internal/transport"
	"github.com/vk/bremsim/internal/units"
	"github.com/vk/bremsim/internal/upload"
)

// ErrClosed is returned by BeamOn after Close.
var ErrClosed = errors.New("simulation: closed")

// Simulation is built once per configuration. BeamOn calls are serialized.
type Simulation struct {
	model  *config.Model
	out    *syncWriter
	logger *slog.Logger

	detector  *geometry.Detector
	table     *spectrum.Table
	histogram *analysis.Histogram
	generator *generator.Generator
	navigator *transport.StraightLine
	recorder  *hits.Recorder
	monitor   *monitor.Monitor
	uploader  *upload.Uploader

	mu     sync.Mutex
	runs   int
	events int
	closed bool
}

// Option configures Setup.
type Option func(*Simulation)

// WithMonitor streams accepted hits and run summaries to m.
func WithMonitor(m *monitor.Monitor) Option {
	return func(s *Simulation) { s.monitor = m }
}

// Setup builds every component for m. Missing or unusable resources degrade
// with a warning; only an invalid model or gun is an error. Console output
// (progress lines, hit collection summaries) goes to out.
func Setup(ctx context.Context, m *config.Model, out io.Writer, opts ...Option) (*Simulation, error) {
	if err := config.Validate(m); err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	logger := ctxlog.FromContext(ctx).With("component", "simulation")
	s := &Simulation{model: m, out: &syncWriter{w: out}, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.buildGeometry(); err != nil {
		return nil, err
	}
	s.loadSpectrum()

	if m.Output.Histogram != "" {
		h, err := analysis.NewHistogram(m.Output.HistogramMin, m.Output.HistogramMax, m.Output.HistogramWidth)
		if err != nil {
			return nil, err
		}
		s.histogram = h
	}

	gun := generator.Gun{
		Particle:  m.Gun.Particle,
		Position:  geometry.Vec3{m.Gun.Position[0], m.Gun.Position[1], m.Gun.Position[2]},
		Direction: geometry.Vec3{m.Gun.Direction[0], m.Gun.Direction[1], m.Gun.Direction[2]},
	}
	g, err := generator.New(gun, spectrum.NewSampler(s.table), s.histogram)
	if err != nil {
		return nil, err
	}
	s.generator = g

	nav, err := transport.NewStraightLine(s.detector,
		transport.WithCut(m.Geometry.CutKeV*units.KeV),
		transport.WithMaxSteps(m.Geometry.MaxSteps))
	if err != nil {
		return nil, err
	}
	s.navigator = nav

	var sinks []hits.Sink
	if s.monitor != nil {
		sinks = append(sinks, s.monitor)
	}
	s.recorder = hits.New(ctx, hits.Options{
		Path:          m.Output.HitLog,
		Cells:         m.Detector.Cells,
		Verbose:       m.Detector.Verbose,
		DebugGammaCap: m.Detector.DebugGammas,
		Out:           s.out,
		Sinks:         sinks,
	})

	if m.Output.UploadURL != "" {
		s.uploader = upload.New(m.Output.UploadTimeout)
	}

	logger.Debug("Simulation set up.",
		"material", s.detector.Config.Material,
		"thickness_mm", s.detector.Config.Thickness/units.Millimetre,
		"spectrum_entries", s.table.Len(),
		"hit_log", m.Output.HitLog,
		"hit_log_active", s.recorder.Active())
	return s, nil
}

func (s *Simulation) buildGeometry() error {
	cfg, err := geometry.LoadConfig(s.model.Geometry.Path)
	if err != nil {
		s.logger.Warn("Geometry configuration unavailable, using defaults.", "path", s.model.Geometry.Path, "error", err)
	}

	det, err := geometry.Build(cfg)
	switch {
	case errors.Is(err, geometry.ErrUnknownMaterial):
		s.logger.Warn("Unknown foil material.", "error", err)
	case err != nil:
		return err
	}
	s.detector = det
	s.logger.Info("Using foil material.", "material", det.Config.Material,
		"thickness", units.BestLength(det.Config.Thickness))

	if err := geometry.AppendRunLog(s.model.Geometry.RunLog, det.Config); err != nil {
		s.logger.Warn("Could not append to run log.", "error", err)
	}
	return nil
}

func (s *Simulation) loadSpectrum() {
	path := s.model.Spectrum.Path
	table, stats, err := spectrum.Load(path)
	s.table = table
	if err != nil {
		s.logger.Warn("Spectrum degraded, sampling falls back.", "path", path, "fallback_mev", spectrum.FallbackEnergy, "error", err)
	}
	s.logger.Info("Loaded spectrum.", "path", path, "entries", table.Len(),
		"lines", stats.Lines, "skipped", stats.Skipped, "rejected", stats.Rejected)
}

// Detector returns the constructed geometry.
func (s *Simulation) Detector() *geometry.Detector {
	return s.detector
}

// Recorder returns the hit recorder.
func (s *Simulation) Recorder() *hits.Recorder {
	return s.recorder
}

// SetVerbose changes the hit collection verbosity for later runs.
func (s *Simulation) SetVerbose(level int) {
	s.recorder.SetVerbose(level)
}

// BeamOn runs the events of r. A zero seed derives one from the number of
// runs already executed, so consecutive unseeded runs differ.
func (s *Simulation) BeamOn(ctx context.Context, r *config.Run) (runner.Summary, error) {
	if err := config.ValidateRun(r); err != nil {
		return runner.Summary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return runner.Summary{}, ErrClosed
	}

	seed := r.Seed
	if seed == 0 {
		seed = uint64(s.runs)
	}
	s.runs++

	runID := uuid.NewString()
	logger := s.logger.With("run", r.Name, "run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("Run started.", "events", r.Events, "seed", seed, "workers", r.Workers)

	s.recorder.ResetDebug()
	before := s.recorder.Recorded()

	summary, err := runner.Run(ctx, runner.Config{
		Events:  r.Events,
		Workers: r.Workers,
		Seed:    seed,
	}, func(ctx context.Context, eventID int, rng *rand.Rand) error {
		return s.event(ctx, eventID, rng, r.PrintProgress)
	})
	s.events += summary.Events

	metrics.RunDuration.Observe(summary.Duration.Seconds())
	recorded := s.recorder.Recorded() - before
	if s.monitor != nil {
		s.monitor.PublishSummary(monitor.Summary{
			Run:      r.Name,
			RunID:    runID,
			Events:   summary.Events,
			Hits:     recorded,
			Duration: summary.Duration.Round(time.Millisecond).String(),
		})
	}
	if err != nil {
		logger.Error("Run aborted.", "events", summary.Events, "error", err)
		return summary, fmt.Errorf("run %q: %w", r.Name, err)
	}
	logger.Info("Run finished.", "events", summary.Events, "hits", recorded, "duration", summary.Duration)
	return summary, nil
}

func (s *Simulation) event(ctx context.Context, eventID int, rng *rand.Rand, printProgress int) error {
	c := s.recorder.BeginCollection(eventID)
	v := s.generator.Generate(eventID, rng)
	_, err := s.navigator.Track(ctx, v, rng, s.recorder)
	s.recorder.EndCollection(c)
	if err != nil {
		return err
	}
	metrics.EventsProcessed.Inc()

	if printProgress > 0 && eventID%printProgress == 0 {
		fmt.Fprintf(s.out, "--> End of event: %d\n\n", eventID)
	}
	return nil
}

// Status is a snapshot for the interactive session.
type Status struct {
	Material        string
	Thickness       float64 // mm
	SpectrumEntries int
	HitLog          string
	HitLogActive    bool
	HitsRecorded    int
	Runs            int
	Events          int
}

// Status reports the current state.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Material:        s.detector.Config.Material,
		Thickness:       s.detector.Config.Thickness / units.Millimetre,
		SpectrumEntries: s.table.Len(),
		HitLog:          s.recorder.Path(),
		HitLogActive:    s.recorder.Active(),
		HitsRecorded:    s.recorder.Recorded(),
		Runs:            s.runs,
		Events:          s.events,
	}
}

// Close releases the hit log, writes the primary-energy histogram and, when
// configured, uploads the hit log. It is safe to call more than once.
func (s *Simulation) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	persisted := s.recorder.Active()
	var errs []error
	if err := s.recorder.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.histogram != nil {
		if err := s.writeHistogram(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.uploader != nil && persisted {
		if _, err := s.uploader.Put(ctx, s.model.Output.HitLog, s.model.Output.UploadURL); err != nil {
			s.logger.Error("Hit log upload failed.", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Simulation) writeHistogram() error {
	path := s.model.Output.Histogram
	if err := writeFile(path, s.histogram.WriteCSV); err != nil {
		return fmt.Errorf("simulation: primary histogram: %w", err)
	}
	s.logger.Info("Wrote primary energy histogram.", "path", path, "entries", s.histogram.Entries())
	return nil
}

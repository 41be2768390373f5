package hits

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/geometry"
	"github.com/vk/bremsim/internal/metrics"
	"github.com/vk/bremsim/internal/units"
)

// Filter values: only photons seen inside the detector are recorded.
const (
	RecordedVolume   = geometry.DetectorName
	RecordedParticle = "gamma"
)

// Defaults for Options.
const (
	DefaultPath          = "outputdata.txt"
	DefaultCells         = 2
	DefaultDebugGammaCap = 10
)

// Header is the first row of every hit log.
var Header = []string{"EventID", "TrackID", "ParentID", "Particle", "KineticEnergy", "Volume", "DetectorID"}

// Volume is the handle of the volume a step starts in.
type Volume interface {
	Name() string
}

// Observation is what the transport loop reports for one step.
type Observation struct {
	EventID       int
	TrackID       int
	ParentID      int
	Particle      string
	KineticEnergy float64 // internal units
	Volume        Volume  // nil outside the world
}

// Entry is one persisted hit log row.
type Entry struct {
	EventID       int     `json:"event_id"`
	TrackID       int     `json:"track_id"`
	ParentID      int     `json:"parent_id"`
	Particle      string  `json:"particle"`
	KineticEnergy float64 `json:"kinetic_energy_mev"`
	Volume        string  `json:"volume"`
	DetectorID    int     `json:"detector_id"`
}

// Record renders e in Header column order.
func (e Entry) Record() []string {
	return []string{
		strconv.Itoa(e.EventID),
		strconv.Itoa(e.TrackID),
		strconv.Itoa(e.ParentID),
		e.Particle,
		units.FormatFloat(e.KineticEnergy),
		e.Volume,
		strconv.Itoa(e.DetectorID),
	}
}

// Sink receives every accepted entry after it has been persisted.
type Sink interface {
	Publish(Entry)
}

// Options configures a Recorder.
type Options struct {
	Path          string
	Cells         int       // calorimeter cells; one extra bin holds the total
	Verbose       int       // > 1 prints per-event collection summaries
	DebugGammaCap int       // accepted gammas echoed to the log; 0 disables
	Out           io.Writer // destination of collection summaries
	Sinks         []Sink
}

// Recorder is the sensitive detector. It owns the hit log: the file is
// truncated on construction, appended to while the run lasts and released
// by Close. All methods are safe for concurrent use.
type Recorder struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	file        *os.File
	csv         *csv.Writer
	closed      bool
	recorded    int
	debugGammas int
}

// New opens the hit log described by opts. When the file cannot be opened
// the recorder still works but persists nothing; Active reports which mode
// it is in.
func New(ctx context.Context, opts Options) *Recorder {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Cells <= 0 {
		opts.Cells = DefaultCells
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	r := &Recorder{
		opts:   opts,
		logger: ctxlog.FromContext(ctx).With("component", "hits", "path", opts.Path),
	}

	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		r.logger.Warn("Could not open hit log, hits will not be persisted.", "error", err)
		return r
	}
	r.file = f
	r.csv = csv.NewWriter(f)

	if err := r.writeHeader(); err != nil {
		r.logger.Warn("Could not write hit log header, hits will not be persisted.", "error", err)
		_ = f.Close()
		r.file, r.csv = nil, nil
		return r
	}
	r.logger.Info("Opened hit log for logging.")
	return r
}

func (r *Recorder) writeHeader() error {
	info, err := r.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() != 0 {
		return nil
	}
	if err := r.csv.Write(Header); err != nil {
		return err
	}
	r.csv.Flush()
	return r.csv.Error()
}

// Active reports whether accepted hits are being persisted.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil && !r.closed
}

// Path returns the hit log location.
func (r *Recorder) Path() string {
	return r.opts.Path
}

// Recorded returns the number of rows written so far, header excluded.
func (r *Recorder) Recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded
}

// OnStep records obs when it is a photon inside the detector. It always
// returns true: the host reads the result as "keep transporting", not as
// "hit accepted".
func (r *Recorder) OnStep(obs Observation) bool {
	if obs.Volume == nil || obs.Volume.Name() == "" {
		metrics.StepsObserved.WithLabelValues(metrics.OutsideWorld).Inc()
		return true
	}
	volume := obs.Volume.Name()
	metrics.StepsObserved.WithLabelValues(volume).Inc()

	if volume != RecordedVolume || obs.Particle != RecordedParticle {
		return true
	}

	entry := Entry{
		EventID:       obs.EventID,
		TrackID:       obs.TrackID,
		ParentID:      obs.ParentID,
		Particle:      obs.Particle,
		KineticEnergy: obs.KineticEnergy / units.MeV,
		Volume:        volume,
		DetectorID:    geometry.DetectorID,
	}

	if !r.persist(entry) {
		return true
	}
	// Sinks are called without r.mu held.
	for _, s := range r.opts.Sinks {
		s.Publish(entry)
	}
	return true
}

// persist echoes entry while the debug budget lasts and appends it to the hit
// log. It reports whether the row was written.
func (r *Recorder) persist(entry Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.debugGammas < r.opts.DebugGammaCap {
		r.debugGammas++
		r.logger.Info("Gamma entered detector.",
			"event", entry.EventID, "particle", entry.Particle,
			"energy_mev", entry.KineticEnergy, "volume", entry.Volume)
	}

	if r.file == nil || r.closed {
		metrics.HitsDropped.Inc()
		return false
	}
	if err := r.append(entry); err != nil {
		metrics.HitsDropped.Inc()
		r.logger.Warn("Failed to append hit.", "event", entry.EventID, "track", entry.TrackID, "error", err)
		return false
	}
	r.recorded++
	metrics.HitsRecorded.Inc()
	return true
}

// append writes and flushes one row; the caller holds r.mu.
func (r *Recorder) append(e Entry) error {
	if err := r.csv.Write(e.Record()); err != nil {
		return err
	}
	r.csv.Flush()
	return r.csv.Error()
}

// ResetDebug re-arms the gamma debug echo, typically at the start of a run.
func (r *Recorder) ResetDebug() {
	r.mu.Lock()
	r.debugGammas = 0
	r.mu.Unlock()
}

// SetVerbose changes the collection summary verbosity for later events.
func (r *Recorder) SetVerbose(level int) {
	r.mu.Lock()
	r.opts.Verbose = level
	r.mu.Unlock()
}

// Close flushes and releases the hit log. Later calls are no-ops and later
// hits are dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.file == nil {
		return nil
	}

	r.csv.Flush()
	err := r.csv.Error()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.logger.Debug("Hit log closed.", "rows", r.recorded)
	if err != nil {
		return fmt.Errorf("hits: close %s: %w", r.opts.Path, err)
	}
	return nil
}

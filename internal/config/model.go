package config

import "time"

// Model is the unified, format-agnostic representation of a run macro.
type Model struct {
	Gun      Gun
	Spectrum Spectrum
	Geometry Geometry
	Output   Output
	Detector Detector
	Monitor  Monitor
	Runs     []*Run
}

// Gun is the primary-particle source. Position is in mm.
type Gun struct {
	Particle  string
	Position  []float64
	Direction []float64
}

// Spectrum locates the primary-energy table.
type Spectrum struct {
	Path string
}

// Geometry locates the foil configuration and tunes the navigator.
type Geometry struct {
	Path     string
	RunLog   string
	MaxSteps int
	CutKeV   float64
}

// Output configures the files a run produces.
type Output struct {
	HitLog         string
	Histogram      string // primary-energy CSV; empty disables it
	HistogramMin   float64
	HistogramMax   float64
	HistogramWidth float64
	UploadURL      string // pre-signed PUT target for the hit log; empty disables it
	UploadTimeout  time.Duration
}

// Detector configures the hit recorder.
type Detector struct {
	Cells       int
	Verbose     int
	DebugGammas int
}

// Monitor configures the HTTP server. Port 0 disables it.
type Monitor struct {
	Port int
}

// Run is one beamOn.
type Run struct {
	Name          string
	Events        int
	Seed          uint64
	Workers       int
	PrintProgress int
}

// Default values, shared by every loader.
const (
	DefaultParticle       = "e-"
	DefaultSpectrumPath   = "spectrum_new.mac"
	DefaultGeometryPath   = "geometry.txt"
	DefaultRunLogPath     = "runlog.txt"
	DefaultHitLogPath     = "outputdata.txt"
	DefaultMaxSteps       = 1000
	DefaultCutKeV         = 1.0
	DefaultHistogramMin   = 0.0
	DefaultHistogramMax   = 10.0
	DefaultHistogramWidth = 0.002
	DefaultUploadTimeout  = 30 * time.Second
	DefaultCells          = 2
	DefaultDebugGammas    = 10
	DefaultRunName        = "default"
)

// Default returns the model of an empty macro.
func Default() *Model {
	return &Model{
		Gun: Gun{
			Particle:  DefaultParticle,
			Position:  []float64{0, 0, 0},
			Direction: []float64{0, 0, 1},
		},
		Spectrum: Spectrum{Path: DefaultSpectrumPath},
		Geometry: Geometry{
			Path:     DefaultGeometryPath,
			RunLog:   DefaultRunLogPath,
			MaxSteps: DefaultMaxSteps,
			CutKeV:   DefaultCutKeV,
		},
		Output: Output{
			HitLog:         DefaultHitLogPath,
			HistogramMin:   DefaultHistogramMin,
			HistogramMax:   DefaultHistogramMax,
			HistogramWidth: DefaultHistogramWidth,
			UploadTimeout:  DefaultUploadTimeout,
		},
		Detector: Detector{
			Cells:       DefaultCells,
			DebugGammas: DefaultDebugGammas,
		},
	}
}

// NewRun returns a run named name with every counter at its default.
func NewRun(name string) *Run {
	return &Run{Name: name}
}

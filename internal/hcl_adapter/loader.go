package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL macro loader reading `env` from the process
// environment.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// NewLoaderWithEnv is NewLoader with a fixed environment in KEY=VALUE form.
func NewLoaderWithEnv(environ []string) *Loader {
	return &Loader{environ: func() []string { return environ }}
}

// Load parses the macro at path and overlays it on config.Default().
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, buildEvalContext(l.environ()), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	model := config.Default()
	if err := root.applyTo(model); err != nil {
		return nil, fmt.Errorf("in HCL file %s: %w", path, err)
	}

	logger.Debug("HCL loading complete.", "path", path, "runs", len(model.Runs))
	return model, nil
}

func (r *fileRoot) applyTo(m *config.Model) error {
	if g := r.Gun; g != nil {
		set(&m.Gun.Particle, g.Particle)
		if g.Position != nil {
			m.Gun.Position = g.Position
		}
		if g.Direction != nil {
			m.Gun.Direction = g.Direction
		}
	}
	if s := r.Spectrum; s != nil {
		set(&m.Spectrum.Path, s.Path)
	}
	if g := r.Geometry; g != nil {
		set(&m.Geometry.Path, g.Path)
		set(&m.Geometry.RunLog, g.RunLog)
		set(&m.Geometry.MaxSteps, g.MaxSteps)
		set(&m.Geometry.CutKeV, g.CutKeV)
	}
	if o := r.Output; o != nil {
		set(&m.Output.HitLog, o.HitLog)
		set(&m.Output.Histogram, o.Histogram)
		set(&m.Output.HistogramMin, o.HistogramMin)
		set(&m.Output.HistogramMax, o.HistogramMax)
		set(&m.Output.HistogramWidth, o.HistogramWidth)
		set(&m.Output.UploadURL, o.UploadURL)
		if o.UploadTimeout != nil {
			d, err := time.ParseDuration(*o.UploadTimeout)
			if err != nil {
				return fmt.Errorf("output.upload_timeout: %w", err)
			}
			m.Output.UploadTimeout = d
		}
	}
	if d := r.Detector; d != nil {
		set(&m.Detector.Cells, d.Cells)
		set(&m.Detector.Verbose, d.Verbose)
		set(&m.Detector.DebugGammas, d.DebugGammas)
	}
	if mon := r.Monitor; mon != nil {
		set(&m.Monitor.Port, mon.Port)
	}

	for _, rb := range r.Runs {
		run := config.NewRun(rb.Name)
		set(&run.Events, rb.Events)
		set(&run.Workers, rb.Workers)
		set(&run.PrintProgress, rb.PrintProgress)
		if rb.Seed != nil {
			if *rb.Seed < 0 {
				return fmt.Errorf("run %q: seed must not be negative, got %d", rb.Name, *rb.Seed)
			}
			run.Seed = uint64(*rb.Seed)
		}
		m.Runs = append(m.Runs, run)
	}
	return nil
}

// set overwrites *dst when the macro defined the attribute.
func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

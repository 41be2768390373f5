// Package yaml_adapter loads run macros written in YAML. The document has
// the same shape as the HCL macro, with `run` blocks turned into an ordered
// `runs` list:
//
//	gun:
//	  particle: e-
//	output:
//	  hit_log: ${DATA_DIR}/outputdata.txt
//	runs:
//	  - name: production
//	    events: 1000
//
// ${VAR} and $VAR references are expanded from the environment before the
// document is decoded.
package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct {
	lookup func(string) (string, bool)
}

// NewLoader creates a loader expanding variables from the process
// environment.
func NewLoader() *Loader {
	return &Loader{lookup: os.LookupEnv}
}

// NewLoaderWithEnv is NewLoader with a fixed environment in KEY=VALUE form.
func NewLoaderWithEnv(environ []string) *Loader {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return &Loader{lookup: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}}
}

type document struct {
	Gun *struct {
		Particle  *string   `yaml:"particle"`
		Position  []float64 `yaml:"position"`
		Direction []float64 `yaml:"direction"`
	} `yaml:"gun"`
	Spectrum *struct {
		Path *string `yaml:"path"`
	} `yaml:"spectrum"`
	Geometry *struct {
		Path     *string  `yaml:"path"`
		RunLog   *string  `yaml:"run_log"`
		MaxSteps *int     `yaml:"max_steps"`
		CutKeV   *float64 `yaml:"cut_kev"`
	} `yaml:"geometry"`
	Output *struct {
		HitLog         *string  `yaml:"hit_log"`
		Histogram      *string  `yaml:"histogram"`
		HistogramMin   *float64 `yaml:"histogram_min"`
		HistogramMax   *float64 `yaml:"histogram_max"`
		HistogramWidth *float64 `yaml:"histogram_width"`
		UploadURL      *string  `yaml:"upload_url"`
		UploadTimeout  *string  `yaml:"upload_timeout"`
	} `yaml:"output"`
	Detector *struct {
		Cells       *int `yaml:"cells"`
		Verbose     *int `yaml:"verbose"`
		DebugGammas *int `yaml:"debug_gammas"`
	} `yaml:"detector"`
	Monitor *struct {
		Port *int `yaml:"port"`
	} `yaml:"monitor"`
	Runs []struct {
		Name          string `yaml:"name"`
		Events        *int   `yaml:"events"`
		Seed          *int64 `yaml:"seed"`
		Workers       *int   `yaml:"workers"`
		PrintProgress *int   `yaml:"print_progress"`
	} `yaml:"runs"`
}

// Load reads the macro at path and overlays it on config.Default().
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	expanded := os.Expand(string(data), func(k string) string {
		v, _ := l.lookup(k)
		return v
	})

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}

	model := config.Default()
	if err := doc.applyTo(model); err != nil {
		return nil, fmt.Errorf("in YAML file %s: %w", path, err)
	}

	logger.Debug("YAML loading complete.", "path", path, "runs", len(model.Runs))
	return model, nil
}

func (d *document) applyTo(m *config.Model) error {
	if g := d.Gun; g != nil {
		set(&m.Gun.Particle, g.Particle)
		if g.Position != nil {
			m.Gun.Position = g.Position
		}
		if g.Direction != nil {
			m.Gun.Direction = g.Direction
		}
	}
	if s := d.Spectrum; s != nil {
		set(&m.Spectrum.Path, s.Path)
	}
	if g := d.Geometry; g != nil {
		set(&m.Geometry.Path, g.Path)
		set(&m.Geometry.RunLog, g.RunLog)
		set(&m.Geometry.MaxSteps, g.MaxSteps)
		set(&m.Geometry.CutKeV, g.CutKeV)
	}
	if o := d.Output; o != nil {
		set(&m.Output.HitLog, o.HitLog)
		set(&m.Output.Histogram, o.Histogram)
		set(&m.Output.HistogramMin, o.HistogramMin)
		set(&m.Output.HistogramMax, o.HistogramMax)
		set(&m.Output.HistogramWidth, o.HistogramWidth)
		set(&m.Output.UploadURL, o.UploadURL)
		if o.UploadTimeout != nil {
			timeout, err := time.ParseDuration(*o.UploadTimeout)
			if err != nil {
				return fmt.Errorf("output.upload_timeout: %w", err)
			}
			m.Output.UploadTimeout = timeout
		}
	}
	if det := d.Detector; det != nil {
		set(&m.Detector.Cells, det.Cells)
		set(&m.Detector.Verbose, det.Verbose)
		set(&m.Detector.DebugGammas, det.DebugGammas)
	}
	if mon := d.Monitor; mon != nil {
		set(&m.Monitor.Port, mon.Port)
	}

	for i, rd := range d.Runs {
		name := rd.Name
		if name == "" {
			name = fmt.Sprintf("run%d", i)
		}
		run := config.NewRun(name)
		set(&run.Events, rd.Events)
		set(&run.Workers, rd.Workers)
		set(&run.PrintProgress, rd.PrintProgress)
		if rd.Seed != nil {
			if *rd.Seed < 0 {
				return fmt.Errorf("run %q: seed must not be negative, got %d", name, *rd.Seed)
			}
			run.Seed = uint64(*rd.Seed)
		}
		m.Runs = append(m.Runs, run)
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Validate checks the invariants loaders cannot express. All problems are
// reported together.
func Validate(m *Model) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalid)
	}
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if m.Gun.Particle == "" {
		add("gun.particle must not be empty")
	}
	if len(m.Gun.Position) != 3 {
		add("gun.position must have 3 components, got %d", len(m.Gun.Position))
	}
	if len(m.Gun.Direction) != 3 {
		add("gun.direction must have 3 components, got %d", len(m.Gun.Direction))
	} else if m.Gun.Direction[0] == 0 && m.Gun.Direction[1] == 0 && m.Gun.Direction[2] == 0 {
		add("gun.direction must not be zero")
	}

	if m.Geometry.MaxSteps <= 0 {
		add("geometry.max_steps must be positive, got %d", m.Geometry.MaxSteps)
	}
	if !(m.Geometry.CutKeV > 0) || math.IsInf(m.Geometry.CutKeV, 0) {
		add("geometry.cut_kev must be positive, got %v", m.Geometry.CutKeV)
	}

	if m.Output.HitLog == "" {
		add("output.hit_log must not be empty")
	}
	if m.Output.Histogram != "" {
		if !(m.Output.HistogramWidth > 0) || !(m.Output.HistogramMax > m.Output.HistogramMin) {
			add("output histogram range [%v, %v] with width %v is empty",
				m.Output.HistogramMin, m.Output.HistogramMax, m.Output.HistogramWidth)
		}
	}
	if m.Output.UploadURL != "" {
		u, err := url.Parse(m.Output.UploadURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("output.upload_url must be an absolute http(s) URL")
		}
	}
	if m.Output.UploadTimeout < 0 {
		add("output.upload_timeout must not be negative")
	}

	if m.Detector.Cells < 0 {
		add("detector.cells must not be negative, got %d", m.Detector.Cells)
	}
	if m.Detector.Verbose < 0 {
		add("detector.verbose must not be negative, got %d", m.Detector.Verbose)
	}
	if m.Detector.DebugGammas < 0 {
		add("detector.debug_gammas must not be negative, got %d", m.Detector.DebugGammas)
	}

	if m.Monitor.Port < 0 || m.Monitor.Port > 65535 {
		add("monitor.port must be within 0..65535, got %d", m.Monitor.Port)
	}

	seen := make(map[string]struct{}, len(m.Runs))
	for _, r := range m.Runs {
		if _, dup := seen[r.Name]; dup {
			add("run %q is defined more than once", r.Name)
		}
		seen[r.Name] = struct{}{}
		if err := ValidateRun(r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateRun checks a single run, e.g. one assembled interactively.
func ValidateRun(r *Run) error {
	var errs []error
	if r.Events < 0 {
		errs = append(errs, fmt.Errorf("%w: run %q: events must not be negative, got %d", ErrInvalid, r.Name, r.Events))
	}
	if r.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: run %q: workers must not be negative, got %d", ErrInvalid, r.Name, r.Workers))
	}
	if r.PrintProgress < 0 {
		errs = append(errs, fmt.Errorf("%w: run %q: print_progress must not be negative, got %d", ErrInvalid, r.Name, r.PrintProgress))
	}
	return errors.Join(errs...)
}

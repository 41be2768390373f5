package geometry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vk/bremsim/internal/units"
)

const (
	// MaterialPrefix is prepended to material names read from the
	// configuration resource, turning "W" into the NIST name "G4_W".
	MaterialPrefix = "G4_"
	// DefaultMaterial is used when the resource is missing or names an
	// unknown material.
	DefaultMaterial = MaterialPrefix + "W"
	// DefaultThickness is the foil thickness used when none is configured.
	DefaultThickness = 0.1 * units.Millimetre
)

// ErrUnavailable reports that the geometry resource could not be opened.
var ErrUnavailable = errors.New("geometry: resource unavailable")

// Config holds the foil parameters read from the geometry resource.
type Config struct {
	Material  string
	Thickness float64 // mm
}

// DefaultConfig returns the tungsten 0.1 mm foil.
func DefaultConfig() Config {
	return Config{Material: DefaultMaterial, Thickness: DefaultThickness}
}

// ParseConfig applies "material <name>" and "thickness <mm>" lines on top of
// the defaults. Unknown keys and values that do not parse are ignored.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "material":
			cfg.Material = MaterialPrefix + fields[1]
		case "thickness":
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || v <= 0 {
				continue
			}
			cfg.Thickness = v * units.Millimetre
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("geometry: read config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads the geometry resource at path. A missing resource is not
// fatal: the defaults are returned together with ErrUnavailable.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// OutputName is the per-configuration file name recorded in the run log,
// e.g. "output_G4_W_0.1mm.txt".
func (c Config) OutputName() string {
	return fmt.Sprintf("output_%s_%smm.txt", c.Material, units.FormatFloat(c.Thickness/units.Millimetre))
}

// AppendRunLog appends one informational block describing cfg to the run
// log at path, creating it if needed.
func AppendRunLog(path string, cfg Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("geometry: open run log %s: %w", path, err)
	}
	_, werr := fmt.Fprintf(f, "Material: %s, Thickness: %s mm\nOutput file: %s\n\n",
		cfg.Material, units.FormatFloat(cfg.Thickness/units.Millimetre), cfg.OutputName())
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("geometry: write run log %s: %w", path, werr)
	}
	return nil
}

package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a hit log lacks a required header column.
var ErrMissingColumn = errors.New("analysis: missing column")

// Window is a half-open energy interval [Lo, Hi) in MeV.
type Window struct {
	Name string
	Lo   float64
	Hi   float64
}

// Tungsten characteristic lines.
var (
	KAlpha = Window{Name: "K-alpha", Lo: 0.058, Hi: 0.060}
	KBeta  = Window{Name: "K-beta", Lo: 0.066, Hi: 0.068}
)

// Count returns how many energies fall inside w.
func (w Window) Count(energies []float64) int {
	n := 0
	for _, e := range energies {
		if e >= w.Lo && e < w.Hi {
			n++
		}
	}
	return n
}

// ReadGammaEnergies reads a hit log and returns the kinetic energies of its
// gamma rows in file order. Columns are located by header name; rows whose
// energy is not a number are dropped.
func ReadGammaEnergies(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty hit log", ErrMissingColumn)
		}
		return nil, fmt.Errorf("analysis: read header: %w", err)
	}
	particleCol, energyCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Particle":
			particleCol = i
		case "KineticEnergy":
			energyCol = i
		}
	}
	if particleCol < 0 {
		return nil, fmt.Errorf("%w: Particle", ErrMissingColumn)
	}
	if energyCol < 0 {
		return nil, fmt.Errorf("%w: KineticEnergy", ErrMissingColumn)
	}

	var energies []float64
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("analysis: read row: %w", err)
		}
		if len(rec) <= particleCol || len(rec) <= energyCol || rec[particleCol] != "gamma" {
			continue
		}
		e, err := strconv.ParseFloat(strings.TrimSpace(rec[energyCol]), 64)
		if err != nil {
			continue
		}
		energies = append(energies, e)
	}
	return energies, nil
}

// ReadGammaEnergiesFile is ReadGammaEnergies on the file at path.
func ReadGammaEnergiesFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	defer f.Close()

	energies, err := ReadGammaEnergies(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return energies, nil
}

var thicknessPattern = regexp.MustCompile(`W_(\d*\.?\d+)mm`)

// ThicknessFromName extracts the foil thickness in mm from a file name such
// as "loweroutput_G4_W_0.25mm.txt".
func ThicknessFromName(path string) (float64, bool) {
	m := thicknessPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

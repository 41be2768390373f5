package analysis

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/fsutil"
	"github.com/vk/bremsim/internal/units"
)

// BinOptions selects the hit logs to bin and the shared binning.
type BinOptions struct {
	Dir     string
	Pattern string
	Width   float64 // MeV
	Min     float64 // MeV
	Max     float64 // MeV
	OutDir  string
}

// DefaultBinOptions matches the layout of a thickness scan: 2 keV bins from
// 0 to 10 MeV over Data/loweroutput_G4_W_*.txt.
func DefaultBinOptions() BinOptions {
	return BinOptions{
		Dir:     "Data",
		Pattern: "loweroutput_G4_W_*.txt",
		Width:   0.002,
		Min:     0,
		Max:     10,
		OutDir:  "binned_csv",
	}
}

// FileReport describes one binned hit log.
type FileReport struct {
	Path      string
	Label     string
	Thickness float64
	HasThick  bool
	Output    string
	Gammas    int
	KAlpha    int
	KBeta     int
	Counts    []int64
}

// Report is the outcome of BinFiles.
type Report struct {
	Files    []FileReport
	Centers  []float64
	Combined string
}

// BinFiles histograms the gamma energies of every matching hit log, writes
// one "Energy_MeV,Counts" CSV per file and a combined wide CSV with one
// column per file. Files are ordered by the thickness in their name; files
// without one come last.
func BinFiles(ctx context.Context, opts BinOptions) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFiles(opts.Dir, opts.Pattern)
	if err != nil {
		return nil, err
	}
	sortByThickness(files)

	// Validates the binning once before any output is written.
	proto, err := NewHistogram(opts.Min, opts.Max, opts.Width)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("analysis: create %s: %w", opts.OutDir, err)
	}

	suffix := fmt.Sprintf("binned_%dkeV.csv", int(math.Round(opts.Width/units.KeV)))
	report := &Report{Centers: proto.Centers()}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fr, err := binFile(path, opts, suffix)
		if err != nil {
			return nil, err
		}
		logger.Debug("Binned hit log.", "path", path, "output", fr.Output, "gammas", fr.Gammas)
		report.Files = append(report.Files, *fr)
	}

	names := make([]string, len(report.Files))
	columns := make([][]int64, len(report.Files))
	for i, fr := range report.Files {
		names[i] = "W_" + fr.Label
		columns[i] = fr.Counts
	}
	report.Combined = filepath.Join(opts.OutDir, "W_all_thicknesses_"+suffix)
	if err := writeFile(report.Combined, func(w io.Writer) error {
		return WriteColumns(w, report.Centers, names, columns)
	}); err != nil {
		return nil, err
	}
	return report, nil
}

func binFile(path string, opts BinOptions, suffix string) (*FileReport, error) {
	energies, err := ReadGammaEnergiesFile(path)
	if err != nil {
		return nil, err
	}

	h, err := NewHistogram(opts.Min, opts.Max, opts.Width)
	if err != nil {
		return nil, err
	}
	for _, e := range energies {
		h.Fill(e)
	}

	fr := &FileReport{
		Path:   path,
		Gammas: len(energies),
		KAlpha: KAlpha.Count(energies),
		KBeta:  KBeta.Count(energies),
		Counts: h.Counts(),
	}
	if th, ok := ThicknessFromName(path); ok {
		fr.Thickness, fr.HasThick = th, true
		fr.Label = thicknessLabel(th)
	} else {
		fr.Label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	fr.Output = filepath.Join(opts.OutDir, "W_"+fr.Label+"_"+suffix)

	if err := writeFile(fr.Output, h.WriteCSV); err != nil {
		return nil, err
	}
	return fr, nil
}

// thicknessLabel renders th the way Python's str(float) does, so "1" becomes
// "1.0mm" and downstream plotting scripts find the same file names.
func thicknessLabel(th float64) string {
	var s string
	if abs := math.Abs(th); abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		s = strconv.FormatFloat(th, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
	} else {
		s = strconv.FormatFloat(th, 'e', -1, 64)
	}
	return s + "mm"
}

func sortByThickness(files []string) {
	sort.SliceStable(files, func(i, j int) bool {
		ti, iok := ThicknessFromName(files[i])
		tj, jok := ThicknessFromName(files[j])
		if iok != jok {
			return iok
		}
		return iok && ti < tj
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	werr := write(f)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("analysis: write %s: %w", path, werr)
	}
	return nil
}

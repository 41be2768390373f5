package spectrum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// FallbackEnergy is returned by a Sampler whose table holds no usable weight.
// It is in MeV, like every energy stored in a Table.
const FallbackEnergy = 1.0

var (
	// ErrUnavailable reports that the spectrum resource could not be opened.
	ErrUnavailable = errors.New("spectrum: resource unavailable")
	// ErrEmpty reports a resource that yielded no entry with a positive weight.
	ErrEmpty = errors.New("spectrum: no usable entries")
)

// Entry is one tabulated point of the spectrum.
type Entry struct {
	Energy float64 // MeV
	Weight float64
}

// Stats describes how a resource was consumed by Parse.
type Stats struct {
	Lines    int // lines read
	Skipped  int // lines not shaped like "tag energy weight"
	Rejected int // well-formed lines with a negative or non-finite value
}

// Table is an immutable, ordered spectrum together with its cumulative
// weights. The zero value is an empty table.
type Table struct {
	entries []Entry
	cdf     []float64
	total   float64
}

// NewTable builds a table from entries, keeping their order. Entries with a
// negative or non-finite energy or weight are dropped.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		cdf:     make([]float64, 0, len(entries)),
	}
	for _, e := range entries {
		if !valid(e.Energy) || !valid(e.Weight) {
			continue
		}
		t.total += e.Weight
		t.entries = append(t.entries, e)
		t.cdf = append(t.cdf, t.total)
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in their original order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// TotalWeight is the sum of all weights.
func (t *Table) TotalWeight() float64 {
	if t == nil {
		return 0
	}
	return t.total
}

// Parse reads "tag energy weight" lines until EOF. Lines of any other shape
// are skipped; tokens after the third are ignored.
func Parse(r io.Reader) (*Table, Stats, error) {
	var (
		stats   Stats
		entries []Entry
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		stats.Lines++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			stats.Skipped++
			continue
		}
		energy, errE := strconv.ParseFloat(fields[1], 64)
		weight, errW := strconv.ParseFloat(fields[2], 64)
		if errE != nil || errW != nil {
			stats.Skipped++
			continue
		}
		if !valid(energy) || !valid(weight) {
			stats.Rejected++
			continue
		}
		entries = append(entries, Entry{Energy: energy, Weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return NewTable(entries), stats, fmt.Errorf("spectrum: read failed after %d lines: %w", stats.Lines, err)
	}
	return NewTable(entries), stats, nil
}

// Load opens and parses the spectrum resource at path. The returned table is
// always usable: on ErrUnavailable it is empty, on ErrEmpty it has no
// positive weight, and in both cases sampling yields FallbackEnergy.
func Load(path string) (*Table, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Table{}, Stats{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
	}
	defer f.Close()

	table, stats, err := Parse(f)
	if err != nil {
		return table, stats, err
	}
	if table.TotalWeight() <= 0 {
		return table, stats, fmt.Errorf("%w: %s (%d lines, %d skipped, %d rejected)",
			ErrEmpty, path, stats.Lines, stats.Skipped, stats.Rejected)
	}
	return table, stats, nil
}

func valid(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/vk/bremsim/internal/units"
)

// ErrInvalidBinning rejects a histogram range or width that yields no bins.
var ErrInvalidBinning = errors.New("analysis: invalid binning")

// Histogram counts values in fixed-width bins over [Min, Max]. The last bin is
// closed on the right so that Max itself is counted. Fill is safe for
// concurrent use.
type Histogram struct {
	min   float64
	max   float64
	width float64

	mu       sync.Mutex
	counts   []int64
	overflow int64
}

// NewHistogram returns an empty histogram. The bin count is the range divided
// by width, rounded to the nearest integer.
func NewHistogram(min, max, width float64) (*Histogram, error) {
	if !(width > 0) || !(max > min) || math.IsInf(max-min, 0) {
		return nil, fmt.Errorf("%w: [%v, %v] width %v", ErrInvalidBinning, min, max, width)
	}
	n := int(math.Round((max - min) / width))
	if n < 1 {
		return nil, fmt.Errorf("%w: [%v, %v] width %v", ErrInvalidBinning, min, max, width)
	}
	return &Histogram{
		min:    min,
		max:    min + float64(n)*width,
		width:  width,
		counts: make([]int64, n),
	}, nil
}

// Bins returns the number of bins.
func (h *Histogram) Bins() int {
	return len(h.counts)
}

// Width returns the bin width.
func (h *Histogram) Width() float64 {
	return h.width
}

// Fill adds v and reports whether it fell inside the range.
func (h *Histogram) Fill(v float64) bool {
	i, ok := h.index(v)

	h.mu.Lock()
	defer h.mu.Unlock()
	if !ok {
		h.overflow++
		return false
	}
	h.counts[i]++
	return true
}

func (h *Histogram) index(v float64) (int, bool) {
	if math.IsNaN(v) || v < h.min || v > h.max {
		return 0, false
	}
	i := int((v - h.min) / h.width)
	if i >= len(h.counts) {
		i = len(h.counts) - 1
	}
	return i, true
}

// Counts returns a copy of the bin contents.
func (h *Histogram) Counts() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.counts))
	copy(out, h.counts)
	return out
}

// Entries returns the number of in-range fills.
func (h *Histogram) Entries() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var sum int64
	for _, c := range h.counts {
		sum += c
	}
	return sum
}

// Overflow returns the number of fills outside the range.
func (h *Histogram) Overflow() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overflow
}

// Centers returns the bin centres.
func (h *Histogram) Centers() []float64 {
	out := make([]float64, len(h.counts))
	for i := range out {
		out[i] = h.min + (float64(i)+0.5)*h.width
	}
	return out
}

// WriteCSV writes "Energy_MeV,Counts" followed by one row per bin.
func (h *Histogram) WriteCSV(w io.Writer) error {
	return WriteColumns(w, h.Centers(), []string{"Counts"}, [][]int64{h.Counts()})
}

// WriteColumns writes a wide CSV: the bin centres followed by one count
// column per name. Every column must have one value per centre.
func WriteColumns(w io.Writer, centers []float64, names []string, columns [][]int64) error {
	if len(names) != len(columns) {
		return fmt.Errorf("analysis: %d column names for %d columns", len(names), len(columns))
	}
	for i, col := range columns {
		if len(col) != len(centers) {
			return fmt.Errorf("analysis: column %q has %d rows, want %d", names[i], len(col), len(centers))
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Energy_MeV"}, names...)); err != nil {
		return err
	}
	row := make([]string, len(columns)+1)
	for i, c := range centers {
		row[0] = units.FormatFloat(c)
		for j, col := range columns {
			row[j+1] = strconv.FormatInt(col[i], 10)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

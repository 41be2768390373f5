package hits

import (
	"fmt"

	"github.com/vk/bremsim/internal/units"
)

// Bin aggregates energy deposit and charged track length for one
// calorimeter cell.
type Bin struct {
	Edep        float64 // internal energy units
	TrackLength float64 // internal length units
}

// Collection is the per-event set of bins, one per cell plus a trailing
// total. Nothing fills the bins yet; the summary prints zeros.
type Collection struct {
	EventID int
	Bins    []Bin
}

// BeginCollection allocates the bins for eventID.
func (r *Recorder) BeginCollection(eventID int) *Collection {
	return &Collection{
		EventID: eventID,
		Bins:    make([]Bin, r.opts.Cells+1),
	}
}

// EndCollection prints the summary of c when verbosity is above 1 and
// flushes the hit log in every case.
func (r *Recorder) EndCollection(c *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c != nil && r.opts.Verbose > 1 {
		fmt.Fprintf(r.opts.Out, "\n-------->Hits Collection: in this event they are %d hits in the calorimeter: \n", len(c.Bins))
		for _, b := range c.Bins {
			fmt.Fprintf(r.opts.Out, "Edep: %7s track length: %7s\n", units.BestEnergy(b.Edep), units.BestLength(b.TrackLength))
		}
	}

	if r.csv != nil && !r.closed {
		r.csv.Flush()
		if err := r.csv.Error(); err != nil {
			r.logger.Warn("Failed to flush hit log.", "error", err)
		}
	}
}

package spectrum

import (
	"math/rand/v2"
	"sort"
)

// Sampler draws energies from a Table by inverse-CDF lookup over the
// cumulative weights. It holds no mutable state; the random source is owned
// by the caller, one per goroutine.
type Sampler struct {
	table    *Table
	fallback float64
}

// NewSampler returns a sampler over t. A nil table behaves as an empty one.
func NewSampler(t *Table) *Sampler {
	if t == nil {
		t = &Table{}
	}
	return &Sampler{table: t, fallback: FallbackEnergy}
}

// Table returns the sampled table.
func (s *Sampler) Table() *Table {
	return s.table
}

// Sample returns energy[i] with probability weight[i]/sum(weights), in MeV.
func (s *Sampler) Sample(r *rand.Rand) float64 {
	t := s.table
	switch {
	case t.total <= 0:
		return s.fallback
	case len(t.entries) == 1:
		return t.entries[0].Energy
	}

	u := r.Float64() * t.total
	i := sort.Search(len(t.cdf), func(i int) bool { return t.cdf[i] > u })
	if i == len(t.cdf) {
		// u rounded up onto the total; take the last entry that carries weight.
		i = sort.SearchFloat64s(t.cdf, t.total)
	}
	return t.entries[i].Energy
}

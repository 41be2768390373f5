// Package generator is the primary-particle gun: one spectrum draw per event,
// a fixed particle species, position and direction.
package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vk/bremsim/internal/analysis"
	"github.com/vk/bremsim/internal/geometry"
	"github.com/vk/bremsim/internal/metrics"
	"github.com/vk/bremsim/internal/spectrum"
	"github.com/vk/bremsim/internal/units"
)

// ErrInvalidGun rejects a gun that cannot produce a vertex.
var ErrInvalidGun = errors.New("generator: invalid gun")

// Gun fixes everything about the primary except its energy.
type Gun struct {
	Particle  string
	Position  geometry.Vec3 // mm
	Direction geometry.Vec3
}

// DefaultGun shoots electrons from the origin along +z.
func DefaultGun() Gun {
	return Gun{
		Particle:  "e-",
		Direction: geometry.Vec3{0, 0, 1},
	}
}

// Vertex is the primary particle of one event.
type Vertex struct {
	EventID       int
	Particle      string
	KineticEnergy float64 // internal units
	Position      geometry.Vec3
	Direction     geometry.Vec3
}

// Generator produces vertices. It is immutable after New and may be shared
// between workers; Histogram, when set, must be safe for concurrent Fill.
type Generator struct {
	gun       Gun
	sampler   *spectrum.Sampler
	histogram *analysis.Histogram
}

// New validates gun and returns a generator sampling from s. histogram may
// be nil.
func New(gun Gun, s *spectrum.Sampler, histogram *analysis.Histogram) (*Generator, error) {
	if gun.Particle == "" {
		return nil, fmt.Errorf("%w: empty particle", ErrInvalidGun)
	}
	for _, c := range append(gun.Position[:], gun.Direction[:]...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: non-finite position or direction", ErrInvalidGun)
		}
	}
	if gun.Direction.Norm() == 0 {
		return nil, fmt.Errorf("%w: zero direction", ErrInvalidGun)
	}
	gun.Direction = gun.Direction.Unit()
	if s == nil {
		s = spectrum.NewSampler(nil)
	}
	return &Generator{gun: gun, sampler: s, histogram: histogram}, nil
}

// Gun returns the normalized gun settings.
func (g *Generator) Gun() Gun {
	return g.gun
}

// Generate draws the primary of eventID. The sampled value is in MeV and is
// converted to internal units here.
func (g *Generator) Generate(eventID int, rng *rand.Rand) Vertex {
	sampled := g.sampler.Sample(rng)

	if g.histogram != nil {
		g.histogram.Fill(sampled)
	}
	metrics.PrimaryEnergy.Observe(sampled)

	return Vertex{
		EventID:       eventID,
		Particle:      g.gun.Particle,
		KineticEnergy: sampled * units.MeV,
		Position:      g.gun.Position,
		Direction:     g.gun.Direction,
	}
}

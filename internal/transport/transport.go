// Package transport moves primaries and their secondaries through the
// geometry and reports every step taken inside a sensitive volume.
//
// StraightLine is a small navigator. Particles fly in straight lines from
// boundary to boundary, and the only interaction is thin-target
// bremsstrahlung of electrons and positrons in materials with a finite
// radiation length. It makes no claim of physical accuracy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/generator"
	"github.com/vk/bremsim/internal/geometry"
	"github.com/vk/bremsim/internal/hits"
	"github.com/vk/bremsim/internal/metrics"
	"github.com/vk/bremsim/internal/units"
)

// Particle names understood by the navigator.
const (
	Electron = "e-"
	Positron = "e+"
	Gamma    = "gamma"
)

const (
	// DefaultCut is the lowest photon energy produced, and the energy below
	// which charged tracks are stopped.
	DefaultCut = 1 * units.KeV
	// DefaultMaxSteps bounds the number of steps of a single track.
	DefaultMaxSteps = 1000

	// push moves a post-step point across the boundary it stopped on.
	push = 1e-9 * units.Millimetre
)

// ErrNoGeometry is returned by NewStraightLine without a detector.
var ErrNoGeometry = errors.New("transport: no geometry")

// SensitiveDetector is the capability the navigator invokes once per step in
// a sensitive volume. The return value is ignored.
type SensitiveDetector interface {
	OnStep(hits.Observation) bool
}

// Stats counts what happened during one event.
type Stats struct {
	Tracks    int
	Steps     int
	Photons   int
	Truncated int
}

// StraightLine is safe for concurrent use; all per-event state lives on the
// stack of Track.
type StraightLine struct {
	det      *geometry.Detector
	cut      float64
	maxSteps int
}

// Option configures a StraightLine.
type Option func(*StraightLine)

// WithCut overrides DefaultCut.
func WithCut(cut float64) Option {
	return func(s *StraightLine) { s.cut = cut }
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(s *StraightLine) { s.maxSteps = n }
}

// NewStraightLine returns a navigator over det.
func NewStraightLine(det *geometry.Detector, opts ...Option) (*StraightLine, error) {
	if det == nil {
		return nil, ErrNoGeometry
	}
	s := &StraightLine{det: det, cut: DefaultCut, maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(s)
	}
	if !(s.cut > 0) {
		return nil, fmt.Errorf("transport: cut must be positive, got %v", s.cut)
	}
	if s.maxSteps <= 0 {
		return nil, fmt.Errorf("transport: max steps must be positive, got %d", s.maxSteps)
	}
	return s, nil
}

type track struct {
	id       int
	parent   int
	particle string
	pos      geometry.Vec3
	dir      geometry.Vec3
	ekin     float64
}

// Track transports v and everything it produces. Tracks are processed last
// in, first out; the primary has track ID 1 and parent ID 0.
func (s *StraightLine) Track(ctx context.Context, v generator.Vertex, rng *rand.Rand, sd SensitiveDetector) (Stats, error) {
	var stats Stats
	stack := []track{{
		id:       1,
		particle: v.Particle,
		pos:      v.Position,
		dir:      v.Direction.Unit(),
		ekin:     v.KineticEnergy,
	}}
	nextID := 2

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		tr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stats.Tracks++

		for steps := 0; ; steps++ {
			if steps == s.maxSteps {
				stats.Truncated++
				ctxlog.FromContext(ctx).Debug("Track truncated.", "event", v.EventID, "track", tr.id, "steps", steps)
				break
			}
			vol := s.det.Locate(tr.pos)
			if vol == nil {
				break
			}
			dist := s.det.DistanceToBoundary(tr.pos, tr.dir, vol)
			if !(dist > 0) {
				break
			}
			stats.Steps++

			if vol.Sensitive {
				sd.OnStep(hits.Observation{
					EventID:       v.EventID,
					TrackID:       tr.id,
					ParentID:      tr.parent,
					Particle:      tr.particle,
					KineticEnergy: tr.ekin,
					Volume:        vol,
				})
			}

			if charged(tr.particle) {
				for _, ph := range s.radiate(rng, &tr, dist, vol.Material.RadiationLength) {
					ph.id = nextID
					nextID++
					stack = append(stack, ph)
					stats.Photons++
					metrics.SecondariesCreated.WithLabelValues(Gamma).Inc()
				}
				if tr.ekin <= s.cut {
					break
				}
			}

			tr.pos = tr.pos.Add(tr.dir.Scale(dist + push))
		}
	}
	return stats, nil
}

func charged(particle string) bool {
	return particle == Electron || particle == Positron
}

// radiate emits the bremsstrahlung photons of a charged step of length dist
// in a material with radiation length x0. The photon count is Poisson with
// mean dist/x0 * 4/3 * ln(E/cut); each photon takes its energy from tr.
func (s *StraightLine) radiate(rng *rand.Rand, tr *track, dist, x0 float64) []track {
	if math.IsInf(x0, 1) || !(x0 > 0) || tr.ekin <= s.cut {
		return nil
	}
	mean := dist / x0 * 4.0 / 3.0 * math.Log(tr.ekin/s.cut)
	n := poisson(rng, mean)

	photons := make([]track, 0, n)
	for i := 0; i < n && tr.ekin > s.cut; i++ {
		k := s.photonEnergy(rng, tr.ekin)
		tr.ekin -= k
		photons = append(photons, track{
			parent:   tr.id,
			particle: Gamma,
			pos:      tr.pos.Add(tr.dir.Scale(rng.Float64() * dist)),
			dir:      tr.dir,
			ekin:     k,
		})
	}
	return photons
}

// photonEnergy samples k in [cut, e] from dN/dk ~ (1 - y + 3/4 y^2)/k with
// y = k/e. The 1/k part is drawn exactly, the shape by rejection.
func (s *StraightLine) photonEnergy(rng *rand.Rand, e float64) float64 {
	for {
		k := s.cut * math.Pow(e/s.cut, rng.Float64())
		y := k / e
		if rng.Float64() < 1-y+0.75*y*y {
			return k
		}
	}
}

func poisson(rng *rand.Rand, mean float64) int {
	switch {
	case !(mean > 0):
		return 0
	case mean > 100:
		n := math.Round(mean + math.Sqrt(mean)*rng.NormFloat64())
		return int(math.Max(n, 0))
	}
	limit := math.Exp(-mean)
	n := 0
	for p := rng.Float64(); p > limit; p *= rng.Float64() {
		n++
	}
	return n
}

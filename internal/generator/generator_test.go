package generator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bremsim/internal/analysis"
	"github.com/vk/bremsim/internal/geometry"
	"github.com/vk/bremsim/internal/spectrum"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	table := spectrum.NewTable([]spectrum.Entry{{Energy: 2.5, Weight: 1}})
	hist, err := analysis.NewHistogram(0, 10, 0.5)
	require.NoError(t, err)
	gun := Gun{Particle: "e-", Position: geometry.Vec3{0, 0, -5}, Direction: geometry.Vec3{0, 0, 3}}
	g, err := New(gun, spectrum.NewSampler(table), hist)
	require.NoError(t, err)

	// --- Act ---
	v := g.Generate(42, rand.New(rand.NewPCG(1, 42)))

	// --- Assert ---
	want := Vertex{
		EventID:       42,
		Particle:      "e-",
		KineticEnergy: 2.5,
		Position:      geometry.Vec3{0, 0, -5},
		Direction:     geometry.Vec3{0, 0, 1},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(1), hist.Counts()[5])
}

func TestGenerate_EmptySpectrumFallsBack(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g, err := New(DefaultGun(), nil, nil)
	require.NoError(t, err)

	// --- Act ---
	v := g.Generate(0, rand.New(rand.NewPCG(0, 0)))

	// --- Assert ---
	assert.Equal(t, spectrum.FallbackEnergy, v.KineticEnergy)
	assert.Equal(t, geometry.Vec3{0, 0, 1}, v.Direction)
}

func TestGenerate_SameSeedSameEnergies(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	table := spectrum.NewTable([]spectrum.Entry{
		{Energy: 0.5, Weight: 1},
		{Energy: 1.0, Weight: 2},
		{Energy: 4.0, Weight: 1},
	})
	g, err := New(DefaultGun(), spectrum.NewSampler(table), nil)
	require.NoError(t, err)

	// --- Act ---
	draw := func() []float64 {
		var out []float64
		for id := 0; id < 20; id++ {
			out = append(out, g.Generate(id, rand.New(rand.NewPCG(7, uint64(id)))).KineticEnergy)
		}
		return out
	}

	// --- Assert ---
	assert.Equal(t, draw(), draw())
}

func TestNew_InvalidGun(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		gun  Gun
	}{
		{name: "empty particle", gun: Gun{Direction: geometry.Vec3{0, 0, 1}}},
		{name: "zero direction", gun: Gun{Particle: "e-"}},
		{name: "NaN position", gun: Gun{Particle: "e-", Position: geometry.Vec3{math.NaN(), 0, 0}, Direction: geometry.Vec3{0, 0, 1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			_, err := New(tc.gun, nil, nil)

			// --- Assert ---
			assert.ErrorIs(t, err, ErrInvalidGun)
		})
	}
}

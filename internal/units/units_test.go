package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	testCases := map[float64]string{
		0:         "0",
		0.1:       "0.1",
		1:         "1",
		0.0595:    "0.0595",
		1.2345678: "1.23457",
		2.5e6:     "2.5e+06",
	}
	for in, want := range testCases {
		assert.Equal(t, want, FormatFloat(in), "input %v", in)
	}
}

func TestBestUnits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 eV", BestEnergy(0))
	assert.Equal(t, "59.3 keV", BestEnergy(59.3*KeV))
	assert.Equal(t, "1.5 MeV", BestEnergy(1.5*MeV))
	assert.Equal(t, "2 GeV", BestEnergy(2000*MeV))

	assert.Equal(t, "0 fm", BestLength(0))
	assert.Equal(t, "3 mm", BestLength(3*Millimetre))
	assert.Equal(t, "1 m", BestLength(Metre))
	assert.Equal(t, "100 um", BestLength(0.1*Millimetre))
}

// Package units defines the internal unit system. Energies are in MeV and
// lengths in millimetres; multiplying a value by a unit constant converts it
// into internal units, dividing converts it back out.
package units

import (
	"fmt"
	"math"
	"strconv"
)

// Energy.
const (
	MeV = 1.0
	EV  = 1e-6 * MeV
	KeV = 1e-3 * MeV
	GeV = 1e3 * MeV
)

// Length.
const (
	Millimetre = 1.0
	Fermi      = 1e-12 * Millimetre
	Micrometre = 1e-3 * Millimetre
	Centimetre = 10 * Millimetre
	Metre      = 1000 * Millimetre
)

type unit struct {
	symbol string
	value  float64
}

var (
	energyUnits = []unit{{"GeV", GeV}, {"MeV", MeV}, {"keV", KeV}, {"eV", EV}}
	lengthUnits = []unit{{"m", Metre}, {"cm", Centimetre}, {"mm", Millimetre}, {"um", Micrometre}, {"fm", Fermi}}
)

// FormatFloat renders v with six significant digits, the way C++ streams
// print doubles by default. Hit log rows and file names rely on it.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// BestEnergy formats an energy with the largest unit that keeps the
// magnitude at or above one. Zero is printed in the smallest unit.
func BestEnergy(e float64) string {
	return best(e, energyUnits)
}

// BestLength is BestEnergy for lengths.
func BestLength(l float64) string {
	return best(l, lengthUnits)
}

func best(v float64, table []unit) string {
	abs := math.Abs(v)
	u := table[len(table)-1]
	if abs > 0 {
		for _, candidate := range table {
			if abs >= candidate.value {
				u = candidate
				break
			}
		}
	}
	return fmt.Sprintf("%s %s", FormatFloat(v/u.value), u.symbol)
}

package geometry

import (
	"math"

	"github.com/vk/bremsim/internal/units"
)

// Material is a NIST material with the properties the transport needs.
type Material struct {
	Name            string
	Density         float64 // g/cm3
	RadiationLength float64 // mm
}

// Vacuum is the world and detector fill.
var Vacuum = Material{Name: "G4_Galactic", Density: 1e-25, RadiationLength: math.Inf(1)}

// Radiation lengths from the PDG tables, converted to mm at the listed density.
var materials = map[string]Material{
	Vacuum.Name: Vacuum,
	"G4_W":      {Name: "G4_W", Density: 19.3, RadiationLength: 3.504 * units.Millimetre},
	"G4_Pb":     {Name: "G4_Pb", Density: 11.35, RadiationLength: 5.612 * units.Millimetre},
	"G4_Ta":     {Name: "G4_Ta", Density: 16.654, RadiationLength: 4.094 * units.Millimetre},
	"G4_Au":     {Name: "G4_Au", Density: 19.32, RadiationLength: 3.344 * units.Millimetre},
	"G4_Pt":     {Name: "G4_Pt", Density: 21.45, RadiationLength: 3.053 * units.Millimetre},
	"G4_Mo":     {Name: "G4_Mo", Density: 10.22, RadiationLength: 9.594 * units.Millimetre},
	"G4_Ag":     {Name: "G4_Ag", Density: 10.5, RadiationLength: 8.544 * units.Millimetre},
	"G4_Cu":     {Name: "G4_Cu", Density: 8.96, RadiationLength: 14.36 * units.Millimetre},
	"G4_Fe":     {Name: "G4_Fe", Density: 7.874, RadiationLength: 17.57 * units.Millimetre},
	"G4_Al":     {Name: "G4_Al", Density: 2.699, RadiationLength: 88.97 * units.Millimetre},
	"G4_Be":     {Name: "G4_Be", Density: 1.848, RadiationLength: 352.8 * units.Millimetre},
}

// FindMaterial looks up a material by its NIST name.
func FindMaterial(name string) (Material, bool) {
	m, ok := materials[name]
	return m, ok
}

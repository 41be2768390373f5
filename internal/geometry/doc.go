// Package geometry describes the bremsstrahlung setup: a vacuum world, a
// thin foil target at the origin and a detector slab just behind it.
//
// The foil material and thickness come from an optional text resource with
// "material <name>" and "thickness <mm>" lines; when it is missing the
// defaults (tungsten, 0.1 mm) apply. Each construction appends a short block
// to an informational run log.
package geometry

// Package spectrum loads a tabulated primary-energy spectrum and samples
// energies from it.
//
// A spectrum resource is a text file with one "tag energy weight" triple per
// line, energy in MeV. Anything else on a line of its own is ignored, so
// macro-style files such as
//
//	/gps/hist/type arb
//	/gps/hist/point 0.05 0.12
//	/gps/hist/point 0.10 0.31
//
// load as a two-point table. Loading never aborts a run: an unreadable or
// empty resource degrades to a table that samples FallbackEnergy.
package spectrum

// Package analysis post-processes hit logs: it extracts gamma energies,
// histograms them with a fixed bin width and writes the result as CSV, one
// file per foil thickness plus a combined wide table.
package analysis

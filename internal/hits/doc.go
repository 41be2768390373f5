// Package hits implements the sensitive detector of the setup. Every step the
// transport loop takes inside an instrumented volume is offered to
// Recorder.OnStep; photons seen in the detector slab are appended to a CSV
// hit log that is truncated when the recorder is created and flushed after
// each row.
//
// The recorder also owns the per-event hit collections and forwards accepted
// hits to optional sinks such as the live monitor.
package hits

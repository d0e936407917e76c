package main

import (
	"os"
	"time"

	"github.com/mitranim/gg"
)

/*
Reports whether the file at the given path was modified strictly after the
baseline, and returns the baseline to use for the next probe. The baseline
only ever moves forward.

Filesystem timestamps may be coarser than the polling interval. Two writes
within one timestamp tick look like one write; this is accepted. Equal
timestamps are never treated as a change, which keeps repeated probes of an
untouched file idempotent.
*/
func Probe(path string, baseline time.Time) (bool, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, baseline, gg.Wrapf(err, `unable to probe %q`, path)
	}

	mod := info.ModTime()
	if mod.After(baseline) {
		return true, mod, nil
	}
	return false, baseline, nil
}

// Modification time to use as the initial baseline of a new target.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, gg.Wrapf(err, `unable to stat %q`, path)
	}
	return info.ModTime(), nil
}

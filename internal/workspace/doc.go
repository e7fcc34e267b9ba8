// Package workspace manages the per-run scratch directory.
//
// Each run gets a timestamped directory (e.g., fwbuild-20251214-122336) under
// the configured base. Process failure transcripts are written there, so the
// caller only cleans it up when the run succeeded.
package workspace

// Package procrun executes external commands for build automation.
//
// Output from the child's combined stdout/stderr stream is decoded
// permissively, echoed line by line with a label prefix so long builds show
// live progress, and accumulated into a full transcript. On non-zero exit the
// transcript is persisted to the scratch directory as a diagnostic file and a
// typed ExecError is returned.
package procrun

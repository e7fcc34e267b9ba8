package procrun

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/fwbuild/internal/logfields"
)

const maxLineBytes = 1024 * 1024

// Options controls a single Run invocation. The zero value echoes output as
// it arrives, logs the command line before spawning, and dumps the transcript
// when a captured run fails.
type Options struct {
	// CaptureOnly suppresses live echo; the transcript is still accumulated.
	CaptureOnly bool
	// QuietOnError suppresses the transcript dump a failing captured run
	// would otherwise produce.
	QuietOnError bool
	// HideCommand suppresses logging of the command line before spawning.
	HideCommand bool
	// Dir is the working directory for the child. Empty means the current
	// directory.
	Dir string
	// Env is the child's environment. Nil inherits the parent environment.
	Env []string
}

// Runner spawns external commands and captures their output.
type Runner struct {
	scratchDir string
	sink       io.Writer
}

// NewRunner creates a runner whose failure transcripts are written to
// scratchDir. An empty scratchDir disables transcript persistence.
func NewRunner(scratchDir string) *Runner {
	return &Runner{scratchDir: scratchDir, sink: os.Stderr}
}

// WithSink redirects the live output echo, primarily for tests.
func (r *Runner) WithSink(w io.Writer) *Runner {
	r.sink = w
	return r
}

// Run executes cmdline, streaming each output line prefixed with label, and
// returns the accumulated transcript. A non-zero exit yields an *ExecError
// after the diagnostic transcript file has been written best-effort.
func (r *Runner) Run(label string, cmdline []string, opts Options) (string, error) {
	if len(cmdline) == 0 {
		return "", fmt.Errorf("empty command")
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	commandDebug := fmt.Sprintf("Running (%s) in (%s)", strings.Join(cmdline, " "), dir)
	if !opts.HideCommand {
		slog.Info("Running command",
			logfields.Label(label),
			logfields.Command(strings.Join(cmdline, " ")),
			logfields.Path(dir))
	}

	cmd := exec.Command(cmdline[0], cmdline[1:]...)
	cmd.Dir = dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	// Single pipe shared by stdout and stderr so the transcript preserves
	// interleaving. The parent's write end is closed right after the spawn;
	// the read loop then sees EOF once the child exits.
	pr, pw, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return "", fmt.Errorf("failed to start command (%s): %w", strings.Join(cmdline, " "), err)
	}
	pw.Close()

	var transcript strings.Builder
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := printableLine(scanner.Bytes())
		transcript.WriteString(line)
		transcript.WriteByte('\n')
		if !opts.CaptureOnly {
			fmt.Fprintf(r.sink, "%s: %s\n", label, line)
		}
	}
	scanErr := scanner.Err()
	pr.Close()

	waitErr := cmd.Wait()
	if scanErr != nil && waitErr == nil {
		return transcript.String(), fmt.Errorf("failed to read command output: %w", scanErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return transcript.String(), fmt.Errorf("command (%s) failed: %w", strings.Join(cmdline, " "), waitErr)
		}

		if opts.CaptureOnly && !opts.QuietOnError {
			// We were told not to show output, but the run failed, so
			// show it after all.
			fmt.Fprint(r.sink, transcript.String())
		}

		exitCode := exitErr.ExitCode()
		slog.Error("Process failed",
			logfields.Label(label),
			logfields.Command(strings.Join(cmdline, " ")),
			logfields.ExitCode(exitCode))
		r.writeFailureFile(commandDebug, transcript.String())

		return transcript.String(), &ExecError{
			Command:  cmdline,
			ExitCode: exitCode,
			Output:   transcript.String(),
			Err:      waitErr,
		}
	}

	return transcript.String(), nil
}

// writeFailureFile persists the failure diagnostic under the scratch
// directory. Failures here are downgraded to a log message so they never mask
// the original process error.
func (r *Runner) writeFailureFile(header, transcript string) {
	if r.scratchDir == "" {
		return
	}

	path := filepath.Join(r.scratchDir, fmt.Sprintf("process-failure-%d", time.Now().Unix()))
	content := header + "\n" + transcript
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		slog.Warn("Writing process failure file failed", logfields.Path(path), logfields.Error(err))
		return
	}
	slog.Info("Wrote process failure file", logfields.Path(path))
}

// printableLine drops non-printable bytes, keeping printable ASCII and tabs.
// Child processes occasionally emit control sequences or binary garbage that
// would corrupt the transcript.
func printableLine(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '\t' || (c >= 0x20 && c < 0x7f) {
			out = append(out, c)
		}
	}
	return string(out)
}

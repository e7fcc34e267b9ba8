package procrun

import (
	"fmt"
	"strings"
)

// ExecError reports a command that ran and exited non-zero. The full
// transcript has already been echoed or persisted by the runner; Output is
// carried for callers that want to inspect it programmatically.
type ExecError struct {
	Command  []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command (%s) exited with status %d", strings.Join(e.Command, " "), e.ExitCode)
}

func (e *ExecError) Unwrap() error { return e.Err }

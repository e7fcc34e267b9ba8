package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBoard      = "board"
	KeyPath       = "path"
	KeyCommand    = "command"
	KeyLabel      = "label"
	KeyExitCode   = "exit_code"
	KeyRef        = "ref"
	KeyBaseRef    = "base_ref"
	KeyCompiler   = "compiler"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Board(name string) slog.Attr     { return slog.String(KeyBoard, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Label(l string) slog.Attr        { return slog.String(KeyLabel, l) }
func ExitCode(c int) slog.Attr        { return slog.Int(KeyExitCode, c) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func BaseRef(r string) slog.Attr      { return slog.String(KeyBaseRef, r) }
func Compiler(c string) slog.Attr     { return slog.String(KeyCompiler, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil { return slog.String(KeyError, "") }
	return slog.String(KeyError, err.Error())
}

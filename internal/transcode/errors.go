package transcode

import (
	"fmt"
	"strings"

	"mediaforge/internal/media/mediakind"
	"mediaforge/internal/services"
)

// UnsupportedConversionError names a kind and intent pair with no policy.
type UnsupportedConversionError struct {
	Kind   mediakind.Kind
	Intent Intent
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("cannot apply %s to %s media", e.Intent, e.Kind)
}

func (e *UnsupportedConversionError) Unwrap() error { return services.ErrUnsupportedConversion }

// TranscodeError reports a failed operation: an upstream probe failure, a
// non-zero ffmpeg exit or an invocation that produced no output.
type TranscodeError struct {
	Operation string
	Stderr    string
	Err       error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("transcode %s: %v", e.Operation, e.Err)
	if tail := stderrTail(e.Stderr, 5); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *TranscodeError) Unwrap() []error {
	return []error{services.ErrTranscodeFailure, e.Err}
}

// stderrTail keeps the last n non-empty lines, where ffmpeg puts the cause.
func stderrTail(stderr string, n int) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, " | ")
}

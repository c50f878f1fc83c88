package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")

	// ErrProbeFailure marks files ffprobe could not read.
	ErrProbeFailure = errors.New("probe failure")
	// ErrUnsupportedConversion marks a (kind, intent) pair with no encoder path.
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrTranscodeFailure marks a failed or output-less ffmpeg invocation.
	ErrTranscodeFailure = errors.New("transcode failure")
	// ErrResolutionFailure marks an indirect media reference that could not be
	// turned into a fetchable URL.
	ErrResolutionFailure = errors.New("resolution failure")
)

// Wrap builds an error message that includes component context while tagging
// it with marker for errors.Is classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsUserFacing reports whether err describes a problem with the input rather
// than with mediaforge or its tools. Callers use it to pick a log level.
func IsUserFacing(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnsupportedConversion),
		errors.Is(err, ErrProbeFailure),
		errors.Is(err, ErrValidation):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

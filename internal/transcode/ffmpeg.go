package transcode

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Encoder runs one ffmpeg invocation and returns its stderr.
type Encoder interface {
	Run(ctx context.Context, args []string) (string, error)
}

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	Binary string
}

// Run executes ffmpeg with args. Stdout is discarded; stderr is returned for
// diagnostics whether or not the run succeeded.
func (f FFmpeg) Run(ctx context.Context, args []string) (string, error) {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	var stderr bytes.Buffer
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

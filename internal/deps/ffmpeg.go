package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// RequiredEncoders are the ffmpeg encoders the transcode plans name.
var RequiredEncoders = []string{"libx264", "aac", "png", "gif", "apng", "ffv1"}

// CheckEncoders asks ffmpeg which encoders it was built with and reports one
// Status per name in want.
func CheckEncoders(ctx context.Context, ffmpegBinary string, want []string) ([]Status, error) {
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, binary, "-hide_banner", "-encoders") //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list ffmpeg encoders: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	available := parseEncoders(stdout.Bytes())
	statuses := make([]Status, 0, len(want))
	for _, name := range want {
		status := Status{Name: name, Command: binary, Description: "ffmpeg encoder"}
		if _, ok := available[name]; ok {
			status.Available = true
		} else {
			status.Detail = fmt.Sprintf("encoder %q not compiled into %s", name, binary)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// parseEncoders reads the table printed by "ffmpeg -encoders". Rows look like
// " V....D libx264              libx264 H.264 ..." and follow a "------"
// separator.
func parseEncoders(out []byte) map[string]struct{} {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			inTable = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			names[fields[1]] = struct{}{}
		}
	}
	return names
}

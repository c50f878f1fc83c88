package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// InitializeMetrics pre-populates the expected label combinations so every
// series appears in the first textfile flush.
func InitializeMetrics() {
	for _, query := range []string{"probe", "count_frames"} {
		ProbeInvocations.WithLabelValues(query, "success")
		ProbeInvocations.WithLabelValues(query, "error")
	}
	for _, source := range []string{"attachment", "sticker", "embed", "gifhost"} {
		ResolverCandidates.WithLabelValues(source)
	}
	for _, outcome := range []string{OutcomeSuccess, OutcomeFailure, OutcomeIndirect} {
		GifHostLookups.WithLabelValues(outcome)
	}
}

// WriteTextfile writes the default gatherer to path in the Prometheus text
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

package tempfiles

import (
	"context"
	"os"
	"path/filepath"

	"mediaforge/internal/logging"
	"mediaforge/internal/metrics"
)

// SweepResult contains the outcome of a leftover sweep.
type SweepResult struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a path with the error that kept it from being removed.
type SweepError struct {
	Path  string
	Error error
}

// Sweep removes every regular file in the directory that is neither the lock
// file nor a registered managed file. The caller must own the directory; Open
// and Close only sweep while holding the exclusive lock.
func (l *Ledger) Sweep(ctx context.Context) SweepResult {
	result := SweepResult{}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, SweepError{Path: l.dir, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, SweepError{Path: l.dir, Error: ctx.Err()})
			break
		}
		if !entry.Type().IsRegular() || entry.Name() == LockFileName {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		if l.Registered(path) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, SweepError{Path: path, Error: err})
			logging.WarnWithContext(l.logger, "failed to remove leftover temp file", "tempfiles_sweep_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.temp_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
	}

	if len(result.Removed) > 0 {
		metrics.LedgerSweptFiles.Add(float64(len(result.Removed)))
		l.logger.Info("swept leftover temp files",
			logging.Int("removed", len(result.Removed)),
			logging.String("dir", l.dir),
			logging.String(logging.FieldEventType, "tempfiles_sweep"),
		)
	}
	return result
}

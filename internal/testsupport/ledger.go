package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"mediaforge/internal/config"
	"mediaforge/internal/logging"
	"mediaforge/internal/tempfiles"
)

// MustOpenLedger opens the ledger for cfg's temp directory and closes it when
// the test ends.
func MustOpenLedger(t testing.TB, cfg *config.Config) *tempfiles.Ledger {
	t.Helper()

	ledger, err := tempfiles.Open(cfg.Paths.TempDir, logging.NewNop())
	if err != nil {
		t.Fatalf("tempfiles.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = ledger.Close(context.Background())
	})
	return ledger
}

// ImportFile writes size bytes to a scratch file and imports it into ledger.
func ImportFile(t testing.TB, ledger *tempfiles.Ledger, name string, size int64) *tempfiles.File {
	t.Helper()

	src := filepath.Join(t.TempDir(), name)
	WriteFile(t, src, size)
	file, err := ledger.Import(src)
	if err != nil {
		t.Fatalf("ledger.Import: %v", err)
	}
	return file
}

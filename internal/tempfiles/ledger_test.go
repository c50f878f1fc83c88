package tempfiles_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mediaforge/internal/logging"
	"mediaforge/internal/tempfiles"
)

func openLedger(t *testing.T, dir string) *tempfiles.Ledger {
	t.Helper()
	l, err := tempfiles.Open(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReserveNamesAndRegisters(t *testing.T) {
	l := openLedger(t, t.TempDir())

	f := l.Reserve(".MP4")
	if f.Ext() != "mp4" {
		t.Fatalf("expected normalized ext, got %q", f.Ext())
	}
	if filepath.Dir(f.Path()) != l.Dir() {
		t.Fatalf("file outside ledger dir: %s", f.Path())
	}
	if filepath.Base(f.Path()) != f.ID()+".mp4" {
		t.Fatalf("unexpected file name %q for id %q", filepath.Base(f.Path()), f.ID())
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Fatal("reserve must not create the file")
	}
	if !l.Registered(f.Path()) || l.Live() != 1 {
		t.Fatal("expected file to be registered")
	}
	if l.Reserve("").Ext() != "bin" {
		t.Fatal("expected empty ext to map to bin")
	}
}

func TestConcurrentReservationsNeverCollide(t *testing.T) {
	l := openLedger(t, t.TempDir())

	const workers = 16
	const perWorker = 50
	paths := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				paths <- l.Reserve("png").Path()
			}
		}()
	}
	wg.Wait()
	close(paths)

	seen := make(map[string]struct{})
	for p := range paths {
		if _, dup := seen[p]; dup {
			t.Fatalf("duplicate path %s", p)
		}
		seen[p] = struct{}{}
	}
	if l.Live() != workers*perWorker {
		t.Fatalf("expected %d live files, got %d", workers*perWorker, l.Live())
	}
}

func TestReleaseRemovesAndToleratesMissing(t *testing.T) {
	l := openLedger(t, t.TempDir())

	written := l.Reserve("gif")
	writeFile(t, written.Path(), "GIF89a")
	l.Release(written)
	if _, err := os.Stat(written.Path()); !os.IsNotExist(err) {
		t.Fatal("expected released file to be deleted")
	}

	neverWritten := l.Reserve("mp4")
	l.Release(neverWritten)
	l.Release(neverWritten)
	l.Release(nil)
	if l.Live() != 0 {
		t.Fatalf("expected no live files, got %d", l.Live())
	}
}

func TestLockFlagIsSticky(t *testing.T) {
	l := openLedger(t, t.TempDir())
	f := l.Reserve("apng")
	if f.CodecLocked() {
		t.Fatal("new file must not be locked")
	}
	f.Lock()
	f.Lock()
	if !f.CodecLocked() {
		t.Fatal("expected file to be locked")
	}
}

func TestImportCopiesSource(t *testing.T) {
	l := openLedger(t, t.TempDir())
	src := filepath.Join(t.TempDir(), "clip.WebM")
	writeFile(t, src, "webm-bytes")

	f, err := l.Import(src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if f.Ext() != "webm" {
		t.Fatalf("unexpected ext %q", f.Ext())
	}
	data, err := os.ReadFile(f.Path())
	if err != nil || string(data) != "webm-bytes" {
		t.Fatalf("unexpected copy %q %v", data, err)
	}

	if _, err := l.Import(filepath.Join(t.TempDir(), "missing.gif")); err == nil {
		t.Fatal("expected error for missing source")
	}
	if l.Live() != 1 {
		t.Fatalf("failed import must not leave a registration, live=%d", l.Live())
	}
}

func TestOpenSweepsLeftovers(t *testing.T) {
	dir := t.TempDir()
	leftover := filepath.Join(dir, "stale.mp4")
	writeFile(t, leftover, "x")
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	l := openLedger(t, dir)
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatal("expected leftover to be swept at open")
	}
	if got := l.StartupSweep().Removed; len(got) != 1 || got[0] != leftover {
		t.Fatalf("unexpected startup sweep result: %v", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "subdir")); err != nil {
		t.Fatal("sweep must leave directories alone")
	}
}

func TestSweepKeepsLiveFiles(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)

	live := l.Reserve("png")
	writeFile(t, live.Path(), "png")
	stray := filepath.Join(dir, "stray.gif")
	writeFile(t, stray, "gif")

	result := l.Sweep(context.Background())
	if len(result.Removed) != 1 || result.Removed[0] != stray {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	if _, err := os.Stat(live.Path()); err != nil {
		t.Fatalf("live file was swept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, tempfiles.LockFileName)); err != nil {
		t.Fatalf("lock file was swept: %v", err)
	}
}

func TestSecondLedgerSkipsStartupSweep(t *testing.T) {
	dir := t.TempDir()
	first := openLedger(t, dir)
	owned := first.Reserve("mp4")
	writeFile(t, owned.Path(), "in progress")

	second := openLedger(t, dir)
	if len(second.StartupSweep().Removed) != 0 {
		t.Fatalf("second ledger swept a live directory: %v", second.StartupSweep().Removed)
	}
	if _, err := os.Stat(owned.Path()); err != nil {
		t.Fatalf("first ledger's file removed: %v", err)
	}

	if err := second.Close(context.Background()); err != nil {
		t.Fatalf("Close second: %v", err)
	}
	if _, err := os.Stat(owned.Path()); err != nil {
		t.Fatalf("closing one ledger must not sweep another's files: %v", err)
	}
}

func TestCloseRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	l, err := tempfiles.Open(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, ext := range []string{"mp4", "png", "m4a"} {
		writeFile(t, l.Reserve(ext).Path(), ext)
	}
	writeFile(t, filepath.Join(dir, "late-leftover.gif"), "gif")

	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != tempfiles.LockFileName {
			t.Fatalf("unexpected file after close: %s", e.Name())
		}
	}
}

func TestReserveAfterCloseIsUntrackedButReleasable(t *testing.T) {
	dir := t.TempDir()
	l, err := tempfiles.Open(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	late := l.Reserve("mp4")
	if l.Registered(late.Path()) || l.Live() != 0 {
		t.Fatal("reservation after close must not be registered")
	}
	writeFile(t, late.Path(), "late")
	l.Release(late)
	if _, err := os.Stat(late.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected late file removed on release, got %v", err)
	}

	src := filepath.Join(t.TempDir(), "in.png")
	writeFile(t, src, "png")
	if _, err := l.Import(src); !errors.Is(err, tempfiles.ErrClosed) {
		t.Fatalf("expected ErrClosed from Import, got %v", err)
	}
}

func TestSessionReleasesAllButKept(t *testing.T) {
	l := openLedger(t, t.TempDir())
	s := l.Session()

	input := s.Reserve("gif")
	intermediate := s.Reserve("mkv")
	final := s.Reserve("mp4")
	for _, f := range []*tempfiles.File{input, intermediate, final} {
		writeFile(t, f.Path(), f.Ext())
	}
	s.Keep(final)
	s.Close()

	for _, f := range []*tempfiles.File{input, intermediate} {
		if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be released", f.Path())
		}
	}
	if _, err := os.Stat(final.Path()); err != nil {
		t.Fatalf("kept file removed: %v", err)
	}
	if l.Live() != 1 {
		t.Fatalf("expected only the kept file to stay registered, live=%d", l.Live())
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := tempfiles.Open("  ", nil); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

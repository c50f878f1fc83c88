package tempfiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mediaforge/internal/fileutil"
	"mediaforge/internal/logging"
	"mediaforge/internal/metrics"
)

// LockFileName is the advisory lock kept inside the ledger directory.
const LockFileName = ".ledger.lock"

// ErrClosed is returned by Import once the ledger has been closed.
var ErrClosed = errors.New("tempfiles: ledger closed")

// Reserver hands out and retires managed files. Both *Ledger and *Session
// implement it.
type Reserver interface {
	Reserve(ext string) *File
	Release(file *File)
}

// Ledger issues uniquely named files inside one directory and guarantees their
// removal.
type Ledger struct {
	dir    string
	logger *slog.Logger
	lock   *flock.Flock

	mu     sync.Mutex
	files  map[string]*File
	closed bool

	startup SweepResult
}

var _ Reserver = (*Ledger)(nil)

// Open prepares dir, joins the shared lock and, when no other process is
// using the directory, sweeps leftovers from a previous run.
func Open(dir string, logger *slog.Logger) (*Ledger, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("tempfiles: directory required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	l := &Ledger{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "tempfiles"),
		lock:   flock.New(filepath.Join(dir, LockFileName)),
		files:  make(map[string]*File),
	}

	exclusive, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if exclusive {
		l.startup = l.Sweep(context.Background())
		if err := l.lock.Unlock(); err != nil {
			return nil, fmt.Errorf("release exclusive ledger lock: %w", err)
		}
	} else {
		logging.WarnWithContext(l.logger, "temp directory in use by another process; skipping startup sweep",
			"tempfiles_startup_sweep_skipped",
			logging.String("dir", dir),
			logging.String(logging.FieldErrorHint, "give each mediaforge process its own paths.temp_dir"),
			logging.String(logging.FieldImpact, "leftovers from crashed runs stay until the directory is idle"),
		)
	}

	if err := l.lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire shared ledger lock: %w", err)
	}
	l.logger.Debug("ledger opened",
		logging.String("dir", dir),
		logging.Int("swept", len(l.startup.Removed)),
	)
	return l, nil
}

// Dir returns the managed directory.
func (l *Ledger) Dir() string { return l.dir }

// StartupSweep reports what Open removed.
func (l *Ledger) StartupSweep() SweepResult { return l.startup }

// Reserve allocates and registers a fresh "<uuid>.<ext>" path.
func (l *Ledger) Reserve(ext string) *File {
	ext = normalizeExt(ext)
	id := uuid.NewString()
	file := &File{
		id:   id,
		path: filepath.Join(l.dir, id+"."+ext),
		ext:  ext,
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		file.orphan = true
		logging.WarnWithContext(l.logger, "reservation on closed ledger", "tempfiles_reserve_after_close",
			logging.String("path", file.path),
			logging.String(logging.FieldImpact, "file is not tracked; only Release or the next startup sweep removes it"),
		)
		return file
	}
	l.files[file.path] = file
	l.mu.Unlock()
	metrics.LedgerLiveFiles.Inc()

	l.logger.Debug("reserved temp file", logging.String("path", file.path))
	return file
}

// Release deletes file and forgets it. Delete failures are logged and
// otherwise ignored; releasing an unknown or already released file is a no-op.
// Files reserved after Close were never registered and are deleted directly.
func (l *Ledger) Release(file *File) {
	if file == nil {
		return
	}
	if file.orphan {
		l.remove(file.path, "tempfiles_release_failed")
		return
	}
	l.mu.Lock()
	registered, ok := l.files[file.path]
	if ok && registered == file {
		delete(l.files, file.path)
	}
	l.mu.Unlock()
	if !ok || registered != file {
		return
	}
	metrics.LedgerLiveFiles.Dec()
	l.remove(file.path, "tempfiles_release_failed")
}

// Import copies an external file into a new managed file with the same
// extension, so operations never touch caller-owned paths.
func (l *Ledger) Import(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat import source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("import source %s is not a regular file", path)
	}
	file := l.Reserve(filepath.Ext(path))
	if file.orphan {
		return nil, ErrClosed
	}
	if err := fileutil.CopyFile(path, file.Path()); err != nil {
		l.Release(file)
		return nil, fmt.Errorf("copy import source: %w", err)
	}
	return file, nil
}

// Live returns the number of registered files.
func (l *Ledger) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}

// Registered reports whether path belongs to a live managed file.
func (l *Ledger) Registered(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.files[path]
	return ok
}

// Close releases every registered file, sweeps leftovers when this is the last
// process using the directory, and drops the lock. Calling Close twice is safe.
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	live := make([]*File, 0, len(l.files))
	for _, f := range l.files {
		live = append(live, f)
	}
	l.mu.Unlock()

	for _, f := range live {
		l.Release(f)
	}

	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release shared ledger lock: %w", err)
	}
	exclusive, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !exclusive {
		return nil
	}
	l.Sweep(ctx)
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release ledger lock: %w", err)
	}
	return nil
}

func (l *Ledger) remove(path, eventType string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		l.logger.Debug("removed temp file", logging.String("path", path))
	case errors.Is(err, os.ErrNotExist):
		l.logger.Debug("temp file already gone", logging.String("path", path))
	default:
		logging.WarnWithContext(l.logger, "failed to remove temp file", eventType,
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.temp_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed until the next sweep"),
		)
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "bin"
	}
	return ext
}

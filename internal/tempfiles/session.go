package tempfiles

import (
	"fmt"
	"sync"
)

// Session tracks the files reserved for one request and releases them on
// Close, except the ones marked with Keep.
type Session struct {
	ledger *Ledger

	mu    sync.Mutex
	files []*File
	kept  map[*File]struct{}
}

var _ Reserver = (*Session)(nil)

// Session starts a new scope on the ledger.
func (l *Ledger) Session() *Session {
	return &Session{ledger: l, kept: make(map[*File]struct{})}
}

// Reserve reserves a file through the ledger and tracks it in the session.
func (s *Session) Reserve(ext string) *File {
	file := s.ledger.Reserve(ext)
	s.Track(file)
	return file
}

// Release releases file immediately.
func (s *Session) Release(file *File) {
	s.ledger.Release(file)
}

// Import copies path into a tracked managed file.
func (s *Session) Import(path string) (*File, error) {
	file, err := s.ledger.Import(path)
	if err != nil {
		return nil, fmt.Errorf("session import: %w", err)
	}
	s.Track(file)
	return file, nil
}

// Track adds a file reserved elsewhere to the session.
func (s *Session) Track(file *File) {
	if file == nil {
		return
	}
	s.mu.Lock()
	s.files = append(s.files, file)
	s.mu.Unlock()
}

// Keep excludes file from release when the session closes. The ledger still
// removes it on shutdown.
func (s *Session) Keep(file *File) {
	if file == nil {
		return
	}
	s.mu.Lock()
	s.kept[file] = struct{}{}
	s.mu.Unlock()
}

// Close releases every tracked file that was not kept.
func (s *Session) Close() {
	s.mu.Lock()
	files := s.files
	s.files = nil
	kept := s.kept
	s.kept = make(map[*File]struct{})
	s.mu.Unlock()

	for _, f := range files {
		if _, ok := kept[f]; ok {
			continue
		}
		s.ledger.Release(f)
	}
}

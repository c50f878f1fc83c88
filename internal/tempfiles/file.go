package tempfiles

import "sync/atomic"

// File is a handle to a ledger-managed file. The file on disk need not exist
// until the producing operation writes it.
type File struct {
	id     string
	path   string
	ext    string
	locked atomic.Bool
	// orphan marks a reservation made after the ledger closed.
	orphan bool
}

func (f *File) ID() string   { return f.id }
func (f *File) Path() string { return f.path }

// Ext is the semantic type hint the file was reserved with, without a dot.
func (f *File) Ext() string { return f.ext }

// CodecLocked reports whether the file must never be re-encoded.
func (f *File) CodecLocked() bool { return f.locked.Load() }

// Lock marks the file as exempt from further re-encoding. It cannot be undone.
func (f *File) Lock() { f.locked.Store(true) }

func (f *File) String() string { return f.path }

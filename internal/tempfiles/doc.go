// Package tempfiles manages the scratch files mediaforge creates while fetching
// and transcoding media.
//
// A Ledger owns one directory. Every file it hands out is registered until it
// is released, and anything in the directory that is not registered is a
// leftover from an earlier run that may be swept. Processes sharing a
// directory coordinate through an advisory lock: each live ledger holds a
// shared lock, and leftover sweeps at open and close only run when the
// exclusive lock can be taken.
//
// Sessions group the files produced for one request so they can be released
// together once the final artifact has been handed off.
package tempfiles

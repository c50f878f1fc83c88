// Package resolver walks a Discord conversation looking for media to work on.
//
// FindMedia visits the triggering message, its reply target and a bounded
// window of channel history, newest first, and returns candidate URLs in that
// order. Each message's embed length checks and gif-host lookups run
// concurrently and are joined before the walk moves on, so output order
// never depends on network timing. A failed check drops only its own
// candidate.
//
// FindGifHostMedia is the narrower walk used by commands that need a Tenor
// rendition: it looks at the reply target alone when there is one and at
// history otherwise, returning the first resolved URL.
package resolver

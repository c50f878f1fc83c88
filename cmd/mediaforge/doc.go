// Command mediaforge finds media in Discord conversations and converts it
// with ffmpeg.
//
// Every command shares one configuration file, one structured logger tagged
// with a per-invocation session ID, and one temp file ledger whose directory
// is swept on start and on exit.
package main

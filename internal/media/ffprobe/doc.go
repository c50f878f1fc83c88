// Package ffprobe provides a typed wrapper around ffprobe JSON output and a
// caching Prober built on top of it.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Info: the normalized facts mediaforge needs about one file (codecs,
//     oriented resolution, frame rate, duration, loop count)
//   - Prober: answers Info queries with one ffprobe run per file identity
//
// Animated PNGs often report no duration or frame rate through ffprobe, so the
// package reads APNG frame control chunks directly when it has to. GIF loop
// counts come from the NETSCAPE application extension.
package ffprobe

// Package transcode decides how a media file must be converted and drives
// ffmpeg to do it.
//
// Decide is a pure function from (kind, intent, codecs, lock flag) to a Plan:
// either pass the input through untouched or run one ffmpeg invocation with
// the planned arguments. Engine wraps Decide with probing, output file
// reservation, a bound on concurrent ffmpeg processes and error reporting.
//
// Every Engine operation returns either the input handle (pass-through) or a
// new managed file; it never mutates the input.
package transcode

// Package mediakind maps probe results onto the closed set of media kinds the
// transcode engine reasons about.
package mediakind

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediaforge/internal/media/ffprobe"
)

// Kind is the semantic category of a media file.
type Kind string

const (
	Image         Kind = "image"
	AnimatedImage Kind = "animated_image"
	GIF           Kind = "gif"
	Video         Kind = "video"
	Audio         Kind = "audio"
	Unknown       Kind = "unknown"
)

// Label returns a human readable name such as "Animated Image".
func (k Kind) Label() string {
	if k == GIF {
		return "GIF"
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(string(k), "_", " "))
}

func (k Kind) String() string { return string(k) }

// HasPicture reports whether files of this kind carry at least one frame.
func (k Kind) HasPicture() bool {
	switch k {
	case Image, AnimatedImage, GIF, Video:
		return true
	default:
		return false
	}
}

// Animated reports whether the kind is a multi-frame picture format other
// than regular video.
func (k Kind) Animated() bool {
	return k == GIF || k == AnimatedImage
}

var stillImageCodecs = map[string]struct{}{
	"png":      {},
	"mjpeg":    {},
	"jpegls":   {},
	"jpeg2000": {},
	"webp":     {},
	"bmp":      {},
	"tiff":     {},
	"ppm":      {},
	"pgm":      {},
	"pbm":      {},
	"pam":      {},
	"qoi":      {},
	"avif":     {},
	"heif":     {},
	"jpegxl":   {},
	"targa":    {},
	"ico":      {},
	"svg":      {},
}

// Classify derives a Kind from probe information. It is pure and
// deterministic.
func Classify(info ffprobe.Info) Kind {
	switch info.VideoCodec {
	case "apng":
		return AnimatedImage
	case "gif":
		return GIF
	case "":
		if info.HasAudio() {
			return Audio
		}
		return Unknown
	}
	if _, still := stillImageCodecs[info.VideoCodec]; still && (imageContainer(info.FormatName) || info.FrameCount <= 1) {
		return Image
	}
	return Video
}

func imageContainer(format string) bool {
	for name := range strings.SplitSeq(format, ",") {
		name = strings.TrimSpace(name)
		if name == "image2" || strings.HasSuffix(name, "_pipe") {
			return true
		}
	}
	return false
}

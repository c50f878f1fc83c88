package ffprobe

import (
	"math"
	"strconv"
	"strings"
)

// Info is the normalized view of one probed file.
type Info struct {
	VideoCodec string
	AudioCodec string
	// Width and Height are display dimensions, already swapped for rotation.
	Width      int
	Height     int
	Rotation   float64
	FrameRate  float64
	Duration   float64
	FormatName string
	// FrameCount is the container's nb_frames, 0 when unknown.
	FrameCount int
	LoopCount  int
	// FrameDelays is only set when the APNG fallback supplied timing.
	FrameDelays []float64
}

func (i Info) HasVideo() bool { return i.VideoCodec != "" }
func (i Info) HasAudio() bool { return i.AudioCodec != "" }

// NewInfo derives Info from a raw ffprobe result. Loop count and APNG timing
// need the file itself and are filled in by the Prober.
func NewInfo(r Result) Info {
	info := Info{
		FormatName: strings.TrimSpace(r.Format.FormatName),
		Duration:   r.DurationSeconds(),
	}
	if v, ok := r.VideoStream(); ok {
		info.VideoCodec = strings.ToLower(strings.TrimSpace(v.CodecName))
		info.Width, info.Height = v.Width, v.Height
		info.Rotation = v.Rotation()
		if math.Mod(math.Abs(info.Rotation), 180) == 90 {
			info.Width, info.Height = info.Height, info.Width
		}
		info.FrameRate = v.FrameRate()
		if n, err := strconv.Atoi(strings.TrimSpace(v.NBFrames)); err == nil && n > 0 {
			info.FrameCount = n
		}
	}
	if a, ok := r.AudioStream(); ok {
		info.AudioCodec = strings.ToLower(strings.TrimSpace(a.CodecName))
	}
	return info
}

// applyAPNG fills gaps in info from the container's own frame control chunks.
func (i *Info) applyAPNG(t APNGTiming) {
	i.LoopCount = t.FFmpegLoop()
	if i.Duration > 0 && i.FrameRate > 0 {
		return
	}
	i.FrameDelays = append([]float64(nil), t.Delays...)
	if i.Duration <= 0 {
		i.Duration = t.TotalDelay()
	}
	if i.FrameRate <= 0 {
		i.FrameRate = t.FrameRate()
	}
	if i.FrameCount == 0 {
		i.FrameCount = len(t.Delays)
	}
}

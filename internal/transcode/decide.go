package transcode

import (
	"fmt"
	"strconv"
	"strings"

	"mediaforge/internal/media/mediakind"
	"mediaforge/internal/services"
)

// DecisionInput carries everything Decide looks at. It is plain data so the
// policy can be exercised without files or processes.
type DecisionInput struct {
	Kind        mediakind.Kind
	Intent      Intent
	VideoCodec  string
	AudioCodec  string
	CodecLocked bool
	// ImageFormat is the target of ExtractFrameImage; empty means png.
	ImageFormat string
	FrameRate   float64
	LoopCount   int
}

// Plan is the outcome of Decide. When PassThrough is false, Args go between
// the input and output paths of a single ffmpeg run.
type Plan struct {
	PassThrough bool
	Args        []string
	OutputExt   string
	LockOutput  bool
	// Reason is a short explanation for logs.
	Reason string
}

func passThrough(reason string) Plan {
	return Plan{PassThrough: true, Reason: reason}
}

func invoke(ext, reason string, args ...string) Plan {
	return Plan{Args: args, OutputExt: ext, Reason: reason}
}

const (
	canonicalVideo = "h264"
	canonicalAudio = "aac"
	canonicalImage = "png"

	// gifFPSCap is the highest rate GIF delays can express reliably.
	gifFPSCap = 50
)

var (
	h264Args       = []string{"-c:v", "libx264", "-pix_fmt", "yuv420p", "-preset", "ultrafast", "-vf", "scale=ceil(iw/2)*2:ceil(ih/2)*2,premultiply=inplace=1"}
	aacArgs        = []string{"-c:a", "aac", "-q:a", "2"}
	mp4MuxArgs     = []string{"-movflags", "+faststart", "-max_muxing_queue_size", "9999"}
	animToMP4Args  = []string{"-movflags", "faststart", "-pix_fmt", "yuv420p", "-sws_flags", "spline+accurate_rnd+full_chroma_int+full_chroma_inp", "-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2", "-fps_mode", "vfr"}
	gifPaletteVF   = "split[s0][s1];[s0]geq=r='bitor(bitand(r(X,Y),248),4)':g='bitor(bitand(g(X,Y),248),4)':b='bitor(bitand(b(X,Y),248),4)',palettegen=reserve_transparent=1:stats_mode=single[p];[s1][p]paletteuse=dither=bayer:bayer_scale=3:new=1"
	pngFrameArgs   = []string{"-frames:v", "1", "-c:v", "png", "-pix_fmt", "rgba"}
	apngOutputArgs = []string{"-f", "apng", "-plays", "0"}
)

type imageFormat struct {
	codec   string
	encoder string
	pixFmt  string
}

var imageFormats = map[string]imageFormat{
	"png":  {codec: "png", encoder: "png", pixFmt: "rgba"},
	"jpg":  {codec: "mjpeg", encoder: "mjpeg"},
	"jpeg": {codec: "mjpeg", encoder: "mjpeg"},
	"webp": {codec: "webp", encoder: "libwebp"},
	"bmp":  {codec: "bmp", encoder: "bmp"},
	"tiff": {codec: "tiff", encoder: "tiff", pixFmt: "rgba"},
}

// SupportedImageFormat reports whether ExtractFrameImage can target format.
func SupportedImageFormat(format string) bool {
	_, ok := imageFormats[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// Decide maps an input to a Plan. It returns *UnsupportedConversionError when
// no conversion exists for the kind and intent.
func Decide(in DecisionInput) (Plan, error) {
	if in.CodecLocked {
		return passThrough("codec locked"), nil
	}

	switch in.Intent {
	case PlaybackNormalize:
		return decideNormalize(in, false)
	case ForceNormalize:
		return decideNormalize(in, true)
	case ExtractAudio:
		if in.Kind == mediakind.Audio || (in.Kind == mediakind.Video && in.AudioCodec != "") {
			return invoke("m4a", "strip video", "-vn", "-c:a", "aac"), nil
		}
	case ExtractFrameImage:
		if in.Kind.HasPicture() {
			return decideFrameImage(in)
		}
	case ToAnimatedContainer:
		if in.Kind.HasPicture() {
			plan := invoke("apng", "animated container", apngOutputArgs...)
			plan.LockOutput = true
			return plan, nil
		}
	case AnimatedToVideo:
		if in.Kind == mediakind.Video && in.VideoCodec == canonicalVideo {
			return passThrough("already h264 video"), nil
		}
		switch in.Kind {
		case mediakind.GIF, mediakind.AnimatedImage, mediakind.Video:
			// mp4 has no loop field; players loop gifv-style clips themselves.
			return invoke("mp4", "animated to mp4", animToMP4Args...), nil
		}
	case ToGIF:
		if in.Kind == mediakind.GIF {
			return passThrough("already gif"), nil
		}
		if in.Kind.HasPicture() {
			return gifPlan(in), nil
		}
	default:
		return Plan{}, services.Wrap(services.ErrValidation, "transcode", "decide", fmt.Sprintf("unknown intent %q", in.Intent), nil)
	}
	return Plan{}, &UnsupportedConversionError{Kind: in.Kind, Intent: in.Intent}
}

func decideNormalize(in DecisionInput, force bool) (Plan, error) {
	switch in.Kind {
	case mediakind.Video:
		if force {
			args := append(append(cloneArgs(h264Args), aacArgs...), mp4MuxArgs...)
			return invoke("mp4", "forced video re-encode", args...), nil
		}
		videoOK := in.VideoCodec == canonicalVideo
		audioOK := in.AudioCodec == "" || in.AudioCodec == canonicalAudio
		if videoOK && audioOK {
			return passThrough("video already h264/aac"), nil
		}
		var args []string
		if videoOK {
			args = append(args, "-c:v", "copy")
		} else {
			args = append(args, h264Args...)
		}
		if audioOK {
			args = append(args, "-c:a", "copy")
		} else {
			args = append(args, aacArgs...)
		}
		args = append(args, mp4MuxArgs...)
		return invoke("mp4", "video not canonical", args...), nil
	case mediakind.Audio:
		if !force && in.AudioCodec == canonicalAudio {
			return passThrough("audio already aac"), nil
		}
		return invoke("m4a", "audio not canonical", append([]string{"-vn"}, aacArgs...)...), nil
	case mediakind.Image:
		if !force && in.VideoCodec == canonicalImage {
			return passThrough("image already png"), nil
		}
		return invoke("png", "image not canonical", pngFrameArgs...), nil
	case mediakind.GIF, mediakind.AnimatedImage:
		return gifPlan(in), nil
	}
	intent := PlaybackNormalize
	if force {
		intent = ForceNormalize
	}
	return Plan{}, &UnsupportedConversionError{Kind: in.Kind, Intent: intent}
}

func decideFrameImage(in DecisionInput) (Plan, error) {
	format := strings.ToLower(strings.TrimSpace(in.ImageFormat))
	if format == "" {
		format = canonicalImage
	}
	target, ok := imageFormats[format]
	if !ok {
		return Plan{}, services.Wrap(services.ErrValidation, "transcode", "decide", fmt.Sprintf("unsupported image format %q", in.ImageFormat), nil)
	}
	args := []string{"-frames:v", "1"}
	if in.VideoCodec == target.codec {
		args = append(args, "-c:v", "copy")
	} else {
		args = append(args, "-c:v", target.encoder)
		if target.pixFmt != "" {
			args = append(args, "-pix_fmt", target.pixFmt)
		}
	}
	return invoke(format, "single frame", args...), nil
}

func gifPlan(in DecisionInput) Plan {
	vf := gifPaletteVF
	if in.FrameRate > gifFPSCap {
		vf = "fps=fps=" + strconv.Itoa(gifFPSCap) + "," + vf
	}
	return invoke("gif", "palette gif",
		"-gifflags", "-transdiff",
		"-loop", strconv.Itoa(in.LoopCount),
		"-vf", vf,
		"-fps_mode", "vfr",
	)
}

func cloneArgs(args []string) []string {
	return append([]string(nil), args...)
}

package transcode

// Intent names what the caller wants out of a conversion.
type Intent string

const (
	// PlaybackNormalize converts to the canonical codec for the kind, passing
	// through files that already comply.
	PlaybackNormalize Intent = "playback_normalize"
	// ForceNormalize targets the same codecs but always re-encodes.
	ForceNormalize      Intent = "force_normalize"
	ExtractAudio        Intent = "extract_audio"
	ExtractFrameImage   Intent = "extract_frame_image"
	ToAnimatedContainer Intent = "to_animated_container"
	AnimatedToVideo     Intent = "animated_to_video"
	ToGIF               Intent = "to_gif"
)

func (i Intent) String() string { return string(i) }

// ParseIntent accepts the snake_case intent names.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(raw) {
	case PlaybackNormalize, ForceNormalize, ExtractAudio, ExtractFrameImage,
		ToAnimatedContainer, AnimatedToVideo, ToGIF:
		return Intent(raw), true
	default:
		return "", false
	}
}

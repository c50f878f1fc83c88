package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"mediaforge/internal/logging"
	"mediaforge/internal/media/ffprobe"
	"mediaforge/internal/media/mediakind"
	"mediaforge/internal/metrics"
	"mediaforge/internal/services"
	"mediaforge/internal/tempfiles"
)

// Prober is the subset of ffprobe.Prober the engine needs.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
	CountFrames(ctx context.Context, path string) (int, error)
}

// Operation names used in logs, metrics and errors.
const (
	OpReencodeForPlayback = "reencode_for_playback"
	OpForceReencode       = "force_reencode"
	OpToAudio             = "to_audio"
	OpToImage             = "to_image"
	OpToAnimatedImage     = "to_animated_image"
	OpGifToVideo          = "gif_to_video"
	OpVideoToGif          = "video_to_gif"
	OpFrameAt             = "frame_at"
)

// Engine sequences probing, Decide and ffmpeg into named operations.
type Engine struct {
	prober  Prober
	encoder Encoder
	files   tempfiles.Reserver
	jobs    *semaphore.Weighted
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEncoder replaces the ffmpeg runner.
func WithEncoder(enc Encoder) Option {
	return func(e *Engine) {
		if enc != nil {
			e.encoder = enc
		}
	}
}

// WithMaxConcurrentJobs bounds concurrent encoder runs (default 2).
func WithMaxConcurrentJobs(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.jobs = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds an Engine that reserves outputs from files.
func NewEngine(prober Prober, files tempfiles.Reserver, opts ...Option) *Engine {
	e := &Engine{
		prober:  prober,
		encoder: FFmpeg{},
		files:   files,
		jobs:    semaphore.NewWeighted(2),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "transcode")
	return e
}

// WithFiles returns an engine that reserves outputs from files, typically a
// per-request session, while sharing the job limit.
func (e *Engine) WithFiles(files tempfiles.Reserver) *Engine {
	clone := *e
	clone.files = files
	return &clone
}

// ReencodeForPlayback converts in to the canonical codec for its kind unless
// it already complies.
func (e *Engine) ReencodeForPlayback(ctx context.Context, in *tempfiles.File) (*tempfiles.File, error) {
	return e.convert(ctx, OpReencodeForPlayback, in, DecisionInput{Intent: PlaybackNormalize})
}

// ForceReencode always produces a freshly encoded canonical file.
func (e *Engine) ForceReencode(ctx context.Context, in *tempfiles.File) (*tempfiles.File, error) {
	return e.convert(ctx, OpForceReencode, in, DecisionInput{Intent: ForceNormalize})
}

// ToAudio strips video and encodes the audio to AAC.
func (e *Engine) ToAudio(ctx context.Context, in *tempfiles.File) (*tempfiles.File, error) {
	return e.convert(ctx, OpToAudio, in, DecisionInput{Intent: ExtractAudio})
}

// ToImage extracts the first frame as format (png when empty).
func (e *Engine) ToImage(ctx context.Context, in *tempfiles.File, format string) (*tempfiles.File, error) {
	return e.convert(ctx, OpToImage, in, DecisionInput{Intent: ExtractFrameImage, ImageFormat: format})
}

// ToAnimatedImage converts to an infinitely looping APNG. The result is codec
// locked.
func (e *Engine) ToAnimatedImage(ctx context.Context, in *tempfiles.File) (*tempfiles.File, error) {
	return e.convert(ctx, OpToAnimatedImage, in, DecisionInput{Intent: ToAnimatedContainer})
}

// GifToVideo converts an animated input to an mp4.
func (e *Engine) GifToVideo(ctx context.Context, in *tempfiles.File) (*tempfiles.File, error) {
	return e.convert(ctx, OpGifToVideo, in, DecisionInput{Intent: AnimatedToVideo})
}

// VideoToGif converts a picture input to a palette GIF that keeps the
// source's loop count.
func (e *Engine) VideoToGif(ctx context.Context, in *tempfiles.File) (*tempfiles.File, error) {
	return e.convert(ctx, OpVideoToGif, in, DecisionInput{Intent: ToGIF})
}

// Convert runs the operation for intent. It backs the CLI's --op flag.
func (e *Engine) Convert(ctx context.Context, in *tempfiles.File, intent Intent, imageFormat string) (*tempfiles.File, error) {
	return e.convert(ctx, string(intent), in, DecisionInput{Intent: intent, ImageFormat: imageFormat})
}

// FrameAt extracts frame n (-1 for the last) into a lossless ffv1 mkv.
func (e *Engine) FrameAt(ctx context.Context, in *tempfiles.File, n int) (*tempfiles.File, error) {
	ctx = services.WithOperation(ctx, OpFrameAt)
	count, err := e.prober.CountFrames(ctx, in.Path())
	if err != nil {
		metrics.TranscodeTotal.WithLabelValues(OpFrameAt, metrics.OutcomeFailure).Inc()
		return nil, &TranscodeError{Operation: OpFrameAt, Err: err}
	}
	if n < -1 || n >= count {
		return nil, services.Wrap(services.ErrValidation, "transcode", OpFrameAt, fmt.Sprintf("frame %d does not exist (file has %d)", n, count), nil)
	}
	if n == -1 {
		n = count - 1
	}
	plan := invoke("mkv", "frame select",
		"-vf", "select='eq(n,"+strconv.Itoa(n)+")'",
		"-vframes", "1",
		"-c:v", "ffv1",
	)
	return e.execute(ctx, OpFrameAt, in, plan)
}

func (e *Engine) convert(ctx context.Context, op string, in *tempfiles.File, input DecisionInput) (*tempfiles.File, error) {
	if in == nil {
		return nil, services.Wrap(services.ErrValidation, "transcode", op, "nil input file", nil)
	}
	ctx = services.WithOperation(ctx, op)
	logger := logging.WithContext(ctx, e.logger)

	info, err := e.prober.Probe(ctx, in.Path())
	if err != nil {
		metrics.TranscodeTotal.WithLabelValues(op, metrics.OutcomeFailure).Inc()
		return nil, &TranscodeError{Operation: op, Err: err}
	}

	input.Kind = mediakind.Classify(info)
	input.VideoCodec = info.VideoCodec
	input.AudioCodec = info.AudioCodec
	input.CodecLocked = in.CodecLocked()
	input.FrameRate = info.FrameRate
	input.LoopCount = info.LoopCount

	plan, err := Decide(input)
	if err != nil {
		var unsupported *UnsupportedConversionError
		if errors.As(err, &unsupported) {
			metrics.TranscodeTotal.WithLabelValues(op, metrics.OutcomeUnsupported).Inc()
		}
		return nil, err
	}

	result := "invoke"
	if plan.PassThrough {
		result = "pass_through"
	}
	logger.Debug("transcode decision", logging.Args(append(
		logging.DecisionAttrs("transcode_plan", result, plan.Reason),
		logging.String("kind", input.Kind.String()),
		logging.String("video_codec", input.VideoCodec),
		logging.String("audio_codec", input.AudioCodec),
	)...)...)

	if plan.PassThrough {
		metrics.TranscodeTotal.WithLabelValues(op, metrics.OutcomePassThrough).Inc()
		return in, nil
	}
	return e.execute(ctx, op, in, plan)
}

// execute reserves the output, runs exactly one encoder invocation and
// releases the output again on any failure.
func (e *Engine) execute(ctx context.Context, op string, in *tempfiles.File, plan Plan) (*tempfiles.File, error) {
	logger := logging.WithContext(ctx, e.logger)

	if err := e.jobs.Acquire(ctx, 1); err != nil {
		return nil, &TranscodeError{Operation: op, Err: err}
	}
	defer e.jobs.Release(1)

	out := e.files.Reserve(plan.OutputExt)
	args := make([]string, 0, len(plan.Args)+6)
	args = append(args, "-hide_banner", "-y", "-i", in.Path())
	args = append(args, plan.Args...)
	args = append(args, out.Path())

	metrics.TranscodeJobsInProgress.Inc()
	start := time.Now()
	stderr, err := e.encoder.Run(ctx, args)
	elapsed := time.Since(start)
	metrics.TranscodeJobsInProgress.Dec()
	metrics.TranscodeDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	if err == nil {
		if st, statErr := os.Stat(out.Path()); statErr != nil || st.Size() == 0 {
			err = errors.New("encoder produced no output")
		}
	}
	if err != nil {
		e.files.Release(out)
		metrics.TranscodeTotal.WithLabelValues(op, metrics.OutcomeFailure).Inc()
		logging.ErrorWithContext(logger, "ffmpeg invocation failed", "transcode_failed",
			logging.String("input", in.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run with --log-level debug to see the full ffmpeg arguments"),
		)
		return nil, &TranscodeError{Operation: op, Stderr: stderr, Err: err}
	}

	if plan.LockOutput {
		out.Lock()
	}
	metrics.TranscodeTotal.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
	logger.Info("transcode finished",
		logging.String("input", in.Path()),
		logging.String("output", out.Path()),
		logging.Duration("elapsed", elapsed),
		logging.Bool("codec_locked", out.CodecLocked()),
	)
	return out, nil
}

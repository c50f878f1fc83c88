package ffprobe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"mediaforge/internal/logging"
	"mediaforge/internal/metrics"
)

// InspectFunc runs a full stream/format probe.
type InspectFunc func(ctx context.Context, binary, path string) (Result, error)

// CountFunc counts the frames of the first video stream.
type CountFunc func(ctx context.Context, binary, path string) (int, error)

// Prober answers media queries with at most one ffprobe run per file
// identity. Identity is path plus modification time plus size; managed files
// are written once, so entries are never invalidated. Failures are not cached.
type Prober struct {
	binary  string
	inspect InspectFunc
	count   CountFunc
	logger  *slog.Logger

	mu     sync.RWMutex
	infos  map[fileKey]Info
	frames map[fileKey]int
	group  singleflight.Group
}

type fileKey struct {
	path    string
	modTime int64
	size    int64
}

func (k fileKey) String() string {
	return fmt.Sprintf("%s|%d|%d", k.path, k.modTime, k.size)
}

// Option configures a Prober.
type Option func(*Prober)

// WithInspector replaces the ffprobe stream/format query.
func WithInspector(fn InspectFunc) Option {
	return func(p *Prober) {
		if fn != nil {
			p.inspect = fn
		}
	}
}

// WithFrameCounter replaces the ffprobe packet count query.
func WithFrameCounter(fn CountFunc) Option {
	return func(p *Prober) {
		if fn != nil {
			p.count = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a Prober that runs binary (default "ffprobe").
func NewProber(binary string, opts ...Option) *Prober {
	p := &Prober{
		binary:  strings.TrimSpace(binary),
		inspect: Inspect,
		count:   CountPackets,
		logger:  logging.NewNop(),
		infos:   make(map[fileKey]Info),
		frames:  make(map[fileKey]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "ffprobe")
	return p
}

func identify(path string) (fileKey, error) {
	st, err := os.Stat(path)
	if err != nil {
		return fileKey{}, &ProbeError{Path: path, Err: err}
	}
	return fileKey{path: path, modTime: st.ModTime().UnixNano(), size: st.Size()}, nil
}

// Probe returns the cached Info for path, probing it on first use.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	key, err := identify(path)
	if err != nil {
		return Info{}, err
	}
	if info, ok := p.cachedInfo(key); ok {
		metrics.ProbeCacheHits.Inc()
		return info, nil
	}

	runCtx := context.WithoutCancel(ctx)
	v, err := p.shared(ctx, "probe|"+key.String(), func() (any, error) {
		if info, ok := p.cachedInfo(key); ok {
			return info, nil
		}
		result, err := p.inspect(runCtx, p.binary, path)
		if err != nil {
			metrics.ProbeInvocations.WithLabelValues("probe", "error").Inc()
			return nil, err
		}
		metrics.ProbeInvocations.WithLabelValues("probe", "success").Inc()
		info := p.enrich(path, NewInfo(result))

		p.mu.Lock()
		if existing, ok := p.infos[key]; ok {
			info = existing
		} else {
			p.infos[key] = info
		}
		p.mu.Unlock()

		p.logger.Debug("probed media",
			logging.String("path", path),
			logging.String("video_codec", info.VideoCodec),
			logging.String("audio_codec", info.AudioCodec),
			logging.String("format", info.FormatName),
		)
		return info, nil
	})
	if err != nil {
		return Info{}, err
	}
	return v.(Info), nil
}

// shared runs fn once per key across concurrent callers. The run itself is
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx ends.
func (p *Prober) shared(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	select {
	case res := <-p.group.DoChan(key, fn):
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Prober) cachedInfo(key fileKey) (Info, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info, ok := p.infos[key]
	return info, ok
}

// enrich adds facts ffprobe's JSON does not carry. Container parse failures
// only cost precision, so they are logged rather than returned.
func (p *Prober) enrich(path string, info Info) Info {
	switch info.VideoCodec {
	case "apng":
		timing, err := ReadAPNGTiming(path)
		if err != nil {
			p.logger.Debug("apng timing unavailable", logging.String("path", path), logging.Error(err))
			return info
		}
		info.applyAPNG(timing)
	case "gif":
		loop, err := ReadGIFLoopCount(path)
		if err != nil {
			p.logger.Debug("gif loop count unavailable", logging.String("path", path), logging.Error(err))
			return info
		}
		info.LoopCount = loop
	}
	return info
}

// Duration returns the playback length in seconds (0 when unknown).
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	info, err := p.Probe(ctx, path)
	return info.Duration, err
}

// FrameRate returns frames per second of the primary video stream.
func (p *Prober) FrameRate(ctx context.Context, path string) (float64, error) {
	info, err := p.Probe(ctx, path)
	return info.FrameRate, err
}

// Resolution returns display width and height, swapped for 90/270 rotation.
func (p *Prober) Resolution(ctx context.Context, path string) (int, int, error) {
	info, err := p.Probe(ctx, path)
	return info.Width, info.Height, err
}

// VideoCodec returns the primary video codec, or "" for audio-only files.
func (p *Prober) VideoCodec(ctx context.Context, path string) (string, error) {
	info, err := p.Probe(ctx, path)
	return info.VideoCodec, err
}

// AudioCodec returns the first audio codec, or "" when there is no audio.
func (p *Prober) AudioCodec(ctx context.Context, path string) (string, error) {
	info, err := p.Probe(ctx, path)
	return info.AudioCodec, err
}

// BothCodecs returns the video and audio codecs from one probe.
func (p *Prober) BothCodecs(ctx context.Context, path string) (string, string, error) {
	info, err := p.Probe(ctx, path)
	return info.VideoCodec, info.AudioCodec, err
}

func (p *Prober) HasAudio(ctx context.Context, path string) (bool, error) {
	info, err := p.Probe(ctx, path)
	return info.HasAudio(), err
}

// LoopCount returns the loop count in ffmpeg -loop terms.
func (p *Prober) LoopCount(ctx context.Context, path string) (int, error) {
	info, err := p.Probe(ctx, path)
	return info.LoopCount, err
}

func (p *Prober) IsAPNG(ctx context.Context, path string) (bool, error) {
	info, err := p.Probe(ctx, path)
	return info.VideoCodec == "apng", err
}

// CountFrames counts video packets with a dedicated ffprobe run, cached
// separately from Probe.
func (p *Prober) CountFrames(ctx context.Context, path string) (int, error) {
	key, err := identify(path)
	if err != nil {
		return 0, err
	}
	p.mu.RLock()
	n, ok := p.frames[key]
	p.mu.RUnlock()
	if ok {
		metrics.ProbeCacheHits.Inc()
		return n, nil
	}

	runCtx := context.WithoutCancel(ctx)
	v, err := p.shared(ctx, "count|"+key.String(), func() (any, error) {
		p.mu.RLock()
		n, ok := p.frames[key]
		p.mu.RUnlock()
		if ok {
			return n, nil
		}
		n, err := p.count(runCtx, p.binary, path)
		if err != nil {
			metrics.ProbeInvocations.WithLabelValues("count_frames", "error").Inc()
			return nil, err
		}
		metrics.ProbeInvocations.WithLabelValues("count_frames", "success").Inc()
		p.mu.Lock()
		p.frames[key] = n
		p.mu.Unlock()
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prober metrics
var (
	ProbeInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaforge_probe_invocations_total",
			Help: "Total number of ffprobe executions",
		},
		[]string{"query", "status"},
	)

	ProbeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaforge_probe_cache_hits_total",
			Help: "Probe requests answered from the per-file cache",
		},
	)
)

// Transcode metrics
var (
	TranscodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaforge_transcode_operations_total",
			Help: "Transcode engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaforge_transcode_duration_seconds",
			Help:    "ffmpeg invocation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	TranscodeJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaforge_transcode_jobs_in_progress",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Resolver metrics
var (
	ResolverCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaforge_resolver_candidates_total",
			Help: "Media candidates found by source",
		},
		[]string{"source"},
	)

	ResolverMessagesVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaforge_resolver_messages_visited_total",
			Help: "Chat messages inspected while searching for media",
		},
	)

	GifHostLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaforge_gifhost_lookups_total",
			Help: "GIF host permalink resolutions by outcome",
		},
		[]string{"outcome"},
	)
)

// Ledger metrics
var (
	LedgerLiveFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaforge_ledger_live_files",
			Help: "Managed temporary files currently registered",
		},
	)

	LedgerSweptFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaforge_ledger_swept_files_total",
			Help: "Leftover files removed from the temp directory by sweeps",
		},
	)
)

// Outcome label values shared by the engine and the resolver.
const (
	OutcomePassThrough = "pass_through"
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnsupported = "unsupported"
	OutcomeIndirect    = "indirect"
)

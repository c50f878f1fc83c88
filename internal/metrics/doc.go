// Package metrics provides Prometheus instrumentation for mediaforge.
//
// All collectors are registered on the default registry through promauto and
// prefixed with "mediaforge_". The CLI is short-lived, so instead of serving
// /metrics it flushes the default gatherer to a node-exporter textfile after
// each run (see WriteTextfile).
//
// # Metric Categories
//
// Prober:
//   - ProbeInvocations: ffprobe executions by query (probe, count_frames) and status
//   - ProbeCacheHits: Probe calls answered from the cache
//
// Transcode:
//   - TranscodeTotal: engine operations by operation and outcome
//     (pass_through, success, failure, unsupported)
//   - TranscodeDuration: ffmpeg wall time by operation
//   - TranscodeJobsInProgress: ffmpeg processes currently running
//
// Resolver:
//   - ResolverCandidates: candidates emitted by source
//   - ResolverMessagesVisited: messages inspected
//   - GifHostLookups: Tenor resolutions by outcome
//
// Ledger:
//   - LedgerLiveFiles: managed files currently registered
//   - LedgerSweptFiles: leftovers removed by sweeps
package metrics

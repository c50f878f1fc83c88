package config

const (
	defaultTempDir                = "~/.cache/mediaforge/tmp"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultTenorBaseURL           = "https://tenor.googleapis.com/v2"
	defaultTenorTimeoutSeconds    = 10
	defaultHistoryLimit           = 50
	defaultMaxCount               = 10
	defaultMaxConcurrentChecks    = 8
	defaultMaxEmbedBytes          = 0
	defaultMaxConcurrentJobs      = 2
	defaultFetchMaxBytes          = 100 << 20
	defaultFetchTimeoutSeconds    = 60
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	maxHistoryLimit               = 1000
	defaultConfigRelativeLocation = "~/.config/mediaforge/config.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir: defaultTempDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Tenor: Tenor{
			BaseURL:        defaultTenorBaseURL,
			TimeoutSeconds: defaultTenorTimeoutSeconds,
		},
		Resolver: Resolver{
			HistoryLimit:        defaultHistoryLimit,
			MaxCount:            defaultMaxCount,
			MaxConcurrentChecks: defaultMaxConcurrentChecks,
			MaxEmbedBytes:       defaultMaxEmbedBytes,
		},
		Transcode: Transcode{
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
		},
		Fetch: Fetch{
			MaxBytes:       defaultFetchMaxBytes,
			TimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

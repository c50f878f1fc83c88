package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediaforge/internal/config"
	"mediaforge/internal/logging"
	"mediaforge/internal/media/ffprobe"
	"mediaforge/internal/metrics"
	"mediaforge/internal/services"
	"mediaforge/internal/tempfiles"
	"mediaforge/internal/transcode"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
	sessionID  string
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.sessionID = uuid.NewString()
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, c.sessionID)
	})
	return c.logger, c.loggerErr
}

// toolchain bundles what a media command needs for one invocation.
type toolchain struct {
	cfg    *config.Config
	logger *slog.Logger
	ledger *tempfiles.Ledger
	prober *ffprobe.Prober
	engine *transcode.Engine
}

// withToolchain opens the ledger, runs fn, then closes the ledger and flushes
// the metrics textfile whether or not fn succeeded.
func (c *commandContext) withToolchain(cmd *cobra.Command, fn func(context.Context, *toolchain) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	metrics.InitializeMetrics()

	ctx := services.WithRequestID(cmd.Context(), c.sessionID)
	ctx = services.WithOperation(ctx, cmd.Name())

	ledger, err := tempfiles.Open(cfg.Paths.TempDir, logger)
	if err != nil {
		return fmt.Errorf("open temp ledger: %w", err)
	}
	prober := ffprobe.NewProber(cfg.FFprobeBinary(), ffprobe.WithLogger(logger))
	engine := transcode.NewEngine(prober, ledger,
		transcode.WithEncoder(transcode.FFmpeg{Binary: cfg.FFmpegBinary()}),
		transcode.WithMaxConcurrentJobs(cfg.Transcode.MaxConcurrentJobs),
		transcode.WithLogger(logger),
	)

	defer func() {
		closeErr := ledger.Close(context.WithoutCancel(ctx))
		metricsErr := metrics.WriteTextfile(cfg.Metrics.TextfilePath)
		if metricsErr != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.Error(metricsErr),
				logging.String(logging.FieldImpact, "node exporter will show stale values"),
			)
		}
		err = errors.Join(err, closeErr)
	}()

	return fn(ctx, &toolchain{
		cfg:    cfg,
		logger: logger,
		ledger: ledger,
		prober: prober,
		engine: engine,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

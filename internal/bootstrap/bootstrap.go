// Package bootstrap provides dependency initialization for the ATIS
// broadcast compiler.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/atis-broadcast/internal/compiler"
	"github.com/maauso/atis-broadcast/internal/config"
	"github.com/maauso/atis-broadcast/internal/job"
	"github.com/maauso/atis-broadcast/internal/metrics"
	"github.com/maauso/atis-broadcast/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	BroadcastService *job.Service
	Metrics          *metrics.Metrics
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.NewDefault()

	c := compiler.New(cfg.AudioDir,
		compiler.WithGap(cfg.Gap()),
		compiler.WithDelay(cfg.Delay()),
		compiler.WithTrimOpts(cfg.TrimOpts()),
		compiler.WithLogger(logger),
	)
	logger.Info("compiler configured",
		slog.String("audio_dir", c.AssetDir()),
		slog.Duration("gap", cfg.Gap()),
		slog.Duration("delay", cfg.Delay()),
	)

	svc := job.NewService(c, store, job.NewMemoryRepository(job.DefaultMemoryCapacity),
		job.WithMappingFile(cfg.MappingFile),
		job.WithMaxConcurrent(cfg.MaxConcurrentCompiles),
		job.WithMetrics(m),
		job.WithLogger(logger),
	)

	return &Dependencies{
		BroadcastService: svc,
		Metrics:          m,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.OutputDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("output_dir", localStore.Root()),
	)
	return localStore, nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"s3purge/internal/config"
	"s3purge/internal/metrics"
	"s3purge/internal/purge"
	"s3purge/internal/service"
	"s3purge/internal/storage"
)

var version = "0.1.0-dev"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	app := newApp(logger)
	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}

func newApp(logger *logrus.Logger) *cli.App {
	return &cli.App{
		Name:    "s3purge",
		Usage:   "Delete every object, version and delete marker under a bucket prefix",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to a config file (default ./s3purge.yaml if present)"},
			&cli.StringFlag{Name: "env-file", Usage: "Dotenv file to load before reading the environment", Value: ".env"},
			&cli.StringFlag{Name: "bucket", Aliases: []string{"b"}, Usage: "Bucket to purge (S3_BUCKET)"},
			&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "Only purge keys under this prefix (S3_FOLDER)"},
			&cli.StringFlag{Name: "endpoint", Usage: "S3-compatible endpoint URL (S3_ENDPOINT)"},
			&cli.StringFlag{Name: "region", Usage: "Bucket region (S3_REGION)"},
			&cli.BoolFlag{Name: "skip-ssl-verify", Usage: "Skip TLS certificate verification (S3_SKIP_SSL_VERIFY)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be deleted without deleting (DRY_RUN)"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation (REQUIRE_CONFIRMATION=false)"},
			&cli.IntFlag{Name: "workers", Usage: "Delete batches in flight at once (PURGE_WORKERS)"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (LOG_LEVEL)"},
			&cli.StringFlag{Name: "metrics-file", Usage: "Write Prometheus textfile metrics here after the run (METRICS_FILE)"},
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}
}

// flagOverrides maps explicitly set flags onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	strs := map[string]string{
		"bucket":       "s3.bucket",
		"prefix":       "s3.folder",
		"endpoint":     "s3.endpoint",
		"region":       "s3.region",
		"log-level":    "log.level",
		"metrics-file": "metrics.file",
	}
	for flag, key := range strs {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	if c.IsSet("skip-ssl-verify") {
		overrides["s3.skip_ssl_verify"] = c.Bool("skip-ssl-verify")
	}
	if c.IsSet("dry-run") {
		overrides["dry_run"] = c.Bool("dry-run")
	}
	if c.IsSet("yes") && c.Bool("yes") {
		overrides["require_confirmation"] = false
	}
	if c.IsSet("workers") {
		overrides["purge.workers"] = c.Int("workers")
	}
	return overrides
}

func run(c *cli.Context, logger *logrus.Logger) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: c.String("config"),
		DotEnv:     []string{c.String("env-file")},
		Overrides:  flagOverrides(c),
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := configureLogger(logger, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.WithField("run_id", uuid.NewString())

	client, err := storage.NewS3Client(ctx, storage.ClientOptions{
		Bucket:        cfg.S3.Bucket,
		Endpoint:      cfg.S3.Endpoint,
		Region:        cfg.S3.Region,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		SkipSSLVerify: cfg.S3.SkipSSLVerify,
		PathStyle:     cfg.UsePathStyle(),
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	m := metrics.New()
	svc := service.NewPurgeService(cfg.RunConfig(), storage.NewS3Store(client), service.Options{
		Logger:    log,
		Confirmer: service.PromptConfirmer{In: os.Stdin, Out: os.Stdout},
		Observer:  m,
		Workers:   cfg.Purge.Workers,
	})

	report, runErr := svc.Run(ctx)
	if cfg.Metrics.File != "" {
		m.MarkFinished(time.Now())
		if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
			log.Warnf("metrics: %v", err)
		}
	}
	if runErr != nil {
		if purge.IsCanceled(runErr) {
			log.Warn("interrupted; batches already submitted stay deleted")
		}
		return runErr
	}

	log.WithField("outcome", report.Outcome).Debug("done")
	return nil
}

func configureLogger(logger *logrus.Logger, cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

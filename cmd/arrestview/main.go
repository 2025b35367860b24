// Package main implements the arrestview binary, an HTTP service that
// filters and summarizes yearly NYPD arrest partitions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arrestview/arrestview/internal/app"
	"github.com/arrestview/arrestview/internal/config"
	"github.com/arrestview/arrestview/internal/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		envFile     string
		dataDir     string
		env         string
		httpAddr    string
		storageType string
		bucket      string
		workers     int
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&env, "env", "", "Environment: prod, local, dev, docker")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	flag.StringVar(&storageType, "storage", "", "Storage type: local, s3")
	flag.StringVar(&bucket, "bucket", "", "S3 bucket holding the yearly partitions")
	flag.IntVar(&workers, "workers", 0, "Maximum concurrent partition loads")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "arrestview - NYPD arrest data query service\n\n")
		fmt.Fprintf(os.Stderr, "Usage: arrestview [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  arrestview --storage s3 --bucket 608project\n")
		fmt.Fprintf(os.Stderr, "  arrestview --config /etc/arrestview/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ARRESTVIEW_ENV            Environment (prod, local, dev, docker)\n")
		fmt.Fprintf(os.Stderr, "  ARRESTVIEW_HTTP_ADDR      HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  ARRESTVIEW_STORAGE_TYPE   Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  ARRESTVIEW_S3_BUCKET      S3 bucket name\n")
		fmt.Fprintf(os.Stderr, "  ARRESTVIEW_QUERY_WORKERS  Maximum concurrent partition loads\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("arrestview version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// A missing .env file is not an error.
	_ = godotenv.Load(envFile)

	cfg, err := loadConfig(configFile, dataDir, env, httpAddr, storageType, bucket, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting arrestview",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("env", cfg.Env),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("storage", cfg.Storage.Type),
	)

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to create application", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Fatal("failed to start application", zap.Error(err))
	}

	if err := application.WaitForShutdown(ctx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	if err := application.Stop(stopCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, env, httpAddr, storageType, bucket string, workers int) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	// Command line flags have the highest priority
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if env != "" {
		cfg.Env = env
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}
	if bucket != "" {
		cfg.Storage.S3.Bucket = bucket
	}
	if workers > 0 {
		cfg.Query.Workers = workers
	}

	return cfg, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gsdataset-go/internal/config"
	"gsdataset-go/internal/execrun"
	"gsdataset-go/internal/gobjaverse"
	"gsdataset-go/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		numObjects = flag.Int("num-objects", 1000, "Number of objects to keep from the index")
		category   = flag.String("category", "Daily-Used", "Index category, or all")
		saveDir    = flag.String("save-dir", "./gobjaverse_data", "Directory the downloader writes objects to")
		assumeYes  = flag.Bool("yes", false, "Skip the confirmation prompt")
		fetcher    = flag.String("fetcher", "http", "Index fetcher: http or wget")
		script     = flag.String("script", "download_gobjaverse_280k.py", "Path to the downloader script")
		threads    = flag.Int("threads", 16, "Worker threads passed to the downloader")
	)
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "num-objects":
			cfg.Gobjaverse.NumObjects = *numObjects
		case "category":
			cfg.Gobjaverse.Category = *category
		case "save-dir":
			cfg.Gobjaverse.SaveDir = *saveDir
		case "yes":
			cfg.Gobjaverse.AssumeYes = *assumeYes
		case "fetcher":
			cfg.Gobjaverse.Fetcher = *fetcher
		case "script":
			cfg.Gobjaverse.DownloadScript = *script
		case "threads":
			cfg.Gobjaverse.Threads = *threads
		}
	})
	if err := cfg.Gobjaverse.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()
	runner := execrun.ExecRunner{}
	var f gobjaverse.Fetcher = gobjaverse.NewHTTPFetcher(fs, true)
	if cfg.Gobjaverse.Fetcher == "wget" {
		f = gobjaverse.CommandFetcher{Runner: runner}
	}

	driver := &gobjaverse.Driver{
		Config:  cfg.Gobjaverse,
		Fs:      fs,
		Fetcher: f,
		Runner:  runner,
		In:      os.Stdin,
		Out:     os.Stdout,
		Logger:  logger,
	}
	if _, err := driver.Run(ctx); err != nil {
		if errors.Is(err, gobjaverse.ErrCancelled) {
			fmt.Fprintln(os.Stdout, "Cancelled.")
			return 0
		}
		var dlErr *gobjaverse.DownloadError
		if errors.As(err, &dlErr) {
			logger.Error("downloader failed", zap.Int("exit_code", dlErr.ExitCode))
			return 1
		}
		logger.Error("gobjaverse subset failed", zap.Error(err))
		return 1
	}
	return 0
}

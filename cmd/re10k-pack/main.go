package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gsdataset-go/internal/config"
	"gsdataset-go/internal/execrun"
	"gsdataset-go/internal/logging"
	"gsdataset-go/internal/metrics"
	"gsdataset-go/internal/pack"
	"gsdataset-go/internal/re10k"
	"gsdataset-go/internal/server"
	"gsdataset-go/internal/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		statusPort = flag.Int("status-port", 0, "Serve pack status on this port (0 disables)")
	)
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "status-port" {
			cfg.Pack.StatusPort = *statusPort
		}
	})
	if err := cfg.Pack.Validate(); err != nil {
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
	var sizer re10k.Sizer = re10k.WalkSizer{Fs: fs}
	if cfg.Pack.SizeMethod == "du" {
		sizer = re10k.DuSizer{Runner: execrun.ExecRunner{}}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	packer := &pack.Packer{
		Fs:      fs,
		Config:  cfg.Pack,
		Sizer:   sizer,
		Logger:  logger,
		Metrics: metrics.NewCollector(reg),
	}

	if cfg.Pack.StatusPort > 0 {
		events := make(chan types.PackEvent, 256)
		packer.Events = events
		srv := server.New(cfg.Pack, packer.Status, reg, logger)
		go func() {
			if err := srv.Run(ctx, events); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
	}

	results, err := packer.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("pack interrupted")
			return 1
		}
		logger.Error("pack failed", zap.Error(err))
		return 1
	}
	for _, res := range results {
		var total int64
		for _, c := range res.Chunks {
			total += c.Bytes
		}
		logger.Info("stage summary",
			zap.String("stage", res.Stage),
			zap.Int("scenes", res.Scenes),
			zap.Int("chunks", len(res.Chunks)),
			zap.String("scene_bytes", humanize.Bytes(uint64(total))),
			zap.Int("missing_images", len(res.MissingImages)),
			zap.Int("missing_metadata", len(res.MissingMetadata)),
		)
	}
	return 0
}

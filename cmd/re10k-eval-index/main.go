package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gsdataset-go/internal/config"
	"gsdataset-go/internal/evalindex"
	"gsdataset-go/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "", "Optional YAML config file")
		metadataDir = flag.String("metadata-dir", "", "Directory of per-scene metadata files")
		outputFile  = flag.String("output-file", "evaluation_index_subset.json", "Output JSON path")
		numContext  = flag.Int("num-context", 1, "Context views per scene")
		numTarget   = flag.Int("num-target", 3, "Target views per scene")
		seed        = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "metadata-dir":
			cfg.EvalIndex.MetadataDir = *metadataDir
		case "output-file":
			cfg.EvalIndex.OutputFile = *outputFile
		case "num-context":
			cfg.EvalIndex.NumContext = *numContext
		case "num-target":
			cfg.EvalIndex.NumTarget = *numTarget
		case "seed":
			cfg.EvalIndex.Seed = *seed
		}
	})
	if err := cfg.EvalIndex.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	fs := afero.NewOsFs()
	opts := evalindex.Options{
		NumContext: cfg.EvalIndex.NumContext,
		NumTarget:  cfg.EvalIndex.NumTarget,
		Seed:       cfg.EvalIndex.Seed,
	}
	index, err := evalindex.Generate(fs, cfg.EvalIndex.MetadataDir, opts, logger)
	if err != nil {
		if errors.Is(err, evalindex.ErrInvalidCounts) {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 2
		}
		logger.Error("generate evaluation index", zap.Error(err))
		return 1
	}
	if err := evalindex.Write(fs, cfg.EvalIndex.OutputFile, index); err != nil {
		logger.Error("write evaluation index", zap.Error(err))
		return 1
	}
	logger.Info("evaluation index saved",
		zap.Int("scenes", len(index)),
		zap.String("path", cfg.EvalIndex.OutputFile),
	)
	return 0
}

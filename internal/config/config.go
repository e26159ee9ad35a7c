package config

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Gobjaverse GobjaverseConfig `yaml:"gobjaverse" env:"GOBJAVERSE"`
	EvalIndex  EvalIndexConfig  `yaml:"eval_index" env:"EVAL_INDEX"`
	Pack       PackConfig       `yaml:"pack" env:"PACK"`
}

type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// console or json
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

type GobjaverseConfig struct {
	NumObjects   int    `yaml:"num_objects" env:"NUM_OBJECTS"`
	Category     string `yaml:"category" env:"CATEGORY"`
	SaveDir      string `yaml:"save_dir" env:"SAVE_DIR"`
	IndexBaseURL string `yaml:"index_base_url" env:"INDEX_BASE_URL"`
	// IndexDir receives the downloaded index and the truncated subset file.
	IndexDir  string `yaml:"index_dir" env:"INDEX_DIR"`
	SplitsDir string `yaml:"splits_dir" env:"SPLITS_DIR"`
	// Fetcher is "http" or "wget".
	Fetcher        string `yaml:"fetcher" env:"FETCHER"`
	Interpreter    string `yaml:"interpreter" env:"INTERPRETER"`
	DownloadScript string `yaml:"download_script" env:"DOWNLOAD_SCRIPT"`
	Threads        int    `yaml:"threads" env:"THREADS"`
	MiBPerObject   int    `yaml:"mib_per_object" env:"MIB_PER_OBJECT"`
	AssumeYes      bool   `yaml:"assume_yes" env:"ASSUME_YES"`
}

type EvalIndexConfig struct {
	MetadataDir string `yaml:"metadata_dir" env:"METADATA_DIR"`
	OutputFile  string `yaml:"output_file" env:"OUTPUT_FILE"`
	NumContext  int    `yaml:"num_context" env:"NUM_CONTEXT"`
	NumTarget   int    `yaml:"num_target" env:"NUM_TARGET"`
	Seed        int64  `yaml:"seed" env:"SEED"`
}

type PackConfig struct {
	ImageDir            string   `yaml:"image_dir" env:"IMAGE_DIR"`
	MetadataDir         string   `yaml:"metadata_dir" env:"METADATA_DIR"`
	OutputDir           string   `yaml:"output_dir" env:"OUTPUT_DIR"`
	Stages              []string `yaml:"stages" env:"STAGES"`
	TargetBytesPerChunk int64    `yaml:"target_bytes_per_chunk" env:"TARGET_BYTES_PER_CHUNK"`
	// SizeMethod is "walk" or "du".
	SizeMethod string `yaml:"size_method" env:"SIZE_METHOD"`
	StatusPort int    `yaml:"status_port" env:"STATUS_PORT"`
	Progress   bool   `yaml:"progress" env:"PROGRESS"`
}

func (c LogConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	switch c.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}
	return nil
}

func (c GobjaverseConfig) Validate() error {
	var errs []string
	if c.NumObjects <= 0 {
		errs = append(errs, "num_objects must be positive")
	}
	if c.Category == "" {
		errs = append(errs, "category is required")
	}
	if c.SaveDir == "" {
		errs = append(errs, "save_dir is required")
	}
	if c.Fetcher != "http" && c.Fetcher != "wget" {
		errs = append(errs, fmt.Sprintf("fetcher must be http or wget, got %q", c.Fetcher))
	}
	if c.DownloadScript == "" {
		errs = append(errs, "download_script is required")
	}
	if c.Threads <= 0 {
		errs = append(errs, "threads must be positive")
	}
	if c.MiBPerObject <= 0 {
		errs = append(errs, "mib_per_object must be positive")
	}
	return joinErrors(errs)
}

func (c EvalIndexConfig) Validate() error {
	var errs []string
	if c.MetadataDir == "" {
		errs = append(errs, "metadata_dir is required")
	}
	if c.OutputFile == "" {
		errs = append(errs, "output_file is required")
	}
	return joinErrors(errs)
}

func (c PackConfig) Validate() error {
	var errs []string
	if c.ImageDir == "" || c.MetadataDir == "" || c.OutputDir == "" {
		errs = append(errs, "image_dir, metadata_dir and output_dir are required")
	}
	if len(c.Stages) == 0 {
		errs = append(errs, "at least one stage is required")
	}
	if c.TargetBytesPerChunk <= 0 {
		errs = append(errs, "target_bytes_per_chunk must be positive")
	}
	if c.SizeMethod != "walk" && c.SizeMethod != "du" {
		errs = append(errs, fmt.Sprintf("size_method must be walk or du, got %q", c.SizeMethod))
	}
	if c.StatusPort < 0 || c.StatusPort > 65535 {
		errs = append(errs, "invalid status_port")
	}
	return joinErrors(errs)
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

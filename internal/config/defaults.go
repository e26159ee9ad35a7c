package config

const (
	DefaultIndexBaseURL        = "https://virutalbuy-public.oss-cn-hangzhou.aliyuncs.com/share/aigc3d"
	DefaultTargetBytesPerChunk = int64(1e8)
)

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stderr"},
		},
		Gobjaverse: GobjaverseConfig{
			NumObjects:     1000,
			Category:       "Daily-Used",
			SaveDir:        "./gobjaverse_data",
			IndexBaseURL:   DefaultIndexBaseURL,
			IndexDir:       ".",
			SplitsDir:      "json_files",
			Fetcher:        "http",
			Interpreter:    "python",
			DownloadScript: "download_gobjaverse_280k.py",
			Threads:        16,
			MiBPerObject:   36,
		},
		EvalIndex: EvalIndexConfig{
			OutputFile: "evaluation_index_subset.json",
			NumContext: 1,
			NumTarget:  3,
			Seed:       42,
		},
		Pack: PackConfig{
			ImageDir:            "/data/scene-rep/Real-Estate-10k",
			MetadataDir:         "/data/scene-rep/Real-Estate-10k/metadata",
			OutputDir:           "/data/scene-rep/Real-Estate-10k/re10k_pt",
			Stages:              []string{"train", "test"},
			TargetBytesPerChunk: DefaultTargetBytesPerChunk,
			SizeMethod:          "walk",
			Progress:            true,
		},
	}
}

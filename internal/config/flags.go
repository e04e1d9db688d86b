package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagPack      = flag.String("pack", "", "Resource pack directory or zip")
	flagDumpAtlas = flag.String("dump-atlas", "", "Write the packed atlas to this PNG file")
	flagWorkers   = flag.Int("workers", 0, "Meshing worker count")
	flagSeed      = flag.Int64("seed", 0, "Variant selection seed")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagPack != "" {
		cfg.Pack.Path = *flagPack
	}
	if *flagDumpAtlas != "" {
		cfg.Atlas.DumpPath = *flagDumpAtlas
	}
	if *flagWorkers > 0 {
		cfg.Meshing.Workers = *flagWorkers
	}
	if *flagSeed != 0 {
		cfg.Variants.Seed = *flagSeed
	}
}

package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagScene      = flag.String("scene", "", "Path to scene file (built-in scene when empty)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWidth      = flag.Int("width", 0, "Render width")
	flagHeight     = flag.Int("height", 0, "Render height")
	flagDepth      = flag.Int("depth", 0, "Maximum trace depth")
	flagIterations = flag.Int("iterations", -1, "Iteration cap (0 = unbounded)")
	flagWorkers    = flag.Int("workers", 0, "Worker goroutine count (0 = NumCPU)")
	flagOut        = flag.String("out", "", "Output PNG path (headless renderer)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// ScenePath returns the scene file path if provided via -scene.
func ScenePath() string {
	return *flagScene
}

// OutputPath returns the output PNG path if provided via -out.
func OutputPath() string {
	return *flagOut
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagDepth > 0 {
		cfg.Render.TraceDepth = *flagDepth
	}
	if *flagIterations >= 0 {
		cfg.Render.Iterations = *flagIterations
	}
	if *flagWorkers > 0 {
		cfg.Render.Workers = *flagWorkers
	}
}

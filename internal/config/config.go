// Package config handles renderer configuration loading and management.
package config

// Config holds all renderer settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Display DisplayConfig `yaml:"display"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds the path tracing parameters.
type RenderConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// TraceDepth is the maximum bounce count per path.
	TraceDepth int `yaml:"trace_depth"`

	// Iterations caps the progressive loop; 0 renders until quit
	// (viewer) and is invalid for the headless renderer.
	Iterations int `yaml:"iterations"`

	// RouletteAfter is the bounce count beyond which Russian roulette
	// applies. Negative disables roulette.
	RouletteAfter int `yaml:"roulette_after"`

	// DirectLight toggles per-bounce light sampling.
	DirectLight bool `yaml:"direct_light"`

	// Workers is the goroutine count for parallel steps; 0 uses NumCPU.
	Workers int `yaml:"workers"`
}

// CameraConfig overrides the scene file's lens parameters. Negative means
// "keep the scene's value".
type CameraConfig struct {
	Aperture      float64 `yaml:"aperture"`
	FocalDistance float64 `yaml:"focal_distance"`
}

// DisplayConfig holds the viewer window settings.
type DisplayConfig struct {
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// OutputConfig holds snapshot settings.
type OutputConfig struct {
	SnapshotDir    string `yaml:"snapshot_dir"`
	SnapshotPrefix string `yaml:"snapshot_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:         800,
			Height:        600,
			TraceDepth:    8,
			Iterations:    0,
			RouletteAfter: 2,
			DirectLight:   true,
			Workers:       0,
		},
		Camera: CameraConfig{
			Aperture:      -1,
			FocalDistance: -1,
		},
		Display: DisplayConfig{
			Title:      "Lumen",
			Fullscreen: false,
			VSync:      true,
		},
		Output: OutputConfig{
			SnapshotDir:    "snapshots",
			SnapshotPrefix: "lumen",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

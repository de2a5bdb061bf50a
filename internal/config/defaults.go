package config

import (
	"path/filepath"
	"time"
)

// DefaultConfig returns the settings used when nothing else is given
func DefaultConfig() *Config {
	return &Config{
		DocumentsDir:     filepath.Join("internal", "scenarios"),
		OutputDir:        "output",
		Width:            1280,
		Height:           720,
		FPS:              30,
		SegmentSeconds:   2,
		BackgroundVolume: 0.3,
		PreviewEvery:     1,
		PreviewFormat:    "png",
		FocusDetector:    "contrast",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Namespace: "motionreel",
		},
		Storage: StorageConfig{
			Region:     "auto",
			Prefix:     "renders",
			LinkExpiry: 24 * time.Hour,
		},
		MediaGen: MediaGenConfig{
			BaseURL:       "http://localhost:8000",
			RatePerSecond: 2,
			Timeout:       5 * time.Minute,
		},
	}
}

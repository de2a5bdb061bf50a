package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config holds everything the render pipeline needs
type Config struct {
	DocumentPath string `yaml:"document" env:"DOCUMENT"`
	DocumentsDir string `yaml:"documents_dir" env:"DOCUMENTS_DIR"`
	OutputVideo  string `yaml:"output" env:"OUTPUT"`
	OutputDir    string `yaml:"output_dir" env:"OUTPUT_DIR"`

	Width   int    `yaml:"width" env:"WIDTH"`
	Height  int    `yaml:"height" env:"HEIGHT"`
	FPS     int    `yaml:"fps" env:"FPS"`
	Preset  string `yaml:"preset" env:"PRESET"`   // 16:9, 9:16, 4:5
	Workers int    `yaml:"workers" env:"WORKERS"` // 0 sizes the pool from cpu and memory

	// SegmentSeconds is how much video each encoder process gets
	SegmentSeconds float64 `yaml:"segment_seconds" env:"SEGMENT_SECONDS"`
	VideoEncoder   string  `yaml:"video_encoder" env:"VIDEO_ENCODER"` // empty probes ffmpeg
	Quality        int     `yaml:"quality" env:"QUALITY"`             // 0 picks the encoder default

	BackgroundAudio  string  `yaml:"background_audio" env:"BACKGROUND_AUDIO"`
	BackgroundVolume float64 `yaml:"background_volume" env:"BACKGROUND_VOLUME"`

	PreviewDir    string `yaml:"preview_dir" env:"PREVIEW_DIR"` // stills instead of video when set
	PreviewEvery  int    `yaml:"preview_every" env:"PREVIEW_EVERY"`
	PreviewFormat string `yaml:"preview_format" env:"PREVIEW_FORMAT"` // png or bmp

	// FocusDetector names the analyzer variant used to find slide content
	FocusDetector string `yaml:"focus_detector" env:"FOCUS_DETECTOR"`

	ShowStats    bool   `yaml:"show_stats" env:"SHOW_STATS"`
	BuildVersion string `yaml:"-"`

	Log      LogConfig      `yaml:"log" env:"LOG"`
	Metrics  MetricsConfig  `yaml:"metrics" env:"METRICS"`
	Store    StoreConfig    `yaml:"store" env:"STORE"`
	Storage  StorageConfig  `yaml:"storage" env:"STORAGE"`
	MediaGen MediaGenConfig `yaml:"mediagen" env:"MEDIAGEN"`
}

// LogConfig selects the zap level and encoding
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // console or json
}

// MetricsConfig enables the prometheus endpoint
type MetricsConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"` // empty disables the endpoint
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// StoreConfig points at the sqlite snapshot database
type StoreConfig struct {
	Path string `yaml:"path" env:"PATH"` // empty disables snapshots
}

// StorageConfig configures the S3-compatible publisher
type StorageConfig struct {
	Endpoint        string        `yaml:"endpoint" env:"ENDPOINT"`
	Region          string        `yaml:"region" env:"REGION"`
	Bucket          string        `yaml:"bucket" env:"BUCKET"`
	Prefix          string        `yaml:"prefix" env:"PREFIX"`
	AccessKeyID     string        `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	LinkExpiry      time.Duration `yaml:"link_expiry" env:"LINK_EXPIRY"`
}

// Enabled reports whether rendered files should be uploaded
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// MediaGenConfig configures the media generation services client
type MediaGenConfig struct {
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	APIKey        string        `yaml:"api_key" env:"API_KEY"`
	RatePerSecond float64       `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// SegmentParams describes one encoder run
type SegmentParams struct {
	Width, Height int
	FPS           int
	FirstFrame    int
	Frames        int
	Encoder       string
	Quality       int
	Index         int
}

// Duration is the segment length in seconds
func (p SegmentParams) Duration() float64 {
	if p.FPS <= 0 {
		return 0
	}
	return float64(p.Frames) / float64(p.FPS)
}

// ApplyPreset overrides the frame size for the named aspect preset
func (c *Config) ApplyPreset() error {
	switch c.Preset {
	case "":
	case "16:9":
		c.Width, c.Height = 1280, 720
	case "9:16":
		c.Width, c.Height = 720, 1280
	case "4:5":
		c.Width, c.Height = 1080, 1350
	default:
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, c.Preset)
	}
	return nil
}

// SegmentFrames is the number of frames per encoder segment
func (c *Config) SegmentFrames() int {
	n := int(c.SegmentSeconds * float64(c.FPS))
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks the config after loading
func (c *Config) Validate() error {
	var errs []string

	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, "width and height must be positive")
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		errs = append(errs, "width and height must be even for yuv420p")
	}
	if c.FPS <= 0 {
		errs = append(errs, "fps must be positive")
	}
	if c.Workers < 0 {
		errs = append(errs, "workers must not be negative")
	}
	if c.SegmentSeconds <= 0 {
		errs = append(errs, "segment_seconds must be positive")
	}
	if c.BackgroundVolume < 0 || c.BackgroundVolume > 1 {
		errs = append(errs, "background_volume must be between 0 and 1")
	}
	if c.PreviewEvery < 1 {
		errs = append(errs, "preview_every must be at least 1")
	}
	switch c.PreviewFormat {
	case "png", "bmp":
	default:
		errs = append(errs, fmt.Sprintf("unknown preview_format %q", c.PreviewFormat))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.MediaGen.RatePerSecond < 0 {
		errs = append(errs, "mediagen rate_per_second must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, "png", cfg.PreviewFormat)
	assert.Equal(t, "contrast", cfg.FocusDetector)
	assert.NoError(t, cfg.Validate())

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 720, cfg.Height)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motionreel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fps: 25
width: 1920
height: 1080
storage:
  bucket: renders-bucket
mediagen:
  timeout: 30s
`), 0644))

	t.Setenv("MOTIONREEL_FPS", "60")
	t.Setenv("MOTIONREEL_STORAGE_PREFIX", "previews")
	t.Setenv("MOTIONREEL_MEDIAGEN_RATE_PER_SECOND", "0.5")
	t.Setenv("MOTIONREEL_SHOW_STATS", "true")
	t.Setenv("MOTIONREEL_FOCUS_DETECTOR", "sensitive")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, "renders-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "previews", cfg.Storage.Prefix)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, 0.5, cfg.MediaGen.RatePerSecond)
	assert.Equal(t, 30*time.Second, cfg.MediaGen.Timeout)
	assert.True(t, cfg.ShowStats)
	assert.Equal(t, "sensitive", cfg.FocusDetector)
	// untouched defaults survive
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: [1, 2"), 0644))
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("MOTIONREEL_WORKERS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"odd width", func(c *Config) { c.Width = 1281 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"loud background", func(c *Config) { c.BackgroundVolume = 2 }},
		{"preview format", func(c *Config) { c.PreviewFormat = "gif" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"segment", func(c *Config) { c.SegmentSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestPresetsAndSegments(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preset = "9:16"
	require.NoError(t, cfg.ApplyPreset())
	assert.Equal(t, 720, cfg.Width)
	assert.Equal(t, 1280, cfg.Height)

	cfg.Preset = "21:9"
	assert.ErrorIs(t, cfg.ApplyPreset(), ErrInvalidConfig)

	assert.Equal(t, 60, cfg.SegmentFrames())
	cfg.SegmentSeconds = 0.001
	assert.Equal(t, 1, cfg.SegmentFrames())

	p := SegmentParams{FPS: 30, Frames: 45}
	assert.Equal(t, 1.5, p.Duration())
	assert.Zero(t, SegmentParams{}.Duration())
}

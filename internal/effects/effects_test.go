package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionreel/internal/interp"
)

func TestApplyDefaults(t *testing.T) {
	tr := Apply(Cube, Config{})
	assert.Equal(t, 30, tr.Config.Duration)
	assert.Equal(t, "left", tr.Config.Direction)
	assert.Equal(t, interp.EaseInOut, tr.Config.Easing)
	assert.Equal(t, 0.5, tr.Config.Intensity)
	assert.Contains(t, tr.Shader, "transition(vec2 uv)")

	custom := Apply(Fade, Config{Duration: 12, Direction: "up", Intensity: 0.9, CustomShader: "void main() {}"})
	assert.Equal(t, 12, custom.Config.Duration)
	assert.Equal(t, "up", custom.Config.Direction)
	assert.Equal(t, 0.9, custom.Config.Intensity)
	assert.Equal(t, "void main() {}", custom.Shader)

	assert.Empty(t, Apply(Fade, Config{}).Shader)
}

func TestCatalog(t *testing.T) {
	all := List()
	assert.Len(t, all, 30)

	category, ok := Category(DipToBlack)
	require.True(t, ok)
	assert.Equal(t, "film", category)

	parsed, err := Parse(" Slide-Left ")
	require.NoError(t, err)
	assert.Equal(t, SlideLeft, parsed)

	_, err = Parse("teleport")
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	tr := Apply(Fade, Config{Duration: 10, Easing: interp.Linear})
	assert.Equal(t, 0.0, tr.Progress(100, 90))
	assert.Equal(t, 0.0, tr.Progress(100, 100))
	assert.InDelta(t, 0.5, tr.Progress(100, 105), 1e-9)
	assert.Equal(t, 1.0, tr.Progress(100, 140))

	eased := Apply(Fade, Config{Duration: 10})
	assert.InDelta(t, 0.5, eased.Progress(0, 5), 1e-9)
	assert.Less(t, eased.Progress(0, 2), 0.2)
}

package timeline

import (
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionreel/internal/interp"
)

func float(v float64) *float64 { return &v }

func newTestTimeline() Timeline {
	return New(Config{FPS: 30, DurationInFrames: 300}, WithIDs(NewCounterIDs()))
}

func TestNewTimeline(t *testing.T) {
	tl := New(Config{FPS: 30, DurationInFrames: 300})
	assert.Equal(t, DefaultTrackCount, tl.Config.TrackCount)
	assert.Empty(t, tl.Clips)
	assert.Empty(t, tl.Keyframes)
	assert.Equal(t, 0, tl.PlayheadFrame)

	tl = New(Config{FPS: 24, DurationInFrames: 10, TrackCount: 8})
	assert.Equal(t, 8, tl.Config.TrackCount)
}

func TestAddClipGeneratesUniqueIDs(t *testing.T) {
	tl := New(Config{FPS: 30, DurationInFrames: 300})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		var id string
		tl, id = AddClip(tl, ClipData{Kind: Video, StartFrame: i, EndFrame: i + 10})
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, tl.Clips, 50)
}

func TestAddClipDoesNotMutateInput(t *testing.T) {
	base := newTestTimeline()
	base, _ = AddClip(base, ClipData{Kind: Video, StartFrame: 0, EndFrame: 10})

	a, idA := AddClip(base, ClipData{Kind: Audio, StartFrame: 0, EndFrame: 20})
	b, idB := AddClip(base, ClipData{Kind: Text, StartFrame: 5, EndFrame: 15})

	assert.Len(t, base.Clips, 1)
	require.Len(t, a.Clips, 2)
	require.Len(t, b.Clips, 2)
	assert.Equal(t, idA, a.Clips[1].ID)
	assert.Equal(t, idB, b.Clips[1].ID)
	assert.Equal(t, Audio, a.Clips[1].Kind)
	assert.Equal(t, Text, b.Clips[1].Kind)
}

func TestAddClipAllowsOverlap(t *testing.T) {
	tl := newTestTimeline()
	tl, _ = AddClip(tl, ClipData{Track: 0, Kind: Video, StartFrame: 0, EndFrame: 100})
	tl, _ = AddClip(tl, ClipData{Track: 0, Kind: Video, StartFrame: 50, EndFrame: 150})
	assert.Len(t, tl.Clips, 2)
}

func TestAddClipKeepsInvertedBounds(t *testing.T) {
	tl := newTestTimeline()
	tl, id := AddClip(tl, ClipData{Kind: Video, StartFrame: 50, EndFrame: 10})
	clip, ok := tl.Clip(id)
	require.True(t, ok)
	assert.Equal(t, -40, clip.Duration())
	assert.ErrorIs(t, Validate(tl), ErrInvalidTimeline)
}

func TestTryAddClipRefusesEmptyRanges(t *testing.T) {
	base := newTestTimeline()

	for _, data := range []ClipData{
		{Kind: Video, StartFrame: 50, EndFrame: 10},
		{Kind: Video, StartFrame: 20, EndFrame: 20},
	} {
		out, id, ok := TryAddClip(base, data)
		assert.False(t, ok)
		assert.Empty(t, id)
		assert.True(t, out.Equal(base))
	}

	out, id, ok := TryAddClip(base, ClipData{Kind: Video, StartFrame: 0, EndFrame: 1})
	require.True(t, ok)
	clip, found := out.Clip(id)
	require.True(t, found)
	assert.Equal(t, 1, clip.Duration())
	assert.NoError(t, Validate(out))
}

func TestRemoveClipDropsKeyframes(t *testing.T) {
	tl := newTestTimeline()
	tl, keep := AddClip(tl, ClipData{Kind: Video, StartFrame: 0, EndFrame: 100})
	tl, drop := AddClip(tl, ClipData{Kind: Image, StartFrame: 0, EndFrame: 100})
	tl = AddKeyframe(tl, Keyframe{ClipID: keep, Property: "opacity", Frame: 0, Value: 0})
	tl = AddKeyframe(tl, Keyframe{ClipID: drop, Property: "x", Frame: 0, Value: 1})
	tl = AddKeyframe(tl, Keyframe{ClipID: keep, Property: "x", Frame: 10, Value: 5})
	tl = AddKeyframe(tl, Keyframe{ClipID: drop, Property: "x", Frame: 20, Value: 2})

	before := tl
	out, removed := TryRemoveClip(tl, drop)
	require.True(t, removed)

	require.Len(t, out.Clips, 1)
	assert.Equal(t, keep, out.Clips[0].ID)
	require.Len(t, out.Keyframes, 2)
	for _, k := range out.Keyframes {
		assert.Equal(t, keep, k.ClipID)
	}
	assert.Equal(t, "opacity", out.Keyframes[0].Property)
	assert.Equal(t, "x", out.Keyframes[1].Property)

	// the input snapshot is untouched
	assert.Len(t, before.Clips, 2)
	assert.Len(t, before.Keyframes, 4)
}

func TestRemoveUnknownClipIsNoop(t *testing.T) {
	tl := newTestTimeline()
	tl, _ = AddClip(tl, ClipData{Kind: Video, StartFrame: 0, EndFrame: 10})
	tl = AddKeyframe(tl, Keyframe{ClipID: "ghost", Property: "x", Frame: 1, Value: 1})

	out, removed := TryRemoveClip(tl, "missing")
	assert.False(t, removed)
	assert.True(t, out.Equal(tl))
	assert.True(t, RemoveClip(tl, "missing").Equal(tl))
}

func TestSplitClip(t *testing.T) {
	tl := newTestTimeline()
	tl, id := AddClip(tl, ClipData{
		Kind: Video, Src: "clip.mp4", StartFrame: 0, EndFrame: 100, TrimStart: 5,
		Volume: float(0.8), Label: "intro",
	})
	tl, other := AddClip(tl, ClipData{Kind: Audio, StartFrame: 0, EndFrame: 300})

	out, ok := TrySplitClip(tl, id, 40)
	require.True(t, ok)
	require.Len(t, out.Clips, 3)

	first := out.Clips[0]
	assert.Equal(t, id, first.ID)
	assert.Equal(t, 0, first.StartFrame)
	assert.Equal(t, 40, first.EndFrame)
	assert.Equal(t, 5, first.TrimStart)

	assert.Equal(t, other, out.Clips[1].ID)

	second := out.Clips[2]
	assert.NotEqual(t, id, second.ID)
	assert.NotEqual(t, other, second.ID)
	assert.Equal(t, 40, second.StartFrame)
	assert.Equal(t, 100, second.EndFrame)
	assert.Equal(t, 45, second.TrimStart)
	assert.Equal(t, "clip.mp4", second.Src)
	assert.Equal(t, "intro", second.Label)
	require.NotNil(t, second.Volume)
	assert.Equal(t, 0.8, *second.Volume)

	// original untouched
	assert.Equal(t, 100, tl.Clips[0].EndFrame)
	assert.Len(t, tl.Clips, 2)
}

func TestSplitClipNoops(t *testing.T) {
	tl := newTestTimeline()
	tl, id := AddClip(tl, ClipData{Kind: Video, StartFrame: 0, EndFrame: 100})

	for _, tc := range []struct {
		name string
		id   string
		at   int
	}{
		{"at start", id, 0},
		{"at end", id, 100},
		{"before start", id, -5},
		{"after end", id, 250},
		{"unknown clip", "nope", 50},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := TrySplitClip(tl, tc.id, tc.at)
			assert.False(t, ok)
			assert.True(t, out.Equal(tl))
			assert.Equal(t, tl, SplitClip(tl, tc.id, tc.at))
		})
	}
}

func TestSplitClipPartitionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("split halves partition the original interval", prop.ForAll(
		func(start, length, offset, trim int) bool {
			end := start + length
			at := start + 1 + offset%(length-1)

			tl := newTestTimeline()
			tl, id := AddClip(tl, ClipData{Kind: Video, StartFrame: start, EndFrame: end, TrimStart: trim})
			out, ok := TrySplitClip(tl, id, at)
			if !ok || len(out.Clips) != 2 {
				return false
			}
			first, second := out.Clips[0], out.Clips[1]
			return first.StartFrame == start &&
				first.EndFrame == at &&
				second.StartFrame == at &&
				second.EndFrame == end &&
				first.StartFrame < first.EndFrame &&
				second.StartFrame < second.EndFrame &&
				second.TrimStart == trim+(at-start) &&
				first.Duration()+second.Duration() == length
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(2, 500),
		gen.IntRange(0, 10000),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestAddKeyframeDefaultsEasing(t *testing.T) {
	tl := newTestTimeline()
	tl = AddKeyframe(tl, Keyframe{ClipID: "c", Property: "opacity", Frame: 0, Value: 1})
	tl = AddKeyframe(tl, Keyframe{ClipID: "c", Property: "opacity", Frame: 5, Value: 0, Easing: interp.Linear})

	assert.Equal(t, interp.EaseInOut, tl.Keyframes[0].Easing)
	assert.Equal(t, interp.Linear, tl.Keyframes[1].Easing)
	assert.Len(t, tl.KeyframesFor("c"), 2)
	assert.Empty(t, tl.KeyframesFor("other"))
}

func TestSetPlayheadAndLookup(t *testing.T) {
	tl := newTestTimeline()
	tl, id := AddClip(tl, ClipData{Kind: Text, StartFrame: 3, EndFrame: 9, Label: "hi"})
	moved := SetPlayhead(tl, 42)
	assert.Equal(t, 0, tl.PlayheadFrame)
	assert.Equal(t, 42, moved.PlayheadFrame)

	c, ok := moved.Clip(id)
	require.True(t, ok)
	assert.Equal(t, 6, c.Duration())
	_, ok = moved.Clip("missing")
	assert.False(t, ok)
}

func TestConcurrentReadersOfSnapshot(t *testing.T) {
	tl := newTestTimeline()
	tl, id := AddClip(tl, ClipData{Kind: Video, StartFrame: 0, EndFrame: 1000})
	snapshot := tl

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			local := snapshot
			for i := 1; i < 50; i++ {
				local = SplitClip(local, id, i*10+w)
				local, _ = AddClip(local, ClipData{Kind: Audio, StartFrame: i, EndFrame: i + 1})
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, snapshot.Clips, 1)
	assert.Equal(t, 1000, snapshot.Clips[0].EndFrame)
}

func TestCounterIDs(t *testing.T) {
	ids := NewCounterIDs()
	assert.Equal(t, "clip-1", ids.NextID())
	assert.Equal(t, "clip-2", ids.NextID())
}

func TestValidate(t *testing.T) {
	tl := newTestTimeline()
	tl, _ = AddClip(tl, ClipData{Kind: Video, StartFrame: 0, EndFrame: 10, Opacity: float(0.5)})
	require.NoError(t, Validate(tl))

	bad, _ := AddClip(tl, ClipData{Kind: Video, StartFrame: 10, EndFrame: 10})
	assert.ErrorIs(t, Validate(bad), ErrInvalidTimeline)

	bad, _ = AddClip(tl, ClipData{Kind: "hologram", StartFrame: 0, EndFrame: 10})
	assert.ErrorIs(t, Validate(bad), ErrInvalidTimeline)

	bad, _ = AddClip(tl, ClipData{Kind: Audio, StartFrame: 0, EndFrame: 10, Volume: float(1.5)})
	assert.ErrorIs(t, Validate(bad), ErrInvalidTimeline)

	dup := tl
	dup.Clips = append([]Clip{}, tl.Clips[0], tl.Clips[0])
	assert.ErrorIs(t, Validate(dup), ErrInvalidTimeline)

	assert.ErrorIs(t, Validate(New(Config{})), ErrInvalidTimeline)
}

func TestHistory(t *testing.T) {
	h := NewHistory(newTestTimeline(), 0)
	assert.False(t, h.CanUndo())

	var id string
	h = h.Apply(func(tl Timeline) Timeline {
		tl, id = AddClip(tl, ClipData{Kind: Video, StartFrame: 0, EndFrame: 100})
		return tl
	})
	h = h.Apply(func(tl Timeline) Timeline { return SplitClip(tl, id, 50) })
	require.Len(t, h.Present().Clips, 2)

	// no-op edits are not recorded
	h2 := h.Apply(func(tl Timeline) Timeline { return SplitClip(tl, id, 500) })
	assert.Equal(t, h, h2)

	h = h.Undo()
	assert.Len(t, h.Present().Clips, 1)
	assert.True(t, h.CanRedo())

	h = h.Undo()
	assert.Empty(t, h.Present().Clips)
	assert.False(t, h.CanUndo())
	assert.Equal(t, h, h.Undo())

	h = h.Redo().Redo()
	assert.Len(t, h.Present().Clips, 2)
	assert.False(t, h.CanRedo())

	// a new edit after undo drops the redo branch
	h = h.Undo().Apply(func(tl Timeline) Timeline { return RemoveClip(tl, id) })
	assert.False(t, h.CanRedo())
	assert.Empty(t, h.Present().Clips)
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(newTestTimeline(), 2)
	for i := 0; i < 5; i++ {
		h = h.Apply(func(tl Timeline) Timeline {
			tl, _ = AddClip(tl, ClipData{Kind: Text, StartFrame: i, EndFrame: i + 1})
			return tl
		})
	}
	h = h.Undo().Undo()
	assert.False(t, h.CanUndo())
	assert.Len(t, h.Present().Clips, 3)
}

package timeline

import (
	"github.com/ivlev/motionreel/internal/interp"
)

// DefaultTrackCount is used when Config.TrackCount is unset
const DefaultTrackCount = 4

// Config is the composition-level configuration of a timeline
type Config struct {
	FPS              int `yaml:"fps"`
	DurationInFrames int `yaml:"duration_in_frames"`
	TrackCount       int `yaml:"track_count,omitempty"`
}

// Kind is the media kind of a clip
type Kind string

const (
	Video   Kind = "video"
	Audio   Kind = "audio"
	Image   Kind = "image"
	Text    Kind = "text"
	Effect  Kind = "effect"
	Caption Kind = "caption"
)

// Valid reports whether k is one of the known media kinds
func (k Kind) Valid() bool {
	switch k {
	case Video, Audio, Image, Text, Effect, Caption:
		return true
	}
	return false
}

// Clip is a time-bounded placement of one media element on a track.
// Frames are half-open: the clip covers [StartFrame, EndFrame).
type Clip struct {
	ID         string   `yaml:"id"`
	Track      int      `yaml:"track"`
	Kind       Kind     `yaml:"kind"`
	Src        string   `yaml:"src,omitempty"`
	StartFrame int      `yaml:"start_frame"`
	EndFrame   int      `yaml:"end_frame"`
	TrimStart  int      `yaml:"trim_start,omitempty"` // source frames skipped before StartFrame
	TrimEnd    int      `yaml:"trim_end,omitempty"`   // source frames dropped after EndFrame
	Volume     *float64 `yaml:"volume,omitempty"`
	Opacity    *float64 `yaml:"opacity,omitempty"`
	Label      string   `yaml:"label,omitempty"`
}

// Duration returns EndFrame - StartFrame
func (c Clip) Duration() int {
	return c.EndFrame - c.StartFrame
}

// Keyframe anchors a clip property to a value at a frame
type Keyframe struct {
	ClipID   string        `yaml:"clip_id"`
	Property string        `yaml:"property"`
	Frame    int           `yaml:"frame"`
	Value    float64       `yaml:"value"`
	Easing   interp.Easing `yaml:"easing,omitempty"`
}

// ClipData is everything AddClip needs except the id
type ClipData struct {
	Track      int
	Kind       Kind
	Src        string
	StartFrame int
	EndFrame   int
	TrimStart  int
	TrimEnd    int
	Volume     *float64
	Opacity    *float64
	Label      string
}

// Timeline is an immutable snapshot. Every operation returns a new value and
// leaves its input untouched, so older snapshots stay valid for undo and for
// concurrent readers.
type Timeline struct {
	Config        Config     `yaml:"config"`
	Clips         []Clip     `yaml:"clips"`
	Keyframes     []Keyframe `yaml:"keyframes"`
	PlayheadFrame int        `yaml:"playhead_frame"`

	ids IDGenerator
}

// New creates an empty timeline
func New(cfg Config, opts ...Option) Timeline {
	if cfg.TrackCount <= 0 {
		cfg.TrackCount = DefaultTrackCount
	}
	tl := Timeline{Config: cfg}
	for _, opt := range opts {
		opt(&tl)
	}
	return tl
}

// Option customises a new Timeline
type Option func(*Timeline)

// WithIDs sets the id generator used by AddClip and SplitClip
func WithIDs(g IDGenerator) Option {
	return func(tl *Timeline) { tl.ids = g }
}

func (tl Timeline) nextID() string {
	if tl.ids == nil {
		return defaultIDs.NextID()
	}
	return tl.ids.NextID()
}

// AddClip appends a clip with a freshly generated id and returns the new
// timeline and that id. Overlapping clips are allowed. Frame bounds are not
// checked: a clip with EndFrame <= StartFrame is stored as given and only
// Validate reports it. Use TryAddClip to refuse such clips.
func AddClip(tl Timeline, data ClipData) (Timeline, string) {
	clip := Clip{
		ID:         tl.nextID(),
		Track:      data.Track,
		Kind:       data.Kind,
		Src:        data.Src,
		StartFrame: data.StartFrame,
		EndFrame:   data.EndFrame,
		TrimStart:  data.TrimStart,
		TrimEnd:    data.TrimEnd,
		Volume:     copyFloat(data.Volume),
		Opacity:    copyFloat(data.Opacity),
		Label:      data.Label,
	}
	out := tl
	out.Clips = appendShared(tl.Clips, clip)
	return out, clip.ID
}

// TryAddClip is AddClip that refuses clips with EndFrame <= StartFrame. On
// refusal the timeline is returned unchanged with an empty id.
func TryAddClip(tl Timeline, data ClipData) (Timeline, string, bool) {
	if data.EndFrame <= data.StartFrame {
		return tl, "", false
	}
	out, id := AddClip(tl, data)
	return out, id, true
}

// RemoveClip drops the clip and every keyframe that targets it. Unknown ids
// leave the timeline unchanged.
func RemoveClip(tl Timeline, clipID string) Timeline {
	out, _ := TryRemoveClip(tl, clipID)
	return out
}

// TryRemoveClip is RemoveClip that also reports whether anything was removed
func TryRemoveClip(tl Timeline, clipID string) (Timeline, bool) {
	if tl.indexOf(clipID) < 0 {
		return tl, false
	}

	clips := make([]Clip, 0, len(tl.Clips)-1)
	for _, c := range tl.Clips {
		if c.ID != clipID {
			clips = append(clips, c)
		}
	}

	keyframes := make([]Keyframe, 0, len(tl.Keyframes))
	for _, k := range tl.Keyframes {
		if k.ClipID != clipID {
			keyframes = append(keyframes, k)
		}
	}

	out := tl
	out.Clips = clips
	out.Keyframes = keyframes
	return out, true
}

// SplitClip cuts a clip in two at atFrame. The first half keeps the id and
// ends at atFrame; the second half gets a new id, starts at atFrame and skips
// the consumed source frames through TrimStart. The second half is appended
// after all existing clips. Splits outside (StartFrame, EndFrame) and unknown
// ids leave the timeline unchanged.
func SplitClip(tl Timeline, clipID string, atFrame int) Timeline {
	out, _ := TrySplitClip(tl, clipID, atFrame)
	return out
}

// TrySplitClip is SplitClip that also reports whether the split happened
func TrySplitClip(tl Timeline, clipID string, atFrame int) (Timeline, bool) {
	idx := tl.indexOf(clipID)
	if idx < 0 {
		return tl, false
	}
	orig := tl.Clips[idx]
	if atFrame <= orig.StartFrame || atFrame >= orig.EndFrame {
		return tl, false
	}

	first := orig
	first.EndFrame = atFrame

	second := orig
	second.ID = tl.nextID()
	second.StartFrame = atFrame
	second.TrimStart = orig.TrimStart + (atFrame - orig.StartFrame)
	second.Volume = copyFloat(orig.Volume)
	second.Opacity = copyFloat(orig.Opacity)

	clips := make([]Clip, len(tl.Clips), len(tl.Clips)+1)
	copy(clips, tl.Clips)
	clips[idx] = first
	clips = append(clips, second)

	out := tl
	out.Clips = clips
	return out, true
}

// AddKeyframe appends a keyframe. An empty easing becomes ease-in-out. The
// target clip is not checked; keyframes for missing clips are ignored when
// compiling.
func AddKeyframe(tl Timeline, kf Keyframe) Timeline {
	kf.Easing = kf.Easing.OrDefault()
	out := tl
	out.Keyframes = appendShared(tl.Keyframes, kf)
	return out
}

// SetPlayhead moves the UI cursor. It has no effect on rendering.
func SetPlayhead(tl Timeline, frame int) Timeline {
	out := tl
	out.PlayheadFrame = frame
	return out
}

// Clip looks a clip up by id
func (tl Timeline) Clip(id string) (Clip, bool) {
	if i := tl.indexOf(id); i >= 0 {
		return tl.Clips[i], true
	}
	return Clip{}, false
}

// KeyframesFor returns the keyframes targeting clipID in insertion order
func (tl Timeline) KeyframesFor(clipID string) []Keyframe {
	var out []Keyframe
	for _, k := range tl.Keyframes {
		if k.ClipID == clipID {
			out = append(out, k)
		}
	}
	return out
}

// Equal reports whether two snapshots hold the same clips, keyframes, config
// and playhead
func (tl Timeline) Equal(other Timeline) bool {
	if tl.Config != other.Config || tl.PlayheadFrame != other.PlayheadFrame {
		return false
	}
	if len(tl.Clips) != len(other.Clips) || len(tl.Keyframes) != len(other.Keyframes) {
		return false
	}
	for i := range tl.Clips {
		if !clipsEqual(tl.Clips[i], other.Clips[i]) {
			return false
		}
	}
	for i := range tl.Keyframes {
		if tl.Keyframes[i] != other.Keyframes[i] {
			return false
		}
	}
	return true
}

func (tl Timeline) indexOf(id string) int {
	for i, c := range tl.Clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// appendShared appends without writing into memory reachable through s:
// capping the capacity forces append to copy.
func appendShared[T any](s []T, v T) []T {
	return append(s[:len(s):len(s)], v)
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clipsEqual(a, b Clip) bool {
	if !floatPtrEqual(a.Volume, b.Volume) || !floatPtrEqual(a.Opacity, b.Opacity) {
		return false
	}
	a.Volume, a.Opacity, b.Volume, b.Opacity = nil, nil, nil, nil
	return a == b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

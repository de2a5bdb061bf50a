package compiler

import (
	"sort"

	"github.com/ivlev/motionreel/internal/interp"
	"github.com/ivlev/motionreel/internal/timeline"
)

// Style carries a clip's static look plus its keyframe curves
type Style struct {
	Opacity *float64
	Volume  *float64
	// Keyframes groups keyframes by property in insertion order. They are
	// not sorted; use Sequence.Curve before interpolating.
	Keyframes map[string][]timeline.Keyframe
	// Properties lists keyframed property names in first-seen order
	Properties []string
}

// Sequence is the render instruction for one clip
type Sequence struct {
	ClipID           string
	Track            int
	From             int
	DurationInFrames int
	Kind             timeline.Kind
	Src              string
	TrimStart        int
	Label            string
	Style            Style
}

// Compile turns every clip into a Sequence, in clip insertion order.
// Keyframes that target missing clips are dropped.
func Compile(tl timeline.Timeline) []Sequence {
	byClip := make(map[string][]timeline.Keyframe, len(tl.Clips))
	for _, k := range tl.Keyframes {
		byClip[k.ClipID] = append(byClip[k.ClipID], k)
	}

	out := make([]Sequence, 0, len(tl.Clips))
	for _, c := range tl.Clips {
		out = append(out, Sequence{
			ClipID:           c.ID,
			Track:            c.Track,
			From:             c.StartFrame,
			DurationInFrames: c.Duration(),
			Kind:             c.Kind,
			Src:              c.Src,
			TrimStart:        c.TrimStart,
			Label:            c.Label,
			Style:            buildStyle(c, byClip[c.ID]),
		})
	}
	return out
}

func buildStyle(c timeline.Clip, keyframes []timeline.Keyframe) Style {
	s := Style{
		Opacity:   copyFloat(c.Opacity),
		Volume:    copyFloat(c.Volume),
		Keyframes: make(map[string][]timeline.Keyframe),
	}
	for _, k := range keyframes {
		if _, seen := s.Keyframes[k.Property]; !seen {
			s.Properties = append(s.Properties, k.Property)
		}
		s.Keyframes[k.Property] = append(s.Keyframes[k.Property], k)
	}
	return s
}

// End is the first frame after the sequence
func (s Sequence) End() int {
	return s.From + s.DurationInFrames
}

// Active reports whether frame falls in [From, End)
func (s Sequence) Active(frame int) bool {
	return frame >= s.From && frame < s.End()
}

// LocalFrame is frame relative to the sequence start
func (s Sequence) LocalFrame(frame int) int {
	return frame - s.From
}

// SourceFrame is the frame of the underlying media shown at frame
func (s Sequence) SourceFrame(frame int) int {
	return s.TrimStart + s.LocalFrame(frame)
}

// Curve returns the keyframes of prop sorted by frame as parallel slices
// ready for interp.Interpolate. When several keyframes share a frame the
// one inserted last wins. The easing at i applies to the segment starting
// at input[i].
func (s Sequence) Curve(prop string) (input, output []float64, easings []interp.Easing) {
	kfs := s.Style.Keyframes[prop]
	if len(kfs) == 0 {
		return nil, nil, nil
	}

	sorted := make([]timeline.Keyframe, len(kfs))
	copy(sorted, kfs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })

	for _, k := range sorted {
		if n := len(input); n > 0 && input[n-1] == float64(k.Frame) {
			output[n-1] = k.Value
			easings[n-1] = k.Easing
			continue
		}
		input = append(input, float64(k.Frame))
		output = append(output, k.Value)
		easings = append(easings, k.Easing)
	}
	return input, output, easings
}

// ValueAt resolves prop at an absolute timeline frame. Before the first and
// after the last keyframe the value is held. Without keyframes fallback is
// returned.
func (s Sequence) ValueAt(prop string, frame int, fallback float64) float64 {
	input, output, easings := s.Curve(prop)
	return valueOnCurve(float64(frame), input, output, easings, fallback)
}

// Values resolves every keyframed property at frame
func (s Sequence) Values(frame int) map[string]float64 {
	if len(s.Style.Properties) == 0 {
		return nil
	}
	out := make(map[string]float64, len(s.Style.Properties))
	for _, p := range s.Style.Properties {
		out[p] = s.ValueAt(p, frame, 0)
	}
	return out
}

func valueOnCurve(frame float64, input, output []float64, easings []interp.Easing, fallback float64) float64 {
	switch {
	case len(input) == 0:
		return fallback
	case len(input) == 1 || frame <= input[0]:
		return output[0]
	case frame >= input[len(input)-1]:
		return output[len(output)-1]
	}

	// segment i spans input[i]..input[i+1]
	i := sort.SearchFloat64s(input, frame)
	if input[i] > frame {
		i--
	}
	if i >= len(input)-1 {
		i = len(input) - 2
	}

	v, err := interp.Interpolate(frame, input[i:i+2], output[i:i+2], interp.Options{
		Left:   interp.Clamp,
		Right:  interp.Clamp,
		Easing: easings[i],
	})
	if err != nil {
		return fallback
	}
	return v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

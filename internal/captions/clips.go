package captions

import (
	"math"

	"github.com/ivlev/motionreel/internal/timeline"
)

// ToClips adds one caption clip per segment on the given track. Segment times
// are converted to frames at the timeline's fps; segments that round to an
// empty range get one frame.
func ToClips(tl timeline.Timeline, tr Transcription, track int) (timeline.Timeline, []string) {
	fps := float64(tl.Config.FPS)
	if fps <= 0 {
		return tl, nil
	}

	ids := make([]string, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		start := int(math.Round(seg.Start * fps))
		end := int(math.Round(seg.End * fps))
		if end <= start {
			end = start + 1
		}

		var id string
		tl, id = timeline.AddClip(tl, timeline.ClipData{
			Track:      track,
			Kind:       timeline.Caption,
			StartFrame: start,
			EndFrame:   end,
			Label:      seg.Text,
		})
		ids = append(ids, id)
	}
	return tl, ids
}

package captions

import (
	"fmt"
	"math"
	"strings"
)

// ToSRT renders one SRT cue per segment
func ToSRT(t Transcription) string {
	cues := make([]string, 0, len(t.Segments))
	for i, seg := range t.Segments {
		cues = append(cues, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			i+1, formatSRTTime(seg.Start), formatSRTTime(seg.End), seg.Text))
	}
	return strings.Join(cues, "\n")
}

// formatSRTTime renders seconds as HH:MM:SS,mmm
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

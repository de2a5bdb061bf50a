package video

import (
	"fmt"
	"strings"
)

// AudioTrack is one audio clip placed on the composition
type AudioTrack struct {
	Src       string
	Start     float64 // seconds into the composition
	TrimStart float64 // seconds skipped in the source
	Duration  float64
	// VolumeExpr is an ffmpeg expression over composition time t
	VolumeExpr string
}

// Mix describes the audio laid under the concatenated video
type Mix struct {
	TotalDuration    float64
	Tracks           []AudioTrack
	BackgroundAudio  string
	BackgroundVolume float64
}

func (m Mix) empty() bool {
	return len(m.Tracks) == 0 && m.BackgroundAudio == ""
}

func buildConcatArgs(listPath, finalPath string, mix Mix) []string {
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if mix.empty() {
		return append(args, "-c", "copy", finalPath)
	}

	for _, tr := range mix.Tracks {
		args = append(args, "-i", tr.Src)
	}
	if mix.BackgroundAudio != "" {
		args = append(args, "-stream_loop", "-1", "-i", mix.BackgroundAudio)
	}

	args = append(args,
		"-filter_complex", audioFilterGraph(mix),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-t", fmt.Sprintf("%f", mix.TotalDuration),
		finalPath,
	)
	return args
}

// audioFilterGraph places every track at its start time, applies its volume
// envelope and mixes the result with the looped background bed into [aout]
func audioFilterGraph(mix Mix) string {
	var parts []string
	var labels []string

	for i, tr := range mix.Tracks {
		input := i + 1
		delay := int(tr.Start*1000 + 0.5)
		volume := tr.VolumeExpr
		if volume == "" {
			volume = "1.0"
		}
		label := fmt.Sprintf("[a%d]", i)
		parts = append(parts, fmt.Sprintf(
			"[%d:a]atrim=start=%f:duration=%f,asetpts=PTS-STARTPTS,adelay=%d|%d,volume='%s':eval=frame%s",
			input, tr.TrimStart, tr.Duration, delay, delay, volume, label))
		labels = append(labels, label)
	}

	if mix.BackgroundAudio != "" {
		bgIndex := len(mix.Tracks) + 1
		parts = append(parts, fmt.Sprintf("[%d:a]%s[bg_a]", bgIndex, backgroundVolumeFilter(mix.BackgroundVolume, mix.TotalDuration)))
		labels = append(labels, "[bg_a]")
	}

	if len(labels) == 1 {
		parts = append(parts, fmt.Sprintf("%sanull[aout]", labels[0]))
	} else {
		parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]",
			strings.Join(labels, ""), len(labels)))
	}
	return strings.Join(parts, ";")
}

// backgroundVolumeFilter fades the bed in from 10% and out to silence
func backgroundVolumeFilter(volume, totalDur float64) string {
	fadeInDur := 5.0
	fadeOutDur := 5.0
	if totalDur < fadeInDur+fadeOutDur {
		fadeInDur = totalDur * 0.1
		fadeOutDur = totalDur * 0.1
	}
	return fmt.Sprintf("volume='%f*(if(lte(t,%f), 0.1 + 0.9*(t/%f), if(gte(t, %f), (%f-t)/%f, 1.0)))':eval=frame",
		volume, fadeInDur, fadeInDur, totalDur-fadeOutDur, totalDur, fadeOutDur)
}

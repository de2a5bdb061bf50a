package video

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionreel/internal/config"
)

func TestBuildFFmpegArgs(t *testing.T) {
	params := config.SegmentParams{Width: 640, Height: 360, FPS: 25, Frames: 50, Encoder: "libx264", Quality: 23}
	args := buildFFmpegArgs("/tmp/s0.mp4", params)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-video_size 640x360")
	assert.Contains(t, joined, "-framerate 25")
	assert.Contains(t, joined, "-frames:v 50")
	assert.Contains(t, joined, "-crf 23 -preset medium")
	assert.Equal(t, "/tmp/s0.mp4", args[len(args)-1])
}

func TestQualityArgs(t *testing.T) {
	assert.Equal(t, []string{"-b:v", "7500k"}, qualityArgs("h264_videotoolbox", 75))
	assert.Equal(t, []string{"-cq", "28"}, qualityArgs("h264_nvenc", 28))
	assert.Equal(t, []string{"-crf", "23", "-preset", "medium"}, qualityArgs("libx264", 23))
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(1, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, img))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 255}, buf.Bytes())

	// sub-images are repacked to a tight buffer
	big := image.NewRGBA(image.Rect(0, 0, 4, 4))
	sub := big.SubImage(image.Rect(1, 1, 3, 2)).(*image.RGBA)
	buf.Reset()
	require.NoError(t, writeRawRGBA(&buf, sub))
	assert.Len(t, buf.Bytes(), 2*1*4)
}

func TestWriteFramesStopsOnError(t *testing.T) {
	var rendered []int
	render := func(frame int) (*image.RGBA, error) {
		rendered = append(rendered, frame)
		if frame == 12 {
			return nil, assert.AnError
		}
		return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
	}

	var buf bytes.Buffer
	err := NewFFmpegEncoder(nil).writeFrames(&buf, render, config.SegmentParams{FirstFrame: 10, Frames: 5})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int{10, 11, 12}, rendered)
	assert.Len(t, buf.Bytes(), 2*16)
}

func TestConcatList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConcatList(&buf, []string{"/a/s0.mp4", "/a/s1.mp4"}))
	assert.Equal(t, "file '/a/s0.mp4'\nfile '/a/s1.mp4'\n", buf.String())
}

func TestConcatArgsWithoutAudioCopies(t *testing.T) {
	args := buildConcatArgs("list.txt", "out.mp4", Mix{TotalDuration: 10})
	assert.Equal(t, []string{"-y", "-f", "concat", "-safe", "0", "-i", "list.txt", "-c", "copy", "out.mp4"}, args)
}

func TestAudioFilterGraph(t *testing.T) {
	mix := Mix{
		TotalDuration: 20,
		Tracks: []AudioTrack{
			{Src: "voice.wav", Start: 1.5, TrimStart: 2, Duration: 4, VolumeExpr: "0.500000"},
			{Src: "sfx.wav", Duration: 1},
		},
		BackgroundAudio:  "bed.mp3",
		BackgroundVolume: 0.3,
	}
	graph := audioFilterGraph(mix)

	parts := strings.Split(graph, ";")
	require.Len(t, parts, 4)
	assert.Equal(t,
		"[1:a]atrim=start=2.000000:duration=4.000000,asetpts=PTS-STARTPTS,adelay=1500|1500,volume='0.500000':eval=frame[a0]",
		parts[0])
	assert.Contains(t, parts[1], "volume='1.0'")
	assert.True(t, strings.HasPrefix(parts[2], "[3:a]volume='0.300000*"))
	assert.Equal(t, "[a0][a1][bg_a]amix=inputs=3:duration=longest:dropout_transition=0:normalize=0[aout]", parts[3])

	args := buildConcatArgs("list.txt", "out.mp4", mix)
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i voice.wav -i sfx.wav -stream_loop -1 -i bed.mp3")
	assert.Contains(t, joined, "-map 0:v -map [aout] -c:v copy -c:a aac -t 20.000000")
}

func TestSingleTrackSkipsAmix(t *testing.T) {
	graph := audioFilterGraph(Mix{TotalDuration: 3, BackgroundAudio: "bed.mp3", BackgroundVolume: 1})
	assert.True(t, strings.HasSuffix(graph, "[bg_a]anull[aout]"))
	assert.NotContains(t, graph, "amix")
}

func TestBackgroundFadeShortensForShortVideos(t *testing.T) {
	assert.Contains(t, backgroundVolumeFilter(0.3, 60), "if(lte(t,5.000000)")
	assert.Contains(t, backgroundVolumeFilter(0.3, 4), "if(lte(t,0.400000)")
}

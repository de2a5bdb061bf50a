package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ivlev/motionreel/internal/config"
	"github.com/ivlev/motionreel/internal/system"
)

// FrameFunc renders one composition frame. The returned image goes back to
// the system image pool once it has been written.
type FrameFunc func(frame int) (*image.RGBA, error)

type VideoEncoder interface {
	EncodeSegment(ctx context.Context, render FrameFunc, videoPath string, params config.SegmentParams) error
	Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string, mix Mix) error
}

type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg"
	Binary string
	Logger *zap.Logger
}

func NewFFmpegEncoder(logger *zap.Logger) *FFmpegEncoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegEncoder{Binary: "ffmpeg", Logger: logger.With(zap.String("component", "ffmpeg"))}
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e *FFmpegEncoder) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// EncodeSegment pipes params.Frames frames starting at params.FirstFrame
// into one ffmpeg process as raw RGBA
func (e *FFmpegEncoder) EncodeSegment(
	ctx context.Context,
	render FrameFunc,
	videoPath string,
	params config.SegmentParams,
) error {
	args := buildFFmpegArgs(videoPath, params)
	e.logger().Debug("encode segment",
		zap.Int("segment", params.Index),
		zap.Int("first_frame", params.FirstFrame),
		zap.Int("frames", params.Frames),
		zap.Strings("args", args),
	)

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Кадры пишутся по одному, в памяти держим только текущий
	writeErr := e.writeFrames(stdin, render, params)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if writeErr != nil {
			return fmt.Errorf("segment %d: %w", params.Index, writeErr)
		}
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, out.String())
	}
	if writeErr != nil {
		return fmt.Errorf("segment %d: %w", params.Index, writeErr)
	}
	return nil
}

func (e *FFmpegEncoder) writeFrames(w io.Writer, render FrameFunc, params config.SegmentParams) error {
	for i := 0; i < params.Frames; i++ {
		frame := params.FirstFrame + i
		img, err := render(frame)
		if err != nil {
			return fmt.Errorf("render frame %d: %w", frame, err)
		}
		err = writeRawRGBA(w, img)
		system.PutImage(img)
		if err != nil {
			return fmt.Errorf("write raw error at frame %d: %w", frame, err)
		}
	}
	return nil
}

func buildFFmpegArgs(videoPath string, params config.SegmentParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-frames:v", fmt.Sprintf("%d", params.Frames),
		"-pix_fmt", "yuv420p",
		"-c:v", params.Encoder,
	}
	args = append(args, qualityArgs(params.Encoder, params.Quality)...)
	args = append(args, videoPath)
	return args
}

// qualityArgs maps the single quality knob onto each encoder's own control
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox не везде поддерживает -q:v, используем битрейт. 75 -> 7.5Мбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Concatenate joins the segments in order. Without audio the streams are
// copied; otherwise video is copied and the audio mix is encoded.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string, mix Mix) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	concatFilePath := filepath.Join(tmpDir, "inputs.txt")
	f, err := os.Create(concatFilePath)
	if err != nil {
		return err
	}
	if err := writeConcatList(f, segmentPaths); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	args := buildConcatArgs(concatFilePath, finalPath, mix)
	e.logger().Debug("concatenate", zap.Int("segments", len(segmentPaths)), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %w, output: %s", err, string(out))
	}
	return nil
}

func writeConcatList(w io.Writer, paths []string) error {
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "file '%s'\n", absPath); err != nil {
			return err
		}
	}
	return nil
}

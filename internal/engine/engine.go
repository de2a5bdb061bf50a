package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/motionreel/internal/compiler"
	"github.com/ivlev/motionreel/internal/config"
	"github.com/ivlev/motionreel/internal/renderer"
	"github.com/ivlev/motionreel/internal/system"
	"github.com/ivlev/motionreel/internal/timeline"
	"github.com/ivlev/motionreel/internal/video"
)

// ErrEmptyScene is returned for compositions without frames
var ErrEmptyScene = errors.New("scene has no frames")

// VideoProject renders one Scene to a video file
type VideoProject struct {
	Config  *config.Config
	Scene   renderer.Scene
	Encoder video.VideoEncoder
	Metrics *Metrics
	Logger  *zap.Logger

	raster  *renderer.Rasterizer
	tempDir string
}

func NewVideoProject(cfg *config.Config, scene renderer.Scene, ve video.VideoEncoder, metrics *Metrics, logger *zap.Logger) *VideoProject {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoProject{
		Config:  cfg,
		Scene:   scene,
		Encoder: ve,
		Metrics: metrics,
		Logger:  logger.With(zap.String("component", "engine")),
		raster:  renderer.NewRasterizer(scene.Width, scene.Height, logger),
	}
}

// Run renders every frame, encodes the segments in parallel and joins them
// into Config.OutputVideo
func (p *VideoProject) Run(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	total := p.Scene.DurationInFrames
	if total <= 0 || p.Scene.FPS <= 0 {
		return nil, ErrEmptyScene
	}

	var err error
	p.tempDir, err = os.MkdirTemp("", "motionreel_")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(p.tempDir)

	segments := planSegments(total, p.Config.SegmentFrames(), p.segmentTemplate())
	workers := p.workerCount(len(segments))

	p.Logger.Info("render started",
		zap.Int("width", p.Scene.Width),
		zap.Int("height", p.Scene.Height),
		zap.Int("fps", p.Scene.FPS),
		zap.Int("frames", total),
		zap.Int("segments", len(segments)),
		zap.Int("workers", workers),
		zap.String("encoder", p.Config.VideoEncoder),
	)

	results := make([]string, len(segments))
	var ready atomic.Int32

	encodeStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, params := range segments {
		i, params := i, params
		g.Go(func() error {
			segPath := filepath.Join(p.tempDir, fmt.Sprintf("s%d.mp4", i))
			segStart := time.Now()
			if err := p.Encoder.EncodeSegment(gctx, p.renderFrame, segPath, params); err != nil {
				p.Metrics.observeSegment(statusFailed, time.Since(segStart))
				return fmt.Errorf("segment %d: %w", i, err)
			}
			p.Metrics.observeSegment(statusOK, time.Since(segStart))

			results[i] = segPath
			p.Logger.Debug("segment ready",
				zap.Int("segment", i),
				zap.Int32("ready", ready.Add(1)),
				zap.Int("total", len(segments)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	encodeTime := time.Since(encodeStart)

	p.Logger.Info("concatenating segments", zap.String("output", p.Config.OutputVideo))
	concatStart := time.Now()
	if dir := filepath.Dir(p.Config.OutputVideo); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	if err := p.Encoder.Concatenate(ctx, results, p.Config.OutputVideo, p.tempDir, p.audioMix()); err != nil {
		return nil, fmt.Errorf("concatenate: %w", err)
	}

	allocated, reused := system.PoolStats()
	report := &Report{
		Build:         p.Config.BuildVersion,
		Output:        p.Config.OutputVideo,
		Frames:        total,
		Segments:      len(segments),
		Workers:       workers,
		Total:         time.Since(startTime),
		Encode:        encodeTime,
		Concat:        time.Since(concatStart),
		PoolAllocated: allocated,
		PoolReused:    reused,
		Host:          system.Host(),
	}
	p.Metrics.observeRender(report.Total)
	return report, nil
}

// Preview writes every PreviewEvery-th frame as a still into PreviewDir
// and returns the written paths in frame order
func (p *VideoProject) Preview(ctx context.Context) ([]string, error) {
	total := p.Scene.DurationInFrames
	if total <= 0 {
		return nil, ErrEmptyScene
	}
	if err := os.MkdirAll(p.Config.PreviewDir, 0755); err != nil {
		return nil, err
	}

	frames := previewFrames(total, p.Config.PreviewEvery)
	paths := make([]string, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount(len(frames)))
	for i, frame := range frames {
		i, frame := i, frame
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := p.renderFrame(frame)
			if err != nil {
				return err
			}
			defer system.PutImage(img)

			path := filepath.Join(p.Config.PreviewDir, fmt.Sprintf("frame_%06d.%s", frame, p.Config.PreviewFormat))
			if err := renderer.SaveStill(path, img); err != nil {
				return fmt.Errorf("save frame %d: %w", frame, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.Logger.Info("preview written", zap.Int("stills", len(paths)), zap.String("dir", p.Config.PreviewDir))
	return paths, nil
}

func (p *VideoProject) renderFrame(frame int) (*image.RGBA, error) {
	start := time.Now()
	fs := renderer.Evaluate(p.Scene, frame)
	img := p.raster.Render(fs)
	p.Metrics.observeFrame(time.Since(start))
	return img, nil
}

func (p *VideoProject) segmentTemplate() config.SegmentParams {
	return config.SegmentParams{
		Width:   p.Scene.Width,
		Height:  p.Scene.Height,
		FPS:     p.Scene.FPS,
		Encoder: p.Config.VideoEncoder,
		Quality: p.Config.Quality,
	}
}

func (p *VideoProject) workerCount(jobs int) int {
	workers := p.Config.Workers
	if workers <= 0 {
		frameBytes := uint64(p.Scene.Width) * uint64(p.Scene.Height) * 4
		workers = system.RecommendedWorkers(frameBytes)
	}
	if workers > jobs {
		workers = jobs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// audioMix lays every audio sequence on the composition with its volume
// envelope, plus the configured background bed
func (p *VideoProject) audioMix() video.Mix {
	fps := float64(p.Scene.FPS)
	mix := video.Mix{
		TotalDuration:    float64(p.Scene.DurationInFrames) / fps,
		BackgroundAudio:  p.Config.BackgroundAudio,
		BackgroundVolume: p.Config.BackgroundVolume,
	}
	for _, seq := range p.Scene.Sequences {
		if seq.Kind != timeline.Audio || seq.Src == "" || seq.DurationInFrames <= 0 {
			continue
		}
		static := 1.0
		if seq.Style.Volume != nil {
			static = *seq.Style.Volume
		}
		mix.Tracks = append(mix.Tracks, video.AudioTrack{
			Src:        seq.Src,
			Start:      float64(seq.From) / fps,
			TrimStart:  float64(seq.TrimStart) / fps,
			Duration:   float64(seq.DurationInFrames) / fps,
			VolumeExpr: compiler.EnvelopeExpr(seq, "volume", p.Scene.FPS, static),
		})
	}
	return mix
}

// planSegments cuts [0,total) into runs of at most per frames
func planSegments(total, per int, template config.SegmentParams) []config.SegmentParams {
	if per < 1 {
		per = 1
	}
	var out []config.SegmentParams
	for first := 0; first < total; first += per {
		params := template
		params.Index = len(out)
		params.FirstFrame = first
		params.Frames = per
		if first+per > total {
			params.Frames = total - first
		}
		out = append(out, params)
	}
	return out
}

func previewFrames(total, every int) []int {
	if every < 1 {
		every = 1
	}
	frames := make([]int, 0, total/every+1)
	for f := 0; f < total; f += every {
		frames = append(frames, f)
	}
	return frames
}

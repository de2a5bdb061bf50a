package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ivlev/motionreel/internal/analyzer"
	"github.com/ivlev/motionreel/internal/config"
	"github.com/ivlev/motionreel/internal/director"
	"github.com/ivlev/motionreel/internal/effects"
	"github.com/ivlev/motionreel/internal/engine"
	"github.com/ivlev/motionreel/internal/logging"
	"github.com/ivlev/motionreel/internal/mediagen"
	"github.com/ivlev/motionreel/internal/source"
	"github.com/ivlev/motionreel/internal/storage"
	"github.com/ivlev/motionreel/internal/store"
	"github.com/ivlev/motionreel/internal/system"
	"github.com/ivlev/motionreel/internal/timeline"
	"github.com/ivlev/motionreel/internal/video"
)

var version = "dev"

type options struct {
	configPath    string
	input         string
	audio         string
	duration      float64
	dpi           int
	seed          int64
	transcribe    bool
	language      string
	captionPreset string
	musicPrompt   string
	focus         bool
	transition    string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.configPath, "config", "motionreel.yaml", "Путь к YAML конфигу (необязателен)")
	flag.StringVar(&opts.input, "input", "", "PDF, изображение или папка с изображениями: собрать слайдшоу вместо чтения документа")
	flag.StringVar(&opts.audio, "audio", "", "Аудио для слайдшоу (длительность берется из него)")
	flag.Float64Var(&opts.duration, "duration", 0, "Общая длительность слайдшоу в секундах (0 - по аудио или по числу слайдов)")
	flag.IntVar(&opts.dpi, "dpi", source.DefaultDPI, "DPI для страниц PDF")
	flag.Int64Var(&opts.seed, "seed", 0, "Seed для случайных длительностей (0 - текущее время)")
	flag.BoolVar(&opts.transcribe, "transcribe", false, "Распознать речь в аудио и добавить субтитры")
	flag.StringVar(&opts.language, "language", "en", "Язык распознавания")
	flag.StringVar(&opts.captionPreset, "caption-preset", "tiktok", "Стиль субтитров: tiktok, youtube, reels, karaoke")
	flag.StringVar(&opts.musicPrompt, "music", "", "Сгенерировать фоновую музыку по описанию")
	flag.StringVar(&opts.transition, "transition", string(effects.Crossfade), "Переход между слайдами (none - без переходов): "+transitionNames())
	flag.BoolVar(&opts.focus, "focus", true, "Наезжать камерой на найденный на слайде контент")

	document := flag.String("document", "", "Путь к документу таймлайна (по умолчанию: самый свежий в documents_dir)")
	output := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	preset := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	width := flag.Int("width", 0, "Ширина")
	height := flag.Int("height", 0, "Высота")
	fps := flag.Int("fps", 0, "FPS")
	workers := flag.Int("workers", 0, "Потоки (0 - по CPU и памяти)")
	quality := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	preview := flag.String("preview", "", "Папка для кадров предпросмотра вместо видео")
	stats := flag.Bool("stats", false, "Показать отчет о производительности")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg.BuildVersion = version

	// флаги перекрывают конфиг, только если заданы явно
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "document":
			cfg.DocumentPath = *document
		case "output":
			cfg.OutputVideo = *output
		case "preset":
			cfg.Preset = *preset
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "fps":
			cfg.FPS = *fps
		case "workers":
			cfg.Workers = *workers
		case "quality":
			cfg.Quality = *quality
		case "preview":
			cfg.PreviewDir = *preview
		case "stats":
			cfg.ShowStats = *stats
		}
	})
	if err := cfg.ApplyPreset(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	system.InitResourceLimits(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Создаем нужные директории, если их нет
	for _, d := range []string{cfg.DocumentsDir, cfg.OutputDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}

	media := mediagen.NewClient(mediagen.Config{
		BaseURL:       cfg.MediaGen.BaseURL,
		APIKey:        cfg.MediaGen.APIKey,
		RatePerSecond: cfg.MediaGen.RatePerSecond,
		Timeout:       cfg.MediaGen.Timeout,
	}, logger)

	dir := director.NewDirector(cfg.Width, cfg.Height)
	if opts.seed != 0 {
		dir.WithSeed(opts.seed)
	}
	if opts.transition == "none" {
		dir.Transition = ""
	} else if dir.Transition, err = effects.Parse(opts.transition); err != nil {
		return err
	}
	if opts.focus {
		finder, err := analyzer.NewFocusFinder(cfg.FocusDetector)
		if err != nil {
			return err
		}
		dir.Focus = finder.Find
	}

	var doc *director.Document
	var docPath string
	if opts.input != "" {
		doc, docPath, err = generate(ctx, cfg, dir, media, opts, logger)
	} else {
		doc, docPath, err = load(cfg)
	}
	if err != nil {
		return err
	}

	if cfg.OutputVideo == "" {
		cfg.OutputVideo = outputPath(cfg.OutputDir, docPath, time.Now())
	}
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			logger.Info("hardware encoder detected", zap.String("encoder", cfg.VideoEncoder))
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	scene, err := dir.BuildScene(doc)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(cfg.Metrics.Namespace, reg)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	project := engine.NewVideoProject(cfg, scene, video.NewFFmpegEncoder(logger), metrics, logger)

	if cfg.PreviewDir != "" {
		paths, err := project.Preview(ctx)
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		fmt.Printf("[+++] Кадры предпросмотра: %d в %s\n", len(paths), cfg.PreviewDir)
		return nil
	}

	report, err := project.Run(ctx)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if cfg.ShowStats {
		report.Print(os.Stdout)
		if err := report.AppendBenchmark("benchmark.log"); err != nil {
			logger.Warn("benchmark log not written", zap.Error(err))
		}
	}

	if cfg.Store.Path != "" {
		if err := snapshot(ctx, cfg.Store.Path, docPath, doc.Timeline, logger); err != nil {
			return err
		}
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)

	if cfg.Storage.Enabled() {
		link, err := publish(ctx, cfg.Storage, cfg.OutputVideo, logger)
		if err != nil {
			return err
		}
		fmt.Printf("[+++] Ссылка: %s\n", link)
	}
	return nil
}

// generate builds a slideshow document from stills and writes it next to
// the other documents
func generate(ctx context.Context, cfg *config.Config, dir *director.Director, media *mediagen.Client, opts options, logger *zap.Logger) (*director.Document, string, error) {
	docPath := cfg.DocumentPath
	if docPath == "" {
		docPath = director.GenerateDocumentPath(cfg.DocumentsDir)
	}
	pagesDir := strings.TrimSuffix(docPath, filepath.Ext(docPath)) + "_pages"

	slides, err := source.Slides(ctx, opts.input, pagesDir, opts.dpi, cfg.Workers, logger)
	if err != nil {
		return nil, "", err
	}

	total := opts.duration
	if opts.audio != "" && total <= 0 {
		audioDur, err := system.GetAudioDuration(ctx, opts.audio)
		if err != nil {
			logger.Warn("audio duration unknown", zap.String("audio", opts.audio), zap.Error(err))
		} else {
			total = audioDur
			logger.Info("duration taken from audio", zap.Float64("seconds", total))
		}
	}

	doc, err := dir.GenerateDocument(slides, opts.audio, total, cfg.FPS)
	if err != nil {
		return nil, "", err
	}

	if opts.musicPrompt != "" {
		seconds := float64(doc.Timeline.Config.DurationInFrames) / float64(cfg.FPS)
		h, err := media.Generate(ctx, mediagen.Request{
			Service: mediagen.Music,
			Params:  map[string]any{"prompt": opts.musicPrompt, "duration": seconds},
		})
		if err != nil {
			return nil, "", fmt.Errorf("music: %w", err)
		}
		volume := cfg.BackgroundVolume
		doc.Timeline, _ = mediagen.Attach(doc.Timeline, h, timeline.ClipData{
			Track:    director.AudioTrack,
			EndFrame: doc.Timeline.Config.DurationInFrames,
			Volume:   &volume,
			Label:    "music",
		})
	}

	if opts.transcribe && opts.audio != "" {
		src, err := remoteAudio(ctx, cfg.Storage, opts.audio, logger)
		if err != nil {
			return nil, "", fmt.Errorf("transcribe: %w", err)
		}
		tr, err := media.Transcribe(ctx, src, opts.language)
		if err != nil {
			return nil, "", fmt.Errorf("transcribe: %w", err)
		}
		doc.Captions = &director.CaptionTrack{
			Preset: opts.captionPreset,
			Source: opts.audio,
			Words:  tr.Words(),
		}
	}

	if err := director.WriteDocument(doc, docPath); err != nil {
		return nil, "", err
	}
	logger.Info("document written", zap.String("path", docPath), zap.Int("slides", len(slides)))
	return doc, docPath, nil
}

func load(cfg *config.Config) (*director.Document, string, error) {
	docPath := cfg.DocumentPath
	if docPath == "" {
		latest, err := director.FindLatestDocument(cfg.DocumentsDir)
		if err != nil {
			return nil, "", fmt.Errorf("%w: pass -document or -input", err)
		}
		docPath = latest
		fmt.Printf("[*] Выбран документ: %s\n", docPath)
	}
	doc, err := director.ReadDocument(docPath)
	if err != nil {
		return nil, "", err
	}
	return doc, docPath, nil
}

// outputPath names the video after the document plus a timestamp
func outputPath(outputDir, docPath string, now time.Time) string {
	baseName := filepath.Base(docPath)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := now.Format("2006-01-02_15-04-05")
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}

func snapshot(ctx context.Context, dbPath, docPath string, tl timeline.Timeline, logger *zap.Logger) error {
	st, err := store.Open(ctx, dbPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	name := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	v, err := st.Save(ctx, name, tl)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("snapshot saved", zap.String("name", name), zap.Int("version", v))
	return nil
}

func publish(ctx context.Context, sc config.StorageConfig, path string, logger *zap.Logger) (string, error) {
	pub, err := storage.NewPublisher(ctx, storage.Options{
		Endpoint:        sc.Endpoint,
		Region:          sc.Region,
		Bucket:          sc.Bucket,
		Prefix:          sc.Prefix,
		AccessKeyID:     sc.AccessKeyID,
		SecretAccessKey: sc.SecretAccessKey,
		LinkExpiry:      sc.LinkExpiry,
	}, logger)
	if err != nil {
		return "", err
	}
	return pub.Publish(ctx, path)
}

// remoteAudio returns a URL the transcription service can fetch, uploading
// local files through the configured storage
func remoteAudio(ctx context.Context, sc config.StorageConfig, path string, logger *zap.Logger) (string, error) {
	if mediagen.IsRemote(path) {
		return path, nil
	}
	if !sc.Enabled() {
		return "", fmt.Errorf("%w: configure storage to upload %s", mediagen.ErrLocalAudio, path)
	}
	return publish(ctx, sc, path, logger)
}

func transitionNames() string {
	var names []string
	for _, t := range effects.List() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

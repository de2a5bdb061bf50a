package mediagen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ivlev/motionreel/internal/captions"
	"github.com/ivlev/motionreel/internal/timeline"
)

// Service names a remote media generator; it is also the endpoint path
type Service string

const (
	VoiceClone       Service = "voice-clone"
	TTS              Service = "tts"
	Avatar           Service = "avatar"
	Transcribe       Service = "transcribe"
	Video            Service = "video"
	AnimateImage     Service = "animate-image"
	ImageEdit        Service = "image-edit"
	RemoveBackground Service = "remove-background"
	Music            Service = "music"
)

// Services lists every known service
var Services = []Service{VoiceClone, TTS, Avatar, Transcribe, Video, AnimateImage, ImageEdit, RemoveBackground, Music}

// Kind is the clip kind a service's output is placed as
func (s Service) Kind() timeline.Kind {
	switch s {
	case VoiceClone, TTS, Music:
		return timeline.Audio
	case Avatar, Video, AnimateImage:
		return timeline.Video
	case ImageEdit, RemoveBackground:
		return timeline.Image
	case Transcribe:
		return timeline.Caption
	}
	return ""
}

func (s Service) Valid() bool {
	return s.Kind() != ""
}

// ErrServiceFailed wraps every failed call
var ErrServiceFailed = errors.New("media service failed")

// ErrLocalAudio is returned when a transcription source is not reachable
// by the remote service
var ErrLocalAudio = errors.New("audio must be an http(s) url")

// IsRemote reports whether src is an http or https URL with a host
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ServiceError is a non-2xx answer from a service
type ServiceError struct {
	Service    Service
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: status=%d body=%s", e.Service, e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return ErrServiceFailed }

// Request is the input of one generation call. Params are sent as the JSON
// body unchanged.
type Request struct {
	Service Service
	Params  map[string]any
}

// Handle is an opaque reference to generated media
type Handle struct {
	Service  Service `json:"-"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration,omitempty"` // seconds, when the service reports it
}

// Config configures the client
type Config struct {
	BaseURL       string
	APIKey        string
	RatePerSecond float64 // 0 disables pacing
	Timeout       time.Duration
}

// Client calls the media services. Each call is a single best-effort POST;
// failures are returned, never retried.
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "mediagen")),
	}
}

// Generate runs one service call and returns the produced media handle
func (c *Client) Generate(ctx context.Context, req Request) (Handle, error) {
	var h Handle
	if err := c.call(ctx, req, &h); err != nil {
		return Handle{}, err
	}
	if h.URL == "" {
		return Handle{}, fmt.Errorf("%w: %s returned no url", ErrServiceFailed, req.Service)
	}
	h.Service = req.Service
	return h, nil
}

// Transcribe sends an audio URL to the transcription service. Local paths
// are refused without a request; upload them first.
func (c *Client) Transcribe(ctx context.Context, audio, language string) (captions.Transcription, error) {
	if !IsRemote(audio) {
		return captions.Transcription{}, fmt.Errorf("%w: %q", ErrLocalAudio, audio)
	}
	params := map[string]any{"audio": audio, "language": language, "model": "base"}
	if language == "" {
		params["language"] = "en"
	}
	var tr captions.Transcription
	if err := c.call(ctx, Request{Service: Transcribe, Params: params}, &tr); err != nil {
		return captions.Transcription{}, err
	}
	return tr, nil
}

func (c *Client) call(ctx context.Context, req Request, out any) error {
	if !req.Service.Valid() {
		return fmt.Errorf("%w: unknown service %q", ErrServiceFailed, req.Service)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), req.Service)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s request: %w", ErrServiceFailed, req.Service, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("service call",
		zap.String("service", string(req.Service)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ServiceError{Service: req.Service, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %w", ErrServiceFailed, req.Service, err)
	}
	return nil
}

// Attach places generated media on the timeline. Kind defaults to the
// service's kind; EndFrame defaults to the handle's duration when known.
func Attach(tl timeline.Timeline, h Handle, data timeline.ClipData) (timeline.Timeline, string) {
	data.Src = h.URL
	if data.Kind == "" {
		data.Kind = h.Service.Kind()
	}
	if data.EndFrame <= data.StartFrame && h.Duration > 0 && tl.Config.FPS > 0 {
		data.EndFrame = data.StartFrame + int(h.Duration*float64(tl.Config.FPS)+0.5)
	}
	if data.EndFrame <= data.StartFrame {
		data.EndFrame = data.StartFrame + 1
	}
	return timeline.AddClip(tl, data)
}

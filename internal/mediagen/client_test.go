package mediagen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionreel/internal/timeline"
)

func TestGenerate(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://cdn.example.com/clip.mp4","duration":2.5}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL + "/", APIKey: "secret"}, nil)
	h, err := c.Generate(context.Background(), Request{Service: Video, Params: map[string]any{"prompt": "sunset", "fps": 24}})
	require.NoError(t, err)

	assert.Equal(t, "/video", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "sunset", gotBody["prompt"])
	assert.Equal(t, 24.0, gotBody["fps"])
	assert.Equal(t, Handle{Service: Video, URL: "https://cdn.example.com/clip.mp4", Duration: 2.5}, h)
}

func TestGenerateFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/avatar":
			http.Error(w, "gpu busy", http.StatusServiceUnavailable)
		case "/music":
			w.Write([]byte(`{"duration": 30}`))
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer server.Close()
	c := NewClient(Config{BaseURL: server.URL}, nil)
	ctx := context.Background()

	_, err := c.Generate(ctx, Request{Service: Avatar})
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Contains(t, se.Body, "gpu busy")
	assert.ErrorIs(t, err, ErrServiceFailed)

	_, err = c.Generate(ctx, Request{Service: Music})
	assert.ErrorIs(t, err, ErrServiceFailed)

	_, err = c.Generate(ctx, Request{Service: TTS})
	assert.ErrorIs(t, err, ErrServiceFailed)

	_, err = c.Generate(ctx, Request{Service: "hologram"})
	assert.ErrorIs(t, err, ErrServiceFailed)
}

func TestGenerateDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}, nil).Generate(context.Background(), Request{Service: TTS})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"x"}`))
	}))
	defer server.Close()

	// one token per minute: the second call has to wait and runs out of time
	c := NewClient(Config{BaseURL: server.URL, RatePerSecond: 1.0 / 60}, nil)
	_, err := c.Generate(context.Background(), Request{Service: TTS})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, Request{Service: TTS})
	assert.Error(t, err)
}

func TestTranscribe(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{
			"language": "en", "duration": 1.2,
			"segments": [{"text": "hi there", "start": 0, "end": 1.2,
				"words": [{"word": "hi", "start": 0, "end": 0.4, "confidence": 0.9},
				          {"word": "there", "start": 0.5, "end": 1.2, "confidence": 0.8}]}]
		}`))
	}))
	defer server.Close()

	tr, err := NewClient(Config{BaseURL: server.URL}, nil).Transcribe(context.Background(), "https://cdn.example.com/voice.wav", "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/voice.wav", body["audio"])
	assert.Equal(t, "en", body["language"])
	require.Len(t, tr.Segments, 1)
	words := tr.Words()
	require.Len(t, words, 2)
	assert.Equal(t, "there", words[1].Text)
	assert.Equal(t, 0.8, words[1].Confidence)
}

func TestTranscribeRefusesLocalAudio(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil)
	for _, src := range []string{"voice.wav", "/tmp/voice.wav", "file:///tmp/voice.wav", "s3://bucket/voice.wav", ""} {
		_, err := client.Transcribe(context.Background(), src, "en")
		assert.ErrorIs(t, err, ErrLocalAudio, src)
	}
	assert.Zero(t, calls.Load())
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("http://localhost:9000/a.wav"))
	assert.True(t, IsRemote("https://bucket.r2.dev/renders/a.wav?X-Amz-Signature=1"))
	assert.False(t, IsRemote("a.wav"))
	assert.False(t, IsRemote("https:///a.wav"))
	assert.False(t, IsRemote("C:\\audio\\a.wav"))
}

func TestAttach(t *testing.T) {
	tl := timeline.New(timeline.Config{FPS: 30, DurationInFrames: 300}, timeline.WithIDs(timeline.NewCounterIDs()))

	tl, id := Attach(tl, Handle{Service: TTS, URL: "https://cdn/voice.mp3", Duration: 2}, timeline.ClipData{Track: 2, StartFrame: 30})
	clip, ok := tl.Clip(id)
	require.True(t, ok)
	assert.Equal(t, timeline.Audio, clip.Kind)
	assert.Equal(t, "https://cdn/voice.mp3", clip.Src)
	assert.Equal(t, 90, clip.EndFrame)

	tl, id = Attach(tl, Handle{Service: RemoveBackground, URL: "cut.png"}, timeline.ClipData{StartFrame: 0, EndFrame: 45, Kind: timeline.Video})
	clip, _ = tl.Clip(id)
	assert.Equal(t, timeline.Video, clip.Kind)
	assert.Equal(t, 45, clip.EndFrame)

	_, id = Attach(tl, Handle{Service: ImageEdit, URL: "x.png"}, timeline.ClipData{StartFrame: 10})
	assert.NotEmpty(t, id)
}

func TestServiceKinds(t *testing.T) {
	for _, s := range Services {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Service("hologram").Valid())
	assert.Equal(t, timeline.Caption, Transcribe.Kind())
}

package captions

import (
	"fmt"
	"sort"
)

// Style is the visual treatment of caption words
type Style string

const (
	StyleTikTok     Style = "tiktok"
	StyleKaraoke    Style = "karaoke"
	StyleTypewriter Style = "typewriter"
	StylePop        Style = "pop"
	StyleSubtitle   Style = "subtitle"
	StyleHighlight  Style = "highlight"
	StyleWave       Style = "wave"
)

// Position is where the caption block sits on screen
type Position string

const (
	Top    Position = "top"
	Center Position = "center"
	Bottom Position = "bottom"
)

// StyleConfig configures caption presentation. Zero values fall back to the
// defaults used by WordStyle.
type StyleConfig struct {
	Style           Style    `yaml:"style"`
	FontFamily      string   `yaml:"font_family,omitempty"`
	FontSize        float64  `yaml:"font_size,omitempty"`
	Color           string   `yaml:"color,omitempty"`
	ActiveColor     string   `yaml:"active_color,omitempty"`
	BackgroundColor string   `yaml:"background_color,omitempty"`
	Position        Position `yaml:"position,omitempty"`
	MaxWordsPerLine int      `yaml:"max_words_per_line,omitempty"`
	Padding         float64  `yaml:"padding,omitempty"`
	Shadow          *bool    `yaml:"shadow,omitempty"`
	Outline         bool     `yaml:"outline,omitempty"`
	OutlineColor    string   `yaml:"outline_color,omitempty"`
	OutlineWidth    float64  `yaml:"outline_width,omitempty"`
}

func boolPtr(v bool) *bool { return &v }

// Presets are the common social media caption looks
var Presets = map[string]StyleConfig{
	"tiktok": {
		Style: StyleTikTok, FontFamily: "Inter, system-ui, sans-serif", FontSize: 64,
		Color: "#FFFFFF", ActiveColor: "#FFD700", Position: Center, MaxWordsPerLine: 4,
		Shadow: boolPtr(true), Outline: true, OutlineColor: "#000000", OutlineWidth: 3,
	},
	"youtube": {
		Style: StyleSubtitle, FontFamily: "Roboto, sans-serif", FontSize: 48,
		Color: "#FFFFFF", BackgroundColor: "rgba(0, 0, 0, 0.75)", Position: Bottom,
		MaxWordsPerLine: 10, Padding: 12, Shadow: boolPtr(false),
	},
	"reels": {
		Style: StylePop, FontFamily: "Montserrat, sans-serif", FontSize: 56,
		Color: "#FFFFFF", ActiveColor: "#FF4444", Position: Center, MaxWordsPerLine: 3,
		Shadow: boolPtr(true), Outline: true, OutlineColor: "#000000", OutlineWidth: 4,
	},
	"karaoke": {
		Style: StyleKaraoke, FontFamily: "Poppins, sans-serif", FontSize: 60,
		Color: "#666666", ActiveColor: "#00FF88", Position: Bottom, MaxWordsPerLine: 6,
		Shadow: boolPtr(false),
	},
}

// Preset looks a preset up by name
func Preset(name string) (StyleConfig, error) {
	cfg, ok := Presets[name]
	if !ok {
		names := make([]string, 0, len(Presets))
		for n := range Presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return StyleConfig{}, fmt.Errorf("unknown caption preset %q (available: %v)", name, names)
	}
	return cfg, nil
}

// WordLook is the resolved appearance of one word
type WordLook struct {
	FontFamily   string
	FontSize     float64
	FontWeight   int
	Color        string
	Scale        float64
	Glow         string // empty when the word has no glow
	OutlineColor string
	OutlineWidth float64 // 0 means no outline
}

// WordStyle resolves how a word is drawn depending on whether it is the
// word currently being spoken
func WordStyle(cfg StyleConfig, active bool) WordLook {
	look := WordLook{
		FontFamily: orString(cfg.FontFamily, "Inter, system-ui, sans-serif"),
		FontSize:   orFloat(cfg.FontSize, 64),
		FontWeight: 800,
		Scale:      1,
		Color:      orString(cfg.Color, "#FFFFFF"),
	}

	if active {
		look.Color = orString(cfg.ActiveColor, "#FFD700")
		look.Scale = 1.15
		if cfg.Shadow == nil || *cfg.Shadow {
			look.Glow = look.Color + "80"
		}
	}

	if cfg.Outline {
		look.OutlineColor = orString(cfg.OutlineColor, "#000000")
		look.OutlineWidth = orFloat(cfg.OutlineWidth, 2)
	}
	return look
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

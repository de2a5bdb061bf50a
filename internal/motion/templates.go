package motion

import (
	"strconv"

	"github.com/ivlev/motionreel/internal/interp"
)

// Preset compositions built from AnimateShape and CreateBurst

const (
	defaultAccent = "#FFD700"
	defaultWhite  = "#FFFFFF"
	defaultGreen  = "#00FF88"
)

// LowerThird slides a title bar in from the left
func LowerThird(text, color string) []AnimatedShape {
	if color == "" {
		color = defaultAccent
	}
	return []AnimatedShape{
		AnimateShape(Rect, Animation{
			From: Props{
				PropX: Num(-400), PropY: Num(0), PropWidth: Num(400), PropHeight: Num(60),
				PropOpacity: Num(0), PropFill: Str(color), PropText: Str(text),
			},
			To: Props{
				PropX: Num(0), PropY: Num(0), PropWidth: Num(400), PropHeight: Num(60),
				PropOpacity: Num(1), PropFill: Str(color), PropText: Str(text),
			},
			Duration: 20,
			Easing:   interp.EaseOut,
		}),
	}
}

// Countdown pulses one circle per number, from down to 1, 30 frames each
func Countdown(from int, color string) []AnimatedShape {
	if from <= 0 {
		from = 3
	}
	if color == "" {
		color = defaultWhite
	}
	shapes := make([]AnimatedShape, 0, from)
	for i := from; i >= 1; i-- {
		label := Str(strconv.Itoa(i))
		shapes = append(shapes, AnimateShape(Circle, Animation{
			From:     Props{PropScale: Num(2), PropOpacity: Num(1), PropFill: Str(color), PropText: label},
			To:       Props{PropScale: Num(0), PropOpacity: Num(0), PropFill: Str(color), PropText: label},
			Duration: 30,
			Delay:    (from - i) * 30,
			Easing:   interp.EaseIn,
		}))
	}
	return shapes
}

// DefaultConfettiColors is used when Confetti gets no colors
var DefaultConfettiColors = []string{"#FFD700", "#FF4444", "#44FF44", "#4444FF"}

// Confetti fires one 15-particle burst per color with growing radii
func Confetti(colors []string) []AnimatedShape {
	if len(colors) == 0 {
		colors = DefaultConfettiColors
	}
	var shapes []AnimatedShape
	for i, color := range colors {
		shapes = append(shapes, CreateBurst(BurstConfig{
			Count:        15,
			Radius:       300 + float64(i)*50,
			Color:        color,
			ParticleSize: Ptr(6.0),
			Duration:     Ptr(45),
			Stagger:      Ptr(1),
		})...)
	}
	return shapes
}

// ProgressBar grows a bar to percent*5 pixels over two seconds at 30fps
func ProgressBar(percent float64, color string) []AnimatedShape {
	if color == "" {
		color = defaultGreen
	}
	return []AnimatedShape{
		AnimateShape(Rect, Animation{
			From:     Props{PropWidth: Num(0), PropHeight: Num(8), PropFill: Str(color), PropOpacity: Num(1)},
			To:       Props{PropWidth: Num(percent * 5), PropHeight: Num(8), PropFill: Str(color), PropOpacity: Num(1)},
			Duration: 60,
			Easing:   interp.EaseInOut,
		}),
	}
}

// EndCard fades in a QR code pointing at url
func EndCard(url string) []AnimatedShape {
	return []AnimatedShape{
		AnimateShape(QR, Animation{
			From:     Props{PropOpacity: Num(0), PropScale: Num(0.8), PropWidth: Num(256), PropText: Str(url)},
			To:       Props{PropOpacity: Num(1), PropScale: Num(1), PropWidth: Num(256), PropText: Str(url)},
			Duration: 15,
			Easing:   interp.EaseOut,
		}),
	}
}

// Template builds a named preset; ok is false for unknown names
func Template(name, text, color string, number float64, colors []string) ([]AnimatedShape, bool) {
	switch name {
	case "lower_third":
		return LowerThird(text, color), true
	case "countdown":
		return Countdown(int(number), color), true
	case "confetti":
		return Confetti(colors), true
	case "progress_bar":
		return ProgressBar(number, color), true
	case "end_card":
		return EndCard(text), true
	default:
		return nil, false
	}
}

package interp

import (
	"fmt"
	"math"
	"strings"
)

// Easing names a progress curve mapping [0,1] onto roughly [0,1]
type Easing string

const (
	Linear     Easing = "linear"
	EaseIn     Easing = "ease-in"
	EaseOut    Easing = "ease-out"
	EaseInOut  Easing = "ease-in-out"
	SpringEase Easing = "spring"
	Bounce     Easing = "bounce"
	Elastic    Easing = "elastic"
	Back       Easing = "back"
)

// DefaultEasing is used for keyframes that do not name one
const DefaultEasing = EaseInOut

var knownEasings = map[Easing]bool{
	Linear: true, EaseIn: true, EaseOut: true, EaseInOut: true,
	SpringEase: true, Bounce: true, Elastic: true, Back: true,
}

// ParseEasing validates an easing name; empty means DefaultEasing
func ParseEasing(s string) (Easing, error) {
	e := Easing(strings.ToLower(strings.TrimSpace(s)))
	if e == "" {
		return DefaultEasing, nil
	}
	if !knownEasings[e] {
		return "", fmt.Errorf("unknown easing %q", s)
	}
	return e, nil
}

// OrDefault returns e, or DefaultEasing when e is empty
func (e Easing) OrDefault() Easing {
	if e == "" {
		return DefaultEasing
	}
	return e
}

// Apply maps t through the curve. t is clamped to [0,1] first; an empty or
// unknown easing is linear.
func (e Easing) Apply(t float64) float64 {
	t = clamp01(t)
	switch e {
	case EaseIn:
		return t * t * t
	case EaseOut:
		return 1 - pow(1-t, 3)
	case EaseInOut:
		return easeInOutCubic(t)
	case SpringEase:
		return springCurve(t)
	case Bounce:
		return bounceOut(t)
	case Elastic:
		return elasticOut(t)
	case Back:
		return backOut(t)
	default:
		return t
	}
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// springCurve squeezes the default spring's settle time into [0,1]
func springCurve(t float64) float64 {
	if t >= 1 {
		return 1
	}
	return Spring(t*springCurveFrames, 30, DefaultSpring)
}

// frames at 30fps the default spring needs to settle within ~0.1%
const springCurveFrames = 45

func bounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func elasticOut(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	const c4 = (2 * math.Pi) / 3
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
}

func backOut(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return 1 + c3*pow(t-1, 3) + c1*pow(t-1, 2)
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

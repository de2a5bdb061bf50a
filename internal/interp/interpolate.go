package interp

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Extrapolation controls what Interpolate returns outside the input range
type Extrapolation int

const (
	Clamp  Extrapolation = iota // hold the nearest endpoint value
	Extend                      // continue the slope of the nearest segment
)

func (e Extrapolation) String() string {
	if e == Extend {
		return "extend"
	}
	return "clamp"
}

// ParseExtrapolation accepts "clamp", "extend" or an empty string (clamp)
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "extend":
		return Extend, nil
	default:
		return Clamp, fmt.Errorf("unknown extrapolation %q", s)
	}
}

func (e Extrapolation) MarshalYAML() (interface{}, error) {
	return e.String(), nil
}

func (e *Extrapolation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseExtrapolation(s)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Options configures a single Interpolate call
type Options struct {
	Left   Extrapolation
	Right  Extrapolation
	Easing Easing // applied to the in-segment fraction, linear when empty
}

// Clamped holds both endpoints
var Clamped = Options{Left: Clamp, Right: Clamp, Easing: Linear}

// Extended continues the outer segments on both sides
var Extended = Options{Left: Extend, Right: Extend, Easing: Linear}

// InvalidRangeError reports malformed input/output ranges
type InvalidRangeError struct {
	Reason string
	Input  []float64
	Output []float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid interpolation range: %s (input=%v output=%v)", e.Reason, e.Input, e.Output)
}

// CheckRange validates that input is non-empty, strictly increasing and as long as output
func CheckRange(input, output []float64) error {
	if len(input) == 0 {
		return &InvalidRangeError{Reason: "empty input range", Input: input, Output: output}
	}
	if len(input) != len(output) {
		return &InvalidRangeError{
			Reason: fmt.Sprintf("length mismatch %d != %d", len(input), len(output)),
			Input:  input,
			Output: output,
		}
	}
	for i := 1; i < len(input); i++ {
		if !(input[i] > input[i-1]) {
			return &InvalidRangeError{
				Reason: fmt.Sprintf("input range not strictly increasing at index %d", i),
				Input:  input,
				Output: output,
			}
		}
	}
	return nil
}

// Interpolate maps frame from input onto output, piecewise linear between the
// two nearest input points. Outside the range opts.Left / opts.Right decide.
// A NaN frame yields NaN.
func Interpolate(frame float64, input, output []float64, opts Options) (float64, error) {
	if err := CheckRange(input, output); err != nil {
		return 0, err
	}
	if math.IsNaN(frame) {
		return math.NaN(), nil
	}

	n := len(input)
	if n == 1 {
		return output[0], nil
	}

	if frame < input[0] {
		if opts.Left == Clamp {
			return output[0], nil
		}
		return lerp(output[0], output[1], (frame-input[0])/(input[1]-input[0])), nil
	}

	if frame > input[n-1] {
		if opts.Right == Clamp {
			return output[n-1], nil
		}
		return lerp(output[n-2], output[n-1], (frame-input[n-2])/(input[n-1]-input[n-2])), nil
	}

	// first index with input[i] >= frame; frame lies in segment [i-1, i]
	i := sort.SearchFloat64s(input, frame)
	if i == 0 {
		return output[0], nil
	}
	if input[i] == frame {
		return output[i], nil
	}

	t := (frame - input[i-1]) / (input[i] - input[i-1])
	return lerp(output[i-1], output[i], opts.Easing.Apply(t)), nil
}

// MustInterpolate is Interpolate for literal ranges known to be valid
func MustInterpolate(frame float64, input, output []float64, opts Options) float64 {
	v, err := Interpolate(frame, input, output, opts)
	if err != nil {
		panic(err)
	}
	return v
}

// Progress returns clamp((frame-delay)/duration, 0, 1). A non-positive
// duration jumps from 0 to 1 at the delay.
func Progress(frame, delay, duration float64) float64 {
	if duration <= 0 {
		if frame < delay {
			return 0
		}
		return 1
	}
	return clamp01((frame - delay) / duration)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

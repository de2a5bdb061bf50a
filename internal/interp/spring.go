package interp

import (
	"errors"
	"math"
	"sync"
)

// SpringConfig describes a unit-displacement damped harmonic oscillator
type SpringConfig struct {
	Damping           float64 `yaml:"damping"`
	Stiffness         float64 `yaml:"stiffness"`
	Mass              float64 `yaml:"mass"`
	OvershootClamping bool    `yaml:"overshoot_clamping"`
}

// DefaultSpring is slightly underdamped and settles in about a second and a half
var DefaultSpring = SpringConfig{Damping: 10, Stiffness: 100, Mass: 1}

var errBadSpring = errors.New("spring: mass and stiffness must be positive, damping non-negative")

func (c SpringConfig) Validate() error {
	if !(c.Mass > 0) || !(c.Stiffness > 0) || c.Damping < 0 || math.IsNaN(c.Damping) {
		return errBadSpring
	}
	return nil
}

// Spring returns the progress of a spring released at frame offset 0.
// The value is 0 for offset <= 0 and tends to 1; underdamped configs
// overshoot unless OvershootClamping is set. Invalid configs fall back to
// DefaultSpring, fps <= 0 to 30.
func Spring(frameOffset, fps float64, cfg SpringConfig) float64 {
	if !(frameOffset > 0) {
		return 0
	}
	if cfg.Validate() != nil {
		cfg = DefaultSpring
	}
	if !(fps > 0) {
		fps = 30
	}

	tr := trajectoryFor(springKey{fps: fps, cfg: cfg})
	lo := int(math.Floor(frameOffset))
	a, b := tr.samples(lo + 1)
	v := lerp(a, b, frameOffset-float64(lo))
	if cfg.OvershootClamping && v > 1 {
		return 1
	}
	return v
}

type springKey struct {
	fps float64
	cfg SpringConfig
}

// trajectory memoises per-frame samples of one spring. Samples are produced by
// fixed-step semi-implicit Euler integration, so extending the cache later
// yields exactly the values a fresh integration would.
type trajectory struct {
	mu      sync.Mutex
	cfg     SpringConfig
	fps     float64
	dt      float64
	steps   int
	x, v    float64 // displacement from rest and velocity after the last sample
	values  []float64
	settled bool // x and v fell below settleEpsilon; the last sample holds forever
}

// cap on cached frames per spring. Springs still moving past it (little or
// no damping) are evaluated in closed form.
const maxCachedFrames = 1 << 14

const settleEpsilon = 1e-7

var trajectories sync.Map // springKey -> *trajectory

func trajectoryFor(key springKey) *trajectory {
	if tr, ok := trajectories.Load(key); ok {
		return tr.(*trajectory)
	}
	steps := int(math.Max(1, math.Round(1000/key.fps)))
	tr := &trajectory{
		cfg:    key.cfg,
		fps:    key.fps,
		steps:  steps,
		dt:     1 / (key.fps * float64(steps)),
		x:      -1,
		values: []float64{0},
	}
	actual, _ := trajectories.LoadOrStore(key, tr)
	return actual.(*trajectory)
}

// samples returns the progress at frame n-1 and n
func (t *trajectory) samples(n int) (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.values) <= n && !t.settled && len(t.values) <= maxCachedFrames {
		t.advance()
		t.values = append(t.values, 1+t.x)
		if math.Abs(t.x) < settleEpsilon && math.Abs(t.v) < settleEpsilon {
			t.settled = true
		}
	}
	if n < len(t.values) {
		return t.values[n-1], t.values[n]
	}
	if t.settled {
		last := t.values[len(t.values)-1]
		return last, last
	}
	return 1 + t.closedForm(float64(n-1)/t.fps), 1 + t.closedForm(float64(n)/t.fps)
}

// closedForm is the exact displacement at time sec of the oscillator
// released from x=-1 at rest
func (t *trajectory) closedForm(sec float64) float64 {
	k, c, m := t.cfg.Stiffness, t.cfg.Damping, t.cfg.Mass
	w0 := math.Sqrt(k / m)
	zeta := c / (2 * math.Sqrt(k*m))

	switch {
	case zeta < 1:
		wd := w0 * math.Sqrt(1-zeta*zeta)
		return -math.Exp(-zeta*w0*sec) * (math.Cos(wd*sec) + zeta*w0/wd*math.Sin(wd*sec))
	case zeta == 1:
		return -(1 + w0*sec) * math.Exp(-w0*sec)
	default:
		root := math.Sqrt(zeta*zeta - 1)
		r1, r2 := -w0*(zeta-root), -w0*(zeta+root)
		a := r2 / (r1 - r2)
		return a*math.Exp(r1*sec) + (-1-a)*math.Exp(r2*sec)
	}
}

func (t *trajectory) advance() {
	t.x, t.v = t.step(t.x, t.v)
}

// step integrates one frame worth of fixed substeps
func (t *trajectory) step(x, v float64) (float64, float64) {
	k, c, m := t.cfg.Stiffness, t.cfg.Damping, t.cfg.Mass
	for i := 0; i < t.steps; i++ {
		a := (-k*x - c*v) / m
		v += a * t.dt
		x += v * t.dt
	}
	return x, v
}

package motion

import (
	"math"

	"github.com/ivlev/motionreel/internal/interp"
)

// BurstConfig describes a radial particle burst. Optional fields are
// pointers so an explicit zero is kept.
type BurstConfig struct {
	Count        int      `yaml:"count"`
	Radius       float64  `yaml:"radius"`
	Color        string   `yaml:"color"`
	ParticleSize *float64 `yaml:"particle_size,omitempty"` // default 8
	Duration     *int     `yaml:"duration,omitempty"`      // frames, default 30
	Spread       *float64 `yaml:"spread,omitempty"`        // degrees, default 360
	Stagger      *int     `yaml:"stagger,omitempty"`       // frames between launches, default 2
	Decay        float64  `yaml:"decay,omitempty"`         // final opacity
}

// Ptr returns a pointer to v, for the optional BurstConfig fields
func Ptr[T any](v T) *T { return &v }

const (
	defaultParticleSize = 8
	defaultBurstFrames  = 30
	defaultSpread       = 360
	defaultStagger      = 2
)

// withDefaults fills unset fields
func (c BurstConfig) withDefaults() BurstConfig {
	if c.ParticleSize == nil {
		c.ParticleSize = Ptr(float64(defaultParticleSize))
	}
	if c.Duration == nil {
		c.Duration = Ptr(defaultBurstFrames)
	}
	if c.Spread == nil {
		c.Spread = Ptr(float64(defaultSpread))
	}
	if c.Stagger == nil {
		c.Stagger = Ptr(defaultStagger)
	}
	return c
}

// StaggerFrames returns the effective stagger
func (c BurstConfig) StaggerFrames() int {
	return *c.withDefaults().Stagger
}

// CreateBurst lays out Count circles radially. Particle i flies from the
// origin towards angle i*spread/count degrees at Radius, launches i*stagger
// frames late, fades to Decay and shrinks to 20% scale.
func CreateBurst(cfg BurstConfig) []AnimatedShape {
	if cfg.Count <= 0 {
		return nil
	}
	cfg = cfg.withDefaults()

	step := *cfg.Spread / float64(cfg.Count)
	shapes := make([]AnimatedShape, 0, cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		angle := step * float64(i) * math.Pi / 180
		targetX := math.Cos(angle) * cfg.Radius
		targetY := math.Sin(angle) * cfg.Radius

		shapes = append(shapes, AnimateShape(Circle, Animation{
			From: Props{
				PropX:       Num(0),
				PropY:       Num(0),
				PropScale:   Num(1),
				PropOpacity: Num(1),
				PropRadius:  Num(*cfg.ParticleSize),
				PropFill:    Str(cfg.Color),
			},
			To: Props{
				PropX:       Num(targetX),
				PropY:       Num(targetY),
				PropScale:   Num(0.2),
				PropOpacity: Num(cfg.Decay),
				PropRadius:  Num(*cfg.ParticleSize),
				PropFill:    Str(cfg.Color),
			},
			Duration: *cfg.Duration,
			Delay:    i * *cfg.Stagger,
			Easing:   interp.EaseOut,
		}))
	}

	return shapes
}

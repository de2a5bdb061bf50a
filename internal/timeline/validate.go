package timeline

import (
	"errors"
	"fmt"
)

// ErrInvalidTimeline wraps every structural problem found by Validate
var ErrInvalidTimeline = errors.New("invalid timeline")

// Validate checks the structural invariants of a timeline read from outside:
// positive fps, known kinds, StartFrame < EndFrame, unique clip ids.
func Validate(tl Timeline) error {
	if tl.Config.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidTimeline, tl.Config.FPS)
	}
	if tl.Config.DurationInFrames < 0 {
		return fmt.Errorf("%w: negative duration %d", ErrInvalidTimeline, tl.Config.DurationInFrames)
	}

	seen := make(map[string]bool, len(tl.Clips))
	for i, c := range tl.Clips {
		if c.ID == "" {
			return fmt.Errorf("%w: clip %d has no id", ErrInvalidTimeline, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate clip id %q", ErrInvalidTimeline, c.ID)
		}
		seen[c.ID] = true

		if !c.Kind.Valid() {
			return fmt.Errorf("%w: clip %q has unknown kind %q", ErrInvalidTimeline, c.ID, c.Kind)
		}
		if c.StartFrame >= c.EndFrame {
			return fmt.Errorf("%w: clip %q must start before it ends (%d >= %d)", ErrInvalidTimeline, c.ID, c.StartFrame, c.EndFrame)
		}
		if c.TrimStart < 0 || c.TrimEnd < 0 {
			return fmt.Errorf("%w: clip %q has negative trim", ErrInvalidTimeline, c.ID)
		}
		if outOfUnit(c.Volume) {
			return fmt.Errorf("%w: clip %q volume outside [0,1]", ErrInvalidTimeline, c.ID)
		}
		if outOfUnit(c.Opacity) {
			return fmt.Errorf("%w: clip %q opacity outside [0,1]", ErrInvalidTimeline, c.ID)
		}
	}
	return nil
}

func outOfUnit(v *float64) bool {
	return v != nil && (*v < 0 || *v > 1)
}

package director

import (
	"math"
)

// slideDurations splits total seconds over count slides. The first slide
// deviates from the even share by up to 15%, each later one by up to 15%
// from its predecessor, clamped to [MinDwell, MaxDwell] where total allows,
// then everything is scaled back to sum to total.
func (d *Director) slideDurations(total float64, count int) []float64 {
	base := total / float64(count)
	durations := make([]float64, count)

	durations[0] = base * (1 + d.variation())
	for i := 1; i < count; i++ {
		durations[i] = durations[i-1] * (1 + d.variation())
	}

	lo, hi := d.MinDwell, d.MaxDwell
	// the bounds only make sense if total can be met inside them
	if lo*float64(count) <= total && (hi <= 0 || hi*float64(count) >= total) {
		for i := range durations {
			durations[i] = clamp(durations[i], lo, hi)
		}
	}

	sum := 0.0
	for _, v := range durations {
		sum += v
	}
	scale := total / sum
	for i := range durations {
		durations[i] *= scale
	}
	return durations
}

// variation is uniform in [-0.15, 0.15]
func (d *Director) variation() float64 {
	if d.rand == nil {
		return 0
	}
	return d.rand.Float64()*0.3 - 0.15
}

// alignToFrames converts proportional durations into whole frames that sum
// to exactly totalFrames, each at least one frame long. Rounding happens on
// the running total so the error never accumulates.
func alignToFrames(durations []float64, totalFrames int) []int {
	sum := 0.0
	for _, v := range durations {
		sum += v
	}

	out := make([]int, len(durations))
	acc, prev := 0.0, 0
	for i, v := range durations {
		acc += v
		edge := int(math.Round(acc / sum * float64(totalFrames)))
		// leave room for one frame per remaining slide
		if maxEdge := totalFrames - (len(durations) - 1 - i); edge > maxEdge {
			edge = maxEdge
		}
		if edge <= prev {
			edge = prev + 1
		}
		out[i] = edge - prev
		prev = edge
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

package renderer

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

type point struct{ x, y float64 }

func (p point) distance(o point) float64 {
	return math.Hypot(p.x-o.x, p.y-o.y)
}

// parsePath reads the absolute M, L, H, V and Z commands of an SVG path.
// Curves are approximated by their end points.
func parsePath(d string) []point {
	var (
		points  []point
		cmd     rune
		nums    []float64
		current point
		start   point
	)

	flush := func() {
		switch cmd {
		case 'M', 'L', 'T':
			for i := 0; i+1 < len(nums); i += 2 {
				current = point{nums[i], nums[i+1]}
				if cmd == 'M' && i == 0 {
					start = current
				}
				points = append(points, current)
			}
		case 'H':
			for _, x := range nums {
				current.x = x
				points = append(points, current)
			}
		case 'V':
			for _, y := range nums {
				current.y = y
				points = append(points, current)
			}
		case 'C', 'S', 'Q':
			if n := len(nums); n >= 2 {
				current = point{nums[n-2], nums[n-1]}
				points = append(points, current)
			}
		case 'Z':
			if len(points) > 0 {
				current = start
				points = append(points, start)
			}
		}
		nums = nums[:0]
	}

	fields := strings.FieldsFunc(d, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	for _, f := range fields {
		for len(f) > 0 {
			r := rune(f[0])
			if unicode.IsLetter(r) && r != 'e' && r != 'E' {
				flush()
				cmd = unicode.ToUpper(r)
				f = f[1:]
				continue
			}
			end := len(f)
			for i := 1; i < len(f); i++ {
				if unicode.IsLetter(rune(f[i])) && f[i] != 'e' && f[i] != 'E' {
					end = i
					break
				}
			}
			if v, err := strconv.ParseFloat(f[:end], 64); err == nil {
				nums = append(nums, v)
			}
			f = f[end:]
		}
	}
	flush()
	return points
}

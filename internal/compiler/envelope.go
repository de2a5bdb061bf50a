package compiler

import (
	"fmt"
	"strings"
)

// EnvelopeExpr builds an ffmpeg expression over composition time t (seconds)
// that follows the keyframe curve of prop. Segments are linear; easing is
// not reproduced. Without keyframes the expression is the constant fallback.
// Meant for filters evaluated per frame, e.g. volume=eval=frame.
func EnvelopeExpr(seq Sequence, prop string, fps int, fallback float64) string {
	input, output, _ := seq.Curve(prop)
	if len(input) == 0 || fps <= 0 {
		return fmt.Sprintf("%.6f", fallback)
	}
	if len(input) == 1 {
		return fmt.Sprintf("%.6f", output[0])
	}

	rate := float64(fps)
	var expr strings.Builder

	// hold the first value before the curve starts
	fmt.Fprintf(&expr, "if(lt(t,%.6f),%.6f,", input[0]/rate, output[0])
	for i := 0; i < len(input)-1; i++ {
		start, end := input[i]/rate, input[i+1]/rate
		// if(lte(t,end),a+(t-start)/(end-start)*(b-a),...)
		fmt.Fprintf(&expr, "if(lte(t,%.6f),%.6f+(t-%.6f)/%.6f*(%.6f-%.6f),",
			end, output[i], start, end-start, output[i+1], output[i])
	}
	fmt.Fprintf(&expr, "%.6f", output[len(output)-1])
	expr.WriteString(strings.Repeat(")", len(input)))

	return expr.String()
}

package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/motionreel/internal/system"
)

// Report summarises a finished render
type Report struct {
	Build    string
	Output   string
	Frames   int
	Segments int
	Workers  int

	Total  time.Duration
	Encode time.Duration // rendering and encoding overlap
	Concat time.Duration

	PoolAllocated int64
	PoolReused    int64
	Host          system.HostInfo
}

// EffectiveFPS is frames produced per wall-clock second
func (r *Report) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

// Print writes the human readable performance report
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Host: %s (%d CPU, %.1f GiB)\n"+
			"Frames: %d in %d segments, %d workers\n"+
			"Total Time: %.2fs\n"+
			"Render+Encode: %.2fs\n"+
			"Concatenation: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Frame pool: %d allocated, %d reused\n"+
			"----------------------------\n",
		r.Build,
		r.Host.CPUModel, r.Host.LogicalCPUs, float64(r.Host.TotalMemory)/(1<<30),
		r.Frames, r.Segments, r.Workers,
		r.Total.Seconds(), r.Encode.Seconds(), r.Concat.Seconds(),
		r.EffectiveFPS(),
		r.PoolAllocated, r.PoolReused,
	)
}

// LogLine is the one-line benchmark.log entry
func (r *Report) LogLine(now time.Time) string {
	return fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Total: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		now.Format("2006-01-02 15:04:05"),
		r.Build,
		filepath.Base(r.Output),
		r.Frames,
		r.Total.Seconds(),
		r.Encode.Seconds(),
		r.EffectiveFPS(),
	)
}

// AppendBenchmark appends LogLine to the file at path
func (r *Report) AppendBenchmark(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(r.LogLine(time.Now())); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

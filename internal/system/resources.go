package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// framesInFlight is how many frame buffers one worker holds at once:
// the frame being drawn, a scratch layer and the one queued for the encoder
const framesInFlight = 3

// HostInfo describes the machine for performance reports
type HostInfo struct {
	CPUModel       string
	LogicalCPUs    int
	TotalMemory    uint64
	AvailableBytes uint64
}

// Host reads CPU and memory information. Fields that cannot be read are
// left zero.
func Host() HostInfo {
	var h HostInfo
	if n, err := cpu.Counts(true); err == nil {
		h.LogicalCPUs = n
	} else {
		h.LogicalCPUs = runtime.NumCPU()
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		h.CPUModel = infos[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.TotalMemory = vm.Total
		h.AvailableBytes = vm.Available
	}
	return h
}

// RecommendedWorkers sizes the render pool from CPU count and free memory.
// frameBytes is the size of one RGBA frame.
func RecommendedWorkers(frameBytes uint64) int {
	h := Host()
	return recommendWorkers(h.LogicalCPUs, h.AvailableBytes, frameBytes)
}

func recommendWorkers(cpus int, available, frameBytes uint64) int {
	if cpus < 1 {
		cpus = 1
	}
	workers := cpus
	if available > 0 && frameBytes > 0 {
		// keep half the free memory for ffmpeg and the rest of the system
		byMemory := int(available / 2 / (frameBytes * framesInFlight))
		if byMemory < workers {
			workers = byMemory
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

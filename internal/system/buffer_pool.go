package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool reuses RGBA frames of the same size to keep the GC quiet while
// rendering thousands of frames
type ImagePool struct {
	pools sync.Map // image.Rectangle -> *sync.Pool

	allocated atomic.Int64
	reused    atomic.Int64
}

var globalPool = &ImagePool{}

// GetImage returns a frame from the shared pool. Its contents are whatever
// the previous user left; callers clear it.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage returns a frame to the shared pool
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// PoolStats reports how many frames the shared pool allocated and reused
func PoolStats() (allocated, reused int64) {
	return globalPool.allocated.Load(), globalPool.reused.Load()
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	v, _ := p.pools.LoadOrStore(rect, &sync.Pool{})
	pool := v.(*sync.Pool)

	if img, ok := pool.Get().(*image.RGBA); ok {
		p.reused.Add(1)
		return img
	}
	p.allocated.Add(1)
	return image.NewRGBA(rect)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if v, ok := p.pools.Load(img.Rect); ok {
		v.(*sync.Pool).Put(img)
	}
}

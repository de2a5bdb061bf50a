package analyzer

import "image"

// Block is a region of a slide that carries visible content
type Block struct {
	Rect image.Rectangle
}

// Area is the block's size in pixels
func (b Block) Area() int {
	return b.Rect.Dx() * b.Rect.Dy()
}

// Detector finds content blocks in an image
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

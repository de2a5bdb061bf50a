package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"
)

// EncodeStill writes img as png or bmp
func EncodeStill(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported still format %q", format)
	}
}

// SaveStill writes img to path, picking the format from the extension
func SaveStill(path string, img image.Image) error {
	format := "png"
	if strings.HasSuffix(strings.ToLower(path), ".bmp") {
		format = "bmp"
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeStill(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fogleman/gg"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultDPI is used when rendering PDF pages without an explicit dpi
const DefaultDPI = 150

// ImageExtensions are the still images a slideshow accepts
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

var ErrNoSlides = errors.New("no slides found")

// Slides resolves input into an ordered list of still images. A directory
// yields its images sorted by name, a PDF is rendered page by page into
// workDir, anything else is taken as a single image.
func Slides(ctx context.Context, input, workDir string, dpi, workers int, logger *zap.Logger) ([]string, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	var paths []string
	switch {
	case fi.IsDir():
		paths, err = listImages(input)
	case strings.EqualFold(filepath.Ext(input), ".pdf"):
		paths, err = renderPDF(ctx, input, workDir, dpi, workers, logger)
	default:
		paths = []string{input}
	}
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSlides, input)
	}
	return paths, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range ImageExtensions {
			if ext == want {
				paths = append(paths, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// renderPDF writes page_NNNN.png files into workDir. Every worker opens its
// own document handle since fitz documents are not safe for concurrent use.
func renderPDF(ctx context.Context, path, workDir string, dpi, workers int, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if workers <= 0 {
		workers = 1
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	pages := doc.NumPage()
	doc.Close()

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, err
	}

	out := make([]string, pages)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < pages; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			workerDoc, err := fitz.New(path)
			if err != nil {
				return err
			}
			defer workerDoc.Close()

			img, err := workerDoc.ImageDPI(i, float64(dpi))
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			dst := filepath.Join(workDir, pageFileName(i))
			if err := gg.SavePNG(dst, img); err != nil {
				return err
			}
			out[i] = dst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("pdf rendered", zap.String("path", path), zap.Int("pages", pages), zap.Int("dpi", dpi))
	return out, nil
}

func pageFileName(index int) string {
	return fmt.Sprintf("page_%04d.png", index+1)
}

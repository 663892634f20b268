// Package preview renders a JPEG thumbnail of the first page of a cleaned PDF.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Renderer renders page thumbnails with MuPDF.
type Renderer struct {
	DPI      float64
	MaxWidth int
	Quality  int
}

// New returns a renderer with the defaults used for cleaned documents.
func New() *Renderer {
	return &Renderer{DPI: 72, MaxWidth: 480, Quality: 80}
}

// PathFor returns the preview path next to a PDF: report.pdf -> report.preview.jpg.
func PathFor(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".preview.jpg"
}

// Render writes a JPEG of the first page of pdfPath to outPath.
func (r *Renderer) Render(pdfPath, outPath string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return fmt.Errorf("no pages to render")
	}
	img, err := doc.ImageDPI(0, r.DPI)
	if err != nil {
		return fmt.Errorf("failed to render page 1: %w", err)
	}
	thumb := Scale(img, r.MaxWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: r.Quality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return err
	}

	b := thumb.Bounds()
	log.Debug().
		Str("file", outPath).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("jpeg_size", buf.Len()).
		Msg("rendered preview")
	return nil
}

// Scale shrinks img to at most maxWidth pixels wide, keeping its aspect
// ratio. Smaller images are returned unchanged.
func Scale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

package pagefilter

import (
	"errors"
	"fmt"
)

// PageGeometry is the displayed size of a page in document units.
type PageGeometry struct {
	Width  float64
	Height float64
}

// Area returns width*height, or 0 for degenerate pages.
func (g PageGeometry) Area() float64 {
	if g.Width <= 0 || g.Height <= 0 {
		return 0
	}
	return g.Width * g.Height
}

// Landscape reports whether the page is wider than it is tall.
func (g PageGeometry) Landscape() bool { return g.Width > g.Height }

// FullRect returns the untouched page rectangle.
func (g PageGeometry) FullRect() CropRect {
	return CropRect{Left: 0, Top: 0, Right: g.Width, Bottom: g.Height}
}

// ImagePlacement is the bounding box of one embedded image, top-left origin, y down.
type ImagePlacement struct {
	X0, Y0, X1, Y1 float64
}

func (p ImagePlacement) Width() float64  { return p.X1 - p.X0 }
func (p ImagePlacement) Height() float64 { return p.Y1 - p.Y0 }
func (p ImagePlacement) Area() float64   { return p.Width() * p.Height() }

// CropRect is the sub-rectangle of a page that is kept.
type CropRect struct {
	Left, Top, Right, Bottom float64
}

func (r CropRect) Width() float64  { return r.Right - r.Left }
func (r CropRect) Height() float64 { return r.Bottom - r.Top }

// Within reports whether r is a non-empty rectangle inside g.
func (r CropRect) Within(g PageGeometry) bool {
	return r.Left >= 0 && r.Left < r.Right && r.Right <= g.Width &&
		r.Top >= 0 && r.Top < r.Bottom && r.Bottom <= g.Height
}

func (r CropRect) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.Left, r.Top, r.Right, r.Bottom)
}

// MasterDimensions is the single page size used by every output page.
type MasterDimensions struct {
	Width  float64
	Height float64
}

// Decision is the verdict for one source page.
type Decision int

const (
	Keep Decision = iota
	Drop
)

func (d Decision) String() string {
	if d == Drop {
		return "drop"
	}
	return "keep"
}

// Reason explains a Drop decision.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonLandscape Reason = "landscape"
	ReasonCoverage  Reason = "image_coverage"
	ReasonEmpty     Reason = "zero_area"
)

// ImageRef identifies an embedded image on a page (resource name).
type ImageRef string

// Source is the read side of the document collaborator.
type Source interface {
	PageCount() int
	PageGeometry(page int) (PageGeometry, error)
	Images(page int) ([]ImageRef, error)
	ImageBBox(page int, ref ImageRef) (ImagePlacement, error)
}

// ErrNoValidPages is returned when classification keeps nothing.
var ErrNoValidPages = errors.New("no valid pages left after filtering")

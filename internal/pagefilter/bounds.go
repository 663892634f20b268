package pagefilter

const (
	// Horizontal banners span more than this fraction of the page width.
	HorizontalBannerSpan = 0.8
	// Vertical banners span more than this fraction of the page height.
	VerticalBannerSpan = 0.6
	// Banners must sit inside the outer quarter of the page.
	EdgeBand = 0.25
	// HorizontalMargin is added beyond a horizontal banner's inner edge. Vertical banners get none.
	HorizontalMargin = 5.0
	// MinCropSize is the smallest acceptable crop width or height.
	MinCropSize = 200.0
)

// Bounds is the result of estimating one page's crop rectangle.
type Bounds struct {
	Rect     CropRect
	Fallback bool // tightening was discarded by the safety check
	Banners  int  // placements that tightened an edge
}

// EstimateBounds computes the crop rectangle excluding edge banners. When the
// tightened rectangle is narrower or shorter than MinCropSize it returns the full page.
func EstimateBounds(g PageGeometry, placements []ImagePlacement) Bounds {
	r := g.FullRect()
	banners := 0
	for _, p := range placements {
		switch {
		case p.Width() > HorizontalBannerSpan*g.Width:
			if p.Y1 < EdgeBand*g.Height {
				r.Top = max(r.Top, p.Y1+HorizontalMargin)
				banners++
			} else if p.Y0 > (1-EdgeBand)*g.Height {
				r.Bottom = min(r.Bottom, p.Y0-HorizontalMargin)
				banners++
			}
		case p.Height() > VerticalBannerSpan*g.Height:
			if p.X1 < EdgeBand*g.Width {
				r.Left = max(r.Left, p.X1)
				banners++
			} else if p.X0 > (1-EdgeBand)*g.Width {
				r.Right = min(r.Right, p.X0)
				banners++
			}
		}
	}
	if r.Width() < MinCropSize || r.Height() < MinCropSize || !r.Within(g) {
		return Bounds{Rect: g.FullRect(), Fallback: banners > 0, Banners: banners}
	}
	return Bounds{Rect: r, Banners: banners}
}

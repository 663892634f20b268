package pagefilter

import "fmt"

const (
	// MaxImageCoverage is the image-area ratio above which a page is treated as an ad page.
	MaxImageCoverage = 0.85
)

// Verdict is the classification of one page.
type Verdict struct {
	Page     int
	Decision Decision
	Reason   Reason
	Coverage float64
}

// Classification accumulates the outcome of classifying a whole document.
type Classification struct {
	Total    int
	Kept     []int
	Dropped  int
	Verdicts []Verdict
}

// CoverageRatio is the summed image area over page area, 0 for zero-area pages.
// Overlapping placements are not deduplicated.
func CoverageRatio(g PageGeometry, placements []ImagePlacement) float64 {
	area := g.Area()
	if area <= 0 {
		return 0
	}
	var imageArea float64
	for _, p := range placements {
		imageArea += p.Area()
	}
	return imageArea / area
}

// ClassifyPage applies the orientation filter, then the coverage filter. A page
// without area has coverage 0 but is never kept.
func ClassifyPage(g PageGeometry, placements []ImagePlacement) (Decision, Reason, float64) {
	if g.Landscape() {
		return Drop, ReasonLandscape, 0
	}
	ratio := CoverageRatio(g, placements)
	if g.Area() <= 0 {
		return Drop, ReasonEmpty, ratio
	}
	if ratio > MaxImageCoverage {
		return Drop, ReasonCoverage, ratio
	}
	return Keep, ReasonNone, ratio
}

// Classify decides Keep/Drop for every page of src, in source order.
// It returns ErrNoValidPages alongside the accumulated result when nothing is kept.
func Classify(src Source) (Classification, error) {
	res := Classification{Total: src.PageCount()}
	for i := 0; i < res.Total; i++ {
		g, err := src.PageGeometry(i)
		if err != nil {
			return res, fmt.Errorf("page %d geometry: %w", i, err)
		}
		var placements []ImagePlacement
		if !g.Landscape() {
			placements, err = Placements(src, i)
			if err != nil {
				return res, err
			}
		}
		d, reason, ratio := ClassifyPage(g, placements)
		res.Verdicts = append(res.Verdicts, Verdict{Page: i, Decision: d, Reason: reason, Coverage: ratio})
		if d == Drop {
			res.Dropped++
			continue
		}
		res.Kept = append(res.Kept, i)
	}
	if len(res.Kept) == 0 {
		return res, ErrNoValidPages
	}
	return res, nil
}

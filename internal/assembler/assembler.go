package assembler

import (
	"fmt"

	"github.com/local/pdfclean/internal/pagefilter"
	"github.com/rs/zerolog/log"
)

// Target is the write side of the document collaborator. AddPage renders the clip
// rectangle of source page src onto a new output page of exactly width x height.
type Target interface {
	AddPage(src int, clip pagefilter.CropRect, width, height float64) error
}

// PageResult records how one kept page was assembled.
type PageResult struct {
	Source   int
	Crop     pagefilter.CropRect
	Fallback bool
}

// Result is the assembled document summary.
type Result struct {
	Master  pagefilter.MasterDimensions
	Pages   []PageResult
	Dropped int
}

// Master returns the master dimensions: the first kept page's pre-crop geometry.
func Master(src pagefilter.Source, kept []int) (pagefilter.MasterDimensions, error) {
	if len(kept) == 0 {
		return pagefilter.MasterDimensions{}, pagefilter.ErrNoValidPages
	}
	g, err := src.PageGeometry(kept[0])
	if err != nil {
		return pagefilter.MasterDimensions{}, fmt.Errorf("page %d geometry: %w", kept[0], err)
	}
	return pagefilter.MasterDimensions{Width: g.Width, Height: g.Height}, nil
}

// Assemble estimates the crop rectangle of every kept page and appends a
// master-sized page for it to dst, preserving the order of cls.Kept.
func Assemble(src pagefilter.Source, dst Target, cls pagefilter.Classification) (Result, error) {
	master, err := Master(src, cls.Kept)
	if err != nil {
		return Result{}, err
	}
	res := Result{Master: master, Dropped: cls.Dropped, Pages: make([]PageResult, 0, len(cls.Kept))}

	log.Debug().
		Float64("width", master.Width).
		Float64("height", master.Height).
		Int("pages", len(cls.Kept)).
		Msg("master dimensions fixed")

	prev := -1
	for _, idx := range cls.Kept {
		if idx <= prev {
			return res, fmt.Errorf("kept pages out of order: %d after %d", idx, prev)
		}
		prev = idx

		g, err := src.PageGeometry(idx)
		if err != nil {
			return res, fmt.Errorf("page %d geometry: %w", idx, err)
		}
		placements, err := pagefilter.Placements(src, idx)
		if err != nil {
			return res, err
		}
		b := pagefilter.EstimateBounds(g, placements)
		if b.Fallback {
			log.Debug().Int("page", idx).Int("banners", b.Banners).Msg("crop below safety threshold, keeping full page")
		}
		if err := dst.AddPage(idx, b.Rect, master.Width, master.Height); err != nil {
			return res, fmt.Errorf("render page %d: %w", idx, err)
		}
		res.Pages = append(res.Pages, PageResult{Source: idx, Crop: b.Rect, Fallback: b.Fallback})
	}
	return res, nil
}

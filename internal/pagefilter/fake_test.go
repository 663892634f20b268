package pagefilter

import (
	"errors"
	"fmt"
)

type fakePage struct {
	geom       PageGeometry
	images     []fakeImage
	unreadable bool
}

type fakeImage struct {
	ref    ImageRef
	bbox   ImagePlacement
	broken bool
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	pages []fakePage
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageGeometry(page int) (PageGeometry, error) {
	if page < 0 || page >= len(f.pages) {
		return PageGeometry{}, fmt.Errorf("page %d out of range", page)
	}
	return f.pages[page].geom, nil
}

func (f *fakeSource) Images(page int) ([]ImageRef, error) {
	if f.pages[page].unreadable {
		return nil, errors.New("content stream: flate: corrupt input")
	}
	var refs []ImageRef
	for _, im := range f.pages[page].images {
		refs = append(refs, im.ref)
	}
	return refs, nil
}

func (f *fakeSource) ImageBBox(page int, ref ImageRef) (ImagePlacement, error) {
	for _, im := range f.pages[page].images {
		if im.ref == ref {
			if im.broken {
				return ImagePlacement{}, errors.New("image not displayed")
			}
			return im.bbox, nil
		}
	}
	return ImagePlacement{}, errors.New("unknown image")
}

func portrait() PageGeometry { return PageGeometry{Width: 600, Height: 800} }

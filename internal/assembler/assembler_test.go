package assembler

import (
	"errors"
	"testing"

	"github.com/local/pdfclean/internal/pagefilter"
)

type page struct {
	geom   pagefilter.PageGeometry
	images map[pagefilter.ImageRef]pagefilter.ImagePlacement
}

type memSource struct{ pages []page }

func (m *memSource) PageCount() int { return len(m.pages) }

func (m *memSource) PageGeometry(i int) (pagefilter.PageGeometry, error) {
	return m.pages[i].geom, nil
}

func (m *memSource) Images(i int) ([]pagefilter.ImageRef, error) {
	var refs []pagefilter.ImageRef
	for ref := range m.pages[i].images {
		refs = append(refs, ref)
	}
	return refs, nil
}

func (m *memSource) ImageBBox(i int, ref pagefilter.ImageRef) (pagefilter.ImagePlacement, error) {
	bb, ok := m.pages[i].images[ref]
	if !ok {
		return pagefilter.ImagePlacement{}, errors.New("not drawn")
	}
	return bb, nil
}

type added struct {
	src           int
	clip          pagefilter.CropRect
	width, height float64
}

type recorder struct {
	pages []added
	fail  int
}

func (r *recorder) AddPage(src int, clip pagefilter.CropRect, w, h float64) error {
	if r.fail > 0 && src == r.fail {
		return errors.New("render failed")
	}
	r.pages = append(r.pages, added{src: src, clip: clip, width: w, height: h})
	return nil
}

func TestAssembleUsesFirstKeptPageAsMaster(t *testing.T) {
	src := &memSource{pages: []page{
		{geom: pagefilter.PageGeometry{Width: 800, Height: 600}},
		{geom: pagefilter.PageGeometry{Width: 600, Height: 800}, images: map[pagefilter.ImageRef]pagefilter.ImagePlacement{
			"Im1": {X0: 25, Y0: 0, X1: 575, Y1: 100},
		}},
		{geom: pagefilter.PageGeometry{Width: 595, Height: 842}},
	}}
	cls, err := pagefilter.Classify(src)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	rec := &recorder{}
	res, err := Assemble(src, rec, cls)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Master != (pagefilter.MasterDimensions{Width: 600, Height: 800}) {
		t.Fatalf("master = %+v", res.Master)
	}
	if res.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", res.Dropped)
	}
	if len(rec.pages) != 2 {
		t.Fatalf("added %d pages, want 2", len(rec.pages))
	}
	for _, p := range rec.pages {
		if p.width != 600 || p.height != 800 {
			t.Errorf("page %d size = %vx%v, want master", p.src, p.width, p.height)
		}
	}
	if rec.pages[0].src != 1 || rec.pages[1].src != 2 {
		t.Errorf("order = %d,%d", rec.pages[0].src, rec.pages[1].src)
	}
	if rec.pages[0].clip.Top != 105 {
		t.Errorf("first clip = %v, want top 105", rec.pages[0].clip)
	}
	if rec.pages[1].clip != (pagefilter.CropRect{Right: 595, Bottom: 842}) {
		t.Errorf("second clip = %v, want full page", rec.pages[1].clip)
	}
}

func TestAssembleStopsOnRenderError(t *testing.T) {
	src := &memSource{pages: []page{
		{geom: pagefilter.PageGeometry{Width: 600, Height: 800}},
		{geom: pagefilter.PageGeometry{Width: 600, Height: 800}},
	}}
	cls, _ := pagefilter.Classify(src)
	rec := &recorder{fail: 1}
	if _, err := Assemble(src, rec, cls); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.pages) != 1 {
		t.Errorf("added %d pages before failure, want 1", len(rec.pages))
	}
}

func TestAssembleRejectsEmpty(t *testing.T) {
	_, err := Assemble(&memSource{}, &recorder{}, pagefilter.Classification{})
	if !errors.Is(err, pagefilter.ErrNoValidPages) {
		t.Fatalf("err = %v, want ErrNoValidPages", err)
	}
}

package orchestrator

import (
    "context"
    "errors"
    "os"

    "github.com/local/pdfclean/internal/pagefilter"
    "github.com/local/pdfclean/internal/pdfdoc"
    "github.com/local/pdfclean/internal/upload"
)

type fakePage struct {
    geom   pagefilter.PageGeometry
    images []pagefilter.ImagePlacement
}

type addedPage struct {
    src  int
    clip pagefilter.CropRect
    w, h float64
}

// fakeDoc is an in-memory Document. Save writes a stub file so callers can
// observe the output path.
type fakeDoc struct {
    pages   []fakePage
    added   []addedPage
    panicOn int // page index whose geometry lookup panics, -1 for none
    saveErr error
    closed  bool
}

func newFakeDoc(pages ...fakePage) *fakeDoc { return &fakeDoc{pages: pages, panicOn: -1} }

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) PageGeometry(i int) (pagefilter.PageGeometry, error) {
    if i == d.panicOn { panic("boom") }
    return d.pages[i].geom, nil
}

func (d *fakeDoc) Images(i int) ([]pagefilter.ImageRef, error) {
    var refs []pagefilter.ImageRef
    for k := range d.pages[i].images {
        refs = append(refs, pagefilter.ImageRef(rune('a'+k)))
    }
    return refs, nil
}

func (d *fakeDoc) ImageBBox(i int, ref pagefilter.ImageRef) (pagefilter.ImagePlacement, error) {
    k := int([]rune(string(ref))[0] - 'a')
    if k < 0 || k >= len(d.pages[i].images) { return pagefilter.ImagePlacement{}, errors.New("unknown image") }
    return d.pages[i].images[k], nil
}

func (d *fakeDoc) AddPage(src int, clip pagefilter.CropRect, w, h float64) error {
    d.added = append(d.added, addedPage{src: src, clip: clip, w: w, h: h})
    return nil
}

func (d *fakeDoc) Save(path string, _ pdfdoc.SaveOptions) error {
    if d.saveErr != nil { return d.saveErr }
    if len(d.added) == 0 { return ErrNoValidPages }
    return pdfdoc.WriteFileAtomic(path, []byte("%PDF-1.7\n% cleaned\n"))
}

func (d *fakeDoc) Close() error { d.closed = true; return nil }

func openerFor(d *fakeDoc) Opener {
    return func(string) (Document, error) { return d, nil }
}

func portrait() pagefilter.PageGeometry  { return pagefilter.PageGeometry{Width: 600, Height: 800} }
func landscape() pagefilter.PageGeometry { return pagefilter.PageGeometry{Width: 800, Height: 600} }

// fullImage covers the whole portrait page.
func fullImage() pagefilter.ImagePlacement { return pagefilter.ImagePlacement{X0: 0, Y0: 0, X1: 600, Y1: 800} }

type fakeUploader struct {
    link  string
    err   error
    calls []string
}

func (u *fakeUploader) Upload(_ context.Context, path string) (upload.Result, error) {
    u.calls = append(u.calls, path)
    if u.err != nil { return upload.Result{}, u.err }
    return upload.Result{Link: u.link, Strategy: "fake"}, nil
}

type fakePreviewer struct{ err error }

func (p fakePreviewer) Render(_, out string) error {
    if p.err != nil { return p.err }
    return os.WriteFile(out, []byte{0xff, 0xd8, 0xff}, 0o644)
}

type fixedChecker struct{ ok bool }

func (c fixedChecker) IsPDF(string) (bool, error) { return c.ok, nil }

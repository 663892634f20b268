// Package pdfdoc reads and rewrites PDF documents through pdfcpu. A Document
// serves as the page source for classification and as the render target for
// the cleaned output.
package pdfdoc

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfclean/internal/pagefilter"
)

func init() {
	// pdfcpu would otherwise create a config directory under $HOME.
	model.ConfigPath = "disable"
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// letter is the default MediaBox for pages that carry none.
var letter = rect{0, 0, 612, 792}

type page struct {
	dict    types.Dict
	media   rect
	visible rect
	rotate  int
	display Matrix
	geom    pagefilter.PageGeometry

	scanned bool
	images  []string
	placed  map[string]rect
}

// Document is an opened PDF. It is not safe for concurrent use.
type Document struct {
	path  string
	ctx   *model.Context
	pages map[int]*page

	added   []int
	lastSrc int
	pending []pendingStream
}

// Open reads and validates the PDF at path.
func Open(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(path, b)
}

// OpenBytes parses an in-memory PDF. name is used for logging only.
func OpenBytes(name string, b []byte) (*Document, error) {
	ctx, err := api.ReadContext(bytes.NewReader(b), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("pdf validation failed, continuing")
		if err := ctx.EnsurePageCount(); err != nil {
			return nil, fmt.Errorf("pdf page tree: %w", err)
		}
	}
	return &Document{path: name, ctx: ctx, pages: make(map[int]*page), lastSrc: -1}, nil
}

// Close releases the parsed document.
func (d *Document) Close() error {
	d.ctx = nil
	d.pages = nil
	return nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.PageCount
}

func (d *Document) page(i int) (*page, error) {
	if d.ctx == nil {
		return nil, fmt.Errorf("document closed")
	}
	if p, ok := d.pages[i]; ok {
		return p, nil
	}
	if i < 0 || i >= d.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, d.ctx.PageCount)
	}
	dict, _, _, err := d.ctx.PageDict(i+1, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", i, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d: missing page dict", i)
	}
	p := &page{dict: dict}

	p.media = letter
	if o, err := d.inherited(dict, "MediaBox"); err == nil && o != nil {
		if r, ok := d.rectOf(o); ok {
			p.media = r
		}
	}
	p.visible = p.media
	if o, err := d.inherited(dict, "CropBox"); err == nil && o != nil {
		if r, ok := d.rectOf(o); ok {
			if v := r.intersect(p.media); !v.empty() {
				p.visible = v
			}
		}
	}
	if o, err := d.inherited(dict, "Rotate"); err == nil && o != nil {
		if obj, err := d.ctx.Dereference(o); err == nil {
			if f, ok := numberOf(obj); ok {
				p.rotate = ((int(f)%360)+360)%360 / 90 * 90
			}
		}
	}
	p.display = displayMatrix(p.visible, p.rotate)
	p.geom = pagefilter.PageGeometry{Width: p.visible.width(), Height: p.visible.height()}
	if p.rotate == 90 || p.rotate == 270 {
		p.geom.Width, p.geom.Height = p.geom.Height, p.geom.Width
	}
	d.pages[i] = p
	return p, nil
}

// inherited looks key up on the page dict and then along its Parent chain.
// The returned object is not dereferenced.
func (d *Document) inherited(dict types.Dict, key string) (types.Object, error) {
	for depth := 0; dict != nil && depth < 64; depth++ {
		if o, found := dict.Find(key); found {
			return o, nil
		}
		parent, found := dict.Find("Parent")
		if !found {
			return nil, nil
		}
		obj, err := d.ctx.Dereference(parent)
		if err != nil {
			return nil, err
		}
		dict, _ = obj.(types.Dict)
	}
	return nil, nil
}

func (d *Document) rectOf(o types.Object) (rect, bool) {
	obj, err := d.ctx.Dereference(o)
	if err != nil {
		return rect{}, false
	}
	arr, ok := obj.(types.Array)
	if !ok || len(arr) != 4 {
		return rect{}, false
	}
	var v [4]float64
	for i, e := range arr {
		e, err := d.ctx.Dereference(e)
		if err != nil {
			return rect{}, false
		}
		f, ok := numberOf(e)
		if !ok {
			return rect{}, false
		}
		v[i] = f
	}
	r := normRect(v[0], v[1], v[2], v[3])
	return r, !r.empty()
}

// PageGeometry returns the displayed size of page i, rotation applied.
func (d *Document) PageGeometry(i int) (pagefilter.PageGeometry, error) {
	p, err := d.page(i)
	if err != nil {
		return pagefilter.PageGeometry{}, err
	}
	return p.geom, nil
}

// Images lists the image XObjects of page i. Images drawn through forms are
// keyed by their form path, e.g. "Fm0/Im1". Images present in the page
// resources but never drawn are listed too; their bbox lookup fails.
func (d *Document) Images(i int) ([]pagefilter.ImageRef, error) {
	p, err := d.scanned(i)
	if err != nil {
		return nil, err
	}
	refs := make([]pagefilter.ImageRef, 0, len(p.images))
	for _, name := range p.images {
		refs = append(refs, pagefilter.ImageRef(name))
	}
	return refs, nil
}

// ImageBBox returns the display-space rectangle of the first placement of
// ref on page i.
func (d *Document) ImageBBox(i int, ref pagefilter.ImageRef) (pagefilter.ImagePlacement, error) {
	p, err := d.scanned(i)
	if err != nil {
		return pagefilter.ImagePlacement{}, err
	}
	r, ok := p.placed[string(ref)]
	if !ok {
		return pagefilter.ImagePlacement{}, fmt.Errorf("image %s is not drawn on page %d", ref, i)
	}
	dr := transformRect(p.display, r)
	if dr.empty() {
		return pagefilter.ImagePlacement{}, fmt.Errorf("image %s has a degenerate bbox on page %d", ref, i)
	}
	return pagefilter.ImagePlacement{X0: dr.x0, Y0: dr.y0, X1: dr.x1, Y1: dr.y1}, nil
}

func (d *Document) scanned(i int) (*page, error) {
	p, err := d.page(i)
	if err != nil {
		return nil, err
	}
	if p.scanned {
		return p, nil
	}
	content, err := d.pageContent(p.dict)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", i, err)
	}
	xobjs := d.pageXObjects(p.dict)
	s := newImageScanner()
	s.scan(content, xobjs, identity(), "", 0)

	images := s.order
	var undrawn []string
	for _, name := range xobjs.imageNames() {
		if _, drawn := s.placed[name]; !drawn {
			undrawn = append(undrawn, name)
		}
	}
	sort.Strings(undrawn)
	p.images = append(images, undrawn...)
	p.placed = s.placed
	p.scanned = true
	return p, nil
}

func (d *Document) pageXObjects(dict types.Dict) *resourceXObjects {
	res, err := d.inherited(dict, "Resources")
	if err != nil || res == nil {
		return &resourceXObjects{d: d}
	}
	return d.xobjectsOf(res)
}

// pageContent concatenates the decoded content streams of a page.
func (d *Document) pageContent(dict types.Dict) ([]byte, error) {
	o, found := dict.Find("Contents")
	if !found {
		return nil, nil
	}
	obj, err := d.ctx.Dereference(o)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case types.StreamDict:
		return d.decode(v)
	case types.Array:
		var buf bytes.Buffer
		for _, e := range v {
			eo, err := d.ctx.Dereference(e)
			if err != nil {
				return nil, err
			}
			sd, ok := eo.(types.StreamDict)
			if !ok {
				continue
			}
			b, err := d.decode(sd)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected Contents type %T", obj)
}

func (d *Document) decode(sd types.StreamDict) ([]byte, error) {
	if sd.Content != nil {
		return sd.Content, nil
	}
	if err := sd.Decode(); err != nil {
		return nil, err
	}
	return sd.Content, nil
}

// resourceXObjects resolves XObject names against a resource dictionary.
type resourceXObjects struct {
	d     *Document
	xobjs types.Dict
}

func (d *Document) xobjectsOf(res types.Object) *resourceXObjects {
	r := &resourceXObjects{d: d}
	obj, err := d.ctx.Dereference(res)
	if err != nil {
		return r
	}
	rd, ok := obj.(types.Dict)
	if !ok {
		return r
	}
	if xo, found := rd.Find("XObject"); found {
		if xobj, err := d.ctx.Dereference(xo); err == nil {
			r.xobjs, _ = xobj.(types.Dict)
		}
	}
	return r
}

func (r *resourceXObjects) stream(name string) (types.StreamDict, error) {
	o, found := r.xobjs.Find(name)
	if !found {
		return types.StreamDict{}, fmt.Errorf("xobject %s not in resources", name)
	}
	obj, err := r.d.ctx.Dereference(o)
	if err != nil {
		return types.StreamDict{}, err
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return types.StreamDict{}, fmt.Errorf("xobject %s is %T", name, obj)
	}
	return sd, nil
}

func subtypeOf(sd types.StreamDict) string {
	if o, found := sd.Dict.Find("Subtype"); found {
		if n, ok := o.(types.Name); ok {
			return string(n)
		}
	}
	return ""
}

func (r *resourceXObjects) xobject(name string) (string, *formXObject, error) {
	sd, err := r.stream(name)
	if err != nil {
		return "", nil, err
	}
	kind := subtypeOf(sd)
	if kind != "Form" {
		return kind, nil, nil
	}
	content, err := r.d.decode(sd)
	if err != nil {
		return "", nil, fmt.Errorf("form %s: %w", name, err)
	}
	f := &formXObject{content: content, matrix: identity()}
	if o, found := sd.Dict.Find("Matrix"); found {
		if obj, err := r.d.ctx.Dereference(o); err == nil {
			if m, ok := matrixOf(obj); ok {
				f.matrix = m
			}
		}
	}
	if o, found := sd.Dict.Find("Resources"); found {
		f.resources = r.d.xobjectsOf(o)
	}
	return kind, f, nil
}

func (r *resourceXObjects) imageNames() []string {
	var names []string
	for name := range r.xobjs {
		sd, err := r.stream(name)
		if err != nil {
			continue
		}
		if subtypeOf(sd) == "Image" {
			names = append(names, name)
		}
	}
	return names
}

package pdfdoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/local/pdfclean/internal/pagefilter"
)

// sourceFormName is the resource name of the wrapped original page content.
const sourceFormName = "PcSrc"

// page-level entries that no longer apply once the page is re-framed.
var droppedPageKeys = []string{"BleedBox", "TrimBox", "ArtBox", "Annots", "Thumb", "B"}

// AddPage rewrites source page src in place so that it shows only clip
// (display coordinates) stretched onto a width x height page. Pages must be
// added in strictly increasing source order; Save keeps only added pages.
func (d *Document) AddPage(src int, clip pagefilter.CropRect, width, height float64) error {
	if src <= d.lastSrc {
		return fmt.Errorf("page %d added out of order after %d", src, d.lastSrc)
	}
	if clip.Width() <= 0 || clip.Height() <= 0 || width <= 0 || height <= 0 {
		return fmt.Errorf("page %d: degenerate clip %s or size %.1fx%.1f", src, clip, width, height)
	}
	p, err := d.page(src)
	if err != nil {
		return err
	}
	form := types.NewDict()
	form["Type"] = types.Name("XObject")
	form["Subtype"] = types.Name("Form")
	form["BBox"] = numberArray(p.media.x0, p.media.y0, p.media.x1, p.media.y1)
	if res, err := d.inherited(p.dict, "Resources"); err == nil && res != nil {
		form["Resources"] = res
	} else {
		form["Resources"] = types.NewDict()
	}
	var formRef *types.IndirectRef
	if content, cerr := d.pageContent(p.dict); cerr == nil {
		formRef, err = d.newStream(form, content)
	} else {
		formRef, err = d.rawForm(p.dict, form)
		if err != nil {
			err = fmt.Errorf("%v (decode: %w)", err, cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("page %d form: %w", src, err)
	}

	m := p.display.Mult(fitMatrix(rect{clip.Left, clip.Top, clip.Right, clip.Bottom}, width, height))
	var wrap strings.Builder
	fmt.Fprintf(&wrap, "q 0 0 %s %s re W n %s cm /%s Do Q\n",
		num(width), num(height), matrixString(m), sourceFormName)
	wrapRef, err := d.newStream(types.NewDict(), []byte(wrap.String()))
	if err != nil {
		return fmt.Errorf("page %d content: %w", src, err)
	}

	box := numberArray(0, 0, width, height)
	p.dict["MediaBox"] = box
	p.dict["CropBox"] = numberArray(0, 0, width, height)
	p.dict["Rotate"] = types.Integer(0)
	p.dict["Resources"] = types.Dict{"XObject": types.Dict{sourceFormName: *formRef}}
	p.dict["Contents"] = *wrapRef
	for _, k := range droppedPageKeys {
		delete(p.dict, k)
	}

	// The cached geometry described the old page.
	delete(d.pages, src)
	d.added = append(d.added, src)
	d.lastSrc = src
	return nil
}

// rawForm wraps a content stream that cannot be decoded as a form XObject,
// copying its encoded bytes and filters unchanged.
func (d *Document) rawForm(page, form types.Dict) (*types.IndirectRef, error) {
	o, found := page.Find("Contents")
	if !found {
		return nil, fmt.Errorf("page has no contents")
	}
	obj, err := d.ctx.Dereference(o)
	if err != nil {
		return nil, err
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("contents is %T, not a single stream", obj)
	}
	dict := form.Clone().(types.Dict)
	for _, k := range []string{"Filter", "DecodeParms"} {
		if v, found := sd.Dict.Find(k); found {
			dict[k] = v
		}
	}
	n := int64(len(sd.Raw))
	dict["Length"] = types.Integer(n)
	raw := types.StreamDict{Dict: dict, Raw: sd.Raw, StreamLength: &n, FilterPipeline: sd.FilterPipeline}
	return d.ctx.IndRefForNewObject(raw)
}

// Added returns the source indices rendered so far.
func (d *Document) Added() []int { return append([]int(nil), d.added...) }

// pendingStream is a stream created by AddPage. It is encoded by Save, once
// the filter choice is known.
type pendingStream struct {
	objNr   int
	dict    types.Dict
	content []byte
}

func (d *Document) newStream(dict types.Dict, content []byte) (*types.IndirectRef, error) {
	sd, err := encodeStream(dict, content, true)
	if err != nil {
		return nil, err
	}
	ref, err := d.ctx.IndRefForNewObject(sd)
	if err != nil {
		return nil, err
	}
	d.pending = append(d.pending, pendingStream{objNr: ref.ObjectNumber.Value(), dict: dict, content: content})
	return ref, nil
}

func encodeStream(dict types.Dict, content []byte, deflate bool) (types.StreamDict, error) {
	dict = dict.Clone().(types.Dict)
	delete(dict, "Filter")
	sd := types.StreamDict{Dict: dict, Content: content}
	if deflate {
		sd.FilterPipeline = []types.PDFFilter{{Name: filter.Flate}}
		sd.Dict["Filter"] = types.Name(filter.Flate)
	}
	if err := sd.Encode(); err != nil {
		return sd, err
	}
	n := int64(len(sd.Raw))
	sd.StreamLength = &n
	sd.Dict["Length"] = types.Integer(n)
	return sd, nil
}

// encodePending re-encodes the streams written by AddPage with or without
// Flate.
func (d *Document) encodePending(deflate bool) error {
	for _, ps := range d.pending {
		entry, ok := d.ctx.Table[ps.objNr]
		if !ok || entry == nil {
			return fmt.Errorf("object %d missing from xref table", ps.objNr)
		}
		sd, err := encodeStream(ps.dict, ps.content, deflate)
		if err != nil {
			return fmt.Errorf("object %d: %w", ps.objNr, err)
		}
		entry.Object = sd
	}
	return nil
}

func numberArray(vals ...float64) types.Array {
	a := make(types.Array, len(vals))
	for i, v := range vals {
		a[i] = types.Float(v)
	}
	return a
}

// num formats f without exponent, as PDF syntax requires.
func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', 5, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func matrixString(m Matrix) string {
	parts := make([]string, 6)
	for i, v := range m {
		parts[i] = num(v)
	}
	return strings.Join(parts, " ")
}

// SaveOptions controls output serialization.
type SaveOptions struct {
	// Compaction > 0 runs pdfcpu's optimizer and writes object and xref
	// streams.
	Compaction int
	// Deflate compresses the page streams written by AddPage.
	Deflate bool
}

// Save writes the added pages, in order, to path. The file is written to a
// temporary sibling and renamed into place.
func (d *Document) Save(path string, opts SaveOptions) error {
	if d.ctx == nil {
		return fmt.Errorf("document closed")
	}
	if len(d.added) == 0 {
		return pagefilter.ErrNoValidPages
	}
	if err := d.encodePending(opts.Deflate); err != nil {
		return err
	}
	var full bytes.Buffer
	if err := api.WriteContext(d.ctx, &full); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	sel := make([]string, len(d.added))
	for i, src := range d.added {
		sel[i] = strconv.Itoa(src + 1)
	}
	conf := newConfiguration()
	var trimmed bytes.Buffer
	if err := api.Trim(bytes.NewReader(full.Bytes()), &trimmed, sel, conf); err != nil {
		return fmt.Errorf("trim pdf: %w", err)
	}

	out := trimmed.Bytes()
	if opts.Compaction > 0 {
		conf := newConfiguration()
		conf.WriteObjectStream = true
		conf.WriteXRefStream = true
		var optimized bytes.Buffer
		if err := api.Optimize(bytes.NewReader(out), &optimized, conf); err != nil {
			return fmt.Errorf("optimize pdf: %w", err)
		}
		out = optimized.Bytes()
	}
	return WriteFileAtomic(path, out)
}

// SaveTempPrefix starts the name of every temporary file WriteFileAtomic
// creates: .pdfclean-<base>.<8 hex>.tmp
const SaveTempPrefix = ".pdfclean-"

// WriteFileAtomic writes b next to path and renames it into place.
func WriteFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, SaveTempPrefix+filepath.Base(path)+"."+uuid.NewString()[:8]+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

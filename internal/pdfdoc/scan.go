package pdfdoc

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"
)

// maxFormDepth bounds recursion into nested form XObjects.
const maxFormDepth = 8

// xobjectResolver looks up XObjects by resource name. The document
// implementation dereferences pdfcpu objects; tests use a map.
type xobjectResolver interface {
	// xobject returns the kind ("Image" or "Form") of the named XObject and,
	// for forms, a resolver for the form's own resources, its content and
	// its matrix.
	xobject(name string) (kind string, form *formXObject, err error)
}

type formXObject struct {
	content   []byte
	matrix    Matrix
	resources xobjectResolver
}

// imageScanner walks a content stream and records where image XObjects are
// drawn, in PDF user space of the page.
type imageScanner struct {
	order  []string
	placed map[string]rect
}

func newImageScanner() *imageScanner {
	return &imageScanner{placed: make(map[string]rect)}
}

func (s *imageScanner) scan(content []byte, res xobjectResolver, ctm Matrix, prefix string, depth int) {
	stack := []Matrix{}
	parseOperations(content, func(op operation) {
		switch op.op {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if n := len(stack); n > 0 {
				ctm = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			m, ok := matrixOperand(op.operands)
			if !ok {
				return
			}
			ctm = m.Mult(ctm)
		case "Do":
			if len(op.operands) == 0 || op.operands[len(op.operands)-1].kind != tokName || res == nil {
				return
			}
			name := op.operands[len(op.operands)-1].text
			s.invoke(name, res, ctm, prefix, depth)
		}
	})
}

func (s *imageScanner) invoke(name string, res xobjectResolver, ctm Matrix, prefix string, depth int) {
	kind, form, err := res.xobject(name)
	if err != nil {
		log.Debug().Err(err).Str("xobject", name).Msg("unresolvable xobject")
		return
	}
	switch kind {
	case "Image":
		key := prefix + name
		if _, seen := s.placed[key]; seen {
			return
		}
		s.order = append(s.order, key)
		s.placed[key] = transformRect(ctm, rect{0, 0, 1, 1})
	case "Form":
		if form == nil || depth >= maxFormDepth {
			return
		}
		inner := form.resources
		if inner == nil {
			inner = res
		}
		s.scan(form.content, inner, form.matrix.Mult(ctm), prefix+name+"/", depth+1)
	}
}

func matrixOperand(ops []token) (Matrix, bool) {
	if len(ops) < 6 {
		return Matrix{}, false
	}
	ops = ops[len(ops)-6:]
	var m Matrix
	for i, t := range ops {
		if t.kind != tokNumber {
			return Matrix{}, false
		}
		m[i] = t.num
	}
	return m, true
}

// numberOf converts a pdfcpu numeric object.
func numberOf(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

func matrixOf(o types.Object) (Matrix, bool) {
	arr, ok := o.(types.Array)
	if !ok || len(arr) != 6 {
		return Matrix{}, false
	}
	var m Matrix
	for i, e := range arr {
		f, ok := numberOf(e)
		if !ok {
			return Matrix{}, false
		}
		m[i] = f
	}
	return m, true
}

package pdfdoc

import (
	"bytes"
	"strconv"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokString
	tokArray
	tokDict
	tokKeyword
)

type token struct {
	kind tokenKind
	num  float64
	text string
}

// operation is one content-stream operator with the operands preceding it.
type operation struct {
	op       string
	operands []token
}

// lexer tokenizes page content streams. It understands just enough of the
// syntax to track graphics state and XObject invocations.
type lexer struct {
	buf []byte
	pos int
}

func newLexer(b []byte) *lexer { return &lexer{buf: b} }

func isWhitespace(c byte) bool {
	return c == 0 || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.buf) {
		c := l.buf[l.pos]
		if isWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.buf) && l.buf[l.pos] != '\n' && l.buf[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// next returns the next token, or false at end of input.
func (l *lexer) next() (token, bool) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.buf) {
		return token{}, false
	}
	c := l.buf[l.pos]
	switch {
	case c == '/':
		l.pos++
		return token{kind: tokName, text: l.readName()}, true
	case c == '(':
		return token{kind: tokString, text: l.readString()}, true
	case c == '<':
		if l.pos+1 < len(l.buf) && l.buf[l.pos+1] == '<' {
			l.pos += 2
			l.readUntil(">>")
			return token{kind: tokDict}, true
		}
		return token{kind: tokString, text: l.readHexString()}, true
	case c == '[':
		l.pos++
		l.readUntil("]")
		return token{kind: tokArray}, true
	case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
		// stray closer; skip it
		l.pos++
		return l.next()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		start := l.pos
		for l.pos < len(l.buf) && !isWhitespace(l.buf[l.pos]) && !isDelimiter(l.buf[l.pos]) {
			l.pos++
		}
		s := string(l.buf[start:l.pos])
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return token{kind: tokKeyword, text: s}, true
		}
		return token{kind: tokNumber, num: f}, true
	default:
		start := l.pos
		for l.pos < len(l.buf) && !isWhitespace(l.buf[l.pos]) && !isDelimiter(l.buf[l.pos]) {
			l.pos++
		}
		return token{kind: tokKeyword, text: string(l.buf[start:l.pos])}, true
	}
}

// readUntil consumes nested tokens until the closing delimiter is found.
func (l *lexer) readUntil(closer string) {
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.buf) {
			return
		}
		if bytes.HasPrefix(l.buf[l.pos:], []byte(closer)) {
			l.pos += len(closer)
			return
		}
		if _, ok := l.next(); !ok {
			return
		}
	}
}

func (l *lexer) readName() string {
	var b []byte
	for l.pos < len(l.buf) {
		c := l.buf[l.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && l.pos+2 < len(l.buf) {
			if v, err := strconv.ParseUint(string(l.buf[l.pos+1:l.pos+3]), 16, 8); err == nil {
				b = append(b, byte(v))
				l.pos += 3
				continue
			}
		}
		b = append(b, c)
		l.pos++
	}
	return string(b)
}

func (l *lexer) readString() string {
	l.pos++ // (
	depth := 1
	start := l.pos
	for l.pos < len(l.buf) {
		c := l.buf[l.pos]
		switch c {
		case '\\':
			l.pos += 2
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s := string(l.buf[start:l.pos])
				l.pos++
				return s
			}
		}
		l.pos++
	}
	return string(l.buf[start:])
}

func (l *lexer) readHexString() string {
	l.pos++ // <
	start := l.pos
	for l.pos < len(l.buf) && l.buf[l.pos] != '>' {
		l.pos++
	}
	s := string(l.buf[start:l.pos])
	if l.pos < len(l.buf) {
		l.pos++
	}
	return s
}

// skipInlineImage moves past the binary data of an inline image, which starts
// after the ID operator and ends at a whitespace-delimited EI.
func (l *lexer) skipInlineImage() {
	if l.pos < len(l.buf) && isWhitespace(l.buf[l.pos]) {
		l.pos++
	}
	for i := l.pos; i+1 < len(l.buf); i++ {
		if l.buf[i] != 'E' || l.buf[i+1] != 'I' {
			continue
		}
		before := i == 0 || isWhitespace(l.buf[i-1])
		after := i+2 >= len(l.buf) || isWhitespace(l.buf[i+2])
		if before && after {
			l.pos = i + 2
			return
		}
	}
	l.pos = len(l.buf)
}

// parseOperations calls fn for every operator in content, in order.
func parseOperations(content []byte, fn func(operation)) {
	l := newLexer(content)
	var operands []token
	for {
		t, ok := l.next()
		if !ok {
			return
		}
		if t.kind != tokKeyword {
			operands = append(operands, t)
			continue
		}
		switch t.text {
		case "true", "false", "null":
			operands = append(operands, t)
			continue
		case "ID":
			l.skipInlineImage()
			operands = operands[:0]
			continue
		}
		fn(operation{op: t.text, operands: operands})
		operands = operands[:0]
	}
}

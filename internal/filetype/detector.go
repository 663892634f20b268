// Package filetype sniffs input files by content, not by name.
package filetype

import (
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// sniffLen matches the header size mimetype inspects by default.
const sniffLen = 3072

// Info is the detected type of a file.
type Info struct {
	MIME      string
	Extension string
}

// PDF reports whether the detected type is a PDF.
func (i Info) PDF() bool { return mimetype.EqualsAny(i.MIME, "application/pdf", "application/x-pdf") }

// Detector checks input files before they are handed to the PDF parser.
type Detector struct{}

func New() *Detector { return &Detector{} }

// Sniff reads the head of path and detects its type.
func (d *Detector) Sniff(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	m, err := mimetype.DetectReader(io.LimitReader(f, sniffLen))
	if err != nil {
		return Info{}, fmt.Errorf("sniff %s: %w", path, err)
	}
	info := Info{MIME: m.String(), Extension: m.Extension()}
	log.Debug().Str("file", path).Str("mime", info.MIME).Msg("input sniffed")
	return info, nil
}

// IsPDF reports whether path holds a PDF regardless of its extension.
func (d *Detector) IsPDF(path string) (bool, error) {
	info, err := d.Sniff(path)
	if err != nil {
		return false, err
	}
	return info.PDF(), nil
}

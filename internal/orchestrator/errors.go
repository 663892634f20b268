package orchestrator

import (
    "errors"
    "fmt"

    "github.com/local/pdfclean/internal/pagefilter"
)

// ErrInputNotFound is returned when the input file does not exist.
var ErrInputNotFound = errors.New("input file not found")

// ErrNotPDF is returned when the input is not a PDF by content.
var ErrNotPDF = errors.New("input is not a PDF")

// ErrNoValidPages is returned when every page was dropped.
var ErrNoValidPages = pagefilter.ErrNoValidPages

// ProcessingError is an unexpected failure in one stage of a clean run.
type ProcessingError struct {
    Stage string // detect | open | classify | assemble | write
    Err   error
}

func (e *ProcessingError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *ProcessingError) Unwrap() error { return e.Err }

// runResult maps an error to the label used in metrics and status.
func runResult(err error) string {
    var pe *ProcessingError
    switch {
    case err == nil:
        return "success"
    case errors.Is(err, ErrInputNotFound):
        return "not_found"
    case errors.Is(err, ErrNoValidPages):
        return "no_valid_pages"
    case errors.As(err, &pe):
        return "error"
    }
    return "error"
}

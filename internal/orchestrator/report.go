package orchestrator

import (
    "encoding/json"
    "errors"
    "fmt"
)

// Report is the single outcome of a clean run. Exactly one of a success
// (OutputPath, optionally Link) or a failure (Error) is set.
type Report struct {
    Success      bool   `json:"success"`
    Message      string `json:"message"`
    Error        string `json:"error,omitempty"`
    DroppedPages int    `json:"dropped_pages"`
    KeptPages    int    `json:"kept_pages"`
    TotalPages   int    `json:"total_pages"`
    OutputPath   string `json:"output_path,omitempty"`
    Link         string `json:"link,omitempty"`
    PreviewPath  string `json:"preview_path,omitempty"`
    DurationMS   int64  `json:"duration_ms"`
    JobID        string `json:"job_id,omitempty"`

    err error
}

// Err returns the failure cause, nil on success.
func (r Report) Err() error { return r.err }

// String returns the human-readable outcome line.
func (r Report) String() string { return r.Message }

// JSON returns the report encoded as JSON.
func (r Report) JSON() []byte {
    b, _ := json.Marshal(r)
    return b
}

func successReport(path, link string, dropped int) Report {
    r := Report{Success: true, OutputPath: path, Link: link, DroppedPages: dropped}
    if link != "" {
        r.Message = fmt.Sprintf("Success! Clean PDF available at: %s. Removed %d pages.", link, dropped)
    } else {
        r.Message = fmt.Sprintf("Success! Clean PDF saved to: %s. Removed %d pages.", path, dropped)
    }
    return r
}

func failureReport(input string, err error) Report {
    msg := failureMessage(input, err)
    return Report{Success: false, Message: "Error: " + msg, Error: msg, err: err}
}

func failureMessage(input string, err error) string {
    var pe *ProcessingError
    switch {
    case errors.Is(err, ErrInputNotFound):
        return fmt.Sprintf("input file does not exist: '%s'", input)
    case errors.Is(err, ErrNoValidPages):
        return "no valid pages left after filtering."
    case errors.Is(err, ErrNotPDF):
        return fmt.Sprintf("input is not a PDF: '%s'", input)
    case errors.As(err, &pe):
        return fmt.Sprintf("critical failure while processing the PDF: %v", pe.Err)
    }
    return fmt.Sprintf("critical failure while processing the PDF: %v", err)
}

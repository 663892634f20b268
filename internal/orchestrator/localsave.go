package orchestrator

import (
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"
)

// SaveUploadToLocal persists an uploaded input under dir as <jobID>_<name>
// and returns its path.
func SaveUploadToLocal(dir, jobID, name string, r io.Reader) (string, error) {
    dir = orDefault(dir, defaultUploadDir)
    if err := os.MkdirAll(dir, 0o755); err != nil { return "", err }
    name = filepath.Base(name)
    if name == "" || name == "." || name == string(filepath.Separator) { name = "upload.pdf" }
    p := filepath.Join(dir, fmt.Sprintf("%s_%s", jobID, name))
    f, err := os.Create(p)
    if err != nil { return "", err }
    if _, err := io.Copy(f, r); err != nil {
        f.Close()
        _ = os.Remove(p)
        return "", err
    }
    return p, f.Close()
}

// ResultPath is where the HTTP surface writes the cleaned output of a job.
// Directory defaults to ./uploads/results.
func ResultPath(dir, jobID string) string {
    dir = orDefault(dir, defaultResultDir)
    return filepath.Join(dir, fmt.Sprintf("%s_clean.pdf", jobID))
}

var (
    defaultUploadDir = "uploads"
    defaultResultDir = filepath.Join("uploads", "results")
)

func orDefault(dir, def string) string {
    if dir == "" { return def }
    return dir
}

// ErrOutsideDir rejects a client-supplied path that resolves outside the
// directory it is confined to.
var ErrOutsideDir = errors.New("path outside allowed directory")

// ConfinePath resolves p inside root. Relative paths are taken relative to
// root. Symlinks in the existing part of either path are followed before
// the check, so a link pointing out of root is rejected.
func ConfinePath(root, p string) (string, error) {
    base, err := realPath(root)
    if err != nil { return "", err }
    if !filepath.IsAbs(p) { p = filepath.Join(base, p) }
    full, err := realPath(p)
    if err != nil { return "", err }
    rel, err := filepath.Rel(base, full)
    if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
        return "", fmt.Errorf("%w: %s", ErrOutsideDir, p)
    }
    return full, nil
}

// realPath makes p absolute and resolves symlinks in its longest existing
// prefix.
func realPath(p string) (string, error) {
    abs, err := filepath.Abs(p)
    if err != nil { return "", err }
    dir, rest := abs, ""
    for {
        if r, err := filepath.EvalSymlinks(dir); err == nil {
            return filepath.Join(r, rest), nil
        }
        parent := filepath.Dir(dir)
        if parent == dir { return abs, nil }
        rest = filepath.Join(filepath.Base(dir), rest)
        dir = parent
    }
}

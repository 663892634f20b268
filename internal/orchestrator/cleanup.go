package orchestrator

import (
    "os"
    "path/filepath"
    "regexp"
    "strings"
    "time"

    "github.com/local/pdfclean/internal/pdfdoc"
)

// saveTempName matches pdfdoc.WriteFileAtomic temps and nothing else.
var saveTempName = regexp.MustCompile(`^` + regexp.QuoteMeta(pdfdoc.SaveTempPrefix) + `.+\.[0-9a-f]{8}\.tmp$`)

// CleanupTemps removes fetched input downloads (pdfclean-dl-*) and abandoned
// atomic-save temps older than maxAge. It only scans the top level of each
// directory.
func CleanupTemps(maxAge time.Duration, dirs ...string) int {
    if len(dirs) == 0 { dirs = []string{os.TempDir()} }
    now := time.Now()
    removed := 0
    for _, dir := range dirs {
        entries, err := os.ReadDir(dir)
        if err != nil { continue }
        for _, e := range entries {
            if e.IsDir() { continue }
            name := e.Name()
            stale := strings.HasPrefix(name, downloadPrefix) ||
                saveTempName.MatchString(name)
            if !stale { continue }
            info, err := e.Info()
            if err != nil { continue }
            if now.Sub(info.ModTime()) >= maxAge {
                if os.Remove(filepath.Join(dir, name)) == nil { removed++ }
            }
        }
    }
    return removed
}

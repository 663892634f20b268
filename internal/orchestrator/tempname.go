package orchestrator

import (
    "path/filepath"
    "strings"
    "unicode"

    "github.com/google/uuid"
    "golang.org/x/text/runes"
    "golang.org/x/text/transform"
    "golang.org/x/text/unicode/norm"
)

// asciiBase folds an input file name to a safe ASCII stem:
// "Apuntes Tema 3 – Álgebra.pdf" -> "Apuntes_Tema_3_Algebra".
func asciiBase(input string) string {
    stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
    t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
    folded, _, err := transform.String(t, stem)
    if err != nil { folded = stem }

    var b strings.Builder
    lastUnderscore := false
    for _, r := range folded {
        ok := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.')
        if ok {
            b.WriteRune(r)
            lastUnderscore = false
            continue
        }
        if !lastUnderscore && b.Len() > 0 {
            b.WriteByte('_')
            lastUnderscore = true
        }
    }
    s := strings.Trim(b.String(), "_.-")
    if s == "" { s = "document" }
    return s
}

// TempOutputPath returns <dir>/<ascii-base>_clean_<8 hex>.pdf for input.
func TempOutputPath(dir, input string) string {
    id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
    return filepath.Join(dir, asciiBase(input)+"_clean_"+id+".pdf")
}

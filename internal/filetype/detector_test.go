package filetype

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsPDF(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"doc.pdf", "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n", true},
		{"renamed.bin", "%PDF-1.4\n", true},
		{"fake.pdf", "hello, this is plain text", false},
		{"image.pdf", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR", false},
	}
	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, tt.name)
			if err := os.WriteFile(p, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := d.IsPDF(p)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("IsPDF = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPDFMissingFile(t *testing.T) {
	if _, err := New().IsPDF(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSniffReportsMIME(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x")
	if err := os.WriteFile(p, []byte("%PDF-1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := New().Sniff(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.MIME != "application/pdf" || info.Extension != ".pdf" || !info.PDF() {
		t.Fatalf("info = %+v", info)
	}
}

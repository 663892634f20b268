package storage

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		in          string
		bucket, key string
		wantErr     bool
	}{
		{"s3://docs/a/b.pdf", "docs", "a/b.pdf", false},
		{"s3://docs/", "", "", true},
		{"s3:///key", "", "", true},
		{"https://docs/key", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, k, err := ParseURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if b != tt.bucket || k != tt.key {
				t.Fatalf("got %q %q", b, k)
			}
		})
	}
}

func TestBucketName(t *testing.T) {
	if got := bucketName("s3://docs/"); got != "docs" {
		t.Fatalf("got %q", got)
	}
}

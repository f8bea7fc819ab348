package files

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestProductKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		productID int64
		fileName  string
		want      string
	}{
		{1, "bcs011.pdf", "products/1/bcs011.pdf"},
		{42, "solved assignment.pdf", "products/42/solved assignment.pdf"},
		{7, "../../etc/passwd", "products/7/passwd"},
		{7, "/absolute/path.pdf", "products/7/path.pdf"},
	}

	for _, tt := range tests {
		if got := ProductKey(tt.productID, tt.fileName); got != tt.want {
			t.Errorf("ProductKey(%d, %q) = %q, want %q", tt.productID, tt.fileName, got, tt.want)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	if got := ContentTypeFor("notes.pdf"); got != "application/pdf" {
		t.Errorf("pdf: got %q", got)
	}
	if got := ContentTypeFor("archive.bin.unknownext"); got != "application/octet-stream" {
		t.Errorf("unknown extension: got %q", got)
	}
	if got := ContentTypeFor("page.html"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("html: got %q", got)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	original := bytes.Repeat([]byte("order ORD-ABC delivered bcs011.pdf\n"), 100)

	compressed, err := Compress(original)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(compressed) >= len(original) {
		t.Errorf("repetitive input did not shrink: %d -> %d", len(original), len(compressed))
	}

	restored, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(restored, original) {
		t.Error("round trip does not reproduce input")
	}
}

func TestDecompressGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Decompress([]byte("definitely not zstd")); err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Endpoint: "https://example.com"})
	if err == nil {
		t.Error("expected error for incomplete config")
	}
}

package hafas

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
)

func TestReadResponse(t *testing.T) {
	content := newResponse(s2Trip()).Build()
	var gzipped bytes.Buffer
	w := gzip.NewWriter(&gzipped)
	if _, err := w.Write(content); err != nil {
		t.Fatalf("failed to gzip: %s", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to gzip: %s", err)
	}

	for _, tc := range []struct {
		desc  string
		input []byte
	}{
		{"raw", content},
		{"gzipped", gzipped.Bytes()},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			actual, err := ReadResponse(bytes.NewReader(tc.input))
			if err != nil {
				t.Fatalf("error when reading: %s", err)
			}
			if !bytes.Equal(actual, content) {
				t.Errorf("got %d bytes, want the %d byte response", len(actual), len(content))
			}
		})
	}
}

func TestReadResponse_ShortInput(t *testing.T) {
	actual, err := ReadResponse(bytes.NewReader([]byte{0x1f}))
	if err != nil {
		t.Fatalf("error when reading: %s", err)
	}
	if diff := cmp.Diff(actual, []byte{0x1f}); diff != "" {
		t.Errorf("not the same:\n%s", diff)
	}
}

func TestReadResponse_CorruptGzip(t *testing.T) {
	if _, err := ReadResponse(bytes.NewReader([]byte{0x1f, 0x8b, 0x00, 0x01})); err == nil {
		t.Errorf("expected an error for a corrupt gzip stream")
	}
}


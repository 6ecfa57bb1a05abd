package fileio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := bytes.Repeat([]byte("wgsl"), size/4+1)[:size]
	path := filepath.Join(t.TempDir(), "kernel.wgsl")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func TestReadInto(t *testing.T) {
	tests := []struct {
		name     string
		fileSize int
		bufSize  int
		wantNeed int // 0 means success
	}{
		{"fits", 100, 10240, 0},
		{"exact", 64, 64, 0},
		{"empty", 0, 16, 0},
		{"too small", 10241, 10240, 10241},
		{"one byte over", 65, 64, 65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, data := writeTemp(t, tt.fileSize)
			buf := make([]byte, tt.bufSize)
			n, err := ReadInto(path, buf)

			if tt.wantNeed == 0 {
				if err != nil {
					t.Fatalf("ReadInto() error = %v", err)
				}
				if !bytes.Equal(buf[:n], data) {
					t.Errorf("read %d bytes, content mismatch", n)
				}
				return
			}

			var small *BufferTooSmallError
			if !errors.As(err, &small) {
				t.Fatalf("ReadInto() error = %v, want *BufferTooSmallError", err)
			}
			if small.Need != tt.wantNeed || small.Have != tt.bufSize || small.Path != path {
				t.Errorf("error = %+v, want Need=%d Have=%d", small, tt.wantNeed, tt.bufSize)
			}
		})
	}
}

func TestReadInto_Missing(t *testing.T) {
	_, err := ReadInto(filepath.Join(t.TempDir(), "nope.wgsl"), make([]byte, 8))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestReadFile_Grows(t *testing.T) {
	path, data := writeTemp(t, DefaultBufferSize*3+7)
	got, err := ReadFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadFile returned %d bytes, want %d", len(got), len(data))
	}
}

func TestReadFile_SmallHint(t *testing.T) {
	path, data := writeTemp(t, 300)
	got, err := ReadFile(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("content mismatch")
	}
}

func TestBufferTooSmallError_Message(t *testing.T) {
	err := &BufferTooSmallError{Path: "k.wgsl", Need: 20000, Have: 10240}
	want := "fileio: k.wgsl needs a 20000 byte buffer, have 10240"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

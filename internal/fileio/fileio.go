// Package fileio reads kernel sources and other small assets into
// caller-provided buffers.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is the initial buffer size used by ReadFile.
const DefaultBufferSize = 10240

// BufferTooSmallError reports that a file does not fit the buffer it was
// read into. Need is the size required to read the whole file.
type BufferTooSmallError struct {
	Path string
	Need int
	Have int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("fileio: %s needs a %d byte buffer, have %d", e.Path, e.Need, e.Have)
}

// ReadInto reads the whole file at path into buf and returns the number of
// bytes read. When the file is larger than buf it returns a
// *BufferTooSmallError carrying the required size and leaves buf unspecified.
func ReadInto(path string, buf []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("fileio: open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("fileio: stat %s: %w", path, err)
	}
	if size := info.Size(); size > int64(len(buf)) {
		return 0, &BufferTooSmallError{Path: path, Need: int(size), Have: len(buf)}
	}

	n, err := io.ReadFull(f, buf)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return n, nil
	case err != nil:
		return n, fmt.Errorf("fileio: read %s: %w", path, err)
	}

	// The file filled buf exactly or grew after Stat.
	var probe [1]byte
	if m, _ := f.Read(probe[:]); m > 0 {
		return 0, &BufferTooSmallError{Path: path, Need: n + m, Have: len(buf)}
	}
	return n, nil
}

// ReadFile reads path starting with a buffer of sizeHint bytes
// (DefaultBufferSize when sizeHint <= 0), growing it to the size reported
// by ReadInto when the file does not fit.
func ReadFile(path string, sizeHint int) ([]byte, error) {
	if sizeHint <= 0 {
		sizeHint = DefaultBufferSize
	}
	buf := make([]byte, sizeHint)
	for {
		n, err := ReadInto(path, buf)
		var small *BufferTooSmallError
		if errors.As(err, &small) {
			buf = make([]byte, small.Need)
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
}

// Package corpus holds the helpers shared by the read-only data stores:
// reading corpus files, transparent gzip decompression, and the load-time
// DataFormatError.
package corpus

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDataFormat is matched by every DataFormatError via errors.Is.
var ErrDataFormat = errors.New("data format error")

// DataFormatError reports a corpus file that is missing, corrupt, or carries
// an unexpected header. Stores cannot serve lookups without their data, so it
// is only ever returned at load time.
type DataFormatError struct {
	Source string // file path or logical name of the corpus
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// Errorf builds a DataFormatError for source.
func Errorf(source string, err error, format string, args ...any) error {
	return &DataFormatError{Source: source, Reason: fmt.Sprintf(format, args...), Err: err}
}

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzip reports whether data starts with the gzip magic number.
func IsGzip(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}

// Decompress gunzips data. Input without the gzip magic is returned as is so
// that uncompressed fixtures load through the same path.
func Decompress(source string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, Errorf(source, nil, "empty corpus")
	}
	if !IsGzip(data) {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, Errorf(source, err, "failed to open gzip stream")
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, Errorf(source, err, "failed to decompress")
	}
	return out, nil
}

// ReadFile reads a corpus file. A missing or unreadable file is a
// DataFormatError since the engine cannot start without it.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf(path, err, "failed to read corpus file")
	}
	return data, nil
}

// Gzip compresses data. Used to build fixtures and by tooling that writes
// corpus files.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

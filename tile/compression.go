package tile

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// CompressionType represents different compression algorithms
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionGzip   CompressionType = 1
	CompressionSnappy CompressionType = 2
	CompressionZstd   CompressionType = 3
)

// String returns the string representation of CompressionType
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "NONE"
	case CompressionGzip:
		return "GZIP"
	case CompressionSnappy:
		return "SNAPPY"
	case CompressionZstd:
		return "ZSTD"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(ct))
	}
}

// Compress compresses data with the given algorithm.
func Compress(ct CompressionType, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	switch ct {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip compression failed: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip compression failed: %w", err)
		}
		return buf.Bytes(), nil

	case CompressionSnappy:
		return snappy.Encode(nil, data), nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder init failed: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil

	default:
		return nil, fmt.Errorf("unsupported compression type: %v", ct)
	}
}

// Decompress undoes Compress.
func Decompress(ct CompressionType, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	switch ct {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip decompression failed: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("gzip decompression failed: %w", err)
		}
		return out, nil

	case CompressionSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		return out, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder init failed: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression failed: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported compression type: %v", ct)
	}
}

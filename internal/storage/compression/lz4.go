package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// ErrCorrupt is returned when compressed data cannot be decoded.
var ErrCorrupt = errors.New("corrupt compressed data")

// NoCompressor implements a pass-through compressor that doesn't compress data.
type NoCompressor struct{}

func (c *NoCompressor) Name() string {
	return "none"
}

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

// LZ4Compressor compresses with LZ4 blocks. Each value is prefixed with a
// frame byte and, for compressed frames, the uvarint original length.
// Values LZ4 cannot shrink are stored raw.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string {
	return "lz4"
}

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{frameRaw}, nil
	}

	header := make([]byte, 1+binary.MaxVarintLen64)
	header[0] = frameLZ4
	hn := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 || hn+n >= 1+len(data) {
		out := make([]byte, 1+len(data))
		out[0] = frameRaw
		copy(out[1:], data)
		return out, nil
	}

	out := make([]byte, 0, hn+n)
	out = append(out, header[:hn]...)
	return append(out, compressed[:n]...), nil
}

func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrCorrupt
	}

	switch data[0] {
	case frameRaw:
		return append([]byte(nil), data[1:]...), nil
	case frameLZ4:
		size, vn := binary.Uvarint(data[1:])
		if vn <= 0 {
			return nil, ErrCorrupt
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data[1+vn:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(n) != size {
			return nil, ErrCorrupt
		}
		return out, nil
	default:
		return nil, ErrCorrupt
	}
}

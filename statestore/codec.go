package statestore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses and decompresses encoded state blobs before they enter
// the history. States are small and numerous, so block codecs are used.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// NoopCodec stores blobs uncompressed.
type NoopCodec struct{}

func (NoopCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
func (NoopCodec) Name() string                           { return "noop" }

// S2Codec compresses blobs with S2, the cheapest option that still shrinks
// gob-encoded float vectors meaningfully.
type S2Codec struct{}

func (S2Codec) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (S2Codec) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}

func (S2Codec) Name() string { return "s2" }

// LZ4Codec compresses blobs as raw LZ4 blocks. A leading marker byte
// distinguishes compressed blocks from blobs stored raw: CompressBlock
// reports incompressible input by returning a zero length, which small
// encoded states regularly are.
type LZ4Codec struct{}

const (
	lz4Raw   = 0
	lz4Block = 1
)

var lz4Pool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	dst := make([]byte, 1+lz4.CompressBlockBound(len(data)))
	lc, _ := lz4Pool.Get().(*lz4.Compressor)
	defer lz4Pool.Put(lc)
	n, err := lc.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		out := make([]byte, 1+len(data))
		out[0] = lz4Raw
		copy(out[1:], data)
		return out, nil
	}
	dst[0] = lz4Block
	return dst[:1+n], nil
}

func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("statestore: empty lz4 blob")
	}
	if data[0] == lz4Raw {
		out := make([]byte, len(data)-1)
		copy(out, data[1:])
		return out, nil
	}
	// Decompressed size is not stored in a raw block; grow until it fits.
	const maxSize = 64 * 1024 * 1024
	for bufSize := len(data)*4 + 64; bufSize <= maxSize; bufSize *= 2 {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data[1:], buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
				continue
			}
			return nil, err
		}
		return buf[:n], nil
	}
	return nil, lz4.ErrInvalidSourceShortBuffer
}

func (LZ4Codec) Name() string { return "lz4" }

// ZstdCodec compresses blobs with zstandard. Encoder and decoder instances
// are pooled; the library is designed for reuse.
type ZstdCodec struct{}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(fmt.Sprintf("statestore: zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("statestore: zstd decoder: %v", err))
		}
		return dec
	},
}

func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

func (ZstdCodec) Name() string { return "zstd" }

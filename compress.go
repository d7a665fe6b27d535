package colcrypt

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Default compression settings
const (
	defaultCompressionThreshold = 1024 // 1KB
	minCompressionSavings       = 0.10 // 10% minimum savings to use compression

	// maxDecompressedSize is the maximum allowed decompressed size (64MB).
	// This prevents zip bomb attacks where a small compressed payload
	// expands to consume all available memory.
	maxDecompressedSize = 64 * 1024 * 1024
)

// zstdMagic starts every zstd frame. 0xB5 cannot follow an ASCII byte and
// 0xFD never appears in UTF-8, so a valid UTF-8 plaintext can never start
// with it. That makes the compressed form self-describing inside the seal.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var (
	// zstd encoder and decoder are thread-safe and reusable
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd initializes the zstd encoder and decoder once.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if zstdErr != nil {
			// Clean up encoder if decoder creation fails
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// compressZstd compresses data using zstd.
func compressZstd(data []byte) ([]byte, error) {
	encoder, _, err := initZstd()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data.
// Returns ErrDecompressionFailed if decompressed size exceeds maxDecompressedSize.
func decompressZstd(data []byte) ([]byte, error) {
	_, decoder, err := initZstd()
	if err != nil {
		return nil, err
	}
	result, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, ErrDecompressionFailed
	}
	if len(result) > maxDecompressedSize {
		return nil, ErrDecompressionFailed
	}
	return result, nil
}

// maybeCompress compresses data if it exceeds the threshold and compression is beneficial.
// Returns the data unchanged otherwise.
func maybeCompress(data []byte, threshold int, disabled bool) []byte {
	if disabled || len(data) == 0 || len(data) < threshold {
		return data
	}

	compressed, err := compressZstd(data)
	if err != nil {
		// If compression fails, store uncompressed
		return data
	}

	savings := float64(len(data)-len(compressed)) / float64(len(data))
	if savings < minCompressionSavings {
		return data
	}
	return compressed
}

// isCompressed reports whether an opened plaintext is a zstd frame.
func isCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// maybeDecompress reverses maybeCompress.
func maybeDecompress(data []byte) ([]byte, error) {
	if !isCompressed(data) {
		return data, nil
	}
	return decompressZstd(data)
}

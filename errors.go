package colcrypt

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyResolution indicates no usable master key could be resolved at construction.
	// It always wraps the underlying cause (bad hex, wrong size, unreadable key file).
	ErrKeyResolution = errors.New("colcrypt: master key resolution failed")

	// ErrMasterKeyNotFound indicates a key source had no key to offer.
	// A ChainKeySource moves on to the next source when it sees this error.
	ErrMasterKeyNotFound = errors.New("colcrypt: master key not found")

	// ErrInvalidKeySize indicates the master key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.New("colcrypt: key must be 32 bytes")

	// ErrInvalidKeyEncoding indicates a hex-encoded master key could not be decoded.
	ErrInvalidKeyEncoding = errors.New("colcrypt: key must be a 64-character hex string")

	// ErrKeyFileEmpty indicates a key file exists but holds nothing.
	// It is never replaced automatically; remove it to have a new key generated.
	ErrKeyFileEmpty = errors.New("colcrypt: key file is empty")

	// ErrNonceGeneration indicates the secure random source failed while generating a nonce.
	ErrNonceGeneration = errors.New("colcrypt: nonce generation failed")

	// ErrAuthenticationFailed indicates the AEAD tag did not verify
	// (wrong key, wrong column, or corrupted data).
	ErrAuthenticationFailed = errors.New("colcrypt: authentication failed")

	// ErrEncoding indicates the token is not valid base64.
	ErrEncoding = errors.New("colcrypt: invalid token encoding")

	// ErrInvalidToken indicates the decoded token is too short to hold a nonce and tag.
	ErrInvalidToken = errors.New("colcrypt: invalid token format")

	// ErrInvalidPlaintext indicates a plaintext that is not valid UTF-8.
	ErrInvalidPlaintext = errors.New("colcrypt: plaintext must be valid UTF-8")

	// ErrDecompressionFailed indicates zstd decompression of an opened value failed.
	ErrDecompressionFailed = errors.New("colcrypt: decompression failed")

	// ErrIterationsTooLow indicates a PBKDF2 iteration count below the minimum.
	ErrIterationsTooLow = errors.New("colcrypt: iteration count below minimum")

	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm name.
	ErrUnsupportedAlgorithm = errors.New("colcrypt: unsupported algorithm")

	// ErrInvalidColumnID indicates an empty column identifier.
	ErrInvalidColumnID = errors.New("colcrypt: column identifier must not be empty")

	// ErrServiceClosed indicates the service was used after Close() was called.
	ErrServiceClosed = errors.New("colcrypt: service is closed")
)

// DecryptionError reports a recoverable failure to decrypt one stored value.
// Err is one of ErrEncoding, ErrInvalidToken, ErrAuthenticationFailed,
// ErrDecompressionFailed or ErrInvalidPlaintext.
type DecryptionError struct {
	ColumnID string
	Index    int // position within a bulk call or row; -1 for single values
	Err      error
}

func (e *DecryptionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("colcrypt: decrypt %s[%d]: %v", e.ColumnID, e.Index, e.Err)
	}
	return fmt.Sprintf("colcrypt: decrypt %s: %v", e.ColumnID, e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// IsDecryptionError reports whether err carries a recoverable per-value decryption failure.
func IsDecryptionError(err error) bool {
	var de *DecryptionError
	return errors.As(err, &de)
}

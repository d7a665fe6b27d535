package colcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Supported AEAD algorithms. Both use 96-bit nonces and 128-bit tags,
// so their tokens have the same layout.
const (
	AlgorithmAES256GCM        = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 = "chacha20-poly1305"
)

const (
	nonceSize = 12
	tagSize   = 16
)

// aeadFactory builds an AEAD bound to a 32-byte column key.
type aeadFactory func(key []byte) (cipher.AEAD, error)

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func newChaCha20Poly1305(key []byte) (cipher.AEAD, error) {
	return chacha20poly1305.New(key)
}

// aeadFor returns the factory for the named algorithm.
func aeadFor(algo string) (aeadFactory, error) {
	switch algo {
	case "", AlgorithmAES256GCM:
		return newAESGCM, nil
	case AlgorithmChaCha20Poly1305:
		return newChaCha20Poly1305, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
}

// generateNonce reads a fresh 96-bit nonce from r.
// A failing random source is an error; there is no fallback nonce.
func generateNonce(r io.Reader) ([nonceSize]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return nonce, fmt.Errorf("%w: %w", ErrNonceGeneration, err)
	}
	return nonce, nil
}

// seal encrypts plaintext under aead, binding associatedData.
// Returns ciphertext with the tag appended.
func seal(aead cipher.AEAD, nonce [nonceSize]byte, plaintext, associatedData []byte) []byte {
	return aead.Seal(nil, nonce[:], plaintext, associatedData)
}

// open authenticates and decrypts ciphertext (with tag) under aead.
// Any tag mismatch, including a different associatedData, is ErrAuthenticationFailed.
func open(aead cipher.AEAD, nonce [nonceSize]byte, ciphertext, associatedData []byte) ([]byte, error) {
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, associatedData)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

package colcrypt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAeadFor(t *testing.T) {
	tests := []struct {
		algo    string
		wantErr error
	}{
		{"", nil},
		{AlgorithmAES256GCM, nil},
		{AlgorithmChaCha20Poly1305, nil},
		{"aes-128-gcm", ErrUnsupportedAlgorithm},
		{"xsalsa20-poly1305", ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			factory, err := aeadFor(tt.algo)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			aead, err := factory(testKey("v1"))
			require.NoError(t, err)
			require.Equal(t, nonceSize, aead.NonceSize())
			require.Equal(t, tagSize, aead.Overhead())
		})
	}
}

func TestAEAD_RejectsShortKey(t *testing.T) {
	_, err := newAESGCM(make([]byte, 7))
	require.Error(t, err)

	_, err = newChaCha20Poly1305(make([]byte, 16))
	require.Error(t, err)
}

func TestSealOpen(t *testing.T) {
	for _, factory := range []aeadFactory{newAESGCM, newChaCha20Poly1305} {
		aead, err := factory(testKey("v1"))
		require.NoError(t, err)

		nonce, err := generateNonce(bytes.NewReader(bytes.Repeat([]byte{7}, nonceSize)))
		require.NoError(t, err)

		sealed := seal(aead, nonce, []byte("hello"), []byte("t.c"))
		require.Len(t, sealed, len("hello")+tagSize)

		pt, err := open(aead, nonce, sealed, []byte("t.c"))
		require.NoError(t, err)
		require.Equal(t, []byte("hello"), pt)

		_, err = open(aead, nonce, sealed, []byte("t.d"))
		require.ErrorIs(t, err, ErrAuthenticationFailed)

		var otherNonce [nonceSize]byte
		_, err = open(aead, otherNonce, sealed, []byte("t.c"))
		require.ErrorIs(t, err, ErrAuthenticationFailed)
	}
}

func TestGenerateNonce_Failure(t *testing.T) {
	_, err := generateNonce(failingReader{})
	require.ErrorIs(t, err, ErrNonceGeneration)
	require.Contains(t, err.Error(), "entropy source unavailable")
}

func TestGenerateNonce_Unique(t *testing.T) {
	svc := newTestService(t)
	seen := make(map[[nonceSize]byte]bool)
	for i := 0; i < 1000; i++ {
		nonce, err := generateNonce(svc.config.random)
		require.NoError(t, err)
		require.False(t, seen[nonce])
		seen[nonce] = true
	}
}

package colcrypt

import "encoding/base64"

// Token format (what lands in a row cell):
// base64std([nonce:12][ciphertext:n][tag:16])
//
// The split point is fixed, so no length prefix is stored. The column
// identifier is bound as associated data and never appears in the token.

// minTokenSize is a nonce plus a tag around an empty ciphertext.
const minTokenSize = nonceSize + tagSize

// formatToken assembles and encodes a token.
func formatToken(nonce [nonceSize]byte, sealed []byte) string {
	raw := make([]byte, 0, nonceSize+len(sealed))
	raw = append(raw, nonce[:]...)
	raw = append(raw, sealed...)
	return base64.StdEncoding.EncodeToString(raw)
}

// parseToken decodes a token into its nonce and sealed (ciphertext+tag) parts.
func parseToken(token string) (nonce [nonceSize]byte, sealed []byte, err error) {
	raw, decErr := base64.StdEncoding.DecodeString(token)
	if decErr != nil {
		err = ErrEncoding
		return
	}
	if len(raw) < minTokenSize {
		err = ErrInvalidToken
		return
	}
	copy(nonce[:], raw[:nonceSize])
	sealed = raw[nonceSize:]
	return
}

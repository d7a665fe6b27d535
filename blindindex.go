package colcrypt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// BlindIndex computes a deterministic HMAC-SHA256 of the normalized value
// under columnID's blind-index key, base64-encoded.
//
// Tokens from Encrypt never repeat, so an equality predicate on an encrypted
// column cannot compare ciphertexts. Store BlindIndex next to the token and
// compare indexes instead. The index is per column: the same value in two
// columns yields unrelated indexes.
//
// A nil norm is treated as NormalizeNone.
// IMPORTANT: Use the same normalizer on both write and search.
func (s *Service) BlindIndex(columnID, value string, norm Normalizer) (string, error) {
	if s.closed.Load() {
		return "", ErrServiceClosed
	}
	if columnID == "" {
		return "", ErrInvalidColumnID
	}
	if norm == nil {
		norm = NormalizeNone
	}

	ck, err := s.keys.get(columnID)
	if err != nil {
		return "", err
	}
	mac := computeHMACWithKey(&ck.index, []byte(norm(value)))
	return base64.StdEncoding.EncodeToString(mac), nil
}

// BlindIndexValue is the nullable form of BlindIndex. NULL has no index.
func (s *Service) BlindIndexValue(columnID string, value *string, norm Normalizer) (*string, error) {
	if s.isNull(value) {
		return nil, nil
	}
	idx, err := s.BlindIndex(columnID, *value, norm)
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

// computeHMACWithKey computes HMAC-SHA256 with the given key.
func computeHMACWithKey(key *[32]byte, data []byte) []byte {
	h := hmac.New(sha256.New, key[:])
	h.Write(data)
	return h.Sum(nil)
}

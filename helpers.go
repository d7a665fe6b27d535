package colcrypt

import (
	"encoding/json"
	"strconv"
)

// ColumnID builds the "<table>.<column>" identifier a column is encrypted under.
// Names are used as given; callers must apply the same casing on write and read.
func ColumnID(table, column string) string {
	return table + "." + column
}

// EncryptJSON encrypts a JSON-serializable value for columnID.
func EncryptJSON[T any](s *Service, columnID string, data T) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return s.Encrypt(columnID, string(jsonBytes))
}

// DecryptJSON decrypts a token and unmarshals the JSON it contains.
func DecryptJSON[T any](s *Service, columnID, token string) (T, error) {
	var zero T

	plaintext, err := s.Decrypt(columnID, token)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(plaintext), &result); err != nil {
		return zero, err
	}
	return result, nil
}

// EncryptInt64 encrypts an integer in its decimal text form, the same
// representation a row stores for an unencrypted INT column.
func (s *Service) EncryptInt64(columnID string, n int64) (string, error) {
	return s.Encrypt(columnID, strconv.FormatInt(n, 10))
}

// DecryptInt64 decrypts a token written by EncryptInt64.
func (s *Service) DecryptInt64(columnID, token string) (int64, error) {
	plaintext, err := s.Decrypt(columnID, token)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(plaintext, 10, 64)
}

// Package colcrypt provides transparent column-level encryption for a
// row-oriented data store.
//
// Values of columns flagged as encrypted are sealed before a row is written
// and opened after it is read. The storage and query layers only ever see
// opaque base64 tokens; they need no knowledge of keys or algorithms.
//
// # Encryption
//
// Each column has its own 32-byte key, derived from a single master key with
// PBKDF2-HMAC-SHA256 (100,000 iterations, salt taken from the column
// identifier). Values are sealed with AES-256-GCM (or ChaCha20-Poly1305)
// under a fresh 96-bit random nonce, and the column identifier is bound as
// associated data: a token copied into another column fails to decrypt.
//
// # Basic Usage
//
//	svc, err := colcrypt.New(
//	    colcrypt.WithMasterKeyHex(hexKey), // 64 hex chars
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encrypt
//	token, err := svc.Encrypt("users.password", "hunter2")
//
//	// Decrypt
//	plaintext, err := svc.Decrypt("users.password", token)
//
// # Master Key
//
// Without WithMasterKey, New resolves the master key in this order:
//
//   - MALDB_MASTER_KEY (64 hex chars, .env files are honoured)
//   - the JSON key file named by WithKeyFile, MALDB_KEY_FILE or DefaultKeyFile
//   - a newly generated key, written to that key file for the next start
//
// A malformed key from any of these fails New. Losing the master key makes
// every encrypted value unrecoverable; there is no other decryption path.
//
// # Token Format
//
//	base64(nonce[12] || ciphertext || tag[16])
//
// # NULL Handling
//
// NULL values are preserved:
//   - svc.EncryptValue(col, nil) returns nil, nil
//   - svc.DecryptValue(col, nil) returns nil, nil
//
// Empty strings are encrypted by default. Use WithEmptyStringAsNull() to treat
// empty strings as NULL.
//
// # Storage Integration
//
// RowCodec applies the service to whole rows from per-column Encrypted
// flags. A cell that fails to decrypt is replaced with "[ENCRYPTED]" so a
// single corrupted value never aborts a multi-row read:
//
//	rc := svc.RowCodec(colcrypt.Table{
//	    Name: "users",
//	    Columns: []colcrypt.Column{
//	        {Name: "id"},
//	        {Name: "email", Encrypted: true},
//	    },
//	})
//	stored, err := rc.EncryptRow(row)
//	visible, err := rc.DecryptRow(stored) // err lists placeholder cells
//
// # Equality Lookups
//
// Tokens are non-deterministic. For WHERE col = ? on an encrypted column,
// store BlindIndex(col, value, NormalizeEmail) alongside the token and
// compare indexes.
package colcrypt

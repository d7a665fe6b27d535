package colcrypt

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"unicode/utf8"
)

// Service encrypts and decrypts column values with per-column keys derived
// from a single master key. It is safe for concurrent use.
//
// A Service is either fully ready (returned by New) or does not exist:
// construction errors are returned instead of a half-initialized value.
type Service struct {
	keys   *keyCache
	origin KeyOrigin
	config *config
	closed atomic.Bool
}

// config holds service configuration options.
type config struct {
	masterKey       []byte
	keySource       MasterKeySource
	env             *EnvConfig
	keyFile         string
	keyFileDisabled bool
	optErr          error

	iterations           int
	algorithm            string
	compressionThreshold int
	compressionEnabled   bool
	emptyStringAsNull    bool

	logger *slog.Logger
	random io.Reader
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		iterations:           DefaultIterations,
		algorithm:            AlgorithmAES256GCM,
		compressionThreshold: defaultCompressionThreshold,
		logger:               slog.Default(),
		random:               rand.Reader,
	}
}

// New creates a Service and resolves its master key.
//
// Resolution order: WithMasterKey/WithMasterKeyHex, then MALDB_MASTER_KEY,
// then the key file (WithKeyFile, MALDB_KEY_FILE or DefaultKeyFile), and
// finally a freshly generated key persisted to that file. A malformed key
// from any source is an error wrapping ErrKeyResolution; New never falls
// back past a bad key.
//
// Example:
//
//	svc, err := colcrypt.New(colcrypt.WithMasterKeyHex(os.Getenv("MALDB_MASTER_KEY")))
//	token, err := svc.Encrypt("users.password", "hunter2")
func New(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Zero the configured master key once it has been copied into the cache
	defer func() {
		clearBytes(cfg.masterKey)
		cfg.masterKey = nil
	}()

	if cfg.optErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyResolution, cfg.optErr)
	}
	if cfg.iterations < MinIterations {
		return nil, fmt.Errorf("%w: %d < %d", ErrIterationsTooLow, cfg.iterations, MinIterations)
	}
	newAEAD, err := aeadFor(cfg.algorithm)
	if err != nil {
		return nil, err
	}

	masterKey, origin, err := resolveMasterKey(cfg)
	if err != nil {
		return nil, err
	}

	return &Service{
		keys:   newKeyCache(masterKey, cfg.iterations, newAEAD),
		origin: origin,
		config: cfg,
	}, nil
}

// KeyOrigin reports which source supplied the master key.
func (s *Service) KeyOrigin() KeyOrigin {
	return s.origin
}

// Algorithm returns the AEAD algorithm name in use.
func (s *Service) Algorithm() string {
	return s.config.algorithm
}

// Encrypt seals plaintext for columnID and returns the base64 token.
// Every call uses a fresh random nonce, so equal inputs give different tokens.
//
// Errors are fatal for the write: ErrNonceGeneration when the random source
// fails, ErrInvalidPlaintext for non-UTF-8 input, ErrInvalidColumnID,
// ErrServiceClosed.
func (s *Service) Encrypt(columnID, plaintext string) (string, error) {
	if s.closed.Load() {
		return "", ErrServiceClosed
	}
	if columnID == "" {
		return "", ErrInvalidColumnID
	}
	if !utf8.ValidString(plaintext) {
		return "", ErrInvalidPlaintext
	}

	ck, err := s.keys.get(columnID)
	if err != nil {
		return "", err
	}

	nonce, err := generateNonce(s.config.random)
	if err != nil {
		return "", err
	}

	data := maybeCompress([]byte(plaintext), s.config.compressionThreshold, !s.config.compressionEnabled)
	sealed := seal(ck.aead, nonce, data, []byte(columnID))

	return formatToken(nonce, sealed), nil
}

// Decrypt opens a token produced by Encrypt for the same columnID.
// Failures caused by the stored value are returned as *DecryptionError and
// logged; the caller decides whether to substitute a placeholder.
func (s *Service) Decrypt(columnID, token string) (string, error) {
	return s.decrypt(columnID, token, -1)
}

func (s *Service) decrypt(columnID, token string, index int) (string, error) {
	if s.closed.Load() {
		return "", ErrServiceClosed
	}
	if columnID == "" {
		return "", ErrInvalidColumnID
	}

	plaintext, err := s.openToken(columnID, token)
	if err == nil {
		return plaintext, nil
	}
	if errors.Is(err, ErrServiceClosed) {
		return "", err
	}

	de := &DecryptionError{ColumnID: columnID, Index: index, Err: err}
	s.config.logger.Warn("column decryption failed",
		slog.String("column", columnID),
		slog.Int("index", index),
		slog.String("error", err.Error()),
	)
	return "", de
}

func (s *Service) openToken(columnID, token string) (string, error) {
	nonce, sealed, err := parseToken(token)
	if err != nil {
		return "", err
	}

	ck, err := s.keys.get(columnID)
	if err != nil {
		return "", err
	}

	data, err := open(ck.aead, nonce, sealed, []byte(columnID))
	if err != nil {
		return "", err
	}

	data, err = maybeDecompress(data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidPlaintext
	}
	return string(data), nil
}

// isNull reports whether v is the NULL sentinel under the current configuration.
func (s *Service) isNull(v *string) bool {
	return v == nil || (s.config.emptyStringAsNull && *v == "")
}

// EncryptValue is the nullable form of Encrypt: a nil plaintext (or "" with
// WithEmptyStringAsNull) is returned unchanged without encryption.
func (s *Service) EncryptValue(columnID string, plaintext *string) (*string, error) {
	if s.isNull(plaintext) {
		return plaintext, nil
	}
	token, err := s.Encrypt(columnID, *plaintext)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// DecryptValue is the nullable form of Decrypt: a nil token (or "" with
// WithEmptyStringAsNull) is returned unchanged without a decryption attempt.
func (s *Service) DecryptValue(columnID string, token *string) (*string, error) {
	if s.isNull(token) {
		return token, nil
	}
	plaintext, err := s.Decrypt(columnID, *token)
	if err != nil {
		return nil, err
	}
	return &plaintext, nil
}

// BulkEncrypt encrypts each value independently (own nonce, own seal).
// NULLs pass through. The first error aborts the batch: a partial result
// could otherwise be written with a hole in it.
func (s *Service) BulkEncrypt(columnID string, values []*string) ([]*string, error) {
	out := make([]*string, len(values))
	for i, v := range values {
		if s.isNull(v) {
			out[i] = v
			continue
		}
		token, err := s.Encrypt(columnID, *v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = &token
	}
	return out, nil
}

// BulkDecrypt decrypts each token independently. NULLs pass through.
//
// A bad token does not stop the batch: its slot is left nil and the
// returned error joins one *DecryptionError per failed index. Only
// ErrServiceClosed aborts early.
func (s *Service) BulkDecrypt(columnID string, tokens []*string) ([]*string, error) {
	out := make([]*string, len(tokens))
	var errs []error
	for i, t := range tokens {
		if s.isNull(t) {
			out[i] = t
			continue
		}
		plaintext, err := s.decrypt(columnID, *t, i)
		if err != nil {
			if !IsDecryptionError(err) {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		out[i] = &plaintext
	}
	return out, errors.Join(errs...)
}

// CachedColumns reports how many column keys have been derived so far.
func (s *Service) CachedColumns() int {
	return s.keys.len()
}

// Close zeros out all key material from memory.
// After calling Close, every operation returns ErrServiceClosed.
func (s *Service) Close() {
	s.closed.Store(true)
	s.keys.close()
}

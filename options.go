package colcrypt

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring a Service.
type Option func(*config)

// WithMasterKey supplies the master key explicitly, bypassing the environment and key file.
// The master key must be exactly 32 bytes.
// The key is copied internally; the caller may zero the original after calling New().
func WithMasterKey(masterKey []byte) Option {
	return func(c *config) {
		keyCopy := make([]byte, len(masterKey))
		copy(keyCopy, masterKey)
		c.masterKey = keyCopy
	}
}

// WithMasterKeyHex supplies the master key as a 64-character hex string.
// An invalid string makes New fail; it never falls back to another source.
func WithMasterKeyHex(s string) Option {
	return func(c *config) {
		key, err := ParseHexKey(s)
		if err != nil {
			c.optErr = err
			return
		}
		c.masterKey = key
	}
}

// WithMasterKeySource replaces the default resolution chain with src.
func WithMasterKeySource(src MasterKeySource) Option {
	return func(c *config) {
		c.keySource = src
	}
}

// WithEnvConfig uses cfg instead of reading the process environment.
func WithEnvConfig(cfg EnvConfig) Option {
	return func(c *config) {
		c.env = &cfg
	}
}

// WithKeyFile sets the key-material file consulted when no explicit or
// environment key is present. A fresh key is generated and written there
// if the file does not exist.
func WithKeyFile(path string) Option {
	return func(c *config) {
		c.keyFile = path
	}
}

// WithoutKeyFile disables the key-material file entirely.
// New then fails unless an explicit or environment key is available.
func WithoutKeyFile() Option {
	return func(c *config) {
		c.keyFileDisabled = true
	}
}

// WithIterations sets the PBKDF2 iteration count for column key derivation.
// Must be at least MinIterations. Every reader of a column must use the same count.
func WithIterations(n int) Option {
	return func(c *config) {
		c.iterations = n
	}
}

// WithAlgorithm selects the AEAD used for sealing.
// AlgorithmAES256GCM is the default; the token does not record the algorithm.
func WithAlgorithm(algo string) Option {
	return func(c *config) {
		c.algorithm = algo
	}
}

// WithCompression enables zstd compression of values at or above the
// threshold (default 1024 bytes) before sealing.
//
// Compressed tokens are only readable by colcrypt services, and the token
// length then depends on how compressible the value is. Off by default.
func WithCompression() Option {
	return func(c *config) {
		c.compressionEnabled = true
	}
}

// WithCompressionThreshold enables compression and sets the minimum size in
// bytes before it is attempted.
func WithCompressionThreshold(bytes int) Option {
	return func(c *config) {
		c.compressionEnabled = true
		c.compressionThreshold = bytes
	}
}

// WithCompressionDisabled turns compression off again after WithCompression.
// Compressed tokens written earlier still decrypt.
func WithCompressionDisabled() Option {
	return func(c *config) {
		c.compressionEnabled = false
	}
}

// WithEmptyStringAsNull makes "" a NULL sentinel: EncryptValue and
// DecryptValue pass it through untouched instead of encrypting it.
func WithEmptyStringAsNull() Option {
	return func(c *config) {
		c.emptyStringAsNull = true
	}
}

// WithLogger sets the logger used for decrypt failures and key generation notices.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRandomSource replaces crypto/rand as the source of nonces and generated keys.
// Intended for tests; production code should never need it.
func WithRandomSource(r io.Reader) Option {
	return func(c *config) {
		if r != nil {
			c.random = r
		}
	}
}

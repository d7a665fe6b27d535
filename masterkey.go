package colcrypt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MasterKeySize is the required master key length (256 bits).
const MasterKeySize = 32

// KeyOrigin records which source supplied a service's master key.
type KeyOrigin int

const (
	KeyOriginUnknown KeyOrigin = iota
	KeyOriginExplicit
	KeyOriginEnvironment
	KeyOriginFile
	KeyOriginGenerated
)

func (o KeyOrigin) String() string {
	switch o {
	case KeyOriginExplicit:
		return "explicit"
	case KeyOriginEnvironment:
		return "environment"
	case KeyOriginFile:
		return "file"
	case KeyOriginGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// MasterKeySource supplies the 32-byte master key a Service derives column keys from.
// Implementations return ErrMasterKeyNotFound when they have nothing to offer;
// any other error is fatal to construction.
type MasterKeySource interface {
	ResolveMasterKey() ([]byte, KeyOrigin, error)
}

// StaticKeySource is an explicitly supplied master key.
type StaticKeySource struct {
	key []byte
}

// NewStaticKeySource copies key into a new StaticKeySource.
func NewStaticKeySource(key []byte) *StaticKeySource {
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return &StaticKeySource{key: keyCopy}
}

// ResolveMasterKey implements MasterKeySource.
func (s *StaticKeySource) ResolveMasterKey() ([]byte, KeyOrigin, error) {
	if len(s.key) != MasterKeySize {
		return nil, KeyOriginExplicit, ErrInvalidKeySize
	}
	keyCopy := make([]byte, len(s.key))
	copy(keyCopy, s.key)
	return keyCopy, KeyOriginExplicit, nil
}

// EnvKeySource is a hex-encoded master key taken from the environment.
// An empty Hex means the variable was not set.
type EnvKeySource struct {
	Hex string
}

// ResolveMasterKey implements MasterKeySource.
func (s EnvKeySource) ResolveMasterKey() ([]byte, KeyOrigin, error) {
	if s.Hex == "" {
		return nil, KeyOriginEnvironment, ErrMasterKeyNotFound
	}
	key, err := ParseHexKey(s.Hex)
	if err != nil {
		return nil, KeyOriginEnvironment, fmt.Errorf("%s: %w", EnvVarMasterKey, err)
	}
	return key, KeyOriginEnvironment, nil
}

// ChainKeySource tries each source in order and returns the first key found.
type ChainKeySource []MasterKeySource

// ResolveMasterKey implements MasterKeySource.
func (c ChainKeySource) ResolveMasterKey() ([]byte, KeyOrigin, error) {
	for _, src := range c {
		key, origin, err := src.ResolveMasterKey()
		if errors.Is(err, ErrMasterKeyNotFound) {
			continue
		}
		return key, origin, err
	}
	return nil, KeyOriginUnknown, ErrMasterKeyNotFound
}

// ParseHexKey decodes a 64-character hex master key.
// Surrounding whitespace is ignored; anything else that is not exactly
// 32 bytes of hex is rejected.
func ParseHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidKeyEncoding
	}
	if len(key) != MasterKeySize {
		return nil, ErrInvalidKeySize
	}
	return key, nil
}

// GenerateMasterKey returns a fresh 32-byte master key read from r.
// A nil r means crypto/rand.
func GenerateMasterKey(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	key := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	return key, nil
}

// resolveMasterKey runs the configured source, or builds the default chain
// explicit -> environment -> key file (-> generate).
func resolveMasterKey(cfg *config) ([]byte, KeyOrigin, error) {
	src := cfg.keySource
	if src == nil {
		chain := ChainKeySource{}
		if cfg.masterKey != nil {
			chain = append(chain, NewStaticKeySource(cfg.masterKey))
		}

		envCfg := cfg.env
		if envCfg == nil {
			loaded, err := LoadEnvConfig()
			if err != nil {
				return nil, KeyOriginUnknown, fmt.Errorf("%w: %w", ErrKeyResolution, err)
			}
			envCfg = &loaded
		}
		chain = append(chain, EnvKeySource{Hex: envCfg.MasterKey})

		if !cfg.keyFileDisabled {
			path := cfg.keyFile
			if path == "" {
				path = envCfg.KeyFile
			}
			if path == "" {
				path = DefaultKeyFile
			}
			chain = append(chain, &FileKeySource{
				Path:     path,
				Generate: true,
				Random:   cfg.random,
				Logger:   cfg.logger,
			})
		}
		src = chain
	}

	key, origin, err := src.ResolveMasterKey()
	if err != nil {
		return nil, origin, fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}
	if len(key) != MasterKeySize {
		return nil, origin, fmt.Errorf("%w: %w", ErrKeyResolution, ErrInvalidKeySize)
	}
	return key, origin, nil
}

package colcrypt

import (
	"crypto/cipher"
	"crypto/sha256"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sync/singleflight"
)

const (
	// MinIterations is the lowest PBKDF2 iteration count New accepts.
	MinIterations = 100_000

	// DefaultIterations is the PBKDF2 iteration count used unless WithIterations says otherwise.
	DefaultIterations = MinIterations

	saltSize = 16

	// Info string for the blind index subkey; distinct from the encryption key by construction.
	infoBlindIndex = "colcrypt-blind-index"
)

// columnKeys holds everything derived for one column identifier.
// These are cached after first use to avoid repeated PBKDF2 derivation.
type columnKeys struct {
	encryption [32]byte    // PBKDF2(master, salt(columnID))
	index      [32]byte    // HKDF(encryption, info="colcrypt-blind-index")
	aead       cipher.AEAD // bound to encryption
}

// columnSalt returns the first 16 bytes of columnID, zero-padded if shorter.
// The salt is fixed per column name; the master key carries the entropy.
func columnSalt(columnID string) []byte {
	salt := make([]byte, saltSize)
	copy(salt, columnID)
	return salt
}

// deriveColumnKey derives the 32-byte encryption key for columnID using PBKDF2-HMAC-SHA256.
// The master key must be exactly 32 bytes.
func deriveColumnKey(masterKey []byte, columnID string, iterations int) ([32]byte, error) {
	var out [32]byte
	if len(masterKey) != MasterKeySize {
		return out, ErrInvalidKeySize
	}
	key := pbkdf2.Key(masterKey, columnSalt(columnID), iterations, len(out), sha256.New)
	copy(out[:], key)
	clearBytes(key)
	return out, nil
}

// hkdfDerive performs HKDF-SHA256 key derivation with the given info string.
// No salt is used (nil salt means HKDF uses a zero-filled salt of HashLen bytes).
func hkdfDerive(secret []byte, info string, out []byte) error {
	reader := hkdf.New(sha256.New, secret, nil, []byte(info))
	_, err := io.ReadFull(reader, out)
	return err
}

// keyCache maps column identifiers to their derived keys.
// Concurrent first use of a column runs the derivation once.
type keyCache struct {
	mu      sync.RWMutex
	entries map[string]*columnKeys
	group   singleflight.Group

	masterKey  []byte
	iterations int
	newAEAD    aeadFactory
}

func newKeyCache(masterKey []byte, iterations int, newAEAD aeadFactory) *keyCache {
	return &keyCache{
		entries:    make(map[string]*columnKeys),
		masterKey:  masterKey,
		iterations: iterations,
		newAEAD:    newAEAD,
	}
}

// get returns the cached keys for columnID, deriving them on first use.
func (kc *keyCache) get(columnID string) (*columnKeys, error) {
	kc.mu.RLock()
	ck, ok := kc.entries[columnID]
	kc.mu.RUnlock()
	if ok {
		return ck, nil
	}

	v, err, _ := kc.group.Do(columnID, func() (interface{}, error) {
		kc.mu.RLock()
		ck, ok := kc.entries[columnID]
		master := kc.masterKey
		kc.mu.RUnlock()
		if ok {
			return ck, nil
		}
		if master == nil {
			return nil, ErrServiceClosed
		}

		ck, err := kc.derive(master, columnID)
		if err != nil {
			return nil, err
		}

		kc.mu.Lock()
		defer kc.mu.Unlock()
		if kc.masterKey == nil {
			// Closed while deriving.
			ck.zero()
			return nil, ErrServiceClosed
		}
		kc.entries[columnID] = ck
		return ck, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*columnKeys), nil
}

func (kc *keyCache) derive(master []byte, columnID string) (*columnKeys, error) {
	enc, err := deriveColumnKey(master, columnID, kc.iterations)
	if err != nil {
		return nil, err
	}
	ck := &columnKeys{encryption: enc}
	if err := hkdfDerive(ck.encryption[:], infoBlindIndex, ck.index[:]); err != nil {
		return nil, err
	}
	ck.aead, err = kc.newAEAD(ck.encryption[:])
	if err != nil {
		return nil, err
	}
	return ck, nil
}

// len reports how many columns have derived keys.
func (kc *keyCache) len() int {
	kc.mu.RLock()
	defer kc.mu.RUnlock()
	return len(kc.entries)
}

// close zeros the master key and every cached column key.
func (kc *keyCache) close() {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	clearBytes(kc.masterKey)
	kc.masterKey = nil
	for _, ck := range kc.entries {
		ck.zero()
	}
	kc.entries = make(map[string]*columnKeys)
}

func (ck *columnKeys) zero() {
	clearBytes(ck.encryption[:])
	clearBytes(ck.index[:])
}

// clearBytes zeros out a byte slice holding key material.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

package colcrypt

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const keyFileWarning = "This file holds the master key for encrypted columns. " +
	"Deleting it makes every encrypted value permanently unreadable; " +
	"anyone who can read it can decrypt them. Protect it like the database itself."

// keyFileContents is the on-disk JSON layout of a key-material file.
type keyFileContents struct {
	MasterKey string `json:"master_key"`
	Warning   string `json:"warning"`
}

// FileKeySource loads the master key from a JSON key-material file.
// With Generate set, a missing file is created holding a fresh random key.
type FileKeySource struct {
	Path     string
	Generate bool
	Random   io.Reader    // nil means crypto/rand
	Logger   *slog.Logger // nil means slog.Default()
}

// ResolveMasterKey implements MasterKeySource.
func (s *FileKeySource) ResolveMasterKey() ([]byte, KeyOrigin, error) {
	key, err := ReadKeyFile(s.Path)
	if err == nil {
		return key, KeyOriginFile, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, KeyOriginFile, err
	}
	if !s.Generate {
		return nil, KeyOriginFile, ErrMasterKeyNotFound
	}

	key, err = GenerateMasterKey(s.Random)
	if err != nil {
		return nil, KeyOriginGenerated, err
	}

	err = WriteKeyFile(s.Path, key)
	if errors.Is(err, fs.ErrExist) {
		// Another process created the file first; use its key.
		key, err = ReadKeyFile(s.Path)
		if err != nil {
			return nil, KeyOriginFile, err
		}
		return key, KeyOriginFile, nil
	}
	if err != nil {
		return nil, KeyOriginGenerated, err
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("generated new master key; back up the key file or set "+EnvVarMasterKey,
		slog.String("path", s.Path))

	return key, KeyOriginGenerated, nil
}

// ReadKeyFile reads and validates the master key stored at path.
// A missing file yields an error matching fs.ErrNotExist.
func ReadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("key file %s: %w", path, ErrKeyFileEmpty)
	}

	var contents keyFileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}

	key, err := ParseHexKey(contents.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	return key, nil
}

// WriteKeyFile persists key to path with owner-only permissions.
// It never overwrites: an existing file yields an error matching fs.ErrExist.
//
// The file is written and synced under a temporary name in the same
// directory, then hard-linked into place, so path never exists half-written.
func WriteKeyFile(path string, key []byte) error {
	if len(key) != MasterKeySize {
		return ErrInvalidKeySize
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("key file directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(keyFileContents{
		MasterKey: hex.EncodeToString(key),
		Warning:   keyFileWarning,
	}, "", "  ")
	if err != nil {
		return err
	}

	// CreateTemp opens with mode 0600
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}

	// Link fails with EEXIST if another writer got there first
	return os.Link(tmp.Name(), path)
}

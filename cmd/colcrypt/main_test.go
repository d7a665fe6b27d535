package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai8future/colcrypt"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "colcrypt version "+version+"\n", out)
}

func TestKeygen_Print(t *testing.T) {
	out, _, err := run(t, "keygen")
	require.NoError(t, err)

	key, err := colcrypt.ParseHexKey(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Len(t, key, colcrypt.MasterKeySize)
}

func TestKeygen_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	out, _, err := run(t, "keygen", "--write", "--key-file", path)
	require.NoError(t, err)
	require.Contains(t, out, path)

	_, err = colcrypt.ReadKeyFile(path)
	require.NoError(t, err)

	// Refuses to overwrite
	_, _, err = run(t, "keygen", "--write", "--key-file", path)
	require.Error(t, err)
}

func TestEncryptDecryptIndex(t *testing.T) {
	t.Setenv(colcrypt.EnvVarMasterKey, hex.EncodeToString(bytes.Repeat([]byte{0x11}, 32)))
	t.Setenv(colcrypt.EnvVarKeyFile, filepath.Join(t.TempDir(), "unused.key"))

	token, _, err := run(t, "encrypt", "--column", "users.password", "hunter2")
	require.NoError(t, err)
	token = strings.TrimSpace(token)
	require.NotEmpty(t, token)

	out, _, err := run(t, "decrypt", "--column", "users.password", token)
	require.NoError(t, err)
	require.Equal(t, "hunter2\n", out)

	_, _, err = run(t, "decrypt", "--column", "users.email", token)
	require.ErrorIs(t, err, colcrypt.ErrAuthenticationFailed)

	idx1, _, err := run(t, "index", "--column", "users.email", "--normalize", "email", " Alice@Example.com")
	require.NoError(t, err)
	idx2, _, err := run(t, "index", "--column", "users.email", "--normalize", "email", "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, idx1, idx2)
}

func TestRequiresColumn(t *testing.T) {
	t.Setenv(colcrypt.EnvVarMasterKey, hex.EncodeToString(bytes.Repeat([]byte{0x11}, 32)))

	for _, args := range [][]string{
		{"encrypt", "value"},
		{"decrypt", "token"},
		{"index", "value"},
		{"encrypt", "--column", "", "value"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, _, err := run(t, args...)
			require.ErrorIs(t, err, errColumnRequired)
		})
	}
}

func TestEncrypt_InvalidEnvKeyFails(t *testing.T) {
	t.Setenv(colcrypt.EnvVarMasterKey, "abcd")
	path := filepath.Join(t.TempDir(), "master.key")

	_, _, err := run(t, "encrypt", "--column", "t.c", "--key-file", path, "value")
	require.ErrorIs(t, err, colcrypt.ErrKeyResolution)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestInvalidLogFlags(t *testing.T) {
	_, _, err := run(t, "--log-format", "xml", "version")
	require.Error(t, err)

	_, _, err = run(t, "--log-level", "loud", "version")
	require.Error(t, err)
}

func TestNormalizerByName(t *testing.T) {
	for _, name := range []string{"", "none", "trim", "lower", "email"} {
		norm, err := normalizerByName(name)
		require.NoError(t, err)
		require.NotNil(t, norm)
	}
	_, err := normalizerByName("phone")
	require.Error(t, err)
}

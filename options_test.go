package colcrypt

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithMasterKey_Copies(t *testing.T) {
	key := testKey("v1")
	cfg := defaultConfig()
	WithMasterKey(key)(cfg)

	key[0] = 0xFF
	require.Equal(t, testKey("v1"), cfg.masterKey)
}

func TestWithMasterKeyHex(t *testing.T) {
	cfg := defaultConfig()
	WithMasterKeyHex(strings.Repeat("00", 32))(cfg)
	require.NoError(t, cfg.optErr)
	require.Equal(t, make([]byte, 32), cfg.masterKey)

	cfg = defaultConfig()
	WithMasterKeyHex("nope")(cfg)
	require.ErrorIs(t, cfg.optErr, ErrInvalidKeyEncoding)
	require.Nil(t, cfg.masterKey)
}

func TestWithIterations(t *testing.T) {
	svc := newTestService(t, WithIterations(MinIterations+1))
	require.Equal(t, MinIterations+1, svc.config.iterations)

	_, err := New(WithMasterKey(testKey("v1")), WithIterations(MinIterations-1))
	require.ErrorIs(t, err, ErrIterationsTooLow)
}

func TestWithAlgorithm(t *testing.T) {
	svc := newTestService(t, WithAlgorithm(AlgorithmChaCha20Poly1305))
	require.Equal(t, AlgorithmChaCha20Poly1305, svc.Algorithm())
}

func TestWithCompression(t *testing.T) {
	svc := newTestService(t, WithCompression())
	require.True(t, svc.config.compressionEnabled)
	require.Equal(t, defaultCompressionThreshold, svc.config.compressionThreshold)
}

func TestWithCompressionThreshold(t *testing.T) {
	svc := newTestService(t, WithCompressionThreshold(500))
	require.True(t, svc.config.compressionEnabled)
	require.Equal(t, 500, svc.config.compressionThreshold)
}

func TestWithCompressionDisabled(t *testing.T) {
	svc := newTestService(t, WithCompression(), WithCompressionDisabled())
	require.False(t, svc.config.compressionEnabled)
}

func TestWithEmptyStringAsNull(t *testing.T) {
	svc := newTestService(t, WithEmptyStringAsNull())
	require.True(t, svc.config.emptyStringAsNull)
}

func TestWithLogger_NilKeepsDefault(t *testing.T) {
	cfg := defaultConfig()
	WithLogger(nil)(cfg)
	require.NotNil(t, cfg.logger)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	WithLogger(logger)(cfg)
	require.Same(t, logger, cfg.logger)
}

func TestWithRandomSource_NilKeepsDefault(t *testing.T) {
	cfg := defaultConfig()
	WithRandomSource(nil)(cfg)
	require.NotNil(t, cfg.random)
}

func TestWithKeyFileOptions(t *testing.T) {
	cfg := defaultConfig()
	WithKeyFile("/var/lib/maldb/master.key")(cfg)
	WithoutKeyFile()(cfg)
	require.Equal(t, "/var/lib/maldb/master.key", cfg.keyFile)
	require.True(t, cfg.keyFileDisabled)
}

func TestDefaultConfig(t *testing.T) {
	svc := newTestService(t)

	require.Equal(t, DefaultIterations, svc.config.iterations)
	require.Equal(t, AlgorithmAES256GCM, svc.config.algorithm)
	require.Equal(t, defaultCompressionThreshold, svc.config.compressionThreshold)
	require.False(t, svc.config.compressionEnabled)
	require.False(t, svc.config.emptyStringAsNull)
}

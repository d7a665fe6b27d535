package colcrypt

import (
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment variable names read by LoadEnvConfig.
const (
	EnvVarMasterKey = "MALDB_MASTER_KEY"
	EnvVarKeyFile   = "MALDB_KEY_FILE"

	// DefaultKeyFile is where a generated master key is persisted when
	// neither the environment nor WithKeyFile names a location.
	DefaultKeyFile = ".maldb/master.key"
)

// EnvConfig is the environment-provided part of master key resolution.
type EnvConfig struct {
	MasterKey string `env:"MALDB_MASTER_KEY"` // 64 hex chars
	KeyFile   string `env:"MALDB_KEY_FILE"`   // key-material file path; empty means DefaultKeyFile
}

var dotenvLoaded sync.Once

// LoadEnvConfig reads EnvConfig from the process environment.
// A .env file in the working directory is loaded first if one exists;
// variables already set in the environment take precedence over it.
func LoadEnvConfig() (EnvConfig, error) {
	dotenvLoaded.Do(func() {
		// Ignore errors - the .env file might not exist and that's ok
		_ = godotenv.Load()
	})

	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

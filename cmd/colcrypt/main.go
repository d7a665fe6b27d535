// Package main is the colcrypt operator CLI: master key generation and
// one-off encryption, decryption and blind indexing of column values.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ai8future/colcrypt"
)

const version = "1.0.0"

var errColumnRequired = errors.New(`required flag "column" not set`)

// globals holds the persistent flag values shared by every subcommand.
type globals struct {
	keyFile   string
	algorithm string
	logFormat string
	logLevel  string
	logger    *slog.Logger
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:          "colcrypt",
		Short:        "Column encryption key and value tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(stderr, g.logFormat, g.logLevel)
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&g.keyFile, "key-file", "", "Key-material file (or set "+colcrypt.EnvVarKeyFile+")")
	rootCmd.PersistentFlags().StringVar(&g.algorithm, "algorithm", colcrypt.AlgorithmAES256GCM, "AEAD algorithm: aes-256-gcm, chacha20-poly1305")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(keygenCmd(g))
	rootCmd.AddCommand(encryptCmd(g))
	rootCmd.AddCommand(decryptCmd(g))
	rootCmd.AddCommand(indexCmd(g))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}

// openService builds a service from the standard resolution chain.
func (g *globals) openService() (*colcrypt.Service, error) {
	opts := []colcrypt.Option{
		colcrypt.WithAlgorithm(g.algorithm),
		colcrypt.WithLogger(g.logger),
	}
	if g.keyFile != "" {
		opts = append(opts, colcrypt.WithKeyFile(g.keyFile))
	}
	svc, err := colcrypt.New(opts...)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("master key resolved", slog.String("origin", svc.KeyOrigin().String()))
	return svc, nil
}

// versionCmd prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "colcrypt version %s\n", version)
		},
	}
}

// keygenCmd generates a new master key.
func keygenCmd(g *globals) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new 256-bit master key",
		Long: "Generate a new master key and print it as hex, or with --write store it in the key file.\n" +
			"An existing key file is never overwritten.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := colcrypt.GenerateMasterKey(nil)
			if err != nil {
				return err
			}

			if !write {
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
				return nil
			}

			path := g.keyFile
			if path == "" {
				cfg, err := colcrypt.LoadEnvConfig()
				if err != nil {
					return err
				}
				path = cfg.KeyFile
			}
			if err := colcrypt.WriteKeyFile(path, key); err != nil {
				return fmt.Errorf("writing key file: %w", err)
			}
			g.logger.Info("master key written", slog.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote master key to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Write the key to the key file instead of printing it")
	return cmd
}

// encryptCmd encrypts one value for a column.
func encryptCmd(g *globals) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "encrypt VALUE",
		Short: "Encrypt a value for a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if column == "" {
				return errColumnRequired
			}
			svc, err := g.openService()
			if err != nil {
				return err
			}
			defer svc.Close()

			token, err := svc.Encrypt(column, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column identifier, <table>.<column> (required)")
	return cmd
}

// decryptCmd decrypts one stored token.
func decryptCmd(g *globals) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "decrypt TOKEN",
		Short: "Decrypt a stored token for a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if column == "" {
				return errColumnRequired
			}
			svc, err := g.openService()
			if err != nil {
				return err
			}
			defer svc.Close()

			plaintext, err := svc.Decrypt(column, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column identifier, <table>.<column> (required)")
	return cmd
}

// indexCmd prints the blind index of a value.
func indexCmd(g *globals) *cobra.Command {
	var column, normalize string
	cmd := &cobra.Command{
		Use:   "index VALUE",
		Short: "Compute the blind index of a value for equality lookups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if column == "" {
				return errColumnRequired
			}
			norm, err := normalizerByName(normalize)
			if err != nil {
				return err
			}

			svc, err := g.openService()
			if err != nil {
				return err
			}
			defer svc.Close()

			idx, err := svc.BlindIndex(column, args[0], norm)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), idx)
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column identifier, <table>.<column> (required)")
	cmd.Flags().StringVar(&normalize, "normalize", "none", "Normalizer: none, trim, lower, email")
	return cmd
}

func normalizerByName(name string) (colcrypt.Normalizer, error) {
	switch name {
	case "", "none":
		return colcrypt.NormalizeNone, nil
	case "trim":
		return colcrypt.NormalizeTrim, nil
	case "lower":
		return colcrypt.NormalizeLower, nil
	case "email":
		return colcrypt.NormalizeEmail, nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q", name)
	}
}

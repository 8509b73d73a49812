package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/studynotes"
	"github.com/aretw0/studynotes/internal/config"
)

var (
	verbose     bool
	vaultFlag   string
	adapterFlag string
	formatFlag  string

	cfg      *config.Config
	vaultDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studynotes",
	Short: "Notes organized by subject, stored in a local vault",
	Long: `StudyNotes keeps study notes grouped by subject (Math, English, Science, History
and your own). Everything is stored as two records in a vault: a directory of
JSON/YAML files (optionally versioned with git), a SQLite file or a Redis server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveVaultDir()
		if err != nil {
			return err
		}
		vaultDir = dir

		cfg, err = config.Load(dir)
		if err != nil {
			return err
		}

		level := cfg.LogLevel()
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "Vault directory (default: nearest vault root or CWD)")
	rootCmd.PersistentFlags().StringVar(&adapterFlag, "adapter", "", "Storage adapter: fs, sqlite, redis, memory")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Record format for the fs adapter: json or yaml")
}

// resolveVaultDir picks --vault, then the nearest vault root, then the CWD.
func resolveVaultDir() (string, error) {
	if vaultFlag != "" {
		return vaultFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get CWD: %w", err)
	}
	if root, err := studynotes.FindRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// vaultOptions merges the loaded configuration with command line flags.
func vaultOptions(extra ...studynotes.Option) []studynotes.Option {
	adapter := cfg.Adapter
	if adapterFlag != "" {
		adapter = adapterFlag
	}
	format := cfg.Format
	if formatFlag != "" {
		format = formatFlag
	}

	opts := []studynotes.Option{
		studynotes.WithAdapter(adapter),
		studynotes.WithFormat(format),
		studynotes.WithLogger(slog.Default()),
		studynotes.WithRedis(cfg.Redis.Addr, cfg.Redis.Prefix),
	}
	if cfg.SQLite.Path != "" {
		opts = append(opts, studynotes.WithSQLitePath(cfg.SQLite.Path))
	}
	if cfg.Versioning != nil {
		opts = append(opts, studynotes.WithVersioning(*cfg.Versioning))
	}
	return append(opts, extra...)
}

// openVault opens the configured vault. The caller closes it.
func openVault(ctx context.Context, extra ...studynotes.Option) (*studynotes.Vault, error) {
	v, err := studynotes.Open(ctx, vaultDir, vaultOptions(extra...)...)
	if err != nil && v == nil {
		return nil, err
	}
	if err != nil {
		slog.Warn("vault opened with errors", "error", err)
	}
	return v, nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wso2/idcard-reissue-api/internal/bootstrap"
	"github.com/wso2/idcard-reissue-api/internal/config"
)

type rootOptions struct {
	configPath string
	backend    string
	dataDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "idcardctl",
		Short:         "Inspect and administer ID card reissuance requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "Config file (default: ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Override storage.backend (memory, file, mysql, redis)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Override storage.data_dir")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newSetStatusCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// openRuntime loads the config, applies flag overrides and opens the store
func openRuntime(ctx context.Context, opts *rootOptions) (*bootstrap.Runtime, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Storage.Backend = opts.backend
	}
	if opts.dataDir != "" {
		cfg.Storage.DataDir = opts.dataDir
	}

	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	return bootstrap.Open(ctx, cfg, logger)
}

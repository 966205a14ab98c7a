// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main is the entry point of the tactiled daemon.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"

	"github.com/tactiled/tactiled/internal/app/tactiled"
	"github.com/tactiled/tactiled/internal/pkg/config"
	"github.com/tactiled/tactiled/pkg/constants"
	"github.com/tactiled/tactiled/pkg/logging"
)

var flags struct {
	configPath string
	user       string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:           constants.AppName,
	Short:         "A background service providing braille access to the console screen",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("user") {
			cfg.User = flags.user
		}

		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flags.logLevel
		}

		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}

		logger := logging.ZapLogger(
			logging.NewDestination(os.Stderr, level, logging.WithColoredLevels()),
		)
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), unix.SIGINT, unix.SIGTERM)
		defer stop()

		return tactiled.Run(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", constants.DefaultConfigPath, "path to the configuration file")
	rootCmd.Flags().StringVarP(&flags.user, "user", "U", "", "account to switch to (failure to switch is fatal)")
	rootCmd.Flags().StringVarP(&flags.logLevel, "log-level", "l", "", "minimum level logged: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

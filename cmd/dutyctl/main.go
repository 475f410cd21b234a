// Command dutyctl is the operator CLI for duty schedules and attendance.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/dutyctl"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const programName = "dutyctl"

var globalFlags = struct {
	configFile string
	envFile    string
	output     string
	debug      bool
}{}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if globalFlags.debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named(programName)
}

// withEnv loads config from the command context, opens the database and
// runs fn within the configured timeout.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *dutyctl.Env) error) error {
	cfg := dutyctl.FromContext(cmd.Context())
	if cfg == nil {
		return fmt.Errorf("no config found in context")
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	env, err := dutyctl.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.Close(closeCtx)
	}()
	return fn(ctx, env)
}

func render(cmd *cobra.Command, v any) error {
	return dutyctl.Render(cmd.OutOrStdout(), globalFlags.output, v)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Manage duty schedules and attendance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if globalFlags.envFile != "" {
				if err := godotenv.Load(globalFlags.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("loading %s: %w", globalFlags.envFile, err)
				}
			}
			cfg, err := dutyctl.Load(globalFlags.configFile)
			if err != nil {
				return err
			}
			cmd.SetContext(dutyctl.WithContext(cmd.Context(), cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "", "path to config file to load")
	rootCmd.PersistentFlags().StringVar(&globalFlags.envFile, "env-file", ".env", "dotenv file to load before the environment is read")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.output, "output", "o", dutyctl.FormatJSON, "output format (json or yaml)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		generateCommand(),
		regenerateCommand(),
		showCommand(),
		rosterCommand(),
		importMembersCommand(),
		statsCommand(),
		hashPasscodeCommand(),
		sessionKeyCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

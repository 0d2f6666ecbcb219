package cli

import (
	"context"
	"fmt"

	cfgpkg "github.com/rzbill/modeldb/internal/config"
	"github.com/rzbill/modeldb/internal/runtime"
	logpkg "github.com/rzbill/modeldb/pkg/log"
	"github.com/rzbill/modeldb/pkg/react"
	"github.com/spf13/cobra"
)

// NewRoot constructs the root command with every subcommand registered.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "modeldb",
		Short:         "modeldb document store CLI",
		Long:          "modeldb stores JSON documents in a local Pebble database and indexes them by tag.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (JSON or YAML)")
	flags.String("env-file", "", "Dotenv file with MODELDB_* variables")
	flags.String("engine", "", "Storage engine: pebble|bolt")
	flags.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	flags.String("fsync", "", "Fsync mode: always|interval|never")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.String("log-format", "", "Log format: text|json")
	flags.String("watch", "", "Log notifications matching this CEL expression (\"true\" for all)")

	root.AddCommand(
		newPutCommand(),
		newImportCommand(),
		newGetCommand(),
		newDeleteCommand(),
		newFindCommand(),
		newListCommand(),
		newHealthCommand(),
	)
	return root
}

// loadConfig layers file, environment and flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	if envFile, _ := flags.GetString("env-file"); envFile != "" {
		if err := cfgpkg.LoadEnvFile(envFile); err != nil {
			return cfgpkg.Config{}, fmt.Errorf("env file: %w", err)
		}
	}
	cfgpkg.FromEnv(&cfg)
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("fsync") {
		cfg.Fsync, _ = flags.GetString("fsync")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	return cfg, nil
}

// withRuntime opens the database for the duration of fn.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logpkg.ApplyConfig(&cfg.Log)
	if err != nil {
		return err
	}
	// Pebble logs through the standard library logger.
	logpkg.RedirectStdLog(logger)

	rt, err := runtime.Open(runtime.Options{Config: cfg, Registry: NewRegistry(), Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.ResolvedDataDir(), err)
	}
	defer rt.Close()

	if expr, _ := cmd.Flags().GetString("watch"); expr != "" {
		watcher := logpkg.NewLogger(
			logpkg.WithFormatter(&logpkg.TextFormatter{}),
			logpkg.WithOutput(&logpkg.ConsoleOutput{W: cmd.ErrOrStderr()}),
		)
		l, err := react.Filter(expr, &eventLogger{logger: watcher.WithComponent("watch")})
		if err != nil {
			return fmt.Errorf("invalid --watch: %w", err)
		}
		sub := rt.DB().Register(l)
		defer sub.Close()
	}
	return fn(cmd.Context(), rt)
}

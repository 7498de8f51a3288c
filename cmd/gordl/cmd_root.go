package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/internal/config"
	"github.com/sandrolain/gordl/pkg/cache"
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/ext"
)

// app carries the state shared by the subcommands once the root command
// has loaded the configuration.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCommand() *cobra.Command {
	var (
		a          app
		configPath string
		logLevel   string
	)
	root := &cobra.Command{
		Use:   "gordl",
		Short: "Compile and check report definitions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.log = newLogger(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newCheckCommand(&a))
	root.AddCommand(newServeCommand(&a))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(gordl.Version())
		},
	})
	return root
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := cfg.Level()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// compileOptions turns the configuration into compile options sharing one
// expression cache.
func (a *app) compileOptions(failSeverity diag.Severity) []gordl.Option {
	opts := []gordl.Option{
		gordl.WithLogger(a.log),
		gordl.WithCache(cache.New(a.cfg.CacheSize)),
		gordl.WithMaxDepth(a.cfg.MaxDepth),
		gordl.WithExpressionSeverity(diag.Severity(a.cfg.ExpressionSeverity)),
		gordl.WithFailSeverity(failSeverity),
	}
	if a.cfg.Extensions {
		opts = append(opts, ext.WithAll())
	}
	return opts
}

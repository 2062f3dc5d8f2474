// Package cmd implements the linkmap-analysis command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linkmap-analysis/pkg/config"
	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/telemetry"
	"github.com/linkmap-analysis/pkg/utils"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger utils.Logger

	closers []func(context.Context) error
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   BinName(),
		Short: "Extract memory usage, symbols and sections from linker map files",
		Long: `linkmap-analysis reads the map file written by the embedded toolchain linker
and extracts its memory usage table, the linked sections and the symbol listing.

The inspection commands print one part of a map file. analyze and batch write
JSON reports, optionally storing them in the report database and publishing
them to object storage. serve exposes a map file over a read-only HTTP API.

Map files may be plain text or gzip or zstd compressed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: config.yaml in ., ./configs or /etc/linkmap-analysis)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(
		a.memoryCmd(),
		a.symbolsCmd(),
		a.sectionsCmd(),
		a.statsCmd(),
		a.findCmd(),
		a.analyzeCmd(),
		a.batchCmd(),
		a.serveCmd(),
		versionCmd(),
	)

	binName := BinName()
	root.Example = `  # Show memory usage per region
  ` + binName + ` memory -i build/app.map

  # Where is main defined?
  ` + binName + ` find -i build/app.map main

  # Write report.json and report.json.gz and store the report
  ` + binName + ` analyze -i build/app.map -o ./reports --persist

  # Analyze every map file of a build tree
  ` + binName + ` batch -d ./build -o ./reports --workers 8

  # Serve a map file on port 8080
  ` + binName + ` serve -i build/app.map --port 8080`

	return root
}

// setup loads the configuration, the logger and tracing once per invocation.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	if cfg.Log.OutputPath == "" {
		a.logger = utils.NewDefaultLogger(utils.ParseLogLevel(cfg.Log.Level), cmd.ErrOrStderr())
	} else {
		logger, closer, err := utils.NewLoggerFromConfig(cfg.Log.Level, cfg.Log.OutputPath)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeConfigError, "failed to open log file", err)
		}
		a.logger = logger
		a.closers = append(a.closers, func(context.Context) error { return closer.Close() })
	}
	utils.SetGlobalLogger(a.logger)

	shutdown, err := telemetry.Init(cmd.Context())
	if err != nil {
		a.logger.Warn("Tracing disabled: %v", err)
	} else {
		a.closers = append(a.closers, shutdown)
	}

	return nil
}

// close releases what setup acquired, in reverse order.
func (a *app) close() {
	ctx := context.Background()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.logger != nil {
			a.logger.Warn("Shutdown: %v", err)
		}
	}
	a.closers = nil
}

// Execute runs the command line and exits with the status of the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	a := &app{}
	err := a.rootCmd().ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to an exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var sErr *ServerError
		if errors.As(err, &sErr) {
			return sErr.ExitCode
		}
		return ExitConfigError
	}
	return ExitSuccess
}

// cliOptions is shared by every command.
type cliOptions struct {
	configPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// loadConfig reads the config named by --config.
func (o *cliOptions) loadConfig() (*Config, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, &ServerError{Op: "LoadConfig", Err: err, ExitCode: ExitConfigError}
	}
	return cfg, nil
}

// =============================================================================
// Commands
// =============================================================================

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "kitchen",
		Short: "Generate Docker Compose deployments from service manifests",
		Long: `Kitchen resolves a selection of services, combos, bento boxes and platters
against a set of manifests and writes a Docker Compose document for it, with
networks laid out by a security tier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")

	root.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newValidateCmd(opts),
		newComponentsCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger := SetupLogger(cfg, opts.stdout)
			logger.Info("starting kitchen",
				"version", Version,
				"config", opts.configPath,
			)

			server, err := NewServer(cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return server.Start(ctx)
		},
	}
}

func newVersionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "kitchen %s (built %s)\n", Version, BuildTime)
		},
	}
}

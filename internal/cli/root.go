// Package cli is the like4me command tree
package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/like4me/internal/app"
	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/logging"
)

// Version is set at build time
var Version = "dev"

type rootOptions struct {
	configPath string
	output     string
	verbose    bool

	newApp func(cfg *config.Config, logger logging.Logger) (*app.App, error)
}

// NewRootCommand returns the root command for the like4me CLI
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{
		newApp: func(cfg *config.Config, logger logging.Logger) (*app.App, error) {
			return app.New(cfg, logger)
		},
	})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "like4me",
		Short:         "Like and comment on your neighbors' recent blog posts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is <user config dir>/like4me/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.output, "output", "text", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newScheduleCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newBotTestCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// logger writes to the command's stderr so stdout stays machine readable
func (o *rootOptions) logger(cmd *cobra.Command) logging.Logger {
	logger := logging.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig reads .env files, then the config file, then the environment
func (o *rootOptions) loadConfig(logger logging.Logger) (*config.Config, error) {
	config.LoadEnv(logger)
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load()
}

func (o *rootOptions) loader(logger logging.Logger) func() (*config.Config, error) {
	return func() (*config.Config, error) { return o.loadConfig(logger) }
}

func (o *rootOptions) jsonOutput() bool {
	return o.output == "json"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the CLI and exits non-zero on error
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

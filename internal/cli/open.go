package cli

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/like4me/internal/config"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache>",
		Short:     "Open the config file or cache directory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "cache"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := openTarget(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", path)
			return browser.OpenFile(path)
		},
	}
}

// openTarget resolves a target, creating it on first use
func openTarget(target string) (string, error) {
	switch target {
	case "config":
		path, err := config.ConfigPath()
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := config.Default().Save(); err != nil {
				return "", fmt.Errorf("failed to write default config: %w", err)
			}
		}
		return path, nil
	case "cache":
		dir, err := config.CacheDir()
		if err != nil {
			return "", err
		}
		return dir, os.MkdirAll(dir, 0700)
	default:
		return "", fmt.Errorf("unknown target %q (want config or cache)", target)
	}
}

package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/like4me/internal/browser"
)

const botTestURL = "https://bot.sannysoft.com"

func newBotTestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot-test",
		Short: "Open " + botTestURL + " to audit the browser fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd)
			cfg, err := opts.loadConfig(logger)
			if err != nil {
				return err
			}

			logger.Info("Opening fingerprint audit with stealth browser options")
			// Never headless, so the page can be inspected
			chrome, err := browser.Launch(cmd.Context(), browser.LaunchOptions{UserAgent: cfg.Browser.UserAgent}, logger)
			if err != nil {
				return err
			}
			defer chrome.Close()

			if err := chrome.Navigate(cmd.Context(), botTestURL, browser.WaitLoad); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Press Enter to close the browser...")
			_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Print watchlist tickers that are oversold with MACD momentum",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Screen(cmd.Context())
	},
}

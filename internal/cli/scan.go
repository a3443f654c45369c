package cli

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the watchlist once and print the resulting states",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ScanOnce(cmd.Context())
	},
}

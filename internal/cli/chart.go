package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	chartTicker string
	chartOut    string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Export a ticker's close series with Bollinger bands as PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chartTicker == "" {
			return fmt.Errorf("--ticker is required")
		}
		return getApp().Export(cmd.Context(), chartTicker, chartOut)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartTicker, "ticker", "", "Ticker to chart")
	chartCmd.Flags().StringVar(&chartOut, "out", "chart.png", "Output PNG path")
}

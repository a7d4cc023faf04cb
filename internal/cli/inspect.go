package cli

import (
	"github.com/spf13/cobra"

	"slotguard/internal/app"
)

var inspectEndpoint string

var inspectCmd = &cobra.Command{
	Use:   "inspect <signature>",
	Short: "Dump a transaction's structure and decoded bridge instruction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Inspect(cmd.Context(), app.InspectOptions{
			Signature: args[0],
			Endpoint:  inspectEndpoint,
		})
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectEndpoint, "endpoint", "", "Fetch from a specific endpoint (defaults to the first configured source)")
}

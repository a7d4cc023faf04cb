package cli

import (
	"github.com/spf13/cobra"

	"slotguard/internal/app"
)

var verifyJSON bool

var verifyCmd = &cobra.Command{
	Use:   "verify <signature> [signature...]",
	Short: "Verify one or more transaction signatures",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Verify(cmd.Context(), app.VerifyOptions{
			Signatures: args,
			JSONOutput: verifyJSON,
		})
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print results as JSON")
}

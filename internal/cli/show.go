package cli

import (
	"github.com/spf13/cobra"

	"slotguard/internal/app"
)

var (
	showLimit       int
	showTransitions bool
	showSignature   string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print recent verifications or health transitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{
			Limit:       showLimit,
			Transitions: showTransitions,
			Signature:   showSignature,
		})
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to print")
	showCmd.Flags().BoolVar(&showTransitions, "transitions", false, "Show health transitions instead of verifications")
	showCmd.Flags().StringVar(&showSignature, "signature", "", "Look up a single verification by signature")
}

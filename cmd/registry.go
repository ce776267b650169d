package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)
	root.AddCommand(clipboardServeCmd)

	root.AddCommand(newCopyCmd())
	root.AddCommand(newPasteCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(historyCmd)
	root.AddCommand(configCmd)
}

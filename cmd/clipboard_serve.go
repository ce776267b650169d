package cmd

import (
	"encoding/json"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/errors"

	"github.com/spf13/cobra"
)

var clipboardServeCmd = &cobra.Command{
	Use:    clipboard.ServeCommand,
	Hidden: true,
	Short:  "Internal: own the system clipboard until replaced (do not call directly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req clipboard.ServeRequest
		if err := json.NewDecoder(cmd.InOrStdin()).Decode(&req); err != nil {
			return errors.NewWithError(errors.ExitCodeClipboard, "invalid clipboard request", err)
		}
		return clipboard.ServeSystem(req)
	},
}

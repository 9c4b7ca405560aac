package cmd

import (
	"github.com/spf13/cobra"

	"boq/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <kind> <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a shop or material on the server",
	Long: `Delete a shop or material. The entity is removed locally only after the
server confirms the delete; on failure the local state is re-synced so it
never drifts ahead of the server.

Examples:
  boq delete shop shp-4f2a91
  boq delete material mat-0c77b3`,
	GroupID: "review",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindArg(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if err := s.Delete(cmd.Context(), kind, args[1]); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Deleted %s %s", kind, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

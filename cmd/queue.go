package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"boq/internal/models"
	"boq/internal/output"
)

var queueCmd = &cobra.Command{
	Use:     "queue",
	Aliases: []string{"q"},
	Short:   "Inspect the local submission queue",
	Long: `Show submissions waiting to be delivered to the server.

Queued entries hold the drafted payload and a local ID; they receive a
server ID only once delivered.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		subs, err := s.Queued(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(subs)
		}

		if len(subs) == 0 {
			fmt.Println("Queue is empty")
			return nil
		}

		counts, err := s.QueueCounts(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		fmt.Println(output.SectionHeader(fmt.Sprintf("Queued submissions (%d shops, %d materials)",
			counts[models.KindShop], counts[models.KindMaterial])))
		for i := range subs {
			fmt.Println(output.FormatQueuedSubmission(subs[i]))
		}
		return nil
	},
}

var queueDropCmd = &cobra.Command{
	Use:   "drop <local-id>",
	Short: "Discard a queued submission without sending it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		dropped, err := s.DropQueued(cmd.Context(), args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !dropped {
			output.Error("no queued submission with local ID %s", args[0])
			return fmt.Errorf("not found: %s", args[0])
		}

		output.Success("Dropped queued submission %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueDropCmd)

	queueCmd.Flags().Bool("json", false, "Output as JSON")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"boq/internal/output"
	"boq/internal/syncer"
)

var flushCmd = &cobra.Command{
	Use:     "flush",
	Aliases: []string{"push"},
	Short:   "Try to deliver queued submissions now",
	Long: `Attempt to deliver every queued submission to the server.

The flush is gated: it is skipped when another flush is already running,
when one finished too recently, or when this session has already used up
its delivery attempts. Submissions that still fail stay queued.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		res, err := s.MaybeFlush(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		switch res.Skip {
		case syncer.FlushSkipNone:
			if res.Retained > 0 {
				output.Warning("Delivered %d, %d still queued (attempt %d)", res.Landed, res.Retained, res.Attempt)
			} else {
				output.Success("Delivered %d queued submissions (attempt %d)", res.Landed, res.Attempt)
			}
		case syncer.FlushSkipEmpty:
			fmt.Println("Queue is empty; nothing to deliver")
		case syncer.FlushSkipNoCredential:
			output.Warning("Not logged in; run 'boq auth login' first")
		case syncer.FlushSkipCooldown:
			last, _ := s.Session()
			fmt.Printf("Flush skipped: last one ran %s\n", output.FormatTimeAgo(last))
		case syncer.FlushSkipExhausted:
			output.Warning("Flush skipped: delivery attempts used up for this session")
		case syncer.FlushSkipInFlight:
			fmt.Println("Flush skipped: another one is in progress")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
}

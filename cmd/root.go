package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"boq/internal/config"
	"boq/internal/queue"
	"boq/internal/syncer"
)

var version string

// SetVersion sets the version string shown by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "boq",
	Short: "Bills-of-quantities approval client",
	Long: `boq - A client for submitting shops and materials into a bills-of-quantities
approval workflow.

Submissions made while offline or unauthenticated are queued locally and
delivered automatically once the server is reachable and a credential exists.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "review", Title: "Review Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

// newSyncer opens the local queue store and builds the synchronizer with
// the configured flush policy. The returned cleanup closes the store.
func newSyncer() (*syncer.Syncer, func(), error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	store, err := queue.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	s := syncer.New(config.GetServerURL(), store, config.GetFlushCooldown(), config.GetFlushMaxAttempts())
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Debug("close queue store", "error", err)
		}
	}
	return s, cleanup, nil
}

// startupFlush runs the opportunistic flush that fires on process start.
// It is a no-op unless a credential and queued work are both present.
func startupFlush(ctx context.Context, s *syncer.Syncer) {
	if !config.GetFlushOnStart() {
		return
	}
	if _, err := s.MaybeFlush(ctx); err != nil {
		slog.Debug("startup flush", "error", err)
	}
}

package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"boq/internal/config"
	"boq/internal/creds"
	"boq/internal/output"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"daemon"},
	Short:   "Run the background flush loop",
	Long: `Keep the process running and flush the queue in the background.

The loop flushes on a fixed interval and immediately when a credential
appears (for example after 'boq auth login' in another terminal). Stop
with Ctrl-C.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupWatchLogger()

		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interval := config.GetWatchInterval()
		slog.Info("watch started",
			"server", config.GetServerURL(),
			"interval", interval,
			"credential", creds.Available())

		startupFlush(ctx, s)

		go creds.Watch(ctx, config.GetCredentialPollInterval(), func() {
			if _, err := s.MaybeFlush(ctx); err != nil {
				slog.Warn("flush after credential appeared", "err", err)
			}
		})

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("shutting down")
				return nil
			case <-ticker.C:
				if _, err := s.MaybeFlush(ctx); err != nil {
					slog.Warn("periodic flush", "err", err)
				}
			}
		}
	},
}

// setupWatchLogger installs the default slog handler for the watch loop
// using the configured level and format.
func setupWatchLogger() {
	var level slog.Level
	switch strings.ToLower(config.GetWatchLogLevel()) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(config.GetWatchLogFormat()) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

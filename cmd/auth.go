package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"boq/internal/config"
	"boq/internal/creds"
	"boq/internal/gateway"
	"boq/internal/models"
	"boq/internal/output"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage server authentication",
	GroupID: "system",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for the approval server",
	Long: `Store an access token. The token is written to auth.json in the config
directory; queued submissions are flushed right away once it is saved.

Examples:
  boq auth login --token boq_k3y... --email aisha@example.com
  boq auth login    # prompts for the token`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		email, _ := cmd.Flags().GetString("email")

		if server, _ := cmd.Flags().GetString("server"); server != "" {
			cfg, err := config.Load()
			if err != nil {
				output.Error("load config: %v", err)
				return err
			}
			cfg.ServerURL = server
			if err := config.Save(cfg); err != nil {
				output.Error("save config: %v", err)
				return err
			}
		}

		if strings.TrimSpace(token) == "" {
			input := huh.NewInput().
				Title("Access token").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("token is required")
					}
					return nil
				})
			form := huh.NewForm(huh.NewGroup(input))
			form.WithTheme(huh.ThemeDracula())
			if err := form.Run(); err != nil {
				output.Error("%v", err)
				return err
			}
		}
		token = strings.TrimSpace(token)

		serverURL := config.GetServerURL()
		if _, err := gateway.New(serverURL, token).HealthCheck(cmd.Context()); err != nil {
			output.Warning("server not reachable (%v); token saved anyway", err)
		}

		c := &creds.Credentials{
			Token:     token,
			Email:     email,
			ServerURL: serverURL,
		}
		if err := creds.Save(c); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}

		if email != "" {
			output.Success("Logged in as %s", email)
		} else {
			output.Success("Logged in")
		}

		// A credential just appeared; drain anything that queued up while
		// logged out.
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Warning("cannot flush queued submissions: %v", err)
			return nil
		}
		defer cleanup()
		if res, err := s.MaybeFlush(cmd.Context()); err == nil && res.Flushed() && res.Landed > 0 {
			output.Success("Delivered %d queued submissions", res.Landed)
		}
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := creds.Clear(); err != nil {
			output.Error("logout: %v", err)
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status and queue size",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := creds.Load()
		if err != nil {
			output.Error("load auth: %v", err)
			return err
		}

		if !creds.Available() {
			fmt.Println("Not logged in.")
		} else {
			token := creds.Token()
			if len(token) > 12 {
				token = token[:12] + "..."
			}
			if c != nil && c.Email != "" {
				fmt.Printf("Email:  %s\n", c.Email)
			}
			fmt.Printf("Server: %s\n", config.GetServerURL())
			fmt.Printf("Token:  %s\n", token)
		}

		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		counts, err := s.QueueCounts(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Printf("Queued: %d shops, %d materials\n",
			counts[models.KindShop], counts[models.KindMaterial])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	authLoginCmd.Flags().StringP("token", "t", "", "Access token for the approval server")
	authLoginCmd.Flags().StringP("email", "e", "", "Email to record alongside the token")
	authLoginCmd.Flags().StringP("server", "s", "", "Approval server URL to save in config")
}

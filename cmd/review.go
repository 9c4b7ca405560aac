package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"boq/internal/models"
	"boq/internal/output"
)

// parseKindArg normalizes a user-supplied kind ("shop", "shops", "m", ...)
// and rejects anything else.
func parseKindArg(arg string) (models.EntityKind, error) {
	kind := models.NormalizeKind(strings.ToLower(arg))
	if !models.IsValidKind(kind) {
		return "", fmt.Errorf("invalid kind: %s (valid: shop, material)", arg)
	}
	return kind, nil
}

var reviewCmd = &cobra.Command{
	Use:     "review",
	Aliases: []string{"rev"},
	Short:   "Review pending submissions",
	Long:    `List, approve, and reject submissions that are awaiting approval.`,
	GroupID: "review",
}

var reviewListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List everything awaiting approval",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		startupFlush(cmd.Context(), s)

		if err := s.RefreshAll(cmd.Context()); err != nil {
			output.Warning("showing cached lists: %v", err)
		}

		shops := s.PendingShops()
		materials := s.PendingMaterials()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]any{
				"shops":     shops,
				"materials": materials,
			})
		}

		if len(shops) == 0 && len(materials) == 0 {
			fmt.Println("Nothing pending approval")
			return nil
		}

		if len(shops) > 0 {
			fmt.Println(output.SectionHeader("Shops pending approval"))
			for i := range shops {
				fmt.Println(output.FormatShopShort(&shops[i]))
			}
		}
		if len(materials) > 0 {
			if len(shops) > 0 {
				fmt.Println()
			}
			fmt.Println(output.SectionHeader("Materials pending approval"))
			for i := range materials {
				fmt.Println(output.FormatMaterialShort(&materials[i]))
			}
		}
		return nil
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <kind> <id>",
	Short: "Approve a pending submission",
	Long: `Approve a pending shop or material.

Examples:
  boq review approve shop shp-4f2a91
  boq review approve material mat-0c77b3`,
	Args: cobra.ExactArgs(2),
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

		if err := s.Approve(cmd.Context(), kind, args[1]); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Approved %s %s", kind, args[1])
		return nil
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <kind> <id>",
	Short: "Reject a pending submission",
	Long: `Reject a pending shop or material with a reason.

Examples:
  boq review reject shop shp-4f2a91 --reason "duplicate of shp-1188c0"
  boq review reject material mat-0c77b3 -r "rate is outdated"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindArg(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		reason, _ := cmd.Flags().GetString("reason")
		if strings.TrimSpace(reason) == "" {
			output.Error("a rejection reason is required (--reason)")
			return fmt.Errorf("rejection reason is required")
		}

		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if err := s.Reject(cmd.Context(), kind, args[1], reason); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Rejected %s %s", kind, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)

	reviewListCmd.Flags().Bool("json", false, "Output as JSON")
	reviewRejectCmd.Flags().StringP("reason", "r", "", "Why the submission is rejected (required)")
}

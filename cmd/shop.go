package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"boq/internal/input"
	"boq/internal/models"
	"boq/internal/output"
)

var shopCmd = &cobra.Command{
	Use:     "shop",
	Aliases: []string{"shops"},
	Short:   "Submit and inspect shops",
	Long:    `Submit shops for approval and inspect the server's view of them.`,
	GroupID: "core",
}

var shopAddCmd = &cobra.Command{
	Use:     "add [name]",
	Aliases: []string{"submit", "new"},
	Short:   "Submit a shop for approval",
	Long: `Submit a shop for approval. If the server is unreachable or no
credential is configured, the submission is queued locally and delivered
on a later flush.

Examples:
  boq shop add "Karim Hardware" --location Dhaka
  boq shop add --interactive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var draft models.ShopDraft
		if len(args) > 0 {
			draft.Name = args[0]
		}
		draft.Location, _ = cmd.Flags().GetString("location")
		draft.Contact, _ = cmd.Flags().GetString("contact")

		notes, _ := cmd.Flags().GetString("notes")
		expanded, err := input.ExpandValue(notes)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		draft.Notes = expanded

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive || (draft.Name == "" && draft.Location == "") {
			if err := runShopForm(&draft); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		if err := models.ValidateShopDraft(draft); err != nil {
			output.Error("%v", err)
			return err
		}

		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		startupFlush(cmd.Context(), s)

		shop, receipt, err := s.SubmitShop(cmd.Context(), draft)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if shop == nil {
			if receipt != nil && receipt.Delivered {
				output.Success("Submitted shop %q after a retry; it is awaiting approval", draft.Name)
			} else {
				output.Queued("Queued shop %q; it will be submitted on the next flush", draft.Name)
			}
			return nil
		}

		output.Success("Submitted shop %s", shop.ID)
		fmt.Println(output.FormatShopShort(shop))
		return nil
	},
}

var shopListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List shops",
	Long: `List confirmed shops, or the ones still awaiting approval with --pending.

The list is refreshed from the server first; if the server is unreachable
the last known state is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		startupFlush(cmd.Context(), s)

		if err := s.RefreshKind(cmd.Context(), models.KindShop); err != nil {
			output.Warning("showing cached lists: %v", err)
		}

		pending, _ := cmd.Flags().GetBool("pending")
		shops := s.Shops()
		if pending {
			shops = s.PendingShops()
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(shops)
		}

		if len(shops) == 0 {
			if pending {
				fmt.Println("No shops pending approval")
			} else {
				fmt.Println("No shops found")
			}
			return nil
		}

		for i := range shops {
			fmt.Println(output.FormatShopShort(&shops[i]))
		}
		return nil
	},
}

var shopShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a shop in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if err := s.RefreshKind(cmd.Context(), models.KindShop); err != nil {
			output.Warning("showing cached state: %v", err)
		}

		shop := findShop(s.Shops(), args[0])
		if shop == nil {
			shop = findShop(s.PendingShops(), args[0])
		}
		if shop == nil {
			output.Error("shop not found: %s", args[0])
			return fmt.Errorf("shop not found: %s", args[0])
		}

		fmt.Println(output.FormatShopLong(shop))
		if shop.Notes != "" {
			fmt.Println()
			notes, err := output.RenderMarkdown(shop.Notes)
			if err != nil {
				output.Warning("failed to render notes markdown: %v", err)
				fmt.Println(shop.Notes)
			} else {
				fmt.Println(notes)
			}
		}
		return nil
	},
}

func findShop(shops []models.Shop, id string) *models.Shop {
	for i := range shops {
		if shops[i].ID == id {
			return &shops[i]
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(shopCmd)
	shopCmd.AddCommand(shopAddCmd)
	shopCmd.AddCommand(shopListCmd)
	shopCmd.AddCommand(shopShowCmd)

	shopAddCmd.Flags().StringP("location", "l", "", "Shop location (required)")
	shopAddCmd.Flags().StringP("contact", "c", "", "Contact phone or email")
	shopAddCmd.Flags().StringP("notes", "n", "", "Free-form notes (markdown; @file or - for stdin)")
	shopAddCmd.Flags().BoolP("interactive", "i", false, "Fill in fields interactively")

	shopListCmd.Flags().Bool("pending", false, "Show shops awaiting approval instead")
	shopListCmd.Flags().Bool("json", false, "Output as JSON")
}

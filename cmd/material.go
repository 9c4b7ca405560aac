package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"boq/internal/input"
	"boq/internal/models"
	"boq/internal/output"
)

var materialCmd = &cobra.Command{
	Use:     "material",
	Aliases: []string{"materials", "mat"},
	Short:   "Submit and inspect materials",
	Long:    `Submit materials for approval and inspect the server's view of them.`,
	GroupID: "core",
}

var materialAddCmd = &cobra.Command{
	Use:     "add [name]",
	Aliases: []string{"submit", "new"},
	Short:   "Submit a material for approval",
	Long: `Submit a material for approval. If the server is unreachable or no
credential is configured, the submission is queued locally and delivered
on a later flush.

Examples:
  boq material add "Portland Cement" --unit bag --rate 420.50
  boq material add --interactive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var draft models.MaterialDraft
		if len(args) > 0 {
			draft.Name = args[0]
		}
		draft.Category, _ = cmd.Flags().GetString("category")
		draft.Unit, _ = cmd.Flags().GetString("unit")
		draft.Rate, _ = cmd.Flags().GetFloat64("rate")

		notes, _ := cmd.Flags().GetString("notes")
		expanded, err := input.ExpandValue(notes)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		draft.Notes = expanded

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive || (draft.Name == "" && draft.Unit == "") {
			if err := runMaterialForm(&draft); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		if err := models.ValidateMaterialDraft(draft); err != nil {
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

		material, receipt, err := s.SubmitMaterial(cmd.Context(), draft)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if material == nil {
			if receipt != nil && receipt.Delivered {
				output.Success("Submitted material %q after a retry; it is awaiting approval", draft.Name)
			} else {
				output.Queued("Queued material %q; it will be submitted on the next flush", draft.Name)
			}
			return nil
		}

		output.Success("Submitted material %s", material.ID)
		fmt.Println(output.FormatMaterialShort(material))
		return nil
	},
}

var materialListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List materials",
	Long: `List confirmed materials, or the ones still awaiting approval with --pending.

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

		if err := s.RefreshKind(cmd.Context(), models.KindMaterial); err != nil {
			output.Warning("showing cached lists: %v", err)
		}

		pending, _ := cmd.Flags().GetBool("pending")
		materials := s.Materials()
		if pending {
			materials = s.PendingMaterials()
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(materials)
		}

		if len(materials) == 0 {
			if pending {
				fmt.Println("No materials pending approval")
			} else {
				fmt.Println("No materials found")
			}
			return nil
		}

		for i := range materials {
			fmt.Println(output.FormatMaterialShort(&materials[i]))
		}
		return nil
	},
}

var materialShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a material in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := newSyncer()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if err := s.RefreshKind(cmd.Context(), models.KindMaterial); err != nil {
			output.Warning("showing cached state: %v", err)
		}

		material := findMaterial(s.Materials(), args[0])
		if material == nil {
			material = findMaterial(s.PendingMaterials(), args[0])
		}
		if material == nil {
			output.Error("material not found: %s", args[0])
			return fmt.Errorf("material not found: %s", args[0])
		}

		fmt.Println(output.FormatMaterialLong(material))
		if material.Notes != "" {
			fmt.Println()
			notes, err := output.RenderMarkdown(material.Notes)
			if err != nil {
				output.Warning("failed to render notes markdown: %v", err)
				fmt.Println(material.Notes)
			} else {
				fmt.Println(notes)
			}
		}
		return nil
	},
}

func findMaterial(materials []models.Material, id string) *models.Material {
	for i := range materials {
		if materials[i].ID == id {
			return &materials[i]
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(materialCmd)
	materialCmd.AddCommand(materialAddCmd)
	materialCmd.AddCommand(materialListCmd)
	materialCmd.AddCommand(materialShowCmd)

	materialAddCmd.Flags().StringP("category", "c", "", "Material category")
	materialAddCmd.Flags().StringP("unit", "u", "", "Unit of measure (required)")
	materialAddCmd.Flags().Float64P("rate", "r", 0, "Rate per unit")
	materialAddCmd.Flags().StringP("notes", "n", "", "Free-form notes (markdown; @file or - for stdin)")
	materialAddCmd.Flags().BoolP("interactive", "i", false, "Fill in fields interactively")

	materialListCmd.Flags().Bool("pending", false, "Show materials awaiting approval instead")
	materialListCmd.Flags().Bool("json", false, "Output as JSON")
}

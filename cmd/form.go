package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"boq/internal/models"
)

var (
	errNameRequired     = errors.New("name is required")
	errLocationRequired = errors.New("location is required")
)

// runShopForm prompts for the shop fields that were not supplied as
// flags. The draft is updated in place.
func runShopForm(d *models.ShopDraft) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&d.Name).
				Placeholder("Shop name...").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errNameRequired
					}
					return nil
				}),
			huh.NewInput().
				Title("Location").
				Value(&d.Location).
				Placeholder("City or site...").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errLocationRequired
					}
					return nil
				}),
			huh.NewInput().
				Title("Contact").
				Value(&d.Contact).
				Placeholder("Phone or email (optional)"),
			huh.NewText().
				Title("Notes").
				Value(&d.Notes).
				Placeholder("Optional notes, markdown supported...").
				Lines(3),
		).Title("New Shop"),
	)
	form.WithTheme(huh.ThemeDracula())
	return form.Run()
}

// runMaterialForm prompts for the material fields that were not supplied
// as flags. Rate is edited as text and parsed on submit.
func runMaterialForm(d *models.MaterialDraft) error {
	rate := ""
	if d.Rate > 0 {
		rate = strconv.FormatFloat(d.Rate, 'f', -1, 64)
	}

	unitOptions := []huh.Option[string]{
		huh.NewOption("Unit (piece)", "unit"),
		huh.NewOption("Kilogram", "kg"),
		huh.NewOption("Tonne", "t"),
		huh.NewOption("Metre", "m"),
		huh.NewOption("Square metre", "m2"),
		huh.NewOption("Cubic metre", "m3"),
		huh.NewOption("Litre", "l"),
		huh.NewOption("Bag", "bag"),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&d.Name).
				Placeholder("Material name...").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errNameRequired
					}
					return nil
				}),
			huh.NewInput().
				Title("Category").
				Value(&d.Category).
				Placeholder("cement, steel, aggregate... (optional)"),
			huh.NewSelect[string]().
				Title("Unit").
				Options(unitOptions...).
				Value(&d.Unit),
			huh.NewInput().
				Title("Rate").
				Value(&rate).
				Placeholder("Price per unit, e.g. 420.50").
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					v, err := strconv.ParseFloat(s, 64)
					if err != nil {
						return fmt.Errorf("not a number: %s", s)
					}
					if v < 0 {
						return errors.New("rate cannot be negative")
					}
					return nil
				}),
			huh.NewText().
				Title("Notes").
				Value(&d.Notes).
				Placeholder("Optional notes, markdown supported...").
				Lines(3),
		).Title("New Material"),
	)
	form.WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return err
	}

	if s := strings.TrimSpace(rate); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid rate: %s", s)
		}
		d.Rate = v
	}
	return nil
}

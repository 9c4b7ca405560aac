// Package output provides styled terminal output helpers (success,
// error, entity and queue formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"boq/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	statusStyles = map[models.ApprovalStatus]lipgloss.Style{
		models.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusApproved: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusRejected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Queued prints a notice that a submission was parked for later delivery
func Queued(format string, args ...interface{}) {
	fmt.Println(queuedStyle.Render(fmt.Sprintf(format, args...)))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatStatus formats an approval status with color
func FormatStatus(s models.ApprovalStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// StatusBadge returns a status indicator with symbol
// e.g., "◎ pending", "✓ approved", "✗ rejected"
func StatusBadge(status models.ApprovalStatus) string {
	symbols := map[models.ApprovalStatus]string{
		models.StatusPending:  "◎",
		models.StatusApproved: "✓",
		models.StatusRejected: "✗",
	}
	symbol, ok := symbols[status]
	if !ok {
		symbol = "?"
	}
	style, hasStyle := statusStyles[status]
	if hasStyle {
		return style.Render(fmt.Sprintf("%s %s", symbol, status))
	}
	return fmt.Sprintf("%s %s", symbol, status)
}

// FormatRate formats a material rate as "550.00/bag"
func FormatRate(rate float64, unit string) string {
	return fmt.Sprintf("%.2f/%s", rate, unit)
}

// FormatShopShort formats a shop on one line
func FormatShopShort(shop *models.Shop) string {
	parts := []string{
		titleStyle.Render(shop.ID),
		shop.Name,
		subtleStyle.Render(shop.Location),
		FormatStatus(shop.Status),
	}
	if shop.Status == models.StatusRejected && shop.RejectionReason != "" {
		parts = append(parts, errorStyle.Render(shop.RejectionReason))
	}
	return strings.Join(parts, "  ")
}

// FormatMaterialShort formats a material on one line
func FormatMaterialShort(material *models.Material) string {
	parts := []string{
		titleStyle.Render(material.ID),
		material.Name,
		subtleStyle.Render(FormatRate(material.Rate, material.Unit)),
	}
	if material.Category != "" {
		parts = append(parts, subtleStyle.Render(material.Category))
	}
	parts = append(parts, FormatStatus(material.Status))
	if material.Status == models.StatusRejected && material.RejectionReason != "" {
		parts = append(parts, errorStyle.Render(material.RejectionReason))
	}
	return strings.Join(parts, "  ")
}

// FormatShopLong formats a shop in long format. Notes are rendered
// separately as markdown by the caller.
func FormatShopLong(shop *models.Shop) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", shop.ID, shop.Name)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", StatusBadge(shop.Status)))
	if shop.RejectionReason != "" {
		sb.WriteString(fmt.Sprintf("Rejection reason: %s\n", shop.RejectionReason))
	}
	sb.WriteString(fmt.Sprintf("Location: %s\n", shop.Location))
	if shop.Contact != "" {
		sb.WriteString(fmt.Sprintf("Contact: %s\n", shop.Contact))
	}
	sb.WriteString(subtleStyle.Render(fmt.Sprintf("Created %s, updated %s",
		FormatTimeAgo(shop.CreatedAt), FormatTimeAgo(shop.UpdatedAt))))
	sb.WriteString("\n")

	return sb.String()
}

// FormatMaterialLong formats a material in long format. Notes are
// rendered separately as markdown by the caller.
func FormatMaterialLong(material *models.Material) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", material.ID, material.Name)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", StatusBadge(material.Status)))
	if material.RejectionReason != "" {
		sb.WriteString(fmt.Sprintf("Rejection reason: %s\n", material.RejectionReason))
	}
	sb.WriteString(fmt.Sprintf("Rate: %s\n", FormatRate(material.Rate, material.Unit)))
	if material.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", material.Category))
	}
	sb.WriteString(subtleStyle.Render(fmt.Sprintf("Created %s, updated %s",
		FormatTimeAgo(material.CreatedAt), FormatTimeAgo(material.UpdatedAt))))
	sb.WriteString("\n")

	return sb.String()
}

// FormatQueuedSubmission formats a parked submission on one line
func FormatQueuedSubmission(sub models.QueuedSubmission) string {
	parts := []string{
		titleStyle.Render(sub.LocalID),
		subtleStyle.Render(string(sub.Kind)),
		sub.Label(),
		queuedStyle.Render("queued " + FormatTimeAgo(sub.QueuedAt)),
	}
	return strings.Join(parts, "  ")
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nPENDING SHOPS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

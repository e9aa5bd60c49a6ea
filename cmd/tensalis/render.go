package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	tensalis "github.com/tensalis/tensalis-go"
)

var (
	verifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusText(s tensalis.Status) string {
	switch s {
	case tensalis.StatusVerified:
		return verifiedStyle.Render("✓ VERIFIED")
	case tensalis.StatusWarning:
		return warningStyle.Render("! WARNING")
	case tensalis.StatusBlocked:
		return blockedStyle.Render("✗ BLOCKED")
	default:
		return string(s)
	}
}

// renderResult writes one verdict in human-readable form.
func renderResult(w io.Writer, res *tensalis.VerificationResult) {
	fmt.Fprintln(w, statusText(res.Status))
	if res.Reason != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("reason:"), res.Reason)
	}
	if res.Severity != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("severity:"), res.Severity)
	}
	if res.Layer != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("layer:"), res.Layer)
	}
	if res.Confidence != nil {
		fmt.Fprintf(w, "%s %.2f\n", labelStyle.Render("confidence:"), *res.Confidence)
	}
	if res.LatencyMS != nil {
		fmt.Fprintf(w, "%s %dms\n", labelStyle.Render("latency:"), *res.LatencyMS)
	}
}

// renderHealth writes the service health summary.
func renderHealth(w io.Writer, h *tensalis.HealthStatus) {
	style := verifiedStyle
	if h.Status != "ok" {
		style = blockedStyle
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("status:"), style.Render(h.Status))
	fmt.Fprintf(w, "%s %dms\n", labelStyle.Render("latency:"), h.LatencyMS)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("version:"), h.Version)
}

// renderUsage writes the usage report with quota headroom.
func renderUsage(w io.Writer, u *tensalis.UsageReport) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("plan:"), u.Plan)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("today:"), quota(u.RequestsToday, u.LimitDaily))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("month:"), quota(u.RequestsThisMonth, u.LimitMonthly))
}

// renderRateLimit writes the rate limit headers from the last response.
func renderRateLimit(w io.Writer, rl tensalis.RateLimit) {
	fmt.Fprintf(w, "%s %d of %d remaining, resets %s\n",
		labelStyle.Render("rate limit:"), rl.Remaining, rl.Limit, rl.Reset.Local().Format("15:04:05"))
}

func quota(used, limit int64) string {
	if limit <= 0 {
		return fmt.Sprintf("%d (unlimited)", used)
	}
	s := fmt.Sprintf("%d / %d", used, limit)
	if used >= limit {
		return blockedStyle.Render(s)
	}
	return s
}

package services

import (
	"fmt"
	"strings"
	"time"

	"ringba-rpc-monitor/models"
)

// arrow formats a percentage delta with a direction arrow and a sign, e.g.
// "↗️ +12.5%".
func arrow(pct float64) string {
	switch {
	case pct > 0:
		return fmt.Sprintf("↗️ +%.1f%%", pct)
	case pct < 0:
		return fmt.Sprintf("↘️ %.1f%%", pct)
	}
	return fmt.Sprintf("→ %.1f%%", pct)
}

// RenderMessage formats a run report as Slack markdown: a header paragraph,
// a blank line, then one bullet line per target. The notifier splits on that
// blank line when the message needs chunking.
func RenderMessage(rep *models.RunReport) string {
	var b strings.Builder
	ts := rep.CapturedAt.Format("2006-01-02 15:04:05")

	if rep.Comparative {
		fmt.Fprintf(&b, "📊 *Ringba Comparative Report - %s ET (vs %s):*\n\n", ts, rep.PreviousSlot)
	} else {
		fmt.Fprintf(&b, "📊 *Ringba Report - %s ET:*\nCurrent target RPC values:\n\n", ts)
		if rep.Degraded {
			b.WriteString("_No earlier snapshot was available for comparison._\n")
		}
	}

	for _, row := range rep.Rows {
		if rep.Comparative && !row.IsNew() {
			fmt.Fprintf(&b, "• %s - RPC: %s, Incoming: %s, Converted: %s\n",
				row.TargetName, arrow(*row.RPCPct), arrow(*row.IncomingPct), arrow(*row.ConvertedPct))
			continue
		}
		line := fmt.Sprintf("• %s - RPC: $%.2f, Incoming: %d, Converted: %d",
			row.TargetName, row.RPC, row.Incoming, row.Converted)
		if rep.Comparative {
			line += " (new target, no comparison)"
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// RenderErrorMessage formats the failure notification delivered through the
// same webhook as normal reports.
func RenderErrorMessage(err error, at time.Time) string {
	return fmt.Sprintf("❌ *Ringba Bot Error*: Failed to retrieve RPC values\n*Error*: %v\n*Time*: %s",
		err, at.Format("2006-01-02 15:04:05"))
}

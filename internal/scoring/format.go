package scoring

import (
	"fmt"
	"math"
)

// formatKind selects how a metric's raw value renders for display. The
// formatter is keyed by metric identity in priorityOrder, so renaming a
// metric never silently changes its formatting.
type formatKind int

const (
	formatNumber formatKind = iota
	formatPercent
	formatDays
	formatMonths
	formatRatio
)

// formatValue renders a raw metric value for the results page and report.
func formatValue(kind formatKind, v float64) string {
	switch kind {
	case formatPercent:
		return fmt.Sprintf("%d%%", int(math.Round(v)))
	case formatDays:
		return fmt.Sprintf("%d days", int(math.Round(v)))
	case formatMonths:
		return fmt.Sprintf("%d months", int(math.Round(v)))
	case formatRatio:
		return fmt.Sprintf("%.1f:1", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

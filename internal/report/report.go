// Package report renders finished aggregation results as human-readable
// text, for terminal output and as input to the narrative service.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

// FormatDelivery renders one day's delivery result.
func FormatDelivery(date string, res *model.DeliveryResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Delivery Report: %s\n\n", date)

	b.WriteString("## Agents\n")
	for _, s := range res.Agents {
		fmt.Fprintf(&b, "- %s: %d/%d delivered (%.1f%%) | failed %d, ofd %d, rto %d",
			s.Agent, s.Delivered, s.Total, s.SuccessRate, s.Failed, s.OFD, s.RTO)
		if len(s.Badges) > 0 {
			badges := make([]string, len(s.Badges))
			for i, badge := range s.Badges {
				badges[i] = string(badge)
			}
			fmt.Fprintf(&b, " [%s]", strings.Join(badges, ", "))
		}
		b.WriteString("\n")
		if len(s.PendingTrackings) > 0 {
			fmt.Fprintf(&b, "  pending: %s\n", strings.Join(s.PendingTrackings, ", "))
		}
	}
	b.WriteString("\n")

	gt := res.GrandTotal
	b.WriteString("## Grand Total\n")
	fmt.Fprintf(&b, "- Delivered: %d\n", gt.Delivered)
	fmt.Fprintf(&b, "- Failed: %d\n", gt.Failed)
	fmt.Fprintf(&b, "- Out for delivery: %d\n", gt.OFD)
	fmt.Fprintf(&b, "- RTO: %d\n", gt.RTO)
	fmt.Fprintf(&b, "- Total: %d\n", gt.Total)
	fmt.Fprintf(&b, "- Success rate: %.1f%%\n", gt.SuccessRate)

	return b.String()
}

// FormatPickup renders one day's pickup result, including the reason
// breakdowns sorted by frequency.
func FormatPickup(date string, res *model.PickupResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pickup Report: %s\n\n", date)

	b.WriteString("## Agents\n")
	for _, s := range res.Agents {
		fmt.Fprintf(&b, "- %s: %d picked of %d (%.1f%%) | ofd %d, failed %d, cancelled %d, rvp %d, web %d\n",
			s.Agent, s.Picked, s.Total, s.SuccessRate, s.OFD, s.Failed, s.Cancelled, s.RVP, s.Web)
	}
	b.WriteString("\n")

	gt := res.GrandTotal
	b.WriteString("## Grand Total\n")
	fmt.Fprintf(&b, "- Picked: %d\n", gt.Picked)
	fmt.Fprintf(&b, "- Total: %d\n", gt.Total)
	fmt.Fprintf(&b, "- Success rate: %.1f%%\n\n", gt.SuccessRate)

	writeBreakdown(&b, "Failure Reasons", res.ReasonsBreakdown)
	writeBreakdown(&b, "Cancellation Reasons", res.CancelReasonBreakdown)

	return b.String()
}

func writeBreakdown(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)

	type entry struct {
		reason string
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for reason, count := range counts {
		entries = append(entries, entry{reason, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].reason < entries[j].reason
	})
	for _, e := range entries {
		fmt.Fprintf(b, "- %s: %d\n", e.reason, e.count)
	}
	b.WriteString("\n")
}

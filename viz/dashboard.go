// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes pipeline volume, commission, insight counts, and overdue work
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

type DashboardStats struct {
	PipelineByStage map[string]PipelineStageStats

	TotalLeads        int
	ActiveLeads       int
	OpenTransactions  int
	PendingTasks      int
	OverdueTasks      int
	PendingVolume     int64 // cents, open transactions
	PendingCommission int64
	ClosedVolume      int64
	ClosedCommission  int64

	InsightsByKind map[string]int
	Advisories     int

	// NeedsAttention holds the top insights, most urgent first.
	NeedsAttention []models.Insight
}

type PipelineStageStats struct {
	Stage  string
	Count  int
	Volume int64 // in cents
}

const attentionLimit = 5

func stageStats(txs []models.Transaction) map[string]PipelineStageStats {
	out := make(map[string]PipelineStageStats)
	for _, tx := range txs {
		st := out[tx.Status]
		st.Stage = tx.Status
		st.Count++
		st.Volume += tx.SalePrice
		out[tx.Status] = st
	}
	return out
}

// BuildDashboard computes the dashboard from a snapshot and the current
// insight and advisory lists.
func BuildDashboard(snap engine.Snapshot, insights []models.Insight, advisories []models.StatusAdvisory, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		PipelineByStage: stageStats(snap.Transactions),
		TotalLeads:      len(snap.Leads),
		InsightsByKind:  make(map[string]int),
		Advisories:      len(advisories),
	}

	for i := range snap.Leads {
		if snap.Leads[i].IsActive() {
			stats.ActiveLeads++
		}
	}

	for i := range snap.Transactions {
		tx := &snap.Transactions[i]
		switch {
		case tx.Status == models.StageClosed:
			stats.ClosedVolume += tx.SalePrice
			stats.ClosedCommission += tx.Commission()
		case !engine.IsTerminal(tx.Status):
			stats.OpenTransactions++
			stats.PendingVolume += tx.SalePrice
			stats.PendingCommission += tx.Commission()
		}
	}

	today := engine.StartOfDay(now)
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		if t.IsCompleted() {
			continue
		}
		stats.PendingTasks++
		if t.IsOverdue(today) {
			stats.OverdueTasks++
		}
	}

	for _, in := range insights {
		stats.InsightsByKind[in.Kind]++
	}
	if len(insights) > attentionLimit {
		stats.NeedsAttention = insights[:attentionLimit]
	} else {
		stats.NeedsAttention = insights
	}
	return stats
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString(titleStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━") + "\n")
	out.WriteString(titleStyle.Render("  LEAD ENGINE DASHBOARD") + "\n")
	out.WriteString(titleStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━") + "\n\n")

	out.WriteString(sectionStyle.Render("PIPELINE") + "\n")
	renderPipeline(&out, stats.PipelineByStage)
	out.WriteString("\n")

	out.WriteString(sectionStyle.Render("VOLUME") + "\n")
	out.WriteString(fmt.Sprintf("  Pending: $%s (commission $%s)\n", humanize.Comma(stats.PendingVolume/100), humanize.Comma(stats.PendingCommission/100)))
	out.WriteString(fmt.Sprintf("  Closed:  $%s (commission $%s)\n\n", humanize.Comma(stats.ClosedVolume/100), humanize.Comma(stats.ClosedCommission/100)))

	out.WriteString(sectionStyle.Render("STATS") + "\n")
	out.WriteString(fmt.Sprintf("  %d leads (%d active)  %d open transactions  %d pending tasks\n\n",
		stats.TotalLeads, stats.ActiveLeads, stats.OpenTransactions, stats.PendingTasks))

	out.WriteString(sectionStyle.Render("INSIGHTS") + "\n")
	kinds := []string{models.KindUrgent, models.KindWarning, models.KindOpportunity, models.KindMilestone, models.KindReminder}
	var parts []string
	for _, k := range kinds {
		if n := stats.InsightsByKind[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	if len(parts) == 0 {
		out.WriteString("  none\n")
	} else {
		out.WriteString("  " + strings.Join(parts, ", ") + "\n")
	}
	if stats.Advisories > 0 {
		out.WriteString(fmt.Sprintf("  %d status advisories waiting\n", stats.Advisories))
	}

	if len(stats.NeedsAttention) > 0 || stats.OverdueTasks > 0 {
		out.WriteString("\n" + sectionStyle.Render("NEEDS ATTENTION") + "\n")
		if stats.OverdueTasks > 0 {
			out.WriteString(warnStyle.Render(fmt.Sprintf("  ⚠  %d overdue tasks", stats.OverdueTasks)) + "\n")
		}
		for _, in := range stats.NeedsAttention {
			out.WriteString(fmt.Sprintf("  P%d %s\n", in.Priority, in.Title))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[string]PipelineStageStats) {
	maxCount := 0
	for _, st := range pipeline {
		if st.Count > maxCount {
			maxCount = st.Count
		}
	}
	if maxCount == 0 {
		out.WriteString("  no transactions\n")
		return
	}

	for _, stage := range engine.Stages() {
		st, ok := pipeline[stage.Name]
		if !ok {
			continue
		}
		barLength := (st.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-15s %s  %2d ($%dK)\n", stage.Label, bar, st.Count, st.Volume/100000))
	}
}

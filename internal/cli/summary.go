package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekervik/kontoklar/internal/model"
)

// ClassifySummary aggregates one classification batch for display.
type ClassifySummary struct {
	BySource map[model.ClassificationSource]int
	Duration time.Duration
	Total    int
	Flagged  int
	DryRun   bool
}

var sourceLabels = []struct {
	source model.ClassificationSource
	label  string
}{
	{model.SourceAI, "AI classified"},
	{model.SourceSemantic, "Semantic matches"},
	{model.SourceRule, "Rule matches"},
	{model.SourceDefault, "Default bucket"},
}

// Render formats the summary as a bordered completion box.
func (s ClassifySummary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Statistics:\n", ChartIcon)
	fmt.Fprintf(&b, "  • Total transactions: %d\n", s.Total)
	for _, sl := range sourceLabels {
		n := s.BySource[sl.source]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "  • %s: %d (%.1f%%)\n", sl.label, n, percent(n, s.Total))
	}
	fmt.Fprintf(&b, "  • Flagged for review: %d\n", s.Flagged)
	if s.Duration > 0 {
		fmt.Fprintf(&b, "  • Time taken: %s\n", s.Duration.Round(time.Millisecond))
	}
	if s.DryRun {
		b.WriteString("\n" + WarningStyle.Render("Dry run: nothing was saved."))
	}
	return RenderBox("Classification Complete", b.String())
}

// ReconcileSummary aggregates one reconciliation pass for display.
type ReconcileSummary struct {
	BillsMatched   int
	BillsOpen      int
	Amortizations  int
	Interests      int
	AmortizedTotal float64
	DryRun         bool
}

// Render formats the summary as a bordered completion box.
func (s ReconcileSummary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Results:\n", BankIcon)
	fmt.Fprintf(&b, "  • Bills settled: %d\n", s.BillsMatched)
	fmt.Fprintf(&b, "  • Bills still open: %d\n", s.BillsOpen)
	fmt.Fprintf(&b, "  • Loan amortizations: %d (%s)\n", s.Amortizations, FormatAmount(s.AmortizedTotal))
	fmt.Fprintf(&b, "  • Loan interest payments: %d\n", s.Interests)
	if s.DryRun {
		b.WriteString("\n" + WarningStyle.Render("Dry run: nothing was saved."))
	}
	return RenderBox("Reconciliation Complete", b.String())
}

// RenderRetrainReport formats a retraining outcome for display.
func RenderRetrainReport(report model.RetrainReport) string {
	if !report.Success {
		return FormatWarning(report.Message)
	}
	detail := fmt.Sprintf("%s\n  • Samples used: %d\n  • Accuracy: %.0f%%",
		FormatSuccess(report.Message), report.SamplesUsed, report.Accuracy*100)
	return detail
}

// RenderTrainingStats formats the training corpus overview.
func RenderTrainingStats(stats model.TrainingStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Corpus:\n", ChartIcon)
	fmt.Fprintf(&b, "  • Total samples: %d\n", stats.TotalSamples)
	fmt.Fprintf(&b, "  • Manual corrections: %d\n", stats.ManualSamples)
	fmt.Fprintf(&b, "  • Categories: %d\n", len(stats.Categories))
	if stats.ReadyToTrain {
		b.WriteString("\n" + FormatSuccess("Ready to train."))
	} else {
		b.WriteString("\n" + FormatWarning(fmt.Sprintf(
			"Not enough data yet: need at least %d samples.", stats.MinSamplesNeeded)))
	}
	return RenderBox("Training Data", b.String())
}

// FormatAmount renders an amount the Swedish way: two decimals, kr suffix.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f kr", amount)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

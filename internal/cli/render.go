package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hollomancer/sbir-analytics-sub001/internal/engine"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
)

// Summary layout constants.
const (
	summaryBoxWidth   = 52
	summaryLabelWidth = 22
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true)
	summaryBoxStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1).
				Width(summaryBoxWidth)
	summaryLabelStyle = lipgloss.NewStyle().Width(summaryLabelWidth).Faint(true)
)

// renderSummary writes the run-level metrics box shown after an enrich
// run.
func renderSummary(w io.Writer, res *engine.Result) {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("ENRICHMENT SUMMARY"))
	b.WriteString("\n")
	writeRow(&b, "Run ID", res.RunID)
	writeRow(&b, "Records", p.Sprintf("%d", res.Metrics.TotalRecords))
	writeRow(&b, "Matched", p.Sprintf("%d", res.Metrics.TotalMatched))
	writeRow(&b, "Match rate", fmt.Sprintf("%.1f%%", res.Metrics.MatchRate*100))
	writeRow(&b, "Chunks", p.Sprintf("%d", res.Metrics.ChunksCombined))
	if res.Resumed {
		writeRow(&b, "Resumed at chunk", p.Sprintf("%d", res.ResumedAtChunk))
	}
	if res.Metrics.Error != "" {
		writeRow(&b, "Note", res.Metrics.Error)
	}

	if len(res.Metrics.MethodCounts) > 0 {
		b.WriteString("\n")
		b.WriteString(summaryTitleStyle.Render("BY METHOD"))
		b.WriteString("\n")
		for _, method := range sortedMethods(res.Metrics.MethodCounts) {
			writeRow(&b, string(method), p.Sprintf("%d", res.Metrics.MethodCounts[method]))
		}
	}

	fmt.Fprintln(w, summaryBoxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// renderEstimate writes the memory-estimate table for the estimate
// command.
func renderEstimate(w io.Writer, est engine.MemoryEstimate, availableMB float64, suggested int) {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("MEMORY ESTIMATE"))
	b.WriteString("\n")
	writeRow(&b, "Source records", fmt.Sprintf("%.1f MB", est.SourceMB))
	writeRow(&b, "Reference set", fmt.Sprintf("%.1f MB", est.ReferenceMB))
	writeRow(&b, "Chunk working set", fmt.Sprintf("%.1f MB", est.WorkingMB))
	writeRow(&b, "Peak", fmt.Sprintf("%.1f MB", est.PeakMB))
	if availableMB > 0 {
		writeRow(&b, "Available now", fmt.Sprintf("%.0f MB", availableMB))
	}
	if suggested > 0 {
		writeRow(&b, "Suggested chunk size", p.Sprintf("%d", suggested))
	}

	fmt.Fprintln(w, summaryBoxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(summaryLabelStyle.Render(label))
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

// sortedMethods orders the histogram by tier priority, unknown methods
// last.
func sortedMethods(counts map[match.Method]int) []match.Method {
	order := map[match.Method]int{
		match.MethodExactPrimary:   0,
		match.MethodExactSecondary: 1,
		match.MethodFuzzyAuto:      2,
		match.MethodFuzzyCandidate: 3,
		match.MethodFuzzyLow:       4,
		match.MethodNone:           5,
	}

	methods := make([]match.Method, 0, len(counts))
	for m := range counts {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(a, b int) bool {
		ra, oka := order[methods[a]]
		rb, okb := order[methods[b]]
		if oka && okb {
			return ra < rb
		}
		if oka != okb {
			return oka
		}
		return methods[a] < methods[b]
	})
	return methods
}

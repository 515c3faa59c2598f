// ABOUTME: Console rendering shared by the match and eval commands.
// ABOUTME: Prints ranked matches or the no-match suggestion with lipgloss styles.
package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/vibematch/internal/eval"
	"github.com/2389-research/vibematch/internal/matcher"
	"github.com/2389-research/vibematch/internal/models"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// printResult writes one query's outcome. threshold grades each match.
func printResult(w io.Writer, res *matcher.Result, opts matcher.Options, threshold float64) {
	if res.NoMatch() {
		_, _ = fmt.Fprintf(w, "  No strong match (best score %.4f < %.2f). %s\n", res.BestScore, opts.MinScore, eval.NoMatchSuggestion)
		if res.QueryFallback {
			_, _ = fmt.Fprintln(w, dimStyle.Render("  (query vector was a random placeholder)"))
		}
		return
	}

	for i, m := range res.Matches {
		status := models.ClassifyScore(m.SimScore, threshold)
		style := okStyle
		if status == models.StatusGood {
			style = goodStyle
		}
		_, _ = fmt.Fprintf(w, "  %d. %s  %s  %s\n", i+1, nameStyle.Render(m.Product.Name),
			fmt.Sprintf("%.4f", m.SimScore), style.Render(string(status)))
		_, _ = fmt.Fprintf(w, "     %s\n", dimStyle.Render(m.Product.Desc))
	}
	if res.Fallback() {
		_, _ = fmt.Fprintln(w, warnStyle.Render("  Scores include random placeholder vectors and are not meaningful."))
	}
}

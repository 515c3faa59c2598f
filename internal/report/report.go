// ABOUTME: Evaluation report writers for latency and match logs.
// ABOUTME: Produces CSV files, a text latency chart, and markdown/console tables.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/2389-research/vibematch/internal/models"
)

// Report file names written into the report directory.
const (
	LatencyCSVFile  = "latency_data.csv"
	LogCSVFile      = "log_metrics.csv"
	LatencyPlotFile = "latency_plot.txt"
	LogMarkdownFile = "log_metrics.md"
)

// NoMatchesMessage replaces the log table when a run returned nothing.
const NoMatchesMessage = "No successful matches to log."

const chartWidth = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	goodStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	okStyle     = cellStyle.Foreground(lipgloss.Color("214"))
)

var logHeaders = []string{"query_id", "query", "product", "sim_score", "status", "fallback"}

// Paths lists the files written for one run.
type Paths struct {
	LatencyCSV  string
	LogCSV      string
	LatencyPlot string
	LogMarkdown string
}

// WriteAll writes every report for run into dir, creating it if needed.
func WriteAll(dir string, run *models.EvalRun) (*Paths, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	p := &Paths{
		LatencyCSV:  filepath.Join(dir, LatencyCSVFile),
		LogCSV:      filepath.Join(dir, LogCSVFile),
		LatencyPlot: filepath.Join(dir, LatencyPlotFile),
		LogMarkdown: filepath.Join(dir, LogMarkdownFile),
	}

	var buf bytes.Buffer
	if err := WriteLatencyCSV(&buf, run.Latencies); err != nil {
		return nil, err
	}
	if err := atomicWrite(p.LatencyCSV, buf.Bytes()); err != nil {
		return nil, err
	}

	buf.Reset()
	if err := WriteLogCSV(&buf, run.Logs); err != nil {
		return nil, err
	}
	if err := atomicWrite(p.LogCSV, buf.Bytes()); err != nil {
		return nil, err
	}

	if err := atomicWrite(p.LatencyPlot, []byte(LatencyChart(run.Latencies))); err != nil {
		return nil, err
	}
	if err := atomicWrite(p.LogMarkdown, []byte(MarkdownTable(run.Logs)+"\n")); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteLatencyCSV writes query,latency rows with latency in seconds.
func WriteLatencyCSV(w io.Writer, records []models.LatencyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query", "latency"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Query, formatFloat(r.Latency)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLogCSV writes one row per returned match.
func WriteLogCSV(w io.Writer, logs []models.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(logHeaders); err != nil {
		return err
	}
	for _, l := range logs {
		if err := cw.Write(logRow(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LatencyChart renders a horizontal bar chart scaled to the slowest query.
func LatencyChart(records []models.LatencyRecord) string {
	var sb strings.Builder
	sb.WriteString("Query Latency (seconds)\n\n")
	if len(records) == 0 {
		sb.WriteString("(no queries)\n")
		return sb.String()
	}

	labelWidth := 0
	maxLatency := 0.0
	for _, r := range records {
		labelWidth = max(labelWidth, len([]rune(r.Query)))
		maxLatency = max(maxLatency, r.Latency)
	}

	for _, r := range records {
		bars := 0
		if maxLatency > 0 {
			bars = int(r.Latency / maxLatency * chartWidth)
		}
		if bars == 0 && r.Latency > 0 {
			bars = 1
		}
		pad := labelWidth - len([]rune(r.Query))
		fmt.Fprintf(&sb, "%s%s | %s %s\n", r.Query, strings.Repeat(" ", pad), strings.Repeat("█", bars), formatFloat(r.Latency))
	}
	return sb.String()
}

// MarkdownTable renders the match log as a markdown table.
func MarkdownTable(logs []models.LogRecord) string {
	if len(logs) == 0 {
		return NoMatchesMessage
	}
	t := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(logHeaders...)
	for _, l := range logs {
		t.Row(logRow(l)...)
	}
	return t.String()
}

// ConsoleTable renders the match log for a terminal, coloring status cells.
func ConsoleTable(logs []models.LogRecord) string {
	if len(logs) == 0 {
		return NoMatchesMessage
	}
	statusCol := 4
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(logHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(logs) {
				if logs[row].Status == models.StatusGood {
					return goodStyle
				}
				return okStyle
			}
			return cellStyle
		})
	for _, l := range logs {
		t.Row(logRow(l)...)
	}
	return t.String()
}

// Summary is a one-line recap of a run.
func Summary(run *models.EvalRun) string {
	mode := "live"
	if !run.Live {
		mode = "fallback"
	}
	return fmt.Sprintf("%d queries, %d matched, %d good matches, mean latency %ss (%s %s, %s)",
		run.QueryCount, run.MatchedQueries(), run.GoodCount(), formatFloat(run.MeanLatency()),
		run.Provider, run.Model, mode)
}

func logRow(l models.LogRecord) []string {
	return []string{
		strconv.Itoa(l.QueryID),
		l.Query,
		l.Product,
		formatFloat(l.SimScore),
		string(l.Status),
		strconv.FormatBool(l.Fallback),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// atomicWrite writes data to a temp file in the target directory then renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}

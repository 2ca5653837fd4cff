// Package report renders CDF tables and run listings for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pinsleepe/well-random/sim"
	"github.com/pinsleepe/well-random/sim/analysis"
	"github.com/pinsleepe/well-random/sim/results"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Underline(true)
)

var methodTitles = map[string]string{
	sim.MethodPureRandom:   "Purely random assignment",
	sim.MethodMinimizerP07: "Minimization, p = 0.7",
	sim.MethodMinimizerP10: "Minimization, p = 1.0",
}

// MethodTitle returns the display title of a method, or its name if it has none.
func MethodTitle(method string) string {
	if title, ok := methodTitles[method]; ok {
		return title
	}
	return method
}

// FactorLabel returns "1 factor", "2 factors", ...
func FactorLabel(n int) string {
	if n == 1 {
		return "1 factor"
	}
	return fmt.Sprintf("%d factors", n)
}

// MethodTable is one method's CDF: one row per threshold, one column per
// factor count.
type MethodTable struct {
	Method       string
	FactorCounts []int
	Thresholds   []float64
	// Proportions[i][j] is the proportion at Thresholds[i] for FactorCounts[j].
	Proportions [][]float64
}

// Pivot regroups GroupCDF output (sorted by method, factors, threshold) into
// one MethodTable per method.
func Pivot(rows []analysis.CDFRow) []MethodTable {
	var tables []MethodTable
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Method == rows[start].Method {
			end++
		}
		tables = append(tables, pivotMethod(rows[start:end]))
		start = end
	}
	return tables
}

func pivotMethod(rows []analysis.CDFRow) MethodTable {
	mt := MethodTable{Method: rows[0].Method}
	thresholdIndex := make(map[float64]int)
	factorIndex := make(map[int]int)
	for _, r := range rows {
		if _, ok := thresholdIndex[r.Threshold]; !ok {
			thresholdIndex[r.Threshold] = len(mt.Thresholds)
			mt.Thresholds = append(mt.Thresholds, r.Threshold)
		}
		if _, ok := factorIndex[r.Factors]; !ok {
			factorIndex[r.Factors] = len(mt.FactorCounts)
			mt.FactorCounts = append(mt.FactorCounts, r.Factors)
		}
	}
	mt.Proportions = make([][]float64, len(mt.Thresholds))
	for i := range mt.Proportions {
		mt.Proportions[i] = make([]float64, len(mt.FactorCounts))
	}
	for _, r := range rows {
		mt.Proportions[thresholdIndex[r.Threshold]][factorIndex[r.Factors]] = r.Proportion
	}
	return mt
}

// Render writes title followed by one table per method.
func Render(w io.Writer, title string, rows []analysis.CDFRow) error {
	if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(no results)")
		return err
	}
	for _, mt := range Pivot(rows) {
		headers := []string{"threshold"}
		for _, n := range mt.FactorCounts {
			headers = append(headers, FactorLabel(n))
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...)
		for i, th := range mt.Thresholds {
			row := []string{formatThreshold(th)}
			for _, p := range mt.Proportions[i] {
				row = append(row, strconv.FormatFloat(p, 'f', 3, 64))
			}
			t.Row(row...)
		}
		if _, err := fmt.Fprintf(w, "\n%s\n%s\n", sectionStyle.Render(MethodTitle(mt.Method)), t.String()); err != nil {
			return err
		}
	}
	return nil
}

// RenderDescription writes per-partition descriptive statistics.
func RenderDescription(w io.Writer, title string, desc []analysis.Description) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("method", "factors", "n", "mean", "sd", "median", "max")
	for _, d := range desc {
		t.Row(
			MethodTitle(d.Method),
			strconv.Itoa(d.Factors),
			strconv.Itoa(d.Count),
			strconv.FormatFloat(d.Mean, 'f', 3, 64),
			strconv.FormatFloat(d.StdDev, 'f', 3, 64),
			strconv.FormatFloat(d.Median, 'f', 3, 64),
			strconv.FormatFloat(d.Max, 'f', 3, 64),
		)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render(title), t.String())
	return err
}

// RenderRuns writes the stored-run listing.
func RenderRuns(w io.Writer, runs []results.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no stored runs")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("run id", "created", "strategy", "sims", "participants", "max factors", "seed", "rows")
	for _, r := range runs {
		t.Row(
			r.RunID,
			r.CreatedAt,
			r.Strategy,
			strconv.Itoa(r.Simulations),
			strconv.Itoa(r.Participants),
			strconv.Itoa(r.MaxFactors),
			strconv.FormatInt(r.Seed, 10),
			strconv.Itoa(r.Rows),
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pinsleepe/well-random/sim"
	"github.com/pinsleepe/well-random/sim/analysis"
)

// File names used inside a results directory.
const (
	HeaderFile = "header.yaml"
	DataFile   = "results.csv"
)

// factorSeparator joins per-factor imbalances inside one CSV cell.
const factorSeparator = ";"

var resultColumns = []string{
	"sim_index", "method", "factors", "factor_imbalances",
	"max_factor_imbalance", "arm_imbalance",
}

var cdfColumns = []string{"method", "factors", "threshold", "proportion"}

// ExportResults writes the run header (YAML) and the table rows (CSV) to
// separate files. Floats use the shortest exact representation.
func ExportResults(header *RunHeader, table *sim.ResultTable, headerPath, dataPath string) error {
	if err := WriteHeader(header, headerPath); err != nil {
		return err
	}

	return writeCSVFile(dataPath, "results", func(writer *csv.Writer) error {
		if err := writer.Write(resultColumns); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
		for i, r := range table.Rows() {
			if err := writer.Write(formatSummary(r)); err != nil {
				return fmt.Errorf("writing CSV row %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// ExportDir writes HeaderFile and DataFile into dir, creating it if needed.
func ExportDir(dir string, header *RunHeader, table *sim.ResultTable) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	return ExportResults(header, table, filepath.Join(dir, HeaderFile), filepath.Join(dir, DataFile))
}

// LoadResults reads a run header (YAML) and its rows (CSV).
func LoadResults(headerPath, dataPath string) (*RunHeader, *sim.ResultTable, error) {
	header, err := ReadHeader(headerPath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening results data: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(resultColumns)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}

	table := sim.NewResultTable()
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading CSV row: %w", err)
		}
		summary, err := parseSummary(row)
		if err != nil {
			return nil, nil, fmt.Errorf("results line %d: %w", line, err)
		}
		if err := table.Append(summary); err != nil {
			return nil, nil, err
		}
	}
	return header, table.Seal(), nil
}

// LoadDir reads the files written by ExportDir.
func LoadDir(dir string) (*RunHeader, *sim.ResultTable, error) {
	return LoadResults(filepath.Join(dir, HeaderFile), filepath.Join(dir, DataFile))
}

// ExportCDF writes grouped CDF rows as CSV.
func ExportCDF(rows []analysis.CDFRow, path string) error {
	return writeCSVFile(path, "CDF", func(writer *csv.Writer) error {
		if err := writer.Write(cdfColumns); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
		for _, r := range rows {
			record := []string{
				r.Method,
				strconv.Itoa(r.Factors),
				formatFloat(r.Threshold),
				formatFloat(r.Proportion),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("writing CDF row: %w", err)
			}
		}
		return nil
	})
}

// writeCSVFile creates path and hands a CSV writer over it to write.
func writeCSVFile(path, what string, write func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s file: %w", what, err)
	}
	return finishCSV(file, what, write)
}

// finishCSV runs write, flushes, and closes file. A Close failure is returned
// when everything before it succeeded, since buffered data may be lost.
func finishCSV(file io.WriteCloser, what string, write func(*csv.Writer) error) (err error) {
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s file: %w", what, cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := write(writer); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s CSV: %w", what, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatSummary(r sim.ImbalanceSummary) []string {
	return []string{
		strconv.Itoa(r.SimIndex),
		r.Method,
		strconv.Itoa(r.Factors),
		joinFloats(r.FactorImbalances),
		formatFloat(r.MaxFactorImbalance),
		strconv.Itoa(r.ArmImbalance),
	}
}

func parseSummary(row []string) (sim.ImbalanceSummary, error) {
	simIndex, err := strconv.Atoi(row[0])
	if err != nil {
		return sim.ImbalanceSummary{}, fmt.Errorf("sim_index: %w", err)
	}
	factors, err := strconv.Atoi(row[2])
	if err != nil {
		return sim.ImbalanceSummary{}, fmt.Errorf("factors: %w", err)
	}
	imbalances, err := splitFloats(row[3])
	if err != nil {
		return sim.ImbalanceSummary{}, fmt.Errorf("factor_imbalances: %w", err)
	}
	if len(imbalances) != factors {
		return sim.ImbalanceSummary{}, fmt.Errorf("%d factor imbalances for %d factors", len(imbalances), factors)
	}
	maxImbalance, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return sim.ImbalanceSummary{}, fmt.Errorf("max_factor_imbalance: %w", err)
	}
	armImbalance, err := strconv.Atoi(row[5])
	if err != nil {
		return sim.ImbalanceSummary{}, fmt.Errorf("arm_imbalance: %w", err)
	}
	return sim.ImbalanceSummary{
		SimIndex:           simIndex,
		Method:             row[1],
		Factors:            factors,
		FactorImbalances:   imbalances,
		MaxFactorImbalance: maxImbalance,
		ArmImbalance:       armImbalance,
	}, nil
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = formatFloat(x)
	}
	return strings.Join(parts, factorSeparator)
}

func splitFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, factorSeparator)
	xs := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		xs[i] = v
	}
	return xs, nil
}

// Package compare joins two snapshots of a simulation performance table,
// computes signed before/after deltas for a configured set of metrics, and
// filters to the rows whose delta magnitude reaches a threshold.
//
// The join is a strict inner join: rows present in only one snapshot are
// dropped from the result. This is intentional — an unmatched row has no
// counterpart to measure against, so it is unmeasurable rather than
// "affected". Callers needing added/removed reporting must diff the key sets
// themselves.
package compare

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"netsense/internal/table"
)

// Suffixes appended to non-key columns from each side of the join.
const (
	SuffixBefore = "_before"
	SuffixAfter  = "_after"
	SuffixDiff   = "_diff"
)

// ErrMissingKeyColumn indicates a key column is absent from one of the input
// tables, making the join impossible.
var ErrMissingKeyColumn = errors.New("missing required key column")

// Options configures a comparison.
type Options struct {
	// KeyColumns identify a comparable unit; they must exist in both tables.
	KeyColumns []string
	// Metrics are the numeric columns to diff. A metric missing from either
	// side is skipped with a warning.
	Metrics []string
	// Threshold is the inclusive significance boundary: a row is significant
	// when any computed diff has absolute value >= Threshold.
	Threshold float64
}

// Result holds the joined table and its significant subset. Both share the
// same column layout: key columns, baseline columns suffixed _before,
// modified columns suffixed _after, then one _diff column per metric computed.
type Result struct {
	Merged      *table.Table
	Significant *table.Table
}

// Compare inner-joins baseline and modified on the key columns and computes
// metric diffs as modified − baseline. Duplicate keys join as a cross product
// in baseline row order. Cells that fail numeric parsing leave an empty diff
// that never counts toward significance.
func Compare(logger *zap.Logger, baseline, modified *table.Table, opts Options) (*Result, error) {
	if len(opts.KeyColumns) == 0 {
		return nil, fmt.Errorf("comparison needs at least one key column")
	}
	baseKeys, err := columnIndexes(baseline, opts.KeyColumns, "baseline")
	if err != nil {
		return nil, err
	}
	modKeys, err := columnIndexes(modified, opts.KeyColumns, "modified")
	if err != nil {
		return nil, err
	}

	logger.Info("comparing performance tables",
		zap.Int("baseline_rows", baseline.NumRows()),
		zap.Int("modified_rows", modified.NumRows()),
		zap.Strings("key_columns", opts.KeyColumns))

	merged := buildMergedLayout(baseline, modified, opts.KeyColumns)

	// Index modified rows by key tuple, preserving file order per key.
	byKey := make(map[string][]int, modified.NumRows())
	for i, row := range modified.Rows {
		k := joinKey(row, modKeys)
		byKey[k] = append(byKey[k], i)
	}

	baseValueIdx := nonKeyIndexes(baseline, opts.KeyColumns)
	modValueIdx := nonKeyIndexes(modified, opts.KeyColumns)

	matched := 0
	for _, brow := range baseline.Rows {
		k := joinKey(brow, baseKeys)
		if len(byKey[k]) > 0 {
			matched++
		}
		for _, mi := range byKey[k] {
			mrow := modified.Rows[mi]
			cells := make([]string, 0, len(merged.Columns))
			for _, ki := range baseKeys {
				cells = append(cells, brow[ki])
			}
			for _, vi := range baseValueIdx {
				cells = append(cells, brow[vi])
			}
			for _, vi := range modValueIdx {
				cells = append(cells, mrow[vi])
			}
			merged.Rows = append(merged.Rows, cells)
		}
	}
	if dropped := baseline.NumRows() - matched; dropped > 0 {
		logger.Info("baseline rows without a counterpart excluded from comparison",
			zap.Int("matched", matched),
			zap.Int("dropped", dropped))
	}

	diffCols := appendDiffColumns(logger, merged, opts.Metrics)

	significant := table.New(merged.Columns...)
	for _, row := range merged.Rows {
		if isSignificant(row, diffCols, opts.Threshold) {
			significant.Rows = append(significant.Rows, row)
		}
	}

	logger.Info("comparison complete",
		zap.Int("merged_rows", merged.NumRows()),
		zap.Int("significant_rows", significant.NumRows()),
		zap.Float64("threshold", opts.Threshold))

	return &Result{Merged: merged, Significant: significant}, nil
}

// DiffColumns returns the standard projection column list for a metric set:
// the key columns followed by before/after/diff triples per metric.
func DiffColumns(keyColumns, metrics []string) []string {
	out := append([]string(nil), keyColumns...)
	for _, m := range metrics {
		out = append(out, m+SuffixBefore, m+SuffixAfter, m+SuffixDiff)
	}
	return out
}

func buildMergedLayout(baseline, modified *table.Table, keyColumns []string) *table.Table {
	merged := table.New(keyColumns...)
	for _, c := range baseline.Columns {
		if !contains(keyColumns, c) {
			merged.Columns = append(merged.Columns, c+SuffixBefore)
		}
	}
	for _, c := range modified.Columns {
		if !contains(keyColumns, c) {
			merged.Columns = append(merged.Columns, c+SuffixAfter)
		}
	}
	return merged
}

// appendDiffColumns adds <m>_diff for every metric whose before and after
// columns both exist, returning the new columns' indexes.
func appendDiffColumns(logger *zap.Logger, merged *table.Table, metrics []string) []int {
	var diffCols []int
	for _, m := range metrics {
		beforeIdx := merged.ColumnIndex(m + SuffixBefore)
		afterIdx := merged.ColumnIndex(m + SuffixAfter)
		if beforeIdx < 0 || afterIdx < 0 {
			logger.Warn("metric absent from one or both inputs, diff skipped",
				zap.String("metric", m))
			continue
		}
		diffIdx := merged.AddColumn(m + SuffixDiff)
		for i, row := range merged.Rows {
			before, errB := strconv.ParseFloat(strings.TrimSpace(row[beforeIdx]), 64)
			after, errA := strconv.ParseFloat(strings.TrimSpace(row[afterIdx]), 64)
			if errB != nil || errA != nil {
				continue
			}
			merged.Rows[i][diffIdx] = formatFloat(after - before)
		}
		diffCols = append(diffCols, diffIdx)
	}
	return diffCols
}

func isSignificant(row []string, diffCols []int, threshold float64) bool {
	for _, di := range diffCols {
		if row[di] == "" {
			continue
		}
		v, err := strconv.ParseFloat(row[di], 64)
		if err != nil {
			continue
		}
		if math.Abs(v) >= threshold {
			return true
		}
	}
	return false
}

func columnIndexes(t *table.Table, columns []string, side string) ([]int, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j := t.ColumnIndex(c)
		if j < 0 {
			return nil, fmt.Errorf("%s table: %w: %s", side, ErrMissingKeyColumn, c)
		}
		idx[i] = j
	}
	return idx, nil
}

func nonKeyIndexes(t *table.Table, keyColumns []string) []int {
	var idx []int
	for i, c := range t.Columns {
		if !contains(keyColumns, c) {
			idx = append(idx, i)
		}
	}
	return idx
}

func joinKey(row []string, keyIdx []int) string {
	parts := make([]string, len(keyIdx))
	for i, j := range keyIdx {
		parts[i] = strings.TrimSpace(row[j])
	}
	return strings.Join(parts, "\x1f")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

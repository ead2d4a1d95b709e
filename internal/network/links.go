// Package network edits GMNS link tables: it applies attribute patches to
// links matched by their (from_node_id, to_node_id) pair, re-sorts the table
// canonically, and reassigns dense sequential link IDs.
package network

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"netsense/internal/table"
)

// Column names forming the natural key of a link record.
const (
	ColFromNodeID = "from_node_id"
	ColToNodeID   = "to_node_id"
	ColLinkID     = "link_id"
)

var (
	// ErrMissingKeyColumn indicates the link table lacks from_node_id or
	// to_node_id, so no patch can be matched against it.
	ErrMissingKeyColumn = errors.New("missing required key column")

	// ErrInvalidKeyValue indicates a from_node_id or to_node_id cell does
	// not hold an integer.
	ErrInvalidKeyValue = errors.New("invalid key value")
)

// Patch overrides attributes on every link whose endpoint pair matches
// (FromNodeID, ToNodeID). Any additional yaml keys land in Set and become
// attribute assignments; attributes absent from the table schema are
// introduced with empty values on all other rows.
type Patch struct {
	FromNodeID *int64            `yaml:"from_node_id"`
	ToNodeID   *int64            `yaml:"to_node_id"`
	Set        map[string]string `yaml:",inline"`
}

// ApplyAndRenumber applies patches to the link table, stable-sorts it by
// (from_node_id, to_node_id) and rewrites link_id as 1..N in sorted order.
//
// Patches are independent: matching uses the original key values, which a
// patch never modifies. A patch lacking key values or matching no rows is
// skipped with a warning. The sort and renumbering happen unconditionally,
// even for an empty patch list.
func ApplyAndRenumber(logger *zap.Logger, tbl *table.Table, patches []Patch) error {
	fromIdx := tbl.ColumnIndex(ColFromNodeID)
	toIdx := tbl.ColumnIndex(ColToNodeID)
	if fromIdx < 0 || toIdx < 0 {
		return fmt.Errorf("link table: %w: need %s and %s", ErrMissingKeyColumn, ColFromNodeID, ColToNodeID)
	}

	keys, err := rowKeys(tbl, fromIdx, toIdx)
	if err != nil {
		return err
	}

	for _, p := range patches {
		if p.FromNodeID == nil || p.ToNodeID == nil {
			logger.Warn("skipping patch without from_node_id/to_node_id",
				zap.Any("attributes", p.Set))
			continue
		}

		matched := 0
		for i, k := range keys {
			if k.from != *p.FromNodeID || k.to != *p.ToNodeID {
				continue
			}
			matched++
			for _, attr := range sortedKeys(p.Set) {
				if attr == ColFromNodeID || attr == ColToNodeID {
					continue
				}
				col := tbl.AddColumn(attr)
				tbl.Rows[i][col] = p.Set[attr]
			}
		}
		if matched == 0 {
			logger.Warn("no link matches patch, skipping",
				zap.Int64("from_node_id", *p.FromNodeID),
				zap.Int64("to_node_id", *p.ToNodeID))
			continue
		}
		logger.Info("patch applied",
			zap.Int64("from_node_id", *p.FromNodeID),
			zap.Int64("to_node_id", *p.ToNodeID),
			zap.Int("links_updated", matched))
	}

	// Stable sort keeps the relative order of links sharing an endpoint pair.
	order := make([]int, len(tbl.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.from != kb.from {
			return ka.from < kb.from
		}
		return ka.to < kb.to
	})
	sorted := make([][]string, len(tbl.Rows))
	for i, j := range order {
		sorted[i] = tbl.Rows[j]
	}
	tbl.Rows = sorted

	linkIdx := tbl.AddColumn(ColLinkID)
	for i := range tbl.Rows {
		tbl.Rows[i][linkIdx] = strconv.Itoa(i + 1)
	}
	return nil
}

// EditFile reads a link CSV, applies the patches and writes the result back
// to the same path. The rewrite is destructive; callers needing rollback must
// snapshot the file first. Nothing is written when patch application fails.
func EditFile(logger *zap.Logger, path string, patches []Patch) error {
	tbl, err := table.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read link file: %w", err)
	}
	if err := ApplyAndRenumber(logger, tbl, patches); err != nil {
		return err
	}
	if err := tbl.WriteFile(path); err != nil {
		return fmt.Errorf("failed to rewrite link file: %w", err)
	}
	logger.Info("link file rewritten",
		zap.String("path", path),
		zap.Int("links", tbl.NumRows()))
	return nil
}

type linkKey struct {
	from, to int64
}

func rowKeys(tbl *table.Table, fromIdx, toIdx int) ([]linkKey, error) {
	keys := make([]linkKey, len(tbl.Rows))
	for i, row := range tbl.Rows {
		from, err := strconv.ParseInt(row[fromIdx], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s %q: %w", i+1, ColFromNodeID, row[fromIdx], ErrInvalidKeyValue)
		}
		to, err := strconv.ParseInt(row[toIdx], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s %q: %w", i+1, ColToNodeID, row[toIdx], ErrInvalidKeyValue)
		}
		keys[i] = linkKey{from: from, to: to}
	}
	return keys, nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"netsense/internal/table"
)

func perfTable(t *testing.T, rows [][]string) *table.Table {
	t.Helper()
	tbl := table.New("from_node_id", "to_node_id", "travel_time", "volume")
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

var linkOpts = Options{
	KeyColumns: []string{"from_node_id", "to_node_id"},
	Metrics:    []string{"travel_time", "volume"},
	Threshold:  1,
}

func TestCompareJoinAndDiff(t *testing.T) {
	baseline := perfTable(t, [][]string{{"1", "4", "10", "100"}})
	modified := perfTable(t, [][]string{{"1", "4", "15", "90"}})

	res, err := Compare(zap.NewNop(), baseline, modified, linkOpts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Merged.NumRows())

	row := res.Merged.Rows[0]
	get := func(col string) string { return row[res.Merged.ColumnIndex(col)] }
	assert.Equal(t, "10", get("travel_time_before"))
	assert.Equal(t, "15", get("travel_time_after"))
	assert.Equal(t, "5", get("travel_time_diff"))
	assert.Equal(t, "-10", get("volume_diff"))
}

func TestCompareThresholdBoundaryInclusive(t *testing.T) {
	opts := linkOpts
	opts.Threshold = 5

	baseline := perfTable(t, [][]string{
		{"1", "4", "10", "100"},
		{"2", "3", "10", "100"},
	})
	modified := perfTable(t, [][]string{
		{"1", "4", "15", "100"},    // diff exactly 5 -> significant
		{"2", "3", "14.999", "100"}, // diff 4.999 -> not significant
	})

	res, err := Compare(zap.NewNop(), baseline, modified, opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Significant.NumRows())
	row := res.Significant.Rows[0]
	assert.Equal(t, "1", row[res.Significant.ColumnIndex("from_node_id")])
}

func TestCompareNegativeDiffCountsBySignMagnitude(t *testing.T) {
	opts := linkOpts
	opts.Threshold = 5

	baseline := perfTable(t, [][]string{{"1", "4", "10", "100"}})
	modified := perfTable(t, [][]string{{"1", "4", "4", "100"}})

	res, err := Compare(zap.NewNop(), baseline, modified, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Significant.NumRows())
	assert.Equal(t, "-6", res.Significant.Rows[0][res.Significant.ColumnIndex("travel_time_diff")])
}

func TestCompareDropsUnmatchedRows(t *testing.T) {
	baseline := perfTable(t, [][]string{
		{"1", "4", "10", "100"},
		{"9", "9", "10", "100"}, // only in baseline
	})
	modified := perfTable(t, [][]string{
		{"1", "4", "12", "90"},
		{"8", "8", "12", "90"}, // only in modified
	})

	res, err := Compare(zap.NewNop(), baseline, modified, linkOpts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Merged.NumRows())
	assert.Equal(t, "1", res.Merged.Rows[0][res.Merged.ColumnIndex("from_node_id")])
}

func TestCompareDuplicateKeysCrossProduct(t *testing.T) {
	baseline := perfTable(t, [][]string{
		{"1", "4", "10", "100"},
		{"1", "4", "11", "100"},
	})
	modified := perfTable(t, [][]string{{"1", "4", "12", "100"}})

	res, err := Compare(zap.NewNop(), baseline, modified, linkOpts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Merged.NumRows())
}

func TestCompareLogsDroppedRowsWithDuplicateKeys(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	baseline := perfTable(t, [][]string{
		{"1", "4", "10", "100"},
		{"1", "4", "11", "100"},
		{"9", "9", "10", "100"}, // no counterpart
	})
	modified := perfTable(t, [][]string{
		{"1", "4", "12", "90"},
		{"1", "4", "13", "90"},
	})

	res, err := Compare(zap.New(core), baseline, modified, linkOpts)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Merged.NumRows(), "duplicate keys join as a cross product")

	entries := logs.FilterMessage("baseline rows without a counterpart excluded from comparison").All()
	require.Len(t, entries, 1, "cross-product rows must not mask the dropped-row log")
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 2, fields["matched"], "matched counts distinct baseline rows")
	assert.EqualValues(t, 1, fields["dropped"])
}

func TestCompareMissingMetricSkipped(t *testing.T) {
	baseline := perfTable(t, [][]string{{"1", "4", "10", "100"}})
	modified := table.New("from_node_id", "to_node_id", "travel_time")
	require.NoError(t, modified.AppendRow([]string{"1", "4", "12"}))

	res, err := Compare(zap.NewNop(), baseline, modified, linkOpts)
	require.NoError(t, err)

	assert.True(t, res.Merged.HasColumn("travel_time_diff"))
	assert.False(t, res.Merged.HasColumn("volume_diff"), "volume missing on one side, diff omitted")
}

func TestCompareMissingKeyColumn(t *testing.T) {
	baseline := perfTable(t, nil)
	modified := table.New("from_node_id", "travel_time")

	_, err := Compare(zap.NewNop(), baseline, modified, linkOpts)
	assert.ErrorIs(t, err, ErrMissingKeyColumn)
}

func TestCompareUnparsableCellNeverSignificant(t *testing.T) {
	opts := linkOpts
	opts.Threshold = 0

	baseline := perfTable(t, [][]string{{"1", "4", "n/a", "100"}})
	modified := perfTable(t, [][]string{{"1", "4", "12", "100"}})

	res, err := Compare(zap.NewNop(), baseline, modified, opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Merged.NumRows())
	assert.Equal(t, "", res.Merged.Rows[0][res.Merged.ColumnIndex("travel_time_diff")])
	// volume_diff is 0, and |0| >= 0, so the row is still significant.
	assert.Equal(t, 1, res.Significant.NumRows())
}

func TestCompareODKeys(t *testing.T) {
	mk := func(ff, cg, vol string) *table.Table {
		tbl := table.New("mode", "o_zone_id", "d_zone_id",
			"total_free_flow_travel_time", "total_congestion_travel_time", "volume")
		require.NoError(t, tbl.AppendRow([]string{"auto", "1", "2", ff, cg, vol}))
		return tbl
	}
	opts := Options{
		KeyColumns: []string{"mode", "o_zone_id", "d_zone_id"},
		Metrics:    []string{"total_free_flow_travel_time", "total_congestion_travel_time", "volume"},
		Threshold:  0.1,
	}

	res, err := Compare(zap.NewNop(), mk("8", "12", "500"), mk("8", "13.5", "480"), opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Significant.NumRows())
	row := res.Significant.Rows[0]
	get := func(col string) string { return row[res.Significant.ColumnIndex(col)] }
	assert.Equal(t, "0", get("total_free_flow_travel_time_diff"))
	assert.Equal(t, "1.5", get("total_congestion_travel_time_diff"))
	assert.Equal(t, "-20", get("volume_diff"))
}

func TestDiffColumns(t *testing.T) {
	got := DiffColumns([]string{"from_node_id", "to_node_id"}, []string{"travel_time"})
	assert.Equal(t, []string{
		"from_node_id", "to_node_id",
		"travel_time_before", "travel_time_after", "travel_time_diff",
	}, got)
}

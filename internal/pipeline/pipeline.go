// Package pipeline sequences a sensitivity analysis run: baseline
// simulation, network edit, modified simulation, then link- and OD-level
// comparison of the two runs' performance tables.
//
// The sequence is strictly ordered and aborts on the first failure. There is
// no rollback: if the modified simulation fails, the destructive link edit
// from the previous step stays in place.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netsense/internal/compare"
	"netsense/internal/config"
	"netsense/internal/engine"
	"netsense/internal/network"
	"netsense/internal/table"
)

// Metric and key column sets for the two comparison levels. Both levels run
// through the same compare.Compare algorithm.
var (
	linkMetrics  = []string{"travel_time", "volume"}
	odKeyColumns = []string{"mode", "o_zone_id", "d_zone_id"}
	odMetrics    = []string{"total_free_flow_travel_time", "total_congestion_travel_time", "volume"}
)

// Outcome summarizes one pipeline run.
type Outcome struct {
	RunID string

	Link *compare.Result
	OD   *compare.Result

	// Paths of the two written comparison CSVs.
	LinkOutput string
	ODOutput   string
}

// Pipeline orchestrates one sensitivity analysis.
type Pipeline struct {
	cfg    *config.Config
	engine engine.Runner
	logger *zap.Logger
}

// New builds a pipeline around a simulation runner.
func New(logger *zap.Logger, cfg *config.Config, runner engine.Runner) *Pipeline {
	return &Pipeline{cfg: cfg, engine: runner, logger: logger}
}

// Run executes the full sequence: baseline simulation, link edit, modified
// simulation, link comparison, OD comparison, report persistence.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	logger.Info("running baseline simulation", zap.String("dir", p.cfg.BaselineDir))
	if err := p.simulate(ctx, p.cfg.BaselineDir); err != nil {
		return nil, fmt.Errorf("baseline simulation: %w", err)
	}

	networkPath := filepath.Join(p.cfg.ModifiedDir, p.cfg.NetworkFile)
	logger.Info("applying network modifications",
		zap.String("file", networkPath),
		zap.Int("patches", len(p.cfg.Modifications)))
	if err := network.EditFile(logger, networkPath, p.cfg.Modifications); err != nil {
		return nil, fmt.Errorf("network edit: %w", err)
	}

	logger.Info("running modified simulation", zap.String("dir", p.cfg.ModifiedDir))
	if err := p.simulate(ctx, p.cfg.ModifiedDir); err != nil {
		return nil, fmt.Errorf("modified simulation: %w", err)
	}

	return p.compareRuns(logger, runID)
}

// CompareOnly skips the simulations and the network edit and compares two
// directories that already hold performance tables.
func (p *Pipeline) CompareOnly(_ context.Context) (*Outcome, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	return p.compareRuns(logger, runID)
}

func (p *Pipeline) simulate(ctx context.Context, dir string) error {
	if p.cfg.Engine.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Engine.Timeout)
		defer cancel()
	}
	return p.engine.Run(ctx, dir)
}

func (p *Pipeline) compareRuns(logger *zap.Logger, runID string) (*Outcome, error) {
	logger.Info("comparing link performance")
	linkRes, err := p.compareTables(logger, config.LinkPerformanceFile, compare.Options{
		KeyColumns: p.cfg.LinkKeyColumns,
		Metrics:    linkMetrics,
		Threshold:  p.cfg.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("link comparison: %w", err)
	}

	logger.Info("comparing OD performance")
	odRes, err := p.compareTables(logger, config.ODPerformanceFile, compare.Options{
		KeyColumns: odKeyColumns,
		Metrics:    odMetrics,
		Threshold:  p.cfg.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("od comparison: %w", err)
	}

	out := &Outcome{
		RunID:      runID,
		Link:       linkRes,
		OD:         odRes,
		LinkOutput: filepath.Join(p.cfg.OutputDir, config.LinkComparisonFile),
		ODOutput:   filepath.Join(p.cfg.OutputDir, config.ODComparisonFile),
	}

	if err := writeProjection(linkRes.Significant, p.cfg.LinkKeyColumns, linkMetrics, out.LinkOutput); err != nil {
		return nil, fmt.Errorf("link report: %w", err)
	}
	if err := writeProjection(odRes.Significant, odKeyColumns, odMetrics, out.ODOutput); err != nil {
		return nil, fmt.Errorf("od report: %w", err)
	}

	logger.Info("sensitivity analysis complete",
		zap.Int("significant_links", linkRes.Significant.NumRows()),
		zap.Int("significant_od_pairs", odRes.Significant.NumRows()),
		zap.String("link_report", out.LinkOutput),
		zap.String("od_report", out.ODOutput))
	return out, nil
}

func (p *Pipeline) compareTables(logger *zap.Logger, filename string, opts compare.Options) (*compare.Result, error) {
	baseline, err := table.ReadFile(filepath.Join(p.cfg.BaselineDir, filename))
	if err != nil {
		return nil, err
	}
	modified, err := table.ReadFile(filepath.Join(p.cfg.ModifiedDir, filename))
	if err != nil {
		return nil, err
	}
	return compare.Compare(logger, baseline, modified, opts)
}

// writeProjection persists the key columns plus the before/after/diff triple
// of every metric whose diff was actually computed.
func writeProjection(tbl *table.Table, keyColumns, metrics []string, path string) error {
	var columns []string
	for _, c := range compare.DiffColumns(keyColumns, metrics) {
		if tbl.HasColumn(c) {
			columns = append(columns, c)
		}
	}
	projected, err := tbl.Select(columns)
	if err != nil {
		return err
	}
	return projected.WriteFile(path)
}

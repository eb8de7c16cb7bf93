package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pkgerrors "niis/pkg/errors"
)

// Postgres records run history: one row per run plus per-district risk rows.
// Write-only from the service's perspective; analysts query it directly.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS analytics_runs (
	run_id          UUID PRIMARY KEY,
	computed_at     TIMESTAMPTZ NOT NULL,
	num_districts   INT NOT NULL,
	num_skipped     INT NOT NULL,
	num_states      INT NOT NULL,
	total_enrollments BIGINT NOT NULL,
	total_population  BIGINT NOT NULL,
	overall_penetration DOUBLE PRECISION NOT NULL,
	coverage_gap        DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS district_risk_scores (
	run_id       UUID NOT NULL REFERENCES analytics_runs(run_id) ON DELETE CASCADE,
	state        TEXT NOT NULL,
	district     TEXT NOT NULL,
	composite_risk_score DOUBLE PRECISION NOT NULL,
	risk_category        TEXT NOT NULL,
	penetration_risk     DOUBLE PRECISION NOT NULL,
	growth_risk          DOUBLE PRECISION NOT NULL,
	youth_risk           DOUBLE PRECISION NOT NULL,
	volatility_risk      DOUBLE PRECISION NOT NULL,
	stagnation_risk      DOUBLE PRECISION NOT NULL,
	recommendations      INT NOT NULL,
	PRIMARY KEY (run_id, state, district)
);
`

// InitSchema creates the run-history tables if they do not exist.
func (p *Postgres) InitSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaDDL); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to initialize run history schema")
	}
	return nil
}

// Record writes the run summary and its district rows in one transaction.
func (p *Postgres) Record(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.Batch == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "nil snapshot")
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to begin run history tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := snap.Batch
	_, err = tx.Exec(ctx, `
		INSERT INTO analytics_runs (
			run_id, computed_at, num_districts, num_skipped, num_states,
			total_enrollments, total_population, overall_penetration, coverage_gap
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.RunID, snap.ComputedAt, len(batch.Results), len(batch.Skipped),
		batch.Overview.NumStates, batch.Overview.TotalEnrollments,
		batch.Overview.TotalPopulation, batch.Overview.OverallPenetrationRate,
		batch.Overview.CoverageGap,
	)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to insert run row")
	}

	rows := make([][]any, 0, len(batch.Results))
	for _, r := range batch.Results {
		rows = append(rows, []any{
			snap.RunID, r.Analytics.State, r.Analytics.District,
			r.Risk.CompositeRiskScore, string(r.Risk.RiskCategory),
			r.Risk.Components.Penetration, r.Risk.Components.Growth,
			r.Risk.Components.Youth, r.Risk.Components.Volatility,
			r.Risk.Components.Stagnation, len(r.Recommendations),
		})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"district_risk_scores"},
		[]string{
			"run_id", "state", "district", "composite_risk_score", "risk_category",
			"penetration_risk", "growth_risk", "youth_risk", "volatility_risk",
			"stagnation_risk", "recommendations",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal,
			fmt.Sprintf("failed to copy %d district rows", len(rows)))
	}

	if err := tx.Commit(ctx); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to commit run history tx")
	}
	return nil
}

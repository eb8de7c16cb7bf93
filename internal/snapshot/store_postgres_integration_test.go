//go:build integration

package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"niis/internal/aggregate"
	"niis/internal/enrollment"
	"niis/internal/pipeline"
	"niis/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.Pool)
	s.Require().NoError(s.store.InitSchema(context.Background()))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pg != nil {
		s.pg.Pool.Close()
		_ = s.pg.Container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(),
		"district_risk_scores", "analytics_runs"))
}

func (s *PostgresStoreSuite) batchFixture() *pipeline.BatchResult {
	result := func(state, district string, score float64, category enrollment.RiskCategory) enrollment.DistrictResult {
		return enrollment.DistrictResult{
			Analytics: enrollment.DistrictAnalytics{State: state, District: district},
			Risk: enrollment.RiskScore{
				State:              state,
				District:           district,
				CompositeRiskScore: score,
				RiskCategory:       category,
				Components: enrollment.RiskComponents{
					Penetration: score, Growth: 0.5, Youth: 0.4,
					Volatility: 0.1, Stagnation: 0.2,
				},
			},
			Recommendations: []enrollment.Recommendation{{Intervention: "Mobile Enrollment Camps"}},
		}
	}

	return &pipeline.BatchResult{
		Results: []enrollment.DistrictResult{
			result("Assam", "Kamrup", 0.7, enrollment.RiskHigh),
			result("Bihar", "Patna", 0.2, enrollment.RiskLow),
		},
		Skipped: []pipeline.SkippedDistrict{
			{State: "Unknown", District: "Ghost", Reason: "no periods with positive population"},
		},
		Overview: aggregate.NationalOverview{
			NumStates:              2,
			NumDistricts:           2,
			TotalEnrollments:       900,
			TotalPopulation:        2000,
			OverallPenetrationRate: 0.45,
			CoverageGap:            0.55,
		},
	}
}

func (s *PostgresStoreSuite) TestInitSchemaIsIdempotent() {
	s.Require().NoError(s.store.InitSchema(context.Background()))
}

func (s *PostgresStoreSuite) TestRecordWritesRunAndDistrictRows() {
	ctx := context.Background()
	snap := New(s.batchFixture())
	s.Require().NoError(s.store.Record(ctx, snap))

	var runs int
	s.Require().NoError(s.pg.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM analytics_runs").Scan(&runs))
	s.Equal(1, runs)

	var districts, skipped int
	s.Require().NoError(s.pg.Pool.QueryRow(ctx,
		"SELECT COUNT(*), (SELECT num_skipped FROM analytics_runs WHERE run_id = $1) FROM district_risk_scores WHERE run_id = $1",
		snap.RunID).Scan(&districts, &skipped))
	s.Equal(2, districts)
	s.Equal(1, skipped)

	var category string
	var score float64
	s.Require().NoError(s.pg.Pool.QueryRow(ctx,
		"SELECT risk_category, composite_risk_score FROM district_risk_scores WHERE run_id = $1 AND district = $2",
		snap.RunID, "Kamrup").Scan(&category, &score))
	s.Equal("High Risk", category)
	s.InDelta(0.7, score, 1e-9)
}

func (s *PostgresStoreSuite) TestRecordKeepsHistoryAcrossRuns() {
	ctx := context.Background()
	s.Require().NoError(s.store.Record(ctx, New(s.batchFixture())))
	s.Require().NoError(s.store.Record(ctx, New(s.batchFixture())))

	var runs, districts int
	s.Require().NoError(s.pg.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM analytics_runs").Scan(&runs))
	s.Require().NoError(s.pg.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM district_risk_scores").Scan(&districts))
	s.Equal(2, runs)
	s.Equal(4, districts)
}

func (s *PostgresStoreSuite) TestRecordRejectsNilSnapshot() {
	s.Error(s.store.Record(context.Background(), nil))
}

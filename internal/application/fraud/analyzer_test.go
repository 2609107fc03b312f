package fraud

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/application/settings"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/memory"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

type recordingFlagger struct {
	mu  sync.Mutex
	ids []string
}

func (f *recordingFlagger) FlagCompany(_ context.Context, companyID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, companyID)
	return 1, nil
}

func dispute(company string, pct float64, created time.Time, difference int64, evidence int) *entity.WeightDispute {
	return &entity.WeightDispute{
		ID:        fmt.Sprintf("%s-%d", company, created.UnixNano()),
		CompanyID: company,
		Discrepancy: entity.Discrepancy{
			DeclaredChargeableKg: 1,
			ReportedChargeableKg: 1 + pct/100,
			Percentage:           pct,
		},
		FinancialImpact: entity.FinancialImpact{Difference: decimal.NewFromInt(difference)},
		EvidenceCount:   evidence,
		Status:          entity.DisputePending,
		CreatedAt:       created,
	}
}

func TestScore_PatronSospechoso(t *testing.T) {
	var list []*entity.WeightDispute
	for i := 0; i < 10; i++ {
		list = append(list, dispute("c1", 40, now.Add(-time.Duration(i)*time.Hour), 800, 0))
	}
	a := Score(list, 500, now, 10, 5)
	assert.Equal(t, 1.0, a.UnderweightShare)
	assert.Equal(t, 40.0, a.ModePercentage)
	assert.Equal(t, 1.0, a.ModeShare)
	assert.Equal(t, 10, a.Recent24h)
	assert.Equal(t, 1.0, a.Recent24hScore)
	assert.Equal(t, 10, a.HighValueNoEvidence)
	assert.Equal(t, 1.0, a.Score)
}

func TestScore_Disperso(t *testing.T) {
	var list []*entity.WeightDispute
	for i := 0; i < 6; i++ {
		pct := float64(10 + i*7)
		if i%2 == 1 {
			pct = -pct / 2
		}
		list = append(list, dispute("c1", pct, now.Add(-time.Duration(i+2)*24*time.Hour), 20, 1))
	}
	a := Score(list, 500, now, 10, 5)
	assert.Equal(t, 0.5, a.UnderweightShare)
	assert.Zero(t, a.Recent24h)
	assert.Zero(t, a.HighValueCount)
	assert.Less(t, a.Score, 0.7)
	assert.GreaterOrEqual(t, a.Score, 0.0)
}

func TestScore_PocasDisputas(t *testing.T) {
	list := []*entity.WeightDispute{dispute("c1", 40, now, 800, 0)}
	a := Score(list, 500, now, 10, 5)
	assert.Zero(t, a.Score)
	assert.Equal(t, 1, a.DisputeCount)
}

func newAnalyzer(store *memory.Store, flagger CompanyFlagger) *Analyzer {
	log := logger.Nop()
	svc := settings.NewService(store.Settings(), settings.Defaults{ThresholdPercent: 5, HighValueAmount: decimal.NewFromInt(500)}, log)
	a := NewAnalyzer(store.Disputes(), store.Settings(), store.FraudAssessments(), svc, flagger, DefaultConfig(), log)
	a.now = func() time.Time { return now }
	return a
}

func seed(t *testing.T, store *memory.Store, list ...*entity.WeightDispute) {
	t.Helper()
	for i, d := range list {
		d.ShipmentID = fmt.Sprintf("%s-sh-%d", d.CompanyID, i)
		require.NoError(t, store.Disputes().Create(context.Background(), d))
	}
}

func TestRunAll_MarcaSoloEmpresaSospechosa(t *testing.T) {
	store := memory.NewStore()
	var bad, good []*entity.WeightDispute
	for i := 0; i < 8; i++ {
		bad = append(bad, dispute("bad", 35, now.Add(-time.Duration(i)*time.Minute), 900, 0))
		good = append(good, dispute("good", float64(6+i*9), now.Add(-time.Duration(i+3)*24*time.Hour), 10, 2))
	}
	seed(t, store, bad...)
	seed(t, store, good...)

	flagger := &recordingFlagger{}
	a := newAnalyzer(store, flagger)
	n, err := a.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"bad"}, flagger.ids)

	s, err := store.Settings().Get(context.Background(), "bad")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.SuspiciousFraud)

	latest, err := a.Latest(context.Background(), "good")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.False(t, latest.Suspicious)
}

func TestAnalyzeCompany_MarcaPersistente(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Settings().SetFraudFlag(ctx, "c1", true, 0.9, now.Add(-48*time.Hour)))
	seed(t, store, dispute("c1", 10, now.Add(-time.Hour), 10, 1))

	a := newAnalyzer(store, &recordingFlagger{})
	res, err := a.AnalyzeCompany(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, res.Suspicious)

	s, _ := store.Settings().Get(ctx, "c1")
	assert.True(t, s.SuspiciousFraud)
}

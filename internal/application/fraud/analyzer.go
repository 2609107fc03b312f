// Package fraud puntúa patrones sospechosos en las disputas de cada empresa.
package fraud

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Config ventana, umbral y paralelismo del análisis.
type Config struct {
	Window         time.Duration
	ScoreThreshold float64
	MinDisputes    int
	// BulkThreshold disputas en 24 h que saturan la señal de volumen.
	BulkThreshold int
	Workers       int
}

func DefaultConfig() Config {
	return Config{
		Window:         30 * 24 * time.Hour,
		ScoreThreshold: 0.7,
		MinDisputes:    5,
		BulkThreshold:  10,
		Workers:        4,
	}
}

// SettingsProvider configuración vigente (monto de alto valor, marca actual).
type SettingsProvider interface {
	Effective(ctx context.Context, companyID string) (entity.CompanyWeightSettings, error)
}

// CompanyFlagger aplica la marca sobre las disputas abiertas.
type CompanyFlagger interface {
	FlagCompany(ctx context.Context, companyID string) (int, error)
}

type Analyzer struct {
	disputes    repository.DisputeRepository
	settingsRep repository.SettingsRepository
	assessments repository.FraudAssessmentRepository
	settings    SettingsProvider
	flagger     CompanyFlagger
	cfg         Config
	log         *logger.Logger
	now         func() time.Time
}

func NewAnalyzer(
	disputes repository.DisputeRepository,
	settingsRepo repository.SettingsRepository,
	assessments repository.FraudAssessmentRepository,
	settings SettingsProvider,
	flagger CompanyFlagger,
	cfg Config,
	log *logger.Logger,
) *Analyzer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BulkThreshold <= 0 {
		cfg.BulkThreshold = 10
	}
	return &Analyzer{
		disputes: disputes, settingsRep: settingsRepo, assessments: assessments,
		settings: settings, flagger: flagger, cfg: cfg, log: log, now: time.Now,
	}
}

// Score combina las cuatro señales en [0,1].
// Con menos de minDisputes disputas en la ventana el puntaje es 0.
func Score(disputes []*entity.WeightDispute, highValue float64, now time.Time, bulkThreshold, minDisputes int) entity.FraudAssessment {
	a := entity.FraudAssessment{DisputeCount: len(disputes)}
	if len(disputes) == 0 {
		return a
	}

	under := 0
	modes := map[int]int{}
	for _, d := range disputes {
		if d.Discrepancy.ReportedChargeableKg > d.Discrepancy.DeclaredChargeableKg {
			under++
		}
		modes[int(math.Round(d.Discrepancy.Percentage))]++
		if now.Sub(d.CreatedAt) <= 24*time.Hour {
			a.Recent24h++
		}
		if highValue > 0 && d.FinancialImpact.Difference.Abs().InexactFloat64() >= highValue {
			a.HighValueCount++
			if d.EvidenceCount == 0 {
				a.HighValueNoEvidence++
			}
		}
	}
	n := float64(len(disputes))
	a.UnderweightShare = round4(float64(under) / n)

	best, bestCount := 0, 0
	for pct, c := range modes {
		if c > bestCount || (c == bestCount && pct < best) {
			best, bestCount = pct, c
		}
	}
	a.ModePercentage = float64(best)
	a.ModeShare = round4(float64(bestCount) / n)
	a.Recent24hScore = round4(math.Min(1, float64(a.Recent24h)/float64(bulkThreshold)))
	if a.HighValueCount > 0 {
		a.HighValueScore = round4(float64(a.HighValueNoEvidence) / float64(a.HighValueCount))
	}
	if len(disputes) >= minDisputes {
		a.Score = round4((a.UnderweightShare + a.ModeShare + a.Recent24hScore + a.HighValueScore) / 4)
	}
	return a
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// AnalyzeCompany evalúa la ventana de la empresa y guarda el resultado.
// Sobre el umbral marca la empresa (la marca no se retira automáticamente) y escala sus disputas pendientes.
func (a *Analyzer) AnalyzeCompany(ctx context.Context, companyID string) (*entity.FraudAssessment, error) {
	now := a.now()
	since := now.Add(-a.cfg.Window)
	list, err := a.disputes.ListByCompanySince(ctx, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("disputas de %s: %w", companyID, err)
	}
	cfg, err := a.settings.Effective(ctx, companyID)
	if err != nil {
		return nil, err
	}

	res := Score(list, cfg.HighValueAmount.InexactFloat64(), now, a.cfg.BulkThreshold, a.cfg.MinDisputes)
	res.ID = uuid.New().String()
	res.CompanyID = companyID
	res.WindowStart = since
	res.WindowEnd = now
	res.CreatedAt = now
	res.Suspicious = res.Score > a.cfg.ScoreThreshold

	if err := a.assessments.Create(ctx, &res); err != nil {
		return nil, err
	}
	if !res.Suspicious {
		return &res, nil
	}

	if !cfg.SuspiciousFraud {
		if err := a.settingsRep.SetFraudFlag(ctx, companyID, true, res.Score, now); err != nil {
			return nil, err
		}
		a.log.Warn().Str("company_id", companyID).Float64("score", res.Score).
			Int("disputes", res.DisputeCount).Msg("empresa marcada por patrón de fraude")
	}
	escalated, err := a.flagger.FlagCompany(ctx, companyID)
	if err != nil {
		return &res, err
	}
	if escalated > 0 {
		a.log.Warn().Str("company_id", companyID).Int("escalated", escalated).Msg("disputas pendientes escaladas por fraude")
	}
	return &res, nil
}

// RunAll analiza todas las empresas con disputas en la ventana, con un pool acotado.
// Devuelve cuántas quedaron sobre el umbral. Un error por empresa no detiene a las demás.
func (a *Analyzer) RunAll(ctx context.Context) (int, error) {
	companies, err := a.disputes.ListCompaniesWithDisputesSince(ctx, a.now().Add(-a.cfg.Window))
	if err != nil {
		return 0, err
	}
	var flagged atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for _, id := range companies {
		id := id
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := a.AnalyzeCompany(gctx, id)
			if err != nil {
				a.log.Error().Err(err).Str("company_id", id).Msg("falló el análisis de fraude")
				return nil
			}
			if res.Suspicious {
				flagged.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	a.log.Info().Int("companies", len(companies)).Int64("flagged", flagged.Load()).Msg("análisis de fraude completado")
	return int(flagged.Load()), err
}

// Latest último análisis de la empresa.
func (a *Analyzer) Latest(ctx context.Context, companyID string) (*entity.FraudAssessment, error) {
	return a.assessments.Latest(ctx, companyID)
}

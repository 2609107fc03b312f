// Package dispute orquesta el ciclo de vida de las disputas de peso:
// apertura, evidencia, envío a la transportadora, resolución y liquidación.
package dispute

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/evidence"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	rules "github.com/jhoicas/weight-dispute-api/internal/domain/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Actores de sistema registrados en el historial.
const (
	ActorSystem = "system"
	ActorFraud  = "fraud_analyzer"
)

// Razones de escalamiento.
const (
	ReasonCarrierSubmissionFailed = "carrier_submission_failed"
	ReasonHighValueWeakEvidence   = "high_value_weak_evidence"
	ReasonFraudSuspected          = "fraud_suspected"
	ReasonManualReview            = "manual_review"
)

// Pricer cotiza un peso acordado (resolución parcial).
type Pricer interface {
	Price(ctx context.Context, sh *entity.Shipment, kg float64) (decimal.Decimal, entity.CalculationMethod, error)
}

// WeightLearner recibe el peso físico final de un envío.
type WeightLearner interface {
	IngestShipment(ctx context.Context, sh *entity.Shipment, kg float64) (bool, error)
}

// Config parámetros del ciclo de vida.
type Config struct {
	GracePeriod        time.Duration
	HighValueAmount    decimal.Decimal
	SubmissionAttempts int
	SubmissionBackoff  time.Duration
	SubmissionTimeout  time.Duration
	StuckAfter         time.Duration
	BatchSize          int
}

// DefaultConfig 7 días de gracia, 3 intentos con backoff de 2s.
func DefaultConfig() Config {
	return Config{
		GracePeriod:        7 * 24 * time.Hour,
		HighValueAmount:    decimal.NewFromInt(500),
		SubmissionAttempts: 3,
		SubmissionBackoff:  2 * time.Second,
		SubmissionTimeout:  2 * time.Minute,
		StuckAfter:         15 * time.Minute,
		BatchSize:          100,
	}
}

// Deps colaboradores del Manager. Notifier, Pricer y Learner son opcionales.
type Deps struct {
	Tx          ports.TxRunner
	Disputes    repository.DisputeRepository
	Shipments   repository.ShipmentRepository
	Settlements repository.SettlementRepository
	Locker      ports.Locker
	Submitter   ports.CarrierDisputeSubmitter
	Ledger      ports.SettlementExecutor
	Notifier    ports.NotificationSender
	Validator   *evidence.Validator
	Store       ports.ObjectStore
	Pricer      Pricer
	Learner     WeightLearner
	Log         *logger.Logger
}

// Manager dueño de la máquina de estados. Toda mutación toma el bloqueo del envío
// y relee la disputa con FOR UPDATE dentro de la transacción.
type Manager struct {
	Deps
	cfg Config
	now func() time.Time
	wg  sync.WaitGroup
}

func NewManager(d Deps, cfg Config) *Manager {
	if cfg.SubmissionAttempts < 1 {
		cfg.SubmissionAttempts = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.SubmissionTimeout <= 0 {
		cfg.SubmissionTimeout = 2 * time.Minute
	}
	return &Manager{Deps: d, cfg: cfg, now: time.Now}
}

// Actor quien ejecuta una acción. Staff (admin/revisor/servicio) ve todas las empresas.
type Actor struct {
	UserID    string
	CompanyID string
	Staff     bool
}

func (a Actor) id() string {
	if a.UserID == "" {
		return ActorSystem
	}
	return a.UserID
}

func (a Actor) canAccess(d *entity.WeightDispute) bool {
	return a.Staff || (a.CompanyID != "" && a.CompanyID == d.CompanyID)
}

// ShipmentLockKey clave de exclusión mutua por envío.
func ShipmentLockKey(shipmentID string) string {
	return "shipment:" + shipmentID
}

// Details disputa con evidencias, historial y liquidación.
type Details struct {
	Dispute    *entity.WeightDispute
	History    []entity.DisputeStateHistory
	Settlement *entity.Settlement
}

// Get devuelve la disputa si el actor puede verla.
func (m *Manager) Get(ctx context.Context, actor Actor, id string) (*Details, error) {
	d, err := m.Disputes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil || !actor.canAccess(d) {
		return nil, domain.ErrNotFound
	}
	if d.Evidence, err = m.Disputes.ListEvidence(ctx, id); err != nil {
		return nil, err
	}
	history, err := m.Disputes.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := m.Settlements.GetByDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Details{Dispute: d, History: history, Settlement: st}, nil
}

// List filtra disputas; un vendedor solo ve las de su empresa.
func (m *Manager) List(ctx context.Context, actor Actor, f entity.DisputeFilter) ([]*entity.WeightDispute, int, error) {
	if !actor.Staff {
		f.CompanyID = actor.CompanyID
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return m.Disputes.List(ctx, f)
}

// Wait espera las tareas asíncronas en curso (envíos y notificaciones).
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) goAsync(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SubmissionTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// mutate bloquea el envío, relee la disputa FOR UPDATE, aplica fn y persiste.
func (m *Manager) mutate(ctx context.Context, actor Actor, id string, fn func(r repository.TxRepos, d *entity.WeightDispute) error) (*entity.WeightDispute, error) {
	current, err := m.Disputes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil || !actor.canAccess(current) {
		return nil, domain.ErrNotFound
	}

	unlock, err := m.Locker.Lock(ctx, ShipmentLockKey(current.ShipmentID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *entity.WeightDispute
	err = m.Tx.Run(ctx, func(r repository.TxRepos) error {
		d, err := r.Disputes.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound
		}
		if err := fn(r, d); err != nil {
			return err
		}
		if err := r.Disputes.Update(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transition aplica la transición y registra el historial en la misma transacción.
func (m *Manager) transition(ctx context.Context, r repository.TxRepos, d *entity.WeightDispute, to entity.DisputeStatus, actor, reason string) error {
	h, err := rules.Transition(d, to, actor, reason, m.now())
	if err != nil {
		return err
	}
	return r.Disputes.AddHistory(ctx, h)
}

func (m *Manager) notify(companyID, template string, params map[string]string) {
	if m.Notifier == nil {
		return
	}
	m.goAsync(func(ctx context.Context) {
		if err := m.Notifier.Send(ctx, companyID, template, params); err != nil {
			m.Log.Warn().Err(err).Str("company_id", companyID).Str("template", template).Msg("no se pudo enviar la notificación")
		}
	})
}

func disputeParams(d *entity.WeightDispute) map[string]string {
	return map[string]string{
		"dispute_id":      d.ID,
		"tracking_id":     d.TrackingID,
		"status":          string(d.Status),
		"declared_kg":     fmt.Sprintf("%.3f", d.Discrepancy.DeclaredChargeableKg),
		"reported_kg":     fmt.Sprintf("%.3f", d.Discrepancy.ReportedChargeableKg),
		"difference":      d.FinancialImpact.Difference.StringFixed(2),
		"currency":        d.FinancialImpact.Currency,
		"auto_resolve_at": d.AutoResolveAt.Format(time.RFC3339),
	}
}

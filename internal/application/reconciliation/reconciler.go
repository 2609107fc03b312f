// Package reconciliation concilia el archivo MIS mensual de la transportadora contra los envíos.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	rules "github.com/jhoicas/weight-dispute-api/internal/domain/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// ImpactCalculator costo al peso esperado vs al peso cobrado.
type ImpactCalculator interface {
	Impact(ctx context.Context, sh *entity.Shipment, declaredKg, reportedKg float64, dims *weight.Dimensions) (entity.FinancialImpact, error)
}

// DisputeOpener apertura de disputas dentro de la transacción de la fila.
type DisputeOpener interface {
	OpenInTx(ctx context.Context, r repository.TxRepos, in dispute.OpenInput) (*entity.WeightDispute, error)
	AfterOpen(d *entity.WeightDispute)
}

// SettingsProvider umbral vigente por empresa.
type SettingsProvider interface {
	Effective(ctx context.Context, companyID string) (entity.CompanyWeightSettings, error)
}

// Input archivo MIS de un ciclo de facturación.
type Input struct {
	CarrierID    string
	BillingMonth string // YYYY-MM
	Filename     string
	Content      []byte
	CreatedBy    string
}

// Deps colaboradores del conciliador.
type Deps struct {
	Tx              ports.TxRunner
	Shipments       repository.ShipmentRepository
	Disputes        repository.DisputeRepository
	Reconciliations repository.ReconciliationRepository
	Locker          ports.Locker
	// RunLocker bloqueo del lote completo; su TTL debe cubrir un archivo MIS grande. Nil = Locker.
	RunLocker       ports.Locker
	Parser          ports.MISParser
	Store           ports.ObjectStore
	Renderers       []ports.ReportRenderer
	Settings        SettingsProvider
	Impact          ImpactCalculator
	Opener          DisputeOpener
	DimDivisor      float64
	// LeadDays días antes del inicio del mes que siguen dentro de la ventana de facturación.
	LeadDays int
	Log      *logger.Logger
}

type Reconciler struct {
	Deps
	renderers map[string]ports.ReportRenderer
	now       func() time.Time
}

func NewReconciler(d Deps) *Reconciler {
	if d.DimDivisor <= 0 {
		d.DimDivisor = weight.DefaultDivisor
	}
	if d.RunLocker == nil {
		d.RunLocker = d.Locker
	}
	if d.LeadDays < 0 {
		d.LeadDays = 0
	}
	r := &Reconciler{Deps: d, renderers: map[string]ports.ReportRenderer{}, now: time.Now}
	for _, rr := range d.Renderers {
		r.renderers[rr.Format()] = rr
	}
	return r
}

// Window rango [inicio, fin) de creación de envíos aceptado para el mes.
func Window(billingMonth string, leadDays int) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", billingMonth)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: mes de facturación %q, use AAAA-MM", domain.ErrInvalidInput, billingMonth)
	}
	return start.AddDate(0, 0, -leadDays), start.AddDate(0, 1, 0), nil
}

// Run concilia todas las filas y genera una nueva versión inmutable del reporte.
// Las filas ya conciliadas en versiones anteriores no vuelven a disputarse.
func (rc *Reconciler) Run(ctx context.Context, in Input) (*entity.ReconciliationReport, error) {
	in.CarrierID = strings.ToLower(strings.TrimSpace(in.CarrierID))
	if in.CarrierID == "" {
		return nil, fmt.Errorf("%w: transportadora requerida", domain.ErrInvalidInput)
	}
	from, to, err := Window(in.BillingMonth, rc.LeadDays)
	if err != nil {
		return nil, err
	}
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: el archivo MIS está vacío", domain.ErrInvalidInput)
	}

	unlock, err := rc.RunLocker.Lock(ctx, "reconciliation:"+in.CarrierID+":"+in.BillingMonth)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rows, bad, err := rc.Parser.Parse(in.Content, in.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	report := &entity.ReconciliationReport{Lines: make([]entity.ReconciliationLine, 0, len(rows)+len(bad))}
	counts := entity.ReconciliationCounts{TotalRows: len(rows) + len(bad), InvalidRows: len(bad)}
	for _, b := range bad {
		report.Lines = append(report.Lines, entity.ReconciliationLine{LineNo: b.LineNo, Outcome: entity.LineInvalid, Note: b.Reason})
		rc.Log.Warn().Int("line", b.LineNo).Str("reason", b.Reason).Str("carrier", in.CarrierID).Msg("fila MIS inválida")
	}

	for _, row := range rows {
		line, err := rc.reconcileRow(ctx, in, row, from, to)
		if err != nil {
			rc.Log.Error().Err(err).Int("line", row.LineNo).Str("awb", row.AWB).Msg("falló la conciliación de la fila")
			line = entity.ReconciliationLine{
				LineNo: row.LineNo, AWB: row.AWB, ChargedWeightKg: row.ChargedWeightKg,
				ChargedAmount: row.ChargedAmount, Outcome: entity.LineFailed, Note: err.Error(),
			}
		}
		tally(&counts, line)
		report.Lines = append(report.Lines, line)
	}

	run, err := rc.saveRun(ctx, in, counts, report)
	if err != nil {
		return nil, err
	}
	report.Run = *run
	rc.Log.Info().Str("run_id", run.ID).Str("carrier", run.CarrierID).Str("month", run.BillingMonth).
		Int("version", run.Version).Int("matched", counts.Matched).Int("discrepant", counts.Discrepant).
		Int("disputes_created", counts.DisputesCreated).Int("invalid", counts.InvalidRows).
		Msg("conciliación completada")
	return report, nil
}

func tally(c *entity.ReconciliationCounts, l entity.ReconciliationLine) {
	switch l.Outcome {
	case entity.LineMatched:
		c.Matched++
	case entity.LineUnmatched:
		c.Unmatched++
	case entity.LineDiscrepant:
		c.Discrepant++
		if l.DisputeID != "" {
			c.DisputesCreated++
		}
	case entity.LineAlreadyReconciled:
		c.AlreadyReconciled++
	case entity.LineAlreadyDisputed:
		c.Discrepant++
		c.AlreadyDisputed++
	case entity.LineFailed:
		c.FailedRows++
	}
}

func (rc *Reconciler) reconcileRow(ctx context.Context, in Input, row entity.InvoiceRow, from, to time.Time) (entity.ReconciliationLine, error) {
	line := entity.ReconciliationLine{
		LineNo: row.LineNo, AWB: row.AWB,
		ChargedWeightKg: row.ChargedWeightKg, ChargedAmount: row.ChargedAmount,
	}
	done, err := rc.Reconciliations.IsRowReconciled(ctx, in.CarrierID, in.BillingMonth, row.AWB)
	if err != nil {
		return line, err
	}
	if done {
		line.Outcome = entity.LineAlreadyReconciled
		return line, nil
	}

	sh, err := rc.Shipments.GetByTrackingID(ctx, row.AWB)
	if err != nil {
		return line, err
	}
	if sh == nil || (sh.CarrierID != "" && !strings.EqualFold(sh.CarrierID, in.CarrierID)) {
		line.Outcome, line.Note = entity.LineUnmatched, "guía no encontrada"
		return line, nil
	}
	if sh.CreatedAt.Before(from) || !sh.CreatedAt.Before(to) {
		line.Outcome, line.Note = entity.LineUnmatched, "envío fuera de la ventana de facturación"
		return line, nil
	}
	line.ShipmentID = sh.ID

	declared, ok := sh.Weights.Declared()
	if !ok {
		return line, fmt.Errorf("%w: envío %s sin peso declarado", domain.ErrConflict, sh.ID)
	}
	divisor := sh.DimDivisor
	if divisor <= 0 {
		divisor = rc.DimDivisor
	}
	expected, _, err := weight.Chargeable(declared.ValueKg, declared.Dimensions, divisor)
	if err != nil {
		return line, err
	}
	line.ExpectedKg = expected
	pct, err := weight.PercentDifference(expected, row.ChargedWeightKg)
	if err != nil {
		return line, err
	}
	line.Percentage = pct

	cfg, err := rc.Settings.Effective(ctx, sh.CompanyID)
	if err != nil {
		return line, err
	}
	if pct <= cfg.ThresholdPercent {
		line.Outcome = entity.LineMatched
		return line, rc.Reconciliations.MarkRowReconciled(ctx, in.CarrierID, in.BillingMonth, row.AWB, sh.ID)
	}

	line.Outcome = entity.LineDiscrepant
	return rc.disputeRow(ctx, in, row, sh, declared, expected, pct, cfg, line)
}

func (rc *Reconciler) disputeRow(ctx context.Context, in Input, row entity.InvoiceRow, sh *entity.Shipment, declared entity.WeightObservation, expected, pct float64, cfg entity.CompanyWeightSettings, line entity.ReconciliationLine) (entity.ReconciliationLine, error) {
	unlock, err := rc.Locker.Lock(ctx, dispute.ShipmentLockKey(sh.ID))
	if err != nil {
		return line, err
	}
	defer unlock()

	had, err := rc.Disputes.HasAnyForShipment(ctx, sh.ID)
	if err != nil {
		return line, err
	}
	if had {
		line.Outcome = entity.LineAlreadyDisputed
		return line, rc.Reconciliations.MarkRowReconciled(ctx, in.CarrierID, in.BillingMonth, row.AWB, sh.ID)
	}

	impact, err := rc.Impact.Impact(ctx, sh, expected, row.ChargedWeightKg, declared.Dimensions)
	if err != nil {
		return line, err
	}
	disc := entity.Discrepancy{
		DeclaredKg:           declared.ValueKg,
		ReportedKg:           row.ChargedWeightKg,
		DeclaredChargeableKg: expected,
		ReportedChargeableKg: row.ChargedWeightKg,
		DifferenceKg:         weight.Round(abs(row.ChargedWeightKg - expected)),
		Percentage:           pct,
	}
	priority := rules.Prioritize(impact.Difference, cfg.HighValueAmount, cfg.SuspiciousFraud)

	var opened *entity.WeightDispute
	err = rc.Tx.Run(ctx, func(r repository.TxRepos) error {
		cur, err := r.Shipments.GetForUpdate(ctx, sh.ID)
		if err != nil {
			return err
		}
		if err := cur.Weights.Append(entity.WeightObservation{
			Stage:      entity.StageScanned,
			ValueKg:    row.ChargedWeightKg,
			Source:     entity.SourceInvoice,
			Location:   "MIS " + in.BillingMonth,
			ObservedAt: rc.now(),
		}); err != nil {
			return err
		}
		cur.WeightStatus = entity.WeightDisputed
		cur.UpdatedAt = rc.now()
		if err := r.Shipments.UpdateWeights(ctx, cur); err != nil {
			return err
		}
		opened, err = rc.Opener.OpenInTx(ctx, r, dispute.OpenInput{
			Shipment:       cur,
			Source:         entity.DisputeSourceCourierInvoice,
			Discrepancy:    disc,
			Impact:         impact,
			Category:       entity.CategoryInvoiceDiscrepancy,
			Priority:       priority,
			CompanyFlagged: cfg.SuspiciousFraud,
		})
		if err != nil {
			return err
		}
		return r.Reconciliations.MarkRowReconciled(ctx, in.CarrierID, in.BillingMonth, row.AWB, sh.ID)
	})
	if errors.Is(err, domain.ErrDuplicateDispute) {
		line.Outcome = entity.LineAlreadyDisputed
		return line, rc.Reconciliations.MarkRowReconciled(ctx, in.CarrierID, in.BillingMonth, row.AWB, sh.ID)
	}
	if err != nil {
		return line, err
	}
	line.DisputeID = opened.ID
	rc.Opener.AfterOpen(opened)
	return line, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (rc *Reconciler) saveRun(ctx context.Context, in Input, counts entity.ReconciliationCounts, report *entity.ReconciliationReport) (*entity.ReconciliationRun, error) {
	version, err := rc.Reconciliations.NextVersion(ctx, in.CarrierID, in.BillingMonth)
	if err != nil {
		return nil, err
	}
	run := &entity.ReconciliationRun{
		ID:           uuid.New().String(),
		CarrierID:    in.CarrierID,
		BillingMonth: in.BillingMonth,
		Version:      version,
		SourceFile:   in.Filename,
		Counts:       counts,
		ReportRefs:   map[string]string{},
		CreatedBy:    in.CreatedBy,
		CreatedAt:    rc.now(),
	}
	report.Run = *run
	for format, r := range rc.renderers {
		data, err := r.Render(report)
		if err != nil {
			return nil, fmt.Errorf("reporte %s: %w", format, err)
		}
		key := fmt.Sprintf("reconciliations/%s/%s/v%d/report.%s", run.CarrierID, run.BillingMonth, run.Version, format)
		if _, err := rc.Store.Put(ctx, key, data, r.ContentType()); err != nil {
			return nil, fmt.Errorf("guardar reporte %s: %w", format, err)
		}
		run.ReportRefs[format] = key
	}
	if err := rc.Reconciliations.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun devuelve la corrida o domain.ErrNotFound.
func (rc *Reconciler) GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error) {
	run, err := rc.Reconciliations.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

// ListRuns versiones de un carrier/mes; filtros vacíos listan todo.
func (rc *Reconciler) ListRuns(ctx context.Context, carrierID, billingMonth string) ([]*entity.ReconciliationRun, error) {
	return rc.Reconciliations.ListRuns(ctx, strings.ToLower(strings.TrimSpace(carrierID)), billingMonth)
}

// Report artefacto de la corrida en el formato pedido (json, xlsx o pdf).
func (rc *Reconciler) Report(ctx context.Context, runID, format string) ([]byte, string, error) {
	run, err := rc.GetRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	format = strings.ToLower(format)
	if format == "" {
		format = "json"
	}
	key, ok := run.ReportRefs[format]
	r, known := rc.renderers[format]
	if !ok || !known {
		return nil, "", fmt.Errorf("%w: formato %q no disponible", domain.ErrNotFound, format)
	}
	data, err := rc.Store.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return data, r.ContentType(), nil
}

// Formats formatos de reporte configurados.
func (rc *Reconciler) Formats() []string {
	out := make([]string, 0, len(rc.renderers))
	for f := range rc.renderers {
		out = append(out, f)
	}
	return out
}

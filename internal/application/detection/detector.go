// Package detection decide, por cada observación de peso de la transportadora,
// si el envío queda verificado o si se abre una disputa.
package detection

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	rules "github.com/jhoicas/weight-dispute-api/internal/domain/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

// ImpactCalculator costo declarado vs real.
type ImpactCalculator interface {
	Impact(ctx context.Context, sh *entity.Shipment, declaredKg, reportedKg float64, dims *weight.Dimensions) (entity.FinancialImpact, error)
}

// DisputeOpener operaciones del ciclo de vida que usa el detector.
type DisputeOpener interface {
	OpenInTx(ctx context.Context, r repository.TxRepos, in dispute.OpenInput) (*entity.WeightDispute, error)
	MergeInTx(ctx context.Context, r repository.TxRepos, d *entity.WeightDispute) error
	AfterOpen(d *entity.WeightDispute)
}

// SettingsProvider configuración vigente de la empresa.
type SettingsProvider interface {
	Effective(ctx context.Context, companyID string) (entity.CompanyWeightSettings, error)
}

// Outcome resultado de procesar una observación.
type Outcome string

const (
	OutcomeVerified      Outcome = "verified"
	OutcomeRecorded      Outcome = "recorded"
	OutcomeDisputeOpened Outcome = "dispute_opened"
	OutcomeMerged        Outcome = "dispute_merged"
	OutcomeDuplicate     Outcome = "duplicate"
)

// Result resumen devuelto al webhook.
type Result struct {
	TrackingID  string             `json:"tracking_id"`
	ShipmentID  string             `json:"shipment_id"`
	Outcome     Outcome            `json:"outcome"`
	DisputeID   string             `json:"dispute_id,omitempty"`
	Discrepancy entity.Discrepancy `json:"discrepancy"`
}

type Detector struct {
	tx        ports.TxRunner
	shipments repository.ShipmentRepository
	disputes  repository.DisputeRepository
	locker    ports.Locker
	settings  SettingsProvider
	impact    ImpactCalculator
	opener    DisputeOpener
	learner   dispute.WeightLearner
	divisor   float64
	log       *logger.Logger
	now       func() time.Time
}

// Deps colaboradores del detector; Learner es opcional.
type Deps struct {
	Tx        ports.TxRunner
	Shipments repository.ShipmentRepository
	Disputes  repository.DisputeRepository
	Locker    ports.Locker
	Settings  SettingsProvider
	Impact    ImpactCalculator
	Opener    DisputeOpener
	Learner   dispute.WeightLearner
	// DimDivisor divisor volumétrico por defecto si el envío no define uno.
	DimDivisor float64
	Log        *logger.Logger
}

func NewDetector(d Deps) *Detector {
	if d.DimDivisor <= 0 {
		d.DimDivisor = weight.DefaultDivisor
	}
	return &Detector{
		tx: d.Tx, shipments: d.Shipments, disputes: d.Disputes, locker: d.Locker,
		settings: d.Settings, impact: d.Impact, opener: d.Opener, learner: d.Learner,
		divisor: d.DimDivisor, log: d.Log, now: time.Now,
	}
}

// Normalize convierte la observación a kg/cm y valida las medidas.
func Normalize(obs entity.CarrierObservation, now time.Time) (entity.WeightObservation, error) {
	unit, err := weight.ParseUnit(obs.Unit)
	if err != nil {
		return entity.WeightObservation{}, err
	}
	kg, err := weight.ToKilograms(obs.Weight, unit)
	if err != nil {
		return entity.WeightObservation{}, err
	}
	wo := entity.WeightObservation{
		Stage:      obs.Stage,
		ValueKg:    weight.Round(kg),
		Source:     obs.Source,
		Location:   obs.Location,
		ObservedAt: obs.ScannedAt,
	}
	if wo.ValueKg <= 0 {
		return entity.WeightObservation{}, fmt.Errorf("%w: peso %v %s", domain.ErrInvalidMeasurement, obs.Weight, obs.Unit)
	}
	if wo.Stage == "" {
		wo.Stage = entity.StageScanned
	}
	if wo.Source == "" {
		wo.Source = entity.SourceWebhook
	}
	if wo.ObservedAt.IsZero() {
		wo.ObservedAt = now
	}
	if obs.HasDimensions() {
		lu, err := weight.ParseLengthUnit(obs.DimUnit)
		if err != nil {
			return entity.WeightObservation{}, err
		}
		dims, err := weight.ToCentimeters(weight.Dimensions{LengthCm: obs.Length, WidthCm: obs.Width, HeightCm: obs.Height}, lu)
		if err != nil {
			return entity.WeightObservation{}, err
		}
		wo.Dimensions = &dims
	}
	return wo, nil
}

// Compare pesos cobrables declarado y reportado; sin dimensiones reportadas se usan las declaradas.
func Compare(declared, reported entity.WeightObservation, divisor float64) (entity.Discrepancy, error) {
	declCh, _, err := weight.Chargeable(declared.ValueKg, declared.Dimensions, divisor)
	if err != nil {
		return entity.Discrepancy{}, err
	}
	dims := reported.Dimensions
	if dims == nil {
		dims = declared.Dimensions
	}
	repCh, repVol, err := weight.Chargeable(reported.ValueKg, dims, divisor)
	if err != nil {
		return entity.Discrepancy{}, err
	}
	pct, err := weight.PercentDifference(declCh, repCh)
	if err != nil {
		return entity.Discrepancy{}, err
	}
	return entity.Discrepancy{
		DeclaredKg:           declared.ValueKg,
		ReportedKg:           reported.ValueKg,
		DeclaredChargeableKg: declCh,
		ReportedChargeableKg: repCh,
		ReportedVolumetricKg: repVol,
		DifferenceKg:         weight.Round(math.Abs(repCh - declCh)),
		Percentage:           pct,
	}, nil
}

// Process serializa por envío: normaliza, descarta duplicados, compara y decide.
func (d *Detector) Process(ctx context.Context, obs entity.CarrierObservation) (*Result, error) {
	wo, err := Normalize(obs, d.now())
	if err != nil {
		d.log.Warn().Err(err).Str("tracking_id", obs.TrackingID).Str("carrier", obs.CarrierID).Msg("observación de peso rechazada")
		return nil, err
	}
	trackingID := strings.TrimSpace(obs.TrackingID)
	sh, err := d.shipments.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, fmt.Errorf("%w: guía %s", domain.ErrNotFound, trackingID)
	}
	// Una guía de otra transportadora se trata como desconocida.
	if sh.CarrierID != "" && !strings.EqualFold(sh.CarrierID, strings.TrimSpace(obs.CarrierID)) {
		d.log.Warn().Str("tracking_id", trackingID).Str("carrier", obs.CarrierID).Str("shipment_carrier", sh.CarrierID).Msg("observación de otra transportadora")
		return nil, fmt.Errorf("%w: guía %s no pertenece a %s", domain.ErrNotFound, trackingID, obs.CarrierID)
	}

	unlock, err := d.locker.Lock(ctx, dispute.ShipmentLockKey(sh.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Relectura bajo el bloqueo.
	if sh, err = d.shipments.GetByID(ctx, sh.ID); err != nil {
		return nil, err
	}
	res := &Result{TrackingID: trackingID, ShipmentID: sh.ID}
	if sh.Weights.Contains(wo) {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}
	declared, ok := sh.Weights.Declared()
	if !ok {
		return nil, fmt.Errorf("%w: el envío %s no tiene peso declarado", domain.ErrConflict, sh.ID)
	}
	divisor := sh.DimDivisor
	if divisor <= 0 {
		divisor = d.divisor
	}
	disc, err := Compare(declared, wo, divisor)
	if err != nil {
		return nil, err
	}
	res.Discrepancy = disc

	cfg, err := d.settings.Effective(ctx, sh.CompanyID)
	if err != nil {
		return nil, err
	}
	open, err := d.disputes.GetOpenByShipment(ctx, sh.ID)
	if err != nil {
		return nil, err
	}

	if disc.Percentage <= cfg.ThresholdPercent || open != nil {
		return d.record(ctx, sh.ID, wo, res)
	}
	// Un envío ya disputado una vez solo acumula observaciones.
	if sh.WeightStatus == entity.WeightResolved {
		return d.record(ctx, sh.ID, wo, res)
	}
	disputed, err := d.disputes.HasAnyForShipment(ctx, sh.ID)
	if err != nil {
		return nil, err
	}
	if disputed {
		return d.record(ctx, sh.ID, wo, res)
	}
	return d.openDispute(ctx, sh, declared, wo, disc, cfg, res)
}

// record agrega la observación; verifica el envío si no hay disputa abierta, o la fusiona si la hay.
func (d *Detector) record(ctx context.Context, shipmentID string, wo entity.WeightObservation, res *Result) (*Result, error) {
	var verified *entity.Shipment
	err := d.tx.Run(ctx, func(r repository.TxRepos) error {
		sh, err := r.Shipments.GetForUpdate(ctx, shipmentID)
		if err != nil {
			return err
		}
		if err := sh.Weights.Append(wo); err != nil {
			return err
		}
		sh.UpdatedAt = d.now()
		open, err := r.Disputes.GetOpenByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		switch {
		case open != nil:
			if err := d.opener.MergeInTx(ctx, r, open); err != nil {
				return err
			}
			res.Outcome, res.DisputeID = OutcomeMerged, open.ID
		case sh.WeightStatus == entity.WeightPending || sh.WeightStatus == "":
			sh.WeightStatus = entity.WeightVerified
			verified = sh
			res.Outcome = OutcomeVerified
		default:
			res.Outcome = OutcomeRecorded
		}
		return r.Shipments.UpdateWeights(ctx, sh)
	})
	if err != nil {
		return nil, err
	}
	if verified != nil && d.learner != nil {
		if _, err := d.learner.IngestShipment(ctx, verified, wo.ValueKg); err != nil {
			d.log.Warn().Err(err).Str("shipment_id", verified.ID).Msg("no se pudo actualizar el peso del SKU")
		}
	}
	d.log.Debug().Str("shipment_id", shipmentID).Str("outcome", string(res.Outcome)).
		Float64("percentage", res.Discrepancy.Percentage).Msg("observación de peso registrada")
	return res, nil
}

func (d *Detector) openDispute(ctx context.Context, sh *entity.Shipment, declared, wo entity.WeightObservation, disc entity.Discrepancy, cfg entity.CompanyWeightSettings, res *Result) (*Result, error) {
	dims := wo.Dimensions
	if dims == nil {
		dims = declared.Dimensions
	}
	impact, err := d.impact.Impact(ctx, sh, disc.DeclaredChargeableKg, disc.ReportedChargeableKg, dims)
	if err != nil {
		return nil, err
	}
	category := rules.Classify(rules.ClassificationInput{
		Discrepancy:        disc,
		DeclaredDimensions: declared.Dimensions,
		ReportedDimensions: wo.Dimensions,
		CompanyFlagged:     cfg.SuspiciousFraud,
	})
	priority := rules.Prioritize(impact.Difference, cfg.HighValueAmount, cfg.SuspiciousFraud)

	var opened *entity.WeightDispute
	err = d.tx.Run(ctx, func(r repository.TxRepos) error {
		cur, err := r.Shipments.GetForUpdate(ctx, sh.ID)
		if err != nil {
			return err
		}
		if err := cur.Weights.Append(wo); err != nil {
			return err
		}
		cur.WeightStatus = entity.WeightDisputed
		cur.UpdatedAt = d.now()
		if err := r.Shipments.UpdateWeights(ctx, cur); err != nil {
			return err
		}
		if existing, err := r.Disputes.GetOpenByShipment(ctx, sh.ID); err != nil {
			return err
		} else if existing != nil {
			res.Outcome, res.DisputeID = OutcomeMerged, existing.ID
			return d.opener.MergeInTx(ctx, r, existing)
		}
		opened, err = d.opener.OpenInTx(ctx, r, dispute.OpenInput{
			Shipment:       cur,
			Source:         entity.DisputeSourceWebhook,
			Discrepancy:    disc,
			Impact:         impact,
			Category:       category,
			Priority:       priority,
			CompanyFlagged: cfg.SuspiciousFraud,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if opened != nil {
		res.Outcome, res.DisputeID = OutcomeDisputeOpened, opened.ID
		d.opener.AfterOpen(opened)
	}
	return res, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var _ repository.DisputeRepository = (*DisputeRepo)(nil)

// DisputeRepo implementación de DisputeRepository (usable con pool o tx).
type DisputeRepo struct {
	q Querier
}

// NewDisputeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDisputeRepository(q Querier) *DisputeRepo {
	return &DisputeRepo{q: q}
}

const disputeColumns = `d.id, d.company_id, d.shipment_id, d.tracking_id, d.carrier_id, d.source,
	d.discrepancy, d.financial_impact, d.status, d.category, d.priority, d.observation_count,
	(SELECT COUNT(*) FROM dispute_evidence e WHERE e.dispute_id = d.id) AS evidence_count,
	d.seller_notes, d.courier_reference, d.submission_method, d.submission_attempts,
	d.submission_claimed_at, d.submitted_to_courier_at, d.last_submission_error, d.escalation_reason,
	d.resolution, d.auto_resolve_at, d.created_at, d.updated_at`

// openStatusList estados abiertos para las consultas; debe coincidir con el índice parcial.
var openStatusList = func() []string {
	out := make([]string, 0, len(entity.OpenDisputeStatuses))
	for _, s := range entity.OpenDisputeStatuses {
		out = append(out, string(s))
	}
	return out
}()

// Create devuelve domain.ErrDuplicateDispute si el índice parcial de disputa abierta lo rechaza.
func (r *DisputeRepo) Create(ctx context.Context, d *entity.WeightDispute) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	disc, err := toJSON(d.Discrepancy)
	if err != nil {
		return err
	}
	impact, err := toJSON(d.FinancialImpact)
	if err != nil {
		return err
	}
	resolution, err := resolutionJSON(d.Resolution)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO weight_disputes (id, company_id, shipment_id, tracking_id, carrier_id, source,
			discrepancy, financial_impact, impact_difference, status, category, priority, observation_count,
			seller_notes, courier_reference, submission_method, submission_attempts, submission_claimed_at,
			submitted_to_courier_at, last_submission_error, escalation_reason, resolution,
			auto_resolve_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)`
	_, err = r.q.Exec(ctx, query,
		d.ID, d.CompanyID, d.ShipmentID, d.TrackingID, d.CarrierID, d.Source,
		disc, impact, d.FinancialImpact.Difference, d.Status, d.Category, d.Priority, d.ObservationCount,
		d.SellerNotes, nullIfEmpty(d.CourierReference), d.SubmissionMethod, d.SubmissionAttempts, d.SubmissionClaimedAt,
		d.SubmittedToCourierAt, d.LastSubmissionError, d.EscalationReason, resolution,
		d.AutoResolveAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return mapDisputeWriteError(err, "insert dispute")
	}
	return nil
}

func mapDisputeWriteError(err error, op string) error {
	if isUniqueViolation(err) {
		if constraintName(err) == "ux_weight_disputes_open_shipment" {
			return domain.ErrDuplicateDispute
		}
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, constraintName(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func resolutionJSON(res *entity.Resolution) ([]byte, error) {
	if res == nil {
		return nil, nil
	}
	return toJSON(res)
}

func (r *DisputeRepo) GetByID(ctx context.Context, id string) (*entity.WeightDispute, error) {
	return r.getOne(ctx, `SELECT `+disputeColumns+` FROM weight_disputes d WHERE d.id = $1`, id)
}

func (r *DisputeRepo) GetForUpdate(ctx context.Context, id string) (*entity.WeightDispute, error) {
	return r.getOne(ctx, `SELECT `+disputeColumns+` FROM weight_disputes d WHERE d.id = $1 FOR UPDATE OF d`, id)
}

func (r *DisputeRepo) GetOpenByShipment(ctx context.Context, shipmentID string) (*entity.WeightDispute, error) {
	return r.getOne(ctx, `SELECT `+disputeColumns+` FROM weight_disputes d
		WHERE d.shipment_id = $1 AND d.status = ANY($2)`, shipmentID, openStatusList)
}

func (r *DisputeRepo) GetByCourierReference(ctx context.Context, carrierID, reference string) (*entity.WeightDispute, error) {
	if reference == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+disputeColumns+` FROM weight_disputes d
		WHERE d.carrier_id = $1 AND d.courier_reference = $2`, carrierID, reference)
}

func (r *DisputeRepo) getOne(ctx context.Context, query string, args ...any) (*entity.WeightDispute, error) {
	d, err := scanDispute(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dispute: %w", err)
	}
	return d, nil
}

func (r *DisputeRepo) HasAnyForShipment(ctx context.Context, shipmentID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM weight_disputes WHERE shipment_id = $1)`, shipmentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists dispute: %w", err)
	}
	return exists, nil
}

func (r *DisputeRepo) Update(ctx context.Context, d *entity.WeightDispute) error {
	disc, err := toJSON(d.Discrepancy)
	if err != nil {
		return err
	}
	impact, err := toJSON(d.FinancialImpact)
	if err != nil {
		return err
	}
	resolution, err := resolutionJSON(d.Resolution)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE weight_disputes
		SET discrepancy = $2, financial_impact = $3, impact_difference = $4, status = $5, category = $6,
		    priority = $7, observation_count = $8, seller_notes = $9, courier_reference = $10,
		    submission_method = $11, submission_attempts = $12, submission_claimed_at = $13,
		    submitted_to_courier_at = $14, last_submission_error = $15, escalation_reason = $16,
		    resolution = $17, auto_resolve_at = $18, updated_at = $19
		WHERE id = $1`,
		d.ID, disc, impact, d.FinancialImpact.Difference, d.Status, d.Category,
		d.Priority, d.ObservationCount, d.SellerNotes, nullIfEmpty(d.CourierReference),
		d.SubmissionMethod, d.SubmissionAttempts, d.SubmissionClaimedAt,
		d.SubmittedToCourierAt, d.LastSubmissionError, d.EscalationReason,
		resolution, d.AutoResolveAt, d.UpdatedAt,
	)
	if err != nil {
		return mapDisputeWriteError(err, "update dispute")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List aplica los filtros y devuelve la página junto al total.
func (r *DisputeRepo) List(ctx context.Context, f entity.DisputeFilter) ([]*entity.WeightDispute, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CompanyID != "" {
		add("d.company_id = $%d", f.CompanyID)
	}
	if f.CarrierID != "" {
		add("d.carrier_id = $%d", f.CarrierID)
	}
	if f.Priority != "" {
		add("d.priority = $%d", f.Priority)
	}
	if f.Category != "" {
		add("d.category = $%d", f.Category)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		add("d.status = ANY($%d)", statuses)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM weight_disputes d`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count disputes: %w", err)
	}

	query := `SELECT ` + disputeColumns + ` FROM weight_disputes d` + cond + ` ORDER BY d.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	list, err := r.queryMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *DisputeRepo) queryMany(ctx context.Context, query string, args ...any) ([]*entity.WeightDispute, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()
	list := []*entity.WeightDispute{}
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispute: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (r *DisputeRepo) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dispute ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDueForAutoResolve disputas pendientes con gracia vencida, más antiguas primero.
func (r *DisputeRepo) ListDueForAutoResolve(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return r.queryIDs(ctx, `
		SELECT id FROM weight_disputes
		WHERE status = 'pending' AND auto_resolve_at <= $1
		ORDER BY auto_resolve_at
		LIMIT $2`, now, limitOrAll(limit))
}

// ListStuckSubmissions disputas con evidencia enviada cuyo envío a la transportadora quedó sin confirmar.
func (r *DisputeRepo) ListStuckSubmissions(ctx context.Context, claimedBefore time.Time, limit int) ([]string, error) {
	return r.queryIDs(ctx, `
		SELECT id FROM weight_disputes
		WHERE status = 'evidence_submitted' AND COALESCE(submission_claimed_at, updated_at) < $1
		ORDER BY updated_at
		LIMIT $2`, claimedBefore, limitOrAll(limit))
}

func (r *DisputeRepo) ListByCompanySince(ctx context.Context, companyID string, since time.Time) ([]*entity.WeightDispute, error) {
	return r.queryMany(ctx, `SELECT `+disputeColumns+` FROM weight_disputes d
		WHERE d.company_id = $1 AND d.created_at >= $2
		ORDER BY d.created_at`, companyID, since)
}

func (r *DisputeRepo) ListCompaniesWithDisputesSince(ctx context.Context, since time.Time) ([]string, error) {
	return r.queryIDs(ctx, `
		SELECT DISTINCT company_id FROM weight_disputes
		WHERE created_at >= $1
		ORDER BY company_id`, since)
}

func (r *DisputeRepo) ListOpenIDsByCompany(ctx context.Context, companyID string) ([]string, error) {
	return r.queryIDs(ctx, `
		SELECT id FROM weight_disputes
		WHERE company_id = $1 AND status = ANY($2)
		ORDER BY created_at`, companyID, openStatusList)
}

// limitOrAll LIMIT NULL equivale a sin límite.
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func (r *DisputeRepo) AddEvidence(ctx context.Context, e *entity.DisputeEvidence) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	validation, err := toJSON(e.Validation)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO dispute_evidence (id, dispute_id, kind, url, object_key, content_type, size_bytes,
			captured_at, uploaded_by, validation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.DisputeID, e.Kind, e.URL, e.ObjectKey, e.ContentType, e.SizeBytes,
		e.CapturedAt, e.UploadedBy, validation, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

func (r *DisputeRepo) ListEvidence(ctx context.Context, disputeID string) ([]entity.DisputeEvidence, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, dispute_id, kind, url, object_key, content_type, size_bytes, captured_at,
		       uploaded_by, validation, created_at
		FROM dispute_evidence WHERE dispute_id = $1 ORDER BY created_at`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()
	var list []entity.DisputeEvidence
	for rows.Next() {
		var e entity.DisputeEvidence
		var validation []byte
		if err := rows.Scan(&e.ID, &e.DisputeID, &e.Kind, &e.URL, &e.ObjectKey, &e.ContentType, &e.SizeBytes,
			&e.CapturedAt, &e.UploadedBy, &validation, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		if err := fromJSON(validation, &e.Validation); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *DisputeRepo) AddHistory(ctx context.Context, h entity.DisputeStateHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO dispute_state_history (id, dispute_id, from_status, to_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.DisputeID, h.From, h.To, h.Actor, h.Reason, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dispute history: %w", err)
	}
	return nil
}

func (r *DisputeRepo) ListHistory(ctx context.Context, disputeID string) ([]entity.DisputeStateHistory, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, dispute_id, from_status, to_status, actor, reason, created_at
		FROM dispute_state_history WHERE dispute_id = $1 ORDER BY created_at, id`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("list dispute history: %w", err)
	}
	defer rows.Close()
	var list []entity.DisputeStateHistory
	for rows.Next() {
		var h entity.DisputeStateHistory
		if err := rows.Scan(&h.ID, &h.DisputeID, &h.From, &h.To, &h.Actor, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dispute history: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

func scanDispute(row pgx.Row) (*entity.WeightDispute, error) {
	var d entity.WeightDispute
	var disc, impact, resolution []byte
	var courierRef *string
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.ShipmentID, &d.TrackingID, &d.CarrierID, &d.Source,
		&disc, &impact, &d.Status, &d.Category, &d.Priority, &d.ObservationCount,
		&d.EvidenceCount,
		&d.SellerNotes, &courierRef, &d.SubmissionMethod, &d.SubmissionAttempts,
		&d.SubmissionClaimedAt, &d.SubmittedToCourierAt, &d.LastSubmissionError, &d.EscalationReason,
		&resolution, &d.AutoResolveAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if courierRef != nil {
		d.CourierReference = *courierRef
	}
	if err := fromJSON(disc, &d.Discrepancy); err != nil {
		return nil, err
	}
	if err := fromJSON(impact, &d.FinancialImpact); err != nil {
		return nil, err
	}
	if len(resolution) > 0 {
		d.Resolution = &entity.Resolution{}
		if err := fromJSON(resolution, d.Resolution); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo corridas versionadas y ledger de filas conciliadas.
type ReconciliationRepo struct {
	q Querier
}

func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

const runColumns = `id, carrier_id, billing_month, version, source_file, counts, report_refs, created_by, created_at`

func (r *ReconciliationRepo) NextVersion(ctx context.Context, carrierID, billingMonth string) (int, error) {
	var v int
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM invoice_reconciliation_runs
		WHERE carrier_id = $1 AND billing_month = $2`, carrierID, billingMonth).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next reconciliation version: %w", err)
	}
	return v, nil
}

func (r *ReconciliationRepo) CreateRun(ctx context.Context, run *entity.ReconciliationRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	counts, err := toJSON(run.Counts)
	if err != nil {
		return err
	}
	refs := run.ReportRefs
	if refs == nil {
		refs = map[string]string{}
	}
	refsJSON, err := toJSON(refs)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `INSERT INTO invoice_reconciliation_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.CarrierID, run.BillingMonth, run.Version, run.SourceFile, counts, refsJSON, run.CreatedBy, run.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: versión %d de %s/%s", domain.ErrDuplicate, run.Version, run.CarrierID, run.BillingMonth)
		}
		return fmt.Errorf("insert reconciliation run: %w", err)
	}
	return nil
}

func (r *ReconciliationRepo) GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error) {
	run, err := scanRun(r.q.QueryRow(ctx, `SELECT `+runColumns+` FROM invoice_reconciliation_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reconciliation run: %w", err)
	}
	return run, nil
}

// ListRuns filtros vacíos no restringen. Orden: mes y versión descendentes.
func (r *ReconciliationRepo) ListRuns(ctx context.Context, carrierID, billingMonth string) ([]*entity.ReconciliationRun, error) {
	rows, err := r.q.Query(ctx, `SELECT `+runColumns+` FROM invoice_reconciliation_runs
		WHERE ($1::text = '' OR carrier_id = $1) AND ($2::text = '' OR billing_month = $2)
		ORDER BY billing_month DESC, version DESC`, carrierID, billingMonth)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation runs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ReconciliationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reconciliation run: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

func (r *ReconciliationRepo) IsRowReconciled(ctx context.Context, carrierID, billingMonth, awb string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoice_reconciled_rows
		WHERE carrier_id = $1 AND billing_month = $2 AND awb = $3)`, carrierID, billingMonth, awb).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reconciled row: %w", err)
	}
	return exists, nil
}

func (r *ReconciliationRepo) MarkRowReconciled(ctx context.Context, carrierID, billingMonth, awb, shipmentID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoice_reconciled_rows (carrier_id, billing_month, awb, shipment_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (carrier_id, billing_month, awb) DO NOTHING`, carrierID, billingMonth, awb, shipmentID)
	if err != nil {
		return fmt.Errorf("mark reconciled row: %w", err)
	}
	return nil
}

func scanRun(row pgx.Row) (*entity.ReconciliationRun, error) {
	var run entity.ReconciliationRun
	var counts, refs []byte
	if err := row.Scan(&run.ID, &run.CarrierID, &run.BillingMonth, &run.Version, &run.SourceFile,
		&counts, &refs, &run.CreatedBy, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(counts, &run.Counts); err != nil {
		return nil, err
	}
	if err := fromJSON(refs, &run.ReportRefs); err != nil {
		return nil, err
	}
	return &run, nil
}

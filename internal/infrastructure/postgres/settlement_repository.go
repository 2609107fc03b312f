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

var _ repository.SettlementRepository = (*SettlementRepo)(nil)

// SettlementRepo implementación de SettlementRepository (usable con pool o tx).
type SettlementRepo struct {
	q Querier
}

func NewSettlementRepository(q Querier) *SettlementRepo {
	return &SettlementRepo{q: q}
}

const settlementColumns = `id, dispute_id, company_id, amount, direction, status, idempotency_key, reason,
	attempts, last_error, ledger_reference, applied_at, created_at, updated_at`

// Create devuelve domain.ErrDuplicate si la disputa ya tiene liquidación.
func (r *SettlementRepo) Create(ctx context.Context, s *entity.Settlement) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `INSERT INTO dispute_settlements (`+settlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.DisputeID, s.CompanyID, s.Amount, s.Direction, s.Status, s.IdempotencyKey, s.Reason,
		s.Attempts, s.LastError, s.LedgerReference, s.AppliedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: liquidación de la disputa %s", domain.ErrDuplicate, s.DisputeID)
		}
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (r *SettlementRepo) GetByDispute(ctx context.Context, disputeID string) (*entity.Settlement, error) {
	return r.getOne(ctx, `SELECT `+settlementColumns+` FROM dispute_settlements WHERE dispute_id = $1`, disputeID)
}

func (r *SettlementRepo) GetByDisputeForUpdate(ctx context.Context, disputeID string) (*entity.Settlement, error) {
	return r.getOne(ctx, `SELECT `+settlementColumns+` FROM dispute_settlements WHERE dispute_id = $1 FOR UPDATE`, disputeID)
}

func (r *SettlementRepo) getOne(ctx context.Context, query, disputeID string) (*entity.Settlement, error) {
	s, err := scanSettlement(r.q.QueryRow(ctx, query, disputeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	return s, nil
}

func (r *SettlementRepo) Update(ctx context.Context, s *entity.Settlement) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE dispute_settlements
		SET status = $2, attempts = $3, last_error = $4, ledger_reference = $5, applied_at = $6, updated_at = $7
		WHERE dispute_id = $1`,
		s.DisputeID, s.Status, s.Attempts, s.LastError, s.LedgerReference, s.AppliedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SettlementRepo) ListPending(ctx context.Context, limit int) ([]*entity.Settlement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+settlementColumns+` FROM dispute_settlements
		WHERE status = 'pending' ORDER BY created_at LIMIT $1`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending settlements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSettlement(row pgx.Row) (*entity.Settlement, error) {
	var s entity.Settlement
	err := row.Scan(
		&s.ID, &s.DisputeID, &s.CompanyID, &s.Amount, &s.Direction, &s.Status, &s.IdempotencyKey, &s.Reason,
		&s.Attempts, &s.LastError, &s.LedgerReference, &s.AppliedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var (
	_ repository.SettingsRepository        = (*SettingsRepo)(nil)
	_ repository.FraudAssessmentRepository = (*FraudAssessmentRepo)(nil)
	_ repository.ZoneOverrideRepository    = (*ZoneOverrideRepo)(nil)
)

// SettingsRepo configuración por empresa.
type SettingsRepo struct {
	q Querier
}

func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

func (r *SettingsRepo) Get(ctx context.Context, companyID string) (*entity.CompanyWeightSettings, error) {
	var s entity.CompanyWeightSettings
	err := r.q.QueryRow(ctx, `
		SELECT company_id, threshold_percent, high_value_amount, suspicious_fraud, fraud_score, flagged_at, updated_at
		FROM company_weight_settings WHERE company_id = $1`, companyID).Scan(
		&s.CompanyID, &s.ThresholdPercent, &s.HighValueAmount, &s.SuspiciousFraud, &s.FraudScore, &s.FlaggedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company settings: %w", err)
	}
	return &s, nil
}

// Upsert guarda umbrales; la marca de fraude solo cambia por SetFraudFlag.
func (r *SettingsRepo) Upsert(ctx context.Context, s *entity.CompanyWeightSettings) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_weight_settings (company_id, threshold_percent, high_value_amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id) DO UPDATE
		SET threshold_percent = EXCLUDED.threshold_percent,
		    high_value_amount = EXCLUDED.high_value_amount,
		    updated_at = EXCLUDED.updated_at`,
		s.CompanyID, s.ThresholdPercent, s.HighValueAmount, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company settings: %w", err)
	}
	return nil
}

func (r *SettingsRepo) SetFraudFlag(ctx context.Context, companyID string, flagged bool, score float64, at time.Time) error {
	var flaggedAt *time.Time
	if flagged {
		flaggedAt = &at
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_weight_settings (company_id, suspicious_fraud, fraud_score, flagged_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE
		SET suspicious_fraud = EXCLUDED.suspicious_fraud,
		    fraud_score = EXCLUDED.fraud_score,
		    flagged_at = EXCLUDED.flagged_at,
		    updated_at = EXCLUDED.updated_at`,
		companyID, flagged, score, flaggedAt, at,
	)
	if err != nil {
		return fmt.Errorf("set fraud flag: %w", err)
	}
	return nil
}

// FraudAssessmentRepo historial de análisis; las señales van en JSONB.
type FraudAssessmentRepo struct {
	q Querier
}

func NewFraudAssessmentRepository(q Querier) *FraudAssessmentRepo {
	return &FraudAssessmentRepo{q: q}
}

func (r *FraudAssessmentRepo) Create(ctx context.Context, a *entity.FraudAssessment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	signals, err := toJSON(a)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO fraud_assessments (id, company_id, score, suspicious, signals, window_start, window_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.CompanyID, a.Score, a.Suspicious, signals, a.WindowStart, a.WindowEnd, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud assessment: %w", err)
	}
	return nil
}

func (r *FraudAssessmentRepo) Latest(ctx context.Context, companyID string) (*entity.FraudAssessment, error) {
	var signals []byte
	err := r.q.QueryRow(ctx, `
		SELECT signals FROM fraud_assessments WHERE company_id = $1
		ORDER BY created_at DESC LIMIT 1`, companyID).Scan(&signals)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest fraud assessment: %w", err)
	}
	var a entity.FraudAssessment
	if err := fromJSON(signals, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ZoneOverrideRepo zonas fijadas manualmente.
type ZoneOverrideRepo struct {
	q Querier
}

func NewZoneOverrideRepository(q Querier) *ZoneOverrideRepo {
	return &ZoneOverrideRepo{q: q}
}

func (r *ZoneOverrideRepo) Get(ctx context.Context, origin, destination string) (entity.Zone, bool, error) {
	var zone string
	err := r.q.QueryRow(ctx, `SELECT zone FROM zone_overrides WHERE origin_pincode = $1 AND destination_pincode = $2`,
		origin, destination).Scan(&zone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get zone override: %w", err)
	}
	return entity.Zone(zone), true, nil
}

func (r *ZoneOverrideRepo) Upsert(ctx context.Context, origin, destination string, zone entity.Zone) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO zone_overrides (origin_pincode, destination_pincode, zone, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (origin_pincode, destination_pincode) DO UPDATE
		SET zone = EXCLUDED.zone, updated_at = now()`, origin, destination, string(zone))
	if err != nil {
		return fmt.Errorf("upsert zone override: %w", err)
	}
	return nil
}

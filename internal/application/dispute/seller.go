package dispute

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/evidence"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	rules "github.com/jhoicas/weight-dispute-api/internal/domain/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

// MaxEvidenceBytes tamaño máximo por archivo de evidencia.
const MaxEvidenceBytes = 25 << 20

var evidenceContentTypes = map[string]entity.EvidenceKind{
	"image/jpeg":      entity.EvidencePhoto,
	"image/png":       entity.EvidencePhoto,
	"video/mp4":       entity.EvidenceVideo,
	"video/quicktime": entity.EvidenceVideo,
	"application/pdf": entity.EvidenceDocument,
}

// EvidenceUpload archivo cargado por el vendedor, con los marcadores que declara.
type EvidenceUpload struct {
	Filename    string
	ContentType string
	Content     []byte
	CapturedAt  *time.Time
	HasScale    bool
	HasRuler    bool
	HasAWB      bool
}

var systemActor = Actor{UserID: ActorSystem, Staff: true}

// Accept el vendedor acepta el peso de la transportadora; se liquida de inmediato.
func (m *Manager) Accept(ctx context.Context, actor Actor, id string) (*entity.WeightDispute, error) {
	return m.resolve(ctx, actor, id, rules.SellerAccepted{}, "seller_accepted", "", nil)
}

// AddEvidence guarda el archivo, lo valida y lo asocia a la disputa. La validación no bloquea la carga.
func (m *Manager) AddEvidence(ctx context.Context, actor Actor, id string, up EvidenceUpload) (*entity.DisputeEvidence, error) {
	kind, err := checkUpload(up)
	if err != nil {
		return nil, err
	}
	d, err := m.Disputes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil || !actor.canAccess(d) {
		return nil, domain.ErrNotFound
	}
	if d.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: la disputa ya está cerrada (%s)", domain.ErrConflict, d.Status)
	}
	sh, err := m.Shipments.GetByID(ctx, d.ShipmentID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, domain.ErrNotFound
	}

	validation := m.Validator.Validate(ctx, evidence.Input{
		Kind:        kind,
		Content:     up.Content,
		ContentType: up.ContentType,
		TrackingID:  d.TrackingID,
		PackedAt:    sh.PackingTime(),
		Declared: ports.EvidenceMarkers{
			HasScale:   up.HasScale,
			HasRuler:   up.HasRuler,
			HasAWB:     up.HasAWB,
			CapturedAt: up.CapturedAt,
		},
	})

	now := m.now()
	ev := &entity.DisputeEvidence{
		ID:          uuid.New().String(),
		DisputeID:   d.ID,
		Kind:        kind,
		ContentType: up.ContentType,
		SizeBytes:   int64(len(up.Content)),
		CapturedAt:  up.CapturedAt,
		UploadedBy:  actor.id(),
		Validation:  validation,
		CreatedAt:   now,
	}
	ev.ObjectKey = fmt.Sprintf("evidence/%s/%s%s", d.ID, ev.ID, strings.ToLower(path.Ext(up.Filename)))
	if ev.URL, err = m.Store.Put(ctx, ev.ObjectKey, up.Content, up.ContentType); err != nil {
		return nil, fmt.Errorf("guardar evidencia: %w", err)
	}

	_, err = m.mutate(ctx, actor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
		if d.Status.IsTerminal() {
			return fmt.Errorf("%w: la disputa ya está cerrada (%s)", domain.ErrConflict, d.Status)
		}
		d.UpdatedAt = now
		return r.Disputes.AddEvidence(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	m.Log.Info().Str("dispute_id", id).Str("evidence_id", ev.ID).
		Bool("is_valid", validation.IsValid).Float64("quality", validation.QualityScore).
		Msg("evidencia registrada")
	return ev, nil
}

func checkUpload(up EvidenceUpload) (entity.EvidenceKind, error) {
	if len(up.Content) == 0 {
		return "", fmt.Errorf("%w: el archivo está vacío", domain.ErrInvalidInput)
	}
	if len(up.Content) > MaxEvidenceBytes {
		return "", fmt.Errorf("%w: el archivo supera los 25 MB", domain.ErrInvalidInput)
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(up.ContentType, ";")[0]))
	kind, ok := evidenceContentTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: tipo %q no admitido; use JPG, PNG, MP4, MOV o PDF", domain.ErrInvalidInput, up.ContentType)
	}
	return kind, nil
}

// Reject el vendedor rechaza el peso; requiere al menos una evidencia cargada.
// Con impacto alto y ninguna evidencia válida la disputa se escala; si no, se envía a la transportadora.
func (m *Manager) Reject(ctx context.Context, actor Actor, id, notes string) (*entity.WeightDispute, error) {
	d, err := m.mutate(ctx, actor, id, func(r repository.TxRepos, d *entity.WeightDispute) error {
		if err := rules.ValidateTransition(d.Status, entity.DisputeEvidenceSubmitted); err != nil {
			return err
		}
		evs, err := r.Disputes.ListEvidence(ctx, d.ID)
		if err != nil {
			return err
		}
		if len(evs) == 0 {
			return fmt.Errorf("%w: adjunte al menos una evidencia antes de rechazar el peso", domain.ErrInvalidInput)
		}
		d.SellerNotes = strings.TrimSpace(notes)
		if err := m.transition(ctx, r, d, entity.DisputeEvidenceSubmitted, actor.id(), "seller_rejected"); err != nil {
			return err
		}
		highValue, err := m.highValue(ctx, r, d.CompanyID)
		if err != nil {
			return err
		}
		if weakHighValue(d, evs, highValue) {
			return m.transition(ctx, r, d, entity.DisputeEscalated, ActorSystem, ReasonHighValueWeakEvidence)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch d.Status {
	case entity.DisputeEvidenceSubmitted:
		m.enqueueSubmission(d.ID)
	case entity.DisputeEscalated:
		m.Log.Warn().Str("dispute_id", d.ID).Str("reason", d.EscalationReason).Msg("disputa escalada a revisión manual")
		m.notify(d.CompanyID, "weight_dispute_escalated", disputeParams(d))
	}
	return d, nil
}

func (m *Manager) highValue(ctx context.Context, r repository.TxRepos, companyID string) (decimal.Decimal, error) {
	if r.Settings == nil {
		return m.cfg.HighValueAmount, nil
	}
	s, err := r.Settings.Get(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	if s != nil && s.HighValueAmount.IsPositive() {
		return s.HighValueAmount, nil
	}
	return m.cfg.HighValueAmount, nil
}

func weakHighValue(d *entity.WeightDispute, evs []entity.DisputeEvidence, highValue decimal.Decimal) bool {
	if !highValue.IsPositive() || d.FinancialImpact.Difference.Abs().LessThan(highValue) {
		return false
	}
	for _, e := range evs {
		if e.Validation.IsValid {
			return false
		}
	}
	return true
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var (
	_ repository.ShipmentRepository        = (*ShipmentRepo)(nil)
	_ repository.DisputeRepository         = (*DisputeRepo)(nil)
	_ repository.SettlementRepository      = (*SettlementRepo)(nil)
	_ repository.SKUWeightRepository       = (*SKUWeightRepo)(nil)
	_ repository.ReconciliationRepository  = (*ReconciliationRepo)(nil)
	_ repository.SettingsRepository        = (*SettingsRepo)(nil)
	_ repository.FraudAssessmentRepository = (*FraudRepo)(nil)
	_ repository.ZoneOverrideRepository    = (*ZoneOverrideRepo)(nil)
)

// ── Envíos ───────────────────────────────────────────────────────────────────

type ShipmentRepo struct {
	s  *Store
	tx bool
}

func (r *ShipmentRepo) Create(_ context.Context, sh *entity.Shipment) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.data.shipments[sh.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.s.data.byTracking[sh.TrackingID]; ok {
		return domain.ErrDuplicate
	}
	r.s.data.shipments[sh.ID] = cloneShipment(sh)
	r.s.data.byTracking[sh.TrackingID] = sh.ID
	return nil
}

func (r *ShipmentRepo) GetByID(_ context.Context, id string) (*entity.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneShipment(r.s.data.shipments[id]), nil
}

func (r *ShipmentRepo) GetByTrackingID(_ context.Context, trackingID string) (*entity.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.data.byTracking[trackingID]
	if !ok {
		return nil, nil
	}
	return cloneShipment(r.s.data.shipments[id]), nil
}

func (r *ShipmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Shipment, error) {
	return r.GetByID(ctx, id)
}

func (r *ShipmentRepo) UpdateWeights(_ context.Context, sh *entity.Shipment) error {
	defer r.s.lock(r.tx)()
	cur, ok := r.s.data.shipments[sh.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c := cloneShipment(sh)
	cur.Weights = c.Weights
	cur.WeightStatus = c.WeightStatus
	cur.UpdatedAt = c.UpdatedAt
	return nil
}

// ── Disputas ─────────────────────────────────────────────────────────────────

type DisputeRepo struct {
	s  *Store
	tx bool
}

func (r *DisputeRepo) out(d *entity.WeightDispute) *entity.WeightDispute {
	if d == nil {
		return nil
	}
	c := cloneDispute(d)
	c.EvidenceCount = len(r.s.data.evidence[d.ID])
	return c
}

func (r *DisputeRepo) openByShipment(shipmentID string) *entity.WeightDispute {
	for _, d := range r.s.data.disputes {
		if d.ShipmentID == shipmentID && !d.Status.IsTerminal() {
			return d
		}
	}
	return nil
}

func (r *DisputeRepo) Create(_ context.Context, d *entity.WeightDispute) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.data.disputes[d.ID]; ok {
		return domain.ErrDuplicate
	}
	if !d.Status.IsTerminal() && r.openByShipment(d.ShipmentID) != nil {
		return domain.ErrDuplicateDispute
	}
	r.s.data.disputes[d.ID] = cloneDispute(d)
	return nil
}

func (r *DisputeRepo) GetByID(_ context.Context, id string) (*entity.WeightDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.out(r.s.data.disputes[id]), nil
}

func (r *DisputeRepo) GetForUpdate(ctx context.Context, id string) (*entity.WeightDispute, error) {
	return r.GetByID(ctx, id)
}

func (r *DisputeRepo) GetOpenByShipment(_ context.Context, shipmentID string) (*entity.WeightDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.out(r.openByShipment(shipmentID)), nil
}

func (r *DisputeRepo) GetByCourierReference(_ context.Context, carrierID, reference string) (*entity.WeightDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.data.disputes {
		if d.CarrierID == carrierID && d.CourierReference == reference && reference != "" {
			return r.out(d), nil
		}
	}
	return nil, nil
}

func (r *DisputeRepo) HasAnyForShipment(_ context.Context, shipmentID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.data.disputes {
		if d.ShipmentID == shipmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *DisputeRepo) Update(_ context.Context, d *entity.WeightDispute) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.data.disputes[d.ID]; !ok {
		return domain.ErrNotFound
	}
	if !d.Status.IsTerminal() {
		if open := r.openByShipment(d.ShipmentID); open != nil && open.ID != d.ID {
			return domain.ErrDuplicateDispute
		}
	}
	r.s.data.disputes[d.ID] = cloneDispute(d)
	return nil
}

func (r *DisputeRepo) List(_ context.Context, f entity.DisputeFilter) ([]*entity.WeightDispute, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.WeightDispute
	for _, d := range r.s.data.disputes {
		if f.CompanyID != "" && d.CompanyID != f.CompanyID {
			continue
		}
		if f.CarrierID != "" && d.CarrierID != f.CarrierID {
			continue
		}
		if f.Priority != "" && d.Priority != f.Priority {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, d.Status) {
			continue
		}
		all = append(all, r.out(d))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return []*entity.WeightDispute{}, total, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func containsStatus(list []entity.DisputeStatus, s entity.DisputeStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (r *DisputeRepo) ListDueForAutoResolve(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var due []*entity.WeightDispute
	for _, d := range r.s.data.disputes {
		if d.Status == entity.DisputePending && !d.AutoResolveAt.After(now) {
			due = append(due, d)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].AutoResolveAt.Before(due[j].AutoResolveAt) })
	return limitIDs(due, limit), nil
}

func (r *DisputeRepo) ListStuckSubmissions(_ context.Context, claimedBefore time.Time, limit int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var stuck []*entity.WeightDispute
	for _, d := range r.s.data.disputes {
		if d.Status != entity.DisputeEvidenceSubmitted {
			continue
		}
		ref := d.UpdatedAt
		if d.SubmissionClaimedAt != nil {
			ref = *d.SubmissionClaimedAt
		}
		if ref.Before(claimedBefore) {
			stuck = append(stuck, d)
		}
	}
	sort.Slice(stuck, func(i, j int) bool { return stuck[i].UpdatedAt.Before(stuck[j].UpdatedAt) })
	return limitIDs(stuck, limit), nil
}

func limitIDs(list []*entity.WeightDispute, limit int) []string {
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	return ids
}

func (r *DisputeRepo) ListByCompanySince(_ context.Context, companyID string, since time.Time) ([]*entity.WeightDispute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.WeightDispute
	for _, d := range r.s.data.disputes {
		if d.CompanyID == companyID && !d.CreatedAt.Before(since) {
			out = append(out, r.out(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *DisputeRepo) ListCompaniesWithDisputesSince(_ context.Context, since time.Time) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range r.s.data.disputes {
		if !d.CreatedAt.Before(since) && !seen[d.CompanyID] {
			seen[d.CompanyID] = true
			out = append(out, d.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *DisputeRepo) ListOpenIDsByCompany(_ context.Context, companyID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.WeightDispute
	for _, d := range r.s.data.disputes {
		if d.CompanyID == companyID && !d.Status.IsTerminal() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return limitIDs(out, 0), nil
}

func (r *DisputeRepo) AddEvidence(_ context.Context, e *entity.DisputeEvidence) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.data.disputes[e.DisputeID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.evidence[e.DisputeID] = append(r.s.data.evidence[e.DisputeID], *e)
	return nil
}

func (r *DisputeRepo) ListEvidence(_ context.Context, disputeID string) ([]entity.DisputeEvidence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]entity.DisputeEvidence(nil), r.s.data.evidence[disputeID]...), nil
}

func (r *DisputeRepo) AddHistory(_ context.Context, h entity.DisputeStateHistory) error {
	defer r.s.lock(r.tx)()
	r.s.data.history[h.DisputeID] = append(r.s.data.history[h.DisputeID], h)
	return nil
}

func (r *DisputeRepo) ListHistory(_ context.Context, disputeID string) ([]entity.DisputeStateHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]entity.DisputeStateHistory(nil), r.s.data.history[disputeID]...), nil
}

// ── Liquidaciones ────────────────────────────────────────────────────────────

type SettlementRepo struct {
	s  *Store
	tx bool
}

func (r *SettlementRepo) Create(_ context.Context, st *entity.Settlement) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.data.settlements[st.DisputeID]; ok {
		return domain.ErrDuplicate
	}
	r.s.data.settlements[st.DisputeID] = cloneSettlement(st)
	return nil
}

func (r *SettlementRepo) GetByDispute(_ context.Context, disputeID string) (*entity.Settlement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneSettlement(r.s.data.settlements[disputeID]), nil
}

func (r *SettlementRepo) GetByDisputeForUpdate(ctx context.Context, disputeID string) (*entity.Settlement, error) {
	return r.GetByDispute(ctx, disputeID)
}

func (r *SettlementRepo) Update(_ context.Context, st *entity.Settlement) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.data.settlements[st.DisputeID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.settlements[st.DisputeID] = cloneSettlement(st)
	return nil
}

func (r *SettlementRepo) ListPending(_ context.Context, limit int) ([]*entity.Settlement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Settlement
	for _, st := range r.s.data.settlements {
		if st.Status == entity.SettlementPending {
			out = append(out, cloneSettlement(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── SKU ──────────────────────────────────────────────────────────────────────

type SKUWeightRepo struct {
	s  *Store
	tx bool
}

func skuKey(companyID, sku string) string { return companyID + "|" + sku }

func (r *SKUWeightRepo) Get(_ context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneSKU(r.s.data.skus[skuKey(companyID, sku)]), nil
}

func (r *SKUWeightRepo) GetForUpdate(ctx context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	return r.Get(ctx, companyID, sku)
}

func (r *SKUWeightRepo) Upsert(_ context.Context, m *entity.SKUWeightMaster) error {
	defer r.s.lock(r.tx)()
	r.s.data.skus[skuKey(m.CompanyID, m.SKU)] = cloneSKU(m)
	return nil
}

// ── Conciliación ─────────────────────────────────────────────────────────────

type ReconciliationRepo struct {
	s  *Store
	tx bool
}

func (r *ReconciliationRepo) NextVersion(_ context.Context, carrierID, billingMonth string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	max := 0
	for _, run := range r.s.data.runs {
		if run.CarrierID == carrierID && run.BillingMonth == billingMonth && run.Version > max {
			max = run.Version
		}
	}
	return max + 1, nil
}

func (r *ReconciliationRepo) CreateRun(_ context.Context, run *entity.ReconciliationRun) error {
	defer r.s.lock(r.tx)()
	for _, existing := range r.s.data.runs {
		if existing.CarrierID == run.CarrierID && existing.BillingMonth == run.BillingMonth && existing.Version == run.Version {
			return domain.ErrDuplicate
		}
	}
	r.s.data.runs[run.ID] = cloneRun(run)
	return nil
}

func (r *ReconciliationRepo) GetRun(_ context.Context, id string) (*entity.ReconciliationRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneRun(r.s.data.runs[id]), nil
}

func (r *ReconciliationRepo) ListRuns(_ context.Context, carrierID, billingMonth string) ([]*entity.ReconciliationRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.ReconciliationRun
	for _, run := range r.s.data.runs {
		if (carrierID == "" || run.CarrierID == carrierID) && (billingMonth == "" || run.BillingMonth == billingMonth) {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BillingMonth != out[j].BillingMonth {
			return out[i].BillingMonth > out[j].BillingMonth
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

func rowKey(carrierID, billingMonth, awb string) string {
	return fmt.Sprintf("%s|%s|%s", carrierID, billingMonth, awb)
}

func (r *ReconciliationRepo) IsRowReconciled(_ context.Context, carrierID, billingMonth, awb string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.data.reconciledRows[rowKey(carrierID, billingMonth, awb)]
	return ok, nil
}

func (r *ReconciliationRepo) MarkRowReconciled(_ context.Context, carrierID, billingMonth, awb, shipmentID string) error {
	defer r.s.lock(r.tx)()
	key := rowKey(carrierID, billingMonth, awb)
	if _, ok := r.s.data.reconciledRows[key]; !ok {
		r.s.data.reconciledRows[key] = shipmentID
	}
	return nil
}

// ── Configuración, fraude y zonas ────────────────────────────────────────────

type SettingsRepo struct {
	s  *Store
	tx bool
}

func (r *SettingsRepo) Get(_ context.Context, companyID string) (*entity.CompanyWeightSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.data.settings[companyID]
	if !ok {
		return nil, nil
	}
	c := *v
	return &c, nil
}

func (r *SettingsRepo) Upsert(_ context.Context, st *entity.CompanyWeightSettings) error {
	defer r.s.lock(r.tx)()
	c := *st
	r.s.data.settings[st.CompanyID] = &c
	return nil
}

func (r *SettingsRepo) SetFraudFlag(_ context.Context, companyID string, flagged bool, score float64, at time.Time) error {
	defer r.s.lock(r.tx)()
	v, ok := r.s.data.settings[companyID]
	if !ok {
		v = &entity.CompanyWeightSettings{CompanyID: companyID}
		r.s.data.settings[companyID] = v
	}
	v.SuspiciousFraud = flagged
	v.FraudScore = score
	v.UpdatedAt = at
	if flagged {
		t := at
		v.FlaggedAt = &t
	} else {
		v.FlaggedAt = nil
	}
	return nil
}

type FraudRepo struct {
	s  *Store
	tx bool
}

func (r *FraudRepo) Create(_ context.Context, a *entity.FraudAssessment) error {
	defer r.s.lock(r.tx)()
	c := *a
	r.s.data.assessments[a.CompanyID] = append(r.s.data.assessments[a.CompanyID], &c)
	return nil
}

func (r *FraudRepo) Latest(_ context.Context, companyID string) (*entity.FraudAssessment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := r.s.data.assessments[companyID]
	if len(list) == 0 {
		return nil, nil
	}
	c := *list[len(list)-1]
	return &c, nil
}

type ZoneOverrideRepo struct {
	s  *Store
	tx bool
}

func (r *ZoneOverrideRepo) Get(_ context.Context, origin, destination string) (entity.Zone, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	z, ok := r.s.data.zones[origin+"|"+destination]
	return z, ok, nil
}

func (r *ZoneOverrideRepo) Upsert(_ context.Context, origin, destination string, zone entity.Zone) error {
	defer r.s.lock(r.tx)()
	r.s.data.zones[origin+"|"+destination] = zone
	return nil
}

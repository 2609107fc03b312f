// Package memory implementa los repositorios en memoria (DB_DRIVER=memory y pruebas).
// Las transacciones se serializan y se revierten restaurando una copia del estado.
// Las escrituras fuera de una transacción esperan a que termine la vigente, así un
// rollback nunca descarta lo que otra goroutine escribió mientras tanto.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// Store estado completo en memoria.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
}

type state struct {
	shipments      map[string]*entity.Shipment
	byTracking     map[string]string
	disputes       map[string]*entity.WeightDispute
	evidence       map[string][]entity.DisputeEvidence
	history        map[string][]entity.DisputeStateHistory
	settlements    map[string]*entity.Settlement
	skus           map[string]*entity.SKUWeightMaster
	runs           map[string]*entity.ReconciliationRun
	reconciledRows map[string]string
	settings       map[string]*entity.CompanyWeightSettings
	assessments    map[string][]*entity.FraudAssessment
	zones          map[string]entity.Zone
}

func newState() state {
	return state{
		shipments:      map[string]*entity.Shipment{},
		byTracking:     map[string]string{},
		disputes:       map[string]*entity.WeightDispute{},
		evidence:       map[string][]entity.DisputeEvidence{},
		history:        map[string][]entity.DisputeStateHistory{},
		settlements:    map[string]*entity.Settlement{},
		skus:           map[string]*entity.SKUWeightMaster{},
		runs:           map[string]*entity.ReconciliationRun{},
		reconciledRows: map[string]string{},
		settings:       map[string]*entity.CompanyWeightSettings{},
		assessments:    map[string][]*entity.FraudAssessment{},
		zones:          map[string]entity.Zone{},
	}
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repos devuelve todos los repositorios del almacén.
func (s *Store) Repos() repository.TxRepos {
	return s.repos(false)
}

func (s *Store) repos(tx bool) repository.TxRepos {
	return repository.TxRepos{
		Shipments:       &ShipmentRepo{s: s, tx: tx},
		Disputes:        &DisputeRepo{s: s, tx: tx},
		Settlements:     &SettlementRepo{s: s, tx: tx},
		SKUWeights:      &SKUWeightRepo{s: s, tx: tx},
		Reconciliations: &ReconciliationRepo{s: s, tx: tx},
		Settings:        &SettingsRepo{s: s, tx: tx},
	}
}

// lock bloqueo de escritura. Dentro de una transacción txMu ya está tomado por Run.
func (s *Store) lock(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

func (s *Store) Shipments() *ShipmentRepo             { return &ShipmentRepo{s: s} }
func (s *Store) Disputes() *DisputeRepo               { return &DisputeRepo{s: s} }
func (s *Store) Settlements() *SettlementRepo         { return &SettlementRepo{s: s} }
func (s *Store) SKUWeights() *SKUWeightRepo           { return &SKUWeightRepo{s: s} }
func (s *Store) Reconciliations() *ReconciliationRepo { return &ReconciliationRepo{s: s} }
func (s *Store) Settings() *SettingsRepo              { return &SettingsRepo{s: s} }
func (s *Store) FraudAssessments() *FraudRepo         { return &FraudRepo{s: s} }
func (s *Store) ZoneOverrides() *ZoneOverrideRepo     { return &ZoneOverrideRepo{s: s} }

// Run ejecuta fn de forma serializada; si fn falla, el estado vuelve al previo.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (st state) clone() state {
	out := newState()
	for k, v := range st.shipments {
		out.shipments[k] = cloneShipment(v)
	}
	for k, v := range st.byTracking {
		out.byTracking[k] = v
	}
	for k, v := range st.disputes {
		out.disputes[k] = cloneDispute(v)
	}
	for k, v := range st.evidence {
		out.evidence[k] = append([]entity.DisputeEvidence(nil), v...)
	}
	for k, v := range st.history {
		out.history[k] = append([]entity.DisputeStateHistory(nil), v...)
	}
	for k, v := range st.settlements {
		out.settlements[k] = cloneSettlement(v)
	}
	for k, v := range st.skus {
		out.skus[k] = cloneSKU(v)
	}
	for k, v := range st.runs {
		out.runs[k] = cloneRun(v)
	}
	for k, v := range st.reconciledRows {
		out.reconciledRows[k] = v
	}
	for k, v := range st.settings {
		c := *v
		out.settings[k] = &c
	}
	for k, v := range st.assessments {
		out.assessments[k] = append([]*entity.FraudAssessment(nil), v...)
	}
	for k, v := range st.zones {
		out.zones[k] = v
	}
	return out
}

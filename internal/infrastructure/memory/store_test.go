package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

func TestStore_RunRollbackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Run(ctx, func(r repository.TxRepos) error {
		require.NoError(t, r.Disputes.Create(ctx, &entity.WeightDispute{ID: "d1", ShipmentID: "s1", Status: entity.DisputePending}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Disputes().GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_RollbackConservaEscriturasConcurrentes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.Run(ctx, func(r repository.TxRepos) error {
			if err := r.Disputes.Create(ctx, &entity.WeightDispute{ID: "d1", ShipmentID: "s1", Status: entity.DisputePending}); err != nil {
				return err
			}
			close(inTx)
			<-release
			return boom
		})
	}()
	<-inTx

	writes := make(chan error, 3)
	go func() {
		writes <- s.Reconciliations().MarkRowReconciled(ctx, "velocity", "2024-05", "AWB1", "s9")
	}()
	go func() {
		writes <- s.FraudAssessments().Create(ctx, &entity.FraudAssessment{CompanyID: "c1", Score: 0.9})
	}()
	go func() {
		writes <- s.Settings().SetFraudFlag(ctx, "c1", true, 0.9, time.Now())
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.ErrorIs(t, <-txDone, boom)
	for i := 0; i < 3; i++ {
		require.NoError(t, <-writes)
	}

	ok, err := s.Reconciliations().IsRowReconciled(ctx, "velocity", "2024-05", "AWB1")
	require.NoError(t, err)
	assert.True(t, ok)
	st, err := s.Settings().Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.SuspiciousFraud)
	d, _ := s.Disputes().GetByID(ctx, "d1")
	assert.Nil(t, d)
}

func TestDisputeRepo_UnaAbiertaPorEnvio(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Disputes()

	require.NoError(t, repo.Create(ctx, &entity.WeightDispute{ID: "d1", ShipmentID: "s1", Status: entity.DisputePending}))
	err := repo.Create(ctx, &entity.WeightDispute{ID: "d2", ShipmentID: "s1", Status: entity.DisputePending})
	assert.ErrorIs(t, err, domain.ErrDuplicateDispute)

	d, _ := repo.GetByID(ctx, "d1")
	d.Status = entity.DisputeAccepted
	require.NoError(t, repo.Update(ctx, d))
	assert.NoError(t, repo.Create(ctx, &entity.WeightDispute{ID: "d2", ShipmentID: "s1", Status: entity.DisputePending}))
}

func TestDisputeRepo_DevuelveCopias(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Disputes().Create(ctx, &entity.WeightDispute{ID: "d1", ShipmentID: "s1", Status: entity.DisputePending}))

	d, _ := s.Disputes().GetByID(ctx, "d1")
	d.Status = entity.DisputeWithdrawn

	again, _ := s.Disputes().GetByID(ctx, "d1")
	assert.Equal(t, entity.DisputePending, again.Status)
}

func TestDisputeRepo_ListDueForAutoResolve(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	repo := s.Disputes()
	require.NoError(t, repo.Create(ctx, &entity.WeightDispute{ID: "vencida", ShipmentID: "s1", Status: entity.DisputePending, AutoResolveAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &entity.WeightDispute{ID: "vigente", ShipmentID: "s2", Status: entity.DisputePending, AutoResolveAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &entity.WeightDispute{ID: "con_evidencia", ShipmentID: "s3", Status: entity.DisputeEvidenceSubmitted, AutoResolveAt: now.Add(-time.Hour)}))

	ids, err := repo.ListDueForAutoResolve(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"vencida"}, ids)
}

func TestReconciliationRepo_Versionado(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Reconciliations()

	v, _ := repo.NextVersion(ctx, "velocity", "2024-05")
	assert.Equal(t, 1, v)
	require.NoError(t, repo.CreateRun(ctx, &entity.ReconciliationRun{ID: "r1", CarrierID: "velocity", BillingMonth: "2024-05", Version: 1}))
	assert.ErrorIs(t, repo.CreateRun(ctx, &entity.ReconciliationRun{ID: "r2", CarrierID: "velocity", BillingMonth: "2024-05", Version: 1}), domain.ErrDuplicate)

	v, _ = repo.NextVersion(ctx, "velocity", "2024-05")
	assert.Equal(t, 2, v)
}

func TestLocker_ExclusionYTimeout(t *testing.T) {
	l := NewLocker()
	unlock, err := l.Lock(context.Background(), "shipment:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "shipment:1")
	assert.ErrorIs(t, err, domain.ErrLockNotObtained)

	unlock()
	unlock2, err := l.Lock(context.Background(), "shipment:1")
	require.NoError(t, err)
	unlock2()
}

func TestZoneCache_Vencimiento(t *testing.T) {
	c := NewZoneCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "110001|400001", entity.ZoneC, time.Hour))
	z, ok, _ := c.Get(ctx, "110001|400001")
	assert.True(t, ok)
	assert.Equal(t, entity.ZoneC, z)

	now = now.Add(2 * time.Hour)
	_, ok, _ = c.Get(ctx, "110001|400001")
	assert.False(t, ok)
}

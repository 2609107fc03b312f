package reconciliation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/application/settings"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/memory"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/misfile"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/report"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

var now = time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC)

type flatImpact struct{}

func (flatImpact) Impact(_ context.Context, _ *entity.Shipment, declaredKg, reportedKg float64, _ *weight.Dimensions) (entity.FinancialImpact, error) {
	declared := decimal.NewFromFloat(declaredKg * 50)
	actual := decimal.NewFromFloat(reportedKg * 50)
	return entity.FinancialImpact{
		DeclaredCost: declared, ActualCost: actual, Difference: actual.Sub(declared),
		Currency: "INR", Method: entity.MethodRatecard,
	}, nil
}

type recordingOpener struct {
	mu     sync.Mutex
	inputs []dispute.OpenInput
	after  []string
}

func (o *recordingOpener) OpenInTx(ctx context.Context, r repository.TxRepos, in dispute.OpenInput) (*entity.WeightDispute, error) {
	d := &entity.WeightDispute{
		ID: uuid.New().String(), CompanyID: in.Shipment.CompanyID, ShipmentID: in.Shipment.ID,
		TrackingID: in.Shipment.TrackingID, CarrierID: in.Shipment.CarrierID, Source: in.Source,
		Discrepancy: in.Discrepancy, FinancialImpact: in.Impact, Status: entity.DisputePending,
		Category: in.Category, Priority: in.Priority, CreatedAt: now, UpdatedAt: now,
	}
	if err := r.Disputes.Create(ctx, d); err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.inputs = append(o.inputs, in)
	o.mu.Unlock()
	return d, nil
}

func (o *recordingOpener) AfterOpen(d *entity.WeightDispute) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.after = append(o.after, d.ID)
}

type fixture struct {
	rc      *Reconciler
	store   *memory.Store
	objects *memory.ObjectStore
	opener  *recordingOpener
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()
	f := &fixture{store: store, objects: memory.NewObjectStore(), opener: &recordingOpener{}}
	f.rc = NewReconciler(Deps{
		Tx:              store,
		Shipments:       store.Shipments(),
		Disputes:        store.Disputes(),
		Reconciliations: store.Reconciliations(),
		Locker:          memory.NewLocker(),
		Parser:          misfile.NewParser(),
		Store:           f.objects,
		Renderers:       []ports.ReportRenderer{report.NewJSONRenderer()},
		Settings:        settings.NewService(store.Settings(), settings.Defaults{ThresholdPercent: 5, HighValueAmount: decimal.NewFromInt(500)}, log),
		Impact:          flatImpact{},
		Opener:          f.opener,
		LeadDays:        7,
		Log:             log,
	})
	f.rc.now = func() time.Time { return now }
	return f
}

func (f *fixture) shipment(t *testing.T, id, awb string, declaredKg float64, created time.Time) {
	t.Helper()
	rec, err := entity.NewWeightRecord(entity.WeightObservation{Stage: entity.StageDeclared, ValueKg: declaredKg, ObservedAt: created})
	require.NoError(t, err)
	require.NoError(t, f.store.Shipments().Create(context.Background(), &entity.Shipment{
		ID: id, CompanyID: "c1", TrackingID: awb, CarrierID: "delhivery",
		Weights: rec, WeightStatus: entity.WeightPending, CreatedAt: created,
	}))
}

const misCSV = "AWB No,Charged Weight,Amount\n" +
	"AWB1,1.02,51\n" +
	"AWB2,2.0,100\n" +
	"AWB9,1.0,50\n" +
	"AWB3,abc,50\n"

func TestRun_ConciliaYCreaDisputas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	f.shipment(t, "s1", "AWB1", 1.0, june)
	f.shipment(t, "s2", "AWB2", 1.0, june)

	rep, err := f.rc.Run(ctx, Input{CarrierID: " Delhivery ", BillingMonth: "2024-06", Filename: "mis.csv", Content: []byte(misCSV), CreatedBy: "ops"})
	require.NoError(t, err)

	c := rep.Run.Counts
	assert.Equal(t, 4, c.TotalRows)
	assert.Equal(t, 1, c.Matched)
	assert.Equal(t, 1, c.Discrepant)
	assert.Equal(t, 1, c.DisputesCreated)
	assert.Equal(t, 1, c.Unmatched)
	assert.Equal(t, 1, c.InvalidRows)
	assert.Equal(t, "delhivery", rep.Run.CarrierID)
	assert.Equal(t, 1, rep.Run.Version)

	require.Len(t, f.opener.inputs, 1)
	in := f.opener.inputs[0]
	assert.Equal(t, entity.DisputeSourceCourierInvoice, in.Source)
	assert.Equal(t, entity.CategoryInvoiceDiscrepancy, in.Category)
	assert.Equal(t, 100.0, in.Discrepancy.Percentage)
	assert.Equal(t, entity.PriorityLow, in.Priority)
	assert.Len(t, f.opener.after, 1)

	sh, err := f.store.Shipments().GetByID(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, entity.WeightDisputed, sh.WeightStatus)
	scanned, ok := sh.Weights.Latest(entity.StageScanned)
	require.True(t, ok)
	assert.Equal(t, 2.0, scanned.ValueKg)
	assert.Equal(t, entity.SourceInvoice, scanned.Source)

	data, contentType, err := f.rc.Report(ctx, rep.Run.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	var stored entity.ReconciliationReport
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Len(t, stored.Lines, 4)
	assert.Equal(t, rep.Run.ID, stored.Run.ID)
}

func TestRun_PrioridadPorImpacto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	f.shipment(t, "s-low", "AWB-L", 1.0, june)
	f.shipment(t, "s-med", "AWB-M", 1.0, june)
	f.shipment(t, "s-high", "AWB-H", 1.0, june)

	// flatImpact cobra 50 por kg; alto valor = 500, media desde 125.
	csv := "AWB No,Charged Weight,Amount\n" +
		"AWB-L,2.0,100\n" +
		"AWB-M,5.0,250\n" +
		"AWB-H,12.0,600\n"
	_, err := f.rc.Run(ctx, Input{CarrierID: "delhivery", BillingMonth: "2024-06", Content: []byte(csv)})
	require.NoError(t, err)

	require.Len(t, f.opener.inputs, 3)
	got := map[string]entity.DisputePriority{}
	for _, in := range f.opener.inputs {
		got[in.Shipment.TrackingID] = in.Priority
	}
	assert.Equal(t, entity.PriorityLow, got["AWB-L"])
	assert.Equal(t, entity.PriorityMedium, got["AWB-M"])
	assert.Equal(t, entity.PriorityHigh, got["AWB-H"])
}

type keyLocker struct {
	name string
	mu   *sync.Mutex
	keys *[]string
}

func (l keyLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	*l.keys = append(*l.keys, l.name+"|"+key)
	l.mu.Unlock()
	return func() {}, nil
}

func TestRun_BloqueoDelLoteUsaRunLocker(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	var keys []string
	f.rc.Locker = keyLocker{name: "envio", mu: &mu, keys: &keys}
	f.rc.RunLocker = keyLocker{name: "lote", mu: &mu, keys: &keys}
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	f.shipment(t, "s2", "AWB2", 1.0, june)

	_, err := f.rc.Run(context.Background(), Input{CarrierID: "delhivery", BillingMonth: "2024-06", Content: []byte(misCSV)})
	require.NoError(t, err)

	require.NotEmpty(t, keys)
	assert.Equal(t, "lote|reconciliation:delhivery:2024-06", keys[0])
	for _, k := range keys[1:] {
		assert.Equal(t, "envio|shipment:s2", k)
	}
}

func TestNewReconciler_RunLockerPorDefecto(t *testing.T) {
	l := memory.NewLocker()
	rc := NewReconciler(Deps{Locker: l})
	assert.Same(t, l, rc.RunLocker)
}

func TestRun_SegundaVersionNoDuplica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	f.shipment(t, "s1", "AWB1", 1.0, june)
	f.shipment(t, "s2", "AWB2", 1.0, june)
	in := Input{CarrierID: "delhivery", BillingMonth: "2024-06", Filename: "mis.csv", Content: []byte(misCSV)}

	first, err := f.rc.Run(ctx, in)
	require.NoError(t, err)
	second, err := f.rc.Run(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Run.Version)
	assert.Equal(t, 2, second.Run.Counts.AlreadyReconciled)
	assert.Zero(t, second.Run.Counts.DisputesCreated)
	assert.Len(t, f.opener.inputs, 1)

	runs, err := f.rc.ListRuns(ctx, "DELHIVERY", "2024-06")
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	again, err := f.rc.GetRun(ctx, first.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Version)
}

func TestRun_VentanaDeFacturacion(t *testing.T) {
	f := newFixture(t)
	f.shipment(t, "s-lead", "AWB1", 1.0, time.Date(2024, 5, 28, 0, 0, 0, 0, time.UTC))
	f.shipment(t, "s-old", "AWB2", 1.0, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	rep, err := f.rc.Run(context.Background(), Input{CarrierID: "delhivery", BillingMonth: "2024-06", Content: []byte(misCSV)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Run.Counts.Matched)
	assert.Equal(t, 2, rep.Run.Counts.Unmatched)
	assert.Empty(t, f.opener.inputs)
}

func TestRun_EnvioYaDisputado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shipment(t, "s2", "AWB2", 1.0, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.store.Disputes().Create(ctx, &entity.WeightDispute{
		ID: "old", CompanyID: "c1", ShipmentID: "s2", Status: entity.DisputeResolvedAgainst, CreatedAt: now,
	}))

	rep, err := f.rc.Run(ctx, Input{CarrierID: "delhivery", BillingMonth: "2024-06", Content: []byte("awb,weight,amount\nAWB2,2,100\n")})
	require.NoError(t, err)
	require.Len(t, rep.Lines, 1)
	assert.Equal(t, entity.LineAlreadyDisputed, rep.Lines[0].Outcome)
	assert.Equal(t, 1, rep.Run.Counts.AlreadyDisputed)
	assert.Empty(t, f.opener.inputs)
}

func TestRun_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rc.Run(ctx, Input{CarrierID: "delhivery", BillingMonth: "06/2024", Content: []byte(misCSV)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.rc.Run(ctx, Input{BillingMonth: "2024-06", Content: []byte(misCSV)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.rc.Run(ctx, Input{CarrierID: "delhivery", BillingMonth: "2024-06"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReport_FormatoNoDisponible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep, err := f.rc.Run(ctx, Input{CarrierID: "delhivery", BillingMonth: "2024-06", Content: []byte(misCSV)})
	require.NoError(t, err)

	_, _, err = f.rc.Report(ctx, rep.Run.ID, "pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.rc.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWindow(t *testing.T) {
	from, to, err := Window("2024-03", 5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

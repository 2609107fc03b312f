package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/application/detection"
	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/dto"
	"github.com/jhoicas/weight-dispute-api/internal/application/pricing"
	"github.com/jhoicas/weight-dispute-api/internal/application/reconciliation"
	"github.com/jhoicas/weight-dispute-api/internal/application/settings"
	"github.com/jhoicas/weight-dispute-api/internal/application/shipment"
	"github.com/jhoicas/weight-dispute-api/internal/application/skuweight"
	"github.com/jhoicas/weight-dispute-api/internal/application/webhook"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	apphttp "github.com/jhoicas/weight-dispute-api/internal/interfaces/http"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type fakeProcessor struct {
	results map[string]error
	seen    []entity.CarrierObservation
}

func (f *fakeProcessor) Process(_ context.Context, obs entity.CarrierObservation) (*detection.Result, error) {
	f.seen = append(f.seen, obs)
	if err := f.results[obs.TrackingID]; err != nil {
		return nil, err
	}
	return &detection.Result{
		TrackingID:  obs.TrackingID,
		ShipmentID:  "sh-" + obs.TrackingID,
		Outcome:     detection.OutcomeDisputeOpened,
		DisputeID:   "d-" + obs.TrackingID,
		Discrepancy: entity.Discrepancy{Percentage: 50},
	}, nil
}

type fakeDisputes struct {
	actor    dispute.Actor
	filter   entity.DisputeFilter
	review   dispute.ReviewInput
	upload   dispute.EvidenceUpload
	response dispute.CarrierResponse
	err      error
}

func (f *fakeDisputes) disputeFor(id string) *entity.WeightDispute {
	return &entity.WeightDispute{ID: id, CompanyID: testCompanyID, Status: entity.DisputePending, TrackingID: "AWB1"}
}

func (f *fakeDisputes) Get(_ context.Context, actor dispute.Actor, id string) (*dispute.Details, error) {
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &dispute.Details{
		Dispute: f.disputeFor(id),
		History: []entity.DisputeStateHistory{{To: entity.DisputePending, Actor: "system", Reason: "threshold_exceeded"}},
	}, nil
}

func (f *fakeDisputes) List(_ context.Context, actor dispute.Actor, fl entity.DisputeFilter) ([]*entity.WeightDispute, int, error) {
	f.actor, f.filter = actor, fl
	return []*entity.WeightDispute{f.disputeFor("d1"), f.disputeFor("d2")}, 7, f.err
}

func (f *fakeDisputes) Accept(_ context.Context, actor dispute.Actor, id string) (*entity.WeightDispute, error) {
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	d := f.disputeFor(id)
	d.Status = entity.DisputeAccepted
	return d, nil
}

func (f *fakeDisputes) Reject(_ context.Context, actor dispute.Actor, id, _ string) (*entity.WeightDispute, error) {
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return f.disputeFor(id), nil
}

func (f *fakeDisputes) AddEvidence(_ context.Context, actor dispute.Actor, id string, up dispute.EvidenceUpload) (*entity.DisputeEvidence, error) {
	f.actor, f.upload = actor, up
	if f.err != nil {
		return nil, f.err
	}
	return &entity.DisputeEvidence{
		ID: "ev1", DisputeID: id, Kind: entity.EvidencePhoto, ContentType: up.ContentType, SizeBytes: int64(len(up.Content)),
		Validation: entity.EvidenceValidation{HasScale: up.HasScale, Suggestions: []string{"Incluya una regla"}},
	}, nil
}

func (f *fakeDisputes) Review(_ context.Context, actor dispute.Actor, id string, in dispute.ReviewInput) (*entity.WeightDispute, error) {
	f.actor, f.review = actor, in
	if f.err != nil {
		return nil, f.err
	}
	d := f.disputeFor(id)
	d.Status = entity.DisputePartial
	return d, nil
}

func (f *fakeDisputes) ApplyCarrierResponse(_ context.Context, resp dispute.CarrierResponse) (*entity.WeightDispute, error) {
	f.response = resp
	if f.err != nil {
		return nil, f.err
	}
	d := f.disputeFor("d1")
	d.CourierReference = resp.Reference
	return d, nil
}

type fakeSKUs struct {
	company    string
	freeze     skuweight.FreezeInput
	suggestion *skuweight.Suggestion
}

func (f *fakeSKUs) Get(_ context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	f.company = companyID
	return nil, fmt.Errorf("%w: sku %s", domain.ErrNotFound, sku)
}

func (f *fakeSKUs) Freeze(_ context.Context, companyID, sku string, in skuweight.FreezeInput) (*entity.SKUWeightMaster, error) {
	f.company, f.freeze = companyID, in
	return &entity.SKUWeightMaster{CompanyID: companyID, SKU: sku, Status: entity.SKULearning,
		Freeze: &entity.WeightFreeze{Enabled: true, WeightKg: in.WeightKg}}, nil
}

func (f *fakeSKUs) Unfreeze(_ context.Context, companyID, sku string) (*entity.SKUWeightMaster, error) {
	return &entity.SKUWeightMaster{CompanyID: companyID, SKU: sku}, nil
}

func (f *fakeSKUs) SuggestWeight(_ context.Context, companyID, _ string) (*skuweight.Suggestion, error) {
	f.company = companyID
	return f.suggestion, nil
}

type fakeShipments struct{ in shipment.RegisterInput }

func (f *fakeShipments) Register(_ context.Context, in shipment.RegisterInput) (*entity.Shipment, error) {
	f.in = in
	return &entity.Shipment{ID: "sh1", CompanyID: in.CompanyID, TrackingID: in.TrackingID, CarrierID: in.CarrierID,
		PaymentMode: entity.PaymentPrepaid, WeightStatus: entity.WeightPending}, nil
}

func (f *fakeShipments) Get(_ context.Context, _, _ string) (*entity.Shipment, error) {
	return nil, domain.ErrNotFound
}

type fakeReconciler struct{ in reconciliation.Input }

func (f *fakeReconciler) Run(_ context.Context, in reconciliation.Input) (*entity.ReconciliationReport, error) {
	f.in = in
	return &entity.ReconciliationReport{
		Run: entity.ReconciliationRun{ID: "run1", CarrierID: in.CarrierID, BillingMonth: in.BillingMonth, Version: 1,
			ReportRefs: map[string]string{"json": "k1", "pdf": "k2"}, Counts: entity.ReconciliationCounts{TotalRows: 1, Matched: 1}},
		Lines: []entity.ReconciliationLine{{LineNo: 2, AWB: "AWB1", Outcome: entity.LineMatched}},
	}, nil
}

func (f *fakeReconciler) GetRun(_ context.Context, _ string) (*entity.ReconciliationRun, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeReconciler) ListRuns(_ context.Context, _, _ string) ([]*entity.ReconciliationRun, error) {
	return nil, nil
}

func (f *fakeReconciler) Report(_ context.Context, _, format string) ([]byte, string, error) {
	if format == "pdf" {
		return []byte("%PDF-1.4"), "application/pdf", nil
	}
	return nil, "", fmt.Errorf("%w: formato %q no disponible", domain.ErrNotFound, format)
}

type fakeSettings struct{ cleared string }

func (f *fakeSettings) Effective(_ context.Context, companyID string) (entity.CompanyWeightSettings, error) {
	return entity.CompanyWeightSettings{CompanyID: companyID, ThresholdPercent: 5, HighValueAmount: decimal.NewFromInt(500)}, nil
}

func (f *fakeSettings) Update(_ context.Context, companyID string, in settings.UpdateInput) (entity.CompanyWeightSettings, error) {
	return entity.CompanyWeightSettings{CompanyID: companyID, ThresholdPercent: *in.ThresholdPercent}, nil
}

func (f *fakeSettings) ClearFraudFlag(_ context.Context, companyID, _ string) error {
	f.cleared = companyID
	return nil
}

type fakeFraud struct{}

func (fakeFraud) AnalyzeCompany(_ context.Context, companyID string) (*entity.FraudAssessment, error) {
	return &entity.FraudAssessment{CompanyID: companyID, Score: 0.8, Suspicious: true}, nil
}

func (fakeFraud) Latest(_ context.Context, _ string) (*entity.FraudAssessment, error) {
	return nil, nil
}

type fixture struct {
	app       *fiber.App
	processor *fakeProcessor
	disputes  *fakeDisputes
	skus      *fakeSKUs
	shipments *fakeShipments
	recon     *fakeReconciler
	settings  *fakeSettings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		processor: &fakeProcessor{results: map[string]error{}},
		disputes:  &fakeDisputes{},
		skus:      &fakeSKUs{},
		shipments: &fakeShipments{},
		recon:     &fakeReconciler{},
		settings:  &fakeSettings{},
	}
	log := logger.Nop()
	f.app = fiber.New()
	apphttp.Router(f.app, apphttp.RouterDeps{
		Webhooks:        apphttp.NewWebhookHandler(webhook.DefaultRegistry(), f.processor, f.disputes, map[string]string{"generic": "s3cret", "velocity": "v-token"}, log),
		Shipments:       apphttp.NewShipmentHandler(f.shipments),
		Disputes:        apphttp.NewDisputeHandler(f.disputes),
		SKUs:            apphttp.NewSKUHandler(f.skus),
		Reconciliations: apphttp.NewReconciliationHandler(f.recon),
		Settings:        apphttp.NewSettingsHandler(f.settings, fakeFraud{}),
		Health:          apphttp.NewHealthHandler("weight-dispute-api", &pricing.Usage{}),
		JWTSecret:       testJWTSecret,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, role string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (f *fixture) doJSON(t *testing.T, method, path, role string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return f.do(t, method, path, role, bytes.NewReader(raw), fiber.MIMEApplicationJSON)
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// ── webhooks ─────────────────────────────────────────────────────────────────

func webhookRequest(token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/generic", strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(apphttp.HeaderWebhookToken, token)
	}
	return req
}

func TestWebhook_TokenInvalido(t *testing.T) {
	f := newFixture(t)
	for _, tok := range []string{"", "otro"} {
		resp, err := f.app.Test(webhookRequest(tok, `{"tracking_id":"AWB1","weight":2,"unit":"kg"}`), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	assert.Empty(t, f.processor.seen)
}

func TestWebhook_ProcesaCadaEvento(t *testing.T) {
	f := newFixture(t)
	f.processor.results["AWB2"] = fmt.Errorf("%w: peso -1", domain.ErrInvalidMeasurement)

	body := `[{"tracking_id":"AWB1","weight":1500,"unit":"g","scanned_at":"2024-07-01T10:00:00Z"},
	          {"tracking_id":"AWB2","weight":-1,"unit":"kg"}]`
	resp, err := f.app.Test(webhookRequest("s3cret", body), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.WebhookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "generic", out.Carrier)
	assert.Equal(t, 1, out.Accepted)
	assert.Equal(t, 1, out.Rejected)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "dispute_opened", out.Results[0].Outcome)
	assert.Equal(t, "d-AWB1", out.Results[0].DisputeID)
	assert.Equal(t, "rejected", out.Results[1].Outcome)

	require.Len(t, f.processor.seen, 2)
	assert.Equal(t, "generic", f.processor.seen[0].CarrierID)
	assert.Equal(t, entity.StageScanned, f.processor.seen[0].Stage)
	assert.Equal(t, "g", f.processor.seen[0].Unit)
}

func TestWebhook_ErrorTransitorioPideReintento(t *testing.T) {
	f := newFixture(t)
	f.processor.results["AWB1"] = domain.ErrLockNotObtained

	resp, err := f.app.Test(webhookRequest("s3cret", `{"tracking_id":"AWB1","weight":2,"unit":"kg"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebhook_PayloadInvalido(t *testing.T) {
	f := newFixture(t)
	resp, err := f.app.Test(webhookRequest("s3cret", `{no es json`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_RespuestaTransportadora(t *testing.T) {
	f := newFixture(t)
	raw, _ := json.Marshal(dto.CarrierResponseRequest{Reference: "VEL-77", Outcome: "partial", WeightKg: 1.2})
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/velocity/responses", bytes.NewReader(raw))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set(apphttp.HeaderWebhookToken, "v-token")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "velocity", f.disputes.response.CarrierID)
	assert.Equal(t, dispute.CarrierOutcomePartial, f.disputes.response.Outcome)
	assert.Equal(t, 1.2, f.disputes.response.WeightKg)
}

// ── disputes ─────────────────────────────────────────────────────────────────

func TestDisputes_ListFiltraPorEstados(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.do(t, http.MethodGet, "/api/disputes?status=pending,escalated&priority=high&limit=10", "seller", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out dto.DisputeListResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 7, out.Page.Total)
	assert.Equal(t, 10, out.Page.Limit)
	assert.Equal(t, []entity.DisputeStatus{entity.DisputePending, entity.DisputeEscalated}, f.disputes.filter.Statuses)
	assert.Equal(t, entity.PriorityHigh, f.disputes.filter.Priority)
	assert.False(t, f.disputes.actor.Staff)
	assert.Equal(t, testCompanyID, f.disputes.actor.CompanyID)
}

func TestDisputes_ListPrioridadInvalida(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.do(t, http.MethodGet, "/api/disputes?priority=maxima", "seller", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "oneof=low medium high urgent", decodeError(t, raw).Details["priority"])
}

func TestDisputes_GetNoEncontrada(t *testing.T) {
	f := newFixture(t)
	f.disputes.err = domain.ErrNotFound
	resp, raw := f.do(t, http.MethodGet, "/api/disputes/x", "seller", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)
}

func TestDisputes_GetDetalle(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.do(t, http.MethodGet, "/api/disputes/d9", "admin", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.DisputeDetailResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "d9", out.ID)
	require.Len(t, out.History, 1)
	assert.Equal(t, "threshold_exceeded", out.History[0].Reason)
	assert.NotNil(t, out.Evidence)
	assert.True(t, f.disputes.actor.Staff)
}

func TestDisputes_ReviewSoloStaff(t *testing.T) {
	f := newFixture(t)
	body := dto.ReviewDisputeRequest{Action: "partial", WeightKg: 1.4, Notes: "acuerdo"}

	resp, _ := f.doJSON(t, http.MethodPost, "/api/disputes/d1/review", "seller", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := f.doJSON(t, http.MethodPost, "/api/disputes/d1/review", "reviewer", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, dispute.ReviewPartial, f.disputes.review.Action)
	assert.Equal(t, 1.4, f.disputes.review.WeightKg)

	var out dto.DisputeResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "partial_resolution", out.Status)
}

func TestDisputes_ReviewAccionInvalida(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.doJSON(t, http.MethodPost, "/api/disputes/d1/review", "admin", map[string]string{"action": "borrar"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, raw).Details, "action")
}

func TestDisputes_RejectSinEvidenciaDevuelveSugerencias(t *testing.T) {
	f := newFixture(t)
	f.disputes.err = fmt.Errorf("%w: adjunte al menos una evidencia", domain.ErrInvalidInput)
	resp, raw := f.doJSON(t, http.MethodPost, "/api/disputes/d1/reject", "seller", dto.RejectDisputeRequest{Notes: "peso correcto"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.NotEmpty(t, out.Suggestions)
}

func TestDisputes_TransicionInvalida(t *testing.T) {
	f := newFixture(t)
	f.disputes.err = domain.ErrInvalidTransition
	resp, _ := f.do(t, http.MethodPost, "/api/disputes/d1/accept", "seller", nil, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func evidenceForm(t *testing.T, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if content != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="bascula.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDisputes_AddEvidenceMultipart(t *testing.T) {
	f := newFixture(t)
	body, ct := evidenceForm(t, "image/jpeg", []byte("jpeg-bytes"), map[string]string{
		"has_scale":   "true",
		"has_awb":     "1",
		"captured_at": "2024-07-01T09:30:00-05:00",
	})
	resp, raw := f.do(t, http.MethodPost, "/api/disputes/d1/evidence", "seller", body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	up := f.disputes.upload
	assert.Equal(t, "bascula.jpg", up.Filename)
	assert.Equal(t, "image/jpeg", up.ContentType)
	assert.Equal(t, []byte("jpeg-bytes"), up.Content)
	assert.True(t, up.HasScale)
	assert.False(t, up.HasRuler)
	assert.True(t, up.HasAWB)
	require.NotNil(t, up.CapturedAt)
	assert.Equal(t, time.Date(2024, 7, 1, 14, 30, 0, 0, time.UTC), *up.CapturedAt)

	var out dto.EvidenceResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ev1", out.ID)
	assert.Equal(t, []string{"Incluya una regla"}, out.Validation.Suggestions)
}

func TestDisputes_AddEvidenceSinArchivo(t *testing.T) {
	f := newFixture(t)
	body, ct := evidenceForm(t, "", nil, map[string]string{"has_scale": "true"})
	resp, raw := f.do(t, http.MethodPost, "/api/disputes/d1/evidence", "seller", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeError(t, raw)
	assert.Equal(t, "MISSING_FILE", out.Code)
	assert.NotEmpty(t, out.Suggestions)
}

func TestDisputes_AddEvidenceFechaInvalida(t *testing.T) {
	f := newFixture(t)
	body, ct := evidenceForm(t, "image/png", []byte("png"), map[string]string{"captured_at": "ayer"})
	resp, _ := f.do(t, http.MethodPost, "/api/disputes/d1/evidence", "seller", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ── skus / shipments ─────────────────────────────────────────────────────────

func TestSKU_FreezeInvalidoDevuelveSugerencias(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.doJSON(t, http.MethodPost, "/api/skus/SKU-1/freeze", "seller", map[string]float64{"weight_kg": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeError(t, raw)
	assert.Equal(t, "required", out.Details["weight_kg"])
	assert.NotEmpty(t, out.Suggestions)
}

func TestSKU_FreezeUsaEmpresaDelToken(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.doJSON(t, http.MethodPost, "/api/skus/SKU-1/freeze?company_id=otra", "seller", dto.FreezeSKURequest{WeightKg: 0.45, Reason: "caja nueva"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, testCompanyID, f.skus.company)
	assert.Equal(t, 0.45, f.skus.freeze.WeightKg)
	assert.Equal(t, testUserID, f.skus.freeze.FrozenBy)

	resp, _ = f.doJSON(t, http.MethodPost, "/api/skus/SKU-1/freeze?company_id=otra", "admin", dto.FreezeSKURequest{WeightKg: 0.45})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "otra", f.skus.company)
}

func TestSKU_SugerenciaNoDisponible(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.do(t, http.MethodGet, "/api/skus/SKU-1/suggestion", "seller", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.WeightSuggestionResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.False(t, out.Available)

	f.skus.suggestion = &skuweight.Suggestion{SKU: "SKU-1", WeightKg: 0.3, Source: skuweight.SuggestionLearned, Confidence: 88}
	_, raw = f.do(t, http.MethodGet, "/api/skus/SKU-1/suggestion", "seller", nil, "")
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Available)
	assert.Equal(t, 0.3, out.WeightKg)
	assert.Equal(t, "learned", out.Source)
}

func TestSKU_GetNoEncontrado(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/api/skus/SKU-9", "seller", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShipments_Create(t *testing.T) {
	f := newFixture(t)
	req := dto.CreateShipmentRequest{
		TrackingID: "awb1", CarrierID: "Velocity", OriginPincode: "110001", DestinationPincode: "400001",
		Items: []dto.ShipmentItemRequest{{SKU: "SKU-1", Quantity: 2}}, Weight: 1.2, Unit: "kg",
	}
	resp, raw := f.doJSON(t, http.MethodPost, "/api/shipments", "seller", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, testCompanyID, f.shipments.in.CompanyID)
	assert.Equal(t, []entity.ShipmentItem{{SKU: "SKU-1", Quantity: 2}}, f.shipments.in.Items)

	req.OriginPincode = "11A"
	resp, raw = f.doJSON(t, http.MethodPost, "/api/shipments", "seller", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, raw).Details, "origin_pincode")
}

// ── reconciliation / settings / fraud ────────────────────────────────────────

func TestReconciliation_SoloStaff(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/api/reconciliations", "seller", nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReconciliation_Upload(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "mis-julio.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("AWB No,Charged Weight,Amount\nAWB1,1.0,50\n"))
	require.NoError(t, w.WriteField("carrier_id", "velocity"))
	require.NoError(t, w.WriteField("billing_month", "2024-07"))
	require.NoError(t, w.Close())

	resp, raw := f.do(t, http.MethodPost, "/api/reconciliations", "admin", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, "velocity", f.recon.in.CarrierID)
	assert.Equal(t, "2024-07", f.recon.in.BillingMonth)
	assert.Equal(t, "mis-julio.csv", f.recon.in.Filename)
	assert.Equal(t, testUserID, f.recon.in.CreatedBy)

	var out dto.ReconciliationResultResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, []string{"json", "pdf"}, out.Run.Formats)
	require.Len(t, out.Lines, 1)
}

func TestReconciliation_ReportePDF(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.do(t, http.MethodGet, "/api/reconciliations/run1/report?format=pdf", "reviewer", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "conciliacion-run1.pdf")
	assert.Equal(t, "%PDF-1.4", string(raw))

	resp, _ = f.do(t, http.MethodGet, "/api/reconciliations/run1/report?format=csv", "reviewer", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettings_UpdateValidaUmbral(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.doJSON(t, http.MethodPut, "/api/settings", "seller", map[string]float64{"threshold_percent": 150})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw := f.doJSON(t, http.MethodPut, "/api/settings", "seller", map[string]float64{"threshold_percent": 8})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.SettingsResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 8.0, out.ThresholdPercent)
}

func TestFraud_Permisos(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/api/fraud/c1/analyze", "reviewer", nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := f.do(t, http.MethodPost, "/api/fraud/c1/analyze", "admin", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.FraudAssessmentResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Suspicious)

	resp, _ = f.do(t, http.MethodGet, "/api/fraud/c1", "reviewer", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/fraud/c1/flag", "admin", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "c1", f.settings.cleared)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, raw := f.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"fallback_zone":0`)

	resp, _ = f.do(t, http.MethodGet, "/api/pricing/usage", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

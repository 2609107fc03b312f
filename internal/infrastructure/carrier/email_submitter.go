package carrier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
)

var _ ports.CarrierDisputeSubmitter = (*EmailSubmitter)(nil)

// TemplateCarrierIntake plantilla del correo a la mesa de disputas de la transportadora.
const TemplateCarrierIntake = "carrier_dispute_intake"

// EmailSubmitter para transportadoras sin API: publica el correo en la cola de notificaciones.
// La referencia es local y se correlaciona con la respuesta por el asunto.
type EmailSubmitter struct {
	intake   map[string]string
	notifier ports.NotificationSender
}

func NewEmailSubmitter(intake map[string]string, notifier ports.NotificationSender) *EmailSubmitter {
	return &EmailSubmitter{intake: intake, notifier: notifier}
}

// EmailReference referencia derivada del ID de la disputa.
func EmailReference(disputeID string) string {
	id := strings.ToUpper(strings.ReplaceAll(disputeID, "-", ""))
	if len(id) > 12 {
		id = id[:12]
	}
	return "WD-" + id
}

func (s *EmailSubmitter) Submit(ctx context.Context, req ports.SubmissionRequest) (*ports.SubmissionResult, error) {
	to, ok := s.intake[strings.ToLower(req.CarrierID)]
	if !ok || to == "" {
		return nil, fmt.Errorf("carrier %s: sin correo de disputas configurado", req.CarrierID)
	}
	ref := EmailReference(req.DisputeID)
	params := map[string]string{
		"to":                 to,
		"subject":            fmt.Sprintf("[%s] Disputa de peso AWB %s", ref, req.TrackingID),
		"reference":          ref,
		"tracking_id":        req.TrackingID,
		"declared_weight_kg": strconv.FormatFloat(req.DeclaredWeightKg, 'f', 3, 64),
		"charged_weight_kg":  strconv.FormatFloat(req.ReportedWeightKg, 'f', 3, 64),
		"evidence_urls":      strings.Join(req.EvidenceURLs, "\n"),
		"notes":              req.Notes,
	}
	// la "empresa" del correo es la transportadora destino
	if err := s.notifier.Send(ctx, "carrier:"+strings.ToLower(req.CarrierID), TemplateCarrierIntake, params); err != nil {
		return nil, fmt.Errorf("carrier %s: encolar correo: %w", req.CarrierID, err)
	}
	return &ports.SubmissionResult{Method: ChannelEmail, ReferenceNumber: ref}, nil
}

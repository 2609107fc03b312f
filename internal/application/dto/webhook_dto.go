package dto

// WebhookEventResult resultado por evento del payload.
type WebhookEventResult struct {
	TrackingID string  `json:"tracking_id"`
	ShipmentID string  `json:"shipment_id,omitempty"`
	Outcome    string  `json:"outcome"`
	DisputeID  string  `json:"dispute_id,omitempty"`
	Percentage float64 `json:"percentage"`
	Error      string  `json:"error,omitempty"`
}

// WebhookResponse respuesta del ingreso de pesos.
type WebhookResponse struct {
	Carrier  string               `json:"carrier"`
	Accepted int                  `json:"accepted"`
	Rejected int                  `json:"rejected"`
	Results  []WebhookEventResult `json:"results"`
}

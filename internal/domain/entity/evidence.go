package entity

import "time"

// EvidenceKind tipo de artefacto.
type EvidenceKind string

const (
	EvidencePhoto    EvidenceKind = "photo"
	EvidenceVideo    EvidenceKind = "video"
	EvidenceDocument EvidenceKind = "document"
)

// EvidenceValidation resultado del validador, guardado junto a la evidencia.
type EvidenceValidation struct {
	HasScale       bool     `json:"has_scale"`
	HasRuler       bool     `json:"has_ruler"`
	HasAWB         bool     `json:"has_awb"`
	FreshTimestamp bool     `json:"fresh_timestamp"`
	QualityScore   float64  `json:"quality_score"`
	IsValid        bool     `json:"is_valid"`
	Suggestions    []string `json:"suggestions"`
	InspectedBy    string   `json:"inspected_by"`
}

// DisputeEvidence evidencia cargada por el vendedor.
type DisputeEvidence struct {
	ID          string
	DisputeID   string
	Kind        EvidenceKind
	URL         string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	CapturedAt  *time.Time
	UploadedBy  string
	Validation  EvidenceValidation
	CreatedAt   time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerDirection sentido del movimiento en la billetera de la empresa.
type LedgerDirection string

const (
	LedgerDebit  LedgerDirection = "debit"
	LedgerCredit LedgerDirection = "credit"
	LedgerNone   LedgerDirection = "none"
)

// SettlementStatus estado de la liquidación.
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementApplied SettlementStatus = "applied"
	SettlementNoop    SettlementStatus = "noop"
)

// Settlement una por disputa (única por DisputeID). La clave de idempotencia es el ID de la disputa.
type Settlement struct {
	ID              string
	DisputeID       string
	CompanyID       string
	Amount          decimal.Decimal // valor absoluto
	Direction       LedgerDirection
	Status          SettlementStatus
	IdempotencyKey  string
	Reason          string
	Attempts        int
	LastError       string
	LedgerReference string
	AppliedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType distinguishes hospital settlements from member reimbursements
type PaymentType string

const (
	PaymentTypeClaim         PaymentType = "CLAIM_PAYMENT"
	PaymentTypeReimbursement PaymentType = "REIMBURSEMENT"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusProcessed PaymentStatus = "PROCESSED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// ClaimPayment records money paid out against an approved claim
type ClaimPayment struct {
	ID        string          `json:"id" db:"id"`
	ClaimID   string          `json:"claim_id" db:"claim_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Method    string          `json:"method" db:"method"`
	Reference string          `json:"reference,omitempty" db:"reference"`
	Type      PaymentType     `json:"type" db:"payment_type"`
	Status    PaymentStatus   `json:"status" db:"status"`
	PaidOn    time.Time       `json:"paid_on" db:"paid_on"`
	Remarks   string          `json:"remarks,omitempty" db:"remarks"`
	CreatedBy string          `json:"created_by" db:"created_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

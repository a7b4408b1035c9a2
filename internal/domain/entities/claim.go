package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ClaimStatus is the single authoritative state of a claim
type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "SUBMITTED"
	ClaimStatusValidated   ClaimStatus = "VALIDATED"
	ClaimStatusApproved    ClaimStatus = "APPROVED"
	ClaimStatusPaid        ClaimStatus = "PAID"
	ClaimStatusRejected    ClaimStatus = "REJECTED"
	ClaimStatusQuarantined ClaimStatus = "QUARANTINED"
	ClaimStatusReverted    ClaimStatus = "REVERTED"
)

// ClaimStage is a coarse projection of status used by status queries
type ClaimStage string

const (
	ClaimStageInitialSubmission ClaimStage = "INITIAL_SUBMISSION"
	ClaimStageDataValidation    ClaimStage = "DATA_VALIDATION"
	ClaimStageManualReview      ClaimStage = "MANUAL_REVIEW"
	ClaimStageApproval          ClaimStage = "APPROVAL"
	ClaimStageCompletion        ClaimStage = "COMPLETION"
)

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusSubmitted: {
		ClaimStatusValidated, ClaimStatusApproved, ClaimStatusRejected,
		ClaimStatusQuarantined, ClaimStatusReverted,
	},
	ClaimStatusValidated:   {ClaimStatusApproved, ClaimStatusRejected, ClaimStatusQuarantined},
	ClaimStatusApproved:    {ClaimStatusPaid, ClaimStatusQuarantined, ClaimStatusReverted},
	ClaimStatusQuarantined: {ClaimStatusRejected},
}

// CanTransition reports whether a claim may move from one status to another
func CanTransition(from, to ClaimStatus) bool {
	for _, next := range claimTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s ClaimStatus) IsTerminal() bool {
	return len(claimTransitions[s]) == 0
}

// Stage projects a status onto a workflow stage
func (s ClaimStatus) Stage() ClaimStage {
	switch s {
	case ClaimStatusSubmitted:
		return ClaimStageDataValidation
	case ClaimStatusValidated, ClaimStatusQuarantined:
		return ClaimStageManualReview
	case ClaimStatusApproved:
		return ClaimStageApproval
	case ClaimStatusPaid, ClaimStatusRejected, ClaimStatusReverted:
		return ClaimStageCompletion
	default:
		return ClaimStageInitialSubmission
	}
}

// CountsTowardLimit reports whether the claim's benefit consumes the annual limit
func (s ClaimStatus) CountsTowardLimit() bool {
	return s == ClaimStatusApproved || s == ClaimStatusPaid
}

// Claim represents a request for reimbursement of a healthcare service
type Claim struct {
	ID               string          `json:"id" db:"id"`
	MemberID         string          `json:"member_id" db:"member_id"`
	HospitalID       string          `json:"hospital_id" db:"hospital_id"`
	SchemeID         string          `json:"scheme_id" db:"scheme_id"`
	BenefitCode      string          `json:"benefit_code" db:"benefit_code"`
	ServiceCode      string          `json:"service_code,omitempty" db:"service_code"`
	ServiceDate      time.Time       `json:"service_date" db:"service_date"`
	ClaimFormNumber  string          `json:"claim_form_number" db:"claim_form_number"`
	InvoiceNumber    string          `json:"invoice_number" db:"invoice_number"`
	ClaimedAmount    decimal.Decimal `json:"claimed_amount" db:"claimed_amount"`
	CoPayment        decimal.Decimal `json:"co_payment" db:"co_payment"`
	MemberAmount     decimal.Decimal `json:"member_amount" db:"member_amount"`
	Status           ClaimStatus     `json:"status" db:"status"`
	Comments         string          `json:"comments,omitempty" db:"comments"`
	Quarantined      bool            `json:"quarantined" db:"quarantined"`
	BillingSessionID string          `json:"billing_session_id" db:"billing_session_id"`
	CreatedBy        string          `json:"created_by" db:"created_by"`
	ApprovedBy       *string         `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt       *time.Time      `json:"rejected_at,omitempty" db:"rejected_at"`
	PaidAt           *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
	Details          []ClaimDetail   `json:"details,omitempty" db:"-"`
}

// AppendComment adds a line to the claim's audit trail without touching earlier entries
func (c *Claim) AppendComment(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if c.Comments == "" {
		c.Comments = note
		return
	}
	c.Comments = c.Comments + " | " + note
}

// ClaimDetail is a single invoice line of a claim
type ClaimDetail struct {
	ID          string          `json:"id" db:"id"`
	ClaimID     string          `json:"claim_id" db:"claim_id"`
	ItemCode    string          `json:"item_code" db:"item_code"`
	Description string          `json:"description,omitempty" db:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
}

// ComputeLineTotal sets LineTotal from unit price and quantity
func (d *ClaimDetail) ComputeLineTotal() {
	d.LineTotal = d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// ClaimTotals aggregates claims over a service date window
type ClaimTotals struct {
	TotalCount     int             `json:"total_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ApprovedCount  int             `json:"approved_count"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	PaidCount      int             `json:"paid_count"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
}

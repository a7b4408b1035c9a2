package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

// ClaimEventType represents the type of claim event
type ClaimEventType string

const (
	ClaimEventSubmitted   ClaimEventType = "CLAIM_SUBMITTED"
	ClaimEventValidated   ClaimEventType = "CLAIM_VALIDATED"
	ClaimEventApproved    ClaimEventType = "CLAIM_APPROVED"
	ClaimEventRejected    ClaimEventType = "CLAIM_REJECTED"
	ClaimEventPaid        ClaimEventType = "CLAIM_PAID"
	ClaimEventQuarantined ClaimEventType = "CLAIM_QUARANTINED"
	ClaimEventReverted    ClaimEventType = "CLAIM_REVERTED"
)

// ClaimEvent is the notification emitted after a claim changes state
type ClaimEvent struct {
	ID         string          `json:"id"`
	Type       ClaimEventType  `json:"type"`
	ClaimID    string          `json:"claim_id"`
	MemberID   string          `json:"member_id"`
	HospitalID string          `json:"hospital_id"`
	Status     ClaimStatus     `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	ActorID    string          `json:"actor_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewClaimEvent creates an event describing the claim's current state
func NewClaimEvent(eventType ClaimEventType, claim *Claim, actorID, reason string, at time.Time) *ClaimEvent {
	return &ClaimEvent{
		ID:         generateEventID(at),
		Type:       eventType,
		ClaimID:    claim.ID,
		MemberID:   claim.MemberID,
		HospitalID: claim.HospitalID,
		Status:     claim.Status,
		Amount:     claim.MemberAmount,
		Reason:     reason,
		ActorID:    actorID,
		OccurredAt: at,
	}
}

func generateEventID(at time.Time) string {
	return at.UTC().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}

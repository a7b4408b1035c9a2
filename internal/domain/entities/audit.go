package entities

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names what happened to an entity
type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionValidate   AuditAction = "VALIDATE"
	AuditActionApprove    AuditAction = "APPROVE"
	AuditActionReject     AuditAction = "REJECT"
	AuditActionPay        AuditAction = "PAY"
	AuditActionQuarantine AuditAction = "QUARANTINE"
	AuditActionRevert     AuditAction = "REVERT"
	AuditActionClose      AuditAction = "CLOSE"
	AuditActionLock       AuditAction = "LOCK"
)

// Audited entity types
const (
	AuditEntityClaim          = "claim"
	AuditEntityPayment        = "claim_payment"
	AuditEntityBillingSession = "billing_session"
)

// AuditEntry is an append-only record of a state change
type AuditEntry struct {
	ID         string                 `json:"id" db:"id"`
	Action     AuditAction            `json:"action" db:"action"`
	EntityType string                 `json:"entity_type" db:"entity_type"`
	EntityID   string                 `json:"entity_id" db:"entity_id"`
	UserID     string                 `json:"user_id" db:"user_id"`
	Details    map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// NewAuditEntry creates an audit entry stamped with at
func NewAuditEntry(action AuditAction, entityType, entityID, userID string, details map[string]interface{}, at time.Time) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Details:    details,
		CreatedAt:  at,
	}
}

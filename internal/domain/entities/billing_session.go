package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingSessionStatus represents the status of an accounting window
type BillingSessionStatus string

const (
	BillingSessionOpen   BillingSessionStatus = "OPEN"
	BillingSessionClosed BillingSessionStatus = "CLOSED"
	BillingSessionLocked BillingSessionStatus = "LOCKED"
)

// BillingSession is a date window during which claims for services in that window
// may be submitted
type BillingSession struct {
	ID          string               `json:"id" db:"id"`
	FromDate    time.Time            `json:"from_date" db:"from_date"`
	ToDate      time.Time            `json:"to_date" db:"to_date"`
	Status      BillingSessionStatus `json:"status" db:"status"`
	TotalClaims int                  `json:"total_claims" db:"total_claims"`
	TotalAmount decimal.Decimal      `json:"total_amount" db:"total_amount"`
	CreatedBy   string               `json:"created_by" db:"created_by"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	ClosedAt    *time.Time           `json:"closed_at,omitempty" db:"closed_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
}

// Covers reports whether date falls inside the inclusive window
func (s *BillingSession) Covers(date time.Time) bool {
	d := Day(date)
	return !d.Before(Day(s.FromDate)) && !d.After(Day(s.ToDate))
}

// Overlaps reports whether the inclusive window intersects [from, to]
func (s *BillingSession) Overlaps(from, to time.Time) bool {
	return !Day(s.FromDate).After(Day(to)) && !Day(s.ToDate).Before(Day(from))
}

// ApplyTotals snapshots aggregated claim totals onto the session
func (s *BillingSession) ApplyTotals(t ClaimTotals) {
	s.TotalClaims = t.TotalCount
	s.TotalAmount = t.TotalAmount
}

package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecordStatus is the lifecycle flag shared by reference data
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "ACTIVE"
	RecordStatusInactive RecordStatus = "INACTIVE"
)

// Member is an insured person covered by a scheme
type Member struct {
	ID            string       `json:"id" db:"id"`
	SchemeID      string       `json:"scheme_id" db:"scheme_id"`
	CompanyID     string       `json:"company_id" db:"company_id"`
	Name          string       `json:"name" db:"name"`
	CardNumber    string       `json:"card_number" db:"card_number"`
	DateOfJoining *time.Time   `json:"date_of_joining,omitempty" db:"date_of_joining"`
	Status        RecordStatus `json:"status" db:"status"`
}

// Scheme is an insurance plan purchased by a company
type Scheme struct {
	ID              string     `json:"id" db:"id"`
	CompanyID       string     `json:"company_id" db:"company_id"`
	Name            string     `json:"name" db:"name"`
	BeginningDate   time.Time  `json:"beginning_date" db:"beginning_date"`
	EndingDate      time.Time  `json:"ending_date" db:"ending_date"`
	TerminationDate *time.Time `json:"termination_date,omitempty" db:"termination_date"`
	Terminated      bool       `json:"terminated" db:"terminated"`
}

// TerminatedBy reports whether the scheme no longer covers a service on the given date
func (s *Scheme) TerminatedBy(serviceDate time.Time) bool {
	if s.Terminated {
		return true
	}
	return s.TerminationDate != nil && Day(*s.TerminationDate).Before(Day(serviceDate))
}

// SchemeBenefit is a benefit category within a scheme
type SchemeBenefit struct {
	ID                string              `json:"id" db:"id"`
	SchemeID          string              `json:"scheme_id" db:"scheme_id"`
	BenefitCode       string              `json:"benefit_code" db:"benefit_code"`
	LimitAmount       decimal.NullDecimal `json:"limit_amount" db:"limit_amount"`
	CoPaymentPercent  decimal.NullDecimal `json:"copayment_percent" db:"copayment_percent"`
	WaitingPeriodDays *int                `json:"waiting_period_days,omitempty" db:"waiting_period_days"`
	Status            RecordStatus        `json:"status" db:"status"`
}

var hundredPercent = decimal.NewFromInt(100)

// Validate checks the benefit's numeric invariants
func (b *SchemeBenefit) Validate() error {
	if b.LimitAmount.Valid && b.LimitAmount.Decimal.IsNegative() {
		return fmt.Errorf("limit amount must not be negative, got %s", b.LimitAmount.Decimal)
	}
	if b.CoPaymentPercent.Valid {
		pct := b.CoPaymentPercent.Decimal
		if pct.IsNegative() || pct.GreaterThan(hundredPercent) {
			return fmt.Errorf("co-payment percent must be between 0 and 100, got %s", pct)
		}
	}
	if b.WaitingPeriodDays != nil && *b.WaitingPeriodDays < 0 {
		return fmt.Errorf("waiting period must not be negative, got %d", *b.WaitingPeriodDays)
	}
	return nil
}

// Hospital is a provider that submits claims
type Hospital struct {
	ID        string       `json:"id" db:"id"`
	Reference string       `json:"reference" db:"reference"`
	Name      string       `json:"name" db:"name"`
	Status    RecordStatus `json:"status" db:"status"`
}

// HospitalService is a negotiated price agreement for one service at one hospital
type HospitalService struct {
	ID          string              `json:"id" db:"id"`
	HospitalID  string              `json:"hospital_id" db:"hospital_id"`
	ServiceCode string              `json:"service_code" db:"service_code"`
	AgreedPrice decimal.NullDecimal `json:"agreed_price" db:"agreed_price"`
	Available   bool                `json:"available" db:"available"`
	Status      RecordStatus        `json:"status" db:"status"`
}

// Offered reports whether the hospital currently provides the service
func (s *HospitalService) Offered() bool {
	return s.Available && s.Status == RecordStatusActive
}

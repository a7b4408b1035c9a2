package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
)

// ClaimLine is one invoice line of a submission
type ClaimLine struct {
	ItemCode    string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// ClaimSubmission is the input of a claim submission
type ClaimSubmission struct {
	// ClaimID is set when re-validating a stored claim so duplicate checks skip it
	ClaimID         string
	MemberID        string
	HospitalID      string
	SchemeID        string
	BenefitCode     string
	ServiceCode     string
	ServiceDate     time.Time
	ClaimFormNumber string
	InvoiceNumber   string
	Amount          decimal.Decimal
	Details         []ClaimLine
	SubmittedBy     string
}

// ClaimRule is one business check run against a submission. A nil result means the
// rule does not apply. Errors are reserved for storage failures.
type ClaimRule interface {
	Name() string
	Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error)
}

// RuleChain runs every registered rule and aggregates the results
type RuleChain struct {
	mu    sync.RWMutex
	rules []ClaimRule
}

// NewRuleChain creates a chain from rules, in order
func NewRuleChain(rules ...ClaimRule) *RuleChain {
	return &RuleChain{rules: append([]ClaimRule(nil), rules...)}
}

// DefaultClaimRules returns the standard adjudication rules
func DefaultClaimRules(ledger repositories.BenefitLedgerRepository, claims repositories.ClaimRepository, priceVariance decimal.Decimal) []ClaimRule {
	return []ClaimRule{
		NewMemberRule(ledger),
		NewHospitalRule(ledger),
		NewSchemeValidityRule(ledger),
		NewDuplicateClaimRule(claims),
		NewDuplicateInvoiceRule(claims),
		NewPriceAgreementRule(ledger, priceVariance),
		NewWaitingPeriodRule(ledger),
	}
}

// Register appends a rule to the chain
func (c *RuleChain) Register(rule ClaimRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule)
}

// Rules returns the names of the registered rules in order
func (c *RuleChain) Rules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// Validate runs every rule without short-circuiting and returns all results
func (c *RuleChain) Validate(ctx context.Context, sub *ClaimSubmission) ([]entities.ValidationResult, error) {
	c.mu.RLock()
	rules := append([]ClaimRule(nil), c.rules...)
	c.mu.RUnlock()

	results := make([]entities.ValidationResult, 0, len(rules))
	for _, rule := range rules {
		result, err := rule.Validate(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		if result != nil {
			results = append(results, *result)
		}
	}
	return results, nil
}

func pass(message string) *entities.ValidationResult {
	return &entities.ValidationResult{IsValid: true, Message: message}
}

func fail(code, message string) *entities.ValidationResult {
	r := entities.Invalid(code, message)
	return &r
}

// MemberRule checks the member reference resolves
type MemberRule struct {
	ledger repositories.BenefitLedgerRepository
}

// NewMemberRule creates a new member rule
func NewMemberRule(ledger repositories.BenefitLedgerRepository) *MemberRule {
	return &MemberRule{ledger: ledger}
}

// Name implements ClaimRule
func (r *MemberRule) Name() string { return "member" }

// Validate implements ClaimRule
func (r *MemberRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	member, err := r.ledger.FindMember(ctx, sub.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return fail(entities.CodeMemberNotFound, "Member not found"), nil
	}
	return pass("Member exists"), nil
}

// HospitalRule checks the hospital reference resolves
type HospitalRule struct {
	ledger repositories.BenefitLedgerRepository
}

// NewHospitalRule creates a new hospital rule
func NewHospitalRule(ledger repositories.BenefitLedgerRepository) *HospitalRule {
	return &HospitalRule{ledger: ledger}
}

// Name implements ClaimRule
func (r *HospitalRule) Name() string { return "hospital" }

// Validate implements ClaimRule
func (r *HospitalRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	hospital, err := r.ledger.FindHospital(ctx, sub.HospitalID)
	if err != nil {
		return nil, err
	}
	if hospital == nil {
		return fail(entities.CodeHospitalNotFound, "Hospital not found"), nil
	}
	return pass("Hospital exists"), nil
}

// SchemeValidityRule rejects claims against missing or terminated schemes
type SchemeValidityRule struct {
	ledger repositories.BenefitLedgerRepository
}

// NewSchemeValidityRule creates a new scheme validity rule
func NewSchemeValidityRule(ledger repositories.BenefitLedgerRepository) *SchemeValidityRule {
	return &SchemeValidityRule{ledger: ledger}
}

// Name implements ClaimRule
func (r *SchemeValidityRule) Name() string { return "scheme_validity" }

// Validate implements ClaimRule
func (r *SchemeValidityRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	scheme, err := r.ledger.FindScheme(ctx, sub.SchemeID)
	if err != nil {
		return nil, err
	}
	if scheme == nil {
		return fail(entities.CodeSchemeNotFound, "Scheme not found"), nil
	}
	if scheme.Terminated {
		return fail(entities.CodeSchemeTerminated, "Scheme is terminated"), nil
	}
	if scheme.TerminatedBy(sub.ServiceDate) {
		return fail(entities.CodeSchemeTerminated, "Service date is after scheme termination date"), nil
	}
	return pass("Scheme is valid for service date"), nil
}

// DuplicateClaimRule rejects a claim-form number already in use
type DuplicateClaimRule struct {
	claims repositories.ClaimRepository
}

// NewDuplicateClaimRule creates a new duplicate claim rule
func NewDuplicateClaimRule(claims repositories.ClaimRepository) *DuplicateClaimRule {
	return &DuplicateClaimRule{claims: claims}
}

// Name implements ClaimRule
func (r *DuplicateClaimRule) Name() string { return "duplicate_claim" }

// Validate implements ClaimRule
func (r *DuplicateClaimRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	exists, err := r.claims.ExistsByClaimFormNumber(ctx, sub.ClaimFormNumber, sub.ClaimID)
	if err != nil {
		return nil, err
	}
	if exists {
		return fail(entities.CodeDuplicateClaim, "Claim number already exists in the system"), nil
	}
	return pass("Claim number is unique"), nil
}

// DuplicateInvoiceRule rejects an invoice number already claimed by the hospital
type DuplicateInvoiceRule struct {
	claims repositories.ClaimRepository
}

// NewDuplicateInvoiceRule creates a new duplicate invoice rule
func NewDuplicateInvoiceRule(claims repositories.ClaimRepository) *DuplicateInvoiceRule {
	return &DuplicateInvoiceRule{claims: claims}
}

// Name implements ClaimRule
func (r *DuplicateInvoiceRule) Name() string { return "duplicate_invoice" }

// Validate implements ClaimRule
func (r *DuplicateInvoiceRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	exists, err := r.claims.ExistsByInvoice(ctx, sub.HospitalID, sub.InvoiceNumber, sub.ClaimID)
	if err != nil {
		return nil, err
	}
	if exists {
		return fail(entities.CodeDuplicateInvoice, "Invoice number already exists for this hospital"), nil
	}
	return pass("Invoice number is unique"), nil
}

// PriceAgreementRule compares the claimed amount with the hospital's agreed price
type PriceAgreementRule struct {
	ledger    repositories.BenefitLedgerRepository
	threshold decimal.Decimal
}

// NewPriceAgreementRule creates a price rule. threshold is the tolerated variance
// as a fraction of the agreed price.
func NewPriceAgreementRule(ledger repositories.BenefitLedgerRepository, threshold decimal.Decimal) *PriceAgreementRule {
	return &PriceAgreementRule{ledger: ledger, threshold: threshold}
}

// Name implements ClaimRule
func (r *PriceAgreementRule) Name() string { return "price_agreement" }

// Validate implements ClaimRule
func (r *PriceAgreementRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	if strings.TrimSpace(sub.ServiceCode) == "" {
		return nil, nil
	}

	hospital, err := r.ledger.FindHospital(ctx, sub.HospitalID)
	if err != nil {
		return nil, err
	}
	// unknown hospitals are reported by HospitalRule
	if hospital == nil {
		return nil, nil
	}

	service, err := r.ledger.FindHospitalService(ctx, sub.HospitalID, sub.ServiceCode)
	if err != nil {
		return nil, err
	}
	if service == nil || !service.Offered() {
		return fail(entities.CodeServiceNotAvailable, "Service not available at this hospital"), nil
	}

	if !service.AgreedPrice.Valid || service.AgreedPrice.Decimal.IsZero() {
		return pass("Price is within agreement"), nil
	}

	agreed := service.AgreedPrice.Decimal
	variance := sub.Amount.Sub(agreed).Abs().Div(agreed)
	if variance.GreaterThan(r.threshold) {
		return fail(entities.CodePriceExceeded,
			fmt.Sprintf("Amount exceeds agreed price by %s%%", variance.Mul(decimal.NewFromInt(100)).StringFixed(1))), nil
	}
	return pass("Price is within agreement"), nil
}

// WaitingPeriodRule rejects services rendered before the member's waiting period ends
type WaitingPeriodRule struct {
	ledger repositories.BenefitLedgerRepository
}

// NewWaitingPeriodRule creates a new waiting period rule
func NewWaitingPeriodRule(ledger repositories.BenefitLedgerRepository) *WaitingPeriodRule {
	return &WaitingPeriodRule{ledger: ledger}
}

// Name implements ClaimRule
func (r *WaitingPeriodRule) Name() string { return "waiting_period" }

// Validate implements ClaimRule
func (r *WaitingPeriodRule) Validate(ctx context.Context, sub *ClaimSubmission) (*entities.ValidationResult, error) {
	benefit, err := r.ledger.FindSchemeBenefit(ctx, sub.SchemeID, sub.BenefitCode)
	if err != nil {
		return nil, err
	}
	if benefit == nil || benefit.WaitingPeriodDays == nil || *benefit.WaitingPeriodDays == 0 {
		return nil, nil
	}

	member, err := r.ledger.FindMember(ctx, sub.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.DateOfJoining == nil {
		return nil, nil
	}

	eligibleFrom := entities.Day(*member.DateOfJoining).AddDate(0, 0, *benefit.WaitingPeriodDays)
	if entities.Day(sub.ServiceDate).Before(eligibleFrom) {
		return fail(entities.CodeWaitingPeriod,
			fmt.Sprintf("Benefit waiting period runs until %s", eligibleFrom.Format("2006-01-02"))), nil
	}
	return pass("Waiting period served"), nil
}

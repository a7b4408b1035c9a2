package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/pkg/money"
)

// CalculationRequest carries the inputs of a benefit calculation
type CalculationRequest struct {
	ClaimAmount decimal.Decimal
	SchemeID    string
	BenefitCode string
	MemberID    string
	ServiceDate time.Time
}

// Financials is the split of a claim amount between member and insurer
type Financials struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CoPayment      decimal.Decimal `json:"co_payment"`
	BenefitAmount  decimal.Decimal `json:"benefit_amount"`
	RemainingLimit decimal.Decimal `json:"remaining_limit"`
	ExceedsLimit   bool            `json:"exceeds_limit"`
}

// FinancialCalculator apportions claim amounts against scheme benefits
type FinancialCalculator struct {
	ledger repositories.BenefitLedgerRepository
	claims repositories.ClaimRepository
}

// NewFinancialCalculator creates a new financial calculator
func NewFinancialCalculator(ledger repositories.BenefitLedgerRepository, claims repositories.ClaimRepository) *FinancialCalculator {
	return &FinancialCalculator{
		ledger: ledger,
		claims: claims,
	}
}

// Calculate splits the claim amount into co-payment and benefit. When the benefit
// exceeds what is left of the annual limit it is clipped to the remainder and the
// member pays the difference.
func (c *FinancialCalculator) Calculate(ctx context.Context, req CalculationRequest) (*Financials, error) {
	benefit, err := c.ledger.FindSchemeBenefit(ctx, req.SchemeID, req.BenefitCode)
	if err != nil {
		return nil, fmt.Errorf("load scheme benefit: %w", err)
	}

	amount := req.ClaimAmount
	coPayment := c.coPayment(amount, benefit)
	benefitAmount := amount.Sub(coPayment)

	remaining, err := c.remainingLimit(ctx, benefit, req.MemberID, req.ServiceDate)
	if err != nil {
		return nil, err
	}

	exceeds := benefitAmount.GreaterThan(remaining)
	if exceeds {
		benefitAmount = remaining
		coPayment = amount.Sub(benefitAmount)
	}

	return &Financials{
		TotalAmount:    amount,
		CoPayment:      coPayment,
		BenefitAmount:  benefitAmount,
		RemainingLimit: remaining,
		ExceedsLimit:   exceeds,
	}, nil
}

// CoPayment returns the member's share for a claim amount under the scheme benefit
func (c *FinancialCalculator) CoPayment(ctx context.Context, amount decimal.Decimal, schemeID, benefitCode string) (decimal.Decimal, error) {
	benefit, err := c.ledger.FindSchemeBenefit(ctx, schemeID, benefitCode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load scheme benefit: %w", err)
	}
	return c.coPayment(amount, benefit), nil
}

// RemainingLimit returns what is left of the member's annual limit in the
// calendar year of serviceDate, never below zero
func (c *FinancialCalculator) RemainingLimit(ctx context.Context, memberID, schemeID, benefitCode string, serviceDate time.Time) (decimal.Decimal, error) {
	benefit, err := c.ledger.FindSchemeBenefit(ctx, schemeID, benefitCode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load scheme benefit: %w", err)
	}
	return c.remainingLimit(ctx, benefit, memberID, serviceDate)
}

func (c *FinancialCalculator) coPayment(amount decimal.Decimal, benefit *entities.SchemeBenefit) decimal.Decimal {
	if benefit == nil {
		return amount
	}
	pct := decimal.Zero
	if benefit.CoPaymentPercent.Valid {
		pct = benefit.CoPaymentPercent.Decimal
	}
	return money.Percent(amount, pct)
}

func (c *FinancialCalculator) remainingLimit(ctx context.Context, benefit *entities.SchemeBenefit, memberID string, serviceDate time.Time) (decimal.Decimal, error) {
	if benefit == nil || !benefit.LimitAmount.Valid {
		return decimal.Zero, nil
	}

	from, to := entities.YearBounds(serviceDate)
	used, err := c.claims.SumMemberAmount(ctx, memberID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum used benefit: %w", err)
	}

	return money.FloorZero(benefit.LimitAmount.Decimal.Sub(used)), nil
}

// CheckPaymentEligibility reports whether amount may be paid against the claim
func (c *FinancialCalculator) CheckPaymentEligibility(claim *entities.Claim, amount decimal.Decimal) entities.ValidationResult {
	if claim.Status != entities.ClaimStatusApproved {
		return entities.Invalid(entities.CodeClaimNotApproved,
			fmt.Sprintf("claim must be approved before payment, current status: %s", claim.Status))
	}
	if !amount.IsPositive() {
		return entities.Invalid(entities.CodeInvalidPaymentAmount, "payment amount must be greater than zero")
	}
	if amount.GreaterThan(claim.MemberAmount) {
		return entities.Invalid(entities.CodePaymentExceedsBenefit,
			fmt.Sprintf("payment amount %s exceeds approved benefit %s", amount.StringFixed(money.Cents), claim.MemberAmount.StringFixed(money.Cents)))
	}
	return entities.Valid()
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/observability"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
	"github.com/hmsultra/claimsengine/pkg/money"
)

const (
	commentTimeFormat    = "2006-01-02 15:04:05"
	defaultPaymentMethod = "BANK_TRANSFER"
	reimbursementPrefix  = "REIMB"
)

// SessionGate answers whether claims may be submitted for a service date
type SessionGate interface {
	IsServiceDateAdmissible(ctx context.Context, date time.Time) (*Admissibility, error)
}

// SubmitResult is the outcome of a claim submission
type SubmitResult struct {
	Success    bool                        `json:"success"`
	ClaimID    string                      `json:"claim_id,omitempty"`
	Stage      entities.ClaimStage         `json:"stage"`
	Financials *Financials                 `json:"financials,omitempty"`
	Errors     []entities.ValidationResult `json:"errors,omitempty"`
}

// TransitionResult is the outcome of a claim status change
type TransitionResult struct {
	Success   bool                        `json:"success"`
	ClaimID   string                      `json:"claim_id"`
	Status    entities.ClaimStatus        `json:"status,omitempty"`
	Stage     entities.ClaimStage         `json:"stage,omitempty"`
	ErrorCode string                      `json:"error_code,omitempty"`
	Message   string                      `json:"message,omitempty"`
	Errors    []entities.ValidationResult `json:"errors,omitempty"`
}

// PaymentRequest describes a payment against an approved claim. A nil Amount pays
// the full benefit amount.
type PaymentRequest struct {
	Amount    *decimal.Decimal
	Method    string
	Reference string
	Remarks   string
	PaidBy    string
}

// PaymentResult is the outcome of a payment or reimbursement
type PaymentResult struct {
	Success   bool                        `json:"success"`
	ClaimID   string                      `json:"claim_id,omitempty"`
	PaymentID string                      `json:"payment_id,omitempty"`
	Amount    decimal.Decimal             `json:"amount"`
	Stage     entities.ClaimStage         `json:"stage,omitempty"`
	ErrorCode string                      `json:"error_code,omitempty"`
	Message   string                      `json:"message,omitempty"`
	Errors    []entities.ValidationResult `json:"errors,omitempty"`
}

// StatusResult is a read-only projection of a claim
type StatusResult struct {
	Found         bool                 `json:"found"`
	ClaimID       string               `json:"claim_id"`
	Status        entities.ClaimStatus `json:"status,omitempty"`
	Stage         entities.ClaimStage  `json:"stage,omitempty"`
	SubmittedAt   time.Time            `json:"submitted_at"`
	ApprovedAt    *time.Time           `json:"approved_at,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	BenefitAmount decimal.Decimal      `json:"benefit_amount"`
	CoPayment     decimal.Decimal      `json:"co_payment"`
	Quarantined   bool                 `json:"quarantined"`
	ErrorCode     string               `json:"error_code,omitempty"`
	Message       string               `json:"message,omitempty"`
}

// ReimbursementRequest describes a direct reimbursement to a member for a service
// paid out of pocket. ServiceDate is the day the member incurred the cost and
// defaults to today.
type ReimbursementRequest struct {
	MemberID    string
	HospitalID  string
	BenefitCode string
	ServiceDate time.Time
	Amount      decimal.Decimal
	Reason      string
	Method      string
	Reference   string
	RequestedBy string
}

// ClaimLifecycleDeps groups the collaborators of the lifecycle service
type ClaimLifecycleDeps struct {
	Tx                 repositories.Transactor
	Claims             repositories.ClaimRepository
	Payments           repositories.PaymentRepository
	Ledger             repositories.BenefitLedgerRepository
	Gate               SessionGate
	Rules              *RuleChain
	Calculator         *FinancialCalculator
	Effects            *SideEffectDispatcher
	Clock              providers.Clock
	Metrics            *observability.ClaimMetrics
	DefaultBenefitCode string
}

// ClaimLifecycleService drives claims from submission to payment
type ClaimLifecycleService struct {
	tx                 repositories.Transactor
	claims             repositories.ClaimRepository
	payments           repositories.PaymentRepository
	ledger             repositories.BenefitLedgerRepository
	gate               SessionGate
	rules              *RuleChain
	calculator         *FinancialCalculator
	effects            *SideEffectDispatcher
	clock              providers.Clock
	metrics            *observability.ClaimMetrics
	defaultBenefitCode string
}

// NewClaimLifecycleService creates a new claim lifecycle service
func NewClaimLifecycleService(deps ClaimLifecycleDeps) *ClaimLifecycleService {
	if deps.Clock == nil {
		deps.Clock = providers.SystemClock{}
	}
	if deps.Rules == nil {
		deps.Rules = NewRuleChain()
	}
	if deps.Calculator == nil {
		deps.Calculator = NewFinancialCalculator(deps.Ledger, deps.Claims)
	}
	return &ClaimLifecycleService{
		tx:                 deps.Tx,
		claims:             deps.Claims,
		payments:           deps.Payments,
		ledger:             deps.Ledger,
		gate:               deps.Gate,
		rules:              deps.Rules,
		calculator:         deps.Calculator,
		effects:            deps.Effects,
		clock:              deps.Clock,
		metrics:            deps.Metrics,
		defaultBenefitCode: deps.DefaultBenefitCode,
	}
}

// WaitForSideEffects blocks until every notification and audit write dispatched so
// far has finished
func (s *ClaimLifecycleService) WaitForSideEffects() {
	s.effects.Wait()
}

// Submit checks, prices and records a new claim. Nothing is persisted unless every
// check passes.
func (s *ClaimLifecycleService) Submit(ctx context.Context, submission *ClaimSubmission) (*SubmitResult, error) {
	if submission == nil {
		return submitFailure(entities.Invalid(entities.CodeMissingField, "submission is required")), nil
	}

	ctx, span := observability.StartSpan(ctx, "ClaimLifecycleService.Submit",
		attribute.String("claim.form_number", submission.ClaimFormNumber))
	defer span.End()

	if errs := checkSubmission(submission); len(errs) > 0 {
		s.metrics.SubmissionRejected(ctx, errs[0].ErrorCode)
		return &SubmitResult{Stage: entities.ClaimStageInitialSubmission, Errors: errs}, nil
	}

	sub := *submission
	sub.ClaimID = ""
	sub.ServiceDate = entities.Day(sub.ServiceDate)
	if strings.TrimSpace(sub.BenefitCode) == "" {
		sub.BenefitCode = s.defaultBenefitCode
	}

	var (
		result *SubmitResult
		claim  *entities.Claim
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		admissibility, err := s.gate.IsServiceDateAdmissible(ctx, sub.ServiceDate)
		if err != nil {
			return err
		}
		if !admissibility.Admissible {
			result = submitFailure(entities.Invalid(entities.CodeBillingSessionClosed, admissibility.Reason))
			return nil
		}

		if sub.SchemeID == "" {
			member, err := s.ledger.FindMember(ctx, sub.MemberID)
			if err != nil {
				return fmt.Errorf("resolve member scheme: %w", err)
			}
			if member != nil {
				sub.SchemeID = member.SchemeID
			}
		}

		results, err := s.rules.Validate(ctx, &sub)
		if err != nil {
			return err
		}
		if failures := entities.Failures(results); len(failures) > 0 {
			result = submitFailure(failures...)
			return nil
		}

		financials, err := s.calculator.Calculate(ctx, CalculationRequest{
			ClaimAmount: sub.Amount,
			SchemeID:    sub.SchemeID,
			BenefitCode: sub.BenefitCode,
			MemberID:    sub.MemberID,
			ServiceDate: sub.ServiceDate,
		})
		if err != nil {
			return err
		}

		claim = newClaim(&sub, financials, admissibility.SessionID, s.clock.Now())
		if err := s.claims.Create(ctx, claim); err != nil {
			return err
		}

		result = &SubmitResult{
			Success:    true,
			ClaimID:    claim.ID,
			Stage:      claim.Status.Stage(),
			Financials: financials,
		}
		return nil
	})
	if err != nil {
		failure, ok := constraintFailure(err)
		if !ok {
			observability.RecordError(span, err)
			return nil, err
		}
		result = submitFailure(failure)
	}

	logger := observability.LoggerFromContext(ctx)
	if !result.Success {
		s.metrics.SubmissionRejected(ctx, result.Errors[0].ErrorCode)
		logger.Info().
			Str("claim_form_number", sub.ClaimFormNumber).
			Str("error_code", result.Errors[0].ErrorCode).
			Int("failures", len(result.Errors)).
			Msg("claim submission rejected")
		return result, nil
	}

	span.SetAttributes(attribute.String("claim.id", claim.ID))
	benefit, _ := claim.MemberAmount.Float64()
	s.metrics.ClaimSubmitted(ctx, benefit)
	s.effects.Dispatch(ctx,
		entities.NewClaimEvent(entities.ClaimEventSubmitted, claim, sub.SubmittedBy, "", claim.CreatedAt),
		entities.NewAuditEntry(entities.AuditActionCreate, entities.AuditEntityClaim, claim.ID, sub.SubmittedBy,
			map[string]interface{}{
				"claim_form_number": claim.ClaimFormNumber,
				"claimed_amount":    claim.ClaimedAmount.String(),
				"member_amount":     claim.MemberAmount.String(),
				"exceeds_limit":     result.Financials.ExceedsLimit,
			}, claim.CreatedAt),
	)
	observability.ClaimLogger(ctx, claim.ID).Info().
		Str("member_id", claim.MemberID).
		Str("hospital_id", claim.HospitalID).
		Str("claimed_amount", claim.ClaimedAmount.String()).
		Str("member_amount", claim.MemberAmount.String()).
		Msg("claim submitted")
	return result, nil
}

// Validate re-runs the rule chain on a SUBMITTED claim and moves it to VALIDATED
// when every rule passes
func (s *ClaimLifecycleService) Validate(ctx context.Context, claimID, actorID string) (*TransitionResult, error) {
	return s.transition(ctx, claimID, transitionStep{
		name:    "Validate",
		target:  entities.ClaimStatusValidated,
		event:   entities.ClaimEventValidated,
		action:  entities.AuditActionValidate,
		actorID: actorID,
		check: func(ctx context.Context, claim *entities.Claim) (*TransitionResult, error) {
			if !entities.CanTransition(claim.Status, entities.ClaimStatusValidated) {
				return nil, nil
			}
			results, err := s.rules.Validate(ctx, submissionFromClaim(claim))
			if err != nil {
				return nil, err
			}
			if failures := entities.Failures(results); len(failures) > 0 {
				return &TransitionResult{
					ClaimID:   claim.ID,
					Status:    claim.Status,
					Stage:     claim.Status.Stage(),
					ErrorCode: failures[0].ErrorCode,
					Message:   failures[0].Message,
					Errors:    failures,
				}, nil
			}
			return nil, nil
		},
		apply: func(claim *entities.Claim, now time.Time) {
			claim.AppendComment(fmt.Sprintf("Validated by %s on %s", actorID, now.Format(commentTimeFormat)))
		},
	})
}

// Approve marks a claim APPROVED and stamps the approver on its comments
func (s *ClaimLifecycleService) Approve(ctx context.Context, claimID, approverID string) (*TransitionResult, error) {
	return s.transition(ctx, claimID, transitionStep{
		name:    "Approve",
		target:  entities.ClaimStatusApproved,
		event:   entities.ClaimEventApproved,
		action:  entities.AuditActionApprove,
		actorID: approverID,
		check: func(_ context.Context, claim *entities.Claim) (*TransitionResult, error) {
			if claim.Status == entities.ClaimStatusApproved || claim.Status == entities.ClaimStatusPaid {
				return transitionFailure(claim, entities.CodeAlreadyApproved, "Claim is already approved"), nil
			}
			return nil, nil
		},
		apply: func(claim *entities.Claim, now time.Time) {
			approver := approverID
			claim.ApprovedBy = &approver
			claim.ApprovedAt = &now
			claim.AppendComment(fmt.Sprintf("Approved by %s on %s", approverID, now.Format(commentTimeFormat)))
		},
	})
}

// Reject marks a claim REJECTED with the given reason
func (s *ClaimLifecycleService) Reject(ctx context.Context, claimID, reason, rejectorID string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return &TransitionResult{ClaimID: claimID, ErrorCode: entities.CodeReasonRequired, Message: "A rejection reason is required"}, nil
	}
	return s.transition(ctx, claimID, transitionStep{
		name:    "Reject",
		target:  entities.ClaimStatusRejected,
		event:   entities.ClaimEventRejected,
		action:  entities.AuditActionReject,
		actorID: rejectorID,
		reason:  reason,
		check: func(_ context.Context, claim *entities.Claim) (*TransitionResult, error) {
			if claim.Status == entities.ClaimStatusRejected {
				return transitionFailure(claim, entities.CodeAlreadyRejected, "Claim is already rejected"), nil
			}
			return nil, nil
		},
		apply: func(claim *entities.Claim, now time.Time) {
			claim.RejectedAt = &now
			claim.AppendComment(fmt.Sprintf("Rejected by %s on %s: %s", rejectorID, now.Format(commentTimeFormat), reason))
		},
	})
}

// Quarantine holds a claim for manual review
func (s *ClaimLifecycleService) Quarantine(ctx context.Context, claimID, reason, actorID string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return &TransitionResult{ClaimID: claimID, ErrorCode: entities.CodeReasonRequired, Message: "A quarantine reason is required"}, nil
	}
	return s.transition(ctx, claimID, transitionStep{
		name:    "Quarantine",
		target:  entities.ClaimStatusQuarantined,
		event:   entities.ClaimEventQuarantined,
		action:  entities.AuditActionQuarantine,
		actorID: actorID,
		reason:  reason,
		apply: func(claim *entities.Claim, now time.Time) {
			claim.Quarantined = true
			claim.AppendComment(fmt.Sprintf("Quarantined by %s on %s: %s", actorID, now.Format(commentTimeFormat), reason))
		},
	})
}

// Revert withdraws a submitted or approved claim. A reverted approval no longer
// counts toward the member's limit.
func (s *ClaimLifecycleService) Revert(ctx context.Context, claimID, reason, actorID string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return &TransitionResult{ClaimID: claimID, ErrorCode: entities.CodeReasonRequired, Message: "A revert reason is required"}, nil
	}
	return s.transition(ctx, claimID, transitionStep{
		name:    "Revert",
		target:  entities.ClaimStatusReverted,
		event:   entities.ClaimEventReverted,
		action:  entities.AuditActionRevert,
		actorID: actorID,
		reason:  reason,
		apply: func(claim *entities.Claim, now time.Time) {
			claim.AppendComment(fmt.Sprintf("Reverted by %s on %s: %s", actorID, now.Format(commentTimeFormat), reason))
		},
	})
}

// Pay records a payment against an APPROVED claim and marks it PAID
func (s *ClaimLifecycleService) Pay(ctx context.Context, claimID string, req PaymentRequest) (*PaymentResult, error) {
	ctx, span := observability.StartSpan(ctx, "ClaimLifecycleService.Pay", attribute.String("claim.id", claimID))
	defer span.End()

	var (
		result  *PaymentResult
		claim   *entities.Claim
		payment *entities.ClaimPayment
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		claim, err = s.claims.GetForUpdate(ctx, claimID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				result = &PaymentResult{ClaimID: claimID, ErrorCode: entities.CodeClaimNotFound, Message: "Claim not found"}
				return nil
			}
			return err
		}
		if claim.Status != entities.ClaimStatusApproved {
			result = &PaymentResult{
				ClaimID:   claimID,
				Stage:     claim.Status.Stage(),
				ErrorCode: entities.CodeClaimNotApproved,
				Message:   "Claim must be approved before payment",
			}
			return nil
		}

		amount := claim.MemberAmount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if eligibility := s.calculator.CheckPaymentEligibility(claim, amount); !eligibility.IsValid {
			result = &PaymentResult{
				ClaimID:   claimID,
				Amount:    amount,
				Stage:     claim.Status.Stage(),
				ErrorCode: eligibility.ErrorCode,
				Message:   eligibility.Message,
			}
			return nil
		}

		now := s.clock.Now()
		payment = newPayment(claim.ID, amount, entities.PaymentTypeClaim, req.Method, req.Reference, req.Remarks, req.PaidBy, now)
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}

		claim.Status = entities.ClaimStatusPaid
		claim.PaidAt = &now
		claim.UpdatedAt = now
		claim.AppendComment(fmt.Sprintf("Paid %s on %s", amount.StringFixed(money.Cents), now.Format(commentTimeFormat)))
		if err := s.claims.Update(ctx, claim); err != nil {
			return err
		}

		result = &PaymentResult{
			Success:   true,
			ClaimID:   claim.ID,
			PaymentID: payment.ID,
			Amount:    amount,
			Stage:     claim.Status.Stage(),
			Message:   "Payment processed",
		}
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if !result.Success {
		return result, nil
	}

	s.afterPayment(ctx, claim, payment, req.PaidBy, "")
	return result, nil
}

// Reimburse pays a member back directly. It records an approved claim for the
// service date together with a REIMBURSEMENT payment and marks it PAID in one transaction.
func (s *ClaimLifecycleService) Reimburse(ctx context.Context, req ReimbursementRequest) (*PaymentResult, error) {
	ctx, span := observability.StartSpan(ctx, "ClaimLifecycleService.Reimburse",
		attribute.String("member.id", req.MemberID))
	defer span.End()

	if errs := checkReimbursement(req); len(errs) > 0 {
		return &PaymentResult{ErrorCode: errs[0].ErrorCode, Message: errs[0].Message, Errors: errs}, nil
	}

	now := s.clock.Now()
	serviceDate := req.ServiceDate
	if serviceDate.IsZero() {
		serviceDate = now
	}
	formNumber := reimbursementNumber(now)
	sub := &ClaimSubmission{
		MemberID:        req.MemberID,
		HospitalID:      req.HospitalID,
		BenefitCode:     req.BenefitCode,
		ServiceDate:     entities.Day(serviceDate),
		ClaimFormNumber: formNumber,
		InvoiceNumber:   formNumber,
		Amount:          req.Amount,
		SubmittedBy:     req.RequestedBy,
	}
	if strings.TrimSpace(sub.BenefitCode) == "" {
		sub.BenefitCode = s.defaultBenefitCode
	}

	var (
		result  *PaymentResult
		claim   *entities.Claim
		payment *entities.ClaimPayment
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		admissibility, err := s.gate.IsServiceDateAdmissible(ctx, sub.ServiceDate)
		if err != nil {
			return err
		}
		if !admissibility.Admissible {
			result = &PaymentResult{ErrorCode: entities.CodeBillingSessionClosed, Message: admissibility.Reason}
			return nil
		}

		member, err := s.ledger.FindMember(ctx, sub.MemberID)
		if err != nil {
			return fmt.Errorf("resolve member scheme: %w", err)
		}
		if member != nil {
			sub.SchemeID = member.SchemeID
		}

		results, err := s.rules.Validate(ctx, sub)
		if err != nil {
			return err
		}
		if failures := entities.Failures(results); len(failures) > 0 {
			result = &PaymentResult{ErrorCode: failures[0].ErrorCode, Message: failures[0].Message, Errors: failures}
			return nil
		}

		financials, err := s.calculator.Calculate(ctx, CalculationRequest{
			ClaimAmount: sub.Amount,
			SchemeID:    sub.SchemeID,
			BenefitCode: sub.BenefitCode,
			MemberID:    sub.MemberID,
			ServiceDate: sub.ServiceDate,
		})
		if err != nil {
			return err
		}
		if !financials.BenefitAmount.IsPositive() {
			result = &PaymentResult{
				ErrorCode: entities.CodePaymentExceedsBenefit,
				Message:   "No benefit is available for this reimbursement",
			}
			return nil
		}

		claim = newClaim(sub, financials, admissibility.SessionID, now)
		requester := req.RequestedBy
		claim.Status = entities.ClaimStatusApproved
		claim.ApprovedBy = &requester
		claim.ApprovedAt = &now
		claim.AppendComment(fmt.Sprintf("Reimbursement: %s", req.Reason))
		if err := s.claims.Create(ctx, claim); err != nil {
			return err
		}

		payment = newPayment(claim.ID, claim.MemberAmount, entities.PaymentTypeReimbursement,
			req.Method, req.Reference, req.Reason, req.RequestedBy, now)
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}

		claim.Status = entities.ClaimStatusPaid
		claim.PaidAt = &now
		claim.AppendComment(fmt.Sprintf("Paid %s on %s", payment.Amount.StringFixed(money.Cents), now.Format(commentTimeFormat)))
		if err := s.claims.Update(ctx, claim); err != nil {
			return err
		}

		result = &PaymentResult{
			Success:   true,
			ClaimID:   claim.ID,
			PaymentID: payment.ID,
			Amount:    payment.Amount,
			Stage:     claim.Status.Stage(),
			Message:   "Reimbursement processed",
		}
		return nil
	})
	if err != nil {
		failure, ok := constraintFailure(err)
		if !ok {
			observability.RecordError(span, err)
			return nil, err
		}
		result = &PaymentResult{ErrorCode: failure.ErrorCode, Message: failure.Message, Errors: []entities.ValidationResult{failure}}
	}
	if !result.Success {
		return result, nil
	}

	s.afterPayment(ctx, claim, payment, req.RequestedBy, req.Reason)
	return result, nil
}

// Status projects a claim onto its workflow stage and financial summary
func (s *ClaimLifecycleService) Status(ctx context.Context, claimID string) (*StatusResult, error) {
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &StatusResult{ClaimID: claimID, ErrorCode: entities.CodeClaimNotFound, Message: "Claim not found"}, nil
		}
		return nil, err
	}
	return &StatusResult{
		Found:         true,
		ClaimID:       claim.ID,
		Status:        claim.Status,
		Stage:         claim.Status.Stage(),
		SubmittedAt:   claim.CreatedAt,
		ApprovedAt:    claim.ApprovedAt,
		PaidAt:        claim.PaidAt,
		Amount:        claim.ClaimedAmount,
		BenefitAmount: claim.MemberAmount,
		CoPayment:     claim.CoPayment,
		Quarantined:   claim.Quarantined,
	}, nil
}

type transitionStep struct {
	name    string
	target  entities.ClaimStatus
	event   entities.ClaimEventType
	action  entities.AuditAction
	actorID string
	reason  string

	// check runs on the locked claim before the transition table is consulted. A
	// non-nil result aborts the transition.
	check func(ctx context.Context, claim *entities.Claim) (*TransitionResult, error)
	apply func(claim *entities.Claim, now time.Time)
}

func (s *ClaimLifecycleService) transition(ctx context.Context, claimID string, step transitionStep) (*TransitionResult, error) {
	ctx, span := observability.StartSpan(ctx, "ClaimLifecycleService."+step.name,
		attribute.String("claim.id", claimID))
	defer span.End()

	var (
		result *TransitionResult
		claim  *entities.Claim
		from   entities.ClaimStatus
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		claim, err = s.claims.GetForUpdate(ctx, claimID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				result = &TransitionResult{ClaimID: claimID, ErrorCode: entities.CodeClaimNotFound, Message: "Claim not found"}
				return nil
			}
			return err
		}

		if step.check != nil {
			failure, err := step.check(ctx, claim)
			if err != nil {
				return err
			}
			if failure != nil {
				result = failure
				return nil
			}
		}

		if !entities.CanTransition(claim.Status, step.target) {
			result = transitionFailure(claim, entities.CodeInvalidTransition,
				fmt.Sprintf("Cannot move claim from %s to %s", claim.Status, step.target))
			return nil
		}

		now := s.clock.Now()
		from = claim.Status
		claim.Status = step.target
		claim.UpdatedAt = now
		if step.apply != nil {
			step.apply(claim, now)
		}
		if err := s.claims.Update(ctx, claim); err != nil {
			return err
		}

		result = &TransitionResult{
			Success: true,
			ClaimID: claim.ID,
			Status:  claim.Status,
			Stage:   claim.Status.Stage(),
		}
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if !result.Success {
		return result, nil
	}

	s.metrics.Transition(ctx, string(step.target))
	details := map[string]interface{}{
		"from": string(from),
		"to":   string(step.target),
	}
	if step.reason != "" {
		details["reason"] = step.reason
	}
	s.effects.Dispatch(ctx,
		entities.NewClaimEvent(step.event, claim, step.actorID, step.reason, claim.UpdatedAt),
		entities.NewAuditEntry(step.action, entities.AuditEntityClaim, claim.ID, step.actorID, details, claim.UpdatedAt),
	)
	observability.ClaimLogger(ctx, claim.ID).Info().
		Str("from", string(from)).
		Str("to", string(step.target)).
		Str("actor_id", step.actorID).
		Msg("claim status changed")
	return result, nil
}

func (s *ClaimLifecycleService) afterPayment(ctx context.Context, claim *entities.Claim, payment *entities.ClaimPayment, actorID, reason string) {
	s.metrics.Transition(ctx, string(entities.ClaimStatusPaid))
	s.effects.Dispatch(ctx,
		entities.NewClaimEvent(entities.ClaimEventPaid, claim, actorID, reason, payment.CreatedAt),
		entities.NewAuditEntry(entities.AuditActionPay, entities.AuditEntityPayment, payment.ID, actorID,
			map[string]interface{}{
				"claim_id":     claim.ID,
				"amount":       payment.Amount.String(),
				"method":       payment.Method,
				"payment_type": string(payment.Type),
			}, payment.CreatedAt),
	)
	observability.ClaimLogger(ctx, claim.ID).Info().
		Str("payment_id", payment.ID).
		Str("payment_type", string(payment.Type)).
		Str("amount", payment.Amount.String()).
		Msg("claim paid")
}

func transitionFailure(claim *entities.Claim, code, message string) *TransitionResult {
	return &TransitionResult{
		ClaimID:   claim.ID,
		Status:    claim.Status,
		Stage:     claim.Status.Stage(),
		ErrorCode: code,
		Message:   message,
	}
}

// constraintFailure turns a storage constraint violation into the matching
// validation failure
func constraintFailure(err error) (entities.ValidationResult, bool) {
	code := apperrors.CodeOf(err)
	var message string
	switch code {
	case entities.CodeDuplicateClaim:
		message = "Claim number already exists in the system"
	case entities.CodeDuplicateInvoice:
		message = "Invoice number already exists for this hospital"
	case entities.CodeMemberNotFound:
		message = "Member not found"
	case entities.CodeHospitalNotFound:
		message = "Hospital not found"
	case entities.CodeSchemeNotFound:
		message = "Scheme not found"
	default:
		return entities.ValidationResult{}, false
	}
	return entities.Invalid(code, message), true
}

func submitFailure(errs ...entities.ValidationResult) *SubmitResult {
	return &SubmitResult{Stage: entities.ClaimStageInitialSubmission, Errors: errs}
}

func checkSubmission(sub *ClaimSubmission) []entities.ValidationResult {
	var errs []entities.ValidationResult
	required := []struct {
		field string
		value string
	}{
		{"member_id", sub.MemberID},
		{"hospital_id", sub.HospitalID},
		{"claim_form_number", sub.ClaimFormNumber},
		{"invoice_number", sub.InvoiceNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, entities.FieldError(r.field, entities.CodeMissingField, fmt.Sprintf("%s is required", r.field)))
		}
	}
	if sub.ServiceDate.IsZero() {
		errs = append(errs, entities.FieldError("service_date", entities.CodeMissingField, "service_date is required"))
	}
	errs = append(errs, checkAmount(sub.Amount)...)
	for i, line := range sub.Details {
		field := fmt.Sprintf("details[%d]", i)
		switch {
		case strings.TrimSpace(line.ItemCode) == "":
			errs = append(errs, entities.FieldError(field, entities.CodeInvalidDetail, "item code is required"))
		case line.Quantity <= 0:
			errs = append(errs, entities.FieldError(field, entities.CodeInvalidDetail, "quantity must be greater than zero"))
		case line.UnitPrice.IsNegative():
			errs = append(errs, entities.FieldError(field, entities.CodeInvalidDetail, "unit price must not be negative"))
		}
	}
	return errs
}

func checkReimbursement(req ReimbursementRequest) []entities.ValidationResult {
	var errs []entities.ValidationResult
	if strings.TrimSpace(req.MemberID) == "" {
		errs = append(errs, entities.FieldError("member_id", entities.CodeMissingField, "member_id is required"))
	}
	if strings.TrimSpace(req.HospitalID) == "" {
		errs = append(errs, entities.FieldError("hospital_id", entities.CodeMissingField, "hospital_id is required"))
	}
	if strings.TrimSpace(req.Reason) == "" {
		errs = append(errs, entities.FieldError("reason", entities.CodeReasonRequired, "reason is required"))
	}
	return append(errs, checkAmount(req.Amount)...)
}

func checkAmount(amount decimal.Decimal) []entities.ValidationResult {
	switch {
	case !amount.IsPositive():
		return []entities.ValidationResult{entities.FieldError("amount", entities.CodeInvalidAmount, "amount must be greater than zero")}
	case !money.IsWholeCents(amount):
		return []entities.ValidationResult{entities.FieldError("amount", entities.CodeInvalidAmount, "amount must not have more than two decimal places")}
	}
	return nil
}

func newClaim(sub *ClaimSubmission, financials *Financials, sessionID string, now time.Time) *entities.Claim {
	claim := &entities.Claim{
		ID:               uuid.New().String(),
		MemberID:         sub.MemberID,
		HospitalID:       sub.HospitalID,
		SchemeID:         sub.SchemeID,
		BenefitCode:      sub.BenefitCode,
		ServiceCode:      sub.ServiceCode,
		ServiceDate:      sub.ServiceDate,
		ClaimFormNumber:  sub.ClaimFormNumber,
		InvoiceNumber:    sub.InvoiceNumber,
		ClaimedAmount:    financials.TotalAmount,
		CoPayment:        financials.CoPayment,
		MemberAmount:     financials.BenefitAmount,
		Status:           entities.ClaimStatusSubmitted,
		BillingSessionID: sessionID,
		CreatedBy:        sub.SubmittedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, line := range sub.Details {
		detail := entities.ClaimDetail{
			ID:          uuid.New().String(),
			ClaimID:     claim.ID,
			ItemCode:    line.ItemCode,
			Description: line.Description,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		}
		detail.ComputeLineTotal()
		claim.Details = append(claim.Details, detail)
	}
	return claim
}

func newPayment(claimID string, amount decimal.Decimal, paymentType entities.PaymentType, method, reference, remarks, createdBy string, now time.Time) *entities.ClaimPayment {
	if strings.TrimSpace(method) == "" {
		method = defaultPaymentMethod
	}
	return &entities.ClaimPayment{
		ID:        uuid.New().String(),
		ClaimID:   claimID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
		Type:      paymentType,
		Status:    entities.PaymentStatusProcessed,
		PaidOn:    now,
		Remarks:   remarks,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
}

func submissionFromClaim(claim *entities.Claim) *ClaimSubmission {
	return &ClaimSubmission{
		ClaimID:         claim.ID,
		MemberID:        claim.MemberID,
		HospitalID:      claim.HospitalID,
		SchemeID:        claim.SchemeID,
		BenefitCode:     claim.BenefitCode,
		ServiceCode:     claim.ServiceCode,
		ServiceDate:     claim.ServiceDate,
		ClaimFormNumber: claim.ClaimFormNumber,
		InvoiceNumber:   claim.InvoiceNumber,
		Amount:          claim.ClaimedAmount,
		SubmittedBy:     claim.CreatedBy,
	}
}

func reimbursementNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", reimbursementPrefix, now.UTC().Format("20060102150405"),
		strings.ToUpper(uuid.New().String()[:8]))
}

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmsultra/claimsengine/internal/application/services"
	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
)

func TestClaimLifecycleService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("prices and records a valid claim", func(t *testing.T) {
		h := newHarness(t)

		res, err := h.lifecycle.Submit(ctx, submission("CF-1", "INV-1"))

		require.NoError(t, err)
		require.True(t, res.Success, "%+v", res.Errors)
		assert.Equal(t, entities.ClaimStageDataValidation, res.Stage)
		assert.True(t, res.Financials.CoPayment.Equal(dec("200")))
		assert.True(t, res.Financials.BenefitAmount.Equal(dec("800")))

		claim, err := h.store.GetByID(ctx, res.ClaimID)
		require.NoError(t, err)
		assert.Equal(t, entities.ClaimStatusSubmitted, claim.Status)
		assert.Equal(t, "scheme-1", claim.SchemeID)
		assert.Equal(t, "GENERAL", claim.BenefitCode)
		assert.NotEmpty(t, claim.BillingSessionID)
		assert.True(t, claim.MemberAmount.Equal(dec("800")))
		require.Len(t, claim.Details, 1)
		assert.True(t, claim.Details[0].LineTotal.Equal(dec("1000")))

		h.lifecycle.WaitForSideEffects()
		assert.Equal(t, []entities.ClaimEventType{entities.ClaimEventSubmitted}, h.notifier.types(res.ClaimID))
		entries := h.store.AuditEntries(entities.AuditEntityClaim, res.ClaimID)
		require.Len(t, entries, 1)
		assert.Equal(t, entities.AuditActionCreate, entries[0].Action)
	})

	t.Run("structural errors never reach a collaborator", func(t *testing.T) {
		svc := services.NewClaimLifecycleService(services.ClaimLifecycleDeps{})

		res, err := svc.Submit(ctx, &services.ClaimSubmission{
			Amount:  dec("0"),
			Details: []services.ClaimLine{{ItemCode: "X", Quantity: 0, UnitPrice: dec("1")}},
		})

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, entities.ClaimStageInitialSubmission, res.Stage)
		assert.True(t, entities.HasCode(res.Errors, entities.CodeMissingField))
		assert.True(t, entities.HasCode(res.Errors, entities.CodeInvalidAmount))
		assert.True(t, entities.HasCode(res.Errors, entities.CodeInvalidDetail))
		assert.Len(t, res.Errors, 7)
	})

	t.Run("rejects a service date outside any open session", func(t *testing.T) {
		h := newHarness(t)
		sub := submission("CF-1", "INV-1")
		sub.ServiceDate = date(2026, 2, 10)

		res, err := h.lifecycle.Submit(ctx, sub)

		require.NoError(t, err)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, entities.CodeBillingSessionClosed, res.Errors[0].ErrorCode)
	})

	t.Run("rejects claims once the session is closed", func(t *testing.T) {
		h := newHarness(t)
		open, err := h.sessions.IsServiceDateAdmissible(ctx, date(2026, 3, 10))
		require.NoError(t, err)
		_, err = h.sessions.CloseSession(ctx, open.SessionID, "admin")
		require.NoError(t, err)

		res, err := h.lifecycle.Submit(ctx, submission("CF-1", "INV-1"))

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, entities.CodeBillingSessionClosed, res.Errors[0].ErrorCode)
	})

	t.Run("duplicate claim form number", func(t *testing.T) {
		h := newHarness(t)
		h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Submit(ctx, submission("CF-1", "INV-2"))

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.True(t, entities.HasCode(res.Errors, entities.CodeDuplicateClaim))
		assert.False(t, entities.HasCode(res.Errors, entities.CodeDuplicateInvoice))
	})

	t.Run("duplicate invoice for the same hospital", func(t *testing.T) {
		h := newHarness(t)
		h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Submit(ctx, submission("CF-2", "INV-1"))

		require.NoError(t, err)
		assert.True(t, entities.HasCode(res.Errors, entities.CodeDuplicateInvoice))
	})

	t.Run("reports every failing rule", func(t *testing.T) {
		h := newHarness(t)
		h.submit(t, "CF-1", "INV-1")
		sub := submission("CF-1", "INV-1")
		sub.Amount = dec("1250")

		res, err := h.lifecycle.Submit(ctx, sub)

		require.NoError(t, err)
		assert.True(t, entities.HasCode(res.Errors, entities.CodeDuplicateClaim))
		assert.True(t, entities.HasCode(res.Errors, entities.CodeDuplicateInvoice))
		assert.True(t, entities.HasCode(res.Errors, entities.CodePriceExceeded))
	})

	t.Run("unknown member", func(t *testing.T) {
		h := newHarness(t)
		sub := submission("CF-1", "INV-1")
		sub.MemberID = "ghost"

		res, err := h.lifecycle.Submit(ctx, sub)

		require.NoError(t, err)
		assert.True(t, entities.HasCode(res.Errors, entities.CodeMemberNotFound))
		assert.True(t, entities.HasCode(res.Errors, entities.CodeSchemeNotFound))
	})

	t.Run("unknown hospital without a service code", func(t *testing.T) {
		h := newHarness(t)
		sub := submission("CF-1", "INV-1")
		sub.HospitalID = "no-such-hospital"
		sub.ServiceCode = ""

		res, err := h.lifecycle.Submit(ctx, sub)

		require.NoError(t, err)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, entities.CodeHospitalNotFound, res.Errors[0].ErrorCode)
		exists, err := h.store.ExistsByClaimFormNumber(ctx, "CF-1", "")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("invoice numbers are scoped to the hospital", func(t *testing.T) {
		h := newHarness(t)
		h.store.AddHospital(entities.Hospital{ID: "hospital-2", Reference: "H-002", Name: "Lakeside Clinic", Status: entities.RecordStatusActive})
		h.submit(t, "CF-1", "INV-1")
		sub := submission("CF-2", "INV-1")
		sub.HospitalID = "hospital-2"
		sub.ServiceCode = ""

		res, err := h.lifecycle.Submit(ctx, sub)

		require.NoError(t, err)
		require.True(t, res.Success, "%+v", res.Errors)
		claim, err := h.store.GetByID(ctx, res.ClaimID)
		require.NoError(t, err)
		assert.Equal(t, "INV-1", claim.InvoiceNumber)
		assert.Equal(t, "hospital-2", claim.HospitalID)
	})

	t.Run("amounts finer than a cent are refused", func(t *testing.T) {
		h := newHarness(t)
		sub := submission("CF-1", "INV-1")
		sub.Amount = dec("1.005")

		res, err := h.lifecycle.Submit(ctx, sub)

		require.NoError(t, err)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, entities.CodeInvalidAmount, res.Errors[0].ErrorCode)
		assert.Equal(t, entities.ClaimStageInitialSubmission, res.Stage)
	})

	t.Run("a missing submission is a structural error", func(t *testing.T) {
		svc := services.NewClaimLifecycleService(services.ClaimLifecycleDeps{})

		res, err := svc.Submit(ctx, nil)

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.True(t, entities.HasCode(res.Errors, entities.CodeMissingField))
	})

	t.Run("storage uniqueness wins a race with the duplicate checks", func(t *testing.T) {
		h := newHarness(t, withClaims(func(r repositories.ClaimRepository) repositories.ClaimRepository {
			return blindClaims{r}
		}))
		h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Submit(ctx, submission("CF-1", "INV-2"))

		require.NoError(t, err)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, entities.CodeDuplicateClaim, res.Errors[0].ErrorCode)
	})
}

func TestClaimLifecycleService_Approve(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	claimID := h.submit(t, "CF-1", "INV-1")

	res, err := h.lifecycle.Approve(ctx, claimID, "reviewer-1")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, entities.ClaimStatusApproved, res.Status)
	assert.Equal(t, entities.ClaimStageApproval, res.Stage)

	claim, err := h.store.GetByID(ctx, claimID)
	require.NoError(t, err)
	require.NotNil(t, claim.ApprovedBy)
	assert.Equal(t, "reviewer-1", *claim.ApprovedBy)
	assert.Equal(t, "Approved by reviewer-1 on 2026-04-15 10:00:00", claim.Comments)

	again, err := h.lifecycle.Approve(ctx, claimID, "reviewer-2")
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Equal(t, entities.CodeAlreadyApproved, again.ErrorCode)

	unchanged, err := h.store.GetByID(ctx, claimID)
	require.NoError(t, err)
	assert.Equal(t, "reviewer-1", *unchanged.ApprovedBy)
	assert.Equal(t, "Approved by reviewer-1 on 2026-04-15 10:00:00", unchanged.Comments)

	h.lifecycle.WaitForSideEffects()
	assert.ElementsMatch(t,
		[]entities.ClaimEventType{entities.ClaimEventSubmitted, entities.ClaimEventApproved},
		h.notifier.types(claimID))
	approvals := 0
	for _, entry := range h.store.AuditEntries(entities.AuditEntityClaim, claimID) {
		if entry.Action == entities.AuditActionApprove {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)

	missing, err := h.lifecycle.Approve(ctx, "nope", "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, entities.CodeClaimNotFound, missing.ErrorCode)
}

func TestClaimLifecycleService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("records the reason", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Reject(ctx, claimID, "Not covered", "reviewer-1")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, entities.ClaimStatusRejected, res.Status)
		assert.Equal(t, entities.ClaimStageCompletion, res.Stage)

		claim, err := h.store.GetByID(ctx, claimID)
		require.NoError(t, err)
		assert.Equal(t, "Rejected by reviewer-1 on 2026-04-15 10:00:00: Not covered", claim.Comments)
		assert.NotNil(t, claim.RejectedAt)

		again, err := h.lifecycle.Reject(ctx, claimID, "Still not covered", "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, entities.CodeAlreadyRejected, again.ErrorCode)
	})

	t.Run("requires a reason", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Reject(ctx, claimID, "  ", "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, entities.CodeReasonRequired, res.ErrorCode)
	})

	t.Run("approved claims must be reverted instead", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")
		h.approve(t, claimID)

		res, err := h.lifecycle.Reject(ctx, claimID, "Late objection", "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, entities.CodeInvalidTransition, res.ErrorCode)
		assert.Equal(t, entities.ClaimStatusApproved, res.Status)
	})
}

func TestClaimLifecycleService_Pay(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses to pay a claim that is not approved", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Pay(ctx, claimID, services.PaymentRequest{PaidBy: "cashier-1"})

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, entities.CodeClaimNotApproved, res.ErrorCode)
		assert.Equal(t, "Claim must be approved before payment", res.Message)

		payments, err := h.store.Payments().ListByClaim(ctx, claimID)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("pays the benefit amount by default", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")
		h.approve(t, claimID)

		res, err := h.lifecycle.Pay(ctx, claimID, services.PaymentRequest{Reference: "TRX-1", PaidBy: "cashier-1"})

		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
		assert.True(t, res.Amount.Equal(dec("800")))
		assert.Equal(t, entities.ClaimStageCompletion, res.Stage)

		payments, err := h.store.Payments().ListByClaim(ctx, claimID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, res.PaymentID, payments[0].ID)
		assert.Equal(t, entities.PaymentTypeClaim, payments[0].Type)
		assert.Equal(t, "BANK_TRANSFER", payments[0].Method)

		claim, err := h.store.GetByID(ctx, claimID)
		require.NoError(t, err)
		assert.Equal(t, entities.ClaimStatusPaid, claim.Status)
		assert.NotNil(t, claim.PaidAt)
		assert.True(t, strings.HasSuffix(claim.Comments, "Paid 800.00 on 2026-04-15 10:00:00"), claim.Comments)

		again, err := h.lifecycle.Pay(ctx, claimID, services.PaymentRequest{PaidBy: "cashier-1"})
		require.NoError(t, err)
		assert.Equal(t, entities.CodeClaimNotApproved, again.ErrorCode)

		h.lifecycle.WaitForSideEffects()
		assert.ElementsMatch(t, []entities.ClaimEventType{
			entities.ClaimEventSubmitted, entities.ClaimEventApproved, entities.ClaimEventPaid,
		}, h.notifier.types(claimID))
		paid := h.store.AuditEntries(entities.AuditEntityPayment, res.PaymentID)
		require.Len(t, paid, 1)
		assert.Equal(t, claimID, paid[0].Details["claim_id"])
	})

	t.Run("refuses more than the benefit amount", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")
		h.approve(t, claimID)
		amount := dec("900")

		res, err := h.lifecycle.Pay(ctx, claimID, services.PaymentRequest{Amount: &amount})

		require.NoError(t, err)
		assert.Equal(t, entities.CodePaymentExceedsBenefit, res.ErrorCode)
	})

	t.Run("a failed status update rolls back the payment", func(t *testing.T) {
		h := newHarness(t, withClaims(func(r repositories.ClaimRepository) repositories.ClaimRepository {
			return &failingPaidUpdates{ClaimRepository: r}
		}))
		claimID := h.submit(t, "CF-1", "INV-1")
		h.approve(t, claimID)

		_, err := h.lifecycle.Pay(ctx, claimID, services.PaymentRequest{PaidBy: "cashier-1"})
		require.Error(t, err)

		payments, err := h.store.Payments().ListByClaim(ctx, claimID)
		require.NoError(t, err)
		assert.Empty(t, payments)

		claim, err := h.store.GetByID(ctx, claimID)
		require.NoError(t, err)
		assert.Equal(t, entities.ClaimStatusApproved, claim.Status)
	})
}

func TestClaimLifecycleService_ValidateQuarantineRevert(t *testing.T) {
	ctx := context.Background()

	t.Run("validate moves a clean claim to manual review", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Validate(ctx, claimID, "reviewer-1")

		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
		assert.Equal(t, entities.ClaimStatusValidated, res.Status)
		assert.Equal(t, entities.ClaimStageManualReview, res.Stage)

		again, err := h.lifecycle.Validate(ctx, claimID, "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, entities.CodeInvalidTransition, again.ErrorCode)
	})

	t.Run("quarantined claims can only be rejected", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")

		res, err := h.lifecycle.Quarantine(ctx, claimID, "Suspected fraud", "auditor-1")
		require.NoError(t, err)
		require.True(t, res.Success)

		claim, err := h.store.GetByID(ctx, claimID)
		require.NoError(t, err)
		assert.True(t, claim.Quarantined)

		approve, err := h.lifecycle.Approve(ctx, claimID, "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, entities.CodeInvalidTransition, approve.ErrorCode)

		reject, err := h.lifecycle.Reject(ctx, claimID, "Fraud confirmed", "auditor-1")
		require.NoError(t, err)
		assert.True(t, reject.Success)
	})

	t.Run("reverting an approval frees the member limit", func(t *testing.T) {
		h := newHarness(t)
		claimID := h.submit(t, "CF-1", "INV-1")
		h.approve(t, claimID)

		used, err := h.store.SumMemberAmount(ctx, "member-1", date(2026, 1, 1), date(2026, 12, 31))
		require.NoError(t, err)
		assert.True(t, used.Equal(dec("800")))

		res, err := h.lifecycle.Revert(ctx, claimID, "Entered in error", "admin")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, entities.ClaimStatusReverted, res.Status)

		used, err = h.store.SumMemberAmount(ctx, "member-1", date(2026, 1, 1), date(2026, 12, 31))
		require.NoError(t, err)
		assert.True(t, used.IsZero())

		h.lifecycle.WaitForSideEffects()
		entries := h.store.AuditEntries(entities.AuditEntityClaim, claimID)
		require.Len(t, entries, 3)
		var revert *entities.AuditEntry
		for _, e := range entries {
			if e.Action == entities.AuditActionRevert {
				revert = e
			}
		}
		require.NotNil(t, revert)
		assert.Equal(t, "Entered in error", revert.Details["reason"])
		assert.Equal(t, "APPROVED", revert.Details["from"])
	})
}

func TestClaimLifecycleService_Status(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	claimID := h.submit(t, "CF-1", "INV-1")
	h.approve(t, claimID)

	got, err := h.lifecycle.Status(ctx, claimID)

	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, entities.ClaimStatusApproved, got.Status)
	assert.Equal(t, entities.ClaimStageApproval, got.Stage)
	assert.Equal(t, h.now, got.SubmittedAt)
	require.NotNil(t, got.ApprovedAt)
	assert.Nil(t, got.PaidAt)
	assert.True(t, got.Amount.Equal(dec("1000")))
	assert.True(t, got.BenefitAmount.Equal(dec("800")))
	assert.True(t, got.CoPayment.Equal(dec("200")))

	missing, err := h.lifecycle.Status(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.Equal(t, entities.CodeClaimNotFound, missing.ErrorCode)
}

func TestClaimLifecycleService_Reimburse(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults the service date to today", func(t *testing.T) {
		h := newHarness(t)

		res, err := h.lifecycle.Reimburse(ctx, services.ReimbursementRequest{
			MemberID: "member-1", HospitalID: "hospital-1", Amount: dec("500"), Reason: "Paid out of pocket", RequestedBy: "clerk-1",
		})

		require.NoError(t, err)
		assert.Equal(t, entities.CodeBillingSessionClosed, res.ErrorCode)
	})

	t.Run("records a paid reimbursement claim", func(t *testing.T) {
		h := newHarness(t)
		april, err := h.sessions.CreateSession(ctx, date(2026, 4, 1), date(2026, 4, 15), "admin")
		require.NoError(t, err)
		require.True(t, april.Success, april.Message)

		res, err := h.lifecycle.Reimburse(ctx, services.ReimbursementRequest{
			MemberID: "member-1", HospitalID: "hospital-1", Amount: dec("500"), Reason: "Paid out of pocket", RequestedBy: "clerk-1",
		})

		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
		assert.True(t, res.Amount.Equal(dec("400")))

		claim, err := h.store.GetByID(ctx, res.ClaimID)
		require.NoError(t, err)
		assert.Equal(t, entities.ClaimStatusPaid, claim.Status)
		assert.True(t, strings.HasPrefix(claim.ClaimFormNumber, "REIMB-20260415100000-"), claim.ClaimFormNumber)
		assert.Equal(t, april.Session.ID, claim.BillingSessionID)

		payments, err := h.store.Payments().ListByClaim(ctx, res.ClaimID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, entities.PaymentTypeReimbursement, payments[0].Type)
	})

	t.Run("reimburses a cost incurred mid-session", func(t *testing.T) {
		h := newHarness(t)
		march, err := h.sessions.IsServiceDateAdmissible(ctx, date(2026, 3, 10))
		require.NoError(t, err)
		require.True(t, march.Admissible)

		res, err := h.lifecycle.Reimburse(ctx, services.ReimbursementRequest{
			MemberID: "member-1", HospitalID: "hospital-1", ServiceDate: date(2026, 3, 10),
			Amount: dec("500"), Reason: "Paid out of pocket", RequestedBy: "clerk-1",
		})

		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
		assert.True(t, res.Amount.Equal(dec("400")))

		claim, err := h.store.GetByID(ctx, res.ClaimID)
		require.NoError(t, err)
		assert.True(t, claim.ServiceDate.Equal(date(2026, 3, 10)))
		assert.Equal(t, march.SessionID, claim.BillingSessionID)
		assert.Equal(t, entities.ClaimStatusPaid, claim.Status)
	})

	t.Run("refuses a service date outside any open session", func(t *testing.T) {
		h := newHarness(t)

		res, err := h.lifecycle.Reimburse(ctx, services.ReimbursementRequest{
			MemberID: "member-1", HospitalID: "hospital-1", ServiceDate: date(2026, 2, 10),
			Amount: dec("500"), Reason: "Paid out of pocket", RequestedBy: "clerk-1",
		})

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, entities.CodeBillingSessionClosed, res.ErrorCode)
	})

	t.Run("validates the request", func(t *testing.T) {
		h := newHarness(t)

		res, err := h.lifecycle.Reimburse(ctx, services.ReimbursementRequest{Amount: dec("-1")})

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Len(t, res.Errors, 4)
	})
}

// blindClaims hides existing claims from the duplicate checks so only the storage
// constraint can catch a duplicate
type blindClaims struct {
	repositories.ClaimRepository
}

func (blindClaims) ExistsByClaimFormNumber(context.Context, string, string) (bool, error) {
	return false, nil
}

func (blindClaims) ExistsByInvoice(context.Context, string, string, string) (bool, error) {
	return false, nil
}

type failingPaidUpdates struct {
	repositories.ClaimRepository
}

func (f *failingPaidUpdates) Update(ctx context.Context, claim *entities.Claim) error {
	if claim.Status == entities.ClaimStatusPaid {
		return errors.New("disk full")
	}
	return f.ClaimRepository.Update(ctx, claim)
}

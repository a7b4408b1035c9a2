package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

var claimColumns = []interface{}{
	"id", "member_id", "hospital_id", "scheme_id", "benefit_code", "service_code",
	"service_date", "claim_form_number", "invoice_number", "claimed_amount",
	"co_payment", "member_amount", "status", "comments", "quarantined",
	"billing_session_id", "created_by", "approved_by", "approved_at",
	"rejected_at", "paid_at", "created_at", "updated_at",
}

// ClaimAdapter implements ClaimRepository
type ClaimAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewClaimAdapter creates a new claim adapter
func NewClaimAdapter(client *postgres.Client) repositories.ClaimRepository {
	return &ClaimAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the claim and its details atomically
func (a *ClaimAdapter) Create(ctx context.Context, claim *entities.Claim) error {
	record := goqu.Record{
		"id":                 claim.ID,
		"member_id":          claim.MemberID,
		"hospital_id":        claim.HospitalID,
		"scheme_id":          claim.SchemeID,
		"benefit_code":       claim.BenefitCode,
		"service_code":       nullString(claim.ServiceCode),
		"service_date":       sqlDate(claim.ServiceDate),
		"claim_form_number":  claim.ClaimFormNumber,
		"invoice_number":     claim.InvoiceNumber,
		"claimed_amount":     claim.ClaimedAmount,
		"co_payment":         claim.CoPayment,
		"member_amount":      claim.MemberAmount,
		"status":             string(claim.Status),
		"comments":           claim.Comments,
		"quarantined":        claim.Quarantined,
		"billing_session_id": claim.BillingSessionID,
		"created_by":         claim.CreatedBy,
		"approved_by":        nullStringPtr(claim.ApprovedBy),
		"approved_at":        nullTime(claim.ApprovedAt),
		"rejected_at":        nullTime(claim.RejectedAt),
		"paid_at":            nullTime(claim.PaidAt),
		"created_at":         claim.CreatedAt,
		"updated_at":         claim.UpdatedAt,
	}

	query, _, err := a.db.Insert("claims").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return a.client.WithinTransaction(ctx, func(ctx context.Context) error {
		exec := a.client.Executor(ctx)
		if _, err := exec.ExecContext(ctx, query); err != nil {
			return translateError(err, "failed to create claim")
		}
		if len(claim.Details) == 0 {
			return nil
		}

		rows := make([]interface{}, 0, len(claim.Details))
		for _, d := range claim.Details {
			rows = append(rows, goqu.Record{
				"id":          d.ID,
				"claim_id":    claim.ID,
				"item_code":   d.ItemCode,
				"description": d.Description,
				"unit_price":  d.UnitPrice,
				"quantity":    d.Quantity,
				"line_total":  d.LineTotal,
			})
		}
		detailQuery, _, err := a.db.Insert("claim_details").Rows(rows...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build detail insert query", err)
		}
		if _, err := exec.ExecContext(ctx, detailQuery); err != nil {
			return translateError(err, "failed to create claim details")
		}
		return nil
	})
}

// GetByID retrieves a claim with its details
func (a *ClaimAdapter) GetByID(ctx context.Context, id string) (*entities.Claim, error) {
	return a.get(ctx, id, false)
}

// GetForUpdate retrieves a claim and locks its row for the rest of the transaction
func (a *ClaimAdapter) GetForUpdate(ctx context.Context, id string) (*entities.Claim, error) {
	return a.get(ctx, id, true)
}

func (a *ClaimAdapter) get(ctx context.Context, id string, forUpdate bool) (*entities.Claim, error) {
	ds := a.db.Select(claimColumns...).From("claims").Where(goqu.Ex{"id": id})
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	exec := a.client.Executor(ctx)
	claim, err := scanClaim(exec.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("claim with id %s not found", id)).
			WithCode(entities.CodeClaimNotFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get claim", err)
	}

	details, err := a.details(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	claim.Details = details
	return claim, nil
}

func (a *ClaimAdapter) details(ctx context.Context, exec postgres.Executor, claimID string) ([]entities.ClaimDetail, error) {
	query, _, err := a.db.Select(
		"id", "claim_id", "item_code", "description", "unit_price", "quantity", "line_total",
	).From("claim_details").
		Where(goqu.Ex{"claim_id": claimID}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get claim details", err)
	}
	defer rows.Close()

	var details []entities.ClaimDetail
	for rows.Next() {
		var d entities.ClaimDetail
		if err := rows.Scan(&d.ID, &d.ClaimID, &d.ItemCode, &d.Description, &d.UnitPrice, &d.Quantity, &d.LineTotal); err != nil {
			return nil, apperrors.NewInternalError("failed to scan claim detail", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate claim details", err)
	}
	return details, nil
}

// Update persists the mutable fields of a claim
func (a *ClaimAdapter) Update(ctx context.Context, claim *entities.Claim) error {
	record := goqu.Record{
		"co_payment":    claim.CoPayment,
		"member_amount": claim.MemberAmount,
		"status":        string(claim.Status),
		"comments":      claim.Comments,
		"quarantined":   claim.Quarantined,
		"approved_by":   nullStringPtr(claim.ApprovedBy),
		"approved_at":   nullTime(claim.ApprovedAt),
		"rejected_at":   nullTime(claim.RejectedAt),
		"paid_at":       nullTime(claim.PaidAt),
		"updated_at":    claim.UpdatedAt,
	}

	query, _, err := a.db.Update("claims").
		Set(record).
		Where(goqu.Ex{"id": claim.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.Executor(ctx).ExecContext(ctx, query)
	if err != nil {
		return translateError(err, "failed to update claim")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("claim with id %s not found", claim.ID)).
			WithCode(entities.CodeClaimNotFound)
	}
	return nil
}

// ExistsByClaimFormNumber reports whether a claim other than excludeID uses the number
func (a *ClaimAdapter) ExistsByClaimFormNumber(ctx context.Context, claimFormNumber, excludeID string) (bool, error) {
	return a.exists(ctx, goqu.Ex{"claim_form_number": claimFormNumber}, excludeID)
}

// ExistsByInvoice reports whether a claim other than excludeID from the hospital uses the invoice number
func (a *ClaimAdapter) ExistsByInvoice(ctx context.Context, hospitalID, invoiceNumber, excludeID string) (bool, error) {
	return a.exists(ctx, goqu.Ex{"hospital_id": hospitalID, "invoice_number": invoiceNumber}, excludeID)
}

func (a *ClaimAdapter) exists(ctx context.Context, where goqu.Ex, excludeID string) (bool, error) {
	ds := a.db.Select(goqu.COUNT("*")).From("claims").Where(where)
	if excludeID != "" {
		ds = ds.Where(goqu.C("id").Neq(excludeID))
	}
	query, _, err := ds.ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check claim uniqueness", err)
	}
	return count > 0, nil
}

// SumMemberAmount totals the member's approved and paid benefit in [from, to]
func (a *ClaimAdapter) SumMemberAmount(ctx context.Context, memberID string, from, to time.Time) (decimal.Decimal, error) {
	query, _, err := a.db.Select(goqu.COALESCE(goqu.SUM("member_amount"), 0)).
		From("claims").
		Where(
			goqu.C("member_id").Eq(memberID),
			goqu.C("status").In(string(entities.ClaimStatusApproved), string(entities.ClaimStatusPaid)),
			goqu.C("service_date").Gte(sqlDate(from)),
			goqu.C("service_date").Lte(sqlDate(to)),
		).
		ToSQL()
	if err != nil {
		return decimal.Zero, apperrors.NewInternalError("failed to build query", err)
	}

	var used decimal.Decimal
	if err := a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(&used); err != nil {
		return decimal.Zero, apperrors.NewInternalError("failed to sum member benefit", err)
	}
	return used, nil
}

// Totals aggregates claims by service date. Approved totals include paid claims.
func (a *ClaimAdapter) Totals(ctx context.Context, from, to time.Time) (*entities.ClaimTotals, error) {
	query, _, err := a.db.Select(
		goqu.COUNT("*"),
		goqu.COALESCE(goqu.SUM("claimed_amount"), 0),
		goqu.L("COUNT(*) FILTER (WHERE status IN ('APPROVED', 'PAID'))"),
		goqu.L("COALESCE(SUM(claimed_amount) FILTER (WHERE status IN ('APPROVED', 'PAID')), 0)"),
		goqu.L("COUNT(*) FILTER (WHERE status = 'PAID')"),
		goqu.L("COALESCE(SUM(claimed_amount) FILTER (WHERE status = 'PAID'), 0)"),
	).From("claims").
		Where(
			goqu.C("service_date").Gte(sqlDate(from)),
			goqu.C("service_date").Lte(sqlDate(to)),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	totals := &entities.ClaimTotals{}
	err = a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&totals.TotalCount,
		&totals.TotalAmount,
		&totals.ApprovedCount,
		&totals.ApprovedAmount,
		&totals.PaidCount,
		&totals.PaidAmount,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to compute claim totals", err)
	}
	return totals, nil
}

func scanClaim(row rowScanner) (*entities.Claim, error) {
	claim := &entities.Claim{}
	var (
		serviceCode, approvedBy        sql.NullString
		approvedAt, rejectedAt, paidAt sql.NullTime
		status                         string
	)
	err := row.Scan(
		&claim.ID,
		&claim.MemberID,
		&claim.HospitalID,
		&claim.SchemeID,
		&claim.BenefitCode,
		&serviceCode,
		&claim.ServiceDate,
		&claim.ClaimFormNumber,
		&claim.InvoiceNumber,
		&claim.ClaimedAmount,
		&claim.CoPayment,
		&claim.MemberAmount,
		&status,
		&claim.Comments,
		&claim.Quarantined,
		&claim.BillingSessionID,
		&claim.CreatedBy,
		&approvedBy,
		&approvedAt,
		&rejectedAt,
		&paidAt,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	claim.ServiceCode = serviceCode.String
	claim.Status = entities.ClaimStatus(status)
	claim.ApprovedBy = stringPtr(approvedBy)
	claim.ApprovedAt = timePtr(approvedAt)
	claim.RejectedAt = timePtr(rejectedAt)
	claim.PaidAt = timePtr(paidAt)
	return claim, nil
}

package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

// PaymentAdapter implements PaymentRepository
type PaymentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPaymentAdapter creates a new payment adapter
func NewPaymentAdapter(client *postgres.Client) repositories.PaymentRepository {
	return &PaymentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create records a payment
func (a *PaymentAdapter) Create(ctx context.Context, payment *entities.ClaimPayment) error {
	record := goqu.Record{
		"id":           payment.ID,
		"claim_id":     payment.ClaimID,
		"amount":       payment.Amount,
		"method":       payment.Method,
		"reference":    payment.Reference,
		"payment_type": string(payment.Type),
		"status":       string(payment.Status),
		"paid_on":      payment.PaidOn,
		"remarks":      payment.Remarks,
		"created_by":   payment.CreatedBy,
		"created_at":   payment.CreatedAt,
	}

	query, _, err := a.db.Insert("claim_payments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.Executor(ctx).ExecContext(ctx, query); err != nil {
		return translateError(err, "failed to create claim payment")
	}
	return nil
}

// ListByClaim returns the payments made against a claim, oldest first
func (a *PaymentAdapter) ListByClaim(ctx context.Context, claimID string) ([]*entities.ClaimPayment, error) {
	query, _, err := a.db.Select(
		"id", "claim_id", "amount", "method", "reference", "payment_type",
		"status", "paid_on", "remarks", "created_by", "created_at",
	).From("claim_payments").
		Where(goqu.Ex{"claim_id": claimID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list claim payments", err)
	}
	defer rows.Close()

	var payments []*entities.ClaimPayment
	for rows.Next() {
		p := &entities.ClaimPayment{}
		var paymentType, status string
		err := rows.Scan(
			&p.ID, &p.ClaimID, &p.Amount, &p.Method, &p.Reference, &paymentType,
			&status, &p.PaidOn, &p.Remarks, &p.CreatedBy, &p.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan claim payment", err)
		}
		p.Type = entities.PaymentType(paymentType)
		p.Status = entities.PaymentStatus(status)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate claim payments", err)
	}
	return payments, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// ClaimRepository defines operations for claim storage. Every method runs inside the
// transaction carried by ctx when there is one.
type ClaimRepository interface {
	// Create inserts the claim and its detail lines
	Create(ctx context.Context, claim *entities.Claim) error

	// GetByID returns the claim with its details or a NOT_FOUND AppError
	GetByID(ctx context.Context, id string) (*entities.Claim, error)

	// GetForUpdate is GetByID holding a row lock until the transaction ends
	GetForUpdate(ctx context.Context, id string) (*entities.Claim, error)

	// Update persists status, financial and audit fields
	Update(ctx context.Context, claim *entities.Claim) error

	// ExistsByClaimFormNumber reports whether another claim uses the number
	ExistsByClaimFormNumber(ctx context.Context, claimFormNumber, excludeID string) (bool, error)

	// ExistsByInvoice reports whether another claim from the hospital uses the invoice number
	ExistsByInvoice(ctx context.Context, hospitalID, invoiceNumber, excludeID string) (bool, error)

	// SumMemberAmount totals the benefit amounts of the member's APPROVED and PAID
	// claims with a service date in [from, to]
	SumMemberAmount(ctx context.Context, memberID string, from, to time.Time) (decimal.Decimal, error)

	// Totals aggregates claims with a service date in [from, to]
	Totals(ctx context.Context, from, to time.Time) (*entities.ClaimTotals, error)
}

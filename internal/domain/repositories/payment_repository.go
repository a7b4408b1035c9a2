package repositories

import (
	"context"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// PaymentRepository defines operations for claim payment storage
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.ClaimPayment) error
	ListByClaim(ctx context.Context, claimID string) ([]*entities.ClaimPayment, error)
}

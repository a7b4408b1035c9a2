package repositories

import (
	"context"
	"time"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// BillingSessionRepository defines operations for billing session storage
type BillingSessionRepository interface {
	Create(ctx context.Context, session *entities.BillingSession) error
	GetByID(ctx context.Context, id string) (*entities.BillingSession, error)
	GetForUpdate(ctx context.Context, id string) (*entities.BillingSession, error)
	Update(ctx context.Context, session *entities.BillingSession) error

	// FindOpenCovering returns OPEN sessions whose window contains date
	FindOpenCovering(ctx context.Context, date time.Time) ([]*entities.BillingSession, error)

	// FindOverlapping returns non-CLOSED sessions intersecting [from, to]
	FindOverlapping(ctx context.Context, from, to time.Time) ([]*entities.BillingSession, error)
}

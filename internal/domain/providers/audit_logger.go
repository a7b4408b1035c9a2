package providers

import (
	"context"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// AuditLogger records state changes outside the business transaction
type AuditLogger interface {
	Log(ctx context.Context, entry *entities.AuditEntry) error
}

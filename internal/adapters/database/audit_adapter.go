package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/doug-martin/goqu/v9"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

// AuditAdapter implements AuditLogger on the audit_log table. Entries are written
// on the pool, never inside a business transaction.
type AuditAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAuditAdapter creates a new audit adapter
func NewAuditAdapter(client *postgres.Client) providers.AuditLogger {
	return &AuditAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Log appends an audit entry
func (a *AuditAdapter) Log(ctx context.Context, entry *entities.AuditEntry) error {
	details := sql.NullString{}
	if len(entry.Details) > 0 {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return apperrors.NewInternalError("failed to encode audit details", err)
		}
		details = sql.NullString{String: string(data), Valid: true}
	}

	record := goqu.Record{
		"id":          entry.ID,
		"action":      string(entry.Action),
		"entity_type": entry.EntityType,
		"entity_id":   entry.EntityID,
		"user_id":     entry.UserID,
		"details":     details,
		"created_at":  entry.CreatedAt,
	}

	query, _, err := a.db.Insert("audit_log").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to write audit entry", err)
	}
	return nil
}

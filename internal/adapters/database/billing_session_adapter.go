package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

var billingSessionColumns = []interface{}{
	"id", "from_date", "to_date", "status", "total_claims", "total_amount",
	"created_by", "created_at", "closed_at", "updated_at",
}

// BillingSessionAdapter implements BillingSessionRepository
type BillingSessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBillingSessionAdapter creates a new billing session adapter
func NewBillingSessionAdapter(client *postgres.Client) repositories.BillingSessionRepository {
	return &BillingSessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a billing session
func (a *BillingSessionAdapter) Create(ctx context.Context, session *entities.BillingSession) error {
	record := goqu.Record{
		"id":           session.ID,
		"from_date":    sqlDate(session.FromDate),
		"to_date":      sqlDate(session.ToDate),
		"status":       string(session.Status),
		"total_claims": session.TotalClaims,
		"total_amount": session.TotalAmount,
		"created_by":   session.CreatedBy,
		"created_at":   session.CreatedAt,
		"closed_at":    nullTime(session.ClosedAt),
		"updated_at":   session.UpdatedAt,
	}

	query, _, err := a.db.Insert("billing_sessions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.Executor(ctx).ExecContext(ctx, query); err != nil {
		return translateError(err, "failed to create billing session")
	}
	return nil
}

// GetByID retrieves a billing session by ID
func (a *BillingSessionAdapter) GetByID(ctx context.Context, id string) (*entities.BillingSession, error) {
	return a.get(ctx, id, false)
}

// GetForUpdate retrieves a billing session and locks its row
func (a *BillingSessionAdapter) GetForUpdate(ctx context.Context, id string) (*entities.BillingSession, error) {
	return a.get(ctx, id, true)
}

func (a *BillingSessionAdapter) get(ctx context.Context, id string, forUpdate bool) (*entities.BillingSession, error) {
	ds := a.db.Select(billingSessionColumns...).From("billing_sessions").Where(goqu.Ex{"id": id})
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	session, err := scanBillingSession(a.client.Executor(ctx).QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("billing session with id %s not found", id)).
			WithCode(entities.CodeSessionNotFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get billing session", err)
	}
	return session, nil
}

// Update persists the status and totals of a billing session
func (a *BillingSessionAdapter) Update(ctx context.Context, session *entities.BillingSession) error {
	record := goqu.Record{
		"status":       string(session.Status),
		"total_claims": session.TotalClaims,
		"total_amount": session.TotalAmount,
		"closed_at":    nullTime(session.ClosedAt),
		"updated_at":   session.UpdatedAt,
	}

	query, _, err := a.db.Update("billing_sessions").
		Set(record).
		Where(goqu.Ex{"id": session.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.Executor(ctx).ExecContext(ctx, query)
	if err != nil {
		return translateError(err, "failed to update billing session")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("billing session with id %s not found", session.ID)).
			WithCode(entities.CodeSessionNotFound)
	}
	return nil
}

// FindOpenCovering returns OPEN sessions whose window contains date
func (a *BillingSessionAdapter) FindOpenCovering(ctx context.Context, date time.Time) ([]*entities.BillingSession, error) {
	day := sqlDate(date)
	return a.list(ctx,
		goqu.C("status").Eq(string(entities.BillingSessionOpen)),
		goqu.C("from_date").Lte(day),
		goqu.C("to_date").Gte(day),
	)
}

// FindOverlapping returns non-CLOSED sessions intersecting [from, to]
func (a *BillingSessionAdapter) FindOverlapping(ctx context.Context, from, to time.Time) ([]*entities.BillingSession, error) {
	return a.list(ctx,
		goqu.C("status").Neq(string(entities.BillingSessionClosed)),
		goqu.C("from_date").Lte(sqlDate(to)),
		goqu.C("to_date").Gte(sqlDate(from)),
	)
}

func (a *BillingSessionAdapter) list(ctx context.Context, where ...exp.Expression) ([]*entities.BillingSession, error) {
	query, _, err := a.db.Select(billingSessionColumns...).
		From("billing_sessions").
		Where(where...).
		Order(goqu.I("from_date").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list billing sessions", err)
	}
	defer rows.Close()

	var sessions []*entities.BillingSession
	for rows.Next() {
		session, err := scanBillingSession(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan billing session", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate billing sessions", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBillingSession(row rowScanner) (*entities.BillingSession, error) {
	session := &entities.BillingSession{}
	var (
		status   string
		closedAt sql.NullTime
	)
	err := row.Scan(
		&session.ID,
		&session.FromDate,
		&session.ToDate,
		&status,
		&session.TotalClaims,
		&session.TotalAmount,
		&session.CreatedBy,
		&session.CreatedAt,
		&closedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Status = entities.BillingSessionStatus(status)
	session.ClosedAt = timePtr(closedAt)
	return session, nil
}

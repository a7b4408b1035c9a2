package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/observability"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

const noOpenSessionReason = "No open billing session for this date"

// Admissibility is the gate's answer for a service date
type Admissibility struct {
	Admissible bool   `json:"admissible"`
	SessionID  string `json:"session_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SessionResult is the outcome of a billing session operation
type SessionResult struct {
	Success   bool                     `json:"success"`
	Session   *entities.BillingSession `json:"session,omitempty"`
	Totals    *entities.ClaimTotals    `json:"totals,omitempty"`
	ErrorCode string                   `json:"error_code,omitempty"`
	Message   string                   `json:"message,omitempty"`
}

func sessionFailure(code, message string) *SessionResult {
	return &SessionResult{ErrorCode: code, Message: message}
}

// BillingSessionService decides which service dates may receive claims and manages
// the accounting windows that govern them
type BillingSessionService struct {
	tx       repositories.Transactor
	sessions repositories.BillingSessionRepository
	claims   repositories.ClaimRepository
	effects  *SideEffectDispatcher
	clock    providers.Clock
	metrics  *observability.ClaimMetrics
}

// NewBillingSessionService creates a new billing session service
func NewBillingSessionService(
	tx repositories.Transactor,
	sessions repositories.BillingSessionRepository,
	claims repositories.ClaimRepository,
	effects *SideEffectDispatcher,
	clock providers.Clock,
	metrics *observability.ClaimMetrics,
) *BillingSessionService {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &BillingSessionService{
		tx:       tx,
		sessions: sessions,
		claims:   claims,
		effects:  effects,
		clock:    clock,
		metrics:  metrics,
	}
}

// IsServiceDateAdmissible reports whether exactly one OPEN session covers date
func (s *BillingSessionService) IsServiceDateAdmissible(ctx context.Context, date time.Time) (*Admissibility, error) {
	open, err := s.sessions.FindOpenCovering(ctx, entities.Day(date))
	if err != nil {
		return nil, fmt.Errorf("find open billing sessions: %w", err)
	}

	switch len(open) {
	case 0:
		return &Admissibility{Reason: noOpenSessionReason}, nil
	case 1:
		return &Admissibility{Admissible: true, SessionID: open[0].ID}, nil
	default:
		observability.LoggerFromContext(ctx).Error().
			Time("service_date", date).
			Int("open_sessions", len(open)).
			Msg("service date covered by more than one open billing session")
		return &Admissibility{Reason: "Service date is covered by more than one open billing session"}, nil
	}
}

// CreateSession opens a billing session for [from, to]
func (s *BillingSessionService) CreateSession(ctx context.Context, from, to time.Time, createdBy string) (*SessionResult, error) {
	ctx, span := observability.StartSpan(ctx, "BillingSessionService.CreateSession")
	defer span.End()

	from, to = entities.Day(from), entities.Day(to)
	if failure := s.validateDates(from, to); failure != nil {
		return failure, nil
	}

	var result *SessionResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		overlapping, err := s.sessions.FindOverlapping(ctx, from, to)
		if err != nil {
			return fmt.Errorf("find overlapping sessions: %w", err)
		}
		if len(overlapping) > 0 {
			result = sessionFailure(entities.CodeSessionOverlap,
				fmt.Sprintf("Session overlaps with existing session %s", overlapping[0].ID))
			return nil
		}

		totals, err := s.claims.Totals(ctx, from, to)
		if err != nil {
			return fmt.Errorf("compute session totals: %w", err)
		}

		now := s.clock.Now()
		session := &entities.BillingSession{
			ID:        uuid.New().String(),
			FromDate:  from,
			ToDate:    to,
			Status:    entities.BillingSessionOpen,
			CreatedBy: createdBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		session.ApplyTotals(*totals)

		if err := s.sessions.Create(ctx, session); err != nil {
			return err
		}

		result = &SessionResult{Success: true, Session: session, Totals: totals, Message: "Billing session created"}
		return nil
	})
	if err != nil {
		if apperrors.CodeOf(err) == entities.CodeSessionOverlap {
			return sessionFailure(entities.CodeSessionOverlap, "Session overlaps with an existing session"), nil
		}
		observability.RecordError(span, err)
		return nil, err
	}

	if result.Success {
		span.SetAttributes(attribute.String("billing_session.id", result.Session.ID))
		observability.LoggerFromContext(ctx).Info().
			Str("session_id", result.Session.ID).
			Time("from", from).
			Time("to", to).
			Msg("billing session created")
	}
	return result, nil
}

// CreateMonthlySession opens a session spanning a calendar month
func (s *BillingSessionService) CreateMonthlySession(ctx context.Context, year int, month time.Month, createdBy string) (*SessionResult, error) {
	if month < time.January || month > time.December {
		return sessionFailure(entities.CodeInvalidSessionDates, fmt.Sprintf("Invalid month %d", month)), nil
	}
	from, to := entities.MonthBounds(year, month)
	return s.CreateSession(ctx, from, to, createdBy)
}

// CreateQuarterlySession opens a session spanning a calendar quarter (1-4)
func (s *BillingSessionService) CreateQuarterlySession(ctx context.Context, year, quarter int, createdBy string) (*SessionResult, error) {
	if quarter < 1 || quarter > 4 {
		return sessionFailure(entities.CodeInvalidSessionDates, fmt.Sprintf("Invalid quarter %d", quarter)), nil
	}
	from, to := entities.QuarterBounds(year, quarter)
	return s.CreateSession(ctx, from, to, createdBy)
}

// CloseSession snapshots the session's totals and closes it. Closed sessions are immutable.
func (s *BillingSessionService) CloseSession(ctx context.Context, id, closedBy string) (*SessionResult, error) {
	ctx, span := observability.StartSpan(ctx, "BillingSessionService.CloseSession",
		attribute.String("billing_session.id", id))
	defer span.End()

	var result *SessionResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetForUpdate(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				result = sessionFailure(entities.CodeSessionNotFound, "Billing session not found")
				return nil
			}
			return err
		}
		if session.Status == entities.BillingSessionClosed {
			result = sessionFailure(entities.CodeSessionAlreadyClosed, "Session is already closed")
			return nil
		}

		totals, err := s.claims.Totals(ctx, session.FromDate, session.ToDate)
		if err != nil {
			return fmt.Errorf("compute session totals: %w", err)
		}

		now := s.clock.Now()
		session.ApplyTotals(*totals)
		session.Status = entities.BillingSessionClosed
		session.ClosedAt = &now
		session.UpdatedAt = now

		if err := s.sessions.Update(ctx, session); err != nil {
			return err
		}

		result = &SessionResult{Success: true, Session: session, Totals: totals, Message: "Billing session closed"}
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if result.Success {
		s.metrics.SessionClosed(ctx)
		s.effects.Dispatch(ctx, nil, entities.NewAuditEntry(
			entities.AuditActionClose, entities.AuditEntityBillingSession, id, closedBy,
			map[string]interface{}{
				"total_claims": result.Totals.TotalCount,
				"total_amount": result.Totals.TotalAmount.String(),
			},
			s.clock.Now(),
		))
		observability.LoggerFromContext(ctx).Info().
			Str("session_id", id).
			Int("total_claims", result.Totals.TotalCount).
			Str("total_amount", result.Totals.TotalAmount.String()).
			Msg("billing session closed")
	}
	return result, nil
}

// LockSession stops new submissions into an OPEN session without closing it
func (s *BillingSessionService) LockSession(ctx context.Context, id, lockedBy string) (*SessionResult, error) {
	var result *SessionResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetForUpdate(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				result = sessionFailure(entities.CodeSessionNotFound, "Billing session not found")
				return nil
			}
			return err
		}
		if session.Status != entities.BillingSessionOpen {
			result = sessionFailure(entities.CodeSessionNotOpen,
				fmt.Sprintf("Only open sessions can be locked, current status: %s", session.Status))
			return nil
		}

		session.Status = entities.BillingSessionLocked
		session.UpdatedAt = s.clock.Now()
		if err := s.sessions.Update(ctx, session); err != nil {
			return err
		}

		result = &SessionResult{Success: true, Session: session, Message: "Billing session locked"}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		s.effects.Dispatch(ctx, nil, entities.NewAuditEntry(
			entities.AuditActionLock, entities.AuditEntityBillingSession, id, lockedBy, nil, s.clock.Now(),
		))
	}
	return result, nil
}

// SessionSummary returns the session with freshly computed totals
func (s *BillingSessionService) SessionSummary(ctx context.Context, id string) (*SessionResult, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return sessionFailure(entities.CodeSessionNotFound, "Billing session not found"), nil
		}
		return nil, err
	}

	totals, err := s.claims.Totals(ctx, session.FromDate, session.ToDate)
	if err != nil {
		return nil, fmt.Errorf("compute session totals: %w", err)
	}

	return &SessionResult{Success: true, Session: session, Totals: totals}, nil
}

func (s *BillingSessionService) validateDates(from, to time.Time) *SessionResult {
	if !from.Before(to) {
		return sessionFailure(entities.CodeInvalidSessionDates, "Start date must be before end date")
	}
	today := entities.Day(s.clock.Now())
	if from.After(today) || to.After(today) {
		return sessionFailure(entities.CodeInvalidSessionDates, "Session dates cannot be in the future")
	}
	return nil
}

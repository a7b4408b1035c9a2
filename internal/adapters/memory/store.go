// Package memory provides an in-process implementation of every storage port. It
// enforces the same uniqueness and overlap constraints as the PostgreSQL schema and
// is used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

var (
	_ repositories.ClaimRepository          = (*Store)(nil)
	_ repositories.PaymentRepository        = (*paymentRepo)(nil)
	_ repositories.BillingSessionRepository = (*sessionRepo)(nil)
	_ repositories.BenefitLedgerRepository  = (*Store)(nil)
	_ repositories.Transactor               = (*Store)(nil)
	_ providers.AuditLogger                 = (*Store)(nil)
)

type txKey struct{}

type state struct {
	claims   map[string]*entities.Claim
	payments []*entities.ClaimPayment
	sessions map[string]*entities.BillingSession
}

func (s *state) clone() *state {
	c := &state{
		claims:   make(map[string]*entities.Claim, len(s.claims)),
		payments: make([]*entities.ClaimPayment, len(s.payments)),
		sessions: make(map[string]*entities.BillingSession, len(s.sessions)),
	}
	for id, claim := range s.claims {
		c.claims[id] = cloneClaim(claim)
	}
	for i, p := range s.payments {
		cp := *p
		c.payments[i] = &cp
	}
	for id, session := range s.sessions {
		c.sessions[id] = cloneSession(session)
	}
	return c
}

// Store holds claims, payments, billing sessions, reference data and the audit log.
// Transactions are serialized and roll back by restoring a snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state

	members   map[string]*entities.Member
	schemes   map[string]*entities.Scheme
	benefits  []*entities.SchemeBenefit
	hospitals map[string]*entities.Hospital
	services  []*entities.HospitalService
	audit     []*entities.AuditEntry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		data: &state{
			claims:   make(map[string]*entities.Claim),
			sessions: make(map[string]*entities.BillingSession),
		},
		members:   make(map[string]*entities.Member),
		schemes:   make(map[string]*entities.Scheme),
		hospitals: make(map[string]*entities.Hospital),
	}
}

// Payments returns the payment repository view of the store
func (s *Store) Payments() repositories.PaymentRepository {
	return &paymentRepo{store: s}
}

// Sessions returns the billing session repository view of the store
func (s *Store) Sessions() repositories.BillingSessionRepository {
	return &sessionRepo{store: s}
}

// WithinTransaction implements repositories.Transactor. Nested calls join the outer
// transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// Create implements repositories.ClaimRepository
func (s *Store) Create(ctx context.Context, claim *entities.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.claims[claim.ID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("claim %s already exists", claim.ID))
	}
	for _, existing := range s.data.claims {
		if existing.ClaimFormNumber == claim.ClaimFormNumber {
			return apperrors.NewConflictError("claim form number already exists").WithCode(entities.CodeDuplicateClaim)
		}
		if existing.HospitalID == claim.HospitalID && existing.InvoiceNumber == claim.InvoiceNumber {
			return apperrors.NewConflictError("invoice number already exists for hospital").WithCode(entities.CodeDuplicateInvoice)
		}
	}
	s.data.claims[claim.ID] = cloneClaim(claim)
	return nil
}

// GetByID implements repositories.ClaimRepository
func (s *Store) GetByID(ctx context.Context, id string) (*entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.data.claims[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("claim with id %s not found", id)).
			WithCode(entities.CodeClaimNotFound)
	}
	return cloneClaim(claim), nil
}

// GetForUpdate implements repositories.ClaimRepository. Transactions are already
// serialized so no further locking is needed.
func (s *Store) GetForUpdate(ctx context.Context, id string) (*entities.Claim, error) {
	return s.GetByID(ctx, id)
}

// Update implements repositories.ClaimRepository
func (s *Store) Update(ctx context.Context, claim *entities.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.claims[claim.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("claim with id %s not found", claim.ID)).
			WithCode(entities.CodeClaimNotFound)
	}
	s.data.claims[claim.ID] = cloneClaim(claim)
	return nil
}

// ExistsByClaimFormNumber implements repositories.ClaimRepository
func (s *Store) ExistsByClaimFormNumber(ctx context.Context, claimFormNumber, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.data.claims {
		if c.ID != excludeID && c.ClaimFormNumber == claimFormNumber {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByInvoice implements repositories.ClaimRepository
func (s *Store) ExistsByInvoice(ctx context.Context, hospitalID, invoiceNumber, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.data.claims {
		if c.ID != excludeID && c.HospitalID == hospitalID && c.InvoiceNumber == invoiceNumber {
			return true, nil
		}
	}
	return false, nil
}

// SumMemberAmount implements repositories.ClaimRepository
func (s *Store) SumMemberAmount(ctx context.Context, memberID string, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, c := range s.data.claims {
		if c.MemberID == memberID && c.Status.CountsTowardLimit() && inWindow(c.ServiceDate, from, to) {
			total = total.Add(c.MemberAmount)
		}
	}
	return total, nil
}

// Totals implements repositories.ClaimRepository
func (s *Store) Totals(ctx context.Context, from, to time.Time) (*entities.ClaimTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := &entities.ClaimTotals{}
	for _, c := range s.data.claims {
		if !inWindow(c.ServiceDate, from, to) {
			continue
		}
		totals.TotalCount++
		totals.TotalAmount = totals.TotalAmount.Add(c.ClaimedAmount)
		if c.Status.CountsTowardLimit() {
			totals.ApprovedCount++
			totals.ApprovedAmount = totals.ApprovedAmount.Add(c.ClaimedAmount)
		}
		if c.Status == entities.ClaimStatusPaid {
			totals.PaidCount++
			totals.PaidAmount = totals.PaidAmount.Add(c.ClaimedAmount)
		}
	}
	return totals, nil
}

// Log implements providers.AuditLogger
func (s *Store) Log(ctx context.Context, entry *entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.audit = append(s.audit, &e)
	return nil
}

// AuditEntries returns the audit log for an entity in insertion order
func (s *Store) AuditEntries(entityType, entityID string) []*entities.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.AuditEntry
	for _, e := range s.audit {
		if e.EntityType == entityType && e.EntityID == entityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

type paymentRepo struct {
	store *Store
}

// Create implements repositories.PaymentRepository
func (r *paymentRepo) Create(ctx context.Context, payment *entities.ClaimPayment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.claims[payment.ClaimID]; !ok {
		return apperrors.NewValidationError(fmt.Sprintf("claim %s does not exist", payment.ClaimID))
	}
	p := *payment
	r.store.data.payments = append(r.store.data.payments, &p)
	return nil
}

// ListByClaim implements repositories.PaymentRepository
func (r *paymentRepo) ListByClaim(ctx context.Context, claimID string) ([]*entities.ClaimPayment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.ClaimPayment
	for _, p := range r.store.data.payments {
		if p.ClaimID == claimID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type sessionRepo struct {
	store *Store
}

// Create implements repositories.BillingSessionRepository
func (r *sessionRepo) Create(ctx context.Context, session *entities.BillingSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.sessions[session.ID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("billing session %s already exists", session.ID))
	}
	if err := r.checkOverlap(session); err != nil {
		return err
	}
	r.store.data.sessions[session.ID] = cloneSession(session)
	return nil
}

// GetByID implements repositories.BillingSessionRepository
func (r *sessionRepo) GetByID(ctx context.Context, id string) (*entities.BillingSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	session, ok := r.store.data.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("billing session with id %s not found", id)).
			WithCode(entities.CodeSessionNotFound)
	}
	return cloneSession(session), nil
}

// GetForUpdate implements repositories.BillingSessionRepository
func (r *sessionRepo) GetForUpdate(ctx context.Context, id string) (*entities.BillingSession, error) {
	return r.GetByID(ctx, id)
}

// Update implements repositories.BillingSessionRepository
func (r *sessionRepo) Update(ctx context.Context, session *entities.BillingSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.sessions[session.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("billing session with id %s not found", session.ID)).
			WithCode(entities.CodeSessionNotFound)
	}
	if err := r.checkOverlap(session); err != nil {
		return err
	}
	r.store.data.sessions[session.ID] = cloneSession(session)
	return nil
}

// FindOpenCovering implements repositories.BillingSessionRepository
func (r *sessionRepo) FindOpenCovering(ctx context.Context, date time.Time) ([]*entities.BillingSession, error) {
	return r.find(func(s *entities.BillingSession) bool {
		return s.Status == entities.BillingSessionOpen && s.Covers(date)
	}), nil
}

// FindOverlapping implements repositories.BillingSessionRepository
func (r *sessionRepo) FindOverlapping(ctx context.Context, from, to time.Time) ([]*entities.BillingSession, error) {
	return r.find(func(s *entities.BillingSession) bool {
		return s.Status != entities.BillingSessionClosed && s.Overlaps(from, to)
	}), nil
}

func (r *sessionRepo) find(match func(*entities.BillingSession) bool) []*entities.BillingSession {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.BillingSession
	for _, s := range r.store.data.sessions {
		if match(s) {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromDate.Before(out[j].FromDate) })
	return out
}

// checkOverlap mirrors the exclusion constraint on non-CLOSED sessions. Caller holds mu.
func (r *sessionRepo) checkOverlap(session *entities.BillingSession) error {
	if session.Status == entities.BillingSessionClosed {
		return nil
	}
	for id, existing := range r.store.data.sessions {
		if id == session.ID || existing.Status == entities.BillingSessionClosed {
			continue
		}
		if existing.Overlaps(session.FromDate, session.ToDate) {
			return apperrors.NewConflictError(fmt.Sprintf("billing session overlaps %s", id)).
				WithCode(entities.CodeSessionOverlap)
		}
	}
	return nil
}

func inWindow(date, from, to time.Time) bool {
	d := entities.Day(date)
	return !d.Before(entities.Day(from)) && !d.After(entities.Day(to))
}

func cloneClaim(c *entities.Claim) *entities.Claim {
	cp := *c
	cp.Details = append([]entities.ClaimDetail(nil), c.Details...)
	if c.ApprovedBy != nil {
		v := *c.ApprovedBy
		cp.ApprovedBy = &v
	}
	cp.ApprovedAt = cloneTime(c.ApprovedAt)
	cp.RejectedAt = cloneTime(c.RejectedAt)
	cp.PaidAt = cloneTime(c.PaidAt)
	return &cp
}

func cloneSession(s *entities.BillingSession) *entities.BillingSession {
	cp := *s
	cp.ClosedAt = cloneTime(s.ClosedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hmsultra/claimsengine/internal/adapters/memory"
	"github.com/hmsultra/claimsengine/internal/application/services"
	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []*entities.ClaimEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event *entities.ClaimEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types(claimID string) []entities.ClaimEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []entities.ClaimEventType
	for _, e := range n.events {
		if e.ClaimID == claimID {
			out = append(out, e.Type)
		}
	}
	return out
}

type harness struct {
	store     *memory.Store
	notifier  *recordingNotifier
	sessions  *services.BillingSessionService
	lifecycle *services.ClaimLifecycleService
	now       time.Time
}

type harnessOption func(*services.ClaimLifecycleDeps)

func withClaims(wrap func(repositories.ClaimRepository) repositories.ClaimRepository) harnessOption {
	return func(d *services.ClaimLifecycleDeps) {
		d.Claims = wrap(d.Claims)
	}
}

// newHarness wires the services over an in-memory store seeded with one member on a
// scheme paying 80% of claims up to 5000 a year, one hospital with a 1000 CONSULT
// agreement and an open billing session for March 2026. Today is 2026-04-15.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	store := memory.NewStore()
	joined := date(2025, 1, 1)

	store.AddScheme(entities.Scheme{ID: "scheme-1", Name: "Gold", BeginningDate: date(2025, 1, 1), EndingDate: date(2027, 12, 31)})
	store.AddMember(entities.Member{ID: "member-1", SchemeID: "scheme-1", Name: "Amina Yusuf", DateOfJoining: &joined, Status: entities.RecordStatusActive})
	store.AddHospital(entities.Hospital{ID: "hospital-1", Reference: "H-001", Name: "City General", Status: entities.RecordStatusActive})
	store.AddHospitalService(entities.HospitalService{ID: "svc-1", HospitalID: "hospital-1", ServiceCode: "CONSULT", AgreedPrice: nullDec("1000"), Available: true})
	require.NoError(t, store.AddSchemeBenefit(entities.SchemeBenefit{
		ID:               "benefit-1",
		SchemeID:         "scheme-1",
		BenefitCode:      "GENERAL",
		LimitAmount:      nullDec("5000"),
		CoPaymentPercent: nullDec("20"),
	}))

	notifier := &recordingNotifier{}
	effects := services.NewSideEffectDispatcher(notifier, store, time.Second)
	sessions := services.NewBillingSessionService(store, store.Sessions(), store, effects, clock, nil)

	deps := services.ClaimLifecycleDeps{
		Tx:                 store,
		Claims:             store,
		Payments:           store.Payments(),
		Ledger:             store,
		Gate:               sessions,
		Effects:            effects,
		Clock:              clock,
		DefaultBenefitCode: "GENERAL",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	deps.Rules = services.NewRuleChain(services.DefaultClaimRules(deps.Ledger, deps.Claims, dec("0.2"))...)
	deps.Calculator = services.NewFinancialCalculator(deps.Ledger, deps.Claims)

	h := &harness{
		store:     store,
		notifier:  notifier,
		sessions:  sessions,
		lifecycle: services.NewClaimLifecycleService(deps),
		now:       now,
	}

	res, err := sessions.CreateMonthlySession(context.Background(), 2026, time.March, "admin")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	return h
}

func submission(form, invoice string) *services.ClaimSubmission {
	return &services.ClaimSubmission{
		MemberID:        "member-1",
		HospitalID:      "hospital-1",
		ServiceCode:     "CONSULT",
		ServiceDate:     date(2026, 3, 10),
		ClaimFormNumber: form,
		InvoiceNumber:   invoice,
		Amount:          dec("1000"),
		Details: []services.ClaimLine{
			{ItemCode: "CONSULT", Description: "Specialist consultation", UnitPrice: dec("1000"), Quantity: 1},
		},
		SubmittedBy: "clerk-1",
	}
}

func (h *harness) submit(t *testing.T, form, invoice string) string {
	t.Helper()
	res, err := h.lifecycle.Submit(context.Background(), submission(form, invoice))
	require.NoError(t, err)
	require.True(t, res.Success, "%+v", res.Errors)
	return res.ClaimID
}

func (h *harness) approve(t *testing.T, claimID string) {
	t.Helper()
	res, err := h.lifecycle.Approve(context.Background(), claimID, "reviewer-1")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
}

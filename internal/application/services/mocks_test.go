package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// Mocks

type MockBenefitLedger struct {
	mock.Mock
}

func (m *MockBenefitLedger) FindMember(ctx context.Context, id string) (*entities.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockBenefitLedger) FindScheme(ctx context.Context, id string) (*entities.Scheme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Scheme), args.Error(1)
}

func (m *MockBenefitLedger) FindSchemeBenefit(ctx context.Context, schemeID, benefitCode string) (*entities.SchemeBenefit, error) {
	args := m.Called(ctx, schemeID, benefitCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SchemeBenefit), args.Error(1)
}

func (m *MockBenefitLedger) FindHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockBenefitLedger) FindHospitalService(ctx context.Context, hospitalID, serviceCode string) (*entities.HospitalService, error) {
	args := m.Called(ctx, hospitalID, serviceCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.HospitalService), args.Error(1)
}

type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *entities.Claim) error {
	return m.Called(ctx, claim).Error(0)
}

func (m *MockClaimRepository) GetByID(ctx context.Context, id string) (*entities.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Claim), args.Error(1)
}

func (m *MockClaimRepository) GetForUpdate(ctx context.Context, id string) (*entities.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Claim), args.Error(1)
}

func (m *MockClaimRepository) Update(ctx context.Context, claim *entities.Claim) error {
	return m.Called(ctx, claim).Error(0)
}

func (m *MockClaimRepository) ExistsByClaimFormNumber(ctx context.Context, claimFormNumber, excludeID string) (bool, error) {
	args := m.Called(ctx, claimFormNumber, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimRepository) ExistsByInvoice(ctx context.Context, hospitalID, invoiceNumber, excludeID string) (bool, error) {
	args := m.Called(ctx, hospitalID, invoiceNumber, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimRepository) SumMemberAmount(ctx context.Context, memberID string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, memberID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockClaimRepository) Totals(ctx context.Context, from, to time.Time) (*entities.ClaimTotals, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClaimTotals), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event *entities.ClaimEvent) error {
	return m.Called(ctx, event).Error(0)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

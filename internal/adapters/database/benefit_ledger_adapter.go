package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

// BenefitLedgerAdapter implements BenefitLedgerRepository over the reference tables
type BenefitLedgerAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBenefitLedgerAdapter creates a new benefit ledger adapter
func NewBenefitLedgerAdapter(client *postgres.Client) repositories.BenefitLedgerRepository {
	return &BenefitLedgerAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// FindMember returns the member or nil
func (a *BenefitLedgerAdapter) FindMember(ctx context.Context, id string) (*entities.Member, error) {
	query, _, err := a.db.Select(
		"id", "scheme_id", "company_id", "name", "card_number", "date_of_joining", "status",
	).From("members").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	m := &entities.Member{}
	var (
		joined sql.NullTime
		status string
	)
	err = a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&m.ID, &m.SchemeID, &m.CompanyID, &m.Name, &m.CardNumber, &joined, &status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get member", err)
	}
	m.DateOfJoining = timePtr(joined)
	m.Status = entities.RecordStatus(status)
	return m, nil
}

// FindScheme returns the scheme or nil
func (a *BenefitLedgerAdapter) FindScheme(ctx context.Context, id string) (*entities.Scheme, error) {
	query, _, err := a.db.Select(
		"id", "company_id", "name", "beginning_date", "ending_date", "termination_date", "terminated",
	).From("schemes").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	s := &entities.Scheme{}
	var terminationDate sql.NullTime
	err = a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.BeginningDate, &s.EndingDate, &terminationDate, &s.Terminated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get scheme", err)
	}
	s.TerminationDate = timePtr(terminationDate)
	return s, nil
}

// FindSchemeBenefit returns the ACTIVE benefit for the code or nil
func (a *BenefitLedgerAdapter) FindSchemeBenefit(ctx context.Context, schemeID, benefitCode string) (*entities.SchemeBenefit, error) {
	query, _, err := a.db.Select(
		"id", "scheme_id", "benefit_code", "limit_amount", "copayment_percent", "waiting_period_days", "status",
	).From("scheme_benefits").
		Where(goqu.Ex{
			"scheme_id":    schemeID,
			"benefit_code": benefitCode,
			"status":       string(entities.RecordStatusActive),
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	b := &entities.SchemeBenefit{}
	var (
		waiting sql.NullInt64
		status  string
	)
	err = a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&b.ID, &b.SchemeID, &b.BenefitCode, &b.LimitAmount, &b.CoPaymentPercent, &waiting, &status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get scheme benefit", err)
	}
	if waiting.Valid {
		days := int(waiting.Int64)
		b.WaitingPeriodDays = &days
	}
	b.Status = entities.RecordStatus(status)
	return b, nil
}

// FindHospital returns the hospital or nil
func (a *BenefitLedgerAdapter) FindHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	query, _, err := a.db.Select("id", "reference", "name", "status").
		From("hospitals").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	h := &entities.Hospital{}
	var status string
	err = a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(&h.ID, &h.Reference, &h.Name, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}
	h.Status = entities.RecordStatus(status)
	return h, nil
}

// FindHospitalService returns the ACTIVE price agreement or nil
func (a *BenefitLedgerAdapter) FindHospitalService(ctx context.Context, hospitalID, serviceCode string) (*entities.HospitalService, error) {
	query, _, err := a.db.Select(
		"id", "hospital_id", "service_code", "agreed_price", "available", "status",
	).From("hospital_services").
		Where(goqu.Ex{
			"hospital_id":  hospitalID,
			"service_code": serviceCode,
			"status":       string(entities.RecordStatusActive),
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	s := &entities.HospitalService{}
	var status string
	err = a.client.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&s.ID, &s.HospitalID, &s.ServiceCode, &s.AgreedPrice, &s.Available, &status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital service", err)
	}
	s.Status = entities.RecordStatus(status)
	return s, nil
}

package repositories

import (
	"context"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// BenefitLedgerRepository reads the reference data claims are adjudicated against.
// Find methods return (nil, nil) when nothing matches.
type BenefitLedgerRepository interface {
	FindMember(ctx context.Context, id string) (*entities.Member, error)
	FindScheme(ctx context.Context, id string) (*entities.Scheme, error)
	FindSchemeBenefit(ctx context.Context, schemeID, benefitCode string) (*entities.SchemeBenefit, error)
	FindHospital(ctx context.Context, id string) (*entities.Hospital, error)

	// FindHospitalService returns the ACTIVE price agreement for the service
	FindHospitalService(ctx context.Context, hospitalID, serviceCode string) (*entities.HospitalService, error)
}

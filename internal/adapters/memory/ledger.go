package memory

import (
	"context"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
)

// AddMember registers a member
func (s *Store) AddMember(m entities.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = &m
}

// AddScheme registers a scheme
func (s *Store) AddScheme(sc entities.Scheme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemes[sc.ID] = &sc
}

// AddSchemeBenefit registers a scheme benefit
func (s *Store) AddSchemeBenefit(b entities.SchemeBenefit) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Status == "" {
		b.Status = entities.RecordStatusActive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benefits = append(s.benefits, &b)
	return nil
}

// AddHospital registers a hospital
func (s *Store) AddHospital(h entities.Hospital) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hospitals[h.ID] = &h
}

// AddHospitalService registers a price agreement
func (s *Store) AddHospitalService(hs entities.HospitalService) {
	if hs.Status == "" {
		hs.Status = entities.RecordStatusActive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, &hs)
}

// FindMember implements repositories.BenefitLedgerRepository
func (s *Store) FindMember(ctx context.Context, id string) (*entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.members[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

// FindScheme implements repositories.BenefitLedgerRepository
func (s *Store) FindScheme(ctx context.Context, id string) (*entities.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc, ok := s.schemes[id]; ok {
		cp := *sc
		return &cp, nil
	}
	return nil, nil
}

// FindSchemeBenefit implements repositories.BenefitLedgerRepository
func (s *Store) FindSchemeBenefit(ctx context.Context, schemeID, benefitCode string) (*entities.SchemeBenefit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.benefits {
		if b.SchemeID == schemeID && b.BenefitCode == benefitCode && b.Status == entities.RecordStatusActive {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

// FindHospital implements repositories.BenefitLedgerRepository
func (s *Store) FindHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.hospitals[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, nil
}

// FindHospitalService implements repositories.BenefitLedgerRepository
func (s *Store) FindHospitalService(ctx context.Context, hospitalID, serviceCode string) (*entities.HospitalService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, hs := range s.services {
		if hs.HospitalID == hospitalID && hs.ServiceCode == serviceCode && hs.Status == entities.RecordStatusActive {
			cp := *hs
			return &cp, nil
		}
	}
	return nil, nil
}

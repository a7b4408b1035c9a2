package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/observability"
)

// Cache key families, also used as the metric attribute
const (
	ledgerFamilyMember          = "member"
	ledgerFamilyScheme          = "scheme"
	ledgerFamilySchemeBenefit   = "scheme_benefit"
	ledgerFamilyHospital        = "hospital"
	ledgerFamilyHospitalService = "hospital_service"
)

const defaultLedgerTTL = 300

// CachedBenefitLedgerAdapter wraps a BenefitLedgerRepository with a read-through
// cache. Misses in the underlying store are not cached.
type CachedBenefitLedgerAdapter struct {
	adapter repositories.BenefitLedgerRepository
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.ClaimMetrics
}

// NewCachedBenefitLedgerAdapter creates a new cached benefit ledger adapter
func NewCachedBenefitLedgerAdapter(
	adapter repositories.BenefitLedgerRepository,
	cache providers.CacheProvider,
	ttlSeconds int,
	metrics *observability.ClaimMetrics,
) repositories.BenefitLedgerRepository {
	if ttlSeconds <= 0 {
		ttlSeconds = defaultLedgerTTL
	}
	return &CachedBenefitLedgerAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttlSeconds,
		metrics: metrics,
	}
}

func ledgerCacheKey(family string, parts ...string) string {
	key := "ledger:" + family
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// FindMember implements BenefitLedgerRepository
func (a *CachedBenefitLedgerAdapter) FindMember(ctx context.Context, id string) (*entities.Member, error) {
	return readThrough(ctx, a, ledgerFamilyMember, ledgerCacheKey(ledgerFamilyMember, id),
		func(ctx context.Context) (*entities.Member, error) { return a.adapter.FindMember(ctx, id) })
}

// FindScheme implements BenefitLedgerRepository
func (a *CachedBenefitLedgerAdapter) FindScheme(ctx context.Context, id string) (*entities.Scheme, error) {
	return readThrough(ctx, a, ledgerFamilyScheme, ledgerCacheKey(ledgerFamilyScheme, id),
		func(ctx context.Context) (*entities.Scheme, error) { return a.adapter.FindScheme(ctx, id) })
}

// FindSchemeBenefit implements BenefitLedgerRepository
func (a *CachedBenefitLedgerAdapter) FindSchemeBenefit(ctx context.Context, schemeID, benefitCode string) (*entities.SchemeBenefit, error) {
	return readThrough(ctx, a, ledgerFamilySchemeBenefit, ledgerCacheKey(ledgerFamilySchemeBenefit, schemeID, benefitCode),
		func(ctx context.Context) (*entities.SchemeBenefit, error) {
			return a.adapter.FindSchemeBenefit(ctx, schemeID, benefitCode)
		})
}

// FindHospital implements BenefitLedgerRepository
func (a *CachedBenefitLedgerAdapter) FindHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	return readThrough(ctx, a, ledgerFamilyHospital, ledgerCacheKey(ledgerFamilyHospital, id),
		func(ctx context.Context) (*entities.Hospital, error) { return a.adapter.FindHospital(ctx, id) })
}

// FindHospitalService implements BenefitLedgerRepository
func (a *CachedBenefitLedgerAdapter) FindHospitalService(ctx context.Context, hospitalID, serviceCode string) (*entities.HospitalService, error) {
	return readThrough(ctx, a, ledgerFamilyHospitalService, ledgerCacheKey(ledgerFamilyHospitalService, hospitalID, serviceCode),
		func(ctx context.Context) (*entities.HospitalService, error) {
			return a.adapter.FindHospitalService(ctx, hospitalID, serviceCode)
		})
}

func readThrough[T any](
	ctx context.Context,
	a *CachedBenefitLedgerAdapter,
	family, key string,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	logger := observability.LoggerFromContext(ctx)

	cached, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		uerr := json.Unmarshal(cached, &value)
		if uerr == nil {
			a.metrics.CacheHit(ctx, family)
			return &value, nil
		}
		logger.Warn().Err(uerr).Str("key", key).Msg("failed to unmarshal cached ledger entry")
	case !errors.Is(err, providers.ErrCacheMiss):
		logger.Warn().Err(err).Str("key", key).Msg("ledger cache read failed")
	}
	a.metrics.CacheMiss(ctx, family)

	value, err := load(ctx)
	if err != nil || value == nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to cache ledger entry")
		}
	}
	return value, nil
}

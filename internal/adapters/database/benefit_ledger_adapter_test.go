package database

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmsultra/claimsengine/internal/adapters/cache"
	"github.com/hmsultra/claimsengine/internal/adapters/memory"
	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	redisclient "github.com/hmsultra/claimsengine/internal/infrastructure/clients/redis"
	apperrors "github.com/hmsultra/claimsengine/pkg/errors"
)

func TestBenefitLedgerAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("missing member is nil without error", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := NewBenefitLedgerAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "members" WHERE \("id" = 'ghost'\)`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		member, err := adapter.FindMember(ctx, "ghost")

		require.NoError(t, err)
		assert.Nil(t, member)
	})

	t.Run("scheme benefit lookups only see active rows", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := NewBenefitLedgerAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "scheme_benefits" WHERE .+"status" = 'ACTIVE'`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		benefit, err := adapter.FindSchemeBenefit(ctx, "scheme-1", "GENERAL")

		require.NoError(t, err)
		assert.Nil(t, benefit)
	})

	t.Run("storage failures are internal errors", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := NewBenefitLedgerAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "schemes"`).WillReturnError(&pq.Error{Code: "57014"})

		scheme, err := adapter.FindScheme(ctx, "scheme-1")

		assert.Nil(t, scheme)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	})
}

// countingLedger counts the lookups that reach the underlying store
type countingLedger struct {
	repositories.BenefitLedgerRepository
	schemeCalls atomic.Int32
}

func (l *countingLedger) FindScheme(ctx context.Context, id string) (*entities.Scheme, error) {
	l.schemeCalls.Add(1)
	return l.BenefitLedgerRepository.FindScheme(ctx, id)
}

func TestCachedBenefitLedgerAdapter(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := memory.NewStore()
	store.AddScheme(entities.Scheme{
		ID:            "scheme-1",
		Name:          "Gold",
		BeginningDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndingDate:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	underlying := &countingLedger{BenefitLedgerRepository: store}
	ledger := NewCachedBenefitLedgerAdapter(underlying,
		cache.NewRedisAdapter(redisclient.NewClientFromRedis(rdb), "claims:"), 120, nil)

	t.Run("second read is served from the cache", func(t *testing.T) {
		first, err := ledger.FindScheme(ctx, "scheme-1")
		require.NoError(t, err)
		second, err := ledger.FindScheme(ctx, "scheme-1")
		require.NoError(t, err)

		assert.Equal(t, first.Name, second.Name)
		assert.True(t, first.EndingDate.Equal(second.EndingDate))
		assert.Equal(t, int32(1), underlying.schemeCalls.Load())
		assert.True(t, mr.Exists("claims:ledger:scheme:scheme-1"))
		assert.Equal(t, 120*time.Second, mr.TTL("claims:ledger:scheme:scheme-1"))
	})

	t.Run("misses are not cached", func(t *testing.T) {
		before := underlying.schemeCalls.Load()

		for i := 0; i < 2; i++ {
			scheme, err := ledger.FindScheme(ctx, "ghost")
			require.NoError(t, err)
			assert.Nil(t, scheme)
		}

		assert.Equal(t, before+2, underlying.schemeCalls.Load())
		assert.False(t, mr.Exists("claims:ledger:scheme:ghost"))
	})

	t.Run("corrupt entries fall back to the store", func(t *testing.T) {
		require.NoError(t, mr.Set("claims:ledger:scheme:scheme-1", "{not json"))
		before := underlying.schemeCalls.Load()

		scheme, err := ledger.FindScheme(ctx, "scheme-1")

		require.NoError(t, err)
		assert.Equal(t, "Gold", scheme.Name)
		assert.Equal(t, before+1, underlying.schemeCalls.Load())
	})

	t.Run("an unreachable cache degrades to direct reads", func(t *testing.T) {
		mr.Close()
		before := underlying.schemeCalls.Load()

		scheme, err := ledger.FindScheme(ctx, "scheme-1")

		require.NoError(t, err)
		assert.Equal(t, "Gold", scheme.Name)
		assert.Equal(t, before+1, underlying.schemeCalls.Load())
	})
}

func TestBillingSessionAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("overlap exclusion maps to SESSION_OVERLAP", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := NewBillingSessionAdapter(client)

		mock.ExpectExec(`INSERT INTO "billing_sessions"`).
			WillReturnError(&pq.Error{Code: pqExclusionViolation, Constraint: "billing_sessions_no_overlap"})

		err := adapter.Create(ctx, &entities.BillingSession{
			ID:       "session-2",
			FromDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			ToDate:   time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
			Status:   entities.BillingSessionOpen,
		})

		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, entities.CodeSessionOverlap, apperrors.CodeOf(err))
	})

	t.Run("open sessions covering a date", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := NewBillingSessionAdapter(client)
		created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT .+ FROM "billing_sessions" WHERE .+"status" = 'OPEN'.+"from_date" <= '2026-03-10'.+"to_date" >= '2026-03-10'.+ORDER BY "from_date" ASC`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "from_date", "to_date", "status", "total_claims", "total_amount",
				"created_by", "created_at", "closed_at", "updated_at",
			}).AddRow(
				"session-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
				"OPEN", 0, "0", "admin", created, nil, created,
			))

		sessions, err := adapter.FindOpenCovering(ctx, time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC))

		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "session-1", sessions[0].ID)
		assert.Equal(t, entities.BillingSessionOpen, sessions[0].Status)
		assert.Nil(t, sessions[0].ClosedAt)
	})
}

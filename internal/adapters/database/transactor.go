package database

import (
	"context"

	"github.com/hmsultra/claimsengine/internal/domain/repositories"
	"github.com/hmsultra/claimsengine/internal/infrastructure/clients/postgres"
)

type transactor struct {
	client *postgres.Client
}

// NewTransactor returns a Transactor backed by PostgreSQL transactions
func NewTransactor(client *postgres.Client) repositories.Transactor {
	return &transactor{client: client}
}

// WithinTransaction implements repositories.Transactor
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.client.WithinTransaction(ctx, fn)
}

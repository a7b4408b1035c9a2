package repositories

import "context"

// Transactor runs fn in a single storage transaction. Repositories called with the
// ctx passed to fn join that transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

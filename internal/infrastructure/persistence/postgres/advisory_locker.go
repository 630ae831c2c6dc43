// Package postgres - advisory-lock based WalletLocker fallback.
package postgres

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/wallethub/internal/application/ports"
)

var _ ports.WalletLocker = (*AdvisoryLocker)(nil)

// AdvisoryLocker implements ports.WalletLocker with Postgres transaction-level
// advisory locks (pg_advisory_xact_lock), the row-lock alternative the
// locker port names — useful where no Redis is deployed. Lock MUST be
// called with a context already carrying an open transaction (i.e. from
// inside ports.UnitOfWork.Execute): advisory_xact locks are tied to the
// transaction and release automatically on COMMIT/ROLLBACK.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker creates an AdvisoryLocker.
func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// Lock acquires pg_advisory_xact_lock for each wallet ID, in the ascending
// order the caller passed them in. The returned release is a no-op: the
// locks are scoped to the enclosing transaction and release on its end.
func (l *AdvisoryLocker) Lock(ctx context.Context, walletIDs []uuid.UUID) (func(), error) {
	q := querierFromContext(ctx, l.pool)

	for _, id := range walletIDs {
		key := advisoryKey(id)
		if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
			return nil, fmt.Errorf("acquire advisory lock for wallet %s: %w", id, err)
		}
	}

	return func() {}, nil
}

// querierFromContext returns the open transaction from ctx if present,
// falling back to the pool (acceptable here only because a caller outside
// a transaction gets a lock that is released the instant the statement's
// implicit transaction ends — i.e. never actually held across the commit
// it is meant to guard, so StartProposal always calls Lock from txCtx).
func querierFromContext(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return pool
}

// advisoryKey folds a UUID's first 8 bytes into the bigint
// pg_advisory_xact_lock expects.
func advisoryKey(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}

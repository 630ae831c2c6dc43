package ports

import (
	"context"

	"github.com/google/uuid"
)

// WalletLocker provides the per-wallet ordered locking the proposal commit
// phase needs (spec §5): "implementations MUST take a row lock on the
// wallet record (or equivalent, e.g. SELECT ... FOR UPDATE, a per-wallet
// mutex keyed in a cache, or optimistic CAS on a wallet version column) ...
// in a deterministic order (ascending wallet_id)". The default
// implementation takes the Postgres row lock via WalletStore.FindLockedByID
// inside the commit's atomic unit; a Redis-backed implementation is also
// wired (internal/infrastructure/lock) as the cache-keyed mutex alternative
// the spec explicitly names.
type WalletLocker interface {
	// Lock acquires locks on walletIDs in ascending order and returns a
	// release function. Callers must defer the release.
	Lock(ctx context.Context, walletIDs []uuid.UUID) (release func(), err error)
}

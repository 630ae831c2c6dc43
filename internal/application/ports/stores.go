// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// SOLID Principles:
// - DIP: Application зависит от абстракций, не от конкретных реализаций
// - ISP: Каждый интерфейс фокусируется на одной сущности
// - SRP: Store отвечает только за persistence
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// WalletStore is component A's... no — this is the wallet metadata store
// (component C owns derivation, this owns the row itself): CRUD over the
// `wallet` table. Balance is never part of this interface; it is computed
// by WalletView over LedgerStore + HoldStore.
type WalletStore interface {
	Save(ctx context.Context, wallet *entities.Wallet) error
	FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error)
	// FindLockedByID loads a wallet row with a storage-level row lock
	// (`SELECT ... FOR UPDATE`), for use inside the proposal commit phase's
	// per-wallet ordered locking (spec §5).
	FindLockedByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error)
	List(ctx context.Context, filter WalletFilter, offset, limit int) ([]*entities.Wallet, int, error)
}

// WalletFilter defines criteria for listing wallets.
type WalletFilter struct {
	BusinessName string
	UserID       *uuid.UUID
	IsDeleted    *bool
}

// LedgerStore is component A: append-only persistence of Transaction rows.
type LedgerStore interface {
	// Append inserts a transaction row. Must be called inside an open
	// atomic unit when used from the proposal processor.
	Append(ctx context.Context, tx *entities.Transaction) error

	// LatestBalance returns the balance of the most recent row for
	// (wallet_id, currency), or zero if none exists.
	LatestBalance(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency) (valueobjects.Decimal, error)

	// DistinctCurrencies returns the set of currencies with non-deleted
	// ledger rows for a wallet.
	DistinctCurrencies(ctx context.Context, walletID uuid.UUID) ([]valueobjects.Currency, error)

	// List returns a wallet's transactions, created_at descending.
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error)

	// FindByID loads a single transaction.
	FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Transaction, error)

	// ByProposal returns every row written by one proposal's commit phase.
	ByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entities.Transaction, error)
}

// TransactionFilter defines criteria for listing ledger rows.
type TransactionFilter struct {
	BusinessName string
	WalletID     uuid.UUID
	From         *time.Time
	To           *time.Time
}

// HoldStore is component B: CRUD + time-windowed query of WalletHold rows.
type HoldStore interface {
	Create(ctx context.Context, hold *entities.WalletHold) error
	Update(ctx context.Context, hold *entities.WalletHold) error
	FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.WalletHold, error)
	List(ctx context.Context, filter HoldFilter, offset, limit int) ([]*entities.WalletHold, int, error)

	// ActiveSum returns ∑amount over rows where is_deleted=false,
	// status=active, expires_at > now, for (wallet_id, currency).
	ActiveSum(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency, now time.Time) (valueobjects.Decimal, error)
}

// HoldFilter defines criteria for listing holds.
//
// From/To window created_at when either is set. When both are nil, List
// instead constrains expires_at > Now, so a caller that asks for no window
// gets only currently-active holds rather than every hold ever created.
type HoldFilter struct {
	BusinessName string
	UserID       *uuid.UUID
	WalletID     *uuid.UUID
	Currency     *valueobjects.Currency
	Status       *entities.HoldStatus
	From         *time.Time
	To           *time.Time
	Now          time.Time
	IsDeleted    bool
}

// ProposalStore persists Proposal rows, including the CAS-guarded
// init->processing transition the single-entry guarantee depends on.
type ProposalStore interface {
	Create(ctx context.Context, proposal *entities.Proposal) error
	Save(ctx context.Context, proposal *entities.Proposal) error
	FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Proposal, error)
	List(ctx context.Context, businessName string, offset, limit int) ([]*entities.Proposal, int, error)

	// CompareAndSetProcessing performs the conditional UPDATE
	// task_status: init -> processing. Returns (true, nil) if exactly one
	// row was affected, (false, nil) if the proposal was not in init
	// status (concurrent caller already claimed it or it is not startable).
	CompareAndSetProcessing(ctx context.Context, id uuid.UUID) (bool, error)
}

// NoteStore is component E: append-only TransactionNote rows.
type NoteStore interface {
	Append(ctx context.Context, note *entities.TransactionNote) error
	Latest(ctx context.Context, transactionID uuid.UUID) (*entities.TransactionNote, error)
}

// BusinessLookup resolves tenant existence — the spec treats
// business-directory lookup as an external collaborator (§1 Non-goals).
type BusinessLookup interface {
	Exists(ctx context.Context, businessName string) (bool, error)
	DefaultCurrency(ctx context.Context, businessName string) (valueobjects.Currency, error)
}

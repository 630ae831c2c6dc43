package proposal_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/wallethub/internal/application/ports"
	usecase "github.com/Haleralex/wallethub/internal/application/usecases/proposal"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

type fakeProposalStore struct {
	byID     map[uuid.UUID]*entities.Proposal
	claimed  map[uuid.UUID]bool
	casFails bool
}

func newFakeProposalStore() *fakeProposalStore {
	return &fakeProposalStore{byID: map[uuid.UUID]*entities.Proposal{}, claimed: map[uuid.UUID]bool{}}
}
func (f *fakeProposalStore) Create(ctx context.Context, p *entities.Proposal) error {
	f.byID[p.UID] = p
	return nil
}
func (f *fakeProposalStore) Save(ctx context.Context, p *entities.Proposal) error {
	f.byID[p.UID] = p
	return nil
}
func (f *fakeProposalStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Proposal, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errors.ErrProposalNotFound
	}
	return p, nil
}
func (f *fakeProposalStore) List(ctx context.Context, businessName string, offset, limit int) ([]*entities.Proposal, int, error) {
	return nil, 0, nil
}
func (f *fakeProposalStore) CompareAndSetProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.casFails {
		return false, nil
	}
	if f.claimed[id] {
		return false, nil
	}
	// Like the real conditional UPDATE, the claim leaves the loaded entity
	// untouched; Execute moves it to processing via BeginProcessing.
	f.claimed[id] = true
	return true, nil
}

type fakeWalletStore struct {
	byID map[uuid.UUID]*entities.Wallet
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{byID: map[uuid.UUID]*entities.Wallet{}}
}
func (f *fakeWalletStore) Save(ctx context.Context, w *entities.Wallet) error {
	f.byID[w.UID] = w
	return nil
}
func (f *fakeWalletStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error) {
	w, ok := f.byID[id]
	if !ok {
		return nil, errors.ErrWalletNotFound
	}
	return w, nil
}
func (f *fakeWalletStore) FindLockedByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error) {
	return f.FindByID(ctx, businessName, id)
}
func (f *fakeWalletStore) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, int, error) {
	return nil, 0, nil
}

type fakeLedgerStore struct {
	balances map[uuid.UUID]valueobjects.Decimal
	appended []*entities.Transaction
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{balances: map[uuid.UUID]valueobjects.Decimal{}}
}
func (f *fakeLedgerStore) Append(ctx context.Context, tx *entities.Transaction) error {
	f.appended = append(f.appended, tx)
	f.balances[tx.WalletID] = tx.Balance
	return nil
}
func (f *fakeLedgerStore) LatestBalance(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency) (valueobjects.Decimal, error) {
	if b, ok := f.balances[walletID]; ok {
		return b, nil
	}
	return valueobjects.Zero(currency), nil
}
func (f *fakeLedgerStore) DistinctCurrencies(ctx context.Context, walletID uuid.UUID) ([]valueobjects.Currency, error) {
	return nil, nil
}
func (f *fakeLedgerStore) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error) {
	return nil, 0, nil
}
func (f *fakeLedgerStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Transaction, error) {
	return nil, nil
}
func (f *fakeLedgerStore) ByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entities.Transaction, error) {
	return nil, nil
}

type fakeHoldStore struct{}

func (f *fakeHoldStore) Create(ctx context.Context, hold *entities.WalletHold) error { return nil }
func (f *fakeHoldStore) Update(ctx context.Context, hold *entities.WalletHold) error { return nil }
func (f *fakeHoldStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.WalletHold, error) {
	return nil, nil
}
func (f *fakeHoldStore) List(ctx context.Context, filter ports.HoldFilter, offset, limit int) ([]*entities.WalletHold, int, error) {
	return nil, 0, nil
}
func (f *fakeHoldStore) ActiveSum(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency, now time.Time) (valueobjects.Decimal, error) {
	return valueobjects.Zero(currency), nil
}

type fakeNoteStore struct {
	appended []*entities.TransactionNote
}

func (f *fakeNoteStore) Append(ctx context.Context, n *entities.TransactionNote) error {
	f.appended = append(f.appended, n)
	return nil
}
func (f *fakeNoteStore) Latest(ctx context.Context, transactionID uuid.UUID) (*entities.TransactionNote, error) {
	return nil, nil
}

type fakeOutbox struct {
	saved []events.DomainEvent
}

func (f *fakeOutbox) Save(ctx context.Context, event events.DomainEvent) error {
	f.saved = append(f.saved, event)
	return nil
}
func (f *fakeOutbox) FindUnpublished(ctx context.Context, limit int) ([]events.DomainEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkPublished(ctx context.Context, eventID string) error      { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, eventID, reason string) error { return nil }

type fakeUoW struct{}

func (f *fakeUoW) Execute(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
func (f *fakeUoW) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

type fakeBusinessLookup struct{}

func (f *fakeBusinessLookup) Exists(ctx context.Context, businessName string) (bool, error) {
	return true, nil
}
func (f *fakeBusinessLookup) DefaultCurrency(ctx context.Context, businessName string) (valueobjects.Currency, error) {
	return valueobjects.MustNewCurrency("USD"), nil
}

type fakeLocker struct{}

func (f *fakeLocker) Lock(ctx context.Context, walletIDs []uuid.UUID) (func(), error) {
	return func() {}, nil
}

func setup(t *testing.T) (*fakeProposalStore, *fakeWalletStore, *fakeLedgerStore, *fakeOutbox, *usecase.StartProposal) {
	t.Helper()
	proposals := newFakeProposalStore()
	wallets := newFakeWalletStore()
	ledger := newFakeLedgerStore()
	holds := &fakeHoldStore{}
	notes := &fakeNoteStore{}
	outbox := &fakeOutbox{}
	view := walletview.New(ledger, holds)

	uc := usecase.NewStartProposal(proposals, wallets, ledger, notes, view, &fakeLocker{}, outbox, &fakeUoW{}, &fakeBusinessLookup{})
	return proposals, wallets, ledger, outbox, uc
}

func TestStartProposal_HappyPath(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	proposals, wallets, ledger, outbox, uc := setup(t)

	source, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	dest, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	wallets.byID[source.UID] = source
	wallets.byID[dest.UID] = dest
	ledger.balances[source.UID] = valueobjects.NewDecimalFromInt(100, usd)

	p, err := entities.NewProposal("biz", uuid.New(), entities.IssuerBusiness, uuid.New(), valueobjects.NewDecimalFromInt(40, usd), "transfer", "", entities.TaskStatusInit, []entities.Participant{
		{WalletID: source.UID, Amount: valueobjects.NewDecimalFromInt(-40, usd)},
		{WalletID: dest.UID, Amount: valueobjects.NewDecimalFromInt(40, usd)},
	}, nil)
	require.NoError(t, err)
	proposals.byID[p.UID] = p

	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}
	result, err := uc.Execute(context.Background(), auth, p.UID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, result.TaskStatus)
	assert.Len(t, ledger.appended, 2)

	var sawCompleted bool
	for _, e := range outbox.saved {
		if e.EventType() == events.EventTypeProposalCompleted {
			sawCompleted = true
		}
	}
	assert.True(t, sawCompleted)
}

func TestStartProposal_InsufficientSpendableFailsProposal(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	proposals, wallets, ledger, outbox, uc := setup(t)

	source, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	dest, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	wallets.byID[source.UID] = source
	wallets.byID[dest.UID] = dest
	ledger.balances[source.UID] = valueobjects.NewDecimalFromInt(10, usd)

	p, err := entities.NewProposal("biz", uuid.New(), entities.IssuerBusiness, uuid.New(), valueobjects.NewDecimalFromInt(40, usd), "transfer", "", entities.TaskStatusInit, []entities.Participant{
		{WalletID: source.UID, Amount: valueobjects.NewDecimalFromInt(-40, usd)},
		{WalletID: dest.UID, Amount: valueobjects.NewDecimalFromInt(40, usd)},
	}, nil)
	require.NoError(t, err)
	proposals.byID[p.UID] = p

	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}
	result, err := uc.Execute(context.Background(), auth, p.UID)
	// Solvency failures are captured on the proposal (task_status = error),
	// not raised to the caller — spec §7's propagation policy.
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entities.TaskStatusError, result.TaskStatus)
	assert.Equal(t, entities.TaskStatusError, proposals.byID[p.UID].TaskStatus)
	assert.Empty(t, ledger.appended)

	var sawFailed bool
	for _, e := range outbox.saved {
		if e.EventType() == events.EventTypeProposalFailed {
			sawFailed = true
		}
	}
	assert.True(t, sawFailed)
}

func TestStartProposal_AppIncomeSourceExemptFromSolvency(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	proposals, wallets, ledger, _, uc := setup(t)

	income, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeAppIncome, usd, nil)
	require.NoError(t, err)
	dest, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	wallets.byID[income.UID] = income
	wallets.byID[dest.UID] = dest
	// income has no ledger balance at all — still passes, since app_income is exempt.
	_ = ledger

	p, err := entities.NewProposal("biz", uuid.New(), entities.IssuerBusiness, uuid.New(), valueobjects.NewDecimalFromInt(500, usd), "payout", "", entities.TaskStatusInit, []entities.Participant{
		{WalletID: income.UID, Amount: valueobjects.NewDecimalFromInt(-500, usd)},
		{WalletID: dest.UID, Amount: valueobjects.NewDecimalFromInt(500, usd)},
	}, nil)
	require.NoError(t, err)
	proposals.byID[p.UID] = p

	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}
	result, err := uc.Execute(context.Background(), auth, p.UID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, result.TaskStatus)
}

func TestStartProposal_AlreadyProcessedOnSecondCall(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	proposals, wallets, ledger, _, uc := setup(t)

	source, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	dest, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	wallets.byID[source.UID] = source
	wallets.byID[dest.UID] = dest
	ledger.balances[source.UID] = valueobjects.NewDecimalFromInt(100, usd)

	p, err := entities.NewProposal("biz", uuid.New(), entities.IssuerBusiness, uuid.New(), valueobjects.NewDecimalFromInt(40, usd), "transfer", "", entities.TaskStatusInit, []entities.Participant{
		{WalletID: source.UID, Amount: valueobjects.NewDecimalFromInt(-40, usd)},
		{WalletID: dest.UID, Amount: valueobjects.NewDecimalFromInt(40, usd)},
	}, nil)
	require.NoError(t, err)
	proposals.byID[p.UID] = p

	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}
	_, err = uc.Execute(context.Background(), auth, p.UID)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), auth, p.UID)
	assert.ErrorIs(t, err, errors.ErrProposalAlreadyProcessed)
}

package wallet_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/wallethub/internal/application/ports"
	usecase "github.com/Haleralex/wallethub/internal/application/usecases/wallet"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// fakes shared by usecase tests in this package.

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
	var out []*entities.Wallet
	for _, w := range f.byID {
		if filter.UserID != nil && w.UserID != *filter.UserID {
			continue
		}
		out = append(out, w)
	}
	return out, len(out), nil
}

type fakeLedgerStore struct{}

func (f *fakeLedgerStore) Append(ctx context.Context, tx *entities.Transaction) error { return nil }
func (f *fakeLedgerStore) LatestBalance(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency) (valueobjects.Decimal, error) {
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
func (f *fakeOutbox) MarkPublished(ctx context.Context, eventID string) error { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, eventID string, reason string) error {
	return nil
}

type fakeUoW struct{}

func (f *fakeUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
func (f *fakeUoW) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

type fakeBusinessLookup struct {
	currency valueobjects.Currency
}

func (f *fakeBusinessLookup) Exists(ctx context.Context, businessName string) (bool, error) {
	return true, nil
}
func (f *fakeBusinessLookup) DefaultCurrency(ctx context.Context, businessName string) (valueobjects.Currency, error) {
	return f.currency, nil
}

func TestListWallets_CreatesDefaultWalletForUserWithNone(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	stores := newFakeWalletStore()
	view := walletview.New(&fakeLedgerStore{}, &fakeHoldStore{})
	outbox := &fakeOutbox{}
	uc := usecase.NewListWallets(stores, view, outbox, &fakeUoW{}, &fakeBusinessLookup{currency: usd})

	auth := ports.Authorization{IssuerType: entities.IssuerUser, UserID: uuid.New(), Business: ports.Business{Name: "biz"}}

	results, total, err := uc.Execute(context.Background(), auth, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, entities.WalletTypeUser, results[0].Wallet.WalletType)
	assert.Len(t, outbox.saved, 1)
	assert.Equal(t, events.EventTypeWalletCreated, outbox.saved[0].EventType())
}

func TestCreateWallet_RejectsUserIssuer(t *testing.T) {
	stores := newFakeWalletStore()
	uc := usecase.NewCreateWallet(stores, &fakeOutbox{}, &fakeUoW{})

	auth := ports.Authorization{IssuerType: entities.IssuerUser, UserID: uuid.New(), Business: ports.Business{Name: "biz"}}
	_, err := uc.Execute(context.Background(), auth, usecase.CreateWalletInput{UserID: uuid.New(), WalletType: entities.WalletTypeBusiness})
	assert.ErrorIs(t, err, errors.ErrForbiddenForIssuer)
}

func TestCreateWallet_BusinessIssuerSucceeds(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	stores := newFakeWalletStore()
	outbox := &fakeOutbox{}
	uc := usecase.NewCreateWallet(stores, outbox, &fakeUoW{})

	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}
	w, err := uc.Execute(context.Background(), auth, usecase.CreateWalletInput{UserID: uuid.New(), WalletType: entities.WalletTypeAppIncome, MainCurrency: usd})
	require.NoError(t, err)
	assert.True(t, w.IsAppIncome())
	assert.Len(t, outbox.saved, 1)
}

func TestDeleteWallet_RejectsNonZeroBalance(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	stores := newFakeWalletStore()
	w, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)
	require.NoError(t, stores.Save(context.Background(), w))

	ledger := &nonZeroLedger{balance: valueobjects.NewDecimalFromInt(10, usd)}
	view := walletview.New(ledger, &fakeHoldStore{})
	uc := usecase.NewDeleteWallet(stores, view, &fakeOutbox{}, &fakeUoW{})

	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}
	err = uc.Execute(context.Background(), auth, w.UID)
	assert.ErrorIs(t, err, errors.ErrWalletNotEmpty)
}

type nonZeroLedger struct {
	fakeLedgerStore
	balance valueobjects.Decimal
}

func (n *nonZeroLedger) DistinctCurrencies(ctx context.Context, walletID uuid.UUID) ([]valueobjects.Currency, error) {
	return []valueobjects.Currency{n.balance.Currency()}, nil
}
func (n *nonZeroLedger) LatestBalance(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency) (valueobjects.Decimal, error) {
	return n.balance, nil
}

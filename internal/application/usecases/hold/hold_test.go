package hold_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/wallethub/internal/application/ports"
	usecase "github.com/Haleralex/wallethub/internal/application/usecases/hold"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

type fakeWalletStore struct {
	w *entities.Wallet
}

func (f *fakeWalletStore) Save(ctx context.Context, w *entities.Wallet) error { return nil }
func (f *fakeWalletStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error) {
	return f.w, nil
}
func (f *fakeWalletStore) FindLockedByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error) {
	return f.w, nil
}
func (f *fakeWalletStore) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, int, error) {
	return []*entities.Wallet{f.w}, 1, nil
}

type fakeHoldStore struct {
	byID       map[uuid.UUID]*entities.WalletHold
	lastFilter ports.HoldFilter
}

func newFakeHoldStore() *fakeHoldStore {
	return &fakeHoldStore{byID: map[uuid.UUID]*entities.WalletHold{}}
}
func (f *fakeHoldStore) Create(ctx context.Context, h *entities.WalletHold) error {
	f.byID[h.UID] = h
	return nil
}
func (f *fakeHoldStore) Update(ctx context.Context, h *entities.WalletHold) error {
	f.byID[h.UID] = h
	return nil
}
func (f *fakeHoldStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.WalletHold, error) {
	h, ok := f.byID[id]
	if !ok {
		return nil, errors.ErrHoldNotFound
	}
	return h, nil
}
func (f *fakeHoldStore) List(ctx context.Context, filter ports.HoldFilter, offset, limit int) ([]*entities.WalletHold, int, error) {
	f.lastFilter = filter
	return nil, 0, nil
}
func (f *fakeHoldStore) ActiveSum(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency, now time.Time) (valueobjects.Decimal, error) {
	return valueobjects.Zero(currency), nil
}

type fakeOutbox struct{ saved []events.DomainEvent }

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

func TestCreateHold_RejectsUserIssuer(t *testing.T) {
	uc := usecase.NewCreateHold(&fakeWalletStore{}, newFakeHoldStore(), &fakeOutbox{}, &fakeUoW{})
	auth := ports.Authorization{IssuerType: entities.IssuerUser}
	_, err := uc.Execute(context.Background(), auth, usecase.CreateHoldInput{})
	assert.ErrorIs(t, err, errors.ErrForbiddenForIssuer)
}

func TestCreateHold_BusinessIssuerSucceeds(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	w, err := entities.NewWallet("biz", uuid.New(), entities.WalletTypeUser, usd, nil)
	require.NoError(t, err)

	outbox := &fakeOutbox{}
	uc := usecase.NewCreateHold(&fakeWalletStore{w: w}, newFakeHoldStore(), outbox, &fakeUoW{})
	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}

	h, err := uc.Execute(context.Background(), auth, usecase.CreateHoldInput{
		WalletID: w.UID, Amount: valueobjects.NewDecimalFromInt(50, usd), ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, w.UID, h.WalletID)
	assert.Len(t, outbox.saved, 1)
}

func TestUpdateHold_RejectsUserIssuer(t *testing.T) {
	uc := usecase.NewUpdateHold(newFakeHoldStore(), &fakeUoW{})
	auth := ports.Authorization{IssuerType: entities.IssuerUser}
	_, err := uc.Execute(context.Background(), auth, usecase.UpdateHoldInput{})
	assert.ErrorIs(t, err, errors.ErrForbiddenForIssuer)
}

func TestUpdateHold_UpdatesStatus(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	h, err := entities.NewWalletHold("biz", uuid.New(), uuid.New(), valueobjects.NewDecimalFromInt(10, usd), time.Now().Add(time.Hour), entities.HoldStatusActive, "", nil)
	require.NoError(t, err)

	store := newFakeHoldStore()
	store.byID[h.UID] = h

	uc := usecase.NewUpdateHold(store, &fakeUoW{})
	auth := ports.Authorization{IssuerType: entities.IssuerApp, Business: ports.Business{Name: "biz"}}

	inactive := entities.HoldStatusInactive
	updated, err := uc.Execute(context.Background(), auth, usecase.UpdateHoldInput{HoldID: h.UID, Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, entities.HoldStatusInactive, updated.Status)
}

func TestListHolds_SetsNowForDefaultActiveWindow(t *testing.T) {
	store := newFakeHoldStore()
	uc := usecase.NewListHolds(store)
	auth := ports.Authorization{IssuerType: entities.IssuerBusiness, Business: ports.Business{Name: "biz"}}

	before := time.Now()
	_, _, err := uc.Execute(context.Background(), auth, nil, 0, 20)
	require.NoError(t, err)

	assert.Nil(t, store.lastFilter.From)
	assert.Nil(t, store.lastFilter.To)
	assert.False(t, store.lastFilter.Now.Before(before))
}

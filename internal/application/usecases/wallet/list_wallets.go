// Package wallet implements the wallet-facing usecases of the accounting
// kernel: listing (with the lazy default-wallet side effect), reading a
// wallet with its derived balances, creating non-user wallets, and deleting
// an empty one.
package wallet

import (
	"context"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// ListWallets returns a user's wallets and implements the original
// implementation's lazy default-wallet behavior: a User issuer who owns no
// wallet yet within a business gets one created on first list, rather than
// requiring an explicit provisioning step (spec §4.A, supplemented per
// SPEC_FULL.md §4 from original_source's WalletRouter.list_items).
type ListWallets struct {
	wallets    ports.WalletStore
	view       *walletview.View
	outbox     ports.OutboxRepository
	uow        ports.UnitOfWork
	businesses ports.BusinessLookup
}

func NewListWallets(wallets ports.WalletStore, view *walletview.View, outbox ports.OutboxRepository, uow ports.UnitOfWork, businesses ports.BusinessLookup) *ListWallets {
	return &ListWallets{wallets: wallets, view: view, outbox: outbox, uow: uow, businesses: businesses}
}

type WalletWithBalances struct {
	Wallet   *entities.Wallet
	Balances map[string]valueobjects.Balance
}

func (uc *ListWallets) Execute(ctx context.Context, auth ports.Authorization, offset, limit int) ([]WalletWithBalances, int, error) {
	isDeleted := false
	filter := ports.WalletFilter{BusinessName: auth.Business.Name, IsDeleted: &isDeleted}
	if auth.IsUser() {
		userID := auth.UserID
		filter.UserID = &userID
	}

	list, total, err := uc.wallets.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	if auth.IsUser() && total == 0 {
		w, err := uc.ensureDefaultWallet(ctx, auth)
		if err != nil {
			return nil, 0, err
		}
		list = []*entities.Wallet{w}
		total = 1
	}

	out := make([]WalletWithBalances, 0, len(list))
	for _, w := range list {
		balances, err := uc.view.BalanceMap(ctx, w)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, WalletWithBalances{Wallet: w, Balances: balances})
	}
	return out, total, nil
}

func (uc *ListWallets) ensureDefaultWallet(ctx context.Context, auth ports.Authorization) (*entities.Wallet, error) {
	currency, err := uc.businesses.DefaultCurrency(ctx, auth.Business.Name)
	if err != nil {
		return nil, err
	}

	var created *entities.Wallet
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		w, err := entities.NewWallet(auth.Business.Name, auth.UserID, entities.WalletTypeUser, currency, nil)
		if err != nil {
			return err
		}
		if err := uc.wallets.Save(txCtx, w); err != nil {
			return err
		}
		event := events.NewWalletCreated(w.UID, w.UserID, w.BusinessName, string(w.WalletType))
		if err := uc.outbox.Save(txCtx, event); err != nil {
			return err
		}
		created = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

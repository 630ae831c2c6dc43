package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/domain/errors"
)

// GetWallet reads a single wallet together with its derived balance map.
type GetWallet struct {
	wallets ports.WalletStore
	view    *walletview.View
}

func NewGetWallet(wallets ports.WalletStore, view *walletview.View) *GetWallet {
	return &GetWallet{wallets: wallets, view: view}
}

func (uc *GetWallet) Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID) (*WalletWithBalances, error) {
	w, err := uc.wallets.FindByID(ctx, auth.Business.Name, walletID)
	if err != nil {
		return nil, err
	}
	if auth.IsUser() && w.UserID != auth.UserID {
		return nil, errors.ErrWalletNotFound
	}

	balances, err := uc.view.BalanceMap(ctx, w)
	if err != nil {
		return nil, err
	}
	return &WalletWithBalances{Wallet: w, Balances: balances}, nil
}

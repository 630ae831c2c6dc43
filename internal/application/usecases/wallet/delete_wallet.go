package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
)

// DeleteWallet soft-deletes a wallet. It is rejected if the wallet still
// carries a non-zero spendable balance in any currency it has touched —
// WalletHold and Transaction history may not be orphaned from a live wallet.
type DeleteWallet struct {
	wallets ports.WalletStore
	view    *walletview.View
	outbox  ports.OutboxRepository
	uow     ports.UnitOfWork
}

func NewDeleteWallet(wallets ports.WalletStore, view *walletview.View, outbox ports.OutboxRepository, uow ports.UnitOfWork) *DeleteWallet {
	return &DeleteWallet{wallets: wallets, view: view, outbox: outbox, uow: uow}
}

func (uc *DeleteWallet) Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID) error {
	w, err := uc.wallets.FindByID(ctx, auth.Business.Name, walletID)
	if err != nil {
		return err
	}
	if auth.IsUser() && w.UserID != auth.UserID {
		return errors.ErrWalletNotFound
	}

	currencies, err := uc.view.Currencies(ctx, w)
	if err != nil {
		return err
	}
	for _, c := range currencies {
		spendable, err := uc.view.Spendable(ctx, w, c)
		if err != nil {
			return err
		}
		if spendable.IsUnbounded() {
			return errors.ErrWalletNotEmpty
		}
		finite, _ := spendable.Finite()
		if !finite.IsZero() {
			return errors.ErrWalletNotEmpty
		}
	}

	return uc.uow.Execute(ctx, func(txCtx context.Context) error {
		w.MarkDeleted()
		if err := uc.wallets.Save(txCtx, w); err != nil {
			return err
		}
		return uc.outbox.Save(txCtx, events.NewWalletDeleted(w.UID, w.BusinessName))
	})
}

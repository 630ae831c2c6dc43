package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// CreateWallet opens a new wallet for a business or app issuer. User issuers
// never call this directly — their wallet is provisioned lazily by
// ListWallets.
type CreateWallet struct {
	wallets ports.WalletStore
	outbox  ports.OutboxRepository
	uow     ports.UnitOfWork
}

func NewCreateWallet(wallets ports.WalletStore, outbox ports.OutboxRepository, uow ports.UnitOfWork) *CreateWallet {
	return &CreateWallet{wallets: wallets, outbox: outbox, uow: uow}
}

type CreateWalletInput struct {
	UserID       uuid.UUID
	WalletType   entities.WalletType
	MainCurrency valueobjects.Currency
	MetaData     map[string]interface{}
}

func (uc *CreateWallet) Execute(ctx context.Context, auth ports.Authorization, in CreateWalletInput) (*entities.Wallet, error) {
	if auth.IsUser() {
		return nil, errors.ErrForbiddenForIssuer
	}

	var created *entities.Wallet
	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		w, err := entities.NewWallet(auth.Business.Name, in.UserID, in.WalletType, in.MainCurrency, in.MetaData)
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

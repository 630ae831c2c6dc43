package hold

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// CreateHold places a new reservation on a wallet. User issuers cannot
// create holds on their own wallets — only a business or app issuer may
// reserve a user's funds (spec §4.B).
type CreateHold struct {
	wallets ports.WalletStore
	holds   ports.HoldStore
	outbox  ports.OutboxRepository
	uow     ports.UnitOfWork
}

func NewCreateHold(wallets ports.WalletStore, holds ports.HoldStore, outbox ports.OutboxRepository, uow ports.UnitOfWork) *CreateHold {
	return &CreateHold{wallets: wallets, holds: holds, outbox: outbox, uow: uow}
}

type CreateHoldInput struct {
	WalletID    uuid.UUID
	Amount      valueobjects.Decimal
	ExpiresAt   time.Time
	Description string
	MetaData    map[string]interface{}
}

func (uc *CreateHold) Execute(ctx context.Context, auth ports.Authorization, in CreateHoldInput) (*entities.WalletHold, error) {
	if auth.IsUser() {
		return nil, errors.ErrForbiddenForIssuer
	}

	w, err := uc.wallets.FindByID(ctx, auth.Business.Name, in.WalletID)
	if err != nil {
		return nil, err
	}

	var created *entities.WalletHold
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		h, err := entities.NewWalletHold(auth.Business.Name, w.UserID, w.UID, in.Amount, in.ExpiresAt, entities.HoldStatusActive, in.Description, in.MetaData)
		if err != nil {
			return err
		}
		if err := uc.holds.Create(txCtx, h); err != nil {
			return err
		}
		if err := uc.outbox.Save(txCtx, events.NewWalletHoldCreated(h.UID, h.WalletID, h.Amount)); err != nil {
			return err
		}
		created = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

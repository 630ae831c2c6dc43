package hold

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
)

// UpdateHold patches the mutable fields of a hold (expires_at, status,
// description, meta_data). Same issuer restriction as CreateHold.
type UpdateHold struct {
	holds ports.HoldStore
	uow   ports.UnitOfWork
}

func NewUpdateHold(holds ports.HoldStore, uow ports.UnitOfWork) *UpdateHold {
	return &UpdateHold{holds: holds, uow: uow}
}

type UpdateHoldInput struct {
	HoldID      uuid.UUID
	ExpiresAt   *time.Time
	Status      *entities.HoldStatus
	Description *string
	MetaData    map[string]interface{}
}

func (uc *UpdateHold) Execute(ctx context.Context, auth ports.Authorization, in UpdateHoldInput) (*entities.WalletHold, error) {
	if auth.IsUser() {
		return nil, errors.ErrForbiddenForIssuer
	}

	var updated *entities.WalletHold
	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		h, err := uc.holds.FindByID(txCtx, auth.Business.Name, in.HoldID)
		if err != nil {
			return err
		}
		if err := h.Update(in.ExpiresAt, in.Status, in.Description, in.MetaData); err != nil {
			return err
		}
		if err := uc.holds.Update(txCtx, h); err != nil {
			return err
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

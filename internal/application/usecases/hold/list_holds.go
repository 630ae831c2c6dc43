// Package hold implements the WalletHold-facing usecases (component B):
// listing, creating, and updating reservations against a wallet's spendable
// balance.
package hold

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

type ListHolds struct {
	holds ports.HoldStore
}

func NewListHolds(holds ports.HoldStore) *ListHolds {
	return &ListHolds{holds: holds}
}

func (uc *ListHolds) Execute(ctx context.Context, auth ports.Authorization, walletID *uuid.UUID, offset, limit int) ([]*entities.WalletHold, int, error) {
	filter := ports.HoldFilter{BusinessName: auth.Business.Name, WalletID: walletID, Now: time.Now()}
	if auth.IsUser() {
		userID := auth.UserID
		filter.UserID = &userID
	}
	return uc.holds.List(ctx, filter, offset, limit)
}

// Package ledger implements the read-side and note-appending usecases over
// component A (the append-only transaction ledger) and component E (notes).
package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

type ListTransactions struct {
	ledger ports.LedgerStore
}

func NewListTransactions(ledger ports.LedgerStore) *ListTransactions {
	return &ListTransactions{ledger: ledger}
}

func (uc *ListTransactions) Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID, offset, limit int) ([]*entities.Transaction, int, error) {
	filter := ports.TransactionFilter{BusinessName: auth.Business.Name, WalletID: walletID}
	return uc.ledger.List(ctx, filter, offset, limit)
}

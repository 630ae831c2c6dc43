package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

type GetTransaction struct {
	ledger ports.LedgerStore
	notes  ports.NoteStore
}

func NewGetTransaction(ledger ports.LedgerStore, notes ports.NoteStore) *GetTransaction {
	return &GetTransaction{ledger: ledger, notes: notes}
}

type TransactionWithNote struct {
	Transaction *entities.Transaction
	LatestNote  *entities.TransactionNote
}

func (uc *GetTransaction) Execute(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID) (*TransactionWithNote, error) {
	tx, err := uc.ledger.FindByID(ctx, auth.Business.Name, transactionID)
	if err != nil {
		return nil, err
	}
	note, err := uc.notes.Latest(ctx, tx.UID)
	if err != nil {
		return nil, err
	}
	return &TransactionWithNote{Transaction: tx, LatestNote: note}, nil
}

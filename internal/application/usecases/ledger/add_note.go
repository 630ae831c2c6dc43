package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// AddTransactionNote appends a new note row for a transaction (component E).
// Notes are never mutated in place — "updating" a transaction's note means
// inserting a fresh row; the latest row is the current note.
type AddTransactionNote struct {
	ledger ports.LedgerStore
	notes  ports.NoteStore
	uow    ports.UnitOfWork
}

func NewAddTransactionNote(ledger ports.LedgerStore, notes ports.NoteStore, uow ports.UnitOfWork) *AddTransactionNote {
	return &AddTransactionNote{ledger: ledger, notes: notes, uow: uow}
}

func (uc *AddTransactionNote) Execute(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID, note string) (*entities.TransactionNote, error) {
	tx, err := uc.ledger.FindByID(ctx, auth.Business.Name, transactionID)
	if err != nil {
		return nil, err
	}

	var created *entities.TransactionNote
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		n := entities.NewTransactionNote(auth.Business.Name, auth.UserID, tx.UID, note, nil)
		if err := uc.notes.Append(txCtx, n); err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/usecases/ledger"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// TransactionDTO is one immutable ledger row's response shape.
type TransactionDTO struct {
	ID          uuid.UUID `json:"id"`
	ProposalID  uuid.UUID `json:"proposal_id"`
	WalletID    uuid.UUID `json:"wallet_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Balance     string    `json:"balance"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewTransactionDTO(tx *entities.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.UID,
		ProposalID:  tx.ProposalID,
		WalletID:    tx.WalletID,
		Amount:      tx.Amount.Rat().FloatString(8),
		Currency:    tx.Currency.Code(),
		Balance:     tx.Balance.Rat().FloatString(8),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
}

// TransactionListDTO is the paginated list response for ledger rows.
type TransactionListDTO struct {
	Items      []TransactionDTO `json:"items"`
	TotalCount int              `json:"total_count"`
}

// NoteDTO is a single note row on a transaction.
type NoteDTO struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewNoteDTO(n *entities.TransactionNote) *NoteDTO {
	if n == nil {
		return nil
	}
	return &NoteDTO{ID: n.UID, TransactionID: n.TransactionID, Note: n.Note, CreatedAt: n.CreatedAt}
}

// TransactionWithNoteDTO bundles a ledger row with its current note, if any.
type TransactionWithNoteDTO struct {
	Transaction TransactionDTO `json:"transaction"`
	LatestNote  *NoteDTO       `json:"latest_note,omitempty"`
}

func NewTransactionWithNoteDTO(r *ledger.TransactionWithNote) TransactionWithNoteDTO {
	return TransactionWithNoteDTO{
		Transaction: NewTransactionDTO(r.Transaction),
		LatestNote:  NewNoteDTO(r.LatestNote),
	}
}

package entities

import "github.com/google/uuid"

// TransactionNote is an append-only annotation on a transaction. Updating a
// transaction's "note" means appending a new row here; the latest row (by
// created_at desc) is the transaction's current note. Notes are independent
// rows, never mutated after creation.
type TransactionNote struct {
	Envelope
	TransactionID uuid.UUID
	Note          string
}

// NewTransactionNote creates a new note row for a transaction.
func NewTransactionNote(businessName string, userID, transactionID uuid.UUID, note string, metaData map[string]interface{}) *TransactionNote {
	return &TransactionNote{
		Envelope:      NewEnvelope(businessName, userID, metaData),
		TransactionID: transactionID,
		Note:          note,
	}
}

// ReconstructTransactionNote rebuilds a TransactionNote from persisted fields.
func ReconstructTransactionNote(envelope Envelope, transactionID uuid.UUID, note string) *TransactionNote {
	return &TransactionNote{Envelope: envelope, TransactionID: transactionID, Note: note}
}

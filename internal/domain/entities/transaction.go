// Package entities - Transaction is an append-only ledger row. Once
// written it is never updated and never deleted: every field is frozen at
// construction time. This is the "fully immutable ledger row with a running
// balance" the rest of the kernel derives wallet balances from.
package entities

import (
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// Transaction is one participant's movement within one committed proposal.
//
// Entity Pattern:
// - Has identity (Envelope.UID)
// - Immutable after construction: no setter exists on any field below
// - Rich validation at construction time, not at read time
type Transaction struct {
	Envelope
	ProposalID  uuid.UUID
	WalletID    uuid.UUID
	Amount      valueobjects.Decimal // signed; may be zero per spec tie-break
	Currency    valueobjects.Currency
	Balance     valueobjects.Decimal // running balance after this row
	Description string
}

// NewTransaction constructs a ledger row. previousBalance is the balance of
// the same (wallet_id, currency) pair immediately before this row, read
// once inside the proposal's atomic unit.
//
// Unlike most of this kernel's entities, a zero amount IS allowed here: the
// spec's tie-break rule requires a participant with amount = 0 to still
// produce a ledger row (it preserves the audit trail that the wallet was
// named in the proposal), so this constructor does not reject it the way an
// ordinary double-entry ledger would.
func NewTransaction(businessName string, userID, proposalID, walletID uuid.UUID, amount valueobjects.Decimal, description string, previousBalance valueobjects.Decimal, metaData map[string]interface{}) (*Transaction, error) {
	if amount.Currency().IsZero() {
		return nil, errors.ValidationError{Field: "currency", Message: "currency is required"}
	}

	balance, err := previousBalance.Add(amount)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Envelope:    NewEnvelope(businessName, userID, metaData),
		ProposalID:  proposalID,
		WalletID:    walletID,
		Amount:      amount,
		Currency:    amount.Currency(),
		Balance:     balance,
		Description: description,
	}, nil
}

// ReconstructTransaction rebuilds a Transaction from persisted fields.
func ReconstructTransaction(envelope Envelope, proposalID, walletID uuid.UUID, amount, balance valueobjects.Decimal, description string) *Transaction {
	return &Transaction{
		Envelope:    envelope,
		ProposalID:  proposalID,
		WalletID:    walletID,
		Amount:      amount,
		Currency:    amount.Currency(),
		Balance:     balance,
		Description: description,
	}
}

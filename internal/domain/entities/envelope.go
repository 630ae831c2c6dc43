// Package entities contains the domain aggregates of the accounting kernel:
// Wallet, Transaction, WalletHold, Proposal, TransactionNote.
package entities

import (
	"time"

	"github.com/google/uuid"
)

// Envelope carries the fields every persisted entity shares: an identity,
// audit timestamps, a soft-delete flag, and an opaque metadata bag. It also
// carries the tenant scope (business_name) and the owning user within that
// tenant, since every entity in this kernel is business-owned.
//
// Entity Pattern:
// - Has identity (UID)
// - Immutable audit trail (CreatedAt never changes, UpdatedAt is monotone)
type Envelope struct {
	UID          uuid.UUID
	BusinessName string
	UserID       uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsDeleted    bool
	MetaData     map[string]interface{}
}

// NewEnvelope builds a fresh envelope for an entity being created now.
func NewEnvelope(businessName string, userID uuid.UUID, metaData map[string]interface{}) Envelope {
	now := time.Now()
	return Envelope{
		UID:          uuid.New(),
		BusinessName: businessName,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsDeleted:    false,
		MetaData:     metaData,
	}
}

// Touch bumps UpdatedAt to now. Every mutation on an entity must call this
// so UpdatedAt stays monotone, per the envelope invariant.
func (e *Envelope) Touch() {
	e.UpdatedAt = time.Now()
}

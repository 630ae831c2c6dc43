package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// HoldStatus is the lifecycle state of a WalletHold.
type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusInactive  HoldStatus = "inactive"
	HoldStatusSuspended HoldStatus = "suspended"
)

// IsValid checks if the hold status is one of the known kinds.
func (s HoldStatus) IsValid() bool {
	switch s {
	case HoldStatusActive, HoldStatusInactive, HoldStatusSuspended:
		return true
	default:
		return false
	}
}

// WalletHold is a time- and status-scoped reservation that reduces a
// wallet's effective spendable balance for a currency without moving funds.
type WalletHold struct {
	Envelope
	WalletID    uuid.UUID
	Amount      valueobjects.Decimal // non-negative
	ExpiresAt   time.Time
	Status      HoldStatus
	Description string
}

// NewWalletHold creates a new hold. Amount must be non-negative.
func NewWalletHold(businessName string, userID, walletID uuid.UUID, amount valueobjects.Decimal, expiresAt time.Time, status HoldStatus, description string, metaData map[string]interface{}) (*WalletHold, error) {
	if amount.IsNegative() {
		return nil, errors.ValidationError{Field: "amount", Message: "hold amount must be non-negative"}
	}
	if !status.IsValid() {
		return nil, errors.ValidationError{Field: "status", Message: "unknown hold status"}
	}

	return &WalletHold{
		Envelope:    NewEnvelope(businessName, userID, metaData),
		WalletID:    walletID,
		Amount:      amount,
		ExpiresAt:   expiresAt,
		Status:      status,
		Description: description,
	}, nil
}

// ReconstructWalletHold rebuilds a WalletHold from persisted fields.
func ReconstructWalletHold(envelope Envelope, walletID uuid.UUID, amount valueobjects.Decimal, expiresAt time.Time, status HoldStatus, description string) *WalletHold {
	return &WalletHold{
		Envelope:    envelope,
		WalletID:    walletID,
		Amount:      amount,
		ExpiresAt:   expiresAt,
		Status:      status,
		Description: description,
	}
}

// IsActive reports whether this hold currently reduces spendable balance:
// status = active, not expired, not soft-deleted.
func (h *WalletHold) IsActive(now time.Time) bool {
	return !h.IsDeleted && h.Status == HoldStatusActive && h.ExpiresAt.After(now)
}

// Update patches the mutable fields of a hold: expires_at, status,
// description, meta_data. Every other field is fixed at creation.
func (h *WalletHold) Update(expiresAt *time.Time, status *HoldStatus, description *string, metaData map[string]interface{}) error {
	if status != nil {
		if !status.IsValid() {
			return errors.ValidationError{Field: "status", Message: "unknown hold status"}
		}
		h.Status = *status
	}
	if expiresAt != nil {
		h.ExpiresAt = *expiresAt
	}
	if description != nil {
		h.Description = *description
	}
	if metaData != nil {
		h.MetaData = metaData
	}
	h.Touch()
	return nil
}

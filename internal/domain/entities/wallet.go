// Package entities - Wallet is a per-(business,user) account identified by
// UID. Unlike a classic ledger wallet, it never stores its own balance: the
// balance is derived on read from the transaction ledger (see the wallet
// view in application/walletview). The entity only carries identity,
// tenant scope, and the handful of fields that genuinely belong to the
// wallet row itself.
package entities

import (
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// WalletType classifies the kind of account a wallet represents.
type WalletType string

const (
	WalletTypeUser            WalletType = "user"
	WalletTypeBusiness        WalletType = "business"
	WalletTypeApp             WalletType = "app"
	WalletTypeAppOperational  WalletType = "app_operational"
	WalletTypeAppIncome       WalletType = "app_income"
)

// IsValid checks if the wallet type is one of the known kinds.
func (t WalletType) IsValid() bool {
	switch t {
	case WalletTypeUser, WalletTypeBusiness, WalletTypeApp, WalletTypeAppOperational, WalletTypeAppIncome:
		return true
	default:
		return false
	}
}

// Wallet is the entity aggregate.
//
// Entity Pattern:
// - Has identity (Envelope.UID)
// - Enforces invariants (wallet_type = app_income ⇒ main_currency != none)
// - Balance is NOT part of this struct — it is a pure derivation over the
//   ledger and hold stores, computed by the wallet view.
type Wallet struct {
	Envelope
	WalletType   WalletType
	MainCurrency valueobjects.Currency
}

// NewWallet creates a new wallet. Factory function with validation.
//
// Business Rules:
// - wallet_type must be one of the known kinds
// - app_income wallets must declare a concrete main_currency (never "none")
func NewWallet(businessName string, userID uuid.UUID, walletType WalletType, mainCurrency valueobjects.Currency, metaData map[string]interface{}) (*Wallet, error) {
	if !walletType.IsValid() {
		return nil, errors.ValidationError{Field: "wallet_type", Message: "unknown wallet type"}
	}
	if walletType == WalletTypeAppIncome && mainCurrency.IsNone() {
		return nil, errors.ErrInvalidMainCurrency
	}

	return &Wallet{
		Envelope:     NewEnvelope(businessName, userID, metaData),
		WalletType:   walletType,
		MainCurrency: mainCurrency,
	}, nil
}

// ReconstructWallet rebuilds a Wallet from persisted fields, bypassing the
// creation-time business rules (the row already exists, so it already
// satisfied them at creation time).
func ReconstructWallet(envelope Envelope, walletType WalletType, mainCurrency valueobjects.Currency) *Wallet {
	return &Wallet{Envelope: envelope, WalletType: walletType, MainCurrency: mainCurrency}
}

// IsAppIncome reports whether this wallet is the infinite-balance special
// kind for its configured currency.
func (w *Wallet) IsAppIncome() bool {
	return w.WalletType == WalletTypeAppIncome
}

// MarkDeleted soft-deletes the wallet. Callers must have already verified
// that spendable balance is zero in every currency — this entity has no
// access to the ledger and cannot check that itself.
func (w *Wallet) MarkDeleted() {
	w.IsDeleted = true
	w.Touch()
}

// UpdateMetaData replaces the wallet's metadata bag.
func (w *Wallet) UpdateMetaData(metaData map[string]interface{}) {
	w.MetaData = metaData
	w.Touch()
}

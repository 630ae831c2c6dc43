// Package dtos - wire-safe response shapes for the HTTP layer. Handlers
// build these from domain entities rather than serializing entities
// directly, since Decimal/Currency/Balance carry unexported state that
// encoding/json cannot reach.
package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// BalanceDTO renders a valueobjects.Balance for JSON: either a finite amount
// or the unbounded marker, never both.
type BalanceDTO struct {
	Currency  string `json:"currency"`
	Amount    string `json:"amount,omitempty"`
	Unbounded bool   `json:"unbounded,omitempty"`
}

func NewBalanceDTO(b valueobjects.Balance) BalanceDTO {
	if b.IsUnbounded() {
		return BalanceDTO{Currency: b.Currency().Code(), Unbounded: true}
	}
	amount, _ := b.Finite()
	return BalanceDTO{Currency: b.Currency().Code(), Amount: amount.Rat().FloatString(8)}
}

// WalletDTO is the wallet response shape: identity plus the balance map
// derived by the wallet view, never a stored balance field.
type WalletDTO struct {
	ID           uuid.UUID              `json:"id"`
	BusinessName string                 `json:"business_name"`
	UserID       uuid.UUID              `json:"user_id"`
	WalletType   string                 `json:"wallet_type"`
	MainCurrency string                 `json:"main_currency"`
	Balances     map[string]BalanceDTO  `json:"balances"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
	IsDeleted    bool                   `json:"is_deleted"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func NewWalletDTO(w *entities.Wallet, balances map[string]valueobjects.Balance) WalletDTO {
	dto := WalletDTO{
		ID:           w.UID,
		BusinessName: w.BusinessName,
		UserID:       w.UserID,
		WalletType:   string(w.WalletType),
		MainCurrency: w.MainCurrency.Code(),
		Balances:     make(map[string]BalanceDTO, len(balances)),
		MetaData:     w.MetaData,
		IsDeleted:    w.IsDeleted,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
	for code, b := range balances {
		dto.Balances[code] = NewBalanceDTO(b)
	}
	return dto
}

// WalletListDTO is the paginated list response for wallets.
type WalletListDTO struct {
	Items      []WalletDTO `json:"items"`
	TotalCount int         `json:"total_count"`
}

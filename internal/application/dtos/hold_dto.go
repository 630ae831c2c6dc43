package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// HoldDTO is the wallet hold response shape.
type HoldDTO struct {
	ID           uuid.UUID              `json:"id"`
	BusinessName string                 `json:"business_name"`
	UserID       uuid.UUID              `json:"user_id"`
	WalletID     uuid.UUID              `json:"wallet_id"`
	Amount       string                 `json:"amount"`
	Currency     string                 `json:"currency"`
	ExpiresAt    time.Time              `json:"expires_at"`
	Status       string                 `json:"status"`
	Description  string                 `json:"description"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
	IsDeleted    bool                   `json:"is_deleted"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func NewHoldDTO(h *entities.WalletHold) HoldDTO {
	return HoldDTO{
		ID:           h.UID,
		BusinessName: h.BusinessName,
		UserID:       h.UserID,
		WalletID:     h.WalletID,
		Amount:       h.Amount.Rat().FloatString(8),
		Currency:     h.Amount.Currency().Code(),
		ExpiresAt:    h.ExpiresAt,
		Status:       string(h.Status),
		Description:  h.Description,
		MetaData:     h.MetaData,
		IsDeleted:    h.IsDeleted,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

// HoldListDTO is the paginated list response for holds.
type HoldListDTO struct {
	Items      []HoldDTO `json:"items"`
	TotalCount int       `json:"total_count"`
}

package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// ParticipantDTO is one (wallet_id, signed amount) pair within a proposal.
type ParticipantDTO struct {
	WalletID uuid.UUID `json:"wallet_id"`
	Amount   string    `json:"amount"`
}

// ProposalDTO is the proposal response shape.
type ProposalDTO struct {
	ID           uuid.UUID              `json:"id"`
	BusinessName string                 `json:"business_name"`
	UserID       uuid.UUID              `json:"user_id"`
	Issuer       string                 `json:"issuer"`
	IssuerID     uuid.UUID              `json:"issuer_id"`
	Amount       string                 `json:"amount"`
	Currency     string                 `json:"currency"`
	Description  string                 `json:"description"`
	Note         string                 `json:"note,omitempty"`
	TaskStatus   string                 `json:"task_status"`
	Participants []ParticipantDTO       `json:"participants"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
	IsDeleted    bool                   `json:"is_deleted"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func NewProposalDTO(p *entities.Proposal) ProposalDTO {
	participants := make([]ParticipantDTO, len(p.Participants))
	for i, participant := range p.Participants {
		participants[i] = ParticipantDTO{
			WalletID: participant.WalletID,
			Amount:   participant.Amount.Rat().FloatString(8),
		}
	}
	return ProposalDTO{
		ID:           p.UID,
		BusinessName: p.BusinessName,
		UserID:       p.UserID,
		Issuer:       string(p.Issuer),
		IssuerID:     p.IssuerID,
		Amount:       p.Amount.Rat().FloatString(8),
		Currency:     p.Currency.Code(),
		Description:  p.Description,
		Note:         p.Note,
		TaskStatus:   string(p.TaskStatus),
		Participants: participants,
		MetaData:     p.MetaData,
		IsDeleted:    p.IsDeleted,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ProposalListDTO is the paginated list response for proposals.
type ProposalListDTO struct {
	Items      []ProposalDTO `json:"items"`
	TotalCount int           `json:"total_count"`
}

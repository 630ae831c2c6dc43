package proposal

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// CreateProposal drafts a transfer proposal. User issuers cannot create
// proposals — only a business or app issuer may submit one (spec §4.D).
type CreateProposal struct {
	proposals ports.ProposalStore
	uow       ports.UnitOfWork
}

func NewCreateProposal(proposals ports.ProposalStore, uow ports.UnitOfWork) *CreateProposal {
	return &CreateProposal{proposals: proposals, uow: uow}
}

type CreateProposalInput struct {
	Amount        valueobjects.Decimal
	Description   string
	Note          string
	InitialStatus entities.TaskStatus
	Participants  []entities.Participant
	MetaData      map[string]interface{}
}

func (uc *CreateProposal) Execute(ctx context.Context, auth ports.Authorization, in CreateProposalInput) (*entities.Proposal, error) {
	if auth.IsUser() {
		return nil, errors.ErrForbiddenForIssuer
	}

	var created *entities.Proposal
	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		p, err := entities.NewProposal(auth.Business.Name, auth.UserID, auth.IssuerType, issuerID(auth), in.Amount, in.Description, in.Note, in.InitialStatus, in.Participants, in.MetaData)
		if err != nil {
			return err
		}
		if err := uc.proposals.Create(txCtx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// issuerID resolves the proposal's issuer_id: the app's id for App issuers,
// otherwise the caller's user id.
func issuerID(auth ports.Authorization) uuid.UUID {
	if auth.AppID != nil {
		return *auth.AppID
	}
	return auth.UserID
}

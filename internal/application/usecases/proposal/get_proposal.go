package proposal

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

type GetProposal struct {
	proposals ports.ProposalStore
}

func NewGetProposal(proposals ports.ProposalStore) *GetProposal {
	return &GetProposal{proposals: proposals}
}

func (uc *GetProposal) Execute(ctx context.Context, auth ports.Authorization, id uuid.UUID) (*entities.Proposal, error) {
	return uc.proposals.FindByID(ctx, auth.Business.Name, id)
}

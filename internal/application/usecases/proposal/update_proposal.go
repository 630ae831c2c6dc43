package proposal

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// UpdateProposal patches a draft proposal's task_status (to init),
// description, note, or meta_data. entities.Proposal.ApplyUpdate enforces
// that everything else is frozen once the proposal leaves draft.
type UpdateProposal struct {
	proposals ports.ProposalStore
	uow       ports.UnitOfWork
}

func NewUpdateProposal(proposals ports.ProposalStore, uow ports.UnitOfWork) *UpdateProposal {
	return &UpdateProposal{proposals: proposals, uow: uow}
}

type UpdateProposalInput struct {
	ProposalID  uuid.UUID
	TaskStatus  *entities.TaskStatus
	Description *string
	Note        *string
	MetaData    map[string]interface{}
}

func (uc *UpdateProposal) Execute(ctx context.Context, auth ports.Authorization, in UpdateProposalInput) (*entities.Proposal, error) {
	var updated *entities.Proposal
	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		p, err := uc.proposals.FindByID(txCtx, auth.Business.Name, in.ProposalID)
		if err != nil {
			return err
		}
		if err := p.ApplyUpdate(in.TaskStatus, in.Description, in.Note, in.MetaData); err != nil {
			return err
		}
		if err := uc.proposals.Save(txCtx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

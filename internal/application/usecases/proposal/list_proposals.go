// Package proposal implements component D of the accounting kernel: the
// proposal validation pipeline and atomic commit phase (spec §4.D, §5, §7).
package proposal

import (
	"context"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

type ListProposals struct {
	proposals ports.ProposalStore
}

func NewListProposals(proposals ports.ProposalStore) *ListProposals {
	return &ListProposals{proposals: proposals}
}

func (uc *ListProposals) Execute(ctx context.Context, auth ports.Authorization, offset, limit int) ([]*entities.Proposal, int, error) {
	return uc.proposals.List(ctx, auth.Business.Name, offset, limit)
}

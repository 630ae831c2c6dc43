package ports

import (
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// Business carries the tenant's name and business-scoped config the core
// treats as opaque input from the business-directory collaborator (spec §1
// Non-goals: "business-directory lookup by domain" is out of scope — only
// the shape consumed here is specified).
type Business struct {
	Name            string
	DefaultCurrency string
}

// Authorization is the wire surface consumed by the core from
// authentication/authorization (spec §6): an opaque, already-resolved
// caller identity. HTTP-level JWT validation and issuer-kind resolution
// live entirely in internal/adapters/http/middleware; everything below
// this line only ever sees an Authorization value.
type Authorization struct {
	IssuerType entities.IssuerKind
	UserID     uuid.UUID
	Business   Business
	AppID      *uuid.UUID
	Scopes     []string
}

// IsUser reports whether the caller authenticated as a User issuer — the
// kind gated out of CreateWallet, CreateHold/UpdateHold, and CreateProposal.
func (a Authorization) IsUser() bool {
	return a.IssuerType == entities.IssuerUser
}

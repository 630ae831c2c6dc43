package entities

import (
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// IssuerKind is the authorization category of the caller that submitted a
// proposal — gates which operations are permitted.
type IssuerKind string

const (
	IssuerUser     IssuerKind = "user"
	IssuerBusiness IssuerKind = "business"
	IssuerApp      IssuerKind = "app"
)

// IsValid checks if the issuer kind is one of the known kinds.
func (k IssuerKind) IsValid() bool {
	switch k {
	case IssuerUser, IssuerBusiness, IssuerApp:
		return true
	default:
		return false
	}
}

// TaskStatus is the proposal's state machine position.
//
//	draft --(start_processing)--> init --(accepted)--> processing --> completed
//	                                                        \--> error
type TaskStatus string

const (
	TaskStatusDraft      TaskStatus = "draft"
	TaskStatusInit       TaskStatus = "init"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

// IsTerminal reports whether the status is a final state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// Participant is a (wallet_id, signed amount) pair within a proposal.
// Positive = recipient, negative = source.
type Participant struct {
	WalletID uuid.UUID
	Amount   valueobjects.Decimal
}

// Proposal is a request to move funds atomically among participants; it
// owns (by id reference only) the ledger rows its commit phase produces.
type Proposal struct {
	Envelope
	Issuer       IssuerKind
	IssuerID     uuid.UUID
	Amount       valueobjects.Decimal // positive, declared total
	Currency     valueobjects.Currency
	Description  string
	Note         string
	TaskStatus   TaskStatus
	Participants []Participant
}

// NewProposal creates a proposal in draft or init status. Shape validation
// only (non-empty participants, positive declared amount); the full
// validation pipeline (§4.D) runs at StartProposal time, not at creation.
func NewProposal(businessName string, userID uuid.UUID, issuer IssuerKind, issuerID uuid.UUID, amount valueobjects.Decimal, description, note string, initialStatus TaskStatus, participants []Participant, metaData map[string]interface{}) (*Proposal, error) {
	if !issuer.IsValid() {
		return nil, errors.ValidationError{Field: "issuer", Message: "unknown issuer kind"}
	}
	if len(participants) == 0 {
		return nil, errors.ErrParticipantsEmpty
	}
	if !amount.IsPositive() {
		return nil, errors.ValidationError{Field: "amount", Message: "declared amount must be positive"}
	}
	if initialStatus != TaskStatusDraft && initialStatus != TaskStatusInit {
		return nil, errors.ValidationError{Field: "task_status", Message: "a new proposal may only start in draft or init"}
	}

	return &Proposal{
		Envelope:     NewEnvelope(businessName, userID, metaData),
		Issuer:       issuer,
		IssuerID:     issuerID,
		Amount:       amount,
		Currency:     amount.Currency(),
		Description:  description,
		Note:         note,
		TaskStatus:   initialStatus,
		Participants: participants,
	}, nil
}

// ReconstructProposal rebuilds a Proposal from persisted fields.
func ReconstructProposal(envelope Envelope, issuer IssuerKind, issuerID uuid.UUID, amount valueobjects.Decimal, description, note string, status TaskStatus, participants []Participant) *Proposal {
	return &Proposal{
		Envelope:     envelope,
		Issuer:       issuer,
		IssuerID:     issuerID,
		Amount:       amount,
		Currency:     amount.Currency(),
		Description:  description,
		Note:         note,
		TaskStatus:   status,
		Participants: participants,
	}
}

// ApplyUpdate patches the fields allowed while task_status = draft: only
// task_status (to init), description, note, meta_data. participants and
// amount are immutable from creation — confirmed against the original
// implementation's update schema, which never exposes them for mutation.
func (p *Proposal) ApplyUpdate(taskStatus *TaskStatus, description, note *string, metaData map[string]interface{}) error {
	if p.TaskStatus != TaskStatusDraft {
		return errors.ErrProposalNotDraft
	}
	if taskStatus != nil {
		if *taskStatus != TaskStatusInit {
			return errors.ValidationError{Field: "task_status", Message: "a draft proposal may only be moved to init"}
		}
		p.TaskStatus = TaskStatusInit
	}
	if description != nil {
		p.Description = *description
	}
	if note != nil {
		p.Note = *note
	}
	if metaData != nil {
		p.MetaData = metaData
	}
	p.Touch()
	return nil
}

// BeginProcessing is the compare-and-set state transition init -> processing
// that the single-entry guarantee (spec §5) relies on. The entity method
// only validates the in-memory transition; the actual atomicity comes from
// the repository performing this as a conditional UPDATE and reporting
// whether it affected exactly one row.
func (p *Proposal) BeginProcessing() error {
	if p.TaskStatus != TaskStatusInit {
		return errors.ErrProposalAlreadyProcessed
	}
	p.TaskStatus = TaskStatusProcessing
	p.Touch()
	return nil
}

// Complete transitions a processing proposal to its terminal success state.
func (p *Proposal) Complete() {
	p.TaskStatus = TaskStatusCompleted
	p.Touch()
}

// Fail transitions the proposal to its terminal error state. Per spec §7,
// this write happens OUTSIDE the failed atomic unit, in a separate
// persistence call from whatever called Fail.
func (p *Proposal) Fail() {
	p.TaskStatus = TaskStatusError
	p.Touch()
}

// PositiveSum returns the sum of amounts over participants with amount > 0.
func (p *Proposal) PositiveSum() (valueobjects.Decimal, error) {
	sum := valueobjects.Zero(p.Currency)
	for _, participant := range p.Participants {
		if participant.Amount.IsPositive() {
			var err error
			sum, err = sum.Add(participant.Amount)
			if err != nil {
				return valueobjects.Decimal{}, err
			}
		}
	}
	return sum, nil
}

// TotalSum returns the sum of amounts over all participants.
func (p *Proposal) TotalSum() (valueobjects.Decimal, error) {
	sum := valueobjects.Zero(p.Currency)
	for _, participant := range p.Participants {
		var err error
		sum, err = sum.Add(participant.Amount)
		if err != nil {
			return valueobjects.Decimal{}, err
		}
	}
	return sum, nil
}

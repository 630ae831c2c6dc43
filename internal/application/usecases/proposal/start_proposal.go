package proposal

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

var tracer = otel.Tracer("wallethub/proposal")

// StartProposal is component D's commit path: the ordered validation
// pipeline followed by the atomic, per-wallet-locked ledger write. This is
// the hard subsystem of the kernel — the single-entry guarantee, the
// amount-balance and solvency checks, and the failure semantics that keep a
// rejected proposal from leaving any ledger rows behind all live here.
type StartProposal struct {
	proposals ports.ProposalStore
	wallets   ports.WalletStore
	ledger    ports.LedgerStore
	notes     ports.NoteStore
	view      *walletview.View
	locker    ports.WalletLocker
	outbox    ports.OutboxRepository
	uow       ports.UnitOfWork
	business  ports.BusinessLookup

	// ParticipantPolicy is the overridable predicate from spec §4.D step 6.
	// Nil means accept all, matching the default implementation.
	ParticipantPolicy func(ctx context.Context, wallet *entities.Wallet, businessName string) bool
}

func NewStartProposal(
	proposals ports.ProposalStore,
	wallets ports.WalletStore,
	ledger ports.LedgerStore,
	notes ports.NoteStore,
	view *walletview.View,
	locker ports.WalletLocker,
	outbox ports.OutboxRepository,
	uow ports.UnitOfWork,
	business ports.BusinessLookup,
) *StartProposal {
	return &StartProposal{
		proposals: proposals,
		wallets:   wallets,
		ledger:    ledger,
		notes:     notes,
		view:      view,
		locker:    locker,
		outbox:    outbox,
		uow:       uow,
		business:  business,
	}
}

func (uc *StartProposal) Execute(ctx context.Context, auth ports.Authorization, proposalID uuid.UUID) (*entities.Proposal, error) {
	ctx, span := tracer.Start(ctx, "proposal.start",
		trace.WithAttributes(
			attribute.String("business_name", auth.Business.Name),
			attribute.String("proposal.id", proposalID.String()),
		))
	defer span.End()

	p, err := uc.proposals.FindByID(ctx, auth.Business.Name, proposalID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	claimed, err := uc.proposals.CompareAndSetProcessing(ctx, p.UID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !claimed {
		span.SetStatus(codes.Error, errors.ErrProposalAlreadyProcessed.Error())
		return nil, errors.ErrProposalAlreadyProcessed
	}
	if err := p.BeginProcessing(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := uc.validate(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.fail(ctx, p, err)
		// Validation/solvency failures are captured on the proposal itself
		// (task_status = error) rather than raised to the caller - spec §7's
		// propagation policy. Only a genuine storage/unexpected failure
		// propagates past this point.
		if errors.IsCapturedFailure(err) {
			return p, nil
		}
		return nil, err
	}

	if err := uc.commit(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.fail(ctx, p, err)
		if errors.IsCapturedFailure(err) {
			return p, nil
		}
		return nil, err
	}

	span.SetStatus(codes.Ok, "proposal committed")
	return p, nil
}

// validate runs spec §4.D's ordered pipeline, steps 2-6 (step 1, task_status
// = init, is already guaranteed by the successful CAS above).
func (uc *StartProposal) validate(ctx context.Context, p *entities.Proposal) (err error) {
	ctx, span := tracer.Start(ctx, "proposal.validate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	exists, err := uc.business.Exists(ctx, p.BusinessName)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrBusinessNotFound
	}

	wallets, err := uc.resolveParticipantWallets(ctx, p)
	if err != nil {
		return err
	}

	if err := checkAmountBalance(p); err != nil {
		return err
	}

	if err := uc.checkSolvency(ctx, p, wallets); err != nil {
		return err
	}

	if uc.ParticipantPolicy != nil {
		for _, w := range wallets {
			if !uc.ParticipantPolicy(ctx, w, p.BusinessName) {
				return errors.NewBusinessRuleViolation("PARTICIPANT_NOT_OK", "participant failed the policy hook", map[string]interface{}{"wallet_id": w.UID.String()})
			}
		}
	}

	return nil
}

// checkAmountBalance enforces spec §4.D step 4: the sum of all participant
// amounts is zero, and the sum of the positive ones equals the proposal's
// declared amount.
func checkAmountBalance(p *entities.Proposal) error {
	totalSum, err := p.TotalSum()
	if err != nil {
		return err
	}
	if !totalSum.IsZero() {
		return errors.ErrUnbalancedParticipants
	}
	positiveSum, err := p.PositiveSum()
	if err != nil {
		return err
	}
	if !positiveSum.Equals(p.Amount) {
		return errors.ErrAmountMismatch
	}
	return nil
}

// checkSolvency enforces spec §4.D step 5: every source participant's
// wallet must have enough spendable balance to cover its debit. app_income
// sources are exempt.
func (uc *StartProposal) checkSolvency(ctx context.Context, p *entities.Proposal, wallets map[uuid.UUID]*entities.Wallet) error {
	for walletID, need := range debitByWallet(p) {
		w := wallets[walletID]
		if w.IsAppIncome() {
			continue
		}
		spendable, err := uc.view.Spendable(ctx, w, p.Currency)
		if err != nil {
			return err
		}
		ok, err := spendable.GreaterThanOrEqual(need)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrInsufficientSpendable
		}
	}
	return nil
}

func (uc *StartProposal) resolveParticipantWallets(ctx context.Context, p *entities.Proposal) (map[uuid.UUID]*entities.Wallet, error) {
	out := make(map[uuid.UUID]*entities.Wallet, len(p.Participants))
	for _, participant := range p.Participants {
		if _, ok := out[participant.WalletID]; ok {
			continue
		}
		w, err := uc.wallets.FindByID(ctx, p.BusinessName, participant.WalletID)
		if err != nil {
			return nil, err
		}
		if w.IsDeleted || w.BusinessName != p.BusinessName {
			return nil, errors.ErrWalletNotFound
		}
		out[participant.WalletID] = w
	}
	return out, nil
}

// commit re-acquires per-wallet locks in ascending order, rechecks solvency
// under lock (spec §5's race-against-the-ledger note), then writes the
// ledger rows, optional notes, and the proposal's terminal status atomically.
func (uc *StartProposal) commit(ctx context.Context, p *entities.Proposal) error {
	ctx, commitSpan := tracer.Start(ctx, "proposal.commit",
		trace.WithAttributes(attribute.Int("participant_count", len(p.Participants))))
	defer commitSpan.End()

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		ids := distinctSortedWalletIDs(p.Participants)

		lockCtx, lockSpan := tracer.Start(txCtx, "proposal.commit.acquire_locks",
			trace.WithAttributes(attribute.Int("wallet_count", len(ids))))
		release, err := uc.locker.Lock(lockCtx, ids)
		lockSpan.End()
		if err != nil {
			return err
		}
		defer release()

		walletByID := make(map[uuid.UUID]*entities.Wallet, len(ids))
		for _, id := range ids {
			w, err := uc.wallets.FindLockedByID(txCtx, p.BusinessName, id)
			if err != nil {
				return err
			}
			if w.IsDeleted {
				return errors.ErrWalletNotFound
			}
			walletByID[id] = w
		}

		if err := uc.checkSolvency(txCtx, p, walletByID); err != nil {
			return err
		}

		_, ledgerSpan := tracer.Start(txCtx, "proposal.commit.ledger_insert")
		defer ledgerSpan.End()

		evStore := events.NewEventStore()
		cur := map[uuid.UUID]valueobjects.Decimal{}
		for _, participant := range p.Participants {
			w := walletByID[participant.WalletID]

			b0, ok := cur[participant.WalletID]
			if !ok {
				b0, err = uc.ledger.LatestBalance(txCtx, participant.WalletID, p.Currency)
				if err != nil {
					return err
				}
			}

			tx, err := entities.NewTransaction(p.BusinessName, w.UserID, p.UID, w.UID, participant.Amount, p.Description, b0, w.MetaData)
			if err != nil {
				return err
			}
			if err := uc.ledger.Append(txCtx, tx); err != nil {
				return err
			}
			cur[participant.WalletID] = tx.Balance

			evStore.Add(events.NewTransactionAppended(tx.UID, tx.WalletID, tx.ProposalID, tx.Amount, tx.Balance))

			if p.Note != "" {
				note := entities.NewTransactionNote(p.BusinessName, w.UserID, tx.UID, p.Note, nil)
				if err := uc.notes.Append(txCtx, note); err != nil {
					return err
				}
			}
		}

		p.Complete()
		if err := uc.proposals.Save(txCtx, p); err != nil {
			return err
		}
		evStore.Add(events.NewProposalCompleted(p.UID, p.BusinessName, p.Currency, len(p.Participants)))

		for _, e := range evStore.GetAll() {
			if err := uc.outbox.Save(txCtx, e); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		commitSpan.RecordError(err)
		commitSpan.SetStatus(codes.Error, err.Error())
		return err
	}
	commitSpan.SetStatus(codes.Ok, "ledger committed")
	return nil
}

// fail writes task_status = error in a write separate from the failed
// commit's atomic unit (spec §7), so the aborted proposal's ledger rows
// (none, since the commit rolled back) and its terminal status are never
// entangled in the same transaction.
func (uc *StartProposal) fail(ctx context.Context, p *entities.Proposal, cause error) {
	p.Fail()
	_ = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.proposals.Save(txCtx, p); err != nil {
			return err
		}
		return uc.outbox.Save(txCtx, events.NewProposalFailed(p.UID, p.BusinessName, cause.Error()))
	})
}

// debitByWallet sums |amount| over negative (source) participants, keyed by
// wallet id — the amount each source wallet must be able to cover.
func debitByWallet(p *entities.Proposal) map[uuid.UUID]valueobjects.Decimal {
	out := map[uuid.UUID]valueobjects.Decimal{}
	for _, participant := range p.Participants {
		if !participant.Amount.IsNegative() {
			continue
		}
		need := participant.Amount.Abs()
		if existing, ok := out[participant.WalletID]; ok {
			need, _ = existing.Add(need)
		}
		out[participant.WalletID] = need
	}
	return out
}

func distinctSortedWalletIDs(participants []entities.Participant) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, participant := range participants {
		if seen[participant.WalletID] {
			continue
		}
		seen[participant.WalletID] = true
		ids = append(ids, participant.WalletID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// Package postgres - ProposalStore implementation: component D's backing
// store, including the CAS-guarded init->processing transition the
// single-entry guarantee depends on.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	domainErrors "github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.ProposalStore = (*ProposalStore)(nil)

// ProposalStore реализует ports.ProposalStore. Participants are stored as a
// JSONB array on the proposal row itself — they are frozen at creation
// (entities.Proposal.ApplyUpdate never touches them) and are always read
// and written as a whole, so there is no separate participants table.
type ProposalStore struct {
	pool *pgxpool.Pool
}

// NewProposalStore создаёт новый ProposalStore.
func NewProposalStore(pool *pgxpool.Pool) *ProposalStore {
	return &ProposalStore{pool: pool}
}

func (r *ProposalStore) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

type participantRow struct {
	WalletID uuid.UUID `json:"wallet_id"`
	Amount   string    `json:"amount"`
}

// Create inserts a new proposal row in draft or init status.
func (r *ProposalStore) Create(ctx context.Context, proposal *entities.Proposal) error {
	q := r.getQuerier(ctx)

	participantsJSON, err := marshalParticipants(proposal.Participants)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(proposal.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal meta_data: %w", err)
	}

	query := `
		INSERT INTO proposal (
			id, business_name, user_id, issuer, issuer_id, amount, currency,
			description, note, task_status, participants, meta_data,
			is_deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = q.Exec(ctx, query,
		proposal.UID,
		proposal.BusinessName,
		proposal.UserID,
		string(proposal.Issuer),
		proposal.IssuerID,
		decimalToNumeric(proposal.Amount),
		proposal.Currency.Code(),
		proposal.Description,
		proposal.Note,
		string(proposal.TaskStatus),
		participantsJSON,
		metaJSON,
		proposal.IsDeleted,
		proposal.CreatedAt,
		proposal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

// Save persists task_status, description, note and meta_data changes.
// Participants and amount never change after creation.
func (r *ProposalStore) Save(ctx context.Context, proposal *entities.Proposal) error {
	q := r.getQuerier(ctx)

	metaJSON, err := json.Marshal(proposal.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal meta_data: %w", err)
	}

	query := `
		UPDATE proposal SET
			task_status = $2, description = $3, note = $4, meta_data = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := q.Exec(ctx, query, proposal.UID, string(proposal.TaskStatus), proposal.Description, proposal.Note, metaJSON, proposal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrProposalNotFound
	}
	return nil
}

// FindByID loads a proposal, scoped to a business.
func (r *ProposalStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Proposal, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, issuer, issuer_id, amount, currency,
		       description, note, task_status, participants, meta_data,
		       is_deleted, created_at, updated_at
		FROM proposal
		WHERE id = $1 AND business_name = $2
	`
	return scanProposal(q.QueryRow(ctx, query, id, businessName))
}

// List returns a business's proposals, created_at descending.
func (r *ProposalStore) List(ctx context.Context, businessName string, offset, limit int) ([]*entities.Proposal, int, error) {
	q := r.getQuerier(ctx)

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM proposal WHERE business_name = $1", businessName).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	query := `
		SELECT id, business_name, user_id, issuer, issuer_id, amount, currency,
		       description, note, task_status, participants, meta_data,
		       is_deleted, created_at, updated_at
		FROM proposal
		WHERE business_name = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := q.Query(ctx, query, businessName, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	proposals, err := scanProposals(rows)
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

// CompareAndSetProcessing performs the conditional UPDATE task_status:
// init -> processing this kernel's single-entry guarantee relies on.
// Exactly one concurrent caller will see RowsAffected() == 1; every other
// concurrent or later caller sees 0 and must treat the proposal as already
// claimed.
func (r *ProposalStore) CompareAndSetProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	q := r.getQuerier(ctx)

	query := `
		UPDATE proposal SET task_status = 'processing', updated_at = $2
		WHERE id = $1 AND task_status = 'init'
	`
	result, err := q.Exec(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to claim proposal: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func marshalParticipants(participants []entities.Participant) ([]byte, error) {
	rows := make([]participantRow, len(participants))
	for i, p := range participants {
		rows[i] = participantRow{WalletID: p.WalletID, Amount: decimalToNumeric(p.Amount)}
	}
	return json.Marshal(rows)
}

func unmarshalParticipants(raw []byte, currency valueobjects.Currency) ([]entities.Participant, error) {
	var rows []participantRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	participants := make([]entities.Participant, len(rows))
	for i, row := range rows {
		amount, err := numericToDecimal(row.Amount, currency)
		if err != nil {
			return nil, fmt.Errorf("invalid participant amount in database: %w", err)
		}
		participants[i] = entities.Participant{WalletID: row.WalletID, Amount: amount}
	}
	return participants, nil
}

func scanProposal(row pgx.Row) (*entities.Proposal, error) {
	var (
		id, userID, issuerID  uuid.UUID
		businessName          string
		issuerStr             string
		amountRaw, currency   string
		description, note     string
		taskStatusStr         string
		participantsJSON      []byte
		metaJSON              []byte
		isDeleted             bool
		createdAt, updatedAt  time.Time
	)

	err := row.Scan(&id, &businessName, &userID, &issuerStr, &issuerID, &amountRaw, &currency, &description, &note, &taskStatusStr, &participantsJSON, &metaJSON, &isDeleted, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}
	return reconstructProposalRow(id, businessName, userID, issuerStr, issuerID, amountRaw, currency, description, note, taskStatusStr, participantsJSON, metaJSON, isDeleted, createdAt, updatedAt)
}

func scanProposals(rows pgx.Rows) ([]*entities.Proposal, error) {
	var proposals []*entities.Proposal
	for rows.Next() {
		var (
			id, userID, issuerID uuid.UUID
			businessName         string
			issuerStr            string
			amountRaw, currency  string
			description, note    string
			taskStatusStr        string
			participantsJSON     []byte
			metaJSON             []byte
			isDeleted            bool
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &businessName, &userID, &issuerStr, &issuerID, &amountRaw, &currency, &description, &note, &taskStatusStr, &participantsJSON, &metaJSON, &isDeleted, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proposal row: %w", err)
		}
		p, err := reconstructProposalRow(id, businessName, userID, issuerStr, issuerID, amountRaw, currency, description, note, taskStatusStr, participantsJSON, metaJSON, isDeleted, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal rows: %w", err)
	}
	return proposals, nil
}

func reconstructProposalRow(id uuid.UUID, businessName string, userID uuid.UUID, issuerStr string, issuerID uuid.UUID, amountRaw, currencyCode, description, note, taskStatusStr string, participantsJSON, metaJSON []byte, isDeleted bool, createdAt, updatedAt time.Time) (*entities.Proposal, error) {
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}
	amount, err := numericToDecimal(amountRaw, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}
	participants, err := unmarshalParticipants(participantsJSON, currency)
	if err != nil {
		return nil, err
	}

	var meta map[string]interface{}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal proposal meta_data: %w", err)
		}
	}

	envelope := entities.Envelope{
		UID:          id,
		BusinessName: businessName,
		UserID:       userID,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		IsDeleted:    isDeleted,
		MetaData:     meta,
	}
	return entities.ReconstructProposal(envelope, entities.IssuerKind(issuerStr), issuerID, amount, description, note, entities.TaskStatus(taskStatusStr), participants), nil
}

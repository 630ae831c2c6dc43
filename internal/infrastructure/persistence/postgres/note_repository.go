// Package postgres - NoteStore implementation: component E, the
// append-only annotation log on a transaction.
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
)

// Compile-time check
var _ ports.NoteStore = (*NoteStore)(nil)

// NoteStore реализует ports.NoteStore. Rows are never updated — "editing" a
// transaction's note means appending a new row; Latest resolves the
// currently-visible note by created_at desc.
type NoteStore struct {
	pool *pgxpool.Pool
}

// NewNoteStore создаёт новый NoteStore.
func NewNoteStore(pool *pgxpool.Pool) *NoteStore {
	return &NoteStore{pool: pool}
}

func (r *NoteStore) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Append inserts a new note row for a transaction.
func (r *NoteStore) Append(ctx context.Context, note *entities.TransactionNote) error {
	q := r.getQuerier(ctx)

	metaJSON, err := json.Marshal(note.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal note meta_data: %w", err)
	}

	query := `
		INSERT INTO transaction_note (
			id, business_name, user_id, transaction_id, note, meta_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = q.Exec(ctx, query, note.UID, note.BusinessName, note.UserID, note.TransactionID, note.Note, metaJSON, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrTransactionNotFound
		}
		return fmt.Errorf("failed to append note: %w", err)
	}
	return nil
}

// Latest returns the most recently appended note for a transaction, or nil
// if none exists.
func (r *NoteStore) Latest(ctx context.Context, transactionID uuid.UUID) (*entities.TransactionNote, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, transaction_id, note, meta_data, created_at, updated_at
		FROM transaction_note
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	row, err := scanNote(q.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, domainErrors.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

func scanNote(row pgx.Row) (*entities.TransactionNote, error) {
	var (
		id, userID, transactionID uuid.UUID
		businessName              string
		noteText                  string
		metaJSON                  []byte
		createdAt, updatedAt      time.Time
	)

	err := row.Scan(&id, &businessName, &userID, &transactionID, &noteText, &metaJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}

	var meta map[string]interface{}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal note meta_data: %w", err)
		}
	}

	envelope := entities.Envelope{
		UID:          id,
		BusinessName: businessName,
		UserID:       userID,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		MetaData:     meta,
	}
	return entities.ReconstructTransactionNote(envelope, transactionID, noteText), nil
}

// Package postgres - LedgerStore implementation: component A, the
// append-only transaction ledger.
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
var _ ports.LedgerStore = (*LedgerStore)(nil)

// LedgerStore реализует ports.LedgerStore. Every row is written once and
// never updated — there is deliberately no Update/Delete method here,
// unlike the teacher's PENDING->COMPLETED TransactionRepository.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore создаёт новый LedgerStore.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

func (r *LedgerStore) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Append inserts one immutable ledger row. Must be called inside the
// proposal commit's open unit of work.
func (r *LedgerStore) Append(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metaJSON, err := json.Marshal(tx.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction meta_data: %w", err)
	}

	query := `
		INSERT INTO transaction (
			id, business_name, user_id, proposal_id, wallet_id,
			amount, currency, balance, description, meta_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = q.Exec(ctx, query,
		tx.UID,
		tx.BusinessName,
		tx.UserID,
		tx.ProposalID,
		tx.WalletID,
		decimalToNumeric(tx.Amount),
		tx.Currency.Code(),
		decimalToNumeric(tx.Balance),
		tx.Description,
		metaJSON,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrWalletNotFound
		}
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	return nil
}

// LatestBalance returns the balance of the most recent row for
// (wallet_id, currency), or zero if the wallet has never transacted in it.
func (r *LedgerStore) LatestBalance(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency) (valueobjects.Decimal, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT balance FROM transaction
		WHERE wallet_id = $1 AND currency = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var raw string
	err := q.QueryRow(ctx, query, walletID, currency.Code()).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valueobjects.Zero(currency), nil
		}
		return valueobjects.Decimal{}, fmt.Errorf("failed to load latest balance: %w", err)
	}
	return numericToDecimal(raw, currency)
}

// DistinctCurrencies returns the set of currencies a wallet has ever
// transacted in (non-deleted rows only; rows are never deleted today, but
// the filter documents the intent for future soft-delete support).
func (r *LedgerStore) DistinctCurrencies(ctx context.Context, walletID uuid.UUID) ([]valueobjects.Currency, error) {
	q := r.getQuerier(ctx)

	query := `SELECT DISTINCT currency FROM transaction WHERE wallet_id = $1 AND is_deleted = false`

	rows, err := q.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load distinct currencies: %w", err)
	}
	defer rows.Close()

	var currencies []valueobjects.Currency
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currency, err := valueobjects.NewCurrency(code)
		if err != nil {
			return nil, fmt.Errorf("invalid currency in database: %w", err)
		}
		currencies = append(currencies, currency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rows: %w", err)
	}
	return currencies, nil
}

// List returns a wallet's transactions, created_at descending, with pagination.
func (r *LedgerStore) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error) {
	q := r.getQuerier(ctx)

	where := "WHERE business_name = $1 AND wallet_id = $2"
	args := []interface{}{filter.BusinessName, filter.WalletID}
	argNum := 3

	if filter.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.From)
		argNum++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *filter.To)
		argNum++
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM transaction "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, business_name, user_id, proposal_id, wallet_id,
		       amount, currency, balance, description, meta_data,
		       is_deleted, created_at, updated_at
		FROM transaction
		%s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d
	`, where, argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// FindByID loads a single transaction, scoped to a business.
func (r *LedgerStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, proposal_id, wallet_id,
		       amount, currency, balance, description, meta_data,
		       is_deleted, created_at, updated_at
		FROM transaction
		WHERE id = $1 AND business_name = $2
	`
	return scanTransaction(q.QueryRow(ctx, query, id, businessName))
}

// ByProposal returns every ledger row one proposal's commit phase wrote,
// in the order they were appended.
func (r *LedgerStore) ByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, proposal_id, wallet_id,
		       amount, currency, balance, description, meta_data,
		       is_deleted, created_at, updated_at
		FROM transaction
		WHERE proposal_id = $1
		ORDER BY created_at ASC
	`
	rows, err := q.Query(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, proposalID, walletID, userID uuid.UUID
		businessName                     string
		amountRaw, currencyCode          string
		balanceRaw, description          string
		metaJSON                         []byte
		isDeleted                        bool
		createdAt, updatedAt             time.Time
	)

	err := row.Scan(&id, &businessName, &userID, &proposalID, &walletID, &amountRaw, &currencyCode, &balanceRaw, &description, &metaJSON, &isDeleted, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return reconstructTransactionRow(id, businessName, userID, proposalID, walletID, amountRaw, currencyCode, balanceRaw, description, metaJSON, isDeleted, createdAt, updatedAt)
}

func scanTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	var txs []*entities.Transaction
	for rows.Next() {
		var (
			id, proposalID, walletID, userID uuid.UUID
			businessName                     string
			amountRaw, currencyCode          string
			balanceRaw, description          string
			metaJSON                         []byte
			isDeleted                        bool
			createdAt, updatedAt             time.Time
		)

		if err := rows.Scan(&id, &businessName, &userID, &proposalID, &walletID, &amountRaw, &currencyCode, &balanceRaw, &description, &metaJSON, &isDeleted, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		tx, err := reconstructTransactionRow(id, businessName, userID, proposalID, walletID, amountRaw, currencyCode, balanceRaw, description, metaJSON, isDeleted, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}

func reconstructTransactionRow(id uuid.UUID, businessName string, userID, proposalID, walletID uuid.UUID, amountRaw, currencyCode, balanceRaw, description string, metaJSON []byte, isDeleted bool, createdAt, updatedAt time.Time) (*entities.Transaction, error) {
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}
	amount, err := numericToDecimal(amountRaw, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}
	balance, err := numericToDecimal(balanceRaw, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in database: %w", err)
	}

	var meta map[string]interface{}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction meta_data: %w", err)
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
	return entities.ReconstructTransaction(envelope, proposalID, walletID, amount, balance, description), nil
}

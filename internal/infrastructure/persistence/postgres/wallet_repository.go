// Package postgres - WalletStore implementation.
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
var _ ports.WalletStore = (*WalletStore)(nil)

// WalletStore реализует ports.WalletStore.
//
// Balance не хранится в таблице wallet вовсе: это чистая производная
// величина над LedgerStore + HoldStore (component C), так что здесь только
// identity, tenant scope и пара полей, которые действительно принадлежат
// самой строке кошелька.
type WalletStore struct {
	pool *pgxpool.Pool
}

// NewWalletStore создаёт новый WalletStore.
func NewWalletStore(pool *pgxpool.Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

func (r *WalletStore) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts a new wallet row, or updates its mutable fields
// (meta_data, is_deleted) if one already exists. Unlike the teacher's
// balance-bearing wallet, there is no optimistic-locking version column
// here — the wallet row itself never participates in the race the ledger
// does; only meta_data/is_deleted ever change after creation.
func (r *WalletStore) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	metaJSON, err := json.Marshal(wallet.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet meta_data: %w", err)
	}

	query := `
		INSERT INTO wallet (
			id, business_name, user_id, wallet_type, main_currency,
			is_deleted, meta_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			is_deleted = EXCLUDED.is_deleted,
			meta_data  = EXCLUDED.meta_data,
			updated_at = EXCLUDED.updated_at
	`

	_, err = q.Exec(ctx, query,
		wallet.UID,
		wallet.BusinessName,
		wallet.UserID,
		string(wallet.WalletType),
		wallet.MainCurrency.Code(),
		wallet.IsDeleted,
		metaJSON,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrBusinessNotFound
		}
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	return nil
}

// FindByID loads a wallet by id, scoped to a business.
func (r *WalletStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, wallet_type, main_currency,
		       is_deleted, meta_data, created_at, updated_at
		FROM wallet
		WHERE id = $1 AND business_name = $2
	`
	return r.scanWallet(q.QueryRow(ctx, query, id, businessName))
}

// FindLockedByID loads a wallet with SELECT ... FOR UPDATE, for use inside
// the proposal commit phase's per-wallet ordered locking (spec concurrency
// model). Callers must already hold the wallet ids in ascending order and
// call this inside an open transaction — a pool-only call would hold no
// lock beyond the single statement.
func (r *WalletStore) FindLockedByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, wallet_type, main_currency,
		       is_deleted, meta_data, created_at, updated_at
		FROM wallet
		WHERE id = $1 AND business_name = $2
		FOR UPDATE
	`
	return r.scanWallet(q.QueryRow(ctx, query, id, businessName))
}

// List возвращает кошельки с фильтрацией и пагинацией.
func (r *WalletStore) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, int, error) {
	q := r.getQuerier(ctx)

	where := "WHERE business_name = $1"
	args := []interface{}{filter.BusinessName}
	argNum := 2

	if filter.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.IsDeleted != nil {
		where += fmt.Sprintf(" AND is_deleted = $%d", argNum)
		args = append(args, *filter.IsDeleted)
		argNum++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM wallet " + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count wallets: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, business_name, user_id, wallet_type, main_currency,
		       is_deleted, meta_data, created_at, updated_at
		FROM wallet
		%s
		ORDER BY created_at ASC
		OFFSET $%d LIMIT $%d
	`, where, argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	wallets, err := r.scanWallets(rows)
	if err != nil {
		return nil, 0, err
	}
	return wallets, total, nil
}

func (r *WalletStore) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, userID         uuid.UUID
		businessName       string
		walletTypeStr      string
		currencyCode       string
		isDeleted          bool
		metaJSON           []byte
		createdAt, updated time.Time
	)

	err := row.Scan(&id, &businessName, &userID, &walletTypeStr, &currencyCode, &isDeleted, &metaJSON, &createdAt, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	return reconstructWalletRow(id, businessName, userID, walletTypeStr, currencyCode, isDeleted, metaJSON, createdAt, updated)
}

func (r *WalletStore) scanWallets(rows pgx.Rows) ([]*entities.Wallet, error) {
	var wallets []*entities.Wallet
	for rows.Next() {
		var (
			id, userID         uuid.UUID
			businessName       string
			walletTypeStr      string
			currencyCode       string
			isDeleted          bool
			metaJSON           []byte
			createdAt, updated time.Time
		)

		if err := rows.Scan(&id, &businessName, &userID, &walletTypeStr, &currencyCode, &isDeleted, &metaJSON, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan wallet row: %w", err)
		}

		w, err := reconstructWalletRow(id, businessName, userID, walletTypeStr, currencyCode, isDeleted, metaJSON, createdAt, updated)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}
	return wallets, nil
}

func reconstructWalletRow(id uuid.UUID, businessName string, userID uuid.UUID, walletTypeStr, currencyCode string, isDeleted bool, metaJSON []byte, createdAt, updatedAt time.Time) (*entities.Wallet, error) {
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}

	var meta map[string]interface{}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wallet meta_data: %w", err)
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
	return entities.ReconstructWallet(envelope, entities.WalletType(walletTypeStr), currency), nil
}

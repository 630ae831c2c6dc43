// Package postgres - HoldStore implementation: component B, the
// time- and status-scoped wallet hold.
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
var _ ports.HoldStore = (*HoldStore)(nil)

// HoldStore реализует ports.HoldStore.
type HoldStore struct {
	pool *pgxpool.Pool
}

// NewHoldStore создаёт новый HoldStore.
func NewHoldStore(pool *pgxpool.Pool) *HoldStore {
	return &HoldStore{pool: pool}
}

func (r *HoldStore) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts a new hold row.
func (r *HoldStore) Create(ctx context.Context, hold *entities.WalletHold) error {
	q := r.getQuerier(ctx)

	metaJSON, err := json.Marshal(hold.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal hold meta_data: %w", err)
	}

	query := `
		INSERT INTO wallet_hold (
			id, business_name, user_id, wallet_id, amount, currency,
			expires_at, status, description, meta_data, is_deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = q.Exec(ctx, query,
		hold.UID,
		hold.BusinessName,
		hold.UserID,
		hold.WalletID,
		decimalToNumeric(hold.Amount),
		hold.Amount.Currency().Code(),
		hold.ExpiresAt,
		string(hold.Status),
		hold.Description,
		metaJSON,
		hold.IsDeleted,
		hold.CreatedAt,
		hold.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrWalletNotFound
		}
		return fmt.Errorf("failed to create hold: %w", err)
	}
	return nil
}

// Update persists a hold's mutable fields (expires_at, status,
// description, meta_data, updated_at).
func (r *HoldStore) Update(ctx context.Context, hold *entities.WalletHold) error {
	q := r.getQuerier(ctx)

	metaJSON, err := json.Marshal(hold.MetaData)
	if err != nil {
		return fmt.Errorf("failed to marshal hold meta_data: %w", err)
	}

	query := `
		UPDATE wallet_hold SET
			expires_at = $2, status = $3, description = $4, meta_data = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := q.Exec(ctx, query, hold.UID, hold.ExpiresAt, string(hold.Status), hold.Description, metaJSON, hold.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update hold: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrHoldNotFound
	}
	return nil
}

// FindByID loads a hold by id, scoped to a business.
func (r *HoldStore) FindByID(ctx context.Context, businessName string, id uuid.UUID) (*entities.WalletHold, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT id, business_name, user_id, wallet_id, amount, currency,
		       expires_at, status, description, meta_data, is_deleted, created_at, updated_at
		FROM wallet_hold
		WHERE id = $1 AND business_name = $2
	`
	return scanHold(q.QueryRow(ctx, query, id, businessName))
}

// List filters holds by business, optionally wallet/user/currency/status/window.
func (r *HoldStore) List(ctx context.Context, filter ports.HoldFilter, offset, limit int) ([]*entities.WalletHold, int, error) {
	q := r.getQuerier(ctx)

	where := "WHERE business_name = $1 AND is_deleted = $2"
	args := []interface{}{filter.BusinessName, filter.IsDeleted}
	argNum := 3

	if filter.WalletID != nil {
		where += fmt.Sprintf(" AND wallet_id = $%d", argNum)
		args = append(args, *filter.WalletID)
		argNum++
	}
	if filter.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.Currency != nil {
		where += fmt.Sprintf(" AND currency = $%d", argNum)
		args = append(args, filter.Currency.Code())
		argNum++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}
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
	if filter.From == nil && filter.To == nil {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		where += fmt.Sprintf(" AND expires_at > $%d", argNum)
		args = append(args, now)
		argNum++
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM wallet_hold "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count holds: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, business_name, user_id, wallet_id, amount, currency,
		       expires_at, status, description, meta_data, is_deleted, created_at, updated_at
		FROM wallet_hold
		%s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d
	`, where, argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list holds: %w", err)
	}
	defer rows.Close()

	holds, err := scanHolds(rows)
	if err != nil {
		return nil, 0, err
	}
	return holds, total, nil
}

// ActiveSum returns Σamount over rows where is_deleted=false, status=active,
// expires_at > now, for (wallet_id, currency) — the hold amount that
// currently reduces spendable balance.
func (r *HoldStore) ActiveSum(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency, now time.Time) (valueobjects.Decimal, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT COALESCE(SUM(amount), 0) FROM wallet_hold
		WHERE wallet_id = $1 AND currency = $2 AND is_deleted = false
		  AND status = 'active' AND expires_at > $3
	`

	var raw string
	err := q.QueryRow(ctx, query, walletID, currency.Code(), now).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valueobjects.Zero(currency), nil
		}
		return valueobjects.Decimal{}, fmt.Errorf("failed to sum active holds: %w", err)
	}
	return numericToDecimal(raw, currency)
}

func scanHold(row pgx.Row) (*entities.WalletHold, error) {
	var (
		id, walletID, userID uuid.UUID
		businessName         string
		amountRaw, currency  string
		expiresAt            time.Time
		statusStr, descr     string
		metaJSON             []byte
		isDeleted            bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &businessName, &userID, &walletID, &amountRaw, &currency, &expiresAt, &statusStr, &descr, &metaJSON, &isDeleted, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to scan hold: %w", err)
	}
	return reconstructHoldRow(id, businessName, userID, walletID, amountRaw, currency, expiresAt, statusStr, descr, metaJSON, isDeleted, createdAt, updatedAt)
}

func scanHolds(rows pgx.Rows) ([]*entities.WalletHold, error) {
	var holds []*entities.WalletHold
	for rows.Next() {
		var (
			id, walletID, userID uuid.UUID
			businessName         string
			amountRaw, currency  string
			expiresAt            time.Time
			statusStr, descr     string
			metaJSON             []byte
			isDeleted            bool
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &businessName, &userID, &walletID, &amountRaw, &currency, &expiresAt, &statusStr, &descr, &metaJSON, &isDeleted, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hold row: %w", err)
		}
		h, err := reconstructHoldRow(id, businessName, userID, walletID, amountRaw, currency, expiresAt, statusStr, descr, metaJSON, isDeleted, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hold rows: %w", err)
	}
	return holds, nil
}

func reconstructHoldRow(id uuid.UUID, businessName string, userID, walletID uuid.UUID, amountRaw, currencyCode string, expiresAt time.Time, statusStr, description string, metaJSON []byte, isDeleted bool, createdAt, updatedAt time.Time) (*entities.WalletHold, error) {
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}
	amount, err := numericToDecimal(amountRaw, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	var meta map[string]interface{}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hold meta_data: %w", err)
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
	return entities.ReconstructWalletHold(envelope, walletID, amount, expiresAt, entities.HoldStatus(statusStr), description), nil
}

// Package postgres - BusinessLookup implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.BusinessLookup = (*BusinessLookup)(nil)

// BusinessLookup resolves tenant existence and configured default currency
// against the business directory table. The spec treats the directory
// itself as an external collaborator's concern (out of scope beyond this
// shape), so the table here carries only what the kernel consumes.
type BusinessLookup struct {
	pool *pgxpool.Pool
}

// NewBusinessLookup создаёт новый BusinessLookup.
func NewBusinessLookup(pool *pgxpool.Pool) *BusinessLookup {
	return &BusinessLookup{pool: pool}
}

func (r *BusinessLookup) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Exists reports whether a business_name is a known tenant.
func (r *BusinessLookup) Exists(ctx context.Context, businessName string) (bool, error) {
	q := r.getQuerier(ctx)
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM business WHERE name = $1)`, businessName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check business existence: %w", err)
	}
	return exists, nil
}

// DefaultCurrency returns the tenant's configured default wallet currency,
// used to mint a user's implicit first wallet.
func (r *BusinessLookup) DefaultCurrency(ctx context.Context, businessName string) (valueobjects.Currency, error) {
	q := r.getQuerier(ctx)
	var code string
	err := q.QueryRow(ctx, `SELECT default_currency FROM business WHERE name = $1`, businessName).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valueobjects.Currency{}, fmt.Errorf("business %q not found", businessName)
		}
		return valueobjects.Currency{}, fmt.Errorf("failed to load default currency: %w", err)
	}
	return valueobjects.NewCurrency(code)
}

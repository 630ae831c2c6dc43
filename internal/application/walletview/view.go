// Package walletview implements component C of the accounting kernel: pure
// read-side derivations over the ledger and hold stores. Nothing in this
// package writes state — currencies(), balance(), held_amount(), and
// spendable() are all queries.
package walletview

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

var tracer = otel.Tracer("wallethub/walletview")

// View composes the ledger and hold stores into the wallet-facing
// derivations spec §4.C describes. It holds no state of its own.
type View struct {
	ledger ports.LedgerStore
	holds  ports.HoldStore
}

// New builds a wallet view over the given stores.
func New(ledger ports.LedgerStore, holds ports.HoldStore) *View {
	return &View{ledger: ledger, holds: holds}
}

// Currencies returns the sorted set of currencies a wallet has touched.
// app_income wallets report only their configured main_currency and never
// scan the ledger — their balance there is definitionally unbounded.
func (v *View) Currencies(ctx context.Context, w *entities.Wallet) ([]valueobjects.Currency, error) {
	if w.IsAppIncome() {
		return []valueobjects.Currency{w.MainCurrency}, nil
	}

	seen := map[string]valueobjects.Currency{}
	if !w.MainCurrency.IsNone() {
		seen[w.MainCurrency.Code()] = w.MainCurrency
	}

	ledgerCurrencies, err := v.ledger.DistinctCurrencies(ctx, w.UID)
	if err != nil {
		return nil, err
	}
	for _, c := range ledgerCurrencies {
		if c.IsNone() {
			continue
		}
		seen[c.Code()] = c
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]valueobjects.Currency, 0, len(codes))
	for _, code := range codes {
		out = append(out, seen[code])
	}
	return out, nil
}

// Balance returns the wallet's balance for a single currency.
func (v *View) Balance(ctx context.Context, w *entities.Wallet, currency valueobjects.Currency) (bal valueobjects.Balance, err error) {
	ctx, span := tracer.Start(ctx, "walletview.balance",
		trace.WithAttributes(
			attribute.String("wallet.id", w.UID.String()),
			attribute.String("currency", currency.Code()),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if w.IsAppIncome() {
		if currency.Equals(w.MainCurrency) {
			return valueobjects.UnboundedBalance(currency), nil
		}
		return valueobjects.FiniteBalance(valueobjects.Zero(currency)), nil
	}

	amount, err := v.ledger.LatestBalance(ctx, w.UID, currency)
	if err != nil {
		return valueobjects.Balance{}, err
	}
	return valueobjects.FiniteBalance(amount), nil
}

// BalanceMap returns the balance of a wallet in every currency that
// Currencies reports for it.
func (v *View) BalanceMap(ctx context.Context, w *entities.Wallet) (map[string]valueobjects.Balance, error) {
	currencies, err := v.Currencies(ctx, w)
	if err != nil {
		return nil, err
	}

	out := make(map[string]valueobjects.Balance, len(currencies))
	for _, c := range currencies {
		b, err := v.Balance(ctx, w, c)
		if err != nil {
			return nil, err
		}
		out[c.Code()] = b
	}
	return out, nil
}

// HeldAmount returns the sum of currently-active holds on a wallet for a
// currency.
func (v *View) HeldAmount(ctx context.Context, walletID uuid.UUID, currency valueobjects.Currency) (valueobjects.Decimal, error) {
	return v.holds.ActiveSum(ctx, walletID, currency, time.Now())
}

// Spendable returns balance - held_amount for a currency. For app_income
// this is always unbounded, regardless of any hold ever placed on it.
func (v *View) Spendable(ctx context.Context, w *entities.Wallet, currency valueobjects.Currency) (valueobjects.Balance, error) {
	if w.IsAppIncome() && currency.Equals(w.MainCurrency) {
		return valueobjects.UnboundedBalance(currency), nil
	}

	balance, err := v.Balance(ctx, w, currency)
	if err != nil {
		return valueobjects.Balance{}, err
	}
	held, err := v.HeldAmount(ctx, w.UID, currency)
	if err != nil {
		return valueobjects.Balance{}, err
	}
	return balance.Sub(held)
}

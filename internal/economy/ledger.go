// Package economy holds the currency ledger the order engine escrows
// against. The engine only sees the Ledger interface; the host game may
// swap in its own balance service.
package economy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type Ledger interface {
	Balance(ctx context.Context, player uuid.UUID) (decimal.Decimal, error)
	// Withdraw fails with ErrInsufficientFunds rather than going negative.
	Withdraw(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error
	Deposit(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error
}

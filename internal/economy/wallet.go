package economy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WalletLedger is a Postgres-backed Ledger. One row per player; withdrawals
// are guarded in SQL so a balance can never go negative even with
// concurrent callers.
type WalletLedger struct {
	Pool *pgxpool.Pool
}

func NewWalletLedger(pool *pgxpool.Pool) *WalletLedger {
	return &WalletLedger{Pool: pool}
}

func (l *WalletLedger) Balance(ctx context.Context, player uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.Pool.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE player=$1`, player).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return balance, err
}

func (l *WalletLedger) Withdraw(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error {
	res, err := l.Pool.Exec(ctx, `
		UPDATE wallets SET balance = balance - $2
		WHERE player=$1 AND balance >= $2
	`, player, amount)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (l *WalletLedger) Deposit(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error {
	_, err := l.Pool.Exec(ctx, `
		INSERT INTO wallets (player, balance) VALUES ($1,$2)
		ON CONFLICT (player) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance
	`, player, amount)
	return err
}

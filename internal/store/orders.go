package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

// execer is satisfied by both the pool and an open transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const orderColumns = `
	id, owner, assignee, cost, unit_price, item, item_amount,
	item_completed, items_returned, items_obtained, refund_owed, status,
	time_created, time_expires, time_claimed, time_deadline,
	time_completed, time_pickup`

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	item, err := json.Marshal(order.Item)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO orders (
			id, owner, assignee, cost, unit_price, item, item_amount,
			item_completed, items_returned, items_obtained, refund_owed, status,
			time_created, time_expires, time_claimed, time_deadline,
			time_completed, time_pickup
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		order.ID,
		order.Owner,
		order.Assignee,
		order.Cost,
		order.UnitPrice,
		item,
		order.ItemAmount,
		order.ItemCompleted,
		order.ItemsReturned,
		order.ItemsObtained,
		order.RefundOwed,
		order.Status,
		order.TimeCreated,
		order.TimeExpires,
		order.TimeClaimed,
		order.TimeDeadline,
		order.TimeCompleted,
		order.TimePickup,
	)
	return err
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	return scanOrder(row)
}

// UpdateOrder replaces the full record; callers serialize conflicting
// transitions on the same id.
func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	return updateOrder(ctx, s.Pool, order)
}

// UpdateOrderWithContribution persists an order mutation and the
// contribution that caused it in one transaction, so the progress
// counters and the contribution ledger cannot diverge.
func (s *Store) UpdateOrderWithContribution(ctx context.Context, order *models.Order, c *models.Contribution) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateOrder(ctx, tx, order); err != nil {
		return err
	}
	if err := insertContribution(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func updateOrder(ctx context.Context, db execer, order *models.Order) error {
	item, err := json.Marshal(order.Item)
	if err != nil {
		return err
	}
	res, err := db.Exec(ctx, `
		UPDATE orders SET
			assignee=$2, item=$3, item_amount=$4, item_completed=$5,
			items_returned=$6, items_obtained=$7, refund_owed=$8, status=$9,
			time_expires=$10, time_claimed=$11, time_deadline=$12,
			time_completed=$13, time_pickup=$14
		WHERE id=$1
	`,
		order.ID,
		order.Assignee,
		item,
		order.ItemAmount,
		order.ItemCompleted,
		order.ItemsReturned,
		order.ItemsObtained,
		order.RefundOwed,
		order.Status,
		order.TimeExpires,
		order.TimeClaimed,
		order.TimeDeadline,
		order.TimeCompleted,
		order.TimePickup,
	)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	return err
}

// ListPending returns browseable orders: PENDING, not yet expired, newest
// first. Expired-but-kept orders stay out of the listing.
func (s *Store) ListPending(ctx context.Context, now time.Time, limit, offset int) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status='PENDING' AND time_expires > $1
		ORDER BY time_created DESC
		LIMIT $2 OFFSET $3
	`, now, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (s *Store) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE owner=$1
		ORDER BY time_created DESC
		LIMIT $2 OFFSET $3
	`, owner, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (s *Store) ListByAssignee(ctx context.Context, assignee uuid.UUID, limit, offset int) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE assignee=$1 AND status IN ('CLAIMED','INCOMPLETE','CANCELLED')
		ORDER BY time_created DESC
		LIMIT $2 OFFSET $3
	`, assignee, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListByStatus returns every order in a status, oldest created first, the
// order the sweep passes walk them in.
func (s *Store) ListByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status=$1
		ORDER BY time_created ASC
	`, status)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListOwedRefunds returns orders carrying a refund that failed to deposit.
func (s *Store) ListOwedRefunds(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE refund_owed > 0
		ORDER BY time_created ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (s *Store) CountActiveByOwner(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE owner=$1 AND status='PENDING'`, owner).Scan(&n)
	return n, err
}

func (s *Store) CountClaimedByAssignee(ctx context.Context, assignee uuid.UUID) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE assignee=$1 AND status='CLAIMED'`, assignee).Scan(&n)
	return n, err
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	defer rows.Close()
	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var assignee uuid.NullUUID
	var item []byte
	var cost, unitPrice, refundOwed decimal.Decimal
	var claimed, deadline, completed, pickup sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.Owner,
		&assignee,
		&cost,
		&unitPrice,
		&item,
		&order.ItemAmount,
		&order.ItemCompleted,
		&order.ItemsReturned,
		&order.ItemsObtained,
		&refundOwed,
		&order.Status,
		&order.TimeCreated,
		&order.TimeExpires,
		&claimed,
		&deadline,
		&completed,
		&pickup,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order.Cost = cost
	order.UnitPrice = unitPrice
	order.RefundOwed = refundOwed
	if err := json.Unmarshal(item, &order.Item); err != nil {
		return nil, err
	}
	if assignee.Valid {
		order.Assignee = &assignee.UUID
	}
	if claimed.Valid {
		order.TimeClaimed = &claimed.Time
	}
	if deadline.Valid {
		order.TimeDeadline = &deadline.Time
	}
	if completed.Valid {
		order.TimeCompleted = &completed.Time
	}
	if pickup.Valid {
		order.TimePickup = &pickup.Time
	}
	return &order, nil
}

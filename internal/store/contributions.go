package store

import (
	"context"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
)

func insertContribution(ctx context.Context, db execer, c *models.Contribution) error {
	_, err := db.Exec(ctx, `
		INSERT INTO contributions (
			id, order_id, contributor, amount, payment_received, time_contributed
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		c.ID,
		c.OrderID,
		c.Contributor,
		c.Amount,
		c.PaymentReceived,
		c.TimeContributed,
	)
	return err
}

func (s *Store) ListContributions(ctx context.Context, orderID uuid.UUID) ([]*models.Contribution, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, contributor, amount, payment_received, time_contributed
		FROM contributions
		WHERE order_id=$1
		ORDER BY time_contributed ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Contribution
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(
			&c.ID,
			&c.OrderID,
			&c.Contributor,
			&c.Amount,
			&c.PaymentReceived,
			&c.TimeContributed,
		); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteContributions removes an order's contribution records; called only
// when the order itself is deleted.
func (s *Store) DeleteContributions(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM contributions WHERE order_id=$1`, orderID)
	return err
}

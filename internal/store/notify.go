package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetNotifier returns a player's notification preference, defaulting to
// ALL for players who never set one.
func (s *Store) GetNotifier(ctx context.Context, player uuid.UUID) (*models.PlayerNotifier, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT player, mode FROM notifiers WHERE player=$1`, player)
	var n models.PlayerNotifier
	if err := row.Scan(&n.Player, &n.Mode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.PlayerNotifier{Player: player, Mode: models.NotifyAll}, nil
		}
		return nil, err
	}
	return &n, nil
}

func (s *Store) SetNotifier(ctx context.Context, n *models.PlayerNotifier) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO notifiers (player, mode) VALUES ($1,$2)
		ON CONFLICT (player) DO UPDATE SET mode=EXCLUDED.mode
	`, n.Player, n.Mode)
	return err
}

func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	item, err := json.Marshal(sub.Item)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO subscriptions (id, player, item) VALUES ($1,$2,$3)
	`, sub.ID, sub.Player, item)
	return err
}

func (s *Store) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	return err
}

func (s *Store) ListSubscriptions(ctx context.Context, player uuid.UUID) ([]*models.Subscription, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, player, item FROM subscriptions WHERE player=$1`, player)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// ListAllSubscriptions returns every subscription; the notifier matches
// them against a new order's item descriptor.
func (s *Store) ListAllSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, player, item FROM subscriptions`)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

func collectSubscriptions(rows pgx.Rows) ([]*models.Subscription, error) {
	defer rows.Close()
	var out []*models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var item []byte
		if err := rows.Scan(&sub.ID, &sub.Player, &item); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(item, &sub.Item); err != nil {
			return nil, err
		}
		out = append(out, &sub)
	}
	return out, rows.Err()
}

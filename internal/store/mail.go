package store

import (
	"context"
	"time"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
)

func (s *Store) CreateMail(ctx context.Context, m *models.Mail) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO mail (id, player, message, time_created, time_expires)
		VALUES ($1,$2,$3,$4,$5)
	`, m.ID, m.Player, m.Message, m.TimeCreated, m.TimeExpires)
	return err
}

// ConsumeMail returns and deletes every queued message for a player in one
// transaction, so a message is delivered at most once.
func (s *Store) ConsumeMail(ctx context.Context, player uuid.UUID) ([]*models.Mail, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, player, message, time_created, time_expires
		FROM mail
		WHERE player=$1
		ORDER BY time_created ASC
	`, player)
	if err != nil {
		return nil, err
	}

	var out []*models.Mail
	for rows.Next() {
		var m models.Mail
		if err := rows.Scan(&m.ID, &m.Player, &m.Message, &m.TimeCreated, &m.TimeExpires); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, &m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM mail WHERE player=$1`, player); err != nil {
		return nil, err
	}
	return out, tx.Commit(ctx)
}

func (s *Store) PurgeExpiredMail(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.Pool.Exec(ctx, `DELETE FROM mail WHERE time_expires < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

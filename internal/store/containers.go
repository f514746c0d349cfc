package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrSlotNotFound = errors.New("container slot not found")

func (s *Store) CreateSlot(ctx context.Context, slot *models.ContainerSlot) error {
	item, err := json.Marshal(slot.Item)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO container_slots (id, player, item, amount)
		VALUES ($1,$2,$3,$4)
	`, slot.ID, slot.Player, item, slot.Amount)
	return err
}

func (s *Store) UpdateSlotAmount(ctx context.Context, id uuid.UUID, amount int) error {
	res, err := s.Pool.Exec(ctx,
		`UPDATE container_slots SET amount=$2 WHERE id=$1`, id, amount)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (s *Store) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM container_slots WHERE id=$1`, id)
	return err
}

func (s *Store) GetSlot(ctx context.Context, id uuid.UUID) (*models.ContainerSlot, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, player, item, amount FROM container_slots WHERE id=$1`, id)
	return scanSlot(row)
}

func (s *Store) ListSlots(ctx context.Context, player uuid.UUID) ([]*models.ContainerSlot, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, player, item, amount FROM container_slots WHERE player=$1 ORDER BY id`, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ContainerSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func scanSlot(row rowScanner) (*models.ContainerSlot, error) {
	var slot models.ContainerSlot
	var item []byte
	if err := row.Scan(&slot.ID, &slot.Player, &item, &slot.Amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(item, &slot.Item); err != nil {
		return nil, err
	}
	return &slot, nil
}

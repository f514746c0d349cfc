// Package container is the per-player overflow stash: items that could not
// be handed to a player's inventory directly land in descriptor-keyed
// buckets until withdrawn.
package container

import (
	"context"
	"errors"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotSlotOwner  = errors.New("container slot belongs to another player")
	ErrInvalidAmount = errors.New("withdraw amount must be positive")
)

// Courier attempts direct delivery of items to an online player's
// inventory and returns the undelivered remainder (0 when everything
// arrived). Implemented by the host game's inventory bridge.
type Courier interface {
	Deliver(ctx context.Context, player uuid.UUID, item models.ItemDescriptor, amount int) (int, error)
}

// SlotStore persists the buckets. Implemented by internal/store.
type SlotStore interface {
	CreateSlot(ctx context.Context, slot *models.ContainerSlot) error
	UpdateSlotAmount(ctx context.Context, id uuid.UUID, amount int) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	GetSlot(ctx context.Context, id uuid.UUID) (*models.ContainerSlot, error)
	ListSlots(ctx context.Context, player uuid.UUID) ([]*models.ContainerSlot, error)
}

type Manager struct {
	Store    SlotStore
	Courier  Courier
	Registry models.ItemRegistry
	Log      zerolog.Logger
}

func NewManager(store SlotStore, courier Courier, log zerolog.Logger) *Manager {
	return &Manager{Store: store, Courier: courier, Log: log}
}

// AddItems tries direct delivery first and banks any remainder in the
// player's container, merging into an existing bucket with a matching
// descriptor.
func (m *Manager) AddItems(ctx context.Context, player uuid.UUID, item models.ItemDescriptor, amount int) error {
	if amount <= 0 {
		return nil
	}

	remainder := amount
	if m.Courier != nil {
		var err error
		remainder, err = m.Courier.Deliver(ctx, player, item, amount)
		if err != nil {
			// Delivery channel failure must not lose items; bank everything.
			m.Log.Warn().Err(err).
				Str("player", player.String()).
				Msg("direct delivery failed, banking items")
			remainder = amount
		}
	}
	if remainder <= 0 {
		return nil
	}
	return m.bank(ctx, player, item, remainder)
}

func (m *Manager) bank(ctx context.Context, player uuid.UUID, item models.ItemDescriptor, amount int) error {
	slots, err := m.Store.ListSlots(ctx, player)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if models.MatchItems(m.Registry, slot.Item, item) {
			return m.Store.UpdateSlotAmount(ctx, slot.ID, slot.Amount+amount)
		}
	}
	return m.Store.CreateSlot(ctx, &models.ContainerSlot{
		ID:     uuid.New(),
		Player: player,
		Item:   item,
		Amount: amount,
	})
}

// Withdraw pulls up to amount items out of a bucket and attempts delivery.
// Any remainder the courier cannot place is merged back into the bucket so
// items are never dropped. Returns how many items actually reached the
// player.
func (m *Manager) Withdraw(ctx context.Context, player, slotID uuid.UUID, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	slot, err := m.Store.GetSlot(ctx, slotID)
	if err != nil {
		return 0, err
	}
	if slot.Player != player {
		return 0, ErrNotSlotOwner
	}

	take := amount
	if take > slot.Amount {
		take = slot.Amount
	}

	undelivered := take
	if m.Courier != nil {
		undelivered, err = m.Courier.Deliver(ctx, player, slot.Item, take)
		if err != nil {
			m.Log.Warn().Err(err).
				Str("player", player.String()).
				Msg("withdraw delivery failed")
			undelivered = take
		}
	}

	delivered := take - undelivered
	remaining := slot.Amount - delivered
	if remaining <= 0 {
		if err := m.Store.DeleteSlot(ctx, slot.ID); err != nil {
			return delivered, err
		}
		return delivered, nil
	}
	if err := m.Store.UpdateSlotAmount(ctx, slot.ID, remaining); err != nil {
		return delivered, err
	}
	return delivered, nil
}

func (m *Manager) List(ctx context.Context, player uuid.UUID) ([]*models.ContainerSlot, error) {
	return m.Store.ListSlots(ctx, player)
}

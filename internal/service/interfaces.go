package service

import (
	"context"
	"time"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
)

// OrderStore is the durable system of record for orders and their
// contribution ledger. Implemented by internal/store on Postgres and by
// in-memory fakes in tests.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	ListPending(ctx context.Context, now time.Time, limit, offset int) ([]*models.Order, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListByAssignee(ctx context.Context, assignee uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error)
	ListOwedRefunds(ctx context.Context) ([]*models.Order, error)
	CountActiveByOwner(ctx context.Context, owner uuid.UUID) (int, error)
	CountClaimedByAssignee(ctx context.Context, assignee uuid.UUID) (int, error)

	// UpdateOrderWithContribution applies an order mutation together with
	// the contribution record that caused it, atomically.
	UpdateOrderWithContribution(ctx context.Context, order *models.Order, c *models.Contribution) error
	ListContributions(ctx context.Context, orderID uuid.UUID) ([]*models.Contribution, error)
	DeleteContributions(ctx context.Context, orderID uuid.UUID) error
}

// Stash hands items to a player, direct delivery first, overflowing into
// the player's container. Implemented by internal/container.
type Stash interface {
	AddItems(ctx context.Context, player uuid.UUID, item models.ItemDescriptor, amount int) error
}

// Events receives lifecycle notifications after a transition commits.
// Implementations must not block.
type Events interface {
	OrderCreated(order *models.Order)
	OrderAccepted(order *models.Order)
	OrderCompleted(order *models.Order)
	OrderExpired(order *models.Order)
	OrderIncomplete(order *models.Order)
	OrderCancelled(order *models.Order)
	ContributionMade(order *models.Order, c *models.Contribution)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) OrderCreated(*models.Order)                           {}
func (NopEvents) OrderAccepted(*models.Order)                          {}
func (NopEvents) OrderCompleted(*models.Order)                         {}
func (NopEvents) OrderExpired(*models.Order)                           {}
func (NopEvents) OrderIncomplete(*models.Order)                        {}
func (NopEvents) OrderCancelled(*models.Order)                         {}
func (NopEvents) ContributionMade(*models.Order, *models.Contribution) {}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderClaimed    OrderStatus = "CLAIMED"
	OrderIncomplete OrderStatus = "INCOMPLETE"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Order is a job-board listing: an escrowed payment in exchange for a
// target quantity of a specific item.
type Order struct {
	ID    uuid.UUID
	Owner uuid.UUID
	// Assignee is set once a player claims the whole order.
	Assignee *uuid.UUID

	// Cost is the total payment escrowed at creation. UnitPrice is
	// Cost/ItemAmount, fixed at creation; every payout and refund is
	// derived from it so repeated partial operations cannot drift.
	Cost      decimal.Decimal
	UnitPrice decimal.Decimal

	Item       ItemDescriptor
	ItemAmount int

	// ItemCompleted counts contributed units. ItemsReturned drains it back
	// to the assignee on incomplete/cancel; ItemsObtained drains it to the
	// owner after completion. The two drains live on disjoint status
	// branches and never mix.
	ItemCompleted int
	ItemsReturned int
	ItemsObtained int

	// RefundOwed holds a refund whose ledger deposit failed at transition
	// time. The sweeper retries it until it clears.
	RefundOwed decimal.Decimal

	Status OrderStatus

	TimeCreated   time.Time
	TimeExpires   time.Time
	TimeClaimed   *time.Time
	TimeDeadline  *time.Time
	TimeCompleted *time.Time
	TimePickup    *time.Time
}

// Remaining reports how many units are still needed.
func (o *Order) Remaining() int {
	return o.ItemAmount - o.ItemCompleted
}

// RefundForRemainder is the pro-rata refund for unfulfilled units.
func (o *Order) RefundForRemainder() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Remaining())))
}

func (o *Order) Expired(now time.Time) bool {
	return now.After(o.TimeExpires)
}

func (o *Order) DeadlinePassed(now time.Time) bool {
	return o.TimeDeadline != nil && now.After(*o.TimeDeadline)
}

func (o *Order) PickupPassed(now time.Time) bool {
	return o.TimePickup != nil && now.After(*o.TimePickup)
}

// Contribution is an append-only record of one player's partial delivery
// toward an order, paid out immediately per-unit.
type Contribution struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Contributor     uuid.UUID
	Amount          int
	PaymentReceived decimal.Decimal
	TimeContributed time.Time
}

// ContainerSlot is one per-player overflow bucket, keyed by item descriptor.
type ContainerSlot struct {
	ID     uuid.UUID
	Player uuid.UUID
	Item   ItemDescriptor
	Amount int
}

// Mail is a queued message for a player who was offline when an event
// concerning them happened. Delivered on next connect, purged after the
// configured retention window.
type Mail struct {
	ID          uuid.UUID
	Player      uuid.UUID
	Message     string
	TimeCreated time.Time
	TimeExpires time.Time
}

type NotifierMode string

const (
	NotifyAll           NotifierMode = "ALL"
	NotifySubscriptions NotifierMode = "SUBSCRIPTIONS"
	NotifyNone          NotifierMode = "NONE"
)

// PlayerNotifier is a player's broadcast preference for new listings.
type PlayerNotifier struct {
	Player uuid.UUID
	Mode   NotifierMode
}

// Subscription marks interest in listings for a specific item.
type Subscription struct {
	ID     uuid.UUID
	Player uuid.UUID
	Item   ItemDescriptor
}

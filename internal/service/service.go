// Package service implements the order lifecycle engine: the state machine
// that moves a listing through pending, claimed, completed, incomplete and
// cancelled while money and items are escrowed and reconciled exactly once.
package service

import (
	"context"
	"time"

	"github.com/acesurvival/jobboard/internal/config"
	"github.com/acesurvival/jobboard/internal/economy"
	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	Store  OrderStore
	Ledger economy.Ledger
	Stash  Stash
	Events Events
	Cfg    *config.Config
	Log    zerolog.Logger

	now   Clock
	locks *orderLocks
}

func NewOrderService(store OrderStore, ledger economy.Ledger, stash Stash, events Events, cfg *config.Config, log zerolog.Logger) *OrderService {
	if events == nil {
		events = NopEvents{}
	}
	return &OrderService{
		Store:  store,
		Ledger: ledger,
		Stash:  stash,
		Events: events,
		Cfg:    cfg,
		Log:    log,
		now:    systemClock,
		locks:  newOrderLocks(),
	}
}

// SetClock swaps the time source; tests use this to drive time-based
// transitions deterministically.
func (s *OrderService) SetClock(clock Clock) {
	s.now = clock
}

type CreateParams struct {
	Owner  uuid.UUID
	Tier   string
	Item   models.ItemDescriptor
	Amount int
	Price  decimal.Decimal
	Hours  int
}

// Create validates the request, escrows the owner's payment and inserts a
// PENDING order. The withdrawal happens first; if the insert then fails the
// money is deposited back.
func (s *OrderService) Create(ctx context.Context, p CreateParams) (*models.Order, error) {
	if p.Amount < 1 {
		return nil, ErrInvalidAmount
	}
	if p.Price.LessThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidPrice
	}
	if s.Cfg.ItemBlocked(p.Item.Type) {
		return nil, ErrItemBlocked
	}
	if max := s.Cfg.Orders.MaxItems; max > 0 && p.Amount > max {
		return nil, &CapError{Kind: "item quantity", Limit: max}
	}
	if p.Hours < s.Cfg.Orders.MinDurationHours || p.Hours > s.Cfg.Orders.MaxDurationHours {
		return nil, &DurationError{
			Hours: p.Hours,
			Min:   s.Cfg.Orders.MinDurationHours,
			Max:   s.Cfg.Orders.MaxDurationHours,
		}
	}

	// Read-then-act; slightly stale under concurrent creates but re-checked
	// every attempt.
	active, err := s.Store.CountActiveByOwner(ctx, p.Owner)
	if err != nil {
		return nil, err
	}
	if limit := s.Cfg.MaxActiveFor(p.Tier); active >= limit {
		return nil, &CapError{Kind: "active orders", Limit: limit}
	}

	if err := s.Ledger.Withdraw(ctx, p.Owner, p.Price); err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:          uuid.New(),
		Owner:       p.Owner,
		Cost:        p.Price,
		UnitPrice:   p.Price.Div(decimal.NewFromInt(int64(p.Amount))),
		Item:        p.Item,
		ItemAmount:  p.Amount,
		RefundOwed:  decimal.Zero,
		Status:      models.OrderPending,
		TimeCreated: now,
		TimeExpires: now.Add(time.Duration(p.Hours) * time.Hour),
	}

	if err := s.Store.CreateOrder(ctx, order); err != nil {
		if depErr := s.Ledger.Deposit(ctx, p.Owner, p.Price); depErr != nil {
			s.Log.Error().Err(depErr).
				Str("player", p.Owner.String()).
				Str("amount", p.Price.String()).
				Msg("escrow compensation failed, balance lost")
		}
		return nil, err
	}

	s.Events.OrderCreated(order)
	return order, nil
}

// Contribute delivers amount units toward a PENDING order, paying the
// contributor the fixed per-unit price immediately. Contributing more than
// the remainder is rejected outright, never clamped. Filling the order
// transitions it to COMPLETED and opens the pickup window.
func (s *OrderService) Contribute(ctx context.Context, orderID, contributor uuid.UUID, amount int) (*models.Contribution, error) {
	if amount <= 0 {
		return nil, ErrInvalidContribute
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, ErrNotPending
	}
	now := s.now()
	if order.Expired(now) {
		return nil, ErrOrderExpired
	}
	if order.ItemCompleted+amount > order.ItemAmount {
		return nil, ErrOverflow
	}

	payment := order.UnitPrice.Mul(decimal.NewFromInt(int64(amount)))

	order.ItemCompleted += amount
	completed := order.ItemCompleted == order.ItemAmount
	if completed {
		order.Status = models.OrderCompleted
		order.TimeCompleted = &now
		pickup := now.Add(time.Duration(s.Cfg.Orders.PickupHours) * time.Hour)
		order.TimePickup = &pickup
	}

	contribution := &models.Contribution{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Contributor:     contributor,
		Amount:          amount,
		PaymentReceived: payment,
		TimeContributed: now,
	}

	// Pay first, persist second; a failed persist claws the payment back.
	// Order and contribution land in one store transaction so the progress
	// counter and the contribution records cannot drift apart.
	if err := s.Ledger.Deposit(ctx, contributor, payment); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateOrderWithContribution(ctx, order, contribution); err != nil {
		s.compensateWithdraw(ctx, contributor, payment, "contribution payout")
		return nil, err
	}

	s.Events.ContributionMade(order, contribution)
	if completed {
		s.Events.OrderCompleted(order)
	}
	return contribution, nil
}

// Accept claims a whole PENDING order for a single assignee and starts the
// completion deadline. Accepting ends the open contribution window.
func (s *OrderService) Accept(ctx context.Context, orderID, assignee uuid.UUID) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Assignee != nil {
		return nil, ErrAlreadyAssigned
	}
	if order.Owner == assignee {
		return nil, ErrSelfAccept
	}
	if order.Status != models.OrderPending {
		return nil, ErrNotPending
	}
	now := s.now()
	if order.Expired(now) {
		return nil, ErrOrderExpired
	}

	claimed, err := s.Store.CountClaimedByAssignee(ctx, assignee)
	if err != nil {
		return nil, err
	}
	if claimed >= s.Cfg.Orders.MaxClaimed {
		return nil, &CapError{Kind: "claimed orders", Limit: s.Cfg.Orders.MaxClaimed}
	}

	deadline := now.Add(time.Duration(s.Cfg.Orders.DeadlineHours) * time.Hour)
	order.Assignee = &assignee
	order.TimeClaimed = &now
	order.TimeDeadline = &deadline
	order.Status = models.OrderClaimed

	if err := s.Store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.Events.OrderAccepted(order)
	return order, nil
}

// Complete is the whole-order completion path for a CLAIMED order: the
// assignee turns in every remaining unit at once and is paid the remaining
// escrow.
func (s *OrderService) Complete(ctx context.Context, orderID, requester uuid.UUID) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderClaimed {
		return nil, ErrNotClaimed
	}
	if order.Assignee == nil || *order.Assignee != requester {
		return nil, ErrNotAssignee
	}

	now := s.now()
	remaining := order.Remaining()
	payment := order.UnitPrice.Mul(decimal.NewFromInt(int64(remaining)))

	order.ItemCompleted = order.ItemAmount
	order.Status = models.OrderCompleted
	order.TimeCompleted = &now
	pickup := now.Add(time.Duration(s.Cfg.Orders.PickupHours) * time.Hour)
	order.TimePickup = &pickup

	if remaining == 0 {
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return nil, err
		}
	} else {
		contribution := &models.Contribution{
			ID:              uuid.New(),
			OrderID:         order.ID,
			Contributor:     requester,
			Amount:          remaining,
			PaymentReceived: payment,
			TimeContributed: now,
		}
		if err := s.Ledger.Deposit(ctx, requester, payment); err != nil {
			return nil, err
		}
		if err := s.Store.UpdateOrderWithContribution(ctx, order, contribution); err != nil {
			s.compensateWithdraw(ctx, requester, payment, "completion payout")
			return nil, err
		}
	}

	s.Events.OrderCompleted(order)
	return order, nil
}

// compensateWithdraw reverses a deposit after the paired state change
// failed. If the claw-back itself fails there is nothing left to do but
// log it loudly.
func (s *OrderService) compensateWithdraw(ctx context.Context, player uuid.UUID, amount decimal.Decimal, op string) {
	if err := s.Ledger.Withdraw(ctx, player, amount); err != nil {
		s.Log.Error().Err(err).
			Str("player", player.String()).
			Str("amount", amount.String()).
			Str("op", op).
			Msg("payout compensation failed, money duplicated")
	}
}

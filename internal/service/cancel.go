package service

import (
	"context"
	"time"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// refund deposits amount into the owner's balance. A failed deposit is
// recorded on the order as owed so the sweeper retries it; the order must
// then be kept rather than deleted. Reports whether the deposit landed.
func (s *OrderService) refund(ctx context.Context, order *models.Order, amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return true
	}
	if err := s.Ledger.Deposit(ctx, order.Owner, amount); err != nil {
		order.RefundOwed = order.RefundOwed.Add(amount)
		s.Log.Warn().Err(err).
			Str("order", order.ID.String()).
			Str("amount", amount.String()).
			Msg("refund deposit failed, recorded as owed")
		return false
	}
	return true
}

// CancelPending delists a PENDING order. The owner is refunded only the
// unfulfilled remainder: contributors were already paid per-unit out of
// escrow, so a full refund would double-pay. With no contributions the
// refund is the full cost and the order is deleted; otherwise it is kept,
// hidden from browsing, for the owner to collect the contributed items.
func (s *OrderService) CancelPending(ctx context.Context, orderID, requester uuid.UUID, admin bool) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderPending {
		return ErrNotPending
	}
	if order.TimePickup != nil {
		// Already expired and refunded, only collection remains.
		return ErrOrderExpired
	}
	if !admin && order.Owner != requester {
		return ErrNotOwner
	}

	now := s.now()
	refundAmount := order.Cost
	if order.ItemCompleted > 0 {
		refundAmount = order.RefundForRemainder()
	}
	deposited := s.refund(ctx, order, refundAmount)

	if order.ItemCompleted == 0 && deposited {
		if err := s.deleteOrder(ctx, order); err != nil {
			return err
		}
	} else {
		order.TimeExpires = now
		pickup := now.Add(time.Duration(s.Cfg.Orders.PickupHours) * time.Hour)
		order.TimePickup = &pickup
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}
	}

	s.Events.OrderCancelled(order)
	return nil
}

// CancelClaimed cancels a CLAIMED order on the owner's request. The owner
// gets half the cost back (full only when explicitly granted); contributed
// items are kept for the assignee to reclaim.
func (s *OrderService) CancelClaimed(ctx context.Context, orderID, requester uuid.UUID, fullRefund bool) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	switch order.Status {
	case models.OrderClaimed:
	case models.OrderCancelled:
		return ErrAlreadyCancelled
	case models.OrderIncomplete:
		return ErrAlreadyIncomplete
	default:
		return ErrNotClaimed
	}
	if order.Owner != requester {
		return ErrNotOwner
	}

	now := s.now()
	refundAmount := order.Cost
	if !fullRefund {
		refundAmount = order.Cost.Div(decimal.NewFromInt(2))
	}
	deposited := s.refund(ctx, order, refundAmount)

	order.Status = models.OrderCancelled
	if order.ItemCompleted == 0 && deposited {
		if err := s.deleteOrder(ctx, order); err != nil {
			return err
		}
	} else {
		pickup := now.Add(time.Duration(s.Cfg.Orders.PickupHours) * time.Hour)
		order.TimePickup = &pickup
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}
	}

	s.Events.OrderCancelled(order)
	return nil
}

// MarkIncomplete fails a CLAIMED order, refunding the owner the full cost.
// requester must be the assignee; the deadline sweep passes nil.
func (s *OrderService) MarkIncomplete(ctx context.Context, orderID uuid.UUID, requester *uuid.UUID) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.markIncompleteLocked(ctx, order, requester)
}

// markIncompleteLocked applies the incomplete transition; the caller holds
// the order lock.
func (s *OrderService) markIncompleteLocked(ctx context.Context, order *models.Order, requester *uuid.UUID) error {
	switch order.Status {
	case models.OrderClaimed:
	case models.OrderIncomplete:
		return ErrAlreadyIncomplete
	default:
		return ErrNotClaimed
	}
	if requester != nil && (order.Assignee == nil || *order.Assignee != *requester) {
		return ErrNotAssignee
	}

	now := s.now()
	deposited := s.refund(ctx, order, order.Cost)

	order.Status = models.OrderIncomplete
	if order.ItemCompleted == 0 && deposited {
		if err := s.deleteOrder(ctx, order); err != nil {
			return err
		}
	} else {
		pickup := now.Add(time.Duration(s.Cfg.Orders.PickupHours) * time.Hour)
		order.TimePickup = &pickup
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}
	}

	s.Events.OrderIncomplete(order)
	return nil
}

// DelistPlayer cancels every PENDING order a player owns. Administrative.
// Returns how many orders were cancelled.
func (s *OrderService) DelistPlayer(ctx context.Context, player uuid.UUID) (int, error) {
	orders, err := s.Store.ListByStatus(ctx, models.OrderPending)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, order := range orders {
		if order.Owner != player {
			continue
		}
		if err := s.CancelPending(ctx, order.ID, player, true); err != nil {
			s.Log.Warn().Err(err).
				Str("order", order.ID.String()).
				Msg("delist cancel failed")
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// deleteOrder removes a fully settled order and its contribution records.
func (s *OrderService) deleteOrder(ctx context.Context, order *models.Order) error {
	if err := s.Store.DeleteContributions(ctx, order.ID); err != nil {
		return err
	}
	return s.Store.DeleteOrder(ctx, order.ID)
}

package service

import (
	"context"
	"time"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The sweep passes apply time-based transitions independent of user
// action. Each pass walks its status bucket oldest-created-first and
// isolates per-order failures: one bad record never blocks the rest.
// Guards are re-checked under the order lock so an order that transitioned
// between snapshot and action is skipped, which also makes every pass
// idempotent.

// SweepExpired expires PENDING orders whose claim window has passed. The
// owner is refunded pro-rata for unfulfilled units; orders with
// contributions are kept, hidden from browsing, for owner pickup.
func (s *OrderService) SweepExpired(ctx context.Context) int {
	orders, err := s.Store.ListByStatus(ctx, models.OrderPending)
	if err != nil {
		s.Log.Error().Err(err).Msg("expire sweep listing failed")
		return 0
	}

	expired := 0
	for _, snapshot := range orders {
		if !snapshot.Expired(s.now()) || snapshot.TimePickup != nil {
			continue
		}
		if err := s.expireOne(ctx, snapshot.ID); err != nil {
			s.Log.Warn().Err(err).
				Str("order", snapshot.ID.String()).
				Msg("expire transition failed")
			continue
		}
		expired++
	}
	return expired
}

func (s *OrderService) expireOne(ctx context.Context, orderID uuid.UUID) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	now := s.now()
	// TimePickup set means a previous pass already refunded this order.
	if order.Status != models.OrderPending || !order.Expired(now) || order.TimePickup != nil {
		return nil
	}

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
		pickup := now.Add(time.Duration(s.Cfg.Orders.PickupHours) * time.Hour)
		order.TimePickup = &pickup
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}
	}

	s.Events.OrderExpired(order)
	return nil
}

// SweepDeadlines fails CLAIMED orders whose completion deadline passed,
// with the same effect as the assignee marking them incomplete.
func (s *OrderService) SweepDeadlines(ctx context.Context) int {
	orders, err := s.Store.ListByStatus(ctx, models.OrderClaimed)
	if err != nil {
		s.Log.Error().Err(err).Msg("deadline sweep listing failed")
		return 0
	}

	failed := 0
	for _, snapshot := range orders {
		if !snapshot.DeadlinePassed(s.now()) {
			continue
		}
		if err := s.deadlineOne(ctx, snapshot.ID); err != nil {
			s.Log.Warn().Err(err).
				Str("order", snapshot.ID.String()).
				Msg("deadline transition failed")
			continue
		}
		failed++
	}
	return failed
}

func (s *OrderService) deadlineOne(ctx context.Context, orderID uuid.UUID) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderClaimed || !order.DeadlinePassed(s.now()) {
		return nil
	}
	return s.markIncompleteLocked(ctx, order, nil)
}

// SweepPickups deletes orders whose pickup window closed with items still
// uncollected. Whatever remains is forfeited.
func (s *OrderService) SweepPickups(ctx context.Context) int {
	deleted := 0
	for _, status := range []models.OrderStatus{
		models.OrderPending,
		models.OrderCompleted,
		models.OrderIncomplete,
		models.OrderCancelled,
	} {
		orders, err := s.Store.ListByStatus(ctx, status)
		if err != nil {
			s.Log.Error().Err(err).
				Str("status", string(status)).
				Msg("pickup sweep listing failed")
			continue
		}
		for _, snapshot := range orders {
			if !snapshot.PickupPassed(s.now()) {
				continue
			}
			removed, err := s.pickupOne(ctx, snapshot.ID)
			if err != nil {
				s.Log.Warn().Err(err).
					Str("order", snapshot.ID.String()).
					Msg("pickup deletion failed")
				continue
			}
			if removed {
				deleted++
			}
		}
	}
	return deleted
}

func (s *OrderService) pickupOne(ctx context.Context, orderID uuid.UUID) (bool, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if !order.PickupPassed(s.now()) {
		return false, nil
	}
	// Items are forfeit once the window closes, but an owed refund is not.
	// The order stays until the refund retry pass clears the debt.
	if order.RefundOwed.IsPositive() {
		return false, nil
	}
	if err := s.deleteOrder(ctx, order); err != nil {
		return false, err
	}
	return true, nil
}

// RetryRefunds re-attempts refund deposits that failed at transition time.
// A cleared refund on an otherwise drained order settles and deletes it.
func (s *OrderService) RetryRefunds(ctx context.Context) int {
	orders, err := s.Store.ListOwedRefunds(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("refund retry listing failed")
		return 0
	}

	cleared := 0
	for _, snapshot := range orders {
		if err := s.retryRefundOne(ctx, snapshot.ID); err != nil {
			s.Log.Warn().Err(err).
				Str("order", snapshot.ID.String()).
				Msg("refund retry failed")
			continue
		}
		cleared++
	}
	return cleared
}

func (s *OrderService) retryRefundOne(ctx context.Context, orderID uuid.UUID) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.RefundOwed.IsPositive() {
		return nil
	}
	if err := s.Ledger.Deposit(ctx, order.Owner, order.RefundOwed); err != nil {
		return err
	}
	order.RefundOwed = decimal.Zero
	return s.settleAfterDrain(ctx, order)
}

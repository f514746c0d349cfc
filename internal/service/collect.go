package service

import (
	"context"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
)

// CollectCompleted hands the owner the items contributed so far, from a
// COMPLETED order or from an expired/delisted PENDING order kept for
// pickup. Undeliverable items overflow into the owner's container, so the
// drain always progresses. The order is deleted once fully drained.
func (s *OrderService) CollectCompleted(ctx context.Context, orderID, requester uuid.UUID) (int, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Owner != requester {
		return 0, ErrNotOwner
	}
	switch {
	case order.Status == models.OrderCompleted:
	case order.Status == models.OrderPending && order.TimePickup != nil:
	default:
		return 0, ErrNothingToCollect
	}

	available := order.ItemCompleted - order.ItemsObtained
	if available <= 0 {
		return 0, ErrNothingToCollect
	}

	if err := s.Stash.AddItems(ctx, order.Owner, order.Item, available); err != nil {
		return 0, err
	}
	order.ItemsObtained += available

	if err := s.settleAfterDrain(ctx, order); err != nil {
		return available, err
	}
	return available, nil
}

// CollectReturned hands the assignee back the items that were turned in on
// an order that ended INCOMPLETE or CANCELLED.
func (s *OrderService) CollectReturned(ctx context.Context, orderID, requester uuid.UUID) (int, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Assignee == nil || *order.Assignee != requester {
		return 0, ErrNotAssignee
	}
	if order.Status != models.OrderIncomplete && order.Status != models.OrderCancelled {
		return 0, ErrNothingToCollect
	}

	available := order.ItemCompleted - order.ItemsReturned
	if available <= 0 {
		return 0, ErrNothingToCollect
	}

	if err := s.Stash.AddItems(ctx, *order.Assignee, order.Item, available); err != nil {
		return 0, err
	}
	order.ItemsReturned += available

	if err := s.settleAfterDrain(ctx, order); err != nil {
		return available, err
	}
	return available, nil
}

// settleAfterDrain persists the drain counters and deletes the order once
// nothing outstanding remains.
func (s *OrderService) settleAfterDrain(ctx context.Context, order *models.Order) error {
	if s.drained(order) {
		return s.deleteOrder(ctx, order)
	}
	return s.Store.UpdateOrder(ctx, order)
}

// drained reports whether the order holds no undelivered items and no
// un-deposited refund. Which counter drains it depends on the branch the
// order ended on: owner collection for completed/expired, assignee
// reclamation for incomplete/cancelled.
func (s *OrderService) drained(order *models.Order) bool {
	if order.RefundOwed.IsPositive() {
		return false
	}
	switch order.Status {
	case models.OrderIncomplete, models.OrderCancelled:
		return order.ItemsReturned == order.ItemCompleted
	default:
		return order.ItemsObtained == order.ItemCompleted
	}
}

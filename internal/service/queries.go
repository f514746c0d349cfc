package service

import (
	"context"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
)

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.Store.GetOrder(ctx, id)
}

// Browse lists claimable orders: pending, not expired, newest first.
func (s *OrderService) Browse(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return s.Store.ListPending(ctx, s.now(), limit, offset)
}

func (s *OrderService) OwnerOrders(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*models.Order, error) {
	return s.Store.ListByOwner(ctx, owner, limit, offset)
}

func (s *OrderService) AssigneeOrders(ctx context.Context, assignee uuid.UUID, limit, offset int) ([]*models.Order, error) {
	return s.Store.ListByAssignee(ctx, assignee, limit, offset)
}

func (s *OrderService) Contributions(ctx context.Context, orderID uuid.UUID) ([]*models.Contribution, error) {
	return s.Store.ListContributions(ctx, orderID)
}

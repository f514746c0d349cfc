package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acesurvival/jobboard/internal/models"
)

func TestCancelPendingRefundsAndDeletes(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	order := f.create(t, owner, 10, 100)

	err := f.svc.CancelPending(context.Background(), order.ID, owner, false)
	require.NoError(t, err)

	assert.True(t, f.ledger.balanceOf(owner).Equal(decimal.NewFromInt(100)))
	_, err = f.svc.Get(context.Background(), order.ID)
	assert.Error(t, err)
	assert.Contains(t, f.events.all(), "cancelled")
}

func TestCancelPendingWithContributionsKeepsOrder(t *testing.T) {
	f := newFixture(t)
	owner, helper := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)

	_, err := f.svc.Contribute(context.Background(), order.ID, helper, 4)
	require.NoError(t, err)

	err = f.svc.CancelPending(context.Background(), order.ID, owner, false)
	require.NoError(t, err)

	// Only the unfulfilled remainder comes back: the helper already took 40
	// out of escrow.
	assert.True(t, f.ledger.balanceOf(owner).Equal(decimal.NewFromInt(60)))

	got, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)
	require.NotNil(t, got.TimePickup)
	assert.False(t, got.TimeExpires.After(f.now))

	// Hidden from browsing while waiting for pickup.
	visible, err := f.svc.Browse(context.Background(), 45, 0)
	require.NoError(t, err)
	assert.Empty(t, visible)

	// A second cancel attempt is rejected: already settled.
	err = f.svc.CancelPending(context.Background(), order.ID, owner, false)
	assert.ErrorIs(t, err, ErrOrderExpired)
}

func TestCancelPendingOwnership(t *testing.T) {
	f := newFixture(t)
	owner, stranger := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)

	err := f.svc.CancelPending(context.Background(), order.ID, stranger, false)
	assert.ErrorIs(t, err, ErrNotOwner)

	// Admin override bypasses ownership.
	err = f.svc.CancelPending(context.Background(), order.ID, stranger, true)
	assert.NoError(t, err)
}

func TestCancelClaimedHalfRefund(t *testing.T) {
	f := newFixture(t)
	owner, assignee := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Accept(context.Background(), order.ID, assignee)
	require.NoError(t, err)

	err = f.svc.CancelClaimed(context.Background(), order.ID, owner, false)
	require.NoError(t, err)
	assert.True(t, f.ledger.balanceOf(owner).Equal(decimal.NewFromInt(50)))

	// No turned-in items, refund landed: the order is gone.
	_, err = f.svc.Get(context.Background(), order.ID)
	assert.Error(t, err)
}

func TestCancelClaimedFullRefund(t *testing.T) {
	f := newFixture(t)
	owner, assignee := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Accept(context.Background(), order.ID, assignee)
	require.NoError(t, err)

	err = f.svc.CancelClaimed(context.Background(), order.ID, owner, true)
	require.NoError(t, err)
	assert.True(t, f.ledger.balanceOf(owner).Equal(decimal.NewFromInt(100)))
}

func TestCancelClaimedGuards(t *testing.T) {
	f := newFixture(t)
	owner, helper, assignee := uuid.New(), uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)

	err := f.svc.CancelClaimed(context.Background(), order.ID, owner, false)
	assert.ErrorIs(t, err, ErrNotClaimed)

	_, err = f.svc.Contribute(context.Background(), order.ID, helper, 2)
	require.NoError(t, err)
	_, err = f.svc.Accept(context.Background(), order.ID, assignee)
	require.NoError(t, err)

	err = f.svc.CancelClaimed(context.Background(), order.ID, assignee, false)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, f.svc.CancelClaimed(context.Background(), order.ID, owner, false))

	// The order survives for item reclamation, so a repeat is observable.
	err = f.svc.CancelClaimed(context.Background(), order.ID, owner, false)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestMarkIncompleteRefundsOwner(t *testing.T) {
	f := newFixture(t)
	owner, helper, assignee := uuid.New(), uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Contribute(context.Background(), order.ID, helper, 3)
	require.NoError(t, err)
	_, err = f.svc.Accept(context.Background(), order.ID, assignee)
	require.NoError(t, err)

	err = f.svc.MarkIncomplete(context.Background(), order.ID, &assignee)
	require.NoError(t, err)

	assert.True(t, f.ledger.balanceOf(owner).Equal(decimal.NewFromInt(100)))

	got, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderIncomplete, got.Status)
	require.NotNil(t, got.TimePickup)
	assert.Equal(t, f.now.Add(500*time.Hour), *got.TimePickup)

	err = f.svc.MarkIncomplete(context.Background(), order.ID, &assignee)
	assert.ErrorIs(t, err, ErrAlreadyIncomplete)
}

func TestMarkIncompleteRequesterMustBeAssignee(t *testing.T) {
	f := newFixture(t)
	owner, assignee := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Accept(context.Background(), order.ID, assignee)
	require.NoError(t, err)

	err = f.svc.MarkIncomplete(context.Background(), order.ID, &owner)
	assert.ErrorIs(t, err, ErrNotAssignee)
}

func TestDelistPlayer(t *testing.T) {
	f := newFixture(t)
	target, bystander := uuid.New(), uuid.New()

	f.create(t, target, 10, 100)
	f.create(t, target, 5, 50)
	keep := f.create(t, bystander, 8, 80)

	cancelled, err := f.svc.DelistPlayer(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)
	assert.True(t, f.ledger.balanceOf(target).Equal(decimal.NewFromInt(150)))

	_, err = f.svc.Get(context.Background(), keep.ID)
	assert.NoError(t, err)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acesurvival/jobboard/internal/models"
)

func TestCollectCompletedDrainsAndDeletes(t *testing.T) {
	f := newFixture(t)
	owner, helper := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Contribute(context.Background(), order.ID, helper, 10)
	require.NoError(t, err)

	got, err := f.svc.CollectCompleted(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, got)
	assert.Equal(t, 10, f.stash.count(owner, "iron_ingot"))

	// Fully drained orders settle away.
	_, err = f.svc.Get(context.Background(), order.ID)
	assert.Error(t, err)
}

func TestCollectCompletedFromExpiredKeptOrder(t *testing.T) {
	f := newFixture(t)
	owner, helper := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Contribute(context.Background(), order.ID, helper, 4)
	require.NoError(t, err)

	f.advance(73 * time.Hour)
	require.Equal(t, 1, f.svc.SweepExpired(context.Background()))

	got, err := f.svc.CollectCompleted(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, 4, f.stash.count(owner, "iron_ingot"))

	_, err = f.svc.Get(context.Background(), order.ID)
	assert.Error(t, err)
}

func TestCollectCompletedGuards(t *testing.T) {
	f := newFixture(t)
	owner, helper, stranger := uuid.New(), uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)

	// Nothing contributed yet and still claimable.
	_, err := f.svc.CollectCompleted(context.Background(), order.ID, owner)
	assert.ErrorIs(t, err, ErrNothingToCollect)

	_, err = f.svc.Contribute(context.Background(), order.ID, helper, 10)
	require.NoError(t, err)

	_, err = f.svc.CollectCompleted(context.Background(), order.ID, stranger)
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := f.svc.CollectCompleted(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, got)
}

func TestCollectReturnedAfterIncomplete(t *testing.T) {
	f := newFixture(t)
	owner, assignee := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Contribute(context.Background(), order.ID, assignee, 6)
	require.NoError(t, err)
	_, err = f.svc.Accept(context.Background(), order.ID, assignee)
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkIncomplete(context.Background(), order.ID, &assignee))

	_, err = f.svc.CollectReturned(context.Background(), order.ID, owner)
	assert.ErrorIs(t, err, ErrNotAssignee)

	got, err := f.svc.CollectReturned(context.Background(), order.ID, assignee)
	require.NoError(t, err)
	assert.Equal(t, 6, got)
	assert.Equal(t, 6, f.stash.count(assignee, "iron_ingot"))

	_, err = f.svc.Get(context.Background(), order.ID)
	assert.Error(t, err)
}

func TestCollectBlockedByOwedRefund(t *testing.T) {
	f := newFixture(t)
	owner, helper := uuid.New(), uuid.New()
	order := f.create(t, owner, 10, 100)
	_, err := f.svc.Contribute(context.Background(), order.ID, helper, 4)
	require.NoError(t, err)

	// The cancel refund deposit fails and is parked on the order.
	f.ledger.failDeposit = true
	require.NoError(t, f.svc.CancelPending(context.Background(), order.ID, owner, false))
	f.ledger.failDeposit = false

	got, err := f.svc.CollectCompleted(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	// Drained of items but not settled: the owed refund keeps it alive.
	kept, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, kept.RefundOwed.IsPositive())
	assert.Equal(t, models.OrderPending, kept.Status)

	// Once the retry clears the refund the order settles away.
	require.Equal(t, 1, f.svc.RetryRefunds(context.Background()))
	_, err = f.svc.Get(context.Background(), order.ID)
	assert.Error(t, err)
}

package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/acesurvival/jobboard/internal/models"
)

// FeedCourier delivers items over the live feed: the game bridge on the
// other end of the socket places them in the player's inventory. An
// offline player gets nothing delivered and the full amount is banked.
type FeedCourier struct {
	Hub *Hub
}

func (c *FeedCourier) Deliver(ctx context.Context, player uuid.UUID, item models.ItemDescriptor, amount int) (int, error) {
	ev := Event{
		Type:   "deliver_items",
		Item:   item.Type,
		Amount: amount,
	}
	if c.Hub.Send(player, ev) {
		return 0, nil
	}
	return amount, nil
}

// Package notify fans lifecycle events out to players: live feed pushes
// for connected players, queued mail for everyone else, filtered by each
// player's notifier preference and item subscriptions.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/acesurvival/jobboard/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PrefStore persists notification preferences and item subscriptions.
type PrefStore interface {
	GetNotifier(ctx context.Context, player uuid.UUID) (*models.PlayerNotifier, error)
	SetNotifier(ctx context.Context, n *models.PlayerNotifier) error
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
	ListSubscriptions(ctx context.Context, player uuid.UUID) ([]*models.Subscription, error)
	ListAllSubscriptions(ctx context.Context) ([]*models.Subscription, error)
}

// MailStore persists offline messages.
type MailStore interface {
	CreateMail(ctx context.Context, m *models.Mail) error
	ConsumeMail(ctx context.Context, player uuid.UUID) ([]*models.Mail, error)
	PurgeExpiredMail(ctx context.Context, now time.Time) (int64, error)
}

type Notifier struct {
	Hub      *Hub
	Prefs    PrefStore
	Mail     MailStore
	Registry models.ItemRegistry
	Log      zerolog.Logger

	MailEnabled   bool
	MailRetention time.Duration
}

func NewNotifier(hub *Hub, prefs PrefStore, mail MailStore, log zerolog.Logger) *Notifier {
	return &Notifier{Hub: hub, Prefs: prefs, Mail: mail, Log: log}
}

const eventTimeout = 5 * time.Second

// OrderCreated announces a new listing to connected players according to
// their preference: ALL hears everything, SUBSCRIPTIONS only matching
// items, NONE nothing.
func (n *Notifier) OrderCreated(order *models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		ev := Event{
			Type:    "order_created",
			OrderID: order.ID.String(),
			Item:    order.Item.Type,
			Amount:  order.ItemAmount,
			Cost:    order.Cost.String(),
		}

		subs, err := n.Prefs.ListAllSubscriptions(ctx)
		if err != nil {
			n.Log.Warn().Err(err).Msg("subscription listing failed")
		}
		subscribed := make(map[uuid.UUID]bool)
		for _, sub := range subs {
			if models.MatchItems(n.Registry, order.Item, sub.Item) {
				subscribed[sub.Player] = true
			}
		}

		for _, player := range n.Hub.OnlinePlayers() {
			if player == order.Owner {
				continue
			}
			pref, err := n.Prefs.GetNotifier(ctx, player)
			if err != nil {
				n.Log.Warn().Err(err).
					Str("player", player.String()).
					Msg("notifier preference lookup failed")
				continue
			}
			switch pref.Mode {
			case models.NotifyNone:
			case models.NotifySubscriptions:
				if subscribed[player] {
					n.Hub.Send(player, ev)
				}
			default:
				n.Hub.Send(player, ev)
			}
		}
	}()
}

func (n *Notifier) OrderAccepted(order *models.Order) {
	n.tell(order.Owner, Event{
		Type:    "order_accepted",
		OrderID: order.ID.String(),
		Message: fmt.Sprintf("your order for %d x %s was accepted", order.ItemAmount, order.Item.Type),
	})
}

func (n *Notifier) OrderCompleted(order *models.Order) {
	n.tell(order.Owner, Event{
		Type:    "order_completed",
		OrderID: order.ID.String(),
		Message: fmt.Sprintf("your order for %d x %s is complete, collect your items", order.ItemAmount, order.Item.Type),
	})
	if order.Assignee != nil {
		n.tell(*order.Assignee, Event{
			Type:    "order_completed",
			OrderID: order.ID.String(),
			Message: fmt.Sprintf("order for %d x %s completed", order.ItemAmount, order.Item.Type),
		})
	}
}

func (n *Notifier) OrderExpired(order *models.Order) {
	n.tell(order.Owner, Event{
		Type:    "order_expired",
		OrderID: order.ID.String(),
		Message: fmt.Sprintf("your order for %d x %s expired", order.ItemAmount, order.Item.Type),
	})
}

func (n *Notifier) OrderIncomplete(order *models.Order) {
	n.tell(order.Owner, Event{
		Type:    "order_incomplete",
		OrderID: order.ID.String(),
		Message: fmt.Sprintf("your order for %d x %s was not completed in time, you were refunded", order.ItemAmount, order.Item.Type),
	})
	if order.Assignee != nil {
		n.tell(*order.Assignee, Event{
			Type:    "order_incomplete",
			OrderID: order.ID.String(),
			Message: "a claimed order ran out of time, reclaim your items",
		})
	}
}

func (n *Notifier) OrderCancelled(order *models.Order) {
	if order.Assignee != nil {
		n.tell(*order.Assignee, Event{
			Type:    "order_cancelled",
			OrderID: order.ID.String(),
			Message: "a claimed order was cancelled by its owner, reclaim your items",
		})
	}
}

func (n *Notifier) ContributionMade(order *models.Order, c *models.Contribution) {
	n.tell(order.Owner, Event{
		Type:    "order_progress",
		OrderID: order.ID.String(),
		Amount:  order.ItemCompleted,
		Message: fmt.Sprintf("%d/%d x %s delivered", order.ItemCompleted, order.ItemAmount, order.Item.Type),
	})
}

// tell pushes a targeted event to an online player or queues it as mail.
func (n *Notifier) tell(player uuid.UUID, ev Event) {
	go func() {
		if n.Hub.Send(player, ev) {
			return
		}
		if !n.MailEnabled || ev.Message == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		now := time.Now().UTC()
		err := n.Mail.CreateMail(ctx, &models.Mail{
			ID:          uuid.New(),
			Player:      player,
			Message:     ev.Message,
			TimeCreated: now,
			TimeExpires: now.Add(n.MailRetention),
		})
		if err != nil {
			n.Log.Warn().Err(err).
				Str("player", player.String()).
				Msg("mail enqueue failed")
		}
	}()
}

// DeliverMail drains a player's queued mail, typically on connect.
func (n *Notifier) DeliverMail(ctx context.Context, player uuid.UUID) ([]*models.Mail, error) {
	return n.Mail.ConsumeMail(ctx, player)
}

// Subscribe registers interest in an item; duplicate subscriptions for the
// same descriptor are collapsed.
func (n *Notifier) Subscribe(ctx context.Context, player uuid.UUID, item models.ItemDescriptor) (*models.Subscription, error) {
	existing, err := n.Prefs.ListSubscriptions(ctx, player)
	if err != nil {
		return nil, err
	}
	for _, sub := range existing {
		if sub.Item.Matches(item) {
			return sub, nil
		}
	}
	sub := &models.Subscription{ID: uuid.New(), Player: player, Item: item}
	if err := n.Prefs.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes a matching subscription. Reports whether one existed.
func (n *Notifier) Unsubscribe(ctx context.Context, player uuid.UUID, item models.ItemDescriptor) (bool, error) {
	existing, err := n.Prefs.ListSubscriptions(ctx, player)
	if err != nil {
		return false, err
	}
	for _, sub := range existing {
		if sub.Item.Matches(item) {
			if err := n.Prefs.DeleteSubscription(ctx, sub.ID); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

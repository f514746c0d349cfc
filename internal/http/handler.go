package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/acesurvival/jobboard/internal/container"
	"github.com/acesurvival/jobboard/internal/economy"
	"github.com/acesurvival/jobboard/internal/models"
	"github.com/acesurvival/jobboard/internal/notify"
	"github.com/acesurvival/jobboard/internal/service"
	"github.com/acesurvival/jobboard/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Handler struct {
	Orders    *service.OrderService
	Container *container.Manager
	Notify    *notify.Notifier
	Log       zerolog.Logger
}

func NewHandler(orders *service.OrderService, cont *container.Manager, notifier *notify.Notifier, log zerolog.Logger) *Handler {
	return &Handler{Orders: orders, Container: cont, Notify: notifier, Log: log}
}

// playerID resolves the caller's stable identity from the gateway header.
// Session-to-identity mapping happens upstream in the host game's gateway.
func playerID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Player-Id"))
	return id, err == nil
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 45
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

type createOrderRequest struct {
	Item   models.ItemDescriptor `json:"item"`
	Amount int                   `json:"amount"`
	Price  decimal.Decimal       `json:"price"`
	Hours  int                   `json:"hours"`
}

type orderResponse struct {
	ID            string                `json:"id"`
	Owner         string                `json:"owner"`
	Assignee      string                `json:"assignee,omitempty"`
	Item          models.ItemDescriptor `json:"item"`
	ItemAmount    int                   `json:"itemAmount"`
	ItemCompleted int                   `json:"itemCompleted"`
	ItemsReturned int                   `json:"itemsReturned"`
	ItemsObtained int                   `json:"itemsObtained"`
	Cost          string                `json:"cost"`
	UnitPrice     string                `json:"unitPrice"`
	Status        string                `json:"status"`
	TimeCreated   string                `json:"timeCreated"`
	TimeExpires   string                `json:"timeExpires"`
	TimeClaimed   string                `json:"timeClaimed,omitempty"`
	TimeDeadline  string                `json:"timeDeadline,omitempty"`
	TimeCompleted string                `json:"timeCompleted,omitempty"`
	TimePickup    string                `json:"timePickup,omitempty"`
}

func toOrderResponse(o *models.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID.String(),
		Owner:         o.Owner.String(),
		Item:          o.Item,
		ItemAmount:    o.ItemAmount,
		ItemCompleted: o.ItemCompleted,
		ItemsReturned: o.ItemsReturned,
		ItemsObtained: o.ItemsObtained,
		Cost:          o.Cost.String(),
		UnitPrice:     o.UnitPrice.String(),
		Status:        string(o.Status),
		TimeCreated:   o.TimeCreated.Format(time.RFC3339),
		TimeExpires:   o.TimeExpires.Format(time.RFC3339),
	}
	if o.Assignee != nil {
		resp.Assignee = o.Assignee.String()
	}
	if o.TimeClaimed != nil {
		resp.TimeClaimed = o.TimeClaimed.Format(time.RFC3339)
	}
	if o.TimeDeadline != nil {
		resp.TimeDeadline = o.TimeDeadline.Format(time.RFC3339)
	}
	if o.TimeCompleted != nil {
		resp.TimeCompleted = o.TimeCompleted.Format(time.RFC3339)
	}
	if o.TimePickup != nil {
		resp.TimePickup = o.TimePickup.Format(time.RFC3339)
	}
	return resp
}

func toOrderResponses(orders []*models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := h.Orders.Create(r.Context(), service.CreateParams{
		Owner:  owner,
		Tier:   r.Header.Get("X-Player-Tier"),
		Item:   req.Item,
		Amount: req.Amount,
		Price:  req.Price,
		Hours:  req.Hours,
	})
	if err != nil {
		h.writeServiceError(w, err, "create order")
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) BrowseOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	orders, err := h.Orders.Browse(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "browse orders")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err, "get order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) ListContributions(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	contributions, err := h.Orders.Contributions(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err, "list contributions")
		return
	}
	type contributionResponse struct {
		Contributor     string `json:"contributor"`
		Amount          int    `json:"amount"`
		PaymentReceived string `json:"paymentReceived"`
		TimeContributed string `json:"timeContributed"`
	}
	out := make([]contributionResponse, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, contributionResponse{
			Contributor:     c.Contributor.String(),
			Amount:          c.Amount,
			PaymentReceived: c.PaymentReceived.String(),
			TimeContributed: c.TimeContributed.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	order, err := h.Orders.Accept(r.Context(), orderID, player)
	if err != nil {
		h.writeServiceError(w, err, "accept order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	contribution, err := h.Orders.Contribute(r.Context(), orderID, player, req.Amount)
	if err != nil {
		h.writeServiceError(w, err, "contribute")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"amount":          contribution.Amount,
		"paymentReceived": contribution.PaymentReceived.String(),
	})
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	order, err := h.Orders.Complete(r.Context(), orderID, player)
	if err != nil {
		h.writeServiceError(w, err, "complete order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder routes to the pending or claimed cancel path based on the
// order's current status; the service re-checks the guard under lock.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	var req struct {
		FullRefund bool `json:"fullRefund"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	order, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err, "cancel order")
		return
	}
	if order.Status == models.OrderPending {
		err = h.Orders.CancelPending(r.Context(), orderID, player, false)
	} else {
		err = h.Orders.CancelClaimed(r.Context(), orderID, player, req.FullRefund)
	}
	if err != nil {
		h.writeServiceError(w, err, "cancel order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) MarkIncomplete(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	if err := h.Orders.MarkIncomplete(r.Context(), orderID, &player); err != nil {
		h.writeServiceError(w, err, "mark incomplete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "incomplete"})
}

func (h *Handler) CollectOrder(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	collected, err := h.Orders.CollectCompleted(r.Context(), orderID, player)
	if err != nil {
		h.writeServiceError(w, err, "collect order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"collected": collected})
}

func (h *Handler) ReclaimOrder(w http.ResponseWriter, r *http.Request) {
	player, orderID, ok := h.playerAndOrder(w, r)
	if !ok {
		return
	}
	collected, err := h.Orders.CollectReturned(r.Context(), orderID, player)
	if err != nil {
		h.writeServiceError(w, err, "reclaim order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"collected": collected})
}

func (h *Handler) PlayerOrders(w http.ResponseWriter, r *http.Request) {
	target, err := uuid.Parse(chi.URLParam(r, "playerId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	limit, offset := pagination(r)
	orders, err := h.Orders.OwnerOrders(r.Context(), target, limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "player orders")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) PlayerClaimed(w http.ResponseWriter, r *http.Request) {
	target, err := uuid.Parse(chi.URLParam(r, "playerId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	limit, offset := pagination(r)
	orders, err := h.Orders.AssigneeOrders(r.Context(), target, limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "player claimed orders")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// DelistPlayer cancels all of a player's pending orders. The host command
// layer enforces admin permission before calling this.
func (h *Handler) DelistPlayer(w http.ResponseWriter, r *http.Request) {
	target, err := uuid.Parse(chi.URLParam(r, "playerId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	cancelled, err := h.Orders.DelistPlayer(r.Context(), target)
	if err != nil {
		h.writeServiceError(w, err, "delist player")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cancelled": cancelled})
}

func (h *Handler) ListContainer(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	slots, err := h.Container.List(r.Context(), player)
	if err != nil {
		h.writeServiceError(w, err, "list container")
		return
	}
	type slotResponse struct {
		ID     string                `json:"id"`
		Item   models.ItemDescriptor `json:"item"`
		Amount int                   `json:"amount"`
	}
	out := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotResponse{ID: slot.ID.String(), Item: slot.Item, Amount: slot.Amount})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) WithdrawContainer(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	slotID, err := uuid.Parse(chi.URLParam(r, "slotId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	delivered, err := h.Container.Withdraw(r.Context(), player, slotID, req.Amount)
	if err != nil {
		h.writeServiceError(w, err, "withdraw container")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"delivered": delivered})
}

func (h *Handler) ClaimMail(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	mail, err := h.Notify.DeliverMail(r.Context(), player)
	if err != nil {
		h.writeServiceError(w, err, "claim mail")
		return
	}
	messages := make([]string, 0, len(mail))
	for _, m := range mail {
		messages = append(messages, m.Message)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) SetNotifier(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	var req struct {
		Mode models.NotifierMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	switch req.Mode {
	case models.NotifyAll, models.NotifySubscriptions, models.NotifyNone:
	default:
		writeError(w, http.StatusBadRequest, "unknown notifier mode")
		return
	}
	if err := h.Notify.Prefs.SetNotifier(r.Context(), &models.PlayerNotifier{Player: player, Mode: req.Mode}); err != nil {
		h.writeServiceError(w, err, "set notifier")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(req.Mode)})
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	var req struct {
		Item models.ItemDescriptor `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Item.Type == "" {
		writeError(w, http.StatusBadRequest, "invalid item")
		return
	}
	sub, err := h.Notify.Subscribe(r.Context(), player, req.Item)
	if err != nil {
		h.writeServiceError(w, err, "subscribe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": sub.ID.String()})
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	var req struct {
		Item models.ItemDescriptor `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Item.Type == "" {
		writeError(w, http.StatusBadRequest, "invalid item")
		return
	}
	removed, err := h.Notify.Unsubscribe(r.Context(), player, req.Item)
	if err != nil {
		h.writeServiceError(w, err, "unsubscribe")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "no matching subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return
	}
	subs, err := h.Notify.Prefs.ListSubscriptions(r.Context(), player)
	if err != nil {
		h.writeServiceError(w, err, "list subscriptions")
		return
	}
	type subResponse struct {
		ID   string                `json:"id"`
		Item models.ItemDescriptor `json:"item"`
	}
	out := make([]subResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subResponse{ID: sub.ID.String(), Item: sub.Item})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) playerAndOrder(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	player, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing player id")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return uuid.Nil, uuid.Nil, false
	}
	return player, orderID, true
}

// writeServiceError maps domain failures onto status codes: validation to
// 400, guard violations to 409, authorization to 403, exhausted caps and
// balances to 409 with the limit, everything unexpected to a logged 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, op string) {
	var capErr *service.CapError
	var durErr *service.DurationError
	switch {
	case errors.Is(err, store.ErrOrderNotFound), errors.Is(err, store.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidContribute),
		errors.Is(err, service.ErrItemBlocked),
		errors.Is(err, container.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &durErr):
		writeError(w, http.StatusBadRequest, durErr.Error())
	case errors.As(err, &capErr):
		writeError(w, http.StatusConflict, capErr.Error())
	case errors.Is(err, economy.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient balance")
	case errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotAssignee),
		errors.Is(err, service.ErrSelfAccept),
		errors.Is(err, container.ErrNotSlotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrNotClaimed),
		errors.Is(err, service.ErrAlreadyAssigned),
		errors.Is(err, service.ErrOrderExpired),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrAlreadyIncomplete),
		errors.Is(err, service.ErrOverflow),
		errors.Is(err, service.ErrNothingToCollect):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.Log.Error().Err(err).Str("op", op).Msg("internal error")
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

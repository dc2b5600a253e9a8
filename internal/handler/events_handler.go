package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// カートの変更をServer-Sent Eventsで配信する。
// 接続直後に現在のスナップショットを1回送る。
type EventsHandler struct {
	cart *usecase.CartStore
	log  *zap.Logger
}

// DI
func NewEventsHandler(cart *usecase.CartStore, log *zap.Logger) *EventsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventsHandler{cart: cart, log: log.Named("events")}
}

func (h *EventsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cart/events", h.stream)
}

// cartMailbox は最新のスナップショットだけを1つ保持する。
// 通知は並行して届くので、入れ替えるときはVersionの大きい方を残す。
type cartMailbox struct {
	ch chan model.CartState
}

func newCartMailbox() *cartMailbox {
	return &cartMailbox{ch: make(chan model.CartState, 1)}
}

func (m *cartMailbox) offer(st model.CartState) {
	for {
		select {
		case m.ch <- st:
			return
		default:
		}
		select {
		case old := <-m.ch:
			if old.Version > st.Version {
				st = old
			}
		default:
		}
	}
}

func (h *EventsHandler) stream(c echo.Context) error {
	mailbox := newCartMailbox()
	unsubscribe := h.cart.Subscribe(mailbox.offer)
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	current := h.cart.Snapshot()
	if err := writeCartEvent(res, current); err != nil {
		return nil
	}
	sent := current.Version

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("stream closed")
			return nil
		case st := <-mailbox.ch:
			// 古いスナップショットは送らない
			if st.Version <= sent {
				continue
			}
			if err := writeCartEvent(res, st); err != nil {
				h.log.Debug("stream write failed", zap.Error(err))
				return nil
			}
			sent = st.Version
		}
	}
}

func writeCartEvent(res *echo.Response, st model.CartState) error {
	data, err := json.Marshal(toCartResponse(st))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: cart\nid: %d\ndata: %s\n\n", st.Version, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

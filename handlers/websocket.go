package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"store-rating-server/entities"
	"store-rating-server/ws"
)

// SummarySource yields the current rating aggregate of a store.
type SummarySource interface {
	Summary(ctx context.Context, storeID string) (entities.RatingAggregate, error)
}

// LiveHandler streams rating summaries of one store over a websocket.
type LiveHandler struct {
	mgr     *ws.Manager
	ratings SummarySource
	log     logrus.FieldLogger
}

func NewLiveHandler(mgr *ws.Manager, ratings SummarySource, log logrus.FieldLogger) *LiveHandler {
	return &LiveHandler{mgr: mgr, ratings: ratings, log: log}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleStoreLive GET /api/stores/:id/live
// Sends the current summary on connect, then one after every rating write.
func (h *LiveHandler) HandleStoreLive(c *gin.Context) {
	storeID := c.Param("id")
	agg, err := h.ratings.Summary(c.Request.Context(), storeID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	sub := h.mgr.Register(storeID, conn)
	log := h.log.WithField("store_id", storeID)
	log.Debug("live subscriber connected")
	defer func() {
		h.mgr.Unregister(sub)
		log.Debug("live subscriber disconnected")
	}()

	if err := sub.Send(ws.NewSummary(storeID, agg)); err != nil {
		return
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("live read error")
			}
			return
		}
	}
}

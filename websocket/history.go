package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"promptcoach/internal/history"
	"promptcoach/middlewares"
	"promptcoach/models"
	"promptcoach/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	// Origins are already filtered by the CORS layer.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HistoryClient is one connected history view
type HistoryClient struct {
	Conn    *websocket.Conn
	Owner   models.Owner
	writeMu sync.Mutex
}

// SafeWriteJSON serializes writes to the connection
func (hc *HistoryClient) SafeWriteJSON(v interface{}) error {
	hc.writeMu.Lock()
	defer hc.writeMu.Unlock()
	_ = hc.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return hc.Conn.WriteJSON(v)
}

// HistoryHandler streams the owner's submission history. A full snapshot is
// sent on connect and again after every change signalled by the broker.
type HistoryHandler struct {
	store  services.HistoryStore
	broker history.Broker
	log    zerolog.Logger
}

func NewHistoryHandler(store services.HistoryStore, broker history.Broker, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, broker: broker, log: log}
}

func (h *HistoryHandler) Handle(c *gin.Context) {
	owner := middlewares.Owner(c)
	if !owner.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("history websocket upgrade failed")
		return
	}
	defer conn.Close()

	client := &HistoryClient{Conn: conn, Owner: owner}
	log := h.log.With().Str("userId", owner.UserID).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe, err := h.broker.Subscribe(ctx, owner)
	if err != nil {
		log.Error().Err(err).Msg("history subscribe failed")
		h.sendError(client, "Live history unavailable")
		return
	}
	defer unsubscribe()

	// The read loop only detects disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("history websocket closed")
				}
				return
			}
		}
	}()

	if !h.sendSnapshot(ctx, client, log) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if !h.sendSnapshot(ctx, client, log) {
				return
			}
		}
	}
}

func (h *HistoryHandler) sendSnapshot(ctx context.Context, client *HistoryClient, log zerolog.Logger) bool {
	entries, err := h.store.List(ctx, client.Owner)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Error().Err(err).Msg("history list failed")
		return h.sendError(client, "Failed to load history")
	}
	event, err := history.NewSnapshot(entries)
	if err != nil {
		log.Error().Err(err).Msg("history snapshot encode failed")
		return false
	}
	if err := client.SafeWriteJSON(event); err != nil {
		log.Debug().Err(err).Msg("history snapshot write failed")
		return false
	}
	return true
}

func (h *HistoryHandler) sendError(client *HistoryClient, msg string) bool {
	event, err := history.NewEvent(history.EventError, history.ErrorPayload{Message: msg})
	if err != nil {
		return false
	}
	return client.SafeWriteJSON(event) == nil
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"

	domainHealth "github.com/AzielCF/az-bot/domains/health"
	"github.com/AzielCF/az-bot/infrastructure/valkey"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

const relayChannel = "ws_broadcast"

type BroadcastMessage struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Result   any    `json:"result,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
}

// Hub fans connection events out to every websocket client. With valkey
// configured, events are relayed to the other processes sharing the session.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan BroadcastMessage

	vk      *valkey.Client
	localID string

	startOnce sync.Once
}

func NewHub(vk *valkey.Client, localID string) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan BroadcastMessage, 64),
		vk:         vk,
		localID:    localID,
	}
}

// Publish queues an event for broadcast. It never blocks the caller; when the
// queue is full the event is dropped and logged.
func (h *Hub) Publish(code, message string, result any) {
	select {
	case h.broadcast <- BroadcastMessage{Code: code, Message: message, Result: result}:
	default:
		logrus.Warnf("[WS] Broadcast queue full, dropping %s", code)
	}
}

// Run serves the hub until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	h.startOnce.Do(func() {
		if h.vk != nil {
			go h.subscribe(ctx)
		}
	})

	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				h.closeConnection(conn)
			}
			return
		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			logrus.Debug("[WS] Connection registered")
		case conn := <-h.unregister:
			delete(h.clients, conn)
			logrus.Debug("[WS] Connection unregistered")
		case message := <-h.broadcast:
			h.broadcastToLocal(message)
			if h.vk != nil && message.SenderID == "" {
				h.publishToValkey(ctx, message)
			}
		}
	}
}

func (h *Hub) broadcastToLocal(message BroadcastMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			h.closeConnection(conn)
		}
	}
}

func (h *Hub) publishToValkey(ctx context.Context, message BroadcastMessage) {
	message.SenderID = h.localID
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	if err := h.vk.Publish(ctx, h.vk.Key(relayChannel), string(data)); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func (h *Hub) subscribe(ctx context.Context) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for relayed events")
	inner := h.vk.Inner()
	err := inner.Receive(ctx, inner.B().Subscribe().Channel(h.vk.Key(relayChannel)).Build(), func(msg valkeylib.PubSubMessage) {
		var relayed BroadcastMessage
		if err := json.Unmarshal([]byte(msg.Message), &relayed); err != nil {
			return
		}
		if relayed.SenderID == h.localID || relayed.SenderID == "" {
			return
		}
		select {
		case h.broadcast <- relayed:
		case <-ctx.Done():
		}
	})
	if err != nil && ctx.Err() == nil {
		logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
	}
}

func (h *Hub) closeConnection(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
	delete(h.clients, conn)
}

// RegisterRoutes mounts /ws. Clients may send {"code":"FETCH_STATUS"} to get
// the current health report pushed to every listener.
func (h *Hub) RegisterRoutes(app fiber.Router, service domainHealth.IHealthUsecase) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		defer func() {
			h.unregister <- conn
			_ = conn.Close()
		}()

		h.register <- conn

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] Read error: %v", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}

			var req BroadcastMessage
			if err := json.Unmarshal(message, &req); err != nil {
				logrus.Debugf("[WS] Unmarshal error: %v", err)
				continue
			}
			if req.Code == "FETCH_STATUS" && service != nil {
				h.Publish("STATUS", "Current status", service.GetStatus(context.Background()))
			}
		}
	}))
}

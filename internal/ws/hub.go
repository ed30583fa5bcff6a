// Package ws доставляет события платформы подключённым пользователям
// по WebSocket. Доставка best-effort: параллельно каждое событие
// сохраняется в историю уведомлений.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/antonkudrin/profi-backend/internal/logger"
)

// NotificationSaver сохраняет отправленное событие в историю уведомлений.
type NotificationSaver interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// Hub держит все активные подключения, сгруппированные по пользователю.
// Один пользователь может быть подключён с нескольких устройств.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	saver      NotificationSaver
	ctx        context.Context
}

type envelope struct {
	userID  uuid.UUID
	payload []byte
}

// NewHub создаёт хаб. Завершение ctx останавливает сохранение уведомлений.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 32),
		ctx:        ctx,
	}
}

// SetNotificationSaver подключает сохранение событий в историю уведомлений.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saver = saver
}

// Run запускает главный цикл хаба. Все операции над картой клиентов
// сериализуются через каналы.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register добавляет подключение в хаб.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister убирает подключение из хаба.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser отправляет событие на все подключения пользователя
// и асинхронно сохраняет его в историю уведомлений.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("ws: marshal event %q: %w", event, err)
	}

	h.mu.RLock()
	saver := h.saver
	ctx := h.ctx
	h.mu.RUnlock()

	if saver != nil {
		go func() {
			defer recoverPanic("notification save")
			if err := saver.CreateNotification(ctx, userID, event, data); err != nil {
				logger.Log.WithError(err).WithField("user_id", userID).Warn("Не удалось сохранить уведомление")
			}
		}()
	}

	h.broadcast <- envelope{userID: userID, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Буфер клиента переполнен, соединение считаем мёртвым.
			go func(c *Client) {
				defer recoverPanic("client close")
				c.Close()
			}(client)
		}
	}
}

func recoverPanic(scope string) {
	if r := recover(); r != nil {
		logger.Log.WithFields(map[string]interface{}{
			"scope": scope,
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("Паника в websocket горутине")
	}
}

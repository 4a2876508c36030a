// Package ws реализует браузерный слой представления: хаб websocket-клиентов,
// рассылку вызовов микшера и прием намерений пользователя.
//
// Сообщения передаются текстовыми JSON-кадрами в конверте {type, ts, data}.
// При подключении клиент получает "state_init" со снимком микса.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hazadus/ambient-mixer/internal/mixer"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	maxMessageSize = 4096
)

// envelope конверт сообщения на проводе
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// HubConfig размеры очередей хаба
type HubConfig struct {
	// SendBuf размер очереди исходящих сообщений клиента
	SendBuf int
	// BroadcastBuf размер общей очереди рассылки
	BroadcastBuf int
}

// directMsg сообщение одному клиенту
type directMsg struct {
	client *Client
	msg    []byte
}

// Hub отслеживает подключенных клиентов и рассылает им сообщения.
// Очереди клиентов пишет и закрывает только горутина Run.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	direct     chan directMsg
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

// NewHub создает хаб. Запуск через Run(ctx).
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		direct:     make(chan directMsg, 64),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run обрабатывает события хаба до отмены ctx и отключает всех клиентов
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping")
			h.closeAllClients()
			return

		case c := <-h.register:
			if c.closed {
				continue
			}
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case d := <-h.direct:
			if d.client.closed {
				continue
			}
			select {
			case d.client.send <- d.msg:
			default:
				h.removeClient(d.client, "slow_client")
			}

		case msg := <-h.broadcast:
			// медленных клиентов собираем и отключаем после разблокировки
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// Clients возвращает число подключенных клиентов
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.shutdown()
		delete(h.clients, c)
	}
}

// removeClient снимает клиента с учета и закрывает его очередь.
// Клиент мог еще не дойти до регистрации: он закрывается все равно.
func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if c.closed {
		return
	}
	c.shutdown()
	h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
}

// BroadcastBytes ставит готовый кадр в очередь рассылки. Не блокируется:
// при переполненной очереди сообщение отбрасывается.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// SendTo ставит сообщение для одного клиента в очередь хаба.
// Не блокируется: при переполненной очереди возвращает false.
func (h *Hub) SendTo(c *Client, msg []byte) bool {
	select {
	case h.direct <- directMsg{client: c, msg: msg}:
		return true
	default:
		h.logger.Warn("ws hub direct queue full, dropping message", "remote_addr", c.remoteAddr, "bytes", len(msg))
		return false
	}
}

// Client одно websocket-подключение
type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte
	// closed меняется только в горутине хаба
	closed bool

	remoteAddr string
	logger     *slog.Logger
}

// NewClient создает клиента с буферизованной очередью отправки
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

// shutdown закрывает соединение и очередь; вызывается из горутины хаба
func (c *Client) shutdown() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.closed = true
	close(c.send)
}

// closeStatus извлекает код и текст закрытия websocket, если они есть
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

func (c *Client) logExit(pump string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.logger.Info("ws "+pump+" exiting", "remote_addr", c.remoteAddr, "error", err)
}

// writePump пишет сообщения из очереди в соединение и шлет ping.
// Завершается при ошибке записи или закрытии очереди.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// хаб отключает клиента
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", err)
				return
			}
		}
	}
}

// readPump читает намерения клиента и передает их в intents.
// При ошибке чтения снимает клиента с учета в хабе.
func (c *Client) readPump(ctx context.Context, intents func(mixer.Event)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("readPump", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}

		event, err := ParseIntent(message)
		if err != nil {
			c.logger.Warn("ws invalid intent", "remote_addr", c.remoteAddr, "error", err)
			continue
		}
		if intents != nil {
			intents(event)
		}
	}
}

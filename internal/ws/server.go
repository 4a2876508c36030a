package ws

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hazadus/ambient-mixer/internal/mixer"
)

//go:embed index.html
var indexHTML []byte

// snapshotTimeout сколько ждать снимок от цикла событий
const snapshotTimeout = time.Second

// SnapshotFunc запрашивает снимок микса через цикл владельца
type SnapshotFunc func(ctx context.Context) (Snapshot, error)

// ServerConfig параметры сервера
type ServerConfig struct {
	Hub HubConfig
	// Intents получает разобранные намерения клиентов
	Intents func(mixer.Event)
	// Snapshot отдает состояние для "state_init"
	Snapshot SnapshotFunc
}

// Server HTTP-обработчики браузерного интерфейса
type Server struct {
	logger   *slog.Logger
	hub      *Hub
	intents  func(mixer.Event)
	snapshot SnapshotFunc
}

// NewServer создает сервер. Хаб запускается отдельно через Hub().Run(ctx).
func NewServer(logger *slog.Logger, cfg ServerConfig) *Server {
	return &Server{
		logger:   logger,
		hub:      NewHub(logger, cfg.Hub),
		intents:  cfg.Intents,
		snapshot: cfg.Snapshot,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register регистрирует страницу и websocket-обработчик
func (s *Server) Register(mux *http.ServeMux, wsPath string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(wsPath, s.handleWS)
	mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

var upgrader = websocket.Upgrader{
	// интерфейс слушает локальный адрес
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS принимает подключение, регистрирует клиента и шлет state_init
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)
	s.hub.register <- client

	// Насосы не привязаны к контексту запроса: net/http отменяет его
	// по возврату из обработчика.
	go client.writePump(context.Background())
	go client.readPump(context.Background(), s.intents)

	if s.snapshot == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()

	snap, err := s.snapshot(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", err)
		}
		return
	}

	msg, err := encode(TypeStateInit, time.Now().UTC(), snap)
	if err != nil {
		s.logger.Warn("ws marshal failed", "type", TypeStateInit, "error", err)
		return
	}

	if !s.hub.SendTo(client, msg) {
		s.hub.unregister <- client
	}
}

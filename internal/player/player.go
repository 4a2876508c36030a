// Package player содержит движок воспроизведения: по одному зацикленному
// источнику на трек, громкость и транспорт для каждого трека и для всех сразу.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultPlayTimeout сколько ждать подтверждения запуска одного трека
const DefaultPlayTimeout = 2 * time.Second

// Handle воспроизводимый ресурс одного трека
type Handle interface {
	// Play снимает паузу и ждет подтверждения, что звук действительно пошел
	Play(ctx context.Context) error
	Pause()
	// Rewind возвращает позицию в начало
	Rewind() error
	// SetLevel задает уровень выхода в диапазоне 0.0–1.0
	SetLevel(level float64)
	Playing() bool
	Close() error
}

// Backend открывает ресурсы по ссылке из каталога
type Backend interface {
	Open(resourceRef string) (Handle, error)
}

// Engine управляет воспроизведением треков.
// Методы Play/PlayAll блокируются до подтверждения от платформы,
// поэтому внутренний мьютекс на время ожидания не удерживается.
type Engine struct {
	backend     Backend
	logger      *slog.Logger
	playTimeout time.Duration

	mutex     sync.RWMutex
	handles   map[string]Handle
	order     []string
	isPlaying bool
}

// Option настраивает Engine
type Option func(*Engine)

// WithPlayTimeout задает срок ожидания запуска для каждого трека отдельно
func WithPlayTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.playTimeout = d
		}
	}
}

// NewEngine создает новый движок воспроизведения
func NewEngine(backend Backend, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		backend:     backend,
		logger:      logger,
		playTimeout: DefaultPlayTimeout,
		handles:     make(map[string]Handle),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Level переводит проценты 0–100 в уровень 0.0–1.0 с ограничением диапазона
func Level(percent int) float64 {
	switch {
	case percent <= 0:
		return 0
	case percent >= 100:
		return 1
	default:
		return float64(percent) / 100
	}
}

// Load создает зацикленный источник для трека. При ошибке пишет в лог
// и возвращает false, трек остается незагруженным.
func (e *Engine) Load(trackID, resourceRef string) bool {
	h, err := e.backend.Open(resourceRef)
	if err != nil {
		e.logger.Error("failed to load sound", "track", trackID, "ref", resourceRef, "error", err)
		return false
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if old, ok := e.handles[trackID]; ok {
		_ = old.Close()
	} else {
		e.order = append(e.order, trackID)
	}
	e.handles[trackID] = h
	e.logger.Debug("sound loaded", "track", trackID, "ref", resourceRef)
	return true
}

func (e *Engine) handle(trackID string) (Handle, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	h, ok := e.handles[trackID]
	return h, ok
}

// start снимает трек с паузы; у каждого трека свой срок ожидания
func (e *Engine) start(ctx context.Context, h Handle) error {
	ctx, cancel := context.WithTimeout(ctx, e.playTimeout)
	defer cancel()
	return h.Play(ctx)
}

// Play запускает трек и ждет подтверждения. Возвращает false, если трек
// не загружен или платформа отказала в воспроизведении.
func (e *Engine) Play(ctx context.Context, trackID string) bool {
	h, ok := e.handle(trackID)
	if !ok {
		e.logger.Error("sound not found", "track", trackID)
		return false
	}
	if err := e.start(ctx, h); err != nil {
		e.logger.Error("failed to play sound", "track", trackID, "error", err)
		return false
	}
	e.logger.Debug("playing", "track", trackID)
	return true
}

// Pause ставит трек на паузу; повторный вызов и неизвестный трек ничего не делают
func (e *Engine) Pause(trackID string) {
	h, ok := e.handle(trackID)
	if !ok || !h.Playing() {
		return
	}
	h.Pause()
	e.logger.Debug("paused", "track", trackID)
}

// SetVolume задает громкость трека в процентах
func (e *Engine) SetVolume(trackID string, percent int) bool {
	h, ok := e.handle(trackID)
	if !ok {
		e.logger.Error("sound not found", "track", trackID)
		return false
	}
	h.SetLevel(Level(percent))
	return true
}

// snapshot возвращает загруженные треки в порядке загрузки
func (e *Engine) snapshot() ([]string, []Handle) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	ids := make([]string, len(e.order))
	handles := make([]Handle, len(e.order))
	for i, id := range e.order {
		ids[i] = id
		handles[i] = e.handles[id]
	}
	return ids, handles
}

// PlayAll запускает все загруженные треки. Ошибка одного трека
// не прерывает запуск остальных.
func (e *Engine) PlayAll(ctx context.Context) {
	ids, handles := e.snapshot()
	for i, h := range handles {
		if h.Playing() {
			continue
		}
		if err := e.start(ctx, h); err != nil {
			e.logger.Error("failed to play sound", "track", ids[i], "error", err)
		}
	}
	e.Refresh()
}

// PauseAll ставит на паузу все треки
func (e *Engine) PauseAll() {
	_, handles := e.snapshot()
	for _, h := range handles {
		if h.Playing() {
			h.Pause()
		}
	}
	e.Refresh()
}

// StopAll ставит на паузу все треки и перематывает их в начало
func (e *Engine) StopAll() {
	ids, handles := e.snapshot()
	for i, h := range handles {
		if h.Playing() {
			h.Pause()
		}
		if err := h.Rewind(); err != nil {
			e.logger.Warn("failed to rewind sound", "track", ids[i], "error", err)
		}
	}
	e.Refresh()
}

// Refresh пересчитывает общий флаг воспроизведения по фактическому
// состоянию источников и возвращает его
func (e *Engine) Refresh() bool {
	_, handles := e.snapshot()
	playing := false
	for _, h := range handles {
		if h.Playing() {
			playing = true
			break
		}
	}

	e.mutex.Lock()
	e.isPlaying = playing
	e.mutex.Unlock()
	return playing
}

// SetPlaying явно выставляет общий флаг воспроизведения
func (e *Engine) SetPlaying(playing bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.isPlaying = playing
}

// IsPlaying возвращает true, если хотя бы один трек воспроизводится
func (e *Engine) IsPlaying() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.isPlaying
}

// TrackPlaying сообщает фактическое состояние транспорта трека
func (e *Engine) TrackPlaying(trackID string) bool {
	h, ok := e.handle(trackID)
	return ok && h.Playing()
}

// IsLoaded сообщает, загружен ли трек
func (e *Engine) IsLoaded(trackID string) bool {
	_, ok := e.handle(trackID)
	return ok
}

// Loaded возвращает id загруженных треков в порядке загрузки
func (e *Engine) Loaded() []string {
	ids, _ := e.snapshot()
	return ids
}

// Close закрывает все источники и освобождает ресурсы
func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	var firstErr error
	for id, h := range e.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("ошибка закрытия трека %s: %w", id, err)
		}
	}
	e.handles = make(map[string]Handle)
	e.order = nil
	e.isPlaying = false
	return firstErr
}

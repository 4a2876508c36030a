// Package timer реализует таймер обратного отсчета с секундными тиками.
// Колбэки доставляются через диспетчер в цикл событий владельца.
package timer

import (
	"sync"
	"time"
)

// Ticker источник периодических сигналов
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory создает тикер с заданным интервалом
type TickerFactory func(d time.Duration) Ticker

// Dispatcher переносит вызов в цикл событий владельца таймера
type Dispatcher func(func())

// State снимок состояния таймера
type State struct {
	Total     int
	Remaining int
	Running   bool
}

// Minutes возвращает целые минуты оставшегося времени
func (s State) Minutes() int { return s.Remaining / 60 }

// Seconds возвращает секунды оставшегося времени без учета минут
func (s State) Seconds() int { return s.Remaining % 60 }

type stdTicker struct{ *time.Ticker }

func (t stdTicker) C() <-chan time.Time { return t.Ticker.C }

// NewStdTicker создает тикер на основе time.Ticker
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{time.NewTicker(d)}
}

// Direct вызывает функцию на месте
func Direct(f func()) { f() }

// Countdown таймер обратного отсчета
type Countdown struct {
	interval   time.Duration
	newTicker  TickerFactory
	dispatch   Dispatcher
	onTick     func(minutes, seconds int)
	onComplete func()

	mutex sync.Mutex
	state State
	run   uint64
	done  chan struct{}
}

// Option настраивает Countdown
type Option func(*Countdown)

// WithInterval задает интервал между тиками
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) { c.interval = d }
}

// WithTicker задает фабрику тикеров
func WithTicker(f TickerFactory) Option {
	return func(c *Countdown) { c.newTicker = f }
}

// WithDispatcher задает диспетчер колбэков
func WithDispatcher(d Dispatcher) Option {
	return func(c *Countdown) { c.dispatch = d }
}

// New создает таймер. onTick получает оставшиеся минуты и секунды,
// onComplete вызывается один раз по завершении отсчета.
func New(onTick func(minutes, seconds int), onComplete func(), opts ...Option) *Countdown {
	c := &Countdown{
		interval:   time.Second,
		newTicker:  NewStdTicker,
		dispatch:   Direct,
		onTick:     onTick,
		onComplete: onComplete,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCallbacks заменяет колбэки таймера
func (c *Countdown) SetCallbacks(onTick func(minutes, seconds int), onComplete func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onTick = onTick
	c.onComplete = onComplete
}

// Start запускает отсчет на заданное число минут, отменяя текущий.
// При minutes <= 0 работает как Stop.
func (c *Countdown) Start(minutes int) {
	if minutes <= 0 {
		c.Stop()
		return
	}

	c.mutex.Lock()
	c.cancelLocked()
	c.run++
	run := c.run
	c.state = State{Total: minutes * 60, Remaining: minutes * 60, Running: true}
	done := make(chan struct{})
	c.done = done
	ticker := c.newTicker(c.interval)
	state := c.state
	onTick := c.onTick
	c.mutex.Unlock()

	c.emit(onTick, state)
	go c.watch(ticker, done, run)
}

// Stop отменяет отсчет, обнуляет состояние и сообщает нулевой тик
func (c *Countdown) Stop() {
	c.mutex.Lock()
	c.cancelLocked()
	c.run++
	c.state = State{}
	onTick := c.onTick
	c.mutex.Unlock()

	c.emit(onTick, State{})
}

// State возвращает снимок состояния
func (c *Countdown) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

func (c *Countdown) cancelLocked() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *Countdown) watch(ticker Ticker, done <-chan struct{}, run uint64) {
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			c.dispatch(func() { c.step(run) })
		}
	}
}

// step выполняется в цикле владельца; тики устаревшего запуска игнорируются
func (c *Countdown) step(run uint64) {
	c.mutex.Lock()
	if run != c.run || !c.state.Running {
		c.mutex.Unlock()
		return
	}

	c.state.Remaining--
	state := c.state
	onTick := c.onTick
	onComplete := c.onComplete

	finished := state.Remaining <= 0
	if finished {
		state.Remaining = 0
		c.cancelLocked()
		c.run++
		c.state = State{}
	}
	c.mutex.Unlock()

	c.emit(onTick, state)
	if finished && onComplete != nil {
		onComplete()
	}
}

func (c *Countdown) emit(onTick func(int, int), s State) {
	if onTick != nil {
		onTick(s.Minutes(), s.Seconds())
	}
}

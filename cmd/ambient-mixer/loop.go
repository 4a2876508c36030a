package main

import (
	"context"
	"errors"
)

// errLoopStopped возвращается, если цикл событий уже завершен
var errLoopStopped = errors.New("цикл событий остановлен")

// eventLoop выполняет функции по одной в собственной горутине.
// Микшер принадлежит циклу: все обращения к нему идут через Dispatch или Call.
type eventLoop struct {
	calls chan func()
	done  chan struct{}
}

func newEventLoop() *eventLoop {
	return &eventLoop{
		calls: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run обрабатывает вызовы до отмены ctx
func (l *eventLoop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case f := <-l.calls:
			f()
		case <-ctx.Done():
			return
		}
	}
}

// Dispatch ставит f в очередь. После остановки цикла вызов отбрасывается.
// Подходит как timer.Dispatcher.
func (l *eventLoop) Dispatch(f func()) {
	select {
	case l.calls <- f:
	case <-l.done:
	}
}

// Call выполняет f в цикле и ждет завершения
func (l *eventLoop) Call(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		f()
	}

	select {
	case l.calls <- wrapped:
	case <-l.done:
		return errLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return errLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

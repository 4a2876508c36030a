// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	mixer  *mixer.Mixer
	logger *slog.Logger

	mu      sync.Mutex
	program *tea.Program
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(m *mixer.Mixer, logger *slog.Logger) *App {
	return &App{
		mixer:  m,
		logger: logger,
	}
}

// Dispatch выполняет f в цикле Bubble Tea. Подходит как timer.Dispatcher.
// До запуска программы вызовы отбрасываются.
func (tuiApp *App) Dispatch(f func()) {
	tuiApp.mu.Lock()
	p := tuiApp.program
	tuiApp.mu.Unlock()

	if p == nil {
		tuiApp.logger.Debug("tui not running, dropping dispatched call")
		return
	}
	p.Send(app.DispatchMsg{Fn: f})
}

// Run запускает TUI приложение и блокируется до выхода
func (tuiApp *App) Run(opts ...tea.ProgramOption) error {
	// Создаем модель для Bubble Tea
	model := app.NewMainModel(tuiApp.mixer)

	// Создаем программу Bubble Tea
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)

	tuiApp.mu.Lock()
	tuiApp.program = p
	tuiApp.mu.Unlock()

	// Запускаем программу
	_, err := p.Run()

	tuiApp.mu.Lock()
	tuiApp.program = nil
	tuiApp.mu.Unlock()

	// Микшер больше не владеет представлением
	tuiApp.mixer.SetPresenter(mixer.NopPresenter{})

	return err
}

// Quit завершает запущенную программу
func (tuiApp *App) Quit() {
	tuiApp.mu.Lock()
	p := tuiApp.program
	tuiApp.mu.Unlock()

	if p != nil {
		p.Quit()
	}
}

func (tuiApp *App) running() bool {
	tuiApp.mu.Lock()
	defer tuiApp.mu.Unlock()
	return tuiApp.program != nil
}

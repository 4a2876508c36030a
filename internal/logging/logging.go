// Package logging настраивает структурированный логгер приложения
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel преобразует строку из конфигурации в уровень slog
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, fmt.Errorf("неверный уровень логирования: %s (ожидается error, warn, info или debug)", level)
	}
}

// New создает текстовый логгер, пишущий в w
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenFile создает логгер, пишущий в файл. Используется TUI, чтобы
// вывод не портил альтернативный экран терминала.
func OpenFile(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("ошибка создания каталога для лога: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка открытия файла лога: %w", err)
	}
	return New(f, level), f, nil
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError)
}

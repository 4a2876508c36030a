package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/preset"
	"github.com/hazadus/ambient-mixer/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "play [preset]",
		Short: "Play a preset without UI",
		Long:  `Play a built-in or saved preset by key, id or name. With --timer playback pauses when the countdown ends.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if minutes < 0 {
				return fmt.Errorf("неверное значение таймера: %d", minutes)
			}
			return app.playPreset(ctx, args[0], minutes)
		},
	}
	cmd.Flags().IntVarP(&minutes, "timer", "t", 0, "sleep timer in minutes (0 - off)")
	return cmd
}

// resolvePreset находит пресет по ключу встроенного, id или имени пользовательского
func (app *Application) resolvePreset(store *preset.Store, ref string) (key string, custom bool, err error) {
	if _, ok := app.Catalog.Presets[ref]; ok {
		return ref, false, nil
	}
	if _, ok := store.Get(ref); ok {
		return ref, true, nil
	}
	for _, p := range store.List() {
		if p.Name == ref {
			return p.ID, true, nil
		}
	}
	return "", false, fmt.Errorf("пресет %s не найден", ref)
}

// consolePresenter печатает изменения транспорта и таймера в терминал
type consolePresenter struct {
	mixer.NopPresenter
	out io.Writer
}

func newConsolePresenter(out io.Writer) *consolePresenter {
	return &consolePresenter{out: out}
}

func (p *consolePresenter) UpdateMainPlayButton(playing bool) {
	fmt.Fprintf(p.out, "\r\033[K")
	if playing {
		fmt.Fprintf(p.out, "▶️  Воспроизведение\n")
	} else {
		fmt.Fprintf(p.out, "⏸️  Пауза\n")
	}
}

func (p *consolePresenter) UpdateTimerDisplay(minutes, seconds int) {
	if minutes == 0 && seconds == 0 {
		return
	}
	fmt.Fprintf(p.out, "\r⏳ Осталось: %s", utils.FormatCountdown(minutes, seconds))
}

func (p *consolePresenter) Notify(level mixer.NoticeLevel, message string) {
	icon := "ℹ️"
	switch level {
	case mixer.NoticeWarning:
		icon = "⚠️"
	case mixer.NoticeError:
		icon = "❌"
	}
	fmt.Fprintf(p.out, "\r\033[K%s  %s\n", icon, message)
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Без raw режима пауза работает после Enter
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readSingleChar читает одиночный символ без ожидания Enter
func readSingleChar() (byte, error) {
	buffer := make([]byte, 1)
	_, err := os.Stdin.Read(buffer)
	return buffer[0], err
}

func (app *Application) playPreset(parent context.Context, ref string, minutes int) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := newEventLoop()
	sess, err := app.newSession(loop.Dispatch)
	if err != nil {
		return err
	}

	key, custom, err := app.resolvePreset(sess.store, ref)
	if err != nil {
		sess.Close()
		return err
	}

	m := sess.mixer
	m.SetPresenter(newConsolePresenter(os.Stdout))

	finished := make(chan struct{}, 1)
	sess.countdown.SetCallbacks(m.TimerTick, func() {
		m.OnTimerComplete()
		select {
		case finished <- struct{}{}:
		default:
		}
	})

	go loop.Run(ctx)
	defer func() {
		stop()
		<-loop.done
		sess.Close()
	}()

	var playing bool
	err = loop.Call(ctx, func() {
		m.LoadPreset(ctx, key, custom)
		m.StartTimer(minutes)
		playing = m.IsPlaying()
	})
	if err != nil {
		return err
	}
	if !playing {
		return fmt.Errorf("не удалось запустить воспроизведение пресета %s", ref)
	}

	fmt.Printf("🎵 Пресет: %s\n", app.presetName(sess.store, key, custom))
	if minutes > 0 {
		fmt.Printf("⏳ Таймер: %d мин\n", minutes)
	}
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	go func() {
		for {
			char, err := readSingleChar()
			if err != nil {
				return
			}
			// Пробел или Enter
			if char == 32 || char == 10 || char == 13 {
				loop.Dispatch(func() {
					// Возобновление заново загружает пресет: ToggleAll включил бы все звуки
					if m.IsPlaying() {
						m.ToggleAll(ctx)
					} else {
						m.LoadPreset(ctx, key, custom)
					}
				})
			}
		}
	}()

	select {
	case <-finished:
		fmt.Println("\n✅ Таймер истек, воспроизведение остановлено")
		return nil
	case <-ctx.Done():
		if parent.Err() != nil {
			fmt.Println("\n🚫 Операция отменена")
			return parent.Err()
		}
		fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
		return nil
	}
}

// presetName возвращает отображаемое имя пресета
func (app *Application) presetName(store *preset.Store, key string, custom bool) string {
	if custom {
		if p, ok := store.Get(key); ok {
			return p.Name
		}
		return key
	}
	return app.Catalog.Presets[key].Name
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/ambient-mixer/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal mixer: toggle sounds, adjust volumes, load presets and set a sleep timer.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI()
		},
	}
}

func (app *Application) launchTUI() error {
	// Вывод в терминал испортит альтернативный экран
	if err := app.logToFile(); err != nil {
		return err
	}

	var tuiApp *tui.App
	sess, err := app.newSession(func(f func()) { tuiApp.Dispatch(f) })
	if err != nil {
		return err
	}
	defer sess.Close()

	tuiApp = tui.NewApp(sess.mixer, app.Logger)

	if err := tuiApp.Run(); err != nil {
		return fmt.Errorf("ошибка работы TUI: %w", err)
	}
	return nil
}

package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ambient-mixer",
		Short: "Ambient sound mixer for focus and relaxation",
		Long:  `Mix looping ambient sounds, save presets and fall asleep with a sleep timer.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.init()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", defaultConfigPath, "path to config file")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: error, warn, info, debug")

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createTUICommand())
	rootCmd.AddCommand(app.createServeCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createTracksCommand())
	rootCmd.AddCommand(app.createPresetsCommand(ctx))
	rootCmd.AddCommand(app.createSoundsCommand(ctx))

	return rootCmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/ambient-mixer/internal/backup"
	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/metadata"
	"github.com/hazadus/ambient-mixer/internal/utils"
)

// createTracksCommand создает группу команд для работы с каталогом звуков
func (app *Application) createTracksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "Manage the sound catalog",
	}
	cmd.AddCommand(app.createTracksListCommand())
	cmd.AddCommand(app.createTracksScanCommand())
	return cmd
}

func (app *Application) createTracksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sounds from the catalog",
		Long:  `Display sounds from the catalog and whether their files are present in sounds_dir.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listTracks()
		},
	}
}

// trackStatus описывает наличие файла трека
func (app *Application) trackStatus(t catalog.Track) string {
	path := catalog.ResourcePath(app.Config.SoundsDir, t)
	if _, err := os.Stat(path); err == nil {
		return "✅ есть"
	}
	if t.URL != "" {
		return "🌐 скачать"
	}
	return "❌ нет файла"
}

func (app *Application) listTracks() {
	if len(app.Catalog.Tracks) == 0 {
		fmt.Println("📚 Каталог пуст. Добавьте звуки с помощью команды 'tracks scan'.")
		return
	}

	fmt.Printf("📚 Найдено звуков: %d\n\n", len(app.Catalog.Tracks))

	// Выводим заголовок таблицы
	fmt.Printf("%-16s %-24s %-36s %-14s\n", "ID", "Название", "Файл", "Статус")
	fmt.Println(strings.Repeat("-", 92))

	for _, t := range app.Catalog.Tracks {
		name := utils.TruncateString(strings.TrimSpace(t.Icon+" "+t.Name), 22)
		fmt.Printf("%-16s %-24s %-36s %-14s\n",
			utils.TruncateString(t.ID, 14),
			name,
			utils.TruncateString(t.File, 34),
			app.trackStatus(t))
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'ambient-mixer sounds fetch' для загрузки недостающих файлов")
}

func (app *Application) createTracksScanCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Add audio files from a directory to the catalog",
		Long:  `Scan a directory (sounds_dir by default) for mp3, wav and ogg files and add new ones to the catalog file.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := app.Config.SoundsDir
			if len(args) == 1 {
				dir = args[0]
			}
			if output == "" {
				output = app.Config.CatalogFile
			}
			if output == "" {
				return fmt.Errorf("не задан файл каталога: укажите catalog_file в конфигурации или флаг --output")
			}
			return app.scanTracks(dir, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "catalog file to write (overrides catalog_file)")
	return cmd
}

// scanTracks добавляет в каталог найденные файлы, которых в нем еще нет
func (app *Application) scanTracks(dir, output string) error {
	files, err := metadata.NewExtractor().Scan(dir)
	if err != nil {
		return err
	}

	// Файлы из sounds_dir храним относительными путями
	inSoundsDir := filepath.Clean(dir) == filepath.Clean(app.Config.SoundsDir)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("ошибка определения пути %s: %w", dir, err)
	}

	known := make(map[string]bool, len(app.Catalog.Tracks))
	for _, t := range app.Catalog.Tracks {
		known[catalog.ResourcePath(app.Config.SoundsDir, t)] = true
	}

	fmt.Printf("🔍 Найдено аудио файлов: %d\n", len(files))

	added := 0
	for _, f := range files {
		file := filepath.Join(absDir, filepath.FromSlash(f.Path))
		if inSoundsDir {
			file = f.Path
		}

		t := catalog.Track{Name: f.Metadata.Name, File: file}
		if known[catalog.ResourcePath(app.Config.SoundsDir, t)] {
			continue
		}

		if f.Info == nil {
			fmt.Printf("⚠️  Пропускаем %s: не удалось декодировать\n", f.Path)
			continue
		}

		t = app.Catalog.AddTrack(t)
		added++
		fmt.Printf("➕ %s (%s) %s, %s\n", t.Name, t.ID,
			utils.FormatDuration(f.Info.Duration), backup.FormatFileSize(f.Info.Size))
	}

	if added == 0 {
		fmt.Println("✅ Новых звуков нет, каталог не изменен")
		return nil
	}

	if err := app.Catalog.Save(output); err != nil {
		return err
	}

	fmt.Printf("\n📦 Добавлено звуков: %d, каталог сохранен в %s\n", added, output)
	return nil
}

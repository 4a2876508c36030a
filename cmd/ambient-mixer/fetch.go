package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/ambient-mixer/internal/backup"
	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/streaming"
)

// fetchTimeout ограничение на загрузку одного звука
const fetchTimeout = 10 * time.Minute

// createSoundsCommand создает группу команд для работы с аудиофайлами
func (app *Application) createSoundsCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sounds",
		Short: "Manage audio files in sounds_dir",
	}
	cmd.AddCommand(app.createSoundsFetchCommand(ctx))
	return cmd
}

func (app *Application) createSoundsFetchCommand(ctx context.Context) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch [track id...]",
		Short: "Download missing sound files",
		Long:  `Download files of catalog tracks that have a url into sounds_dir. Without arguments all missing files are fetched.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return app.fetchSounds(ctx, args, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "download even if the file exists")
	return cmd
}

// fetchTargets выбирает треки для загрузки
func (app *Application) fetchTargets(ids []string) ([]catalog.Track, error) {
	if len(ids) == 0 {
		var targets []catalog.Track
		for _, t := range app.Catalog.Tracks {
			if t.URL != "" {
				targets = append(targets, t)
			}
		}
		return targets, nil
	}

	byID := make(map[string]catalog.Track, len(app.Catalog.Tracks))
	for _, t := range app.Catalog.Tracks {
		byID[t.ID] = t
	}

	targets := make([]catalog.Track, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("трека с id %s нет в каталоге", id)
		}
		if t.URL == "" {
			return nil, fmt.Errorf("у трека %s отсутствует url", id)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (app *Application) fetchSounds(ctx context.Context, ids []string, force bool) error {
	targets, err := app.fetchTargets(ids)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Println("📭 В каталоге нет звуков с url для загрузки")
		return nil
	}

	var downloaded, skipped, failed int
	for _, t := range targets {
		dest := catalog.ResourcePath(app.Config.SoundsDir, t)
		if _, err := os.Stat(dest); err == nil && !force {
			skipped++
			continue
		}

		fmt.Printf("⬇️  %s: %s\n", t.Name, t.URL)

		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		size, err := streaming.Download(fetchCtx, t.URL, dest, func(written, total int64) {
			fmt.Printf("\r📊 %s", streaming.FormatProgress(written, total))
		})
		cancel()

		if err != nil {
			failed++
			fmt.Printf("\n❌ Ошибка загрузки %s: %v\n", t.ID, err)
			app.Logger.Error("sound download failed", "track", t.ID, "url", t.URL, "error", err)
			continue
		}

		downloaded++
		fmt.Printf("\n✅ Сохранено %s (%s)\n", dest, backup.FormatFileSize(size))
	}

	fmt.Printf("\n📦 Загружено: %d, уже было: %d, ошибок: %d\n", downloaded, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("не удалось загрузить звуков: %d", failed)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/ambient-mixer/internal/backup"
	"github.com/hazadus/ambient-mixer/internal/utils"
)

// backupTimeout ограничение на обмен с S3
const backupTimeout = 2 * time.Minute

// createPresetsCommand создает группу команд для работы с пресетами
func (app *Application) createPresetsCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage built-in and saved presets",
	}
	cmd.AddCommand(app.createPresetsListCommand())
	cmd.AddCommand(app.createPresetsDeleteCommand())
	cmd.AddCommand(app.createPresetsBackupCommand(ctx))
	cmd.AddCommand(app.createPresetsBackupsCommand(ctx))
	cmd.AddCommand(app.createPresetsRestoreCommand(ctx))
	return cmd
}

func (app *Application) createPresetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved presets",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listPresets()
		},
	}
}

// formatSounds описывает состав пресета: "rain 60%, fire 30%"
func (app *Application) formatSounds(sounds map[string]int) string {
	ids := make([]string, 0, len(sounds))
	for id := range sounds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s %d%%", id, sounds[id]))
	}
	return strings.Join(parts, ", ")
}

func (app *Application) listPresets() error {
	store, err := app.openStore()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(app.Catalog.Presets))
	for key := range app.Catalog.Presets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("🎚️  Встроенные пресеты: %d\n", len(keys))
	for _, key := range keys {
		p := app.Catalog.Presets[key]
		fmt.Printf("   %-20s %-20s %s\n", key, utils.TruncateString(p.Name, 18), app.formatSounds(p.Sounds))
	}
	fmt.Println()

	custom := store.List()
	if len(custom) == 0 {
		fmt.Println("💾 Сохраненных пресетов нет. Сохраните микс в TUI клавишей 's'.")
		return nil
	}

	fmt.Printf("💾 Сохраненные пресеты: %d\n", len(custom))
	for _, p := range custom {
		fmt.Printf("   %-20s %-20s %s\n", p.ID, utils.TruncateString(p.Name, 18), app.formatSounds(p.Sounds))
	}
	fmt.Println()
	fmt.Println("💡 Используйте 'ambient-mixer play [пресет]' для воспроизведения")
	return nil
}

func (app *Application) createPresetsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id or name]",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.deletePreset(args[0])
		},
	}
}

func (app *Application) deletePreset(ref string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}

	target, ok := store.Get(ref)
	if !ok {
		for _, p := range store.List() {
			if p.Name == ref {
				target, ok = p, true
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("сохраненный пресет %s не найден", ref)
	}

	if !store.Delete(target.ID) {
		return fmt.Errorf("не удалось удалить пресет %s", target.ID)
	}

	fmt.Printf("🗑️  Пресет удален: %s (%s)\n", target.Name, target.ID)
	return nil
}

// backupService собирает сервис резервного копирования
func (app *Application) backupService() (*backup.Service, error) {
	store, err := app.openStore()
	if err != nil {
		return nil, err
	}
	objects, err := app.objectStore()
	if err != nil {
		return nil, err
	}
	return backup.NewService(objects, store), nil
}

func (app *Application) createPresetsBackupCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload saved presets to S3",
		RunE: func(_ *cobra.Command, _ []string) error {
			backupCtx, cancel := context.WithTimeout(ctx, backupTimeout)
			defer cancel()
			return app.backupPresets(backupCtx)
		},
	}
}

func (app *Application) backupPresets(ctx context.Context) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	fmt.Printf("📤 Сохраняем пресеты в бакет %s\n", app.Config.AwsBucketName)

	result, err := service.Backup(ctx, func(read int64) {
		fmt.Printf("\r📊 Отправлено: %s", backup.FormatFileSize(read))
	})
	if err != nil {
		return fmt.Errorf("ошибка резервного копирования: %w", err)
	}

	fmt.Printf("\n✅ Сохранено пресетов: %d (%s)\n", result.Count, backup.FormatFileSize(result.Size))
	fmt.Printf("   Ключ: %s\n", result.Key)
	fmt.Printf("   URL: %s\n", result.URL)
	return nil
}

func (app *Application) createPresetsBackupsCommand(ctx context.Context) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List preset backups stored in S3",
		Long:  `List preset backups. With --keep N older backups are deleted and only the N latest remain.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			listCtx, cancel := context.WithTimeout(ctx, backupTimeout)
			defer cancel()
			if keep > 0 {
				if err := app.pruneBackups(listCtx, keep); err != nil {
					return err
				}
			}
			return app.listBackups(listCtx)
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "delete all but the N latest backups")
	return cmd
}

func (app *Application) pruneBackups(ctx context.Context, keep int) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	removed, err := service.Prune(ctx, keep)
	for _, key := range removed {
		fmt.Printf("🗑️  Удалена копия: %s\n", key)
	}
	if err != nil {
		return fmt.Errorf("ошибка удаления старых копий: %w", err)
	}
	return nil
}

func (app *Application) listBackups(ctx context.Context) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	keys, err := service.List(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения списка копий: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("📭 Резервных копий нет. Создайте копию командой 'presets backup'.")
		return nil
	}

	fmt.Printf("🗄️  Резервные копии: %d\n", len(keys))
	for _, key := range keys {
		fmt.Printf("   %s\n", key)
	}
	return nil
}

func (app *Application) createPresetsRestoreCommand(ctx context.Context) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "restore [key]",
		Short: "Restore saved presets from S3",
		Long:  `Restore presets from a backup key (the latest backup by default). Without --merge the current presets are replaced.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			restoreCtx, cancel := context.WithTimeout(ctx, backupTimeout)
			defer cancel()
			return app.restorePresets(restoreCtx, key, merge)
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "keep current presets and add ones from the backup")
	return cmd
}

func (app *Application) restorePresets(ctx context.Context, key string, merge bool) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	count, err := service.Restore(ctx, key, merge)
	if errors.Is(err, backup.ErrNoBackups) {
		fmt.Println("📭 Резервных копий нет, восстанавливать нечего")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка восстановления: %w", err)
	}

	fmt.Printf("✅ Восстановлено, сохраненных пресетов: %d\n", count)
	return nil
}

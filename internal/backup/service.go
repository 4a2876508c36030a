// Package backup сохраняет пользовательские пресеты в S3 и восстанавливает их
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hazadus/ambient-mixer/internal/preset"
)

// KeyPrefix префикс ключей резервных копий в бакете
const KeyPrefix = "presets/"

// ErrNoBackups возвращается, если в хранилище нет ни одной копии
var ErrNoBackups = errors.New("резервные копии не найдены")

// ObjectStore хранилище объектов (реализуется s3.Client)
type ObjectStore interface {
	UploadFile(ctx context.Context, reader io.Reader, key string) (string, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	DeleteFile(ctx context.Context, key string) error
}

// PresetStore коллекция пресетов (реализуется preset.Store)
type PresetStore interface {
	Export() ([]byte, error)
	All() map[string]preset.Preset
	Replace(presets map[string]preset.Preset) error
}

// Service управляет резервным копированием пресетов
type Service struct {
	objects ObjectStore
	presets PresetStore
	now     func() time.Time
}

// NewService создает новый сервис резервного копирования
func NewService(objects ObjectStore, presets PresetStore) *Service {
	return &Service{
		objects: objects,
		presets: presets,
		now:     time.Now,
	}
}

// Result содержит результат резервного копирования
type Result struct {
	Key   string
	URL   string
	Count int
	Size  int64
}

// backupKey формирует ключ копии; ключи сортируются по времени создания
func (s *Service) backupKey() string {
	return KeyPrefix + "presets-" + s.now().UTC().Format("20060102-150405") + ".json"
}

// Backup выгружает текущую коллекцию пресетов
func (s *Service) Backup(ctx context.Context, progressCallback func(int64)) (*Result, error) {
	data, err := s.presets.Export()
	if err != nil {
		return nil, fmt.Errorf("ошибка экспорта пресетов: %w", err)
	}

	presets, err := preset.Decode(data)
	if err != nil {
		return nil, err
	}

	// Создаем reader с отслеживанием прогресса
	var reader io.Reader = bytes.NewReader(data)
	if progressCallback != nil {
		reader = &ProgressReader{
			Reader:     reader,
			Size:       int64(len(data)),
			OnProgress: progressCallback,
		}
	}

	key := s.backupKey()
	url, err := s.objects.UploadFile(ctx, reader, key)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки в S3: %w", err)
	}

	return &Result{
		Key:   key,
		URL:   url,
		Count: len(presets),
		Size:  int64(len(data)),
	}, nil
}

// List возвращает ключи резервных копий от старых к новым
func (s *Service) List(ctx context.Context) ([]string, error) {
	keys, err := s.objects.ListKeys(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}

	backups := keys[:0]
	for _, key := range keys {
		if strings.HasSuffix(key, ".json") {
			backups = append(backups, key)
		}
	}
	return backups, nil
}

// Restore загружает копию key (пустой ключ означает последнюю) и заменяет
// ею коллекцию. При merge существующие пресеты сохраняются, совпадающие
// id берутся из копии. Возвращает число пресетов после восстановления.
func (s *Service) Restore(ctx context.Context, key string, merge bool) (int, error) {
	if key == "" {
		keys, err := s.List(ctx)
		if err != nil {
			return 0, err
		}
		if len(keys) == 0 {
			return 0, ErrNoBackups
		}
		key = keys[len(keys)-1]
	}

	data, err := s.objects.DownloadFile(ctx, key)
	if err != nil {
		return 0, err
	}

	restored, err := preset.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("копия %s повреждена: %w", key, err)
	}

	if merge {
		merged := s.presets.All()
		for id, p := range restored {
			merged[id] = p
		}
		restored = merged
	}

	if err := s.presets.Replace(restored); err != nil {
		return 0, err
	}
	return len(restored), nil
}

// Prune удаляет старые копии, оставляя keep последних. Возвращает удаленные ключи.
func (s *Service) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("нужно оставить хотя бы одну копию, получено %d", keep)
	}

	keys, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) <= keep {
		return nil, nil
	}

	var removed []string
	for _, key := range keys[:len(keys)-keep] {
		if err := s.objects.DeleteFile(ctx, key); err != nil {
			return removed, err
		}
		removed = append(removed, key)
	}
	return removed, nil
}

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress func(int64)
	bytesRead  int64
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.bytesRead)
	}
	return n, err
}

// FormatFileSize форматирует размер файла в читаемом виде
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

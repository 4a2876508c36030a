// Package catalog содержит статическое описание доступных звуков и встроенных пресетов
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Track описывает один зацикленный звук
type Track struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	File string `yaml:"file"`          // Путь к файлу относительно каталога звуков
	Icon string `yaml:"icon,omitempty"` // Значок для отображения
	URL  string `yaml:"url,omitempty"`  // Источник для команды sounds fetch
}

// BuiltinPreset встроенный пресет, доступный только для чтения
type BuiltinPreset struct {
	Name   string         `yaml:"name"`
	Sounds map[string]int `yaml:"sounds"`
}

// Catalog набор звуков и встроенных пресетов
type Catalog struct {
	Tracks  []Track                  `yaml:"tracks"`
	Presets map[string]BuiltinPreset `yaml:"presets"`
}

// NewCatalog создает пустой каталог
func NewCatalog() *Catalog {
	return &Catalog{
		Tracks:  make([]Track, 0),
		Presets: make(map[string]BuiltinPreset),
	}
}

// Default возвращает каталог, встроенный в бинарник
func Default() (*Catalog, error) {
	c := NewCatalog()
	if err := yaml.Unmarshal(defaultCatalog, c); err != nil {
		return nil, fmt.Errorf("ошибка разбора встроенного каталога: %w", err)
	}
	return c, c.Validate()
}

// Load загружает каталог из файла. Пустой путь или отсутствующий файл
// означают встроенный каталог.
func Load(filePath string) (*Catalog, error) {
	if filePath == "" {
		return Default()
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default()
		}
		return nil, fmt.Errorf("ошибка чтения файла каталога: %w", err)
	}

	c := NewCatalog()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	if c.Presets == nil {
		c.Presets = make(map[string]BuiltinPreset)
	}
	return c, c.Validate()
}

// Save сохраняет каталог в файл
func (c *Catalog) Save(filePath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ошибка сериализации каталога: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("ошибка создания каталога: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла каталога: %w", err)
	}
	return nil
}

// Validate проверяет уникальность идентификаторов и ссылки пресетов
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Tracks))
	for _, t := range c.Tracks {
		if t.ID == "" {
			return fmt.Errorf("у трека %q отсутствует id", t.Name)
		}
		if seen[t.ID] {
			return fmt.Errorf("повторяющийся id трека: %s", t.ID)
		}
		if t.File == "" {
			return fmt.Errorf("у трека %s отсутствует file", t.ID)
		}
		seen[t.ID] = true
	}

	for key, p := range c.Presets {
		for id, vol := range p.Sounds {
			if !seen[id] {
				return fmt.Errorf("пресет %s ссылается на неизвестный трек %s", key, id)
			}
			if vol <= 0 || vol > 100 {
				return fmt.Errorf("пресет %s: громкость %s вне диапазона 1..100: %d", key, id, vol)
			}
		}
	}
	return nil
}

// AddTrack добавляет трек, делая его id уникальным при совпадении
func (c *Catalog) AddTrack(track Track) Track {
	base := track.ID
	if base == "" {
		base = Slug(track.Name)
	}
	id := base
	for n := 2; c.hasTrack(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	track.ID = id
	c.Tracks = append(c.Tracks, track)
	return track
}

func (c *Catalog) hasTrack(id string) bool {
	for _, t := range c.Tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ResourcePath возвращает путь к аудиофайлу трека
func ResourcePath(soundsDir string, t Track) string {
	if filepath.IsAbs(t.File) || strings.Contains(t.File, "://") {
		return t.File
	}
	return filepath.Join(soundsDir, t.File)
}

// Slug превращает название в идентификатор: нижний регистр, дефисы вместо пробелов
func Slug(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "track"
	}
	return s
}

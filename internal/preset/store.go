// Package preset хранит пользовательские пресеты громкости
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quasilyte/gdata"
)

// StorageKey ключ, под которым хранится вся коллекция пресетов
const StorageKey = "ambientMixerPresets"

// IDPrefix префикс идентификаторов пользовательских пресетов
const IDPrefix = "custom-"

// ErrNothingToSave возвращается, если среди громкостей нет ненулевых
var ErrNothingToSave = errors.New("нет активных звуков для сохранения")

// Preset именованный набор громкостей треков
type Preset struct {
	ID     string         `json:"-"`
	Name   string         `json:"name"`
	Sounds map[string]int `json:"sounds"`
}

// Storage хранилище ключ-значение. Ему удовлетворяет *gdata.Manager.
type Storage interface {
	LoadItem(itemKey string) ([]byte, error)
	SaveItem(itemKey string, data []byte) error
}

// OpenStorage открывает хранилище данных приложения: файлы в каталоге
// пользователя на десктопе, localStorage в браузере
func OpenStorage(appName string) (*gdata.Manager, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия хранилища пресетов: %w", err)
	}
	return m, nil
}

// Store коллекция пользовательских пресетов
type Store struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time

	mutex   sync.RWMutex
	presets map[string]Preset
}

// NewStore создает хранилище пресетов поверх storage
func NewStore(storage Storage, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		presets: make(map[string]Preset),
	}
}

// SetClock подменяет источник времени для генерации id
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Load читает коллекцию из хранилища. Отсутствие данных или
// поврежденная запись дают пустую коллекцию.
func (s *Store) Load() map[string]Preset {
	presets := make(map[string]Preset)

	data, err := s.storage.LoadItem(StorageKey)
	switch {
	case err != nil:
		s.logger.Warn("failed to read presets", "error", err)
	case len(data) == 0:
		s.logger.Debug("no stored presets")
	default:
		parsed, err := Decode(data)
		if err != nil {
			s.logger.Warn("stored presets are corrupt, starting empty", "error", err)
		} else {
			presets = parsed
		}
	}

	s.mutex.Lock()
	s.presets = presets
	s.mutex.Unlock()

	return s.All()
}

// Save сохраняет ненулевые громкости под новым уникальным id
func (s *Store) Save(name string, volumes map[string]int) (string, error) {
	sounds := sparse(volumes)
	if len(sounds) == 0 {
		return "", ErrNothingToSave
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextIDLocked()
	s.presets[id] = Preset{ID: id, Name: name, Sounds: sounds}
	if err := s.persistLocked(); err != nil {
		delete(s.presets, id)
		return "", err
	}
	return id, nil
}

// nextIDLocked генерирует id по текущему времени, сдвигая его при совпадении
func (s *Store) nextIDLocked() string {
	stamp := s.now().UnixMilli()
	for {
		id := IDPrefix + strconv.FormatInt(stamp, 10)
		if _, exists := s.presets[id]; !exists {
			return id
		}
		stamp++
	}
}

// Get возвращает пресет по id
func (s *Store) Get(id string) (Preset, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, ok := s.presets[id]
	if !ok {
		return Preset{}, false
	}
	return clone(p), true
}

// NameExists проверяет точное совпадение имени с учетом регистра
func (s *Store) NameExists(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, p := range s.presets {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Delete удаляет пресет. Возвращает false, если id не найден.
func (s *Store) Delete(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.presets[id]; !ok {
		return false
	}
	delete(s.presets, id)
	if err := s.persistLocked(); err != nil {
		s.logger.Error("failed to persist presets after delete", "preset", id, "error", err)
	}
	return true
}

// List возвращает пресеты, упорядоченные по id
func (s *Store) List() []Preset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	list := make([]Preset, 0, len(s.presets))
	for _, p := range s.presets {
		list = append(list, clone(p))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// All возвращает копию всей коллекции
func (s *Store) All() map[string]Preset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	all := make(map[string]Preset, len(s.presets))
	for id, p := range s.presets {
		all[id] = clone(p)
	}
	return all
}

// Replace заменяет всю коллекцию и сохраняет ее
func (s *Store) Replace(presets map[string]Preset) error {
	next := make(map[string]Preset, len(presets))
	for id, p := range presets {
		p.ID = id
		p.Sounds = sparse(p.Sounds)
		next[id] = p
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	prev := s.presets
	s.presets = next
	if err := s.persistLocked(); err != nil {
		s.presets = prev
		return err
	}
	return nil
}

// Export сериализует коллекцию в формат хранилища
func (s *Store) Export() ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return Encode(s.presets)
}

func (s *Store) persistLocked() error {
	data, err := Encode(s.presets)
	if err != nil {
		return err
	}
	if err := s.storage.SaveItem(StorageKey, data); err != nil {
		return fmt.Errorf("ошибка сохранения пресетов: %w", err)
	}
	return nil
}

// Encode сериализует коллекцию в JSON вида {id: {name, sounds}}
func Encode(presets map[string]Preset) ([]byte, error) {
	data, err := json.Marshal(presets)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации пресетов: %w", err)
	}
	return data, nil
}

// Decode разбирает JSON коллекции. Громкости вне 1..100 отбрасываются
// или ограничиваются.
func Decode(data []byte) (map[string]Preset, error) {
	var raw map[string]Preset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ошибка разбора пресетов: %w", err)
	}

	presets := make(map[string]Preset, len(raw))
	for id, p := range raw {
		if strings.TrimSpace(id) == "" {
			continue
		}
		p.ID = id
		p.Sounds = sparse(p.Sounds)
		presets[id] = p
	}
	return presets, nil
}

// sparse оставляет только положительные громкости, ограничивая их сверху
func sparse(volumes map[string]int) map[string]int {
	sounds := make(map[string]int)
	for id, vol := range volumes {
		if vol <= 0 {
			continue
		}
		if vol > 100 {
			vol = 100
		}
		sounds[id] = vol
	}
	return sounds
}

func clone(p Preset) Preset {
	sounds := make(map[string]int, len(p.Sounds))
	for id, vol := range p.Sounds {
		sounds[id] = vol
	}
	p.Sounds = sounds
	return p
}

// MemoryStorage хранилище в памяти
type MemoryStorage struct {
	mutex   sync.Mutex
	items   map[string][]byte
	SaveErr error
}

// NewMemoryStorage создает пустое хранилище в памяти
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string][]byte)}
}

func (m *MemoryStorage) LoadItem(itemKey string) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	data, ok := m.items[itemKey]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) SaveItem(itemKey string, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.items[itemKey] = append([]byte(nil), data...)
	return nil
}

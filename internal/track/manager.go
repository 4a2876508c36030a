// Package track содержит реестр доступных звуков, доступный только для чтения
package track

import (
	"fmt"

	"github.com/hazadus/ambient-mixer/internal/catalog"
)

// Manager отдает треки каталога по порядку и по id
type Manager struct {
	tracks []catalog.Track
	byID   map[string]int
}

// NewManager создает новый экземпляр Manager. Набор треков фиксируется
// при создании и дальше не меняется.
func NewManager(c *catalog.Catalog) *Manager {
	tracks := make([]catalog.Track, len(c.Tracks))
	copy(tracks, c.Tracks)

	byID := make(map[string]int, len(tracks))
	for i, t := range tracks {
		byID[t.ID] = i
	}
	return &Manager{tracks: tracks, byID: byID}
}

// ListTracks возвращает список всех треков в порядке каталога
func (m *Manager) ListTracks() []catalog.Track {
	out := make([]catalog.Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// IDs возвращает идентификаторы треков в порядке каталога
func (m *Manager) IDs() []string {
	ids := make([]string, len(m.tracks))
	for i, t := range m.tracks {
		ids[i] = t.ID
	}
	return ids
}

// Has сообщает, известен ли трек
func (m *Manager) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// TrackByID возвращает трек по id
func (m *Manager) TrackByID(id string) (catalog.Track, error) {
	i, ok := m.byID[id]
	if !ok {
		return catalog.Track{}, fmt.Errorf("трека с id %s не найдено", id)
	}
	return m.tracks[i], nil
}

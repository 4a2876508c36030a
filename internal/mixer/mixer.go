// Package mixer содержит контроллер микса: единственный источник истины
// о громкостях треков и общей громкости. Каждая операция оставляет
// согласованными состояние, движок воспроизведения и слой представления.
//
// Методы Mixer не потокобезопасны и вызываются из одного цикла событий.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/preset"
	"github.com/hazadus/ambient-mixer/internal/timer"
	"github.com/hazadus/ambient-mixer/internal/track"
)

const (
	// DefaultMasterVolume общая громкость после запуска и сброса
	DefaultMasterVolume = 100
	// DefaultTrackVolume громкость, подставляемая вместо нулевого ползунка
	DefaultTrackVolume = 50
)

// DuplicatePolicy поведение при сохранении пресета с уже занятым именем
type DuplicatePolicy string

const (
	DuplicateWarn  DuplicatePolicy = "warn"
	DuplicateBlock DuplicatePolicy = "block"
	DuplicateAllow DuplicatePolicy = "allow"
)

// Engine движок воспроизведения, которым управляет микшер
type Engine interface {
	Play(ctx context.Context, trackID string) bool
	Pause(trackID string)
	SetVolume(trackID string, percent int) bool
	PlayAll(ctx context.Context)
	PauseAll()
	StopAll()
	IsPlaying() bool
	SetPlaying(playing bool)
	Refresh() bool
	TrackPlaying(trackID string) bool
	IsLoaded(trackID string) bool
	Loaded() []string
}

// PresetStore хранилище пользовательских пресетов
type PresetStore interface {
	Save(name string, volumes map[string]int) (string, error)
	Get(id string) (preset.Preset, bool)
	NameExists(name string) bool
	Delete(id string) bool
	List() []preset.Preset
}

// Timer таймер обратного отсчета
type Timer interface {
	Start(minutes int)
	Stop()
	State() timer.State
}

// State принадлежащее микшеру состояние микса
type State struct {
	// Volumes громкость каждого известного трека, 0..100
	Volumes map[string]int
	// Intents положение ползунка трека: громкость, которая вернется
	// при включении выключенного трека
	Intents map[string]int
	// Master общая громкость, 0..100
	Master int
	// ActivePreset ключ активного пресета или пустая строка
	ActivePreset string
	ActiveCustom bool
	DarkTheme    bool
}

// Clone возвращает глубокую копию состояния
func (s State) Clone() State {
	c := s
	c.Volumes = make(map[string]int, len(s.Volumes))
	for id, v := range s.Volumes {
		c.Volumes[id] = v
	}
	c.Intents = make(map[string]int, len(s.Intents))
	for id, v := range s.Intents {
		c.Intents[id] = v
	}
	return c
}

// Options параметры микшера
type Options struct {
	DefaultVolume  int
	DuplicateNames DuplicatePolicy
	Builtin        map[string]catalog.BuiltinPreset
}

// Mixer контроллер микса
type Mixer struct {
	tracks    *track.Manager
	engine    Engine
	store     PresetStore
	timer     Timer
	presenter Presenter
	logger    *slog.Logger

	defaultVolume int
	duplicates    DuplicatePolicy
	builtin       map[string]catalog.BuiltinPreset

	state State
}

// New создает микшер. Все треки начинают с нулевой громкостью,
// общая громкость 100.
func New(tracks *track.Manager, engine Engine, store PresetStore, countdown Timer, presenter Presenter, logger *slog.Logger, opts Options) *Mixer {
	if opts.DefaultVolume <= 0 || opts.DefaultVolume > 100 {
		opts.DefaultVolume = DefaultTrackVolume
	}
	if opts.DuplicateNames == "" {
		opts.DuplicateNames = DuplicateWarn
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}

	m := &Mixer{
		tracks:        tracks,
		engine:        engine,
		store:         store,
		timer:         countdown,
		presenter:     presenter,
		logger:        logger,
		defaultVolume: opts.DefaultVolume,
		duplicates:    opts.DuplicateNames,
		builtin:       opts.Builtin,
		state: State{
			Volumes: make(map[string]int),
			Intents: make(map[string]int),
			Master:  DefaultMasterVolume,
		},
	}
	for _, id := range tracks.IDs() {
		m.state.Volumes[id] = 0
		m.state.Intents[id] = 0
	}
	return m
}

// SetPresenter заменяет слой представления
func (m *Mixer) SetPresenter(p Presenter) {
	if p == nil {
		p = NopPresenter{}
	}
	m.presenter = p
}

// State возвращает копию текущего состояния
func (m *Mixer) State() State {
	return m.state.Clone()
}

// Tracks возвращает реестр треков микшера
func (m *Mixer) Tracks() *track.Manager {
	return m.tracks
}

// Builtin возвращает встроенные пресеты
func (m *Mixer) Builtin() map[string]catalog.BuiltinPreset {
	return m.builtin
}

// BuiltinKeys возвращает ключи встроенных пресетов по алфавиту
func (m *Mixer) BuiltinKeys() []string {
	keys := make([]string, 0, len(m.builtin))
	for key := range m.builtin {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CustomPresets возвращает сохраненные пользовательские пресеты
func (m *Mixer) CustomPresets() []preset.Preset {
	return m.store.List()
}

// TimerState возвращает состояние таймера
func (m *Mixer) TimerState() timer.State {
	return m.timer.State()
}

// IsPlaying сообщает, играет ли хотя бы один трек
func (m *Mixer) IsPlaying() bool {
	return m.engine.IsPlaying()
}

// TrackPlaying сообщает фактическое состояние транспорта трека
func (m *Mixer) TrackPlaying(trackID string) bool {
	return m.engine.TrackPlaying(trackID)
}

// Effective возвращает итоговую громкость трека с учетом общей:
// round(vol*master/100) в пределах 0..100
func (m *Mixer) Effective(trackID string) int {
	return effective(m.state.Volumes[trackID], m.state.Master)
}

func effective(volume, master int) int {
	return clamp((volume*master + 50) / 100)
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func (m *Mixer) known(trackID string) bool {
	if m.tracks.Has(trackID) {
		return true
	}
	m.logger.Error("unknown track", "track", trackID)
	return false
}

// showVolume обновляет положение ползунка и его отображение
func (m *Mixer) showVolume(trackID string, volume int) {
	m.state.Intents[trackID] = volume
	m.presenter.UpdateVolumeDisplay(trackID, volume)
}

// pushVolume передает движку итоговую громкость трека
func (m *Mixer) pushVolume(trackID string) {
	m.engine.SetVolume(trackID, m.Effective(trackID))
}

// intentVolume возвращает громкость для включения трека; нулевой
// ползунок заменяется громкостью по умолчанию с обновлением отображения
func (m *Mixer) intentVolume(trackID string) int {
	volume := m.state.Intents[trackID]
	if volume == 0 {
		volume = m.defaultVolume
		m.showVolume(trackID, volume)
	}
	return volume
}

// publishPlaying пересчитывает общий флаг по фактическому транспорту
func (m *Mixer) publishPlaying() {
	m.presenter.UpdateMainPlayButton(m.engine.Refresh())
}

// reconcile приводит кнопки треков к фактическому состоянию транспорта
func (m *Mixer) reconcile(trackIDs []string) {
	for _, id := range trackIDs {
		m.presenter.UpdatePlayButton(id, m.engine.TrackPlaying(id))
	}
}

// ToggleTrack включает выключенный трек и выключает играющий.
// Незагруженный трек не трогает ни состояние, ни отображение.
func (m *Mixer) ToggleTrack(ctx context.Context, trackID string) {
	if !m.known(trackID) {
		return
	}
	if !m.engine.IsLoaded(trackID) {
		m.logger.Error("sound not loaded", "track", trackID)
		return
	}

	if m.engine.TrackPlaying(trackID) {
		m.engine.Pause(trackID)
		m.state.Volumes[trackID] = 0
		m.presenter.UpdatePlayButton(trackID, false)
	} else {
		m.state.Volumes[trackID] = m.intentVolume(trackID)
		m.pushVolume(trackID)
		m.presenter.UpdatePlayButton(trackID, true)

		if !m.engine.Play(ctx, trackID) {
			m.presenter.Notify(NoticeError, fmt.Sprintf("Не удалось воспроизвести звук %s", m.trackName(trackID)))
		}
		m.reconcile([]string{trackID})
	}

	m.publishPlaying()
}

// ToggleAll ставит на паузу все треки, если что-то играет,
// иначе запускает все загруженные треки
func (m *Mixer) ToggleAll(ctx context.Context) {
	if m.engine.IsPlaying() {
		m.engine.PauseAll()
		for _, id := range m.tracks.IDs() {
			m.state.Volumes[id] = 0
			m.showVolume(id, 0)
			m.presenter.UpdatePlayButton(id, false)
		}
		m.publishPlaying()
		return
	}

	loaded := m.engine.Loaded()
	for _, id := range loaded {
		if !m.tracks.Has(id) {
			continue
		}
		m.state.Volumes[id] = m.intentVolume(id)
		m.pushVolume(id)
		m.presenter.UpdatePlayButton(id, true)
	}
	m.presenter.UpdateMainPlayButton(true)

	m.engine.PlayAll(ctx)
	m.reconcile(loaded)
	m.publishPlaying()
}

// SetTrackVolume задает громкость трека, не меняя состояние транспорта
func (m *Mixer) SetTrackVolume(trackID string, volume int) {
	if !m.known(trackID) {
		return
	}
	volume = clamp(volume)

	m.state.Volumes[trackID] = volume
	m.pushVolume(trackID)
	m.showVolume(trackID, volume)
	m.publishPlaying()
}

// SetMasterVolume задает общую громкость и пересчитывает только играющие треки
func (m *Mixer) SetMasterVolume(volume int) {
	m.state.Master = clamp(volume)
	for _, id := range m.tracks.IDs() {
		if m.engine.TrackPlaying(id) {
			m.pushVolume(id)
		}
	}
	m.presenter.UpdateMasterDisplay(m.state.Master)
}

// Reset останавливает все и возвращает микс в исходное состояние
func (m *Mixer) Reset() {
	m.engine.StopAll()
	m.state.Master = DefaultMasterVolume
	m.timer.Stop()
	m.presenter.ResetTimerSelect()

	for _, id := range m.tracks.IDs() {
		m.state.Volumes[id] = 0
		m.state.Intents[id] = 0
	}
	m.state.ActivePreset = ""
	m.state.ActiveCustom = false

	m.presenter.ResetUIToDefaults()
	m.presenter.SetActivePreset("")
	m.presenter.UpdateMasterDisplay(m.state.Master)
	m.presenter.UpdateMainPlayButton(false)
	m.logger.Info("mix reset")
}

// resolvePreset находит пресет среди пользовательских или встроенных
func (m *Mixer) resolvePreset(key string, custom bool) (map[string]int, bool) {
	if custom {
		p, ok := m.store.Get(key)
		return p.Sounds, ok
	}
	p, ok := m.builtin[key]
	return p.Sounds, ok
}

// LoadPreset заменяет текущий микс пресетом и запускает его треки
func (m *Mixer) LoadPreset(ctx context.Context, key string, custom bool) {
	sounds, ok := m.resolvePreset(key, custom)
	if !ok {
		m.logger.Error("preset not found", "preset", key, "custom", custom)
		return
	}

	m.engine.StopAll()
	for _, id := range m.tracks.IDs() {
		m.state.Volumes[id] = 0
		m.showVolume(id, 0)
		m.presenter.UpdatePlayButton(id, false)
	}

	ids := make([]string, 0, len(sounds))
	for id := range sounds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	started := make([]string, 0, len(ids))
	for _, id := range ids {
		if !m.known(id) {
			continue
		}
		volume := clamp(sounds[id])
		m.state.Volumes[id] = volume
		m.showVolume(id, volume)
		m.pushVolume(id)
		m.presenter.UpdatePlayButton(id, true)
		started = append(started, id)
	}

	m.engine.SetPlaying(true)
	m.presenter.UpdateMainPlayButton(true)
	m.state.ActivePreset = key
	m.state.ActiveCustom = custom
	m.presenter.SetActivePreset(key)

	for _, id := range started {
		m.engine.Play(ctx, id)
	}
	m.reconcile(started)
	m.publishPlaying()
	m.logger.Info("preset loaded", "preset", key, "custom", custom, "tracks", len(started))
}

func (m *Mixer) hasActiveSounds() bool {
	for _, v := range m.state.Volumes {
		if v > 0 {
			return true
		}
	}
	return false
}

// RequestSave открывает диалог сохранения, если есть что сохранять
func (m *Mixer) RequestSave() {
	if !m.hasActiveSounds() {
		m.presenter.Notify(NoticeWarning, "Нет активных звуков для пресета")
		return
	}
	m.presenter.ShowSaveModal()
}

// CancelSave закрывает диалог сохранения
func (m *Mixer) CancelSave() {
	m.presenter.HideModal()
}

// SaveCurrentAsPreset сохраняет ненулевые громкости под именем name.
// Возвращает id нового пресета и true при успехе.
func (m *Mixer) SaveCurrentAsPreset(name string) (string, bool) {
	if !m.hasActiveSounds() {
		m.presenter.Notify(NoticeWarning, "Нет активных звуков для пресета")
		return "", false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		m.presenter.Notify(NoticeWarning, "Введите название пресета")
		return "", false
	}

	if m.duplicates != DuplicateAllow && m.store.NameExists(name) {
		message := fmt.Sprintf("Пресет с названием %s уже существует", name)
		if m.duplicates == DuplicateBlock {
			m.presenter.Notify(NoticeError, message)
			return "", false
		}
		m.presenter.Notify(NoticeWarning, message)
	}

	id, err := m.store.Save(name, m.State().Volumes)
	if err != nil {
		if errors.Is(err, preset.ErrNothingToSave) {
			m.presenter.Notify(NoticeWarning, "Нет активных звуков для пресета")
		} else {
			m.logger.Error("failed to save preset", "name", name, "error", err)
			m.presenter.Notify(NoticeError, "Не удалось сохранить пресет")
		}
		return "", false
	}

	m.presenter.HideModal()
	m.presenter.AddCustomPresetEntry(name, id)
	m.logger.Info("preset saved", "preset", id, "name", name)
	return id, true
}

// DeletePreset удаляет пользовательский пресет
func (m *Mixer) DeletePreset(presetID string) bool {
	if !m.store.Delete(presetID) {
		m.logger.Warn("preset to delete not found", "preset", presetID)
		return false
	}

	m.presenter.RemoveCustomPresetEntry(presetID)
	if m.state.ActiveCustom && m.state.ActivePreset == presetID {
		m.state.ActivePreset = ""
		m.state.ActiveCustom = false
		m.presenter.SetActivePreset("")
	}
	m.logger.Info("preset deleted", "preset", presetID)
	return true
}

// SyncPresets сообщает слою представления обо всех сохраненных пресетах
func (m *Mixer) SyncPresets() {
	for _, p := range m.store.List() {
		m.presenter.AddCustomPresetEntry(p.Name, p.ID)
	}
}

// StartTimer запускает таймер; minutes <= 0 выключает его
func (m *Mixer) StartTimer(minutes int) {
	m.timer.Start(minutes)
	if minutes > 0 {
		m.logger.Info("timer started", "minutes", minutes)
	}
}

// TimerTick передает тик таймера слою представления
func (m *Mixer) TimerTick(minutes, seconds int) {
	m.presenter.UpdateTimerDisplay(minutes, seconds)
}

// OnTimerComplete ставит все на паузу по окончании таймера.
// Громкости в состоянии не меняются, меняется только транспорт.
func (m *Mixer) OnTimerComplete() {
	m.engine.PauseAll()
	m.presenter.UpdateMainPlayButton(false)
	for _, id := range m.tracks.IDs() {
		m.presenter.UpdatePlayButton(id, false)
	}
	m.presenter.ResetTimerSelect()
	m.logger.Info("timer completed, playback paused")
}

// ToggleTheme переключает тему оформления
func (m *Mixer) ToggleTheme() {
	m.state.DarkTheme = !m.state.DarkTheme
	m.presenter.ToggleTheme()
}

func (m *Mixer) trackName(trackID string) string {
	t, err := m.tracks.TrackByID(trackID)
	if err != nil {
		return trackID
	}
	return t.Name
}

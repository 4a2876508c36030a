// Package app содержит основную логику TUI приложения
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/tui/board"
	"github.com/hazadus/ambient-mixer/internal/tui/editor"
	"github.com/hazadus/ambient-mixer/internal/tui/presetlist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// BoardScreen - экран микшера
	BoardScreen ScreenType = iota
	// PresetsScreen - экран списка пресетов
	PresetsScreen
	// EditorScreen - диалог сохранения пресета
	EditorScreen
)

// DispatchMsg переносит вызов из другой горутины в цикл Bubble Tea
type DispatchMsg struct {
	Fn func()
}

// MainModel представляет главную модель TUI. Она же служит
// представлением микшера: все вызовы микшера происходят внутри Update.
type MainModel struct {
	mixer         *mixer.Mixer
	currentScreen ScreenType
	boardModel    *board.Model
	presetsModel  *presetlist.Model
	editorModel   *editor.Model
}

// NewMainModel создает главную модель и подключает ее к микшеру
func NewMainModel(m *mixer.Mixer) *MainModel {
	builtin := m.Builtin()
	entries := make([]presetlist.Entry, 0, len(builtin))
	for _, key := range m.BuiltinKeys() {
		entries = append(entries, presetlist.Entry{Key: key, Name: builtin[key].Name})
	}

	model := &MainModel{
		mixer:         m,
		currentScreen: BoardScreen,
		boardModel:    board.NewModel(m.Tracks().ListTracks()),
		presetsModel:  presetlist.NewModel(entries),
	}

	state := m.State()
	for id, v := range state.Intents {
		model.boardModel.SetVolume(id, v)
	}
	for _, id := range m.Tracks().IDs() {
		model.boardModel.SetPlaying(id, m.TrackPlaying(id))
	}
	model.boardModel.SetMaster(state.Master)
	model.boardModel.SetMainPlaying(m.IsPlaying())
	if state.DarkTheme {
		model.boardModel.ToggleTheme()
	}

	m.SetPresenter(model)
	m.SyncPresets()
	model.SetActivePreset(state.ActivePreset)
	return model
}

// Screen возвращает текущий экран
func (m *MainModel) Screen() ScreenType {
	return m.currentScreen
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return m.boardModel.Init()
}

// handle передает событие микшеру
func (m *MainModel) handle(event mixer.Event) {
	m.mixer.Handle(context.Background(), event)
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case DispatchMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		return m, nil

	case board.IntentMsg:
		m.handle(msg.Event)
		return m, m.screenInit()

	case board.ShowPresetsMsg:
		m.currentScreen = PresetsScreen
		return m, nil

	case presetlist.PresetChosenMsg:
		m.currentScreen = BoardScreen
		m.handle(mixer.PresetClick{Key: msg.Key, Custom: msg.Custom})
		return m, nil

	case presetlist.PresetDeleteMsg:
		m.handle(mixer.DeletePresetClick{PresetID: msg.ID})
		return m, nil

	case presetlist.GoBackMsg:
		m.currentScreen = BoardScreen
		return m, nil

	case editor.SaveMsg:
		m.handle(mixer.ConfirmSaveClick{Name: msg.Name})
		return m, nil

	case editor.GoBackMsg:
		m.handle(mixer.CancelSaveClick{})
		return m, nil

	case tea.WindowSizeMsg:
		// Размер нужен обоим постоянным экранам
		var boardCmd, presetsCmd tea.Cmd
		m.boardModel, boardCmd = m.boardModel.Update(msg)
		m.presetsModel, presetsCmd = m.presetsModel.Update(msg)
		return m, tea.Batch(boardCmd, presetsCmd)
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case BoardScreen:
		m.boardModel, cmd = m.boardModel.Update(msg)

	case PresetsScreen:
		m.presetsModel, cmd = m.presetsModel.Update(msg)

	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}

	return m, cmd
}

// screenInit запускает инициализацию только что открытого диалога
func (m *MainModel) screenInit() tea.Cmd {
	if m.currentScreen == EditorScreen && m.editorModel != nil {
		return m.editorModel.Init()
	}
	return nil
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case BoardScreen:
		return m.boardModel.View()

	case PresetsScreen:
		return m.presetsModel.View()

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: диалог сохранения не инициализирован"

	default:
		return "Неизвестный экран"
	}
}

// UpdatePlayButton реализует mixer.Presenter
func (m *MainModel) UpdatePlayButton(trackID string, playing bool) {
	m.boardModel.SetPlaying(trackID, playing)
}

func (m *MainModel) UpdateMainPlayButton(playing bool) {
	m.boardModel.SetMainPlaying(playing)
}

func (m *MainModel) UpdateVolumeDisplay(trackID string, volume int) {
	m.boardModel.SetVolume(trackID, volume)
}

func (m *MainModel) UpdateMasterDisplay(volume int) {
	m.boardModel.SetMaster(volume)
}

func (m *MainModel) UpdateTimerDisplay(minutes, seconds int) {
	m.boardModel.SetTimer(minutes, seconds)
}

func (m *MainModel) ResetTimerSelect() {
	m.boardModel.ResetTimer()
}

func (m *MainModel) SetActivePreset(key string) {
	m.presetsModel.SetActive(key)
	m.boardModel.SetActivePreset(m.presetsModel.ActiveName())
}

func (m *MainModel) AddCustomPresetEntry(name, presetID string) {
	m.presetsModel.Add(name, presetID)
}

func (m *MainModel) RemoveCustomPresetEntry(presetID string) {
	m.presetsModel.Remove(presetID)
	m.boardModel.SetActivePreset(m.presetsModel.ActiveName())
}

// ShowSaveModal открывает диалог сохранения
func (m *MainModel) ShowSaveModal() {
	m.editorModel = editor.NewModel()
	m.currentScreen = EditorScreen
}

// HideModal закрывает диалог и возвращает к микшеру
func (m *MainModel) HideModal() {
	m.editorModel = nil
	if m.currentScreen == EditorScreen {
		m.currentScreen = BoardScreen
	}
}

func (m *MainModel) ResetUIToDefaults() {
	m.boardModel.Reset()
}

func (m *MainModel) ToggleTheme() {
	m.boardModel.ToggleTheme()
}

// Notify показывает уведомление. Пока открыт диалог, ошибки и
// предупреждения дублируются в нем.
func (m *MainModel) Notify(level mixer.NoticeLevel, message string) {
	m.boardModel.SetNotice(level, message)
	if m.currentScreen == EditorScreen && m.editorModel != nil && level != mixer.NoticeInfo {
		m.editorModel.SetError(message)
	}
}

// Package board содержит модель главного экрана микшера для TUI
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/utils"
)

// volumeStep шаг изменения громкости клавишами
const volumeStep = 5

// TimerOptions варианты таймера в минутах, 0 выключает таймер
var TimerOptions = []int{0, 5, 15, 30, 60}

// palette набор стилей одной темы
type palette struct {
	title    lipgloss.Style
	info     lipgloss.Style
	row      lipgloss.Style
	selected lipgloss.Style
	controls lipgloss.Style
	notice   map[mixer.NoticeLevel]lipgloss.Style
}

var (
	lightPalette = palette{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0000ff")).MarginBottom(1),
		info:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		row:      lipgloss.NewStyle().PaddingLeft(2),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("170")),
		controls: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginTop(1),
		notice: map[mixer.NoticeLevel]lipgloss.Style{
			mixer.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
			mixer.NoticeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			mixer.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")).Bold(true),
		},
	}

	darkPalette = palette{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7fc49a")).MarginBottom(1),
		info:     lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa")),
		row:      lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#e6e6e6")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#7fc49a")),
		controls: lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).MarginTop(1),
		notice: map[mixer.NoticeLevel]lipgloss.Style{
			mixer.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7fc49a")),
			mixer.NoticeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b")),
			mixer.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75")).Bold(true),
		},
	}
)

// IntentMsg несет действие пользователя для микшера
type IntentMsg struct {
	Event mixer.Event
}

// ShowPresetsMsg отправляется для перехода к списку пресетов
type ShowPresetsMsg struct{}

// Model представляет модель экрана микшера
type Model struct {
	tracks []catalog.Track
	cursor int

	volumes map[string]int
	playing map[string]bool

	master      int
	mainPlaying bool

	timerIndex   int
	timerMinutes int
	timerSeconds int
	timerVisible bool

	activePreset string

	notice      string
	noticeLevel mixer.NoticeLevel

	dark bool

	bar       progress.Model
	masterBar progress.Model
	width     int
}

// NewModel создает модель экрана для списка треков
func NewModel(tracks []catalog.Track) *Model {
	m := &Model{
		tracks:  tracks,
		volumes: make(map[string]int, len(tracks)),
		playing: make(map[string]bool, len(tracks)),
		master:  mixer.DefaultMasterVolume,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		masterBar: progress.New(
			progress.WithSolidFill("#5b8c6a"),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetPlaying отмечает состояние кнопки трека
func (m *Model) SetPlaying(trackID string, playing bool) {
	m.playing[trackID] = playing
}

// SetMainPlaying отмечает состояние общей кнопки
func (m *Model) SetMainPlaying(playing bool) {
	m.mainPlaying = playing
}

// SetVolume обновляет положение ползунка трека
func (m *Model) SetVolume(trackID string, volume int) {
	m.volumes[trackID] = volume
}

// SetMaster обновляет общую громкость
func (m *Model) SetMaster(volume int) {
	m.master = volume
}

// SetTimer обновляет отображение таймера. Нулевой остаток скрывает его.
func (m *Model) SetTimer(minutes, seconds int) {
	m.timerMinutes = minutes
	m.timerSeconds = seconds
	m.timerVisible = minutes > 0 || seconds > 0
}

// ResetTimer возвращает выбор таймера в положение "выкл."
func (m *Model) ResetTimer() {
	m.timerIndex = 0
	m.timerVisible = false
}

// SetActivePreset задает название активного пресета
func (m *Model) SetActivePreset(name string) {
	m.activePreset = name
}

// SetNotice показывает уведомление в строке статуса
func (m *Model) SetNotice(level mixer.NoticeLevel, message string) {
	m.noticeLevel = level
	m.notice = message
}

// ToggleTheme переключает палитру
func (m *Model) ToggleTheme() {
	m.dark = !m.dark
}

// Dark возвращает true для темной темы
func (m *Model) Dark() bool {
	return m.dark
}

// Reset возвращает отображение к значениям по умолчанию
func (m *Model) Reset() {
	for _, t := range m.tracks {
		m.volumes[t.ID] = 0
		m.playing[t.ID] = false
	}
	m.master = mixer.DefaultMasterVolume
	m.ResetTimer()
}

// Selected возвращает идентификатор трека под курсором
func (m *Model) Selected() string {
	if m.cursor < 0 || m.cursor >= len(m.tracks) {
		return ""
	}
	return m.tracks[m.cursor].ID
}

func intent(event mixer.Event) tea.Cmd {
	return func() tea.Msg {
		return IntentMsg{Event: event}
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		width := msg.Width - 50
		if width < 10 {
			width = 10
		}
		if width > 40 {
			width = 40
		}
		m.bar.Width = width
		m.masterBar.Width = width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.tracks)-1 {
				m.cursor++
			}

		case "enter", "x":
			if id := m.Selected(); id != "" {
				return m, intent(mixer.TrackToggle{TrackID: id})
			}

		case "left", "h":
			if id := m.Selected(); id != "" {
				return m, intent(mixer.SliderChange{TrackID: id, Volume: clampVolume(m.volumes[id] - volumeStep)})
			}

		case "right", "l":
			if id := m.Selected(); id != "" {
				return m, intent(mixer.SliderChange{TrackID: id, Volume: clampVolume(m.volumes[id] + volumeStep)})
			}

		case "-", "[":
			return m, intent(mixer.MasterSliderChange{Volume: clampVolume(m.master - volumeStep)})

		case "+", "=", "]":
			return m, intent(mixer.MasterSliderChange{Volume: clampVolume(m.master + volumeStep)})

		case " ":
			return m, intent(mixer.MasterPlayPauseClick{})

		case "t":
			m.timerIndex = (m.timerIndex + 1) % len(TimerOptions)
			return m, intent(mixer.TimerSelectChange{Minutes: TimerOptions[m.timerIndex]})

		case "r":
			return m, intent(mixer.ResetClick{})

		case "s":
			return m, intent(mixer.SavePresetClick{})

		case "T":
			return m, intent(mixer.ThemeToggleClick{})

		case "p", "tab":
			return m, func() tea.Msg { return ShowPresetsMsg{} }
		}
	}

	return m, nil
}

func (m *Model) styles() palette {
	if m.dark {
		return darkPalette
	}
	return lightPalette
}

func playIcon(playing bool) string {
	if playing {
		return "▶"
	}
	return "⏸"
}

// View отображает модель
func (m *Model) View() string {
	st := m.styles()
	var b strings.Builder

	title := "🎧 Ambient Mixer"
	if m.activePreset != "" {
		title += "  •  " + m.activePreset
	}
	b.WriteString(st.title.Render(title))
	b.WriteString("\n")

	timerText := "Таймер: выкл."
	if TimerOptions[m.timerIndex] > 0 {
		timerText = fmt.Sprintf("Таймер: %d мин", TimerOptions[m.timerIndex])
	}
	if m.timerVisible {
		timerText += "  ⏳ " + utils.FormatCountdown(m.timerMinutes, m.timerSeconds)
	}

	b.WriteString(st.info.Render(fmt.Sprintf("%s Общая громкость  ", playIcon(m.mainPlaying))))
	b.WriteString(m.masterBar.ViewAs(float64(m.master) / 100))
	b.WriteString(" " + utils.FormatPercent(m.master))
	b.WriteString("\n")
	b.WriteString(st.info.Render(timerText))
	b.WriteString("\n\n")

	for i, t := range m.tracks {
		volume := m.volumes[t.ID]
		label := fmt.Sprintf("%s %-2s %-20s", playIcon(m.playing[t.ID]), t.Icon, utils.TruncateString(t.Name, 20))
		line := label + " " + m.bar.ViewAs(float64(volume)/100) + " " + utils.FormatPercent(volume)
		if i == m.cursor {
			b.WriteString(st.selected.Render("> " + label))
			b.WriteString(" " + m.bar.ViewAs(float64(volume)/100) + " " + utils.FormatPercent(volume))
		} else {
			b.WriteString(st.row.Render(line))
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(st.notice[m.noticeLevel].Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(st.controls.Render(
		"↑/↓: выбор • Enter: вкл/выкл • ←/→: громкость • -/+: общая • Пробел: все\n" +
			"t: таймер • p: пресеты • s: сохранить • r: сброс • T: тема • q: выход",
	))
	return b.String()
}

package board

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/mixer"
)

func testTracks() []catalog.Track {
	return []catalog.Track{
		{ID: "rain", Name: "Дождь", Icon: "🌧"},
		{ID: "fire", Name: "Камин", Icon: "🔥"},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// intentOf выполняет команду и возвращает событие микшера
func intentOf(t *testing.T, cmd tea.Cmd) mixer.Event {
	t.Helper()
	if cmd == nil {
		t.Fatal("Ожидалась команда")
	}
	msg, ok := cmd().(IntentMsg)
	if !ok {
		t.Fatalf("Ожидалось IntentMsg, получено %T", cmd())
	}
	return msg.Event
}

func TestKeysProduceIntents(t *testing.T) {
	m := NewModel(testTracks())
	m.SetVolume("rain", 50)
	m.SetVolume("fire", 100)

	tests := []struct {
		keys     []string
		expected mixer.Event
	}{
		{[]string{"enter"}, mixer.TrackToggle{TrackID: "rain"}},
		{[]string{"right"}, mixer.SliderChange{TrackID: "rain", Volume: 55}},
		{[]string{"left"}, mixer.SliderChange{TrackID: "rain", Volume: 45}},
		{[]string{"down", "right"}, mixer.SliderChange{TrackID: "fire", Volume: 100}},
		{[]string{"x"}, mixer.TrackToggle{TrackID: "fire"}},
		{[]string{"up", "-"}, mixer.MasterSliderChange{Volume: 95}},
		{[]string{"+"}, mixer.MasterSliderChange{Volume: 100}},
		{[]string{" "}, mixer.MasterPlayPauseClick{}},
		{[]string{"r"}, mixer.ResetClick{}},
		{[]string{"s"}, mixer.SavePresetClick{}},
		{[]string{"T"}, mixer.ThemeToggleClick{}},
	}

	for _, test := range tests {
		var cmd tea.Cmd
		for _, k := range test.keys {
			m, cmd = m.Update(key(k))
		}
		if got := intentOf(t, cmd); got != test.expected {
			t.Errorf("Клавиши %v: получено %#v; expected %#v", test.keys, got, test.expected)
		}
	}
}

func TestTimerCycle(t *testing.T) {
	m := NewModel(testTracks())

	for _, minutes := range []int{5, 15, 30, 60, 0} {
		var cmd tea.Cmd
		m, cmd = m.Update(key("t"))
		if got := intentOf(t, cmd); got != (mixer.TimerSelectChange{Minutes: minutes}) {
			t.Errorf("Ожидался таймер %d, получено %#v", minutes, got)
		}
	}

	m.Update(key("t"))
	m.SetTimer(4, 59)
	if !strings.Contains(m.View(), "04:59") {
		t.Error("Остаток таймера должен отображаться")
	}

	m.ResetTimer()
	if m.timerIndex != 0 || m.timerVisible {
		t.Error("ResetTimer должен вернуть выбор в положение выкл.")
	}
	if !strings.Contains(m.View(), "Таймер: выкл.") {
		t.Error("После сброса таймер должен быть выключен")
	}
}

func TestShowPresets(t *testing.T) {
	m := NewModel(testTracks())
	_, cmd := m.Update(key("p"))
	if cmd == nil {
		t.Fatal("Ожидалась команда")
	}
	if _, ok := cmd().(ShowPresetsMsg); !ok {
		t.Error("Ожидалось ShowPresetsMsg")
	}
}

func TestCursorBounds(t *testing.T) {
	m := NewModel(testTracks())
	m.Update(key("up"))
	if m.Selected() != "rain" {
		t.Errorf("Курсор не должен уходить выше первого трека: %s", m.Selected())
	}
	m.Update(key("down"))
	m.Update(key("down"))
	if m.Selected() != "fire" {
		t.Errorf("Курсор не должен уходить ниже последнего трека: %s", m.Selected())
	}

	empty := NewModel(nil)
	if _, cmd := empty.Update(key("enter")); cmd != nil {
		t.Error("Без треков переключение не должно порождать команду")
	}
}

func TestResetAndView(t *testing.T) {
	m := NewModel(testTracks())
	m.SetVolume("rain", 70)
	m.SetPlaying("rain", true)
	m.SetMaster(40)
	m.SetActivePreset("Фокус")
	m.SetNotice(mixer.NoticeWarning, "Нет активных звуков для пресета")

	view := m.View()
	for _, want := range []string{"Дождь", "Камин", " 70%", " 40%", "Фокус", "Нет активных звуков"} {
		if !strings.Contains(view, want) {
			t.Errorf("Вид должен содержать %q", want)
		}
	}

	m.Reset()
	if m.volumes["rain"] != 0 || m.playing["rain"] || m.master != mixer.DefaultMasterVolume {
		t.Error("Reset должен вернуть значения по умолчанию")
	}

	m.ToggleTheme()
	if !m.Dark() {
		t.Error("Тема должна стать темной")
	}
}

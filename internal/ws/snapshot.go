package ws

import (
	"github.com/hazadus/ambient-mixer/internal/mixer"
)

// TrackView трек в снимке микса
type TrackView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon,omitempty"`
	Volume  int    `json:"volume"`
	Slider  int    `json:"slider"`
	Playing bool   `json:"playing"`
}

// PresetView пресет в снимке микса
type PresetView struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

// Snapshot полное состояние микса для "state_init"
type Snapshot struct {
	Tracks       []TrackView  `json:"tracks"`
	Master       int          `json:"master"`
	Playing      bool         `json:"playing"`
	ActivePreset string       `json:"active_preset"`
	Presets      []PresetView `json:"presets"`
	Timer        timerData    `json:"timer"`
	TimerRunning bool         `json:"timer_running"`
	DarkTheme    bool         `json:"dark_theme"`
}

// NewSnapshot снимает состояние микшера. Вызывается из цикла владельца микшера.
func NewSnapshot(m *mixer.Mixer) Snapshot {
	state := m.State()
	timerState := m.TimerState()

	snap := Snapshot{
		Master:       state.Master,
		Playing:      m.IsPlaying(),
		ActivePreset: state.ActivePreset,
		Timer:        timerData{Minutes: timerState.Minutes(), Seconds: timerState.Seconds()},
		TimerRunning: timerState.Running,
		DarkTheme:    state.DarkTheme,
	}

	for _, t := range m.Tracks().ListTracks() {
		snap.Tracks = append(snap.Tracks, TrackView{
			ID:      t.ID,
			Name:    t.Name,
			Icon:    t.Icon,
			Volume:  state.Volumes[t.ID],
			Slider:  state.Intents[t.ID],
			Playing: m.TrackPlaying(t.ID),
		})
	}

	builtin := m.Builtin()
	for _, key := range m.BuiltinKeys() {
		snap.Presets = append(snap.Presets, PresetView{Key: key, Name: builtin[key].Name})
	}
	for _, p := range m.CustomPresets() {
		snap.Presets = append(snap.Presets, PresetView{Key: p.ID, Name: p.Name, Custom: true})
	}
	return snap
}

package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hazadus/ambient-mixer/internal/mixer"
)

// Типы исходящих сообщений
const (
	TypeStateInit      = "state_init"
	TypePlayButton     = "play_button"
	TypeMainPlayButton = "main_play_button"
	TypeVolume         = "volume"
	TypeMaster         = "master"
	TypeTimer          = "timer"
	TypeTimerReset     = "timer_reset"
	TypeActivePreset   = "active_preset"
	TypePresetAdded    = "preset_added"
	TypePresetRemoved  = "preset_removed"
	TypeShowSaveModal  = "show_save_modal"
	TypeHideModal      = "hide_modal"
	TypeResetUI        = "reset_ui"
	TypeToggleTheme    = "toggle_theme"
	TypeNotice         = "notice"
)

type playButtonData struct {
	TrackID string `json:"track_id"`
	Playing bool   `json:"playing"`
}

type playingData struct {
	Playing bool `json:"playing"`
}

type volumeData struct {
	TrackID string `json:"track_id"`
	Volume  int    `json:"volume"`
}

type masterData struct {
	Volume int `json:"volume"`
}

type timerData struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type activePresetData struct {
	Key string `json:"key"`
}

type presetEntryData struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type noticeData struct {
	Level   mixer.NoticeLevel `json:"level"`
	Message string            `json:"message"`
}

// Broadcaster принимает готовые кадры для рассылки
type Broadcaster interface {
	BroadcastBytes(msg []byte)
}

// Presenter транслирует вызовы микшера всем браузерным клиентам
type Presenter struct {
	out    Broadcaster
	logger *slog.Logger
	now    func() time.Time
}

// NewPresenter создает слой представления поверх хаба
func NewPresenter(out Broadcaster, logger *slog.Logger) *Presenter {
	return &Presenter{
		out:    out,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *Presenter) emit(msgType string, data any) {
	msg, err := encode(msgType, p.now(), data)
	if err != nil {
		p.logger.Warn("ws marshal failed", "type", msgType, "error", err)
		return
	}
	p.out.BroadcastBytes(msg)
}

func encode(msgType string, ts time.Time, data any) ([]byte, error) {
	return json.Marshal(envelope{Type: msgType, Ts: &ts, Data: data})
}

func (p *Presenter) UpdatePlayButton(trackID string, playing bool) {
	p.emit(TypePlayButton, playButtonData{TrackID: trackID, Playing: playing})
}

func (p *Presenter) UpdateMainPlayButton(playing bool) {
	p.emit(TypeMainPlayButton, playingData{Playing: playing})
}

func (p *Presenter) UpdateVolumeDisplay(trackID string, volume int) {
	p.emit(TypeVolume, volumeData{TrackID: trackID, Volume: volume})
}

func (p *Presenter) UpdateMasterDisplay(volume int) {
	p.emit(TypeMaster, masterData{Volume: volume})
}

func (p *Presenter) UpdateTimerDisplay(minutes, seconds int) {
	p.emit(TypeTimer, timerData{Minutes: minutes, Seconds: seconds})
}

func (p *Presenter) ResetTimerSelect() {
	p.emit(TypeTimerReset, nil)
}

func (p *Presenter) SetActivePreset(key string) {
	p.emit(TypeActivePreset, activePresetData{Key: key})
}

func (p *Presenter) AddCustomPresetEntry(name, presetID string) {
	p.emit(TypePresetAdded, presetEntryData{ID: presetID, Name: name})
}

func (p *Presenter) RemoveCustomPresetEntry(presetID string) {
	p.emit(TypePresetRemoved, presetEntryData{ID: presetID})
}

func (p *Presenter) ShowSaveModal() {
	p.emit(TypeShowSaveModal, nil)
}

func (p *Presenter) HideModal() {
	p.emit(TypeHideModal, nil)
}

func (p *Presenter) ResetUIToDefaults() {
	p.emit(TypeResetUI, nil)
}

func (p *Presenter) ToggleTheme() {
	p.emit(TypeToggleTheme, nil)
}

func (p *Presenter) Notify(level mixer.NoticeLevel, message string) {
	p.emit(TypeNotice, noticeData{Level: level, Message: message})
}

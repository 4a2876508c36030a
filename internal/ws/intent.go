package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hazadus/ambient-mixer/internal/mixer"
)

// Типы входящих сообщений
const (
	IntentTrackToggle     = "track_toggle"
	IntentSliderChange    = "slider_change"
	IntentMasterSlider    = "master_slider_change"
	IntentMasterPlayPause = "master_play_pause"
	IntentPresetClick     = "preset_click"
	IntentDeletePreset    = "delete_preset"
	IntentSavePreset      = "save_preset"
	IntentConfirmSave     = "confirm_save"
	IntentCancelSave      = "cancel_save"
	IntentReset           = "reset"
	IntentTimerSelect     = "timer_select"
	IntentThemeToggle     = "theme_toggle"
)

// ErrUnknownIntent неизвестный тип входящего сообщения
var ErrUnknownIntent = errors.New("неизвестный тип сообщения")

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type intentData struct {
	TrackID  string `json:"track_id"`
	Volume   *int   `json:"volume"`
	Key      string `json:"key"`
	Custom   bool   `json:"custom"`
	PresetID string `json:"preset_id"`
	Name     string `json:"name"`
	Minutes  int    `json:"minutes"`
}

// ParseIntent разбирает входящий конверт в событие микшера
func ParseIntent(raw []byte) (mixer.Event, error) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("ошибка разбора сообщения: %w", err)
	}

	var data intentData
	if len(msg.Data) > 0 && string(msg.Data) != "null" {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, fmt.Errorf("ошибка разбора данных %s: %w", msg.Type, err)
		}
	}

	switch msg.Type {
	case IntentTrackToggle:
		if data.TrackID == "" {
			return nil, fmt.Errorf("%s: отсутствует track_id", msg.Type)
		}
		return mixer.TrackToggle{TrackID: data.TrackID}, nil
	case IntentSliderChange:
		if data.TrackID == "" || data.Volume == nil {
			return nil, fmt.Errorf("%s: требуются track_id и volume", msg.Type)
		}
		return mixer.SliderChange{TrackID: data.TrackID, Volume: *data.Volume}, nil
	case IntentMasterSlider:
		if data.Volume == nil {
			return nil, fmt.Errorf("%s: отсутствует volume", msg.Type)
		}
		return mixer.MasterSliderChange{Volume: *data.Volume}, nil
	case IntentMasterPlayPause:
		return mixer.MasterPlayPauseClick{}, nil
	case IntentPresetClick:
		if data.Key == "" {
			return nil, fmt.Errorf("%s: отсутствует key", msg.Type)
		}
		return mixer.PresetClick{Key: data.Key, Custom: data.Custom}, nil
	case IntentDeletePreset:
		if data.PresetID == "" {
			return nil, fmt.Errorf("%s: отсутствует preset_id", msg.Type)
		}
		return mixer.DeletePresetClick{PresetID: data.PresetID}, nil
	case IntentSavePreset:
		return mixer.SavePresetClick{}, nil
	case IntentConfirmSave:
		return mixer.ConfirmSaveClick{Name: data.Name}, nil
	case IntentCancelSave:
		return mixer.CancelSaveClick{}, nil
	case IntentReset:
		return mixer.ResetClick{}, nil
	case IntentTimerSelect:
		return mixer.TimerSelectChange{Minutes: data.Minutes}, nil
	case IntentThemeToggle:
		return mixer.ThemeToggleClick{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, msg.Type)
	}
}

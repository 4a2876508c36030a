package mixer

import "context"

// Event намерение пользователя, пришедшее из слоя представления
type Event interface {
	isEvent()
}

type (
	// TrackToggle включение или выключение трека
	TrackToggle struct{ TrackID string }
	// SliderChange перемещение ползунка громкости трека
	SliderChange struct {
		TrackID string
		Volume  int
	}
	// MasterSliderChange перемещение общего ползунка
	MasterSliderChange struct{ Volume int }
	// MasterPlayPauseClick общая кнопка воспроизведения
	MasterPlayPauseClick struct{}
	// PresetClick выбор встроенного или пользовательского пресета
	PresetClick struct {
		Key    string
		Custom bool
	}
	// DeletePresetClick удаление пользовательского пресета
	DeletePresetClick struct{ PresetID string }
	// SavePresetClick запрос диалога сохранения
	SavePresetClick struct{}
	// ConfirmSaveClick подтверждение сохранения с введенным именем
	ConfirmSaveClick struct{ Name string }
	// CancelSaveClick отмена диалога сохранения
	CancelSaveClick struct{}
	// ResetClick сброс всего микса
	ResetClick struct{}
	// TimerSelectChange выбор длительности таймера; 0 выключает
	TimerSelectChange struct{ Minutes int }
	// ThemeToggleClick переключение темы
	ThemeToggleClick struct{}
)

func (TrackToggle) isEvent()          {}
func (SliderChange) isEvent()         {}
func (MasterSliderChange) isEvent()   {}
func (MasterPlayPauseClick) isEvent() {}
func (PresetClick) isEvent()          {}
func (DeletePresetClick) isEvent()    {}
func (SavePresetClick) isEvent()      {}
func (ConfirmSaveClick) isEvent()     {}
func (CancelSaveClick) isEvent()      {}
func (ResetClick) isEvent()           {}
func (TimerSelectChange) isEvent()    {}
func (ThemeToggleClick) isEvent()     {}

// Handle направляет событие соответствующей операции микшера
func (m *Mixer) Handle(ctx context.Context, event Event) {
	switch e := event.(type) {
	case TrackToggle:
		m.ToggleTrack(ctx, e.TrackID)
	case SliderChange:
		m.SetTrackVolume(e.TrackID, e.Volume)
	case MasterSliderChange:
		m.SetMasterVolume(e.Volume)
	case MasterPlayPauseClick:
		m.ToggleAll(ctx)
	case PresetClick:
		m.LoadPreset(ctx, e.Key, e.Custom)
	case DeletePresetClick:
		m.DeletePreset(e.PresetID)
	case SavePresetClick:
		m.RequestSave()
	case ConfirmSaveClick:
		m.SaveCurrentAsPreset(e.Name)
	case CancelSaveClick:
		m.CancelSave()
	case ResetClick:
		m.Reset()
	case TimerSelectChange:
		m.StartTimer(e.Minutes)
	case ThemeToggleClick:
		m.ToggleTheme()
	default:
		m.logger.Warn("unknown event", "event", event)
	}
}

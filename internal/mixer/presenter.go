package mixer

// NoticeLevel важность уведомления для пользователя
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Presenter слой представления, который микшер уведомляет об изменениях
type Presenter interface {
	UpdatePlayButton(trackID string, playing bool)
	UpdateMainPlayButton(playing bool)
	UpdateVolumeDisplay(trackID string, volume int)
	UpdateMasterDisplay(volume int)
	UpdateTimerDisplay(minutes, seconds int)
	ResetTimerSelect()
	// SetActivePreset отмечает активный пресет; пустой ключ снимает отметку
	SetActivePreset(key string)
	AddCustomPresetEntry(name, presetID string)
	RemoveCustomPresetEntry(presetID string)
	ShowSaveModal()
	HideModal()
	ResetUIToDefaults()
	ToggleTheme()
	Notify(level NoticeLevel, message string)
}

// Presenters рассылает каждый вызов всем вложенным слоям представления
type Presenters []Presenter

func (ps Presenters) UpdatePlayButton(trackID string, playing bool) {
	for _, p := range ps {
		p.UpdatePlayButton(trackID, playing)
	}
}

func (ps Presenters) UpdateMainPlayButton(playing bool) {
	for _, p := range ps {
		p.UpdateMainPlayButton(playing)
	}
}

func (ps Presenters) UpdateVolumeDisplay(trackID string, volume int) {
	for _, p := range ps {
		p.UpdateVolumeDisplay(trackID, volume)
	}
}

func (ps Presenters) UpdateMasterDisplay(volume int) {
	for _, p := range ps {
		p.UpdateMasterDisplay(volume)
	}
}

func (ps Presenters) UpdateTimerDisplay(minutes, seconds int) {
	for _, p := range ps {
		p.UpdateTimerDisplay(minutes, seconds)
	}
}

func (ps Presenters) ResetTimerSelect() {
	for _, p := range ps {
		p.ResetTimerSelect()
	}
}

func (ps Presenters) SetActivePreset(key string) {
	for _, p := range ps {
		p.SetActivePreset(key)
	}
}

func (ps Presenters) AddCustomPresetEntry(name, presetID string) {
	for _, p := range ps {
		p.AddCustomPresetEntry(name, presetID)
	}
}

func (ps Presenters) RemoveCustomPresetEntry(presetID string) {
	for _, p := range ps {
		p.RemoveCustomPresetEntry(presetID)
	}
}

func (ps Presenters) ShowSaveModal() {
	for _, p := range ps {
		p.ShowSaveModal()
	}
}

func (ps Presenters) HideModal() {
	for _, p := range ps {
		p.HideModal()
	}
}

func (ps Presenters) ResetUIToDefaults() {
	for _, p := range ps {
		p.ResetUIToDefaults()
	}
}

func (ps Presenters) ToggleTheme() {
	for _, p := range ps {
		p.ToggleTheme()
	}
}

func (ps Presenters) Notify(level NoticeLevel, message string) {
	for _, p := range ps {
		p.Notify(level, message)
	}
}

// NopPresenter ничего не отображает. Удобен для встраивания,
// когда слою нужна только часть вызовов.
type NopPresenter struct{}

func (NopPresenter) UpdatePlayButton(string, bool)       {}
func (NopPresenter) UpdateMainPlayButton(bool)           {}
func (NopPresenter) UpdateVolumeDisplay(string, int)     {}
func (NopPresenter) UpdateMasterDisplay(int)             {}
func (NopPresenter) UpdateTimerDisplay(int, int)         {}
func (NopPresenter) ResetTimerSelect()                   {}
func (NopPresenter) SetActivePreset(string)              {}
func (NopPresenter) AddCustomPresetEntry(string, string) {}
func (NopPresenter) RemoveCustomPresetEntry(string)      {}
func (NopPresenter) ShowSaveModal()                      {}
func (NopPresenter) HideModal()                          {}
func (NopPresenter) ResetUIToDefaults()                  {}
func (NopPresenter) ToggleTheme()                        {}
func (NopPresenter) Notify(NoticeLevel, string)          {}

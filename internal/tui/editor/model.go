// Package editor содержит модель диалога сохранения пресета для TUI
package editor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxNameLength предельная длина названия пресета
const maxNameLength = 40

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// SaveMsg отправляется при подтверждении сохранения
type SaveMsg struct {
	Name string
}

// GoBackMsg отправляется при отмене сохранения
type GoBackMsg struct{}

// Model представляет модель диалога сохранения пресета
type Model struct {
	input textinput.Model
	err   string
}

// NewModel создает диалог с пустым полем названия
func NewModel() *Model {
	input := textinput.New()
	input.Placeholder = "Введите название пресета"
	input.CharLimit = maxNameLength
	input.Width = maxNameLength
	input.PromptStyle = focusedStyle
	input.TextStyle = focusedStyle
	input.Focus()

	return &Model{input: input}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetError показывает ошибку под полем ввода
func (m *Model) SetError(message string) {
	m.err = message
}

// Value возвращает введенное название
func (m *Model) Value() string {
	return m.input.Value()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "enter", "ctrl+s":
			name := m.input.Value()
			return m, func() tea.Msg { return SaveMsg{Name: name} }
		}
		m.err = ""
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	view := titleStyle.Render("💾 Сохранение пресета") + "\n"
	view += fmt.Sprintf("%s %s\n", labelStyle.Render("Название:"), m.input.View())

	if m.err != "" {
		view += errorStyle.Render("❌ "+m.err) + "\n"
	}

	view += footerStyle.Render("Enter: сохранить • esc: отмена")
	return view
}

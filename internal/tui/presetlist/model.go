// Package presetlist содержит модель экрана списка пресетов для TUI
package presetlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hazadus/ambient-mixer/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// PresetChosenMsg отправляется при выборе пресета для загрузки
type PresetChosenMsg struct {
	Key    string
	Custom bool
}

// PresetDeleteMsg отправляется при удалении пользовательского пресета
type PresetDeleteMsg struct {
	ID string
}

// GoBackMsg отправляется для возврата к микшеру
type GoBackMsg struct{}

// Entry пресет в списке
type Entry struct {
	Key    string
	Name   string
	Custom bool
}

// presetItem реализует интерфейс list.Item для пресета
type presetItem struct {
	entry  Entry
	active bool
}

func (i presetItem) FilterValue() string {
	return i.entry.Name
}

// presetItemDelegate реализует отображение элементов списка
type presetItemDelegate struct{}

func (d presetItemDelegate) Height() int                             { return 1 }
func (d presetItemDelegate) Spacing() int                            { return 0 }
func (d presetItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d presetItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(presetItem)
	if !ok {
		return
	}

	mark := " "
	if i.active {
		mark = "★"
	}
	kind := "встроенный"
	if i.entry.Custom {
		kind = "свой"
	}
	str := fmt.Sprintf("%s %-30s %s", mark, utils.TruncateString(i.entry.Name, 30), kind)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана списка пресетов
type Model struct {
	list    list.Model
	entries []Entry
	active  string
}

// NewModel создает модель списка. Встроенные пресеты идут первыми.
func NewModel(entries []Entry) *Model {
	l := list.New(nil, presetItemDelegate{}, 0, 0)
	l.Title = "Пресеты"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{
		list:    l,
		entries: append([]Entry(nil), entries...),
	}
	m.refresh()
	return m
}

// refresh пересобирает элементы списка
func (m *Model) refresh() {
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = presetItem{entry: e, active: e.Key == m.active}
	}
	m.list.SetItems(items)
}

// Entries возвращает текущие записи
func (m *Model) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Add добавляет пользовательский пресет в конец списка
func (m *Model) Add(name, presetID string) {
	for _, e := range m.entries {
		if e.Key == presetID {
			return
		}
	}
	m.entries = append(m.entries, Entry{Key: presetID, Name: name, Custom: true})
	m.refresh()
}

// Remove убирает пользовательский пресет из списка
func (m *Model) Remove(presetID string) {
	for i, e := range m.entries {
		if e.Key == presetID && e.Custom {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			m.refresh()
			return
		}
	}
}

// SetActive отмечает активный пресет, пустой ключ снимает отметку
func (m *Model) SetActive(key string) {
	m.active = key
	m.refresh()
}

// ActiveName возвращает название активного пресета
func (m *Model) ActiveName() string {
	for _, e := range m.entries {
		if e.Key == m.active {
			return e.Name
		}
	}
	return ""
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) selected() (Entry, bool) {
	item, ok := m.list.SelectedItem().(presetItem)
	if !ok {
		return Entry{}, false
	}
	return item.entry, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		// во время ввода фильтра клавиши принадлежат списку
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "esc", "tab":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "enter":
			if e, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return PresetChosenMsg{Key: e.Key, Custom: e.Custom}
				}
			}

		case "d", "delete":
			if e, ok := m.selected(); ok && e.Custom {
				return m, func() tea.Msg {
					return PresetDeleteMsg{ID: e.Key}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	view := m.list.View()
	extraHelp := helpStyle.Render("Enter: загрузить • d: удалить свой • esc: назад к микшеру")
	return view + "\n" + extraHelp
}

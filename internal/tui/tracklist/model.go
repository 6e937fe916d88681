// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/tunelocal/internal/library"
	tuiPlayer "github.com/hazadus/tunelocal/internal/tui/player"
	"github.com/hazadus/tunelocal/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	playingItemStyle  = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("42")).Bold(true)
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	emptyTitleStyle   = lipgloss.NewStyle().Bold(true).Margin(1, 0, 0, 4)
	emptyHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(4)
	confirmStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).PaddingLeft(4)
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

const nameWidth = 40

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	ID int
}

// TrackDeleteMsg отправляется при удалении трека
type TrackDeleteMsg struct {
	ID int
}

// ClearLibraryMsg отправляется после подтверждения очистки библиотеки
type ClearLibraryMsg struct{}

// ImportMsg отправляется для перехода к добавлению файлов
type ImportMsg struct{}

// OpenPlayerMsg отправляется для перехода к экрану плеера
type OpenPlayerMsg struct{}

// trackItem реализует интерфейс list.Item для строки библиотеки
type trackItem struct {
	entry library.Entry
}

func (i trackItem) FilterValue() string {
	return i.entry.Name
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	fmt.Fprint(w, renderItem(i.entry, index == m.Index()))
}

// renderItem форматирует строку в виде таблицы: № | Название | Размер | Дата
func renderItem(e library.Entry, selected bool) string {
	marker := "  "
	if e.Playing {
		marker = "♪ "
	}
	str := fmt.Sprintf("%s%3d. %s %10s  %s",
		marker,
		e.Number,
		utils.PadRight(e.Name, nameWidth),
		e.Size,
		e.Added)

	switch {
	case selected:
		return selectedItemStyle.Render("> " + str)
	case e.Playing:
		return playingItemStyle.Render(str)
	default:
		return itemStyle.Render(str)
	}
}

// Model представляет модель экрана списка треков
type Model struct {
	list         list.Model
	view         library.View
	confirmClear bool
	quitting     bool
}

// NewModel создает новую модель списка треков
func NewModel(view library.View) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{list: l}
	m.SetView(view)
	return m
}

// SetView обновляет данные модели без пересоздания
func (m *Model) SetView(view library.View) {
	m.view = view

	items := make([]list.Item, len(view.Entries))
	for i, e := range view.Entries {
		items[i] = trackItem{entry: e}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Библиотека (%d)", view.Count)
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// selectedID возвращает ID выбранного трека
func (m *Model) selectedID() (int, bool) {
	item, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return 0, false
	}
	return item.entry.ID, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Оставляем место для уведомлений и справки
		return m, nil

	case tea.KeyMsg:
		// Во время ввода фильтра клавиши обрабатывает список
		if m.list.FilterState() == list.Filtering {
			break
		}

		key := msg.String()

		if m.confirmClear {
			m.confirmClear = false
			if key == "y" {
				return m, send(ClearLibraryMsg{})
			}
			return m, nil
		}

		switch key {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if id, ok := m.selectedID(); ok {
				return m, send(TrackSelectedMsg{ID: id})
			}
			return m, nil

		case "d", "delete":
			if id, ok := m.selectedID(); ok {
				return m, send(TrackDeleteMsg{ID: id})
			}
			return m, nil

		case "c":
			if !m.view.Empty {
				m.confirmClear = true
			}
			return m, nil

		case "a":
			return m, send(ImportMsg{})

		case "tab":
			return m, send(OpenPlayerMsg{})
		}

		if control, ok := tuiPlayer.KeyControl(key); ok {
			return m, send(tuiPlayer.ControlMsg{Control: control})
		}
	}

	// Обновляем список
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	help := helpStyle.Render("Enter: воспроизвести • d: удалить • c: очистить • a: добавить • tab: плеер • q: выход\n" +
		tuiPlayer.ControlHelp)

	if m.view.Empty {
		return strings.Join([]string{
			emptyTitleStyle.Render("🎵 " + m.view.EmptyTitle),
			emptyHintStyle.Render(m.view.EmptyHint),
			"",
			help,
		}, "\n")
	}

	view := m.list.View()
	if m.confirmClear {
		view += "\n" + confirmStyle.Render(fmt.Sprintf("Удалить все треки (%d)? y: да, любая клавиша: отмена", m.view.Count))
	}
	return view + "\n" + help
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

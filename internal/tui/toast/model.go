// Package toast содержит неблокирующие уведомления для TUI
package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultDuration - время показа уведомления
const DefaultDuration = 3 * time.Second

// Kind - вид уведомления
type Kind int

const (
	Info Kind = iota
	Success
	Error
)

var (
	baseStyle = lipgloss.NewStyle().
			Padding(0, 1).
			MarginLeft(2).
			Border(lipgloss.RoundedBorder())

	kindStyles = map[Kind]lipgloss.Style{
		Info:    baseStyle.BorderForeground(lipgloss.Color("63")),
		Success: baseStyle.BorderForeground(lipgloss.Color("42")).Foreground(lipgloss.Color("42")),
		Error:   baseStyle.BorderForeground(lipgloss.Color("196")).Foreground(lipgloss.Color("196")),
	}

	kindIcons = map[Kind]string{
		Info:    "ℹ️ ",
		Success: "✅ ",
		Error:   "❌ ",
	}
)

// DismissMsg скрывает уведомление с указанным номером
type DismissMsg struct {
	ID int
}

// Model хранит текущее уведомление
type Model struct {
	id       int
	kind     Kind
	text     string
	visible  bool
	duration time.Duration
}

// New создает модель уведомлений
func New() Model {
	return Model{duration: DefaultDuration}
}

// Show показывает уведомление и возвращает команду, которая скроет его
func (m *Model) Show(kind Kind, text string) tea.Cmd {
	m.id++
	m.kind = kind
	m.text = text
	m.visible = true

	id := m.id
	return tea.Tick(m.duration, func(time.Time) tea.Msg {
		return DismissMsg{ID: id}
	})
}

// Update скрывает уведомление по таймеру. Устаревшие таймеры игнорируются.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.ID == m.id {
		m.visible = false
	}
	return m
}

// Visible возвращает true, если уведомление показано
func (m Model) Visible() bool {
	return m.visible
}

// Text возвращает текст текущего уведомления
func (m Model) Text() string {
	return m.text
}

// Kind возвращает вид текущего уведомления
func (m Model) Kind() Kind {
	return m.kind
}

func (m Model) View() string {
	if !m.visible {
		return ""
	}
	return kindStyles[m.kind].Render(kindIcons[m.kind] + m.text)
}

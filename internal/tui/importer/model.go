// Package importer содержит модель экрана добавления файлов в библиотеку для TUI
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/tunelocal/internal/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
)

// SubmitMsg отправляется со списком файлов для импорта
type SubmitMsg struct {
	Paths []string
}

// GoBackMsg отправляется при отмене добавления
type GoBackMsg struct{}

// Model представляет модель экрана добавления файлов
type Model struct {
	input textinput.Model
	err   string
}

// NewModel создает новую модель экрана добавления
func NewModel() *Model {
	input := textinput.New()
	input.Placeholder = "~/Music/song.mp3" + string(filepath.ListSeparator) + "~/Music/album"
	input.Focus()
	input.PromptStyle = focusedStyle
	input.TextStyle = focusedStyle

	return &Model{input: input}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "enter":
			paths, err := ExpandPaths(m.input.Value())
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.err = ""
			return m, func() tea.Msg {
				return SubmitMsg{Paths: paths}
			}
		}

	case tea.WindowSizeMsg:
		m.input.Width = max(10, msg.Width-20)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Добавление файлов"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Пути к файлам или каталогам через %q:", string(filepath.ListSeparator))))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: добавить • Esc: отмена"))
	return b.String()
}

// ExpandPaths разбирает введенную строку в список файлов.
// Каталоги раскрываются в отсортированный список файлов верхнего уровня.
func ExpandPaths(value string) ([]string, error) {
	var paths []string
	for _, raw := range filepath.SplitList(value) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		path, err := config.ExpandHome(raw)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("файл не найден: %s", raw)
		}
		if !info.IsDir() {
			paths = append(paths, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения каталога %s: %w", raw, err)
		}
		var files []string
		for _, e := range entries {
			if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(files)
		paths = append(paths, files...)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("не указано ни одного файла")
	}
	return paths, nil
}

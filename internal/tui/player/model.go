// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/playback"
	"github.com/hazadus/tunelocal/internal/player"
	"github.com/hazadus/tunelocal/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	flagOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	flagOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

// Control - команда управления воспроизведением
type Control int

const (
	ControlTogglePause Control = iota
	ControlNext
	ControlPrevious
	ControlShuffle
	ControlRepeat
	ControlStop
)

// ControlMsg отправляется при нажатии клавиши управления воспроизведением
type ControlMsg struct {
	Control Control
}

// KeyControl сопоставляет клавишу команде управления
func KeyControl(key string) (Control, bool) {
	switch key {
	case " ":
		return ControlTogglePause, true
	case "n":
		return ControlNext, true
	case "p":
		return ControlPrevious, true
	case "s":
		return ControlShuffle, true
	case "r":
		return ControlRepeat, true
	case "x":
		return ControlStop, true
	}
	return 0, false
}

// ControlHelp - подсказка по клавишам управления
const ControlHelp = "Пробел: пауза • n/p: следующий/предыдущий • s: перемешать • r: повтор • x: стоп"

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// ProgressMsg содержит обновления прогресса воспроизведения
type ProgressMsg struct {
	Status player.Status
}

// PlaybackFinishedMsg отправляется при завершении трека
type PlaybackFinishedMsg struct{}

// Model представляет модель экрана воспроизведения
type Model struct {
	snapshot    playback.Snapshot
	progressBar progress.Model
	status      player.Status
	width       int
	height      int
}

// NewModel создает новую модель экрана плеера
func NewModel() *Model {
	// Создаем прогресс-бар
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		snapshot:    playback.Snapshot{CurrentIndex: -1},
		progressBar: prog,
	}
}

// SetSnapshot обновляет отображаемое состояние воспроизведения
func (m *Model) SetSnapshot(s playback.Snapshot) {
	if s.CurrentID() != m.snapshot.CurrentID() {
		// Новый трек: прогресс начинается с нуля
		m.status = player.Status{}
		m.progressBar.SetPercent(0)
	}
	m.snapshot = s
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Обновляем ширину прогресс-бара
		m.progressBar.Width = max(10, min(60, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "esc" {
			return m, func() tea.Msg {
				return GoBackMsg{}
			}
		}
		if control, ok := KeyControl(key); ok {
			return m, func() tea.Msg {
				return ControlMsg{Control: control}
			}
		}

	case ProgressMsg:
		// Обновляем статус и прогресс-бар
		m.status = msg.Status

		var percent float64
		if msg.Status.Total > 0 {
			percent = float64(msg.Status.Current) / float64(msg.Status.Total)
		}
		return m, m.progressBar.SetPercent(percent)

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View отображает модель
func (m *Model) View() string {
	title := titleStyle.Render("🎵 Воспроизведение")

	np := library.NowPlaying(m.snapshot.NowPlaying)
	trackInfo := trackInfoStyle.Render(fmt.Sprintf("🎤 %s\n💾 %s", np.Title, np.Subtitle))

	statusText := statusStyle.Render(formatStatus(m.snapshot.State))

	flags := strings.Join([]string{
		formatFlag("🔀 Перемешивание", m.snapshot.Shuffle),
		formatFlag("🔁 Повтор", m.snapshot.Repeat),
	}, "   ")

	var position string
	if m.snapshot.CurrentIndex >= 0 {
		position = fmt.Sprintf("Трек %d из %d", m.snapshot.CurrentIndex+1, len(m.snapshot.Playlist))
	}

	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatDuration(m.status.Current),
		utils.FormatDuration(m.status.Total),
	)

	controls := controlsStyle.Render(ControlHelp + " • q/esc: назад к списку")

	return fmt.Sprintf(
		"%s\n\n%s\n%s\n%s\n\n%s\n%s\n\n%s",
		title,
		trackInfo,
		statusText,
		flags,
		m.progressBar.View(),
		strings.TrimSpace(timeText+"   "+position),
		controls,
	)
}

// Вспомогательные функции

func formatStatus(state playback.State) string {
	switch state {
	case playback.StatePlaying:
		return "▶️ Воспроизведение"
	case playback.StatePaused:
		return "⏸️ Пауза"
	default:
		return "⏹️ Остановлено"
	}
}

func formatFlag(label string, on bool) string {
	if on {
		return flagOnStyle.Render(label + ": вкл")
	}
	return flagOffStyle.Render(label + ": выкл")
}

// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/playback"
	"github.com/hazadus/tunelocal/internal/player"
	"github.com/hazadus/tunelocal/internal/track"
	"github.com/hazadus/tunelocal/internal/tui/importer"
	tuiPlayer "github.com/hazadus/tunelocal/internal/tui/player"
	"github.com/hazadus/tunelocal/internal/tui/toast"
	"github.com/hazadus/tunelocal/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран списка треков
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран плеера
	PlayerScreen
	// ImporterScreen - экран добавления файлов
	ImporterScreen
)

// Engine - аудио движок с каналами обратной связи
type Engine interface {
	playback.Engine
	Progress() <-chan player.Status
	Done() <-chan bool
	Close() error
}

// libraryChangedMsg приходит после завершения операции с библиотекой или воспроизведением
type libraryChangedMsg struct {
	notice     string
	err        error
	openPlayer bool
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctx            context.Context
	manager        *track.Manager
	controller     *playback.Controller
	engine         Engine
	logger         *zap.Logger
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	importerModel  *importer.Model // Создается при переходе к добавлению файлов
	toast          toast.Model
	width          int
	height         int
}

// NewMainModel создает новую главную модель
func NewMainModel(ctx context.Context, manager *track.Manager, engine Engine, logger *zap.Logger, opts ...playback.Option) *MainModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]playback.Option{playback.WithLogger(logger)}, opts...)

	return &MainModel{
		ctx:            ctx,
		manager:        manager,
		controller:     playback.New(manager.Store(), engine, opts...),
		engine:         engine,
		logger:         logger,
		currentScreen:  TracklistScreen,
		tracklistModel: tracklist.NewModel(library.Build(nil, -1)),
		playerModel:    tuiPlayer.NewModel(),
		toast:          toast.New(),
	}
}

// Controller возвращает контроллер воспроизведения
func (m *MainModel) Controller() *playback.Controller {
	return m.controller
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		m.listenForPlayer(),
	)
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		if msg.String() == "ctrl+c" {
			m.controller.Stop()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tracklistModel, _ = m.tracklistModel.Update(msg)
		m.playerModel, _ = m.playerModel.Update(msg)
		if m.importerModel != nil {
			m.importerModel, _ = m.importerModel.Update(msg)
		}
		return m, nil

	case libraryChangedMsg:
		return m, m.handleResult(msg)

	case toast.DismissMsg:
		m.toast = m.toast.Update(msg)
		return m, nil

	case tracklist.TrackSelectedMsg:
		return m, m.run(func(ctx context.Context) (string, error) {
			return "", m.controller.Play(ctx, msg.ID)
		}, true)

	case tracklist.TrackDeleteMsg:
		return m, m.run(func(ctx context.Context) (string, error) {
			if err := m.manager.RemoveTrack(ctx, msg.ID); err != nil {
				return "", err
			}
			return "Трек удален", m.controller.HandleRemoved(ctx, msg.ID)
		}, false)

	case tracklist.ClearLibraryMsg:
		return m, m.run(func(ctx context.Context) (string, error) {
			if err := m.manager.Clear(ctx); err != nil {
				return "", err
			}
			m.controller.HandleCleared()
			return "Библиотека очищена", nil
		}, false)

	case tracklist.ImportMsg:
		m.currentScreen = ImporterScreen
		m.importerModel = importer.NewModel()
		if m.width > 0 {
			m.importerModel, _ = m.importerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m, m.importerModel.Init()

	case tracklist.OpenPlayerMsg:
		m.currentScreen = PlayerScreen
		return m, nil

	case importer.SubmitMsg:
		m.currentScreen = TracklistScreen
		m.importerModel = nil
		return m, m.importFiles(msg.Paths)

	case importer.GoBackMsg, tuiPlayer.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.importerModel = nil
		return m, nil

	case tuiPlayer.ControlMsg:
		return m, m.handleControl(msg.Control)

	case tuiPlayer.ProgressMsg:
		var cmd tea.Cmd
		m.playerModel, cmd = m.playerModel.Update(msg)
		return m, tea.Batch(cmd, m.listenForPlayer())

	case tuiPlayer.PlaybackFinishedMsg:
		return m, tea.Batch(
			m.run(func(ctx context.Context) (string, error) {
				return "", m.controller.TrackEnded(ctx)
			}, false),
			m.listenForPlayer(),
		)

	case progress.FrameMsg:
		// Анимация прогресс-бара идет и тогда, когда экран плеера скрыт
		var cmd tea.Cmd
		m.playerModel, cmd = m.playerModel.Update(msg)
		return m, cmd
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case TracklistScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	case PlayerScreen:
		m.playerModel, cmd = m.playerModel.Update(msg)
	case ImporterScreen:
		if m.importerModel != nil {
			m.importerModel, cmd = m.importerModel.Update(msg)
		}
	}
	return m, cmd
}

// handleControl выполняет команду управления воспроизведением
func (m *MainModel) handleControl(control tuiPlayer.Control) tea.Cmd {
	switch control {
	case tuiPlayer.ControlTogglePause:
		m.controller.TogglePause()
	case tuiPlayer.ControlNext:
		return m.run(func(ctx context.Context) (string, error) {
			return "", m.controller.Advance(ctx)
		}, false)
	case tuiPlayer.ControlPrevious:
		return m.run(func(ctx context.Context) (string, error) {
			return "", m.controller.Previous(ctx)
		}, false)
	case tuiPlayer.ControlShuffle:
		on := m.controller.ToggleShuffle()
		m.applySnapshot()
		return m.toast.Show(toast.Info, "Перемешивание: "+onOff(on))
	case tuiPlayer.ControlRepeat:
		on := m.controller.ToggleRepeat()
		m.applySnapshot()
		return m.toast.Show(toast.Info, "Повтор: "+onOff(on))
	case tuiPlayer.ControlStop:
		m.controller.Stop()
	}
	m.applySnapshot()
	return nil
}

// handleResult обновляет экраны после операции и показывает уведомление
func (m *MainModel) handleResult(msg libraryChangedMsg) tea.Cmd {
	m.applySnapshot()

	if msg.err != nil {
		m.logger.Warn("операция не выполнена", zap.Error(msg.err))
		return m.toast.Show(toast.Error, msg.err.Error())
	}
	if msg.openPlayer {
		m.currentScreen = PlayerScreen
	}
	if msg.notice != "" {
		return m.toast.Show(toast.Success, msg.notice)
	}
	return nil
}

// applySnapshot перерисовывает экраны по текущему состоянию контроллера
func (m *MainModel) applySnapshot() {
	snap := m.controller.Snapshot()
	m.tracklistModel.SetView(library.Build(snap.Playlist, snap.CurrentIndex))
	m.playerModel.SetSnapshot(snap)
}

// run выполняет операцию вне UI горутины и возвращает результат сообщением
func (m *MainModel) run(op func(ctx context.Context) (string, error), openPlayer bool) tea.Cmd {
	return func() tea.Msg {
		notice, err := op(m.ctx)
		return libraryChangedMsg{notice: notice, err: err, openPlayer: openPlayer && err == nil}
	}
}

// refresh перечитывает библиотеку
func (m *MainModel) refresh() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		return "", m.controller.Refresh(ctx)
	}, false)
}

// importFiles добавляет файлы и обновляет плейлист
func (m *MainModel) importFiles(paths []string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		results := m.manager.Import(ctx, paths...)
		if err := m.controller.Refresh(ctx); err != nil {
			return "", err
		}

		added := track.Succeeded(results)
		if added == 0 {
			return "", fmt.Errorf("файлы не добавлены: %w", results[0].Err)
		}
		return fmt.Sprintf("Добавлено треков: %d из %d", added, len(results)), nil
	}, false)
}

// listenForPlayer слушает обновления прогресса и завершение трека
func (m *MainModel) listenForPlayer() tea.Cmd {
	return func() tea.Msg {
		select {
		case status, ok := <-m.engine.Progress():
			if !ok {
				return nil
			}
			return tuiPlayer.ProgressMsg{Status: status}

		case _, ok := <-m.engine.Done():
			if !ok {
				return nil
			}
			return tuiPlayer.PlaybackFinishedMsg{}
		}
	}
}

// View отображает интерфейс
func (m *MainModel) View() string {
	var view string
	switch m.currentScreen {
	case TracklistScreen:
		view = m.tracklistModel.View()
	case PlayerScreen:
		view = m.playerModel.View()
	case ImporterScreen:
		if m.importerModel != nil {
			view = m.importerModel.View()
		} else {
			view = "Ошибка: модель добавления не инициализирована"
		}
	default:
		view = "Неизвестный экран"
	}

	if m.toast.Visible() {
		view += "\n" + m.toast.View()
	}
	return view
}

// Close закрывает ресурсы главной модели
func (m *MainModel) Close() {
	m.controller.Stop()
	if m.engine != nil {
		m.engine.Close()
	}
}

func onOff(on bool) string {
	if on {
		return "вкл"
	}
	return "выкл"
}

// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/player"
	"github.com/hazadus/tunelocal/internal/track"
	"github.com/hazadus/tunelocal/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	manager *track.Manager
	logger  *zap.Logger
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(manager *track.Manager, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		manager: manager,
		logger:  logger,
	}
}

// Run запускает TUI приложение и блокируется до выхода пользователя
func (tuiApp *App) Run(ctx context.Context) error {
	// Создаем модель для Bubble Tea
	model := app.NewMainModel(ctx, tuiApp.manager, player.NewPlayer(), tuiApp.logger)

	// Создаем программу Bubble Tea
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Запускаем программу
	_, err := p.Run()

	// Закрываем плеер после завершения программы
	model.Close()

	return err
}

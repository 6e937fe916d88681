package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/config"
	"github.com/hazadus/tunelocal/internal/logger"
	"github.com/hazadus/tunelocal/internal/store"
	"github.com/hazadus/tunelocal/internal/track"
)

// Файлы с переменными окружения, которые читаются перед конфигурацией
var envFiles = []string{".env", "~/.tunelocal.env"}

// Application содержит зависимости, общие для всех команд
type Application struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   store.Store
	Manager *track.Manager
}

// NewApplication открывает библиотеку согласно конфигурации
func NewApplication(cfg *config.Config, log *zap.Logger) (*Application, error) {
	st, err := store.Open(store.Config{
		Backend: cfg.LibraryBackend,
		Path:    cfg.LibraryPath,
	}, store.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия библиотеки: %w", err)
	}

	return &Application{
		Config:  cfg,
		Logger:  log,
		Store:   st,
		Manager: track.NewManager(st, log),
	}, nil
}

// Close освобождает ресурсы приложения
func (app *Application) Close() error {
	return app.Store.Close()
}

func main() {
	// Контекст отменяется по Ctrl+C и SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return fmt.Errorf("ошибка загрузки .env: %w", err)
	}

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(config.DefaultPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      logger.Level(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	if err != nil {
		return fmt.Errorf("ошибка настройки логирования: %w", err)
	}
	defer log.Sync()

	app, err := NewApplication(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	log.Debug("приложение запущено",
		zap.String("backend", cfg.LibraryBackend),
		zap.String("library", cfg.LibraryPath))

	return app.createRootCommand(ctx).ExecuteContext(ctx)
}

// Package store содержит хранилище треков офлайн-библиотеки
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/data"
)

// Поддерживаемые бэкенды хранилища
const (
	BackendSQLite = "sqlite"
	BackendYAML   = "yaml"
)

// Store хранит треки с автоматически присваиваемыми ID.
// Все операции атомарны и выполняются по одной.
type Store interface {
	// Add проверяет данные, сохраняет трек и возвращает его новый ID
	Add(ctx context.Context, in data.TrackInput) (int, error)
	// List возвращает все треки в порядке добавления
	List(ctx context.Context) ([]data.Track, error)
	// ListSorted возвращает все треки в указанном порядке
	ListSorted(ctx context.Context, sortBy data.SortBy) ([]data.Track, error)
	Get(ctx context.Context, id int) (*data.Track, error)
	// Remove удаляет трек. Остановка воспроизведения - забота вызывающего.
	Remove(ctx context.Context, id int) error
	Clear(ctx context.Context) error
	Close() error
}

// Config описывает, какое хранилище открыть
type Config struct {
	Backend string
	Path    string
}

type options struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option настраивает хранилище
type Option func(*options)

// WithClock задает источник времени для даты добавления
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger задает логгер хранилища
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open открывает хранилище согласно конфигурации
func Open(cfg Config, opts ...Option) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("не указан путь к библиотеке")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, &data.StoreError{Op: "open", Err: err}
	}

	switch cfg.Backend {
	case "", BackendSQLite:
		return OpenSQLite(cfg.Path, opts...)
	case BackendYAML:
		return OpenYAML(cfg.Path, opts...)
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", cfg.Backend)
	}
}

func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &data.StoreError{Op: op, Err: err}
	}
	return nil
}

// Package track содержит логику управления треками библиотеки
package track

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hazadus/tunelocal/internal/data"
	"github.com/hazadus/tunelocal/internal/metadata"
	"github.com/hazadus/tunelocal/internal/store"
)

// maxParallelReads ограничивает число одновременно читаемых файлов
const maxParallelReads = 4

// ImportResult - результат импорта одного файла
type ImportResult struct {
	Path     string
	ID       int
	MimeType string
	Tags     metadata.TrackMetadata
	Err      error
}

// Manager управляет треками в приложении
type Manager struct {
	store     store.Store
	extractor *metadata.Extractor
	logger    *zap.Logger
}

// NewManager создает новый экземпляр Manager
func NewManager(s store.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:     s,
		extractor: metadata.NewExtractor(),
		logger:    logger,
	}
}

// Store возвращает хранилище, с которым работает менеджер
func (m *Manager) Store() store.Store {
	return m.store
}

// Import добавляет файлы в библиотеку. Файлы читаются параллельно,
// а добавляются по одному в порядке аргументов. Ошибка одного файла
// не прерывает импорт остальных.
func (m *Manager) Import(ctx context.Context, paths ...string) []ImportResult {
	results := make([]ImportResult, len(paths))
	payloads := make([][]byte, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			payload, err := os.ReadFile(path)
			if err != nil {
				results[i].Err = fmt.Errorf("ошибка чтения файла: %w", err)
				return nil
			}
			payloads[i] = payload
			return nil
		})
	}
	// Горутины не возвращают ошибок: они сохраняются в результатах
	_ = g.Wait()

	for i := range results {
		if results[i].Err != nil {
			m.logger.Warn("файл не прочитан", zap.String("path", paths[i]), zap.Error(results[i].Err))
			continue
		}
		result := m.ImportPayload(ctx, filepath.Base(paths[i]), payloads[i])
		result.Path = paths[i]
		results[i] = result
	}
	return results
}

// ImportPayload добавляет в библиотеку уже загруженное содержимое файла
func (m *Manager) ImportPayload(ctx context.Context, fileName string, payload []byte) ImportResult {
	result := ImportResult{
		Path:     fileName,
		MimeType: m.extractor.DetectMimeType(payload, fileName),
	}

	id, err := m.store.Add(ctx, data.TrackInput{
		FileName: fileName,
		MimeType: result.MimeType,
		Payload:  payload,
		Size:     int64(len(payload)),
	})
	if err != nil {
		result.Err = err
		m.logger.Warn("трек не добавлен",
			zap.String("file", fileName),
			zap.String("mime", result.MimeType),
			zap.Error(err))
		return result
	}

	result.ID = id
	result.Tags = m.extractor.ExtractFromPayload(payload, fileName)
	m.logger.Info("трек добавлен",
		zap.Int("id", id),
		zap.String("file", fileName),
		zap.Int("size", len(payload)))
	return result
}

// ListTracks возвращает список всех треков в заданном порядке
func (m *Manager) ListTracks(ctx context.Context, sortBy data.SortBy) ([]data.Track, error) {
	return m.store.ListSorted(ctx, sortBy)
}

// GetTrack возвращает трек по ID
func (m *Manager) GetTrack(ctx context.Context, id int) (*data.Track, error) {
	return m.store.Get(ctx, id)
}

// RemoveTrack удаляет трек по ID
func (m *Manager) RemoveTrack(ctx context.Context, id int) error {
	if err := m.store.Remove(ctx, id); err != nil {
		return err
	}
	m.logger.Info("трек удален", zap.Int("id", id))
	return nil
}

// Clear удаляет все треки
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.logger.Info("библиотека очищена")
	return nil
}

// Succeeded возвращает число успешно импортированных файлов
func Succeeded(results []ImportResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

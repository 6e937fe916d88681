package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/tunelocal/internal/data"
)

// yamlTrack - запись трека в файле данных
type yamlTrack struct {
	ID        int       `yaml:"id"`
	Name      string    `yaml:"name"`
	FileName  string    `yaml:"file_name"`
	MimeType  string    `yaml:"mime_type"`
	Size      int64     `yaml:"size"`      // Размер файла в байтах
	Payload   string    `yaml:"payload"`   // Содержимое файла в base64
	DateAdded time.Time `yaml:"date_added"`
}

// catalog - содержимое файла данных
type catalog struct {
	NextID int         `yaml:"next_id"` // Следующий свободный ID, не уменьшается
	Tracks []yamlTrack `yaml:"tracks"`
}

// YAMLStore хранит треки в одном YAML файле.
// Каждое изменение записывается во временный файл и атомарно переименовывается.
type YAMLStore struct {
	mu      sync.Mutex
	path    string
	catalog catalog
	now     func() time.Time
	logger  *zap.Logger
}

// OpenYAML загружает файл данных или начинает с пустой библиотеки
func OpenYAML(path string, opts ...Option) (*YAMLStore, error) {
	o := buildOptions(opts)
	s := &YAMLStore{
		path:   path,
		now:    o.now,
		logger: o.logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load загружает данные из файла
func (s *YAMLStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		// Если файл не найден, инициализируем пустыми данными
		if os.IsNotExist(err) {
			s.catalog = newCatalog()
			return nil
		}
		return &data.StoreError{Op: "load", Err: fmt.Errorf("ошибка чтения файла данных: %w", err)}
	}
	if len(raw) == 0 {
		s.catalog = newCatalog()
		return nil
	}

	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return &data.StoreError{Op: "load", Err: fmt.Errorf("ошибка разбора данных: %w", err)}
	}
	// Файлы без next_id: продолжаем после максимального ID
	for _, t := range c.Tracks {
		if t.ID >= c.NextID {
			c.NextID = t.ID + 1
		}
	}
	if c.NextID < 1 {
		c.NextID = 1
	}
	if c.Tracks == nil {
		c.Tracks = make([]yamlTrack, 0)
	}
	s.catalog = c
	return nil
}

func newCatalog() catalog {
	return catalog{NextID: 1, Tracks: make([]yamlTrack, 0)}
}

// save записывает каталог во временный файл и заменяет им файл данных
func (s *YAMLStore) save(c catalog) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ошибка сериализации данных: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // после Rename файла уже нет

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("ошибка замены файла данных: %w", err)
	}
	return nil
}

// Add добавляет трек и присваивает ему следующий ID
func (s *YAMLStore) Add(ctx context.Context, in data.TrackInput) (int, error) {
	track, err := data.NewTrack(in, s.now())
	if err != nil {
		return 0, err
	}
	if err := checkContext(ctx, "add"); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	track.ID = s.catalog.NextID
	next := catalog{
		NextID: track.ID + 1,
		Tracks: append(cloneRecords(s.catalog.Tracks), toRecord(track)),
	}
	if err := s.save(next); err != nil {
		return 0, &data.StoreError{Op: "add", Err: err}
	}
	s.catalog = next

	s.logger.Info("трек добавлен",
		zap.Int("id", track.ID),
		zap.String("file", track.FileName),
		zap.Int64("size", track.Size))
	return track.ID, nil
}

// List возвращает треки в порядке добавления
func (s *YAMLStore) List(ctx context.Context) ([]data.Track, error) {
	return s.ListSorted(ctx, data.SortByID)
}

// ListSorted возвращает треки в указанном порядке
func (s *YAMLStore) ListSorted(ctx context.Context, sortBy data.SortBy) ([]data.Track, error) {
	if err := checkContext(ctx, "list"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tracks := make([]data.Track, 0, len(s.catalog.Tracks))
	for _, r := range s.catalog.Tracks {
		track, err := fromRecord(r)
		if err != nil {
			return nil, &data.StoreError{Op: "list", Err: err}
		}
		tracks = append(tracks, *track)
	}

	switch sortBy {
	case data.SortByName:
		sort.SliceStable(tracks, func(i, j int) bool {
			return strings.ToLower(tracks[i].Name) < strings.ToLower(tracks[j].Name)
		})
	case data.SortByDateAdded:
		sort.SliceStable(tracks, func(i, j int) bool {
			return tracks[i].DateAdded.Before(tracks[j].DateAdded)
		})
	}
	return tracks, nil
}

// Get возвращает трек по ID
func (s *YAMLStore) Get(ctx context.Context, id int) (*data.Track, error) {
	if err := checkContext(ctx, "get"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.catalog.Tracks {
		if r.ID == id {
			track, err := fromRecord(r)
			if err != nil {
				return nil, &data.StoreError{Op: "get", Err: err}
			}
			return track, nil
		}
	}
	return nil, &data.NotFoundError{ID: id}
}

// Remove удаляет трек по ID
func (s *YAMLStore) Remove(ctx context.Context, id int) error {
	if err := checkContext(ctx, "remove"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := make([]yamlTrack, 0, len(s.catalog.Tracks))
	found := false
	for _, r := range s.catalog.Tracks {
		if r.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, r)
	}
	if !found {
		return &data.NotFoundError{ID: id}
	}

	next := catalog{NextID: s.catalog.NextID, Tracks: remaining}
	if err := s.save(next); err != nil {
		return &data.StoreError{Op: "remove", Err: err}
	}
	s.catalog = next

	s.logger.Info("трек удален", zap.Int("id", id))
	return nil
}

// Clear удаляет все треки, сохраняя счетчик ID
func (s *YAMLStore) Clear(ctx context.Context) error {
	if err := checkContext(ctx, "clear"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := catalog{NextID: s.catalog.NextID, Tracks: make([]yamlTrack, 0)}
	if err := s.save(next); err != nil {
		return &data.StoreError{Op: "clear", Err: err}
	}
	s.catalog = next

	s.logger.Info("библиотека очищена")
	return nil
}

// Close ничего не делает: данные уже записаны
func (s *YAMLStore) Close() error {
	return nil
}

func toRecord(t *data.Track) yamlTrack {
	return yamlTrack{
		ID:        t.ID,
		Name:      t.Name,
		FileName:  t.FileName,
		MimeType:  t.MimeType,
		Size:      t.Size,
		Payload:   base64.StdEncoding.EncodeToString(t.Payload),
		DateAdded: t.DateAdded,
	}
}

func fromRecord(r yamlTrack) (*data.Track, error) {
	payload, err := base64.StdEncoding.DecodeString(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("поврежденное содержимое трека %d: %w", r.ID, err)
	}
	return &data.Track{
		ID:        r.ID,
		Name:      r.Name,
		FileName:  r.FileName,
		MimeType:  r.MimeType,
		Size:      r.Size,
		Payload:   payload,
		DateAdded: r.DateAdded.UTC(),
	}, nil
}

func cloneRecords(records []yamlTrack) []yamlTrack {
	out := make([]yamlTrack, len(records), len(records)+1)
	copy(out, records)
	return out
}

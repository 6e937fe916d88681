package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hazadus/tunelocal/internal/data"
)

// dateLayout - ISO 8601 с фиксированной точностью, чтобы строки сортировались как время
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	file_name TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size INTEGER NOT NULL,
	payload BLOB NOT NULL,
	date_added TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tracks_name ON tracks(name);
CREATE INDEX IF NOT EXISTS idx_tracks_date_added ON tracks(date_added);
`

const selectTracks = `SELECT id, name, file_name, mime_type, size, payload, date_added FROM tracks`

// SQLiteStore хранит треки в базе SQLite
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// OpenSQLite открывает (или создает) базу треков
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &data.StoreError{Op: "open", Err: err}
	}
	// Один писатель за раз
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &data.StoreError{Op: "init schema", Err: err}
	}

	o.logger.Debug("хранилище SQLite открыто", zap.String("path", path))

	return &SQLiteStore{
		db:     db,
		now:    o.now,
		logger: o.logger,
	}, nil
}

// withTx выполняет fn в транзакции: Rollback при ошибке, Commit при успехе
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // после Commit откат ничего не делает

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Add сохраняет новый трек
func (s *SQLiteStore) Add(ctx context.Context, in data.TrackInput) (int, error) {
	track, err := data.NewTrack(in, s.now())
	if err != nil {
		return 0, err
	}
	if err := checkContext(ctx, "add"); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (name, file_name, mime_type, size, payload, date_added) VALUES (?, ?, ?, ?, ?, ?)`,
			track.Name, track.FileName, track.MimeType, track.Size, track.Payload,
			track.DateAdded.Format(dateLayout),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &data.StoreError{Op: "add", Err: err}
	}

	s.logger.Info("трек добавлен",
		zap.Int64("id", id),
		zap.String("file", track.FileName),
		zap.Int64("size", track.Size))
	return int(id), nil
}

// List возвращает треки в порядке добавления
func (s *SQLiteStore) List(ctx context.Context) ([]data.Track, error) {
	return s.ListSorted(ctx, data.SortByID)
}

// ListSorted возвращает треки, упорядоченные по одному из индексов
func (s *SQLiteStore) ListSorted(ctx context.Context, sortBy data.SortBy) ([]data.Track, error) {
	var order string
	switch sortBy {
	case data.SortByName:
		order = " ORDER BY name COLLATE NOCASE, id"
	case data.SortByDateAdded:
		order = " ORDER BY date_added, id"
	default:
		order = " ORDER BY id"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, selectTracks+order)
	if err != nil {
		return nil, &data.StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	tracks := make([]data.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, &data.StoreError{Op: "list", Err: err}
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, &data.StoreError{Op: "list", Err: err}
	}
	return tracks, nil
}

// Get возвращает трек по ID
func (s *SQLiteStore) Get(ctx context.Context, id int) (*data.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, selectTracks+" WHERE id = ?", id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &data.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &data.StoreError{Op: "get", Err: err}
	}
	return track, nil
}

// Remove удаляет трек по ID
func (s *SQLiteStore) Remove(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return &data.StoreError{Op: "remove", Err: err}
	}
	if affected == 0 {
		return &data.NotFoundError{ID: id}
	}

	s.logger.Info("трек удален", zap.Int("id", id))
	return nil
}

// Clear удаляет все треки. Счетчик ID не сбрасывается.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM tracks`)
		return err
	})
	if err != nil {
		return &data.StoreError{Op: "clear", Err: err}
	}

	s.logger.Info("библиотека очищена")
	return nil
}

// Close закрывает базу
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*data.Track, error) {
	var (
		track     data.Track
		dateAdded string
	)
	if err := row.Scan(
		&track.ID, &track.Name, &track.FileName, &track.MimeType,
		&track.Size, &track.Payload, &dateAdded,
	); err != nil {
		return nil, err
	}

	added, err := time.Parse(dateLayout, dateAdded)
	if err != nil {
		return nil, fmt.Errorf("некорректная дата добавления %q: %w", dateAdded, err)
	}
	track.DateAdded = added.UTC()
	return &track, nil
}

// Package backup сохраняет треки библиотеки в объектное хранилище и восстанавливает их
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/data"
	"github.com/hazadus/tunelocal/internal/s3"
	"github.com/hazadus/tunelocal/internal/track"
)

// KeyPrefix - общий префикс ключей резервных копий
const KeyPrefix = "tracks/"

// Ключи метаданных объекта
const (
	metaTrackName = "track-name"
	metaFileName  = "file-name"
	metaTrackID   = "track-id"
)

// Storage - объектное хранилище резервных копий
type Storage interface {
	UploadFile(ctx context.Context, reader io.Reader, key, contentType string, metadata map[string]string) (string, error)
	DownloadFile(ctx context.Context, key string) (*s3.Object, error)
	ListFiles(ctx context.Context, prefix string) ([]s3.ObjectInfo, error)
	DeleteFile(ctx context.Context, key string) error
}

// Library - локальная библиотека, из которой берутся и в которую возвращаются треки
type Library interface {
	GetTrack(ctx context.Context, id int) (*data.Track, error)
	ImportPayload(ctx context.Context, fileName string, payload []byte) track.ImportResult
}

// Service управляет резервным копированием треков
type Service struct {
	storage Storage
	library Library
	newKey  func(fileName string) string
	logger  *zap.Logger
}

// NewService создает сервис резервного копирования
func NewService(storage Storage, library Library, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage: storage,
		library: library,
		newKey:  ObjectKey,
		logger:  logger,
	}
}

// BackupResult содержит результат резервного копирования
type BackupResult struct {
	Key  string
	URL  string
	Size int64
}

// ObjectKey формирует уникальный ключ объекта для файла
func ObjectKey(fileName string) string {
	return KeyPrefix + uuid.NewString() + "/" + fileName
}

// Backup загружает трек в хранилище. progressCallback получает число отправленных байт.
func (s *Service) Backup(ctx context.Context, id int, progressCallback func(int64)) (*BackupResult, error) {
	t, err := s.library.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	// Создаем reader с отслеживанием прогресса
	var reader io.Reader = bytes.NewReader(t.Payload)
	if progressCallback != nil {
		reader = &ProgressReader{
			Reader:     reader,
			Size:       t.Size,
			OnProgress: progressCallback,
		}
	}

	key := s.newKey(t.FileName)
	metadata := map[string]string{
		// Заголовки S3 допускают только ASCII
		metaTrackName: url.QueryEscape(t.Name),
		metaFileName:  url.QueryEscape(t.FileName),
		metaTrackID:   strconv.Itoa(t.ID),
	}

	objectURL, err := s.storage.UploadFile(ctx, reader, key, t.MimeType, metadata)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки в S3: %w", err)
	}

	s.logger.Info("резервная копия создана",
		zap.Int("id", t.ID),
		zap.String("key", key),
		zap.Int64("size", t.Size))

	return &BackupResult{Key: key, URL: objectURL, Size: t.Size}, nil
}

// Restore скачивает объект и добавляет его в библиотеку как новый трек
func (s *Service) Restore(ctx context.Context, key string) (track.ImportResult, error) {
	obj, err := s.storage.DownloadFile(ctx, key)
	if err != nil {
		return track.ImportResult{Path: key}, err
	}

	fileName := path.Base(key)
	if v := metaValue(obj.Metadata, metaFileName); v != "" {
		if unescaped, err := url.QueryUnescape(v); err == nil && unescaped != "" {
			fileName = unescaped
		}
	}

	result := s.library.ImportPayload(ctx, fileName, obj.Body)
	if result.Err != nil {
		return result, result.Err
	}

	s.logger.Info("трек восстановлен из резервной копии",
		zap.String("key", key),
		zap.Int("id", result.ID),
		zap.String("content_type", obj.ContentType))
	return result, nil
}

// List возвращает все резервные копии
func (s *Service) List(ctx context.Context) ([]s3.ObjectInfo, error) {
	return s.storage.ListFiles(ctx, KeyPrefix)
}

// Delete удаляет резервную копию
func (s *Service) Delete(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, KeyPrefix) {
		return errors.New("ключ не относится к резервным копиям: " + key)
	}
	return s.storage.DeleteFile(ctx, key)
}

// metaValue ищет значение без учета регистра: S3 возвращает ключи метаданных
// в каноническом виде HTTP заголовков
func metaValue(metadata map[string]string, key string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress func(int64)
	bytesRead  int64
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.bytesRead)
	}
	return n, err
}

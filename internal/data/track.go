// Package data содержит модель трека офлайн-библиотеки и таксономию ошибок
package data

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"
)

// Track описывает трек, сохраненный в локальной библиотеке
type Track struct {
	ID        int       // Присваивается хранилищем при добавлении
	Name      string    // Имя файла без расширения
	FileName  string    // Исходное имя файла
	MimeType  string    // Тип содержимого
	Size      int64     // Размер в байтах
	Payload   []byte    // Полное содержимое файла
	DateAdded time.Time // Время добавления (UTC)
}

// TrackInput содержит данные для создания нового трека
type TrackInput struct {
	FileName string
	MimeType string
	Payload  []byte
	// Size - размер, сообщенный источником. Ноль означает "не указан".
	Size int64
}

// SortBy определяет порядок сортировки списка треков
type SortBy int

const (
	// SortByID - порядок добавления
	SortByID SortBy = iota
	// SortByName - по названию
	SortByName
	// SortByDateAdded - по дате добавления
	SortByDateAdded
)

// NewTrack проверяет входные данные и создает трек без ID
func NewTrack(in TrackInput, now time.Time) (*Track, error) {
	fileName := filepath.Base(strings.TrimSpace(in.FileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, &ValidationError{Field: "fileName", Reason: "имя файла не указано"}
	}
	if !IsAudio(in.MimeType) {
		return nil, &ValidationError{
			Field:  "mimeType",
			Reason: fileName + " не является аудиофайлом",
		}
	}
	if len(in.Payload) == 0 {
		return nil, &ValidationError{Field: "payload", Reason: "файл пуст"}
	}
	size := int64(len(in.Payload))
	if in.Size != 0 && in.Size != size {
		return nil, &ValidationError{
			Field:  "size",
			Reason: "размер не совпадает с содержимым файла",
		}
	}

	return &Track{
		Name:      NameFromFileName(fileName),
		FileName:  fileName,
		MimeType:  strings.ToLower(in.MimeType),
		Size:      size,
		Payload:   bytes.Clone(in.Payload),
		DateAdded: now.UTC(),
	}, nil
}

// IsAudio возвращает true для типов содержимого вида audio/*
func IsAudio(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "audio/")
}

// NameFromFileName возвращает имя файла без последнего расширения
func NameFromFileName(fileName string) string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if name == "" {
		// ".mp3" - расширение и есть все имя
		return fileName
	}
	return name
}

// Clone возвращает копию трека с собственной копией содержимого
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	c := *t
	c.Payload = bytes.Clone(t.Payload)
	return &c
}

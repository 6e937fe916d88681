// Package metadata предоставляет функционал для определения типа и чтения тегов аудио файлов
package metadata

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TrackMetadata хранит метаданные трека
type TrackMetadata struct {
	Artist string
	Title  string
	Album  string
}

// extensionTypes - типы содержимого по расширению, как их сообщает браузер
var extensionTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".weba": "audio/webm",
}

// fileTypes - типы содержимого для форматов, распознанных по заголовку
var fileTypes = map[tag.FileType]string{
	tag.MP3:  "audio/mpeg",
	tag.FLAC: "audio/flac",
	tag.OGG:  "audio/ogg",
	tag.M4A:  "audio/mp4",
	tag.M4B:  "audio/mp4",
	tag.M4P:  "audio/mp4",
	tag.ALAC: "audio/mp4",
	tag.DSF:  "audio/dsf",
}

// Extractor определяет тип содержимого и извлекает теги
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// DetectMimeType определяет тип содержимого файла.
// Сначала по расширению, затем по заголовку аудио формата, затем общим сниффером.
func (e *Extractor) DetectMimeType(payload []byte, fileName string) string {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return t
	}

	if _, fileType, err := tag.Identify(bytes.NewReader(payload)); err == nil {
		if t, ok := fileTypes[fileType]; ok {
			return t
		}
	}

	sniffed := http.DetectContentType(payload)
	mediaType, _, err := mime.ParseMediaType(sniffed)
	if err != nil {
		return sniffed
	}
	return mediaType
}

// ExtractFromReader извлекает метаданные из io.ReadSeeker
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackMetadata {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultMetadata(source)
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil {
		return e.getDefaultMetadata(source)
	}

	result := TrackMetadata{
		Artist: metadata.Artist(),
		Title:  metadata.Title(),
		Album:  metadata.Album(),
	}
	if result.Title == "" {
		fallback := e.getDefaultMetadata(source)
		result.Title = fallback.Title
		if result.Artist == "" {
			result.Artist = fallback.Artist
		}
	}
	return result
}

// ExtractFromPayload извлекает метаданные из содержимого трека
func (e *Extractor) ExtractFromPayload(payload []byte, fileName string) TrackMetadata {
	return e.ExtractFromReader(bytes.NewReader(payload), fileName)
}

// getDefaultMetadata возвращает метаданные по умолчанию на основе имени файла
func (e *Extractor) getDefaultMetadata(source string) TrackMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	// Если не удалось разобрать, используем имя файла как название
	return TrackMetadata{
		Artist: "",
		Title:  nameWithoutExt,
	}
}

package data

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNewTrack(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*60*60))
	payload := []byte("ID3 fake mp3 payload")

	track, err := NewTrack(TrackInput{
		FileName: "/music/Artist - Song.mp3",
		MimeType: "Audio/MPEG",
		Payload:  payload,
	}, now)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	if track.Name != "Artist - Song" {
		t.Errorf("Ожидалось имя 'Artist - Song', получено: %s", track.Name)
	}
	if track.FileName != "Artist - Song.mp3" {
		t.Errorf("Ожидалось имя файла 'Artist - Song.mp3', получено: %s", track.FileName)
	}
	if track.MimeType != "audio/mpeg" {
		t.Errorf("Ожидался тип audio/mpeg, получено: %s", track.MimeType)
	}
	if track.Size != int64(len(payload)) {
		t.Errorf("Ожидался размер %d, получено: %d", len(payload), track.Size)
	}
	if !track.DateAdded.Equal(now) || track.DateAdded.Location() != time.UTC {
		t.Errorf("Ожидалась дата %v в UTC, получено: %v", now, track.DateAdded)
	}
	if track.ID != 0 {
		t.Errorf("ID не должен присваиваться до сохранения, получено: %d", track.ID)
	}

	// Содержимое копируется
	payload[0] = 'X'
	if track.Payload[0] != 'I' {
		t.Error("Содержимое трека не должно зависеть от исходного буфера")
	}
}

func TestNewTrackValidation(t *testing.T) {
	tests := []struct {
		name  string
		input TrackInput
		field string
	}{
		{"не аудио", TrackInput{FileName: "notes.txt", MimeType: "text/plain", Payload: []byte("x")}, "mimeType"},
		{"пустой тип", TrackInput{FileName: "song.mp3", Payload: []byte("x")}, "mimeType"},
		{"нет имени", TrackInput{FileName: "  ", MimeType: "audio/mpeg", Payload: []byte("x")}, "fileName"},
		{"пустой файл", TrackInput{FileName: "song.mp3", MimeType: "audio/mpeg"}, "payload"},
		{"размер не совпадает", TrackInput{FileName: "song.mp3", MimeType: "audio/mpeg", Payload: []byte("abc"), Size: 10}, "size"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewTrack(test.input, time.Now())
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Ожидалась ValidationError, получено: %v", err)
			}
			if vErr.Field != test.field {
				t.Errorf("Ожидалось поле %s, получено: %s", test.field, vErr.Field)
			}
		})
	}
}

func TestNameFromFileName(t *testing.T) {
	tests := []struct {
		fileName string
		expected string
	}{
		{"song.mp3", "song"},
		{"my.favourite.song.flac", "my.favourite.song"},
		{"noext", "noext"},
		{".mp3", ".mp3"},
	}

	for _, test := range tests {
		result := NameFromFileName(test.fileName)
		if result != test.expected {
			t.Errorf("NameFromFileName(%s) = %s; expected %s", test.fileName, result, test.expected)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("ошибка воспроизведения: %w", &NotFoundError{ID: 7})
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound должна распознавать обернутую ошибку")
	}
	if IsValidation(wrapped) || IsStore(wrapped) {
		t.Error("NotFoundError не должна распознаваться как другие типы")
	}
	if wrapped.Error() != "ошибка воспроизведения: трек с ID 7 не найден" {
		t.Errorf("Неожиданный текст ошибки: %s", wrapped.Error())
	}

	cause := errors.New("disk full")
	storeErr := &StoreError{Op: "add", Err: cause}
	if !errors.Is(storeErr, cause) {
		t.Error("StoreError должна раскрывать исходную ошибку")
	}
	if !IsStore(fmt.Errorf("обертка: %w", storeErr)) {
		t.Error("IsStore должна распознавать обернутую ошибку")
	}
}

func TestClone(t *testing.T) {
	original := &Track{ID: 1, Name: "a", Payload: []byte{1, 2, 3}}
	c := original.Clone()
	c.Payload[0] = 9
	if original.Payload[0] != 1 {
		t.Error("Clone должен копировать содержимое")
	}
	var nilTrack *Track
	if nilTrack.Clone() != nil {
		t.Error("Clone от nil должен возвращать nil")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/config"
	"github.com/hazadus/tunelocal/internal/data"
	"github.com/hazadus/tunelocal/internal/store"
)

// captureOutput перехватывает stdout и stderr во время выполнения функции
func captureOutput(t *testing.T, fn func()) string {
	// Сохраняем оригинальные stdout и stderr
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	// Создаем pipe для перехвата
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Ошибка создания pipe: %v", err)
	}

	// Перенаправляем stdout и stderr
	os.Stdout = w
	os.Stderr = w

	// Выполняем функцию
	fn()

	// Восстанавливаем оригинальные stdout и stderr
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	// Закрываем writer
	w.Close()

	// Читаем результат
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("Ошибка чтения результата: %v", err)
	}

	return buf.String()
}

// createTestApplication создает тестовое приложение с временной библиотекой
func createTestApplication(t *testing.T, tempDir string) *Application {
	t.Helper()

	// Создаем тестовую конфигурацию
	testConfig := &config.Config{
		LibraryBackend: store.BackendYAML,
		LibraryPath:    filepath.Join(tempDir, "library.yaml"),
	}

	app, err := NewApplication(testConfig, zap.NewNop())
	if err != nil {
		t.Fatalf("Ошибка создания приложения: %v", err)
	}
	t.Cleanup(func() { app.Close() })

	return app
}

// addTestTrack добавляет трек с содержимым заданного размера
func addTestTrack(t *testing.T, app *Application, fileName string, size int) int {
	t.Helper()

	payload := bytes.Repeat([]byte{0xAB}, size)
	result := app.Manager.ImportPayload(context.Background(), fileName, payload)
	if result.Err != nil {
		t.Fatalf("Ошибка добавления трека: %v", result.Err)
	}
	return result.ID
}

// TestCmdList проверяет, что команда `list` корректно выводит список треков
func TestCmdList(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	addTestTrack(t, app, "Test Track.mp3", 2000000)

	listCmd := app.createListCommand(context.Background())

	output := captureOutput(t, func() {
		listCmd.SetArgs([]string{})
		if err := listCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды list: %v", err)
		}
	})

	expectedStrings := []string{
		"📚 Найдено треков: 1",
		"Test Track",
		"audio/mpeg",
		"1.91 MB",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод команды list не содержит ожидаемую строку '%s': %s", expected, output)
		}
	}
}

// TestCmdListSorted проверяет сортировку по названию
func TestCmdListSorted(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	addTestTrack(t, app, "Zebra.mp3", 10)
	addTestTrack(t, app, "Alpha.mp3", 10)

	listCmd := app.createListCommand(context.Background())

	output := captureOutput(t, func() {
		listCmd.SetArgs([]string{"--sort", "name"})
		if err := listCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды list: %v", err)
		}
	})

	if strings.Index(output, "Alpha") > strings.Index(output, "Zebra") {
		t.Errorf("Треки не отсортированы по названию: %s", output)
	}
}

// TestCmdListInvalidSort проверяет обработку неизвестного порядка сортировки
func TestCmdListInvalidSort(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	listCmd := app.createListCommand(context.Background())

	captureOutput(t, func() {
		listCmd.SetArgs([]string{"--sort", "size"})
		if err := listCmd.Execute(); err == nil {
			t.Error("Ожидалась ошибка для неизвестного порядка сортировки")
		}
	})
}

// TestCmdListEmpty проверяет, что команда `list` корректно обрабатывает пустую библиотеку
func TestCmdListEmpty(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	listCmd := app.createListCommand(context.Background())

	output := captureOutput(t, func() {
		listCmd.SetArgs([]string{})
		if err := listCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды list: %v", err)
		}
	})

	if !strings.Contains(output, "📚 Библиотека пуста") {
		t.Errorf("Команда list не отобразила сообщение о пустой библиотеке: %s", output)
	}
}

// TestCmdAdd проверяет добавление файлов и отказ для файлов не-аудио
func TestCmdAdd(t *testing.T) {
	tempDir := t.TempDir()
	app := createTestApplication(t, tempDir)

	song := filepath.Join(tempDir, "song.mp3")
	notes := filepath.Join(tempDir, "notes.txt")
	if err := os.WriteFile(song, bytes.Repeat([]byte{1, 2, 3}, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(notes, []byte("just some text"), 0644); err != nil {
		t.Fatal(err)
	}

	addCmd := app.createAddCommand(context.Background())

	output := captureOutput(t, func() {
		addCmd.SetArgs([]string{song, notes})
		if err := addCmd.Execute(); err == nil {
			t.Error("Ожидалась ошибка: один из файлов не является аудио")
		}
	})

	for _, expected := range []string{"✅ [1] song (audio/mpeg", "❌ notes.txt", "Добавлено треков: 1 из 2"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод команды add не содержит '%s': %s", expected, output)
		}
	}

	tracks, err := app.Manager.ListTracks(context.Background(), data.SortByID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || tracks[0].Size != 300 {
		t.Errorf("Неожиданное содержимое библиотеки: %+v", tracks)
	}
}

// TestCmdAddInvalidArgs проверяет обработку неверных аргументов в команде add
func TestCmdAddInvalidArgs(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	addCmd := app.createAddCommand(context.Background())

	var buf bytes.Buffer
	addCmd.SetOut(&buf)
	addCmd.SetErr(&buf)
	addCmd.SetArgs([]string{})

	if err := addCmd.Execute(); err == nil {
		t.Error("Ожидалась ошибка при выполнении команды add без аргументов")
	}

	if !strings.Contains(buf.String(), "requires at least 1 arg") {
		t.Errorf("Команда add не отобразила ошибку о неверных аргументах: %s", buf.String())
	}
}

// TestCmdDelete проверяет, что команда `delete` удаляет указанный трек
func TestCmdDelete(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	first := addTestTrack(t, app, "Title 1.mp3", 10)
	addTestTrack(t, app, "Title 2.mp3", 10)

	deleteCmd := app.createDeleteCommand(context.Background())

	output := captureOutput(t, func() {
		deleteCmd.SetArgs([]string{fmt.Sprint(first)})
		if err := deleteCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды delete: %v", err)
		}
	})

	if !strings.Contains(output, "🗑️  Удаляем трек: Title 1") {
		t.Errorf("Команда delete не отобразила ожидаемый вывод: %s", output)
	}

	tracks, err := app.Manager.ListTracks(context.Background(), data.SortByID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || tracks[0].Name != "Title 2" {
		t.Errorf("Ожидался один трек 'Title 2', получено: %+v", tracks)
	}
}

// TestCmdDeleteErrors проверяет неверный и несуществующий ID
func TestCmdDeleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		wantErr string
	}{
		{name: "not a number", arg: "invalid", wantErr: "неверный ID"},
		{name: "negative", arg: "-1", wantErr: "неверный ID"},
		{name: "missing", arg: "42", wantErr: "трек с ID 42 не найден"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := createTestApplication(t, t.TempDir())

			var err error
			captureOutput(t, func() {
				err = app.createDeleteCommand(context.Background()).RunE(nil, []string{tt.arg})
			})

			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Ожидалась ошибка '%s', получено: %v", tt.wantErr, err)
			}
		})
	}
}

// TestCmdClear проверяет очистку библиотеки с подтверждением и без
func TestCmdClear(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	addTestTrack(t, app, "a.mp3", 10)
	addTestTrack(t, app, "b.mp3", 10)

	// Отказ от подтверждения ничего не удаляет
	clearCmd := app.createClearCommand(context.Background())
	output := captureOutput(t, func() {
		clearCmd.SetIn(strings.NewReader("n\n"))
		clearCmd.SetArgs([]string{})
		if err := clearCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды clear: %v", err)
		}
	})
	if !strings.Contains(output, "Удалить все треки (2)?") || !strings.Contains(output, "Очистка отменена") {
		t.Errorf("Неожиданный вывод команды clear: %s", output)
	}

	clearCmd = app.createClearCommand(context.Background())
	output = captureOutput(t, func() {
		clearCmd.SetArgs([]string{"--yes"})
		if err := clearCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды clear: %v", err)
		}
	})
	if !strings.Contains(output, "✅ Удалено треков: 2") {
		t.Errorf("Неожиданный вывод команды clear: %s", output)
	}

	tracks, err := app.Manager.ListTracks(context.Background(), data.SortByID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 0 {
		t.Errorf("Библиотека должна быть пуста, получено %d треков", len(tracks))
	}
}

// newCatalogServer эмулирует удаленный каталог
func newCatalogServer(t *testing.T, uploads *[]string) *httptest.Server {
	t.Helper()

	fileData := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString([]byte("remote payload"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.PostForm.Get("action") == "upload" {
				*uploads = append(*uploads, r.PostForm.Get("fileName"))
				fmt.Fprint(w, `{"success":true,"id":"7"}`)
				return
			}
		}

		switch r.URL.Query().Get("action") {
		case "list":
			fmt.Fprint(w, `{"success":true,"count":1,"tracks":[
				{"id":"1","name":"Remote Song","file_name":"Remote Song.mp3","file_size":"2000000",
				 "date_added":"2025-01-01 10:00:00","play_count":"3"}]}`)
		case "get":
			if r.URL.Query().Get("id") != "1" {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"success":false,"error":"Track not found"}`)
				return
			}
			fmt.Fprintf(w, `{"success":true,"track":{"id":"1","name":"Remote Song",
				"file_name":"Remote Song.mp3","file_type":"audio/mpeg","file_size":"14","file_data":%q}}`, fileData)
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"success":false,"error":"Invalid action"}`)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

// TestCmdRemote проверяет обмен треками с удаленным каталогом
func TestCmdRemote(t *testing.T) {
	var uploads []string
	server := newCatalogServer(t, &uploads)

	app := createTestApplication(t, t.TempDir())
	app.Config.RemoteURL = server.URL
	id := addTestTrack(t, app, "Local Song.mp3", 100)

	ctx := context.Background()

	output := captureOutput(t, func() {
		remoteCmd := app.createRemoteCommand(ctx)
		remoteCmd.SetArgs([]string{"list"})
		if err := remoteCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения remote list: %v", err)
		}
	})
	for _, expected := range []string{"Треков в каталоге: 1", "Remote Song", "1.91 MB"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод remote list не содержит '%s': %s", expected, output)
		}
	}

	output = captureOutput(t, func() {
		remoteCmd := app.createRemoteCommand(ctx)
		remoteCmd.SetArgs([]string{"push", fmt.Sprint(id)})
		if err := remoteCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения remote push: %v", err)
		}
	})
	if !strings.Contains(output, "ID в каталоге: 7") {
		t.Errorf("Неожиданный вывод remote push: %s", output)
	}
	if len(uploads) != 1 || uploads[0] != "Local Song.mp3" {
		t.Errorf("Сервер получил неожиданные файлы: %v", uploads)
	}

	output = captureOutput(t, func() {
		remoteCmd := app.createRemoteCommand(ctx)
		remoteCmd.SetArgs([]string{"pull", "1"})
		if err := remoteCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения remote pull: %v", err)
		}
	})
	if !strings.Contains(output, "Трек добавлен в библиотеку") {
		t.Errorf("Неожиданный вывод remote pull: %s", output)
	}

	tracks, err := app.Manager.ListTracks(ctx, data.SortByID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 || tracks[1].Name != "Remote Song" || string(tracks[1].Payload) != "remote payload" {
		t.Errorf("Трек из каталога не добавлен: %+v", tracks)
	}
}

// TestCmdRemotePullMissing проверяет ошибку сервера для несуществующего трека
func TestCmdRemotePullMissing(t *testing.T) {
	var uploads []string
	server := newCatalogServer(t, &uploads)

	app := createTestApplication(t, t.TempDir())
	app.Config.RemoteURL = server.URL

	var err error
	captureOutput(t, func() {
		err = app.remotePull(context.Background(), 5)
	})
	if err == nil || !strings.Contains(err.Error(), "Track not found") {
		t.Errorf("Ожидалась ошибка сервера, получено: %v", err)
	}
}

// TestCmdNotConfigured проверяет сообщения при отсутствии настроек внешних сервисов
func TestCmdNotConfigured(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	id := addTestTrack(t, app, "a.mp3", 10)
	ctx := context.Background()

	if err := app.remoteList(ctx); err == nil || !strings.Contains(err.Error(), "remote_url") {
		t.Errorf("Ожидалась ошибка настройки удаленного каталога, получено: %v", err)
	}
	if err := app.backupTrack(ctx, id); err == nil || !strings.Contains(err.Error(), "S3 не настроено") {
		t.Errorf("Ожидалась ошибка настройки S3, получено: %v", err)
	}
	if err := app.restoreTrack(ctx, "tracks/x/a.mp3"); err == nil {
		t.Error("Ожидалась ошибка настройки S3 для restore")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseID(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
		}
	}
}


// Package remote содержит клиент удаленного каталога треков.
// Каталог не синхронизируется с локальной библиотекой: треки отправляются и
// загружаются только по явной команде пользователя.
package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/data"
)

// MaxUploadSize - максимальный размер файла, который принимает сервер
const MaxUploadSize = 100 * 1024 * 1024

const userAgent = "tunelocal/1.0"

// APIError - ошибка, о которой сообщил сервер
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ошибка API (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("ошибка API (HTTP %d): %s", e.StatusCode, e.Message)
}

// IsNotFound возвращает true, если сервер не нашел трек
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Track - запись удаленного каталога
type Track struct {
	ID        flexInt `json:"id"`
	Name      string  `json:"name"`
	FileName  string  `json:"file_name"`
	FileType  string  `json:"file_type"`
	FileSize  flexInt `json:"file_size"`
	DateAdded string  `json:"date_added"`
	PlayCount flexInt `json:"play_count"`
	FileData  string  `json:"file_data,omitempty"`
}

// Payload декодирует содержимое трека. Поддерживаются data URL и чистый base64.
func (t *Track) Payload() ([]byte, error) {
	if t.FileData == "" {
		return nil, errors.New("сервер не вернул содержимое трека")
	}
	encoded := t.FileData
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ",")
		if idx < 0 {
			return nil, errors.New("некорректный data URL")
		}
		encoded = encoded[idx+1:]
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования содержимого: %w", err)
	}
	return payload, nil
}

// Upload - трек для отправки на сервер
type Upload struct {
	Name     string
	FileName string
	FileType string
	Payload  []byte
}

// NewUpload готовит локальный трек к отправке
func NewUpload(track *data.Track) Upload {
	return Upload{
		Name:     track.Name,
		FileName: track.FileName,
		FileType: track.MimeType,
		Payload:  track.Payload,
	}
}

// flexInt принимает числа как в виде чисел, так и в виде строк
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("некорректное число %s: %w", string(b), err)
	}
	*f = flexInt(v)
	return nil
}

// envelope - общая часть всех ответов сервера
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Option настраивает клиент
type Option func(*Client)

// WithHTTPClient задает HTTP клиент
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithLogger задает логгер клиента
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client работает с HTTP API удаленного каталога
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// New создает клиент для API по указанному адресу
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("адрес удаленного каталога не задан")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("некорректный адрес удаленного каталога: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("неподдерживаемая схема адреса: %q", u.Scheme)
	}

	c := &Client{
		baseURL: u,
		http:    newHTTPClient(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClient создает клиент с таймаутами соединения.
// Общего таймаута нет: загрузка большого трека может идти долго.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// List возвращает все треки каталога без содержимого
func (c *Client) List(ctx context.Context) ([]Track, error) {
	var resp struct {
		Tracks []Track `json:"tracks"`
		Count  int     `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, url.Values{"action": {"list"}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// Get возвращает трек вместе с содержимым
func (c *Client) Get(ctx context.Context, id int) (*Track, error) {
	var resp struct {
		Track *Track `json:"track"`
	}
	query := url.Values{"action": {"get"}, "id": {strconv.Itoa(id)}}
	if err := c.do(ctx, http.MethodGet, query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Track == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "трек не найден"}
	}
	return resp.Track, nil
}

// Upload отправляет трек и возвращает его ID в каталоге
func (c *Client) Upload(ctx context.Context, up Upload) (int, error) {
	switch {
	case up.Name == "":
		return 0, &data.ValidationError{Field: "name", Reason: "название не указано"}
	case up.FileName == "":
		return 0, &data.ValidationError{Field: "fileName", Reason: "имя файла не указано"}
	case len(up.Payload) == 0:
		return 0, &data.ValidationError{Field: "fileData", Reason: "файл пуст"}
	case len(up.Payload) > MaxUploadSize:
		return 0, &data.ValidationError{
			Field: "fileSize",
			Reason: fmt.Sprintf("файл слишком большой: %s, максимум %s",
				humanize.IBytes(uint64(len(up.Payload))), humanize.IBytes(MaxUploadSize)),
		}
	}

	// Содержимое передается так же, как его читает браузер: data URL
	fileData := "data:" + up.FileType + ";base64," + base64.StdEncoding.EncodeToString(up.Payload)
	form := url.Values{
		"action":   {"upload"},
		"name":     {up.Name},
		"fileName": {up.FileName},
		"fileType": {up.FileType},
		"fileSize": {strconv.Itoa(len(up.Payload))},
		"fileData": {fileData},
	}

	var resp struct {
		ID flexInt `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, nil, form, &resp); err != nil {
		return 0, err
	}

	c.logger.Info("трек отправлен в удаленный каталог",
		zap.String("file", up.FileName),
		zap.Int64("remote_id", int64(resp.ID)))
	return int(resp.ID), nil
}

// Delete удаляет трек из каталога
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, url.Values{"id": {strconv.Itoa(id)}}, nil, nil)
}

// Clear удаляет все треки каталога
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, nil, url.Values{"action": {"clear"}}, nil)
}

// do выполняет запрос и разбирает ответ в out
func (c *Client) do(ctx context.Context, method string, query, form url.Values, out any) error {
	u := *c.baseURL
	if query != nil {
		q := u.Query()
		for k, v := range query {
			q[k] = v
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	c.logger.Debug("запрос к удаленному каталогу",
		zap.String("method", method),
		zap.String("url", u.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.Error}
		if envErr != nil {
			apiErr.Message = strings.TrimSpace(string(truncate(raw, 200)))
		}
		return apiErr
	}
	if envErr != nil {
		return fmt.Errorf("некорректный ответ сервера: %w", envErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("некорректный ответ сервера: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

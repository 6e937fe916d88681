package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/tunelocal/internal/data"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api/music.php")
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New("ftp://example.com/api")
	assert.Error(t, err)

	c, err := New("https://example.com/api/music.php")
	require.NoError(t, err)
	assert.Equal(t, "example.com", c.baseURL.Host)
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/music.php", r.URL.Path)
		assert.Equal(t, "list", r.URL.Query().Get("action"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		// Сервер возвращает числа строками
		fmt.Fprint(w, `{"success":true,"count":2,"tracks":[
			{"id":"2","name":"B","file_name":"B.mp3","file_type":"audio/mpeg","file_size":"2000000","date_added":"2024-01-02 10:00:00","play_count":"3"},
			{"id":1,"name":"A","file_name":"A.mp3","file_type":"audio/mpeg","file_size":500000,"date_added":"2024-01-01 10:00:00","play_count":null}
		]}`)
	})

	tracks, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.EqualValues(t, 2, tracks[0].ID)
	assert.EqualValues(t, 2000000, tracks[0].FileSize)
	assert.EqualValues(t, 3, tracks[0].PlayCount)
	assert.Equal(t, "B.mp3", tracks[0].FileName)
	assert.EqualValues(t, 1, tracks[1].ID)
	assert.EqualValues(t, 0, tracks[1].PlayCount)
}

func TestGet(t *testing.T) {
	payload := []byte("ID3 audio bytes")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "get", r.URL.Query().Get("action"))
		if r.URL.Query().Get("id") != "7" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"success":false,"error":"Track not found"}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"track":{"id":"7","name":"A","file_name":"A.mp3","file_type":"audio/mpeg","file_data":"data:audio/mpeg;base64,%s"}}`,
			base64.StdEncoding.EncodeToString(payload))
	})
	ctx := context.Background()

	track, err := c.Get(ctx, 7)
	require.NoError(t, err)
	got, err := track.Payload()
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = c.Get(ctx, 8)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Track not found")
}

func TestTrackPayload(t *testing.T) {
	raw := Track{FileData: base64.StdEncoding.EncodeToString([]byte("abc"))}
	got, err := raw.Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	_, err = (&Track{}).Payload()
	assert.Error(t, err)

	_, err = (&Track{FileData: "data:audio/mpeg;base64"}).Payload()
	assert.Error(t, err)

	_, err = (&Track{FileData: "!!!"}).Payload()
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	payload := []byte("fake mp3 payload")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		form, err := url.ParseQuery(string(body))
		assert.NoError(t, err)

		assert.Equal(t, "upload", form.Get("action"))
		assert.Equal(t, "Song", form.Get("name"))
		assert.Equal(t, "Song.mp3", form.Get("fileName"))
		assert.Equal(t, "audio/mpeg", form.Get("fileType"))
		assert.Equal(t, "16", form.Get("fileSize"))
		assert.Equal(t, "data:audio/mpeg;base64,"+base64.StdEncoding.EncodeToString(payload), form.Get("fileData"))

		fmt.Fprint(w, `{"success":true,"id":42,"message":"Track uploaded successfully"}`)
	})

	track := &data.Track{ID: 1, Name: "Song", FileName: "Song.mp3", MimeType: "audio/mpeg", Payload: payload, Size: int64(len(payload))}
	id, err := c.Upload(context.Background(), NewUpload(track))
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestUploadValidation(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	ctx := context.Background()

	tests := []struct {
		name  string
		up    Upload
		field string
	}{
		{"без названия", Upload{FileName: "a.mp3", Payload: []byte{1}}, "name"},
		{"без имени файла", Upload{Name: "a", Payload: []byte{1}}, "fileName"},
		{"пустой файл", Upload{Name: "a", FileName: "a.mp3"}, "fileData"},
		{"слишком большой", Upload{Name: "a", FileName: "a.mp3", Payload: make([]byte, MaxUploadSize+1)}, "fileSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Upload(ctx, tt.up)
			var vErr *data.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	assert.Zero(t, calls, "некорректные данные не должны отправляться на сервер")
}

func TestUploadServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"success":false,"error":"File too large. Maximum size is 100MB."}`)
	})

	_, err := c.Upload(context.Background(), Upload{Name: "a", FileName: "a.mp3", Payload: []byte{1}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "File too large. Maximum size is 100MB.", apiErr.Message)
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Query().Get("id") == "0" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"success":false,"error":"Invalid track ID"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"message":"Track deleted successfully"}`)
	})
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, 3))

	err := c.Delete(ctx, 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestClear(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "clear", r.PostForm.Get("action"))
		fmt.Fprint(w, `{"success":true,"message":"All tracks deleted"}`)
	})

	require.NoError(t, c.Clear(context.Background()))
}

func TestUnsuccessfulResponseWithOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"Invalid action"}`)
	})

	_, err := c.List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, "Invalid action", apiErr.Message)
}

func TestNonJSONResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "list" {
			fmt.Fprint(w, "<html>PHP Warning</html>")
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "  Bad Gateway  ")
	})
	ctx := context.Background()

	_, err := c.List(ctx)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "некорректный ответ сервера"))

	_, err = c.Get(ctx, 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"tracks":[]}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

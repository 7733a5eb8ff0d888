package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/momentkeep/internal/filestore"
	"github.com/sakif/momentkeep/internal/handler"
)

func newFileRouter(t *testing.T, maxBytes int64) (http.Handler, *filestore.Store) {
	t.Helper()
	store, err := filestore.New(filestore.Config{
		Root:          filepath.Join(t.TempDir(), "uploads"),
		PublicBaseURL: "http://localhost:5000",
		MaxBytes:      maxBytes,
	}, quietLogger())
	require.NoError(t, err)

	h := handler.NewFileHandler(store, quietLogger())
	r := chi.NewRouter()
	r.Post("/api/upload", h.HandleUpload)
	r.Delete("/api/delete_file", h.HandleDelete)
	r.Get("/uploads/{user_id}/{filename}", h.HandleServe)
	r.Get("/uploads/{filename}", h.HandleServeLegacy)
	return r, store
}

// multipartRequest builds an upload; an empty filename omits the file part.
func multipartRequest(t *testing.T, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFileHandler_UploadServeDelete(t *testing.T) {
	router, _ := newFileRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, multipartRequest(t, map[string]string{"user_id": "u1"}, "notes.txt", "hello"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var stored filestore.StoredFile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stored))
	assert.Equal(t, "u1", stored.UserID)
	assert.True(t, strings.HasPrefix(stored.Path, "u1/"))
	assert.True(t, strings.HasSuffix(stored.Path, "_notes.txt"))
	assert.Equal(t, "http://localhost:5000/uploads/"+stored.Path, stored.URL)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/"+stored.Path, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello", rr.Body.String())

	rr = do(t, router, http.MethodDelete, "/api/delete_file", `{"file_path":"`+stored.Path+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"File deleted successfully"}`, rr.Body.String())

	rr = do(t, router, http.MethodDelete, "/api/delete_file", `{"filePath":"`+stored.Path+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"File not found, but operation considered successful"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/"+stored.Path, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFileHandler_UploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		wantMsg  string
	}{
		{"no file part", map[string]string{"user_id": "u1"}, "", "No file part"},
		{"no user", nil, "a.txt", "Missing user_id parameter"},
		{"bad extension", map[string]string{"user_id": "u1"}, "run.exe", "File type not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := newFileRouter(t, 0)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, multipartRequest(t, tt.fields, tt.filename, "x"))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rr).Message)

			entries, err := os.ReadDir(store.Root())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestFileHandler_UploadAcceptsCamelUserID(t *testing.T) {
	router, _ := newFileRouter(t, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, multipartRequest(t, map[string]string{"userId": "u9"}, "a.png", "png"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"user_id":"u9"`)
}

func TestFileHandler_UploadTooLarge(t *testing.T) {
	router, _ := newFileRouter(t, 4)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, multipartRequest(t, map[string]string{"user_id": "u1"}, "a.txt", "too long"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestFileHandler_NotMultipart(t *testing.T) {
	router, _ := newFileRouter(t, 0)

	rr := do(t, router, http.MethodPost, "/api/upload", `{"user_id":"u1"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No file part", decodeError(t, rr).Message)
}

func TestFileHandler_DeleteRejections(t *testing.T) {
	router, _ := newFileRouter(t, 0)

	rr := do(t, router, http.MethodDelete, "/api/delete_file", `{"other":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing file_path parameter", decodeError(t, rr).Message)

	rr = do(t, router, http.MethodDelete, "/api/delete_file", `{"file_path":"../etc/passwd"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodDelete, "/api/delete_file", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFileHandler_ServeLegacy(t *testing.T) {
	router, store := newFileRouter(t, 0)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "old.txt"), []byte("legacy"), 0o644))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/old.txt", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "legacy", rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestFileHandler_UploadHonorsCancellation(t *testing.T) {
	router, _ := newFileRouter(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := httptest.NewRecorder()
	req := multipartRequest(t, map[string]string{"user_id": "u1"}, "a.txt", "x").WithContext(ctx)
	router.ServeHTTP(rr, req)

	assert.NotEqual(t, http.StatusCreated, rr.Code)
}

package handler

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/filestore"
)

// FileStore is the part of *filestore.Store the file routes use.
type FileStore interface {
	Store(ctx context.Context, userID, filename string, r io.Reader) (*filestore.StoredFile, error)
	Remove(relPath string) (bool, error)
	Open(userID, filename string) (*os.File, fs.FileInfo, error)
	OpenLegacy(filename string) (*os.File, fs.FileInfo, error)
	MaxBytes() int64
}

// multipartOverhead allows for the multipart framing and the user_id field
// on top of the file itself.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a form is buffered in memory; the rest
// spills to temp files.
const multipartMemory = 8 << 20

// FileHandler serves uploads, deletes and retrieval of stored files.
type FileHandler struct {
	files  FileStore
	logger *slog.Logger
}

func NewFileHandler(files FileStore, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// HandleUpload stores the "file" part of a multipart form for the user
// named by the "user_id" field.
//
// HTTP: POST /api/upload
// RESPONSE: 201 {"filename": "{user_id}/{uuid}_{name}", "url": "...", "user_id": "..."}
func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxBytes()+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, apperror.PayloadTooLarge(h.files.MaxBytes()))
			return
		}
		writeError(w, apperror.ValidationFailed("file", "No file part"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "No file part"))
		return
	}
	defer file.Close()

	userID := firstNonEmpty(r.FormValue("user_id"), r.FormValue("userId"))
	if userID == "" {
		writeError(w, apperror.ValidationFailed("user_id", "Missing user_id parameter"))
		return
	}
	if header.Filename == "" {
		writeError(w, apperror.ValidationFailed("file", "No selected file"))
		return
	}

	stored, err := h.files.Store(r.Context(), userID, header.Filename, multipartFile{file})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// multipartFile hides the ReaderAt/Seeker of a multipart.File so the store
// sees a plain stream.
type multipartFile struct{ f multipart.File }

func (m multipartFile) Read(p []byte) (int, error) { return m.f.Read(p) }

type deleteFileRequest struct {
	FilePath string `json:"file_path"`
}

// HandleDelete removes a stored file. Deleting a file that is already gone
// succeeds.
//
// HTTP: DELETE /api/delete_file
// REQUEST BODY: {"file_path": "{user_id}/{name}"}
func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteFileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.FilePath == "" {
		writeError(w, apperror.ValidationFailed("file_path", "Missing file_path parameter"))
		return
	}

	removed, err := h.files.Remove(req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "File deleted successfully"
	if !removed {
		msg = "File not found, but operation considered successful"
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// HandleServe streams a user's file.
//
// HTTP: GET /uploads/{user_id}/{filename}
func (h *FileHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	f, info, err := h.files.Open(chi.URLParam(r, "user_id"), chi.URLParam(r, "filename"))
	h.serve(w, r, f, info, err)
}

// HandleServeLegacy streams a file stored directly under the upload root.
//
// HTTP: GET /uploads/{filename}
func (h *FileHandler) HandleServeLegacy(w http.ResponseWriter, r *http.Request) {
	f, info, err := h.files.OpenLegacy(chi.URLParam(r, "filename"))
	h.serve(w, r, f, info, err)
}

// serve uses http.ServeContent for Range, If-Modified-Since and content
// type sniffing.
func (h *FileHandler) serve(w http.ResponseWriter, r *http.Request, f *os.File, info fs.FileInfo, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Package filestore keeps uploaded attachments on local disk, one directory
// per user:
//
//	{root}/{user_id}/{uuid}_{sanitized-name}
//
// Every stored name carries a fresh UUID prefix, so uploading "photo.png"
// twice yields two files. Remove is idempotent and refuses any path that
// could escape the root.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/momentkeep/internal/apperror"
)

// DefaultMaxBytes is the upload size limit (16 MiB).
const DefaultMaxBytes int64 = 16 << 20

// allowedExtensions is the upload allow-list, compared case-insensitively.
var allowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true, "jpeg": true,
	"gif": true, "mp4": true, "mp3": true, "wav": true,
}

type Config struct {
	Root          string // directory holding the per-user folders
	PublicBaseURL string // prefix of returned URLs, e.g. "http://localhost:5000"
	MaxBytes      int64  // 0 means DefaultMaxBytes
}

// Store is safe for concurrent use; it holds no mutable state.
type Store struct {
	root     string
	baseURL  string
	maxBytes int64
	logger   *slog.Logger
}

// StoredFile describes a successful upload. Path is relative to the root
// and is what Remove expects back.
type StoredFile struct {
	Path   string `json:"filename"`
	URL    string `json:"url"`
	UserID string `json:"user_id"`
}

// New creates the root directory if needed and returns a Store over it.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("filestore: root directory is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolving root %q: %w", cfg.Root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating root %q: %w", root, err)
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Store{
		root:     root,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

// Root returns the absolute upload root.
func (s *Store) Root() string { return s.root }

// MaxBytes returns the per-upload size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// AllowedFile reports whether filename has an extension on the allow-list.
func AllowedFile(filename string) bool {
	ext, ok := extension(filename)
	return ok && allowedExtensions[ext]
}

func extension(filename string) (string, bool) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return "", false
	}
	return strings.ToLower(filename[i+1:]), true
}

// Store writes the contents of r as a new file owned by userID.
//
// The data goes to a temp file in the user's directory and is renamed into
// place only once fully written, so a failed or oversized upload never
// leaves a partial file under its final name.
func (s *Store) Store(ctx context.Context, userID, filename string, r io.Reader) (*StoredFile, error) {
	if userID == "" {
		return nil, apperror.MissingField("user_id")
	}
	if err := checkSegment("user_id", userID); err != nil {
		return nil, err
	}
	if r == nil || filename == "" {
		return nil, apperror.ValidationFailed("file", "No selected file")
	}
	if !AllowedFile(filename) {
		return nil, apperror.ValidationFailed("file", "File type not allowed")
	}

	name := uuid.NewString() + "_" + storedName(filename)
	dir := filepath.Join(s.root, userID)

	// MkdirAll succeeds when the directory already exists, which covers two
	// first uploads for the same user racing each other.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.IOFailed("create upload directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, apperror.IOFailed("create upload file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	// Read one byte past the limit to detect oversized payloads.
	written, err := io.Copy(tmp, io.LimitReader(contextReader{ctx: ctx, r: r}, s.maxBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The request body itself may be capped by http.MaxBytesReader.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperror.PayloadTooLarge(s.maxBytes)
		}
		return nil, apperror.IOFailed("write upload", err)
	}
	if written > s.maxBytes {
		return nil, apperror.PayloadTooLarge(s.maxBytes)
	}

	if err := tmp.Close(); err != nil {
		return nil, apperror.IOFailed("write upload", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return nil, apperror.IOFailed("store upload", err)
	}
	committed = true

	rel := path.Join(userID, name)
	s.logger.Info("file stored",
		slog.String("user_id", userID),
		slog.String("path", rel),
		slog.Int64("bytes", written),
	)

	return &StoredFile{
		Path:   rel,
		URL:    s.URL(rel),
		UserID: userID,
	}, nil
}

// URL returns the public retrieval URL of a stored relative path.
func (s *Store) URL(rel string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/uploads/" + strings.Join(segments, "/")
}

// Remove deletes the file at relPath (relative to the root).
//
// The path is rejected before any filesystem access if it is empty,
// absolute, or contains "..". A path that does not exist counts as success;
// removed reports whether a file was actually deleted.
func (s *Store) Remove(relPath string) (removed bool, err error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return false, err
	}

	info, err := os.Lstat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperror.IOFailed("inspect file", err)
	}
	if info.IsDir() {
		return false, apperror.ValidationFailed("file_path", "path refers to a directory")
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperror.IOFailed("delete file", err)
	}

	s.logger.Info("file removed", slog.String("path", relPath))
	return true, nil
}

// resolve validates a client-supplied relative path and maps it under root.
func (s *Store) resolve(relPath string) (string, error) {
	switch {
	case relPath == "":
		return "", apperror.MissingField("file_path")
	case strings.Contains(relPath, ".."):
		return "", apperror.ValidationFailed("file_path", "invalid file path")
	case strings.ContainsRune(relPath, 0):
		return "", apperror.ValidationFailed("file_path", "invalid file path")
	case strings.HasPrefix(relPath, "/"), strings.HasPrefix(relPath, `\`), filepath.IsAbs(relPath):
		return "", apperror.ValidationFailed("file_path", "invalid file path")
	}

	full := filepath.Join(s.root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperror.ValidationFailed("file_path", "invalid file path")
	}
	return full, nil
}

// Open returns the file stored as {userID}/{filename}. The caller closes it.
func (s *Store) Open(userID, filename string) (*os.File, fs.FileInfo, error) {
	if err := checkSegment("user_id", userID); err != nil {
		return nil, nil, err
	}
	if err := checkSegment("filename", filename); err != nil {
		return nil, nil, err
	}
	return s.open(filepath.Join(s.root, userID, filename), userID+"/"+filename)
}

// OpenLegacy returns a file stored directly under the root, the layout used
// before uploads were split per user.
func (s *Store) OpenLegacy(filename string) (*os.File, fs.FileInfo, error) {
	if err := checkSegment("filename", filename); err != nil {
		return nil, nil, err
	}
	return s.open(filepath.Join(s.root, filename), filename)
}

func (s *Store) open(full, label string) (*os.File, fs.FileInfo, error) {
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, apperror.NotFound("file", label)
		}
		return nil, nil, apperror.IOFailed("open file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, apperror.IOFailed("stat file", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, apperror.NotFound("file", label)
	}
	return f, info, nil
}

// checkSegment accepts a single, non-special path component.
func checkSegment(field, seg string) error {
	if seg == "" {
		return apperror.MissingField(field)
	}
	if seg == "." || seg == ".." || strings.ContainsAny(seg, "/\\\x00") {
		return apperror.ValidationFailed(field, fmt.Sprintf("invalid %s", field))
	}
	return nil
}

// contextReader stops a long copy once the request is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"fileembed/internal/core"
	"fileembed/internal/server/config"
	"fileembed/internal/server/store"

	"golang.org/x/crypto/blake2b"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound       = errors.New("file not found")
	ErrMissingID      = errors.New("no file id provided")
	ErrFileTooLarge   = errors.New("file exceeds maximum allowed size")
	ErrEncodeFailed   = errors.New("failed to read file")
	ErrInvalidContent = errors.New("content is not a valid data URL")
)

// UploadRequest is a raw file as received from a form or multipart request.
type UploadRequest struct {
	Filename string
	MimeType string
	Data     io.Reader
	Size     int64 // declared size, -1 if unknown
	Author   store.Attribution
}

// SubmitRequest is a file the client already encoded as a data URL.
type SubmitRequest struct {
	Filename string
	Content  string
	Author   store.Attribution
}

// UploadResult is returned after a successful upload.
type UploadResult struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// FileInfo is returned for metadata queries. It never carries content.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	Author     string    `json:"author,omitempty"`
	AuthorIcon string    `json:"author_icon,omitempty"`
	Preview    string    `json:"preview"`
	ViewURL    string    `json:"view_url"`
}

// View is everything the viewer page needs to render one file.
type View struct {
	File        *store.StoredFile
	Mode        core.RenderMode
	ShareURL    string
	DownloadURL string
}

// Download is a decoded file ready to be served.
type Download struct {
	Name     string
	MimeType string
	Data     []byte
	ETag     string
}

// Stats holds aggregate server statistics.
type Stats struct {
	TotalFiles    int64  `json:"total_files"`
	Backend       string `json:"backend"`
	CachedEntries *int   `json:"cached_entries,omitempty"`
}

// FileService contains the business logic for sharing files.
type FileService struct {
	store store.Store
	cfg   *config.Config
}

// NewFileService creates a new file service.
func NewFileService(s store.Store, cfg *config.Config) *FileService {
	return &FileService{store: s, cfg: cfg}
}

// Upload encodes a raw file into a data URL and stores it.
func (s *FileService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Size > s.cfg.MaxFileSize {
		return nil, ErrFileTooLarge
	}

	// The declared type ends up in the data URL header, so only a clean
	// type/subtype is kept.
	mimeType, ok := core.NormalizeMimeType(req.MimeType)
	if !ok {
		mimeType = core.DetectMimeType(req.Filename, nil)
	}

	// Read one byte past the limit so an understated size is still caught.
	limited := &io.LimitedReader{R: req.Data, N: s.cfg.MaxFileSize + 1}
	content, err := core.EncodeReader(limited, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	if limited.N <= 0 {
		return nil, ErrFileTooLarge
	}
	size := s.cfg.MaxFileSize + 1 - limited.N

	return s.put(ctx, store.NewFile{
		Name:      sanitizeFilename(req.Filename),
		MimeType:  mimeType,
		SizeBytes: size,
		Content:   content,
		Author:    trimAttribution(req.Author),
	})
}

// Submit validates client-encoded content and stores it. MIME type and size
// are taken from the decoded payload, not trusted from the client.
func (s *FileService) Submit(ctx context.Context, req SubmitRequest) (*UploadResult, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidContent)
	}
	// base64 inflates by 4/3; reject obviously oversized payloads before decoding.
	if int64(len(req.Content)) > s.cfg.MaxFileSize/3*4+1024 {
		return nil, ErrFileTooLarge
	}

	decoded, err := core.DecodeDataURL(req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if int64(len(decoded.Data)) > s.cfg.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	mimeType, ok := core.NormalizeMimeType(decoded.MimeType)
	if !ok {
		mimeType = core.DetectMimeType(req.Filename, decoded.Data)
	}

	return s.put(ctx, store.NewFile{
		Name:      sanitizeFilename(req.Filename),
		MimeType:  mimeType,
		SizeBytes: int64(len(decoded.Data)),
		Content:   core.EncodeBytes(decoded.Data, mimeType),
		Author:    trimAttribution(req.Author),
	})
}

func (s *FileService) put(ctx context.Context, f store.NewFile) (*UploadResult, error) {
	id, err := s.store.Put(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	slog.Info("file stored",
		"id", id,
		"filename", f.Name,
		"mime_type", f.MimeType,
		"size", f.SizeBytes,
		"has_author", !f.Author.IsZero(),
	)

	return &UploadResult{
		ID:       id,
		URL:      s.ShareURL(id),
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.SizeBytes,
	}, nil
}

// Get looks up a stored file. Unknown and malformed ids are ErrNotFound.
func (s *FileService) Get(ctx context.Context, id string) (*store.StoredFile, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	f, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Exists reports whether id names a stored file.
func (s *FileService) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return s.store.Exists(ctx, id)
}

// GetInfo returns metadata about a file without its content.
func (s *FileService) GetInfo(ctx context.Context, id string) (*FileInfo, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		ID:         f.ID,
		Name:       f.Name,
		MimeType:   f.MimeType,
		Size:       f.SizeBytes,
		CreatedAt:  f.CreatedAt,
		Author:     f.Author.Name,
		AuthorIcon: f.Author.IconURL,
		Preview:    core.RenderModeFor(f.MimeType).String(),
		ViewURL:    s.ShareURL(f.ID),
	}, nil
}

// View loads a file and decides how the viewer renders it.
func (s *FileService) View(ctx context.Context, id string) (*View, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &View{
		File:        f,
		Mode:        core.RenderModeFor(f.MimeType),
		ShareURL:    s.ShareURL(f.ID),
		DownloadURL: "/d/" + f.ID,
	}, nil
}

// Download decodes a stored file back to its original bytes.
func (s *FileService) Download(ctx context.Context, id string) (*Download, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	decoded, err := core.DecodeDataURL(f.Content)
	if err != nil {
		return nil, fmt.Errorf("stored content for %s is corrupt: %w", id, err)
	}

	sum := blake2b.Sum256(decoded.Data)
	return &Download{
		Name:     f.Name,
		MimeType: f.MimeType,
		Data:     decoded.Data,
		ETag:     `"` + hex.EncodeToString(sum[:]) + `"`,
	}, nil
}

// GetStats returns aggregate server statistics.
func (s *FileService) GetStats(ctx context.Context) (*Stats, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalFiles: n, Backend: s.cfg.StoreBackend}
	if cached, ok := s.store.(*store.CachedStore); ok {
		entries := cached.Len()
		stats.CachedEntries = &entries
	}
	return stats, nil
}

// ShareURL builds the public link for a file id.
func (s *FileService) ShareURL(id string) string {
	return s.cfg.BaseURL + "/view/" + id
}

// --- Helpers ---

// sanitizeFilename strips directory components and limits length.
func sanitizeFilename(name string) string {
	// Normalize Windows-style backslashes to forward slashes before
	// calling filepath.Base, which is platform-specific.
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(filepath.Base(name))

	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) > 32 {
			ext = ""
		}
		cut := 255 - len(ext)
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + ext
	}

	if name == "" || name == "." || name == "/" {
		name = "upload"
	}

	return name
}

func trimAttribution(a store.Attribution) store.Attribution {
	return store.Attribution{
		Name:    strings.TrimSpace(a.Name),
		IconURL: strings.TrimSpace(a.IconURL),
	}
}

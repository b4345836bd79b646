package api

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"fileembed/internal/server/database"
	"fileembed/internal/server/service"
	"fileembed/internal/server/store"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the FileEmbed API and pages.
type Handler struct {
	svc     *service.FileService
	db      *database.DB // nil with the memory backend
	maxSize int64
}

// NewHandler creates a new handler with the given service dependency.
func NewHandler(svc *service.FileService, db *database.DB, maxSize int64) *Handler {
	return &Handler{svc: svc, db: db, maxSize: maxSize}
}

// submitBody is the JSON body of POST /api/files.
type submitBody struct {
	Name       string `json:"name"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	AuthorIcon string `json:"author_icon"`
}

// HandleUpload handles POST /api/upload.
// Accepts a multipart form with a "file" field and optional "author" and
// "authorIcon" fields.
func (h *Handler) HandleUpload(c echo.Context) error {
	result, err := h.uploadFromForm(c)
	if err != nil {
		return mapServiceError(c, err)
	}

	filesStoredTotal.WithLabelValues("api").Inc()
	return c.JSON(http.StatusCreated, result)
}

// HandleSubmit handles POST /api/files.
// Accepts content the client already encoded as a data URL.
func (h *Handler) HandleSubmit(c echo.Context) error {
	// base64 plus JSON framing stays well under twice the raw limit.
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, 2*h.maxSize+4096)

	var body submitBody
	if err := c.Bind(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return mapServiceError(c, service.ErrFileTooLarge)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}

	result, err := h.svc.Submit(c.Request().Context(), service.SubmitRequest{
		Filename: body.Name,
		Content:  body.Content,
		Author:   store.Attribution{Name: body.Author, IconURL: body.AuthorIcon},
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	filesStoredTotal.WithLabelValues("submit").Inc()
	return c.JSON(http.StatusCreated, result)
}

// HandleExists handles HEAD /api/files/:id.
func (h *Handler) HandleExists(c echo.Context) error {
	id := fileID(c)
	ok, err := h.svc.Exists(c.Request().Context(), id)
	if err != nil {
		slog.Error("existence check failed", "id", id, "error", err)
		return c.NoContent(http.StatusInternalServerError)
	}
	if !ok {
		lookupsMissedTotal.Inc()
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusOK)
}

// HandleInfo handles GET /api/info/:id.
// Returns file metadata without the content.
func (h *Handler) HandleInfo(c echo.Context) error {
	info, err := h.svc.GetInfo(c.Request().Context(), fileID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDownload handles GET /d/:id.
// Serves the decoded file as an attachment.
func (h *Handler) HandleDownload(c echo.Context) error {
	dl, err := h.svc.Download(c.Request().Context(), fileID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	header := c.Response().Header()
	header.Set("ETag", dl.ETag)
	header.Set("Cache-Control", "public, max-age=31536000, immutable")
	if etagMatches(c.Request().Header.Get("If-None-Match"), dl.ETag) {
		return c.NoContent(http.StatusNotModified)
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	header.Set(echo.HeaderContentDisposition, disposition)

	return c.Blob(http.StatusOK, dl.MimeType, dl.Data)
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity
// when the postgres backend is in use.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "not used"

	if h.db != nil {
		dbStatus = "connected"
		if err := h.db.HealthCheck(c.Request().Context()); err != nil {
			status = "degraded"
			dbStatus = fmt.Sprintf("error: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}

	return c.JSON(http.StatusOK, stats)
}

// --- Pages ---

type indexPage struct {
	Title   string
	MaxSize string
	Error   string
}

type uploadedPage struct {
	Title    string
	URL      string
	Name     string
	MimeType string
	Size     string
}

type viewPage struct {
	Title       string
	Name        string
	Mode        string
	Source      template.URL
	DownloadURL string
	Author      string
	AuthorIcon  string
}

type errorPage struct {
	Title   string
	Message string
}

// HandleIndex handles GET /.
func (h *Handler) HandleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", indexPage{
		Title:   "Upload",
		MaxSize: humanizeBytes(h.maxSize),
	})
}

// HandleUploadForm handles POST /upload from the HTML form.
func (h *Handler) HandleUploadForm(c echo.Context) error {
	result, err := h.uploadFromForm(c)
	if err != nil {
		status, msg := describeServiceError(err)
		if status == http.StatusInternalServerError {
			msg = "There was an error uploading your file. Please try again."
		}
		return c.Render(status, "index.html", indexPage{
			Title:   "Upload",
			MaxSize: humanizeBytes(h.maxSize),
			Error:   msg,
		})
	}

	filesStoredTotal.WithLabelValues("form").Inc()
	return c.Render(http.StatusCreated, "uploaded.html", uploadedPage{
		Title:    "Upload complete",
		URL:      result.URL,
		Name:     result.Name,
		MimeType: result.MimeType,
		Size:     humanizeBytes(result.Size),
	})
}

// HandleView handles GET /view/:id.
func (h *Handler) HandleView(c echo.Context) error {
	id := fileID(c)
	view, err := h.svc.View(c.Request().Context(), id)
	if err != nil {
		status, msg := describeServiceError(err)
		if status == http.StatusNotFound {
			lookupsMissedTotal.Inc()
		}
		if status == http.StatusInternalServerError {
			slog.Error("failed to load file for viewer", "id", id, "error", err)
		}
		return c.Render(status, "error.html", errorPage{Title: "Error", Message: msg})
	}

	fileViewsTotal.WithLabelValues(view.Mode.String()).Inc()
	return c.Render(http.StatusOK, "view.html", viewPage{
		Title: view.File.Name,
		Name:  view.File.Name,
		Mode:  view.Mode.String(),
		// Content is a data URL built by the encoder, never raw user input.
		Source:      template.URL(view.File.Content),
		DownloadURL: view.DownloadURL,
		Author:      view.File.Author.Name,
		AuthorIcon:  view.File.Author.IconURL,
	})
}

// uploadFromForm reads the multipart "file" field and hands it to the service.
func (h *Handler) uploadFromForm(c echo.Context) (*service.UploadResult, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, errFileFieldMissing
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrEncodeFailed, err)
	}
	defer src.Close()

	return h.svc.Upload(c.Request().Context(), service.UploadRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get(echo.HeaderContentType),
		Data:     src,
		Size:     fileHeader.Size,
		Author: store.Attribution{
			Name:    c.FormValue("author"),
			IconURL: c.FormValue("authorIcon"),
		},
	})
}

// fileID returns the :id path parameter with surrounding whitespace removed.
func fileID(c echo.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

// etagMatches reports whether an If-None-Match header matches etag, using
// weak comparison.
func etagMatches(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		if strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

var errFileFieldMissing = errors.New("file is required (use form field 'file')")

// describeServiceError translates service-layer errors into a status code
// and a message safe to show to users.
func describeServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, errFileFieldMissing):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrMissingID):
		return http.StatusNotFound, "No file ID provided"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file exceeds maximum allowed size"
	case errors.Is(err, service.ErrInvalidContent):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrEncodeFailed):
		return http.StatusBadRequest, "failed to read uploaded file"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// mapServiceError writes a JSON error response for a service-layer error.
func mapServiceError(c echo.Context, err error) error {
	status, msg := describeServiceError(err)
	if status == http.StatusNotFound {
		lookupsMissedTotal.Inc()
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// humanizeBytes formats a byte count into a human-readable string.
func humanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

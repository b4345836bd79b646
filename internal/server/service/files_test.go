package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"fileembed/internal/core"
	"fileembed/internal/server/config"
	"fileembed/internal/server/store"
)

// --- Helpers ---

func newTestService(t *testing.T) *FileService {
	t.Helper()
	cfg := &config.Config{
		BaseURL:      "http://share.test",
		StoreBackend: config.BackendMemory,
		MaxFileSize:  1024,
	}
	return NewFileService(store.NewMemoryStore(), cfg)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

// --- Upload ---

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("ten byte text file", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Upload(ctx, UploadRequest{
			Filename: "a.txt",
			MimeType: "text/plain",
			Data:     strings.NewReader("0123456789"),
			Size:     10,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ID == "" {
			t.Fatal("expected non-empty id")
		}
		if result.URL != "http://share.test/view/"+result.ID {
			t.Errorf("unexpected share URL %s", result.URL)
		}

		f, err := svc.Get(ctx, result.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.SizeBytes != 10 || f.Name != "a.txt" || f.MimeType != "text/plain" {
			t.Errorf("unexpected record %+v", f)
		}
		if !f.Author.IsZero() {
			t.Errorf("expected no author, got %+v", f.Author)
		}

		view, err := svc.View(ctx, result.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Mode != core.RenderNone {
			t.Errorf("expected no preview, got %s", view.Mode)
		}
		if view.DownloadURL != "/d/"+result.ID {
			t.Errorf("unexpected download URL %s", view.DownloadURL)
		}
	})

	t.Run("decoded content matches input", func(t *testing.T) {
		svc := newTestService(t)
		original := []byte{0x00, 0xff, 0x10, 0x80, 'x'}

		result, err := svc.Upload(ctx, UploadRequest{
			Filename: "blob.bin",
			MimeType: "application/octet-stream",
			Data:     bytes.NewReader(original),
			Size:     int64(len(original)),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		dl, err := svc.Download(ctx, result.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(dl.Data, original) {
			t.Errorf("expected %v, got %v", original, dl.Data)
		}
		if len(dl.ETag) != 66 {
			t.Errorf("expected quoted 64 char etag, got %q", dl.ETag)
		}
	})

	t.Run("same content twice gets two ids", func(t *testing.T) {
		svc := newTestService(t)
		req := func() UploadRequest {
			return UploadRequest{Filename: "a.txt", MimeType: "text/plain", Data: strings.NewReader("same"), Size: 4}
		}

		first, _ := svc.Upload(ctx, req())
		second, _ := svc.Upload(ctx, req())
		if first.ID == second.ID {
			t.Errorf("expected distinct ids, got %s twice", first.ID)
		}
	})

	t.Run("keeps attribution", func(t *testing.T) {
		svc := newTestService(t)

		result, _ := svc.Upload(ctx, UploadRequest{
			Filename: "me.png",
			MimeType: "image/png",
			Data:     strings.NewReader("png"),
			Size:     3,
			Author:   store.Attribution{Name: "  Ada  ", IconURL: "https://example.com/ada.png"},
		})

		info, err := svc.GetInfo(ctx, result.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Author != "Ada" || info.AuthorIcon != "https://example.com/ada.png" {
			t.Errorf("unexpected attribution %q %q", info.Author, info.AuthorIcon)
		}
		if info.Preview != "image" {
			t.Errorf("expected image preview, got %s", info.Preview)
		}
	})

	t.Run("missing mime type is derived from extension", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Upload(ctx, UploadRequest{Filename: "doc.pdf", Data: strings.NewReader("%PDF"), Size: 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.MimeType != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", result.MimeType)
		}
	})

	t.Run("malformed content type keeps bytes intact", func(t *testing.T) {
		svc := newTestService(t)
		original := []byte{0xff, 0xd8, 0x01, 0x02}

		result, err := svc.Upload(ctx, UploadRequest{
			Filename: "photo.jpg",
			MimeType: "image/jpeg,x",
			Data:     bytes.NewReader(original),
			Size:     int64(len(original)),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.MimeType != "image/jpeg" {
			t.Errorf("expected image/jpeg, got %s", result.MimeType)
		}

		dl, err := svc.Download(ctx, result.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(dl.Data, original) {
			t.Errorf("expected %v, got %q", original, dl.Data)
		}
	})

	t.Run("content type parameters are dropped", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Upload(ctx, UploadRequest{
			Filename: "notes",
			MimeType: "Text/Plain; charset=utf-8",
			Data:     strings.NewReader("hi"),
			Size:     2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.MimeType != "text/plain" {
			t.Errorf("expected text/plain, got %s", result.MimeType)
		}
	})

	t.Run("oversized content type falls back to extension", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Upload(ctx, UploadRequest{
			Filename: "doc.pdf",
			MimeType: "application/" + strings.Repeat("x", 300),
			Data:     strings.NewReader("%PDF"),
			Size:     4,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.MimeType != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", result.MimeType)
		}
	})

	t.Run("declared size over limit", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.Upload(ctx, UploadRequest{Filename: "big", Data: strings.NewReader(""), Size: 2048})
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("understated size is still caught", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.Upload(ctx, UploadRequest{
			Filename: "big",
			Data:     strings.NewReader(strings.Repeat("x", 1025)),
			Size:     -1,
		})
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("exactly at limit is accepted", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Upload(ctx, UploadRequest{
			Filename: "edge",
			Data:     strings.NewReader(strings.Repeat("x", 1024)),
			Size:     1024,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Size != 1024 {
			t.Errorf("expected size 1024, got %d", result.Size)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.Upload(ctx, UploadRequest{Filename: "x", Data: brokenReader{}, Size: 5})
		if !errors.Is(err, ErrEncodeFailed) {
			t.Errorf("expected ErrEncodeFailed, got %v", err)
		}
	})
}

// --- Submit ---

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("uses decoded mime and size", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Submit(ctx, SubmitRequest{
			Filename: "photo.jpg",
			Content:  "data:image/jpeg;base64,/9j/4A==",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.MimeType != "image/jpeg" || result.Size != 4 {
			t.Errorf("unexpected result %+v", result)
		}

		f, _ := svc.Get(ctx, result.ID)
		if f.Content != "data:image/jpeg;base64,/9j/4A==" {
			t.Errorf("unexpected content %q", f.Content)
		}
	})

	t.Run("percent-encoded content is normalized to base64", func(t *testing.T) {
		svc := newTestService(t)

		result, err := svc.Submit(ctx, SubmitRequest{Filename: "n.txt", Content: "data:text/plain,hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f, _ := svc.Get(ctx, result.ID)
		if f.Content != "data:text/plain;base64,aGk=" {
			t.Errorf("unexpected content %q", f.Content)
		}
	})

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty content", "", ErrInvalidContent},
		{"not a data URL", "https://example.com/x.png", ErrInvalidContent},
		{"bad base64", "data:image/png;base64,***", ErrInvalidContent},
		{"decoded too large", core.EncodeBytes(make([]byte, 1025), "text/plain"), ErrFileTooLarge},
		{"encoded too large", "data:text/plain;base64," + strings.Repeat("A", 4096), ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			_, err := svc.Submit(ctx, SubmitRequest{Filename: "x", Content: tt.content})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// --- Lookup ---

func TestLookupMissing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("empty id", func(t *testing.T) {
		if _, err := svc.View(ctx, ""); !errors.Is(err, ErrMissingID) {
			t.Errorf("expected ErrMissingID, got %v", err)
		}
	})

	for _, id := range []string{"neverinserted", "../../etc/passwd"} {
		t.Run(id, func(t *testing.T) {
			if _, err := svc.View(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("View: expected ErrNotFound, got %v", err)
			}
			if _, err := svc.Download(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("Download: expected ErrNotFound, got %v", err)
			}
			if _, err := svc.GetInfo(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetInfo: expected ErrNotFound, got %v", err)
			}
			ok, err := svc.Exists(ctx, id)
			if err != nil || ok {
				t.Errorf("Exists: expected false, got %v (%v)", ok, err)
			}
		})
	}
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	svc.Upload(ctx, UploadRequest{Filename: "a", Data: strings.NewReader("a"), Size: 1})
	svc.Upload(ctx, UploadRequest{Filename: "b", Data: strings.NewReader("b"), Size: 1})

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalFiles != 2 || stats.Backend != config.BackendMemory {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.CachedEntries != nil {
		t.Errorf("expected no cache entries for the memory backend, got %d", *stats.CachedEntries)
	}
}

func TestGetStatsWithCache(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{BaseURL: "http://share.test", StoreBackend: config.BackendPostgres, MaxFileSize: 1024}
	svc := NewFileService(store.NewCachedStore(store.NewMemoryStore(), 8, time.Minute), cfg)

	result, err := svc.Upload(ctx, UploadRequest{Filename: "a", Data: strings.NewReader("a"), Size: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.View(ctx, result.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CachedEntries == nil || *stats.CachedEntries != 1 {
		t.Errorf("expected one cached entry, got %+v", stats.CachedEntries)
	}
}

// --- Filename sanitization ---

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "a.txt", "a.txt"},
		{"strips directory", "/path/to/file.pdf", "file.pdf"},
		{"strips windows path", "C:\\Users\\test\\photo.jpg", "photo.jpg"},
		{"empty name", "", "upload"},
		{"dot name", ".", "upload"},
		{"root", "/", "upload"},
		{"replaces slashes", "a/b/c.mp3", "c.mp3"},
		{"long name keeps extension", strings.Repeat("n", 300) + ".png", strings.Repeat("n", 251) + ".png"},
		{"long multibyte name cut on rune boundary", strings.Repeat("é", 200) + ".txt", strings.Repeat("é", 125) + ".txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if !utf8.ValidString(result) {
				t.Errorf("sanitizeFilename(%q) produced invalid UTF-8", tt.input)
			}
		})
	}
}

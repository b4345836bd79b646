package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeFile(t *testing.T) {
	t.Run("encodes text file with extension mime", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.txt")
		if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
			t.Fatal(err)
		}

		f, err := EncodeFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Name != "a.txt" {
			t.Errorf("expected name a.txt, got %s", f.Name)
		}
		if f.Size != 10 {
			t.Errorf("expected size 10, got %d", f.Size)
		}
		if !strings.HasPrefix(f.MimeType, "text/plain") {
			t.Errorf("expected text/plain mime, got %s", f.MimeType)
		}

		decoded, err := DecodeDataURL(f.Content)
		if err != nil {
			t.Fatalf("content is not a data URL: %v", err)
		}
		if string(decoded.Data) != "0123456789" {
			t.Errorf("unexpected decoded content %q", decoded.Data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := EncodeFile(filepath.Join(t.TempDir(), "nope.bin"))
		if !errors.Is(err, ErrEncode) {
			t.Errorf("expected ErrEncode, got %v", err)
		}
	})
}

func TestDetectMimeType(t *testing.T) {
	t.Run("sniffs content without extension", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		if got := DetectMimeType("picture", png); got != "image/png" {
			t.Errorf("expected image/png, got %s", got)
		}
	})

	t.Run("empty data without extension", func(t *testing.T) {
		if got := DetectMimeType("blob", nil); got != DefaultMimeType {
			t.Errorf("expected %s, got %s", DefaultMimeType, got)
		}
	})
}

func TestNormalizeMimeType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", "image/png", "image/png", true},
		{"drops parameters", "text/plain; charset=utf-8", "text/plain", true},
		{"lowercases", "Image/JPEG", "image/jpeg", true},
		{"comma", "image/jpeg,x", "", false},
		{"no subtype", "image", "", false},
		{"empty", "  ", "", false},
		{"too long", "application/" + strings.Repeat("x", MaxMimeTypeLength), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeMimeType(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeMimeType(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewWithoutCredentials(t *testing.T) {
	c, err := New("", "fsn1", "", "", "media", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c != nil {
		t.Error("expected nil client when storage is not configured")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New("https://s3.example.com", "fsn1", "ak", "sk", "", ""); err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestFileURLAndKeyFromURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		wantURL   string
	}{
		{"path style", "", "https://s3.example.com/media/posts/a.png"},
		{"cdn", "https://cdn.example.com/", "https://cdn.example.com/posts/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("https://s3.example.com/", "fsn1", "ak", "sk", "media", tt.publicURL)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			url := c.FileURL("posts/a.png")
			if url != tt.wantURL {
				t.Errorf("FileURL = %q, want %q", url, tt.wantURL)
			}

			key, ok := c.KeyFromURL(url)
			if !ok || key != "posts/a.png" {
				t.Errorf("KeyFromURL(%q) = (%q, %v), want (posts/a.png, true)", url, key, ok)
			}
		})
	}
}

func TestKeyFromForeignURL(t *testing.T) {
	c, _ := New("https://s3.example.com", "fsn1", "ak", "sk", "media", "")
	if _, ok := c.KeyFromURL("https://elsewhere.example.com/pic.png"); ok {
		t.Error("expected foreign URL to be rejected")
	}
}

func TestImageKey(t *testing.T) {
	id := uuid.New()
	key := ImageKey(id, ".PNG")

	if !strings.HasPrefix(key, ImagePrefix+id.String()+"/") {
		t.Errorf("key %q missing post prefix", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("key %q should end with lowercased extension", key)
	}
	if key == ImageKey(id, ".png") {
		t.Error("expected a fresh key on every call")
	}
}

// ABOUTME: Tests for artwork downloader
// ABOUTME: Tests HTTP download, caching, and error handling
package artwork

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
)

func newTestDownloader(t *testing.T) (*Downloader, afero.Afero) {
	t.Helper()
	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	logger, _ := logtest.NewNullLogger()

	dl, err := NewDownloader(fs, "/cache/artwork", logger)
	if err != nil {
		t.Fatalf("failed to create downloader: %v", err)
	}
	return dl, fs
}

func imageServer(t *testing.T, count *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if count != nil {
			atomic.AddInt32(count, 1)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("fake image data"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewDownloader(t *testing.T) {
	_, fs := newTestDownloader(t)

	if ok, _ := fs.DirExists("/cache/artwork"); !ok {
		t.Error("cache directory was not created")
	}
}

func TestDownloadSuccess(t *testing.T) {
	server := imageServer(t, nil)
	dl, fs := newTestDownloader(t)

	path, err := dl.Download(context.Background(), server.URL+"/image/ab67616d0000b273")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if !strings.HasSuffix(path, ".jpg") {
		t.Errorf("expected default .jpg extension, got %s", path)
	}

	content, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read artwork file: %v", err)
	}
	if string(content) != "fake image data" {
		t.Errorf("expected content 'fake image data', got '%s'", string(content))
	}

	if ok, _ := fs.Exists(path + ".part"); ok {
		t.Error("expected temp file to be renamed")
	}
	if dl.CurrentPath() != path {
		t.Errorf("expected CurrentPath to be %s, got %s", path, dl.CurrentPath())
	}
}

func TestDownloadCaching(t *testing.T) {
	var requestCount int32
	server := imageServer(t, &requestCount)
	dl, _ := newTestDownloader(t)

	path1, err := dl.Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("first download failed: %v", err)
	}

	path2, err := dl.Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second download failed: %v", err)
	}

	if n := atomic.LoadInt32(&requestCount); n != 1 {
		t.Errorf("expected cached download to not hit server, but got %d requests", n)
	}
	if path1 != path2 {
		t.Errorf("expected same path for cached download, got %s and %s", path1, path2)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dl, _ := newTestDownloader(t)

	_, err := dl.Download(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected error to mention 404, got: %v", err)
	}
	if dl.CurrentPath() != "" {
		t.Errorf("expected no current path after failure, got %s", dl.CurrentPath())
	}
}

func TestDownloadEmptyURL(t *testing.T) {
	dl, _ := newTestDownloader(t)

	path, err := dl.Download(context.Background(), "")
	if err != nil {
		t.Errorf("expected no error for empty URL, got: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for empty URL, got: %s", path)
	}
}

func TestDownloadInvalidURL(t *testing.T) {
	dl, _ := newTestDownloader(t)

	if _, err := dl.Download(context.Background(), "not-a-valid-url"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestGetExtension(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://example.com/image.jpg", ".jpg"},
		{"http://example.com/image.png", ".png"},
		{"http://example.com/image.jpg?size=large", ".jpg"},
		{"http://example.com/image", ".jpg"},
		{"https://i.scdn.co/image/ab67616d0000b273", ".jpg"},
	}

	for _, tt := range tests {
		result := getExtension(tt.url)
		if result != tt.expected {
			t.Errorf("getExtension(%q) = %q, expected %q", tt.url, result, tt.expected)
		}
	}
}

func TestCleanup(t *testing.T) {
	server := imageServer(t, nil)
	dl, fs := newTestDownloader(t)

	if _, err := dl.Download(context.Background(), server.URL); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if err := dl.Cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if ok, _ := fs.DirExists("/cache/artwork"); ok {
		t.Error("expected cache directory to be removed")
	}
}

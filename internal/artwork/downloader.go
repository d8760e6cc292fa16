// ABOUTME: Cover art downloader for the current track
// ABOUTME: Fetches cover URLs into a content-addressed cache directory
package artwork

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/spotlink/spotlink/internal/version"
)

// maxImageSize caps a single download.
const maxImageSize = 8 << 20

// Downloader manages artwork downloads
type Downloader struct {
	fs       afero.Afero
	cacheDir string
	client   *http.Client
	log      logrus.FieldLogger

	mu          sync.Mutex
	currentPath string
}

// NewDownloader creates a downloader caching into cacheDir on fs
func NewDownloader(fs afero.Afero, cacheDir string, log logrus.FieldLogger) (*Downloader, error) {
	if err := fs.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Downloader{
		fs:       fs,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}, nil
}

// Download fetches artwork from url and returns its cache path. An empty url
// returns an empty path.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", nil
	}

	cachePath := d.cachePath(url)

	if ok, _ := d.fs.Exists(cachePath); ok {
		d.log.WithField("path", cachePath).Debug("Artwork cache hit")
		d.setCurrent(cachePath)
		return cachePath, nil
	}

	d.log.WithField("url", url).Debug("Downloading artwork")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to download artwork: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artwork download failed: HTTP %d", resp.StatusCode)
	}

	// Write to a temp name first so a partial download is never a cache hit.
	tmpPath := cachePath + ".part"
	f, err := d.fs.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}

	_, copyErr := io.Copy(f, io.LimitReader(resp.Body, maxImageSize))
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		d.fs.Remove(tmpPath)
		if copyErr == nil {
			copyErr = closeErr
		}
		return "", fmt.Errorf("failed to save artwork: %w", copyErr)
	}

	if err := d.fs.Rename(tmpPath, cachePath); err != nil {
		d.fs.Remove(tmpPath)
		return "", fmt.Errorf("failed to save artwork: %w", err)
	}

	d.log.WithField("path", cachePath).Debug("Artwork saved")
	d.setCurrent(cachePath)
	return cachePath, nil
}

// CurrentPath returns the path to the most recent artwork
func (d *Downloader) CurrentPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentPath
}

func (d *Downloader) setCurrent(path string) {
	d.mu.Lock()
	d.currentPath = path
	d.mu.Unlock()
}

func (d *Downloader) cachePath(url string) string {
	hash := sha256.Sum256([]byte(url))
	return filepath.Join(d.cacheDir, fmt.Sprintf("%x%s", hash[:8], getExtension(url)))
}

// getExtension extracts file extension from URL
func getExtension(url string) string {
	url = strings.Split(url, "?")[0]

	ext := filepath.Ext(url)
	if ext == "" || strings.Contains(ext, "/") {
		ext = ".jpg"
	}

	return ext
}

// Cleanup removes all cached artwork
func (d *Downloader) Cleanup() error {
	return d.fs.RemoveAll(d.cacheDir)
}

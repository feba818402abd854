package httpget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
	"github.com/bnema/audiochunk/internal/port"
)

const (
	DefaultFilename  = "downloaded_video.mp4"
	progressInterval = 5 * 1024 * 1024
)

type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// New returns a downloader whose connect and response-header phases are
// bounded by timeout. maxBytes <= 0 disables the size limit.
func New(timeout time.Duration, maxBytes int64) *Downloader {
	dialer := &net.Dialer{Timeout: timeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.ResponseHeaderTimeout = timeout
	transport.TLSHandshakeTimeout = timeout

	return &Downloader{
		client:   &http.Client{Transport: transport},
		maxBytes: maxBytes,
	}
}

func (d *Downloader) Download(ctx context.Context, rawURL, outputDir string) (string, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", domain.ErrDownload, err)
	}
	dst := filepath.Join(outputDir, filenameFromURL(u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	safeURL := logger.SanitizeForLog(u.Redacted())
	logger.Info.Printf("downloading %s", safeURL)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", domain.ErrDownload, resp.StatusCode)
	}
	if d.maxBytes > 0 && resp.ContentLength > d.maxBytes {
		return "", fmt.Errorf("%w: content length %s exceeds limit %s", domain.ErrDownload,
			humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(d.maxBytes)))
	}

	tmp, err := os.CreateTemp(outputDir, ".download-*.part")
	if err != nil {
		return "", fmt.Errorf("%w: create scratch file: %v", domain.ErrDownload, err)
	}
	tmpPath := tmp.Name()

	written, err := d.copyBody(tmp, resp.Body, resp.ContentLength)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}

	logger.Info.Printf("downloaded %s (%s)", safeURL, humanize.IBytes(uint64(written)))
	return dst, nil
}

var errTooLarge = errors.New("response exceeds size limit")

func (d *Downloader) copyBody(dst io.Writer, body io.Reader, total int64) (int64, error) {
	src := body
	if d.maxBytes > 0 {
		src = io.LimitReader(body, d.maxBytes+1)
	}

	pw := &progressWriter{total: total, next: progressInterval}
	n, err := io.Copy(io.MultiWriter(dst, pw), src)
	if err != nil {
		return n, err
	}
	if d.maxBytes > 0 && n > d.maxBytes {
		return n, errTooLarge
	}
	return n, nil
}

type progressWriter struct {
	written int64
	total   int64
	next    int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.written >= p.next {
		if p.total > 0 {
			logger.Info.Printf("download progress: %.1f%% (%s/%s)",
				float64(p.written)/float64(p.total)*100,
				humanize.IBytes(uint64(p.written)), humanize.IBytes(uint64(p.total)))
		} else {
			logger.Info.Printf("download progress: %s", humanize.IBytes(uint64(p.written)))
		}
		for p.next <= p.written {
			p.next += progressInterval
		}
	}
	return len(b), nil
}

func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return u, nil
}

// filenameFromURL uses the last path segment when it carries an extension.
func filenameFromURL(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || path.Ext(name) == "" {
		return DefaultFilename
	}
	name = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 || r == '\\' || r == '/' {
			return '_'
		}
		return r
	}, name)
	if strings.HasPrefix(name, ".") {
		return DefaultFilename
	}
	return name
}

var _ port.Downloader = (*Downloader)(nil)

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Download streams remote resources into the runtime directory with bounded
// retries and linearly increasing backoff.
type Download struct {
	Dir     string
	Retries int
	Timeout time.Duration
	Backoff time.Duration // base backoff step, 1s unless overridden
	Logger  *log.Logger
}

type downloadArgs struct {
	URL string `json:"url"`
}

func (Download) Name() string { return "download_file" }

func (Download) Description() string {
	return "Download a remote file to local storage and return its local path."
}

func (Download) Schema() string {
	return `{
  "type": "object",
  "required": ["url"],
  "properties": {
    "url": {"type": "string", "description": "URL of the file to download"}
  },
  "additionalProperties": false
}`
}

func (d Download) Exec(ctx context.Context, raw json.RawMessage) (string, error) {
	var args downloadArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}
	return d.Fetch(ctx, args.URL)
}

// Fetch downloads rawURL into the configured directory and returns the local
// path. It retries up to Retries times, sleeping one backoff step more after
// each failed attempt, and fails only after all attempts are exhausted.
func (d Download) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("invalid url")
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(d.Dir, localName(rawURL))
	retries := d.Retries
	if retries <= 0 {
		retries = 3
	}
	backoff := d.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	client := &http.Client{Timeout: d.Timeout}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if err := d.fetchOnce(ctx, client, rawURL, dest); err != nil {
			lastErr = err
			d.logf("download attempt %d failed for %s: %v", attempt+1, rawURL, err)
			select {
			case <-time.After(backoff * time.Duration(attempt+1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			continue
		}
		return dest, nil
	}
	return "", fmt.Errorf("failed to download %s after %d attempts: %w", rawURL, retries, lastErr)
}

func (d Download) fetchOnce(ctx context.Context, client *http.Client, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("unexpected status " + resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (d Download) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

// localName derives a destination file name from the URL path, ignoring the
// query string.
func localName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = filepath.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("download_%d.bin", time.Now().Unix())
	}
	return name
}

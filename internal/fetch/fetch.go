// Package fetch retrieves content documents by relative path from a local tree
// or a remote origin.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("fetch: not found")

// Fetcher returns the raw bytes of the document at path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Func adapts an ordinary function to Fetcher.
type Func func(ctx context.Context, path string) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, path string) ([]byte, error) { return f(ctx, path) }

// Error describes a failed fetch of a single document.
type Error struct {
	Path   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// JSON fetches path and decodes it into v. A body that is not valid JSON is a
// fetch failure like any other.
func JSON(ctx context.Context, f Fetcher, path string, v any) error {
	raw, err := f.Fetch(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Path: path, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}

// Text fetches path as a UTF-8 string.
func Text(ctx context.Context, f Fetcher, path string) (string, error) {
	raw, err := f.Fetch(ctx, path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type fsFetcher struct {
	fsys fs.FS
}

// NewFS serves documents from fsys.
func NewFS(fsys fs.FS) Fetcher {
	return &fsFetcher{fsys: fsys}
}

// NewDir serves documents from a directory on disk.
func NewDir(root string) Fetcher {
	return NewFS(os.DirFS(root))
}

func (f *fsFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Path: p, Err: err}
	}
	name, ok := cleanPath(p)
	if !ok {
		return nil, &Error{Path: p, Err: ErrNotFound}
	}
	raw, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: p, Err: ErrNotFound}
		}
		return nil, &Error{Path: p, Err: err}
	}
	return raw, nil
}

type httpFetcher struct {
	baseURL string
	http    *http.Client
}

// NewHTTP fetches documents relative to baseURL.
func NewHTTP(baseURL string, timeout time.Duration) Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpFetcher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	name, ok := cleanPath(p)
	if !ok {
		return nil, &Error{Path: p, Err: ErrNotFound}
	}
	endpoint, err := url.JoinPath(f.baseURL, strings.Split(name, "/")...)
	if err != nil {
		return nil, &Error{Path: p, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Path: p, Err: err}
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &Error{Path: p, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, &Error{Path: p, Status: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{Path: p, Status: resp.StatusCode, Err: fmt.Errorf("remote status %d", resp.StatusCode)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Path: p, Err: err}
	}
	return raw, nil
}

// cleanPath turns a document path into an fs.FS name, rejecting traversal.
func cleanPath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "\\") {
		return "", false
	}
	name := path.Clean(strings.TrimPrefix(p, "/"))
	if name == "." || strings.HasPrefix(name, "..") || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

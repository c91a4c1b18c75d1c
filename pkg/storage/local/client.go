package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
)

// Client persists media blobs on the local filesystem under a base directory.
type Client struct {
	baseDir string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New prepares the base directory and returns a filesystem-backed client.
func New(cfg config.StorageConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("storage base dir is required")
	}
	abs, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving storage base dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage base dir: %w", err)
	}
	return &Client{baseDir: abs}, nil
}

// Write streams the reader into a new blob at key. Existing blobs are not overwritten.
func (c *Client) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	path, err := c.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("creating blob %s: %w", key, err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("writing blob %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("closing blob %s: %w", key, err)
	}
	return written, nil
}

// Open returns a reader over the stored blob. The caller owns closing it.
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening blob %s: %w", key, err)
	}
	return f, nil
}

// Delete removes the blob at key. Missing blobs are treated as already deleted.
func (c *Client) Delete(ctx context.Context, key string) error {
	path, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob is present at key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	path, err := c.resolve(key)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ping verifies the base directory is still writable.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(c.baseDir)
	if err != nil {
		return fmt.Errorf("storage base dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage base path %s is not a directory", c.baseDir)
	}
	return nil
}

// resolve joins key to the base directory and rejects traversal outside it.
func (c *Client) resolve(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("storage key is required")
	}
	path := filepath.Join(c.baseDir, filepath.Clean("/"+key))
	if path != c.baseDir && !strings.HasPrefix(path, c.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage key %q escapes base dir", key)
	}
	return path, nil
}

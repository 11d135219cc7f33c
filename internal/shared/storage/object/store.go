package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Store opens stored objects for reading.
type Store interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Location identifies one object: the backend, its root and the key under it.
type Location struct {
	Scheme string
	Root   string
	Key    string
}

// ErrTooLarge is returned by ReadAll when an object exceeds the size cap.
var ErrTooLarge = errors.New("object exceeds size limit")

// ParseURI splits s3://bucket/key, file:///path and bare paths into a Location.
// Bare paths and file URIs use the directory as Root and the base name as Key.
func ParseURI(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, errors.New("object uri is empty")
	}
	if !strings.Contains(raw, "://") {
		return fileLocation(raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse object uri: %w", err)
	}
	switch u.Scheme {
	case "file":
		return fileLocation(u.Path)
	case "s3":
		key := strings.TrimLeft(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("s3 uri %q needs a bucket and key", raw)
		}
		return Location{Scheme: "s3", Root: u.Host, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("unsupported object uri scheme %q", u.Scheme)
	}
}

func fileLocation(p string) (Location, error) {
	p = strings.TrimSpace(p)
	idx := strings.LastIndex(p, "/")
	root, key := ".", p
	if idx >= 0 {
		root, key = p[:idx], p[idx+1:]
		if root == "" {
			root = "/"
		}
	}
	if key == "" {
		return Location{}, fmt.Errorf("file uri %q has no file name", p)
	}
	return Location{Scheme: "file", Root: root, Key: key}, nil
}

// ReadAll opens key and reads at most maxBytes from it.
func ReadAll(ctx context.Context, store Store, key string, maxBytes int64) ([]byte, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, key, maxBytes)
	}
	return data, nil
}

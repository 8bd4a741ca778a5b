// Package storage provides the binary image store behind recipe image
// uploads. The store only sees bytes that already passed image validation;
// it returns a reference the API can hand back to clients.
package storage

import (
	"context"
	"io"
)

// ImageStore persists validated image bytes under a key and returns a
// retrievable reference (a URL path for the file backend, an object URL for
// S3).
type ImageStore interface {
	Save(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no bytes exist under a storage key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Save(ctx context.Context, namespace, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// OpenRange returns a reader yielding at most length bytes starting at offset.
	OpenRange(ctx context.Context, storageKey string, offset, length int64) (io.ReadCloser, error)
	// Stat returns the current size of the stored object.
	Stat(ctx context.Context, storageKey string) (int64, error)
	// Locator renders the key in a form an external process can resolve.
	Locator(storageKey string) string
}

package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage. Used to archive settled-bet
// exports.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// multipartPutter is the optional upload capability for large payloads. The
// S3 writer implements it; writers that do not are always used via Put.
type multipartPutter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, contentType string, partSize int64) error
}

// multipartThreshold is the payload size at which ArchiveBets switches from
// a single PutObject to a multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// Archiver renders settled bets to CSV and uploads the file to object
// storage under a date-stamped key. Copies already served to the caller are
// unaffected; archival is an additional, best-effort step.
type Archiver struct {
	writer    domain.BlobWriter
	now       func() time.Time
	threshold int64
}

// NewArchiver creates an Archiver backed by the given blob writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{
		writer:    writer,
		now:       time.Now,
		threshold: multipartThreshold,
	}
}

// ArchiveBets uploads the CSV rendering of bets and returns the object key,
// e.g. "exports/betgo-2025-03-01.csv". Re-archiving on the same day
// overwrites the previous object. Payloads past the multipart threshold go
// through the writer's multipart path when it offers one.
func (a *Archiver) ArchiveBets(ctx context.Context, bets []domain.VirtualBet) (string, error) {
	var buf bytes.Buffer
	if err := WriteBetsCSV(&buf, bets); err != nil {
		return "", fmt.Errorf("export: render archive csv: %w", err)
	}

	key := archiveKey(a.now())
	if mp, ok := a.writer.(multipartPutter); ok && int64(buf.Len()) >= a.threshold {
		if err := mp.PutMultipart(ctx, key, &buf, "text/csv", 0); err != nil {
			return "", fmt.Errorf("export: multipart upload %s: %w", key, err)
		}
		return key, nil
	}
	if err := a.writer.Put(ctx, key, &buf, "text/csv"); err != nil {
		return "", fmt.Errorf("export: upload %s: %w", key, err)
	}
	return key, nil
}

func archiveKey(at time.Time) string {
	return fmt.Sprintf("exports/betgo-%s.csv", at.UTC().Format("2006-01-02"))
}

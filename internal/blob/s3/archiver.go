package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calebmorris/steamerbot/internal/domain"
)

// archivePageSize bounds the rows pulled per JSONL object so a long outage
// does not turn into one giant upload.
const archivePageSize = 5000

// SnapshotArchiver drains expired mid-price snapshots into JSONL objects on
// S3 before they are pruned from the primary store.
type SnapshotArchiver struct {
	writer *Writer
	store  domain.SnapshotStore
}

// NewSnapshotArchiver creates a SnapshotArchiver.
func NewSnapshotArchiver(writer *Writer, store domain.SnapshotStore) *SnapshotArchiver {
	return &SnapshotArchiver{writer: writer, store: store}
}

// Archive repeatedly lists the oldest snapshots before cutoff, uploads each
// page as one object, and prunes the page only after its upload succeeded. A
// failed upload leaves the rows in place for the next run; the worst case on
// retry is a duplicate object, never a lost one.
func (a *SnapshotArchiver) Archive(ctx context.Context, cutoff time.Time) (int64, error) {
	var archived int64
	for {
		page, err := a.store.ListBefore(ctx, cutoff, archivePageSize)
		if err != nil {
			return archived, fmt.Errorf("s3blob: archive snapshots query: %w", err)
		}
		if len(page) == 0 {
			return archived, nil
		}

		buf, err := marshalJSONL(page)
		if err != nil {
			return archived, fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
		}

		path := archivePath(page[0].TS)
		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return archived, fmt.Errorf("s3blob: archive snapshots upload: %w", err)
		}
		archived += int64(len(page))

		// Prune what was just uploaded. ListBefore is oldest-first, so
		// everything at or before the page's newest timestamp is covered by
		// this or an earlier upload.
		pageEnd := page[len(page)-1].TS.Add(time.Nanosecond)
		if _, err := a.store.DeleteBefore(ctx, pageEnd); err != nil {
			return archived, fmt.Errorf("s3blob: prune archived snapshots: %w", err)
		}
		if len(page) < archivePageSize {
			return archived, nil
		}
	}
}

// archivePath builds the S3 key for one snapshot page, partitioned by the
// day of the oldest record it holds.
//
//	archive/snapshots/2026/08/29/143005-<uuid>.jsonl
func archivePath(oldest time.Time) string {
	return fmt.Sprintf("archive/snapshots/%s-%s.jsonl",
		oldest.UTC().Format("2006/01/02/150405"), uuid.NewString())
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL(records []domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

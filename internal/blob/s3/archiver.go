package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// Archiver implements domain.SessionArchiver by serializing a finished
// trading session together with its metrics to a single JSON document and
// uploading it to S3. Deletion or pruning of archived sessions is a
// separate, explicit operation and is not performed here.
type Archiver struct {
	writer domain.BlobWriter
}

var _ domain.SessionArchiver = (*Archiver)(nil)

// NewArchiver creates a new Archiver that uploads through the given writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// sessionArchive is the stored document format. Sessions and metrics are
// archived together so a single object fully describes one run.
type sessionArchive struct {
	ArchivedAt time.Time             `json:"archived_at"`
	Session    domain.TradingSession `json:"session"`
	Metrics    domain.Metrics        `json:"metrics"`
}

// ArchiveSession serializes the session and metrics and uploads them to
// sessions/YYYY/MM/DD/session-<id>.json, partitioned by the session start
// date in UTC. The object key is returned on success.
func (a *Archiver) ArchiveSession(ctx context.Context, session domain.TradingSession, metrics domain.Metrics) (string, error) {
	doc := sessionArchive{
		ArchivedAt: time.Now().UTC(),
		Session:    session,
		Metrics:    metrics,
	}

	buf, err := marshalIndented(doc)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive session %s: %w", session.ID, err)
	}

	key := sessionKey(session)
	if err := a.writer.Put(ctx, key, buf, "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive session %s: %w", session.ID, err)
	}

	return key, nil
}

// sessionKey builds the S3 key for a session archive, partitioned by the
// session start date:
//
//	sessions/2025/09/01/session-8d1c2f4a.json
func sessionKey(session domain.TradingSession) string {
	day := session.StartTime.UTC()
	return fmt.Sprintf("sessions/%s/session-%s.json", day.Format("2006/01/02"), session.ID)
}

// marshalIndented serializes v as indented JSON with HTML escaping disabled,
// keeping the archived documents readable when fetched directly.
func marshalIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

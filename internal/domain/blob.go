package domain

import "context"

// BlobWriter uploads an object to durable blob storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// SessionArchiver writes a finished trading session, including its metrics,
// to long-term storage.
type SessionArchiver interface {
	ArchiveSession(ctx context.Context, session TradingSession, metrics Metrics) (string, error)
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"newsbrief/common"
	"newsbrief/types"
)

// ObjectStore is the subset of common.S3 the exporter needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

var _ ObjectStore = (*common.S3)(nil)

const latestObject = "latest"

// Export writes every persisted record to object storage as
// <prefix>briefings/<date_key>.json and mirrors it to <prefix>briefings/latest.json.
type Export struct {
	objects ObjectStore
	prefix  string
}

func NewExport(objects ObjectStore, prefix string) *Export {
	return &Export{objects: objects, prefix: prefix}
}

func (e *Export) Name() string { return "s3" }

// Key returns the object key for a session.
func (e *Export) Key(dateKey string) string {
	return e.prefix + path.Join("briefings", dateKey+".json")
}

func (e *Export) Put(ctx context.Context, rec types.BriefingRecord) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	for _, key := range []string{e.Key(rec.DateKey), e.Key(latestObject)} {
		if err := e.objects.Put(ctx, key, bytes.NewReader(b), "application/json"); err != nil {
			return fmt.Errorf("s3 put %s: %w", key, err)
		}
	}
	return nil
}

// Latest reads the most recent export back. A missing object returns nil
// without error.
func (e *Export) Latest(ctx context.Context) (*types.BriefingRecord, error) {
	key := e.Key(latestObject)
	body, err := e.objects.Get(ctx, key)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer body.Close()

	var rec types.BriefingRecord
	if err := json.NewDecoder(body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &rec, nil
}

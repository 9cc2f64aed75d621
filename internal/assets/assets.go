// Package assets is the engine's narrow view of the surrounding
// system's asset storage: it resolves asset identifiers to metadata and
// hands out short-lived download URLs. Asset bytes are never read here.
package assets

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Asset is the stored metadata for one shared file.
type Asset struct {
	ID          uuid.UUID
	Name        string
	ContentType string
	SizeBytes   int64
	ObjectKey   string
}

// Catalog resolves asset identifiers to their stored metadata.
type Catalog interface {
	Resolve(ctx context.Context, id uuid.UUID) (Asset, error)
}

// ObjectStore hands out presigned download URLs for stored objects.
type ObjectStore interface {
	PresignDownload(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error)
}

package sharelink

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SettingsUpdate is a partial update of a link's mutable policy fields.
// Nil pointers leave a field unchanged; the Clear flags overwrite with
// NULL. Counters, token and ownership are not reachable from here.
type SettingsUpdate struct {
	ExpiresAt     *time.Time
	ClearExpiry   bool
	PasswordHash  *string
	ClearPassword bool
	AllowDownload *bool
}

// SortKey selects the admin-listing sort column.
type SortKey string

const (
	SortCreatedAt     SortKey = "created_at"
	SortExpiresAt     SortKey = "expires_at"
	SortViewCount     SortKey = "view_count"
	SortDownloadCount SortKey = "download_count"
	SortAssetName     SortKey = "asset_name"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortCreatedAt, SortExpiresAt, SortViewCount, SortDownloadCount, SortAssetName:
		return true
	default:
		return false
	}
}

// ExpiryFilter selects which expiry bucket the admin listing returns.
type ExpiryFilter string

const (
	ExpiryFilterAll          ExpiryFilter = "all"
	ExpiryFilterExpired      ExpiryFilter = "expired"
	ExpiryFilterExpiringSoon ExpiryFilter = "expiring_soon"
	ExpiryFilterNever        ExpiryFilter = "never"
)

// Valid reports whether f is a known expiry filter.
func (f ExpiryFilter) Valid() bool {
	switch f {
	case ExpiryFilterAll, ExpiryFilterExpired, ExpiryFilterExpiringSoon, ExpiryFilterNever:
		return true
	default:
		return false
	}
}

// ListQuery is the storage-level shape of an admin listing request.
// Now anchors the expiry-bucket predicates so the whole page is
// evaluated against one instant.
type ListQuery struct {
	Search      string
	IsActive    *bool
	HasPassword *bool
	Expiry      ExpiryFilter
	SortBy      SortKey
	SortDesc    bool
	Limit       int
	Offset      int
	Now         time.Time
}

// Repository defines the persistence operations for share links and
// their audit trail. RecordAccess must apply the counter increment and
// the log append atomically; evaluation reads must see a single fresh
// snapshot of the row.
type Repository interface {
	CreateLink(ctx context.Context, link ShareLink) (ShareLink, error)
	GetLinkByToken(ctx context.Context, token string) (ShareLink, error)
	GetLinkByID(ctx context.Context, id uuid.UUID) (ShareLink, error)
	RecordAccess(ctx context.Context, entry AccessLogEntry) error
	SetLinkActive(ctx context.Context, id uuid.UUID, active bool) (ShareLink, error)
	UpdateLinkSettings(ctx context.Context, id uuid.UUID, upd SettingsUpdate) (ShareLink, error)
	ListLinks(ctx context.Context, q ListQuery) ([]ShareLinkSummary, int64, error)
	ListAccessLogs(ctx context.Context, linkID uuid.UUID, limit, offset int) ([]AccessLogEntry, int64, error)
}

package sharelink

import (
	"time"

	"github.com/google/uuid"
)

// AccessType classifies what a holder is trying to do with the asset.
type AccessType string

const (
	AccessView     AccessType = "view"
	AccessDownload AccessType = "download"
)

// Valid reports whether t is a known access type.
func (t AccessType) Valid() bool {
	return t == AccessView || t == AccessDownload
}

// ShareLink pairs an opaque public token with access policy for one
// stored asset. Token, AssetID and CreatedByID never change after issue;
// counters only ever grow.
type ShareLink struct {
	ID            uuid.UUID
	Token         string
	AssetID       uuid.UUID
	CreatedByID   uuid.UUID
	PasswordHash  *string
	AllowDownload bool
	ExpiresAt     *time.Time
	IsActive      bool
	ViewCount     int64
	DownloadCount int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether access requires a password.
func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != nil
}

// ExpiredAt reports whether the link's expiry has passed at the given
// instant. Links without an expiry never expire.
func (l *ShareLink) ExpiredAt(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return !l.ExpiresAt.After(now)
}

// ExpiryStatus is the operator-facing expiry bucket of a link. It is
// derived from ExpiresAt and the clock at query time, never stored.
type ExpiryStatus string

const (
	ExpiryNever        ExpiryStatus = "never"
	ExpiryExpired      ExpiryStatus = "expired"
	ExpiryExpiringSoon ExpiryStatus = "expiring_soon"
	ExpiryActive       ExpiryStatus = "active"
)

// ExpiringSoonWindow is how close an expiry has to be for a link to
// count as expiring soon.
const ExpiringSoonWindow = 24 * time.Hour

// ExpiryStatusAt buckets the link's expiry relative to now.
func (l *ShareLink) ExpiryStatusAt(now time.Time) ExpiryStatus {
	switch {
	case l.ExpiresAt == nil:
		return ExpiryNever
	case !l.ExpiresAt.After(now):
		return ExpiryExpired
	case l.ExpiresAt.Sub(now) < ExpiringSoonWindow:
		return ExpiryExpiringSoon
	default:
		return ExpiryActive
	}
}

// AccessLogEntry is one immutable audit record of a successful access.
// Rows are append-only; nothing in this module updates or deletes them.
type AccessLogEntry struct {
	ID          uuid.UUID
	ShareLinkID uuid.UUID
	AccessType  AccessType
	IPAddress   *string
	UserAgent   *string
	Country     *string
	CreatedAt   time.Time
}

// ShareLinkSummary is a ShareLink joined with the display fields the
// admin listing needs, plus the derived expiry bucket.
type ShareLinkSummary struct {
	ShareLink
	AssetName    string
	CreatorName  string
	CreatorEmail string
	ExpiryStatus ExpiryStatus
}

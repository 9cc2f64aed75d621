package sharelink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/sharelinks/internal/errx"
	"github.com/sundayezeilo/sharelinks/internal/passhash"
	"github.com/sundayezeilo/sharelinks/tokengen"
)

const (
	DefaultPageSize     = 20
	MaxPageSize         = 100
	DefaultTokenRetries = 3
	MaxPasswordLength   = 256
	MaxSearchLength     = 256
)

// Clock supplies the current time. Injectable so expiry behavior is
// testable without sleeping.
type Clock func() time.Time

// CreateLinkRequest represents the parameters for issuing a new link.
type CreateLinkRequest struct {
	AssetID       uuid.UUID
	CreatedByID   uuid.UUID
	ExpiresAt     *time.Time
	Password      string // optional; empty means no password protection
	AllowDownload *bool  // optional; defaults to true
}

// UpdateSettingsRequest is a partial edit of a link's policy. Omitted
// fields stay unchanged; the Clear flags explicitly remove protection
// or expiry.
type UpdateSettingsRequest struct {
	ExpiresAt     *time.Time
	ClearExpiry   bool
	Password      string
	ClearPassword bool
	AllowDownload *bool
}

// AccessMeta is the best-effort request metadata recorded with each
// successful access. Empty strings are stored as NULL.
type AccessMeta struct {
	IPAddress string
	UserAgent string
	Country   string
}

// ListRequest represents an admin listing request.
type ListRequest struct {
	Search      string
	IsActive    *bool
	HasPassword *bool
	Expiry      ExpiryFilter // empty means all
	SortBy      SortKey      // empty means created_at
	SortDesc    bool
	Page        int // 1-based; zero means first page
	PageSize    int // zero means DefaultPageSize
}

// Page is one page of admin listing results.
type Page struct {
	Items      []ShareLinkSummary
	TotalCount int64
	HasMore    bool
}

// LogPage is one page of a link's audit trail.
type LogPage struct {
	Items      []AccessLogEntry
	TotalCount int64
	HasMore    bool
}

// Service defines the business operations of the share-link engine.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (ShareLink, error)
	Evaluate(ctx context.Context, token, suppliedPassword string, accessType AccessType) (Decision, error)
	RecordAccess(ctx context.Context, linkID uuid.UUID, accessType AccessType, meta AccessMeta) error
	Revoke(ctx context.Context, id uuid.UUID) (ShareLink, error)
	Reactivate(ctx context.Context, id uuid.UUID) (ShareLink, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, req UpdateSettingsRequest) (ShareLink, error)
	List(ctx context.Context, req ListRequest) (Page, error)
	AccessLogs(ctx context.Context, linkID uuid.UUID, page, pageSize int) (LogPage, error)
}

// service implements the Service interface.
type service struct {
	repo            Repository
	tokens          tokengen.Generator
	hasher          passhash.Hasher
	now             Clock
	tokenMaxRetries int
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	TokenGenerator  tokengen.Generator
	Hasher          passhash.Hasher
	Clock           Clock
	TokenMaxRetries int // attempts when a generated token collides (default: 3)
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	tokens := config.TokenGenerator
	if tokens == nil {
		tokens = tokengen.NewOpaque()
	}

	hasher := config.Hasher
	if hasher == nil {
		hasher = passhash.NewArgon2id()
	}

	now := config.Clock
	if now == nil {
		now = time.Now
	}

	retries := config.TokenMaxRetries
	if retries <= 0 {
		retries = DefaultTokenRetries
	}

	return &service{
		repo:            repo,
		tokens:          tokens,
		hasher:          hasher,
		now:             now,
		tokenMaxRetries: retries,
	}
}

// Create issues a new share link with a fresh opaque token.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (ShareLink, error) {
	const op = "sharelink.service.Create"

	if req.AssetID == uuid.Nil {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("asset id is required"))
	}
	if req.CreatedByID == uuid.Nil {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("creator id is required"))
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("expiration must be in the future"))
	}
	if len(req.Password) > MaxPasswordLength {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("password too long"))
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return ShareLink{}, errx.E(op, errx.Unavailable, err)
		}
		passwordHash = &hash
	}

	allowDownload := true
	if req.AllowDownload != nil {
		allowDownload = *req.AllowDownload
	}

	// Token collisions are astronomically unlikely at 256 bits, but the
	// unique constraint is still the arbiter; retry on conflict.
	for range s.tokenMaxRetries {
		token, err := s.tokens.Generate()
		if err != nil {
			return ShareLink{}, errx.E(op, errx.Unavailable, err)
		}

		created, err := s.repo.CreateLink(ctx, ShareLink{
			Token:         token,
			AssetID:       req.AssetID,
			CreatedByID:   req.CreatedByID,
			PasswordHash:  passwordHash,
			AllowDownload: allowDownload,
			ExpiresAt:     req.ExpiresAt,
		})
		if err == nil {
			return created, nil
		}

		if errx.KindOf(err) != errx.Conflict {
			return ShareLink{}, errx.E(op, errx.KindOf(err), err)
		}
	}

	return ShareLink{}, errx.E(op, errx.Unavailable,
		errors.New("could not generate unique token after retries"))
}

// Evaluate decides whether a presented token may access its asset. It
// has no side effects and may run in parallel without limit; callers
// record the access separately, once per logical access.
//
// The check order is fixed: lookup, revocation, expiry, password,
// download permission. Each step short-circuits.
func (s *service) Evaluate(ctx context.Context, token, suppliedPassword string, accessType AccessType) (Decision, error) {
	const op = "sharelink.service.Evaluate"

	if !accessType.Valid() {
		return Decision{}, errx.E(op, errx.Invalid, errors.New("unknown access type"))
	}

	// Malformed tokens cannot exist; skip the storage read entirely.
	if err := tokengen.Validate(token); err != nil {
		return Deny(DenyNotFound), nil
	}

	link, err := s.repo.GetLinkByToken(ctx, token)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			return Deny(DenyNotFound), nil
		}
		return Decision{}, errx.E(op, errx.KindOf(err), err)
	}

	if !link.IsActive {
		return Deny(DenyRevoked), nil
	}

	if link.ExpiredAt(s.now()) {
		return Deny(DenyExpired), nil
	}

	if link.PasswordHash != nil {
		if suppliedPassword == "" {
			return Deny(DenyPasswordRequired), nil
		}
		ok, err := s.hasher.Verify(*link.PasswordHash, suppliedPassword)
		if err != nil {
			return Decision{}, errx.E(op, errx.Unavailable, err)
		}
		if !ok {
			return Deny(DenyPasswordIncorrect), nil
		}
	}

	if accessType == AccessDownload && !link.AllowDownload {
		return Deny(DenyDownloadNotAllowed), nil
	}

	return Allow(&link), nil
}

// RecordAccess increments the matching usage counter and appends one
// audit entry, atomically. Call it exactly once per allowed access.
func (s *service) RecordAccess(ctx context.Context, linkID uuid.UUID, accessType AccessType, meta AccessMeta) error {
	const op = "sharelink.service.RecordAccess"

	if linkID == uuid.Nil {
		return errx.E(op, errx.Invalid, errors.New("link id is required"))
	}
	if !accessType.Valid() {
		return errx.E(op, errx.Invalid, errors.New("unknown access type"))
	}

	entry := AccessLogEntry{
		ShareLinkID: linkID,
		AccessType:  accessType,
		IPAddress:   optional(meta.IPAddress),
		UserAgent:   optional(meta.UserAgent),
		Country:     optional(meta.Country),
	}

	if err := s.repo.RecordAccess(ctx, entry); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	return nil
}

// Revoke deactivates a link. Revoking an already-revoked link is a
// no-op success.
func (s *service) Revoke(ctx context.Context, id uuid.UUID) (ShareLink, error) {
	const op = "sharelink.service.Revoke"

	if id == uuid.Nil {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("link id is required"))
	}

	link, err := s.repo.SetLinkActive(ctx, id, false)
	if err != nil {
		return ShareLink{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

// Reactivate re-enables a revoked link. It touches nothing but the
// active flag: an expiry already in the past keeps the link denied
// until settings are edited.
func (s *service) Reactivate(ctx context.Context, id uuid.UUID) (ShareLink, error) {
	const op = "sharelink.service.Reactivate"

	if id == uuid.Nil {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("link id is required"))
	}

	link, err := s.repo.SetLinkActive(ctx, id, true)
	if err != nil {
		return ShareLink{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

// UpdateSettings partially edits a link's policy. Counters and the
// audit trail are untouched.
func (s *service) UpdateSettings(ctx context.Context, id uuid.UUID, req UpdateSettingsRequest) (ShareLink, error) {
	const op = "sharelink.service.UpdateSettings"

	if id == uuid.Nil {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("link id is required"))
	}
	if req.ClearExpiry && req.ExpiresAt != nil {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("cannot both set and clear expiration"))
	}
	if req.ClearPassword && req.Password != "" {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("cannot both set and clear password"))
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("expiration must be in the future"))
	}
	if len(req.Password) > MaxPasswordLength {
		return ShareLink{}, errx.E(op, errx.Invalid, errors.New("password too long"))
	}

	if _, err := s.repo.GetLinkByID(ctx, id); err != nil {
		return ShareLink{}, errx.E(op, errx.KindOf(err), err)
	}

	upd := SettingsUpdate{
		ExpiresAt:     req.ExpiresAt,
		ClearExpiry:   req.ClearExpiry,
		ClearPassword: req.ClearPassword,
		AllowDownload: req.AllowDownload,
	}

	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return ShareLink{}, errx.E(op, errx.Unavailable, err)
		}
		upd.PasswordHash = &hash
	}

	link, err := s.repo.UpdateLinkSettings(ctx, id, upd)
	if err != nil {
		// The link existed a moment ago; a vanished row here means it
		// was deleted out from under this edit.
		if errx.KindOf(err) == errx.NotFound {
			return ShareLink{}, errx.E(op, errx.Conflict, err)
		}
		return ShareLink{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

// List returns one page of the operator's link listing. Expiry buckets
// are computed against the clock at query time, never stored.
func (s *service) List(ctx context.Context, req ListRequest) (Page, error) {
	const op = "sharelink.service.List"

	if len(req.Search) > MaxSearchLength {
		return Page{}, errx.E(op, errx.Invalid, errors.New("search term too long"))
	}

	expiry := req.Expiry
	if expiry == "" {
		expiry = ExpiryFilterAll
	}
	if !expiry.Valid() {
		return Page{}, errx.E(op, errx.Invalid, errors.New("unknown expiry filter"))
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = SortCreatedAt
	}
	if !sortBy.Valid() {
		return Page{}, errx.E(op, errx.Invalid, errors.New("unknown sort key"))
	}

	page, pageSize, err := normalizePaging(req.Page, req.PageSize)
	if err != nil {
		return Page{}, errx.E(op, errx.Invalid, err)
	}

	now := s.now()
	offset := (page - 1) * pageSize

	items, total, err := s.repo.ListLinks(ctx, ListQuery{
		Search:      req.Search,
		IsActive:    req.IsActive,
		HasPassword: req.HasPassword,
		Expiry:      expiry,
		SortBy:      sortBy,
		SortDesc:    req.SortDesc,
		Limit:       pageSize,
		Offset:      offset,
		Now:         now,
	})
	if err != nil {
		return Page{}, errx.E(op, errx.KindOf(err), err)
	}

	for i := range items {
		items[i].ExpiryStatus = items[i].ExpiryStatusAt(now)
	}

	return Page{
		Items:      items,
		TotalCount: total,
		HasMore:    int64(offset+len(items)) < total,
	}, nil
}

// AccessLogs returns one page of a link's audit trail, newest first.
func (s *service) AccessLogs(ctx context.Context, linkID uuid.UUID, page, pageSize int) (LogPage, error) {
	const op = "sharelink.service.AccessLogs"

	if linkID == uuid.Nil {
		return LogPage{}, errx.E(op, errx.Invalid, errors.New("link id is required"))
	}

	page, pageSize, err := normalizePaging(page, pageSize)
	if err != nil {
		return LogPage{}, errx.E(op, errx.Invalid, err)
	}

	if _, err := s.repo.GetLinkByID(ctx, linkID); err != nil {
		return LogPage{}, errx.E(op, errx.KindOf(err), err)
	}

	offset := (page - 1) * pageSize
	items, total, err := s.repo.ListAccessLogs(ctx, linkID, pageSize, offset)
	if err != nil {
		return LogPage{}, errx.E(op, errx.KindOf(err), err)
	}

	return LogPage{
		Items:      items,
		TotalCount: total,
		HasMore:    int64(offset+len(items)) < total,
	}, nil
}

func normalizePaging(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, errors.New("page must be at least 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return 0, 0, errors.New("page size out of range")
	}
	return page, pageSize, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

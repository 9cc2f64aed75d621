package sharelink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/sharelinks/internal/assets"
	"github.com/sundayezeilo/sharelinks/internal/errx"
	"github.com/sundayezeilo/sharelinks/internal/httpx"
)

// UserIDHeader carries the authenticated operator identity, set by the
// upstream auth gateway. The engine only stores it as an opaque value.
const UserIDHeader = "X-User-ID"

// HTTPCreateLinkRequest represents the JSON request body for issuing a link.
type HTTPCreateLinkRequest struct {
	AssetID       string     `json:"asset_id"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Password      string     `json:"password,omitempty"`
	AllowDownload *bool      `json:"allow_download,omitempty"`
}

// HTTPUpdateSettingsRequest represents the JSON request body for a
// partial settings edit.
type HTTPUpdateSettingsRequest struct {
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ClearExpiry   bool       `json:"clear_expiry,omitempty"`
	Password      string     `json:"password,omitempty"`
	ClearPassword bool       `json:"clear_password,omitempty"`
	AllowDownload *bool      `json:"allow_download,omitempty"`
}

// CreateLinkResponse represents the JSON response for an issued link.
type CreateLinkResponse struct {
	ID            string     `json:"id"`
	Token         string     `json:"token"`
	URL           string     `json:"url"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	AllowDownload bool       `json:"allow_download"`
	HasPassword   bool       `json:"has_password"`
	CreatedAt     time.Time  `json:"created_at"`
}

// LinkResponse is the operator-facing JSON shape of a link.
type LinkResponse struct {
	ID            string     `json:"id"`
	Token         string     `json:"token"`
	URL           string     `json:"url"`
	AssetID       string     `json:"asset_id"`
	CreatedByID   string     `json:"created_by_id"`
	HasPassword   bool       `json:"has_password"`
	AllowDownload bool       `json:"allow_download"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	ViewCount     int64      `json:"view_count"`
	DownloadCount int64      `json:"download_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LinkSummaryResponse is one row of the admin listing.
type LinkSummaryResponse struct {
	LinkResponse
	AssetName    string `json:"asset_name"`
	CreatorName  string `json:"creator_name"`
	CreatorEmail string `json:"creator_email"`
	ExpiryStatus string `json:"expiry_status"`
}

// AccessResponse is returned to a holder whose access was allowed.
type AccessResponse struct {
	AssetID       string `json:"asset_id"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	SizeBytes     int64  `json:"size_bytes"`
	AllowDownload bool   `json:"allow_download"`
	DownloadURL   string `json:"download_url,omitempty"`
}

// AccessLogResponse is one audit entry in a link's log listing.
type AccessLogResponse struct {
	ID         string    `json:"id"`
	AccessType string    `json:"access_type"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	Country    *string   `json:"country,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListResponse is one page of the admin listing.
type ListResponse struct {
	Items      []LinkSummaryResponse `json:"items"`
	TotalCount int64                 `json:"total_count"`
	HasMore    bool                  `json:"has_more"`
}

// LogsResponse is one page of a link's audit trail.
type LogsResponse struct {
	Items      []AccessLogResponse `json:"items"`
	TotalCount int64               `json:"total_count"`
	HasMore    bool                `json:"has_more"`
}

// Handler provides HTTP handlers for the share-link engine.
type Handler struct {
	service    Service
	catalog    assets.Catalog
	store      assets.ObjectStore
	logger     *slog.Logger
	baseURL    string
	presignTTL time.Duration
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service    Service
	Catalog    assets.Catalog
	Store      assets.ObjectStore
	Logger     *slog.Logger
	BaseURL    string // Base URL for constructing share URLs (e.g., "https://files.example.com")
	PresignTTL time.Duration
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	presignTTL := cfg.PresignTTL
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}

	return &Handler{
		service:    cfg.Service,
		catalog:    cfg.Catalog,
		store:      cfg.Store,
		logger:     logger,
		baseURL:    cfg.BaseURL,
		presignTTL: presignTTL,
	}
}

func (h *Handler) shareURL(token string) string {
	return fmt.Sprintf("%s/s/%s", h.baseURL, token)
}

// CreateLink handles POST /api/shares.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	creatorID, err := uuid.Parse(r.Header.Get(UserIDHeader))
	if err != nil {
		logger.WarnContext(ctx, "share creation without identity")
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized",
			"authentication required", nil)
		return
	}

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed",
			"asset_id must be a UUID", nil)
		return
	}

	// The asset must exist before a link can point at it.
	if _, err := h.catalog.Resolve(ctx, assetID); err != nil {
		if errx.KindOf(err) == errx.NotFound {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed",
				"unknown asset", nil)
			return
		}
		h.handleServiceError(ctx, w, err)
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		AssetID:       assetID,
		CreatedByID:   creatorID,
		ExpiresAt:     req.ExpiresAt,
		Password:      req.Password,
		AllowDownload: req.AllowDownload,
	})
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "share link created",
		"link_id", link.ID.String(),
		"asset_id", link.AssetID.String(),
		"has_password", link.HasPassword(),
		"allow_download", link.AllowDownload,
	)

	httpx.WriteJSON(w, http.StatusCreated, CreateLinkResponse{
		ID:            link.ID.String(),
		Token:         link.Token,
		URL:           h.shareURL(link.Token),
		ExpiresAt:     link.ExpiresAt,
		AllowDownload: link.AllowDownload,
		HasPassword:   link.HasPassword(),
		CreatedAt:     link.CreatedAt,
	})
}

// Access handles GET /s/{token}. It evaluates the token, records the
// access on Allow, and returns asset metadata plus a presigned download
// URL for allowed downloads. Revoked and expired links are
// indistinguishable from unknown tokens in the response.
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	token := r.PathValue("token")
	password := r.URL.Query().Get("password")

	accessType := AccessType(r.URL.Query().Get("type"))
	if accessType == "" {
		accessType = AccessView
	}
	if !accessType.Valid() {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"type must be view or download", nil)
		return
	}

	decision, err := h.service.Evaluate(ctx, token, password, accessType)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	if !decision.Allowed {
		h.writeDenial(ctx, w, decision.Reason)
		return
	}
	link := decision.Link

	meta := AccessMeta{
		IPAddress: httpx.ClientIP(r),
		UserAgent: r.UserAgent(),
		Country:   httpx.ClientCountry(r),
	}
	if err := h.service.RecordAccess(ctx, link.ID, accessType, meta); err != nil {
		// An unrecorded access must not be served; the audit trail is
		// part of the contract.
		h.handleServiceError(ctx, w, err)
		return
	}

	asset, err := h.catalog.Resolve(ctx, link.AssetID)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	resp := AccessResponse{
		AssetID:       asset.ID.String(),
		FileName:      asset.Name,
		ContentType:   asset.ContentType,
		SizeBytes:     asset.SizeBytes,
		AllowDownload: link.AllowDownload,
	}

	if accessType == AccessDownload {
		downloadURL, err := h.store.PresignDownload(ctx, asset.ObjectKey, asset.Name, h.presignTTL)
		if err != nil {
			h.handleServiceError(ctx, w, err)
			return
		}
		resp.DownloadURL = downloadURL
	}

	logger.InfoContext(ctx, "share access allowed",
		"link_id", link.ID.String(),
		"access_type", string(accessType),
		"country", meta.Country,
	)

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Revoke handles POST /api/shares/{id}/revoke.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Reactivate handles POST /api/shares/{id}/reactivate.
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"id must be a UUID", nil)
		return
	}

	var link ShareLink
	if active {
		link, err = h.service.Reactivate(ctx, id)
	} else {
		link, err = h.service.Revoke(ctx, id)
	}
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "share link lifecycle change",
		"link_id", link.ID.String(),
		"is_active", link.IsActive,
	)

	httpx.WriteJSON(w, http.StatusOK, h.linkResponse(link))
}

// UpdateSettings handles PATCH /api/shares/{id}.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"id must be a UUID", nil)
		return
	}

	req, err := httpx.DecodeJSON[HTTPUpdateSettingsRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.UpdateSettings(ctx, id, UpdateSettingsRequest{
		ExpiresAt:     req.ExpiresAt,
		ClearExpiry:   req.ClearExpiry,
		Password:      req.Password,
		ClearPassword: req.ClearPassword,
		AllowDownload: req.AllowDownload,
	})
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "share link settings updated",
		"link_id", link.ID.String(),
	)

	httpx.WriteJSON(w, http.StatusOK, h.linkResponse(link))
}

// List handles GET /api/shares.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()

	isActive, err := parseBoolParam(query.Get("is_active"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"is_active must be true or false", nil)
		return
	}
	hasPassword, err := parseBoolParam(query.Get("has_password"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"has_password must be true or false", nil)
		return
	}

	sortDesc := false
	switch query.Get("sort_order") {
	case "", "asc":
	case "desc":
		sortDesc = true
	default:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"sort_order must be asc or desc", nil)
		return
	}

	page, pageSize, err := parsePaging(query.Get("page"), query.Get("page_size"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	result, err := h.service.List(ctx, ListRequest{
		Search:      query.Get("search"),
		IsActive:    isActive,
		HasPassword: hasPassword,
		Expiry:      ExpiryFilter(query.Get("expiry_status")),
		SortBy:      SortKey(query.Get("sort_by")),
		SortDesc:    sortDesc,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	items := make([]LinkSummaryResponse, 0, len(result.Items))
	for _, s := range result.Items {
		items = append(items, LinkSummaryResponse{
			LinkResponse: h.linkResponse(s.ShareLink),
			AssetName:    s.AssetName,
			CreatorName:  s.CreatorName,
			CreatorEmail: s.CreatorEmail,
			ExpiryStatus: string(s.ExpiryStatus),
		})
	}

	httpx.WriteJSON(w, http.StatusOK, ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		HasMore:    result.HasMore,
	})
}

// AccessLogs handles GET /api/shares/{id}/logs.
func (h *Handler) AccessLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"id must be a UUID", nil)
		return
	}

	page, pageSize, err := parsePaging(r.URL.Query().Get("page"), r.URL.Query().Get("page_size"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	result, err := h.service.AccessLogs(ctx, id, page, pageSize)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	items := make([]AccessLogResponse, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, AccessLogResponse{
			ID:         e.ID.String(),
			AccessType: string(e.AccessType),
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			Country:    e.Country,
			CreatedAt:  e.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, LogsResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		HasMore:    result.HasMore,
	})
}

// writeDenial maps an internal deny reason to the response an
// unauthenticated holder is allowed to see. The internal reason is
// logged; the body never distinguishes revoked or expired from unknown.
func (h *Handler) writeDenial(ctx context.Context, w http.ResponseWriter, reason DenyReason) {
	h.logger.InfoContext(ctx, "share access denied",
		"request_id", httpx.GetRequestID(ctx),
		"reason", reason.String(),
	)

	switch reason.External() {
	case DenyPasswordRequired:
		httpx.WriteError(w, http.StatusUnauthorized, "password_required",
			"this link is password protected", nil)
	case DenyPasswordIncorrect:
		httpx.WriteError(w, http.StatusUnauthorized, "password_incorrect",
			"incorrect password", nil)
	case DenyDownloadNotAllowed:
		httpx.WriteError(w, http.StatusForbidden, "download_not_allowed",
			"this link does not permit downloads", nil)
	default:
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"link not found", nil)
	}
}

// handleServiceError maps errx kinds from the service to HTTP responses.
func (h *Handler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"request_id", httpx.GetRequestID(ctx),
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, "share link not found", logAttrs...)
	case errx.Invalid, errx.Conflict:
		h.logger.WarnContext(ctx, "share request rejected", logAttrs...)
	default:
		h.logger.ErrorContext(ctx, "share operation failed", logAttrs...)
	}

	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "unable to complete this operation right now"
	}
	httpx.WriteError(w, status, code, message, nil)
}

func (h *Handler) linkResponse(link ShareLink) LinkResponse {
	return LinkResponse{
		ID:            link.ID.String(),
		Token:         link.Token,
		URL:           h.shareURL(link.Token),
		AssetID:       link.AssetID.String(),
		CreatedByID:   link.CreatedByID.String(),
		HasPassword:   link.HasPassword(),
		AllowDownload: link.AllowDownload,
		ExpiresAt:     link.ExpiresAt,
		IsActive:      link.IsActive,
		ViewCount:     link.ViewCount,
		DownloadCount: link.DownloadCount,
		CreatedAt:     link.CreatedAt,
		UpdatedAt:     link.UpdatedAt,
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// parseBoolParam parses a tri-state boolean query parameter: absent
// means no filter.
func parseBoolParam(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parsePaging(rawPage, rawSize string) (int, int, error) {
	page := 0
	if rawPage != "" {
		v, err := strconv.Atoi(rawPage)
		if err != nil {
			return 0, 0, errors.New("page must be an integer")
		}
		page = v
	}

	size := 0
	if rawSize != "" {
		v, err := strconv.Atoi(rawSize)
		if err != nil {
			return 0, 0, errors.New("page_size must be an integer")
		}
		size = v
	}

	return page, size, nil
}

package sharelink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/sharelinks/internal/errx"
	"github.com/sundayezeilo/sharelinks/internal/idgen"
)

const linkColumns = `id, token, asset_id, created_by, password_hash, allow_download,
	expires_at, is_active, view_count, download_count, created_at, updated_at`

type pgxRepo struct {
	pool *pgxpool.Pool
	ids  idgen.Generator
}

// RepositoryConfig holds configuration for the repository.
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository creates a Repository backed by a pgx connection pool.
func NewRepository(pool *pgxpool.Pool, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	// Default: UUID v7 (good for DB locality).
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &pgxRepo{
		pool: pool,
		ids:  config.IDGenerator,
	}
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isTokenUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (ShareLink, error) {
	var link ShareLink
	err := row.Scan(
		&link.ID, &link.Token, &link.AssetID, &link.CreatedByID,
		&link.PasswordHash, &link.AllowDownload, &link.ExpiresAt,
		&link.IsActive, &link.ViewCount, &link.DownloadCount,
		&link.CreatedAt, &link.UpdatedAt,
	)
	return link, err
}

func (r *pgxRepo) CreateLink(ctx context.Context, link ShareLink) (ShareLink, error) {
	const op = "sharelink.repo.CreateLink"

	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return ShareLink{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}

	query := `INSERT INTO share_links
		(id, token, asset_id, created_by, password_hash, allow_download, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING ` + linkColumns

	created, err := scanLink(r.pool.QueryRow(ctx, query,
		link.ID, link.Token, link.AssetID, link.CreatedByID,
		link.PasswordHash, link.AllowDownload, link.ExpiresAt,
	))
	if err != nil {
		return ShareLink{}, mapRepoError(op, err)
	}
	return created, nil
}

func (r *pgxRepo) GetLinkByToken(ctx context.Context, token string) (ShareLink, error) {
	const op = "sharelink.repo.GetLinkByToken"

	query := `SELECT ` + linkColumns + ` FROM share_links WHERE token = $1`

	link, err := scanLink(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		return ShareLink{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *pgxRepo) GetLinkByID(ctx context.Context, id uuid.UUID) (ShareLink, error) {
	const op = "sharelink.repo.GetLinkByID"

	query := `SELECT ` + linkColumns + ` FROM share_links WHERE id = $1`

	link, err := scanLink(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return ShareLink{}, mapRepoError(op, err)
	}
	return link, nil
}

// RecordAccess bumps the matching counter and appends the audit row in
// one transaction. The increment is a relative UPDATE, not a
// read-modify-write, so concurrent recorders never lose updates.
func (r *pgxRepo) RecordAccess(ctx context.Context, entry AccessLogEntry) error {
	const op = "sharelink.repo.RecordAccess"

	counter := "view_count"
	if entry.AccessType == AccessDownload {
		counter = "download_count"
	}

	if entry.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
		entry.ID = id
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE share_links SET %s = %s + 1 WHERE id = $1`, counter, counter),
		entry.ShareLinkID,
	)
	if err != nil {
		return mapRepoError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return errx.E(op, errx.NotFound, pgx.ErrNoRows)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO share_access_logs (id, share_link_id, access_type, ip_address, user_agent, country)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ShareLinkID, entry.AccessType,
		entry.IPAddress, entry.UserAgent, entry.Country,
	)
	if err != nil {
		return mapRepoError(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

func (r *pgxRepo) SetLinkActive(ctx context.Context, id uuid.UUID, active bool) (ShareLink, error) {
	const op = "sharelink.repo.SetLinkActive"

	query := `UPDATE share_links SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + linkColumns

	link, err := scanLink(r.pool.QueryRow(ctx, query, id, active))
	if err != nil {
		return ShareLink{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *pgxRepo) UpdateLinkSettings(ctx context.Context, id uuid.UUID, upd SettingsUpdate) (ShareLink, error) {
	const op = "sharelink.repo.UpdateLinkSettings"

	set := []string{"updated_at = now()"}
	args := []any{id}

	switch {
	case upd.ClearExpiry:
		set = append(set, "expires_at = NULL")
	case upd.ExpiresAt != nil:
		args = append(args, *upd.ExpiresAt)
		set = append(set, fmt.Sprintf("expires_at = $%d", len(args)))
	}

	switch {
	case upd.ClearPassword:
		set = append(set, "password_hash = NULL")
	case upd.PasswordHash != nil:
		args = append(args, *upd.PasswordHash)
		set = append(set, fmt.Sprintf("password_hash = $%d", len(args)))
	}

	if upd.AllowDownload != nil {
		args = append(args, *upd.AllowDownload)
		set = append(set, fmt.Sprintf("allow_download = $%d", len(args)))
	}

	query := `UPDATE share_links SET ` + strings.Join(set, ", ") +
		` WHERE id = $1 RETURNING ` + linkColumns

	link, err := scanLink(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return ShareLink{}, mapRepoError(op, err)
	}
	return link, nil
}

// sortColumns whitelists ORDER BY targets; anything else never reaches
// the SQL string.
var sortColumns = map[SortKey]string{
	SortCreatedAt:     "l.created_at",
	SortExpiresAt:     "l.expires_at",
	SortViewCount:     "l.view_count",
	SortDownloadCount: "l.download_count",
	SortAssetName:     "a.name",
}

func (r *pgxRepo) ListLinks(ctx context.Context, q ListQuery) ([]ShareLinkSummary, int64, error) {
	const op = "sharelink.repo.ListLinks"

	where := []string{"true"}
	args := []any{}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(a.name ILIKE $%d OR u.name ILIKE $%d OR u.email ILIKE $%d)", n, n, n))
	}
	if q.IsActive != nil {
		args = append(args, *q.IsActive)
		where = append(where, fmt.Sprintf("l.is_active = $%d", len(args)))
	}
	if q.HasPassword != nil {
		if *q.HasPassword {
			where = append(where, "l.password_hash IS NOT NULL")
		} else {
			where = append(where, "l.password_hash IS NULL")
		}
	}

	switch q.Expiry {
	case ExpiryFilterExpired:
		args = append(args, q.Now)
		where = append(where, fmt.Sprintf("l.expires_at IS NOT NULL AND l.expires_at < $%d", len(args)))
	case ExpiryFilterExpiringSoon:
		args = append(args, q.Now, q.Now.Add(ExpiringSoonWindow))
		where = append(where, fmt.Sprintf(
			"l.expires_at IS NOT NULL AND l.expires_at >= $%d AND l.expires_at < $%d",
			len(args)-1, len(args)))
	case ExpiryFilterNever:
		where = append(where, "l.expires_at IS NULL")
	}

	const fromClause = ` FROM share_links l
		JOIN assets a ON a.id = l.asset_id
		JOIN users u ON u.id = l.created_by
		WHERE `
	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.pool.QueryRow(ctx, "SELECT count(*)"+fromClause+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, mapRepoError(op, err)
	}

	sortCol, ok := sortColumns[q.SortBy]
	if !ok {
		sortCol = sortColumns[SortCreatedAt]
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.Limit, q.Offset)
	query := `SELECT l.id, l.token, l.asset_id, l.created_by, l.password_hash, l.allow_download,
			l.expires_at, l.is_active, l.view_count, l.download_count, l.created_at, l.updated_at,
			a.name, u.name, u.email` +
		fromClause + whereClause +
		fmt.Sprintf(" ORDER BY %s %s NULLS LAST, l.id %s LIMIT $%d OFFSET $%d",
			sortCol, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapRepoError(op, err)
	}
	defer rows.Close()

	summaries := make([]ShareLinkSummary, 0, q.Limit)
	for rows.Next() {
		var s ShareLinkSummary
		err := rows.Scan(
			&s.ID, &s.Token, &s.AssetID, &s.CreatedByID,
			&s.PasswordHash, &s.AllowDownload, &s.ExpiresAt,
			&s.IsActive, &s.ViewCount, &s.DownloadCount,
			&s.CreatedAt, &s.UpdatedAt,
			&s.AssetName, &s.CreatorName, &s.CreatorEmail,
		)
		if err != nil {
			return nil, 0, mapRepoError(op, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapRepoError(op, err)
	}

	return summaries, total, nil
}

func (r *pgxRepo) ListAccessLogs(ctx context.Context, linkID uuid.UUID, limit, offset int) ([]AccessLogEntry, int64, error) {
	const op = "sharelink.repo.ListAccessLogs"

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM share_access_logs WHERE share_link_id = $1`, linkID,
	).Scan(&total)
	if err != nil {
		return nil, 0, mapRepoError(op, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, share_link_id, access_type, ip_address, user_agent, country, created_at
		 FROM share_access_logs
		 WHERE share_link_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		linkID, limit, offset,
	)
	if err != nil {
		return nil, 0, mapRepoError(op, err)
	}
	defer rows.Close()

	entries := make([]AccessLogEntry, 0, limit)
	for rows.Next() {
		var e AccessLogEntry
		err := rows.Scan(
			&e.ID, &e.ShareLinkID, &e.AccessType,
			&e.IPAddress, &e.UserAgent, &e.Country, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, mapRepoError(op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapRepoError(op, err)
	}

	return entries, total, nil
}

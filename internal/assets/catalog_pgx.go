package assets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/sharelinks/internal/errx"
)

type pgxCatalog struct {
	pool *pgxpool.Pool
}

// NewCatalog creates a Catalog reading the assets table maintained by
// the upload pipeline.
func NewCatalog(pool *pgxpool.Pool) Catalog {
	return &pgxCatalog{pool: pool}
}

func (c *pgxCatalog) Resolve(ctx context.Context, id uuid.UUID) (Asset, error) {
	const op = "assets.catalog.Resolve"

	var a Asset
	err := c.pool.QueryRow(ctx,
		`SELECT id, name, content_type, size_bytes, object_key FROM assets WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.ContentType, &a.SizeBytes, &a.ObjectKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, errx.E(op, errx.NotFound, err)
		}
		return Asset{}, errx.E(op, errx.Unavailable, err)
	}
	return a, nil
}

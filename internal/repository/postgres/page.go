package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"papertrail/internal/domain"
	"papertrail/internal/domain/services"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPageResolver implements the PageResolver interface against
// the pages table.
type PostgresPageResolver struct {
	pool    *pgxpool.Pool
	tables  *TableNames
	logger  *slog.Logger
	builder sq.StatementBuilderType
}

// NewPageResolver creates a new Postgres-backed page resolver.
func NewPageResolver(config *RepositoryConfig) services.PageResolver {
	return &PostgresPageResolver{
		pool:    config.Pool,
		tables:  config.Tables,
		logger:  config.Logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ResolveSlug returns the page's slug, failing with a not-found error
// when the page does not exist.
func (r *PostgresPageResolver) ResolveSlug(ctx context.Context, siteID, pageID int64) (string, error) {
	query, args, err := r.builder.
		Select("slug").
		From(r.tables.Pages).
		Where(sq.Eq{"site_id": siteID, "page_id": pageID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build slug query: %w", err)
	}

	executor := GetExecutor(ctx, r.pool)
	var slug string
	if err := executor.QueryRow(ctx, query, args...).Scan(&slug); err != nil {
		if IsPgNoRowsError(err) {
			return "", &domain.NotFoundError{
				Message: fmt.Sprintf("page %d not found on site %d", pageID, siteID),
			}
		}
		return "", fmt.Errorf("resolve page slug: %w", err)
	}

	return slug, nil
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"papertrail/internal/domain"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/repositories"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var revisionColumns = []string{
	"revision_id",
	"revision_type",
	"revision_number",
	"site_id",
	"page_id",
	"file_id",
	"user_id",
	"name",
	"content_hash",
	"size_hint",
	"mime_hint",
	"licensing",
	"changes",
	"hidden",
	"comments",
	"created_at",
}

// PostgresRevisionLedger implements the RevisionLedger interface.
type PostgresRevisionLedger struct {
	pool    *pgxpool.Pool
	tables  *TableNames
	logger  *slog.Logger
	builder sq.StatementBuilderType
}

// NewRevisionLedger creates a new Postgres-backed revision ledger.
func NewRevisionLedger(config *RepositoryConfig) repositories.RevisionLedger {
	return &PostgresRevisionLedger{
		pool:    config.Pool,
		tables:  config.Tables,
		logger:  config.Logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Append persists a new revision, assigning its revision ID and
// creation time. The unique (site_id, file_id, revision_number) index
// serializes concurrent writers on the same file: the writer that lost
// the race gets a conflict error and its enclosing transaction rolls
// back, keeping the sequence gapless.
func (l *PostgresRevisionLedger) Append(ctx context.Context, revision *models.FileRevision) (*models.FileRevision, error) {
	appended := revision.Clone()
	appended.RevisionID = uuid.New().String()
	appended.CreatedAt = time.Now().UTC()

	query, args, err := l.builder.
		Insert(l.tables.FileRevisions).
		Columns(revisionColumns...).
		Values(
			appended.RevisionID,
			string(appended.RevisionType),
			appended.RevisionNumber,
			appended.SiteID,
			appended.PageID,
			appended.FileID,
			appended.UserID,
			appended.Name,
			appended.ContentHash,
			appended.SizeHint,
			appended.MimeHint,
			[]byte(appended.Licensing),
			models.FieldGroupStrings(appended.Changes),
			models.FieldGroupStrings(appended.Hidden),
			appended.Comments,
			appended.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	executor := GetExecutor(ctx, l.pool)
	if _, err := executor.Exec(ctx, query, args...); err != nil {
		if IsPgDuplicateError(err) {
			return nil, &domain.ConflictError{
				Message: fmt.Sprintf(
					"revision %d for file %d already exists (lost a concurrent write race)",
					appended.RevisionNumber, appended.FileID,
				),
			}
		}
		return nil, fmt.Errorf("append revision: %w", err)
	}

	return appended, nil
}

// Latest returns the revision with the highest revision number.
func (l *PostgresRevisionLedger) Latest(ctx context.Context, siteID, fileID int64) (*models.FileRevision, error) {
	query, args, err := l.builder.
		Select(revisionColumns...).
		From(l.tables.FileRevisions).
		Where(sq.Eq{"site_id": siteID, "file_id": fileID}).
		OrderBy("revision_number DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest query: %w", err)
	}

	executor := GetExecutor(ctx, l.pool)
	revision, err := scanRevision(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{
				Message: fmt.Sprintf("file %d has no revisions", fileID),
			}
		}
		return nil, fmt.Errorf("get latest revision: %w", err)
	}

	return revision, nil
}

// Get returns the revision with the given number, or nil when absent.
func (l *PostgresRevisionLedger) Get(ctx context.Context, siteID, fileID int64, revisionNumber int32) (*models.FileRevision, error) {
	query, args, err := l.builder.
		Select(revisionColumns...).
		From(l.tables.FileRevisions).
		Where(sq.Eq{
			"site_id":         siteID,
			"file_id":         fileID,
			"revision_number": revisionNumber,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	executor := GetExecutor(ctx, l.pool)
	revision, err := scanRevision(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}

	return revision, nil
}

// Range returns up to limit revisions on the direction side of the
// anchor, ascending by revision number.
func (l *PostgresRevisionLedger) Range(ctx context.Context, siteID, fileID int64, anchor int32, direction repositories.FetchDirection, limit uint64) ([]models.FileRevision, error) {
	// The sentinel anchor means "the most recent revision": map it to
	// the maximum representable number before filtering.
	if anchor < 0 {
		anchor = math.MaxInt32
	}

	var anchorCond sq.Sqlizer
	switch direction {
	case repositories.FetchBefore:
		anchorCond = sq.LtOrEq{"revision_number": anchor}
	case repositories.FetchAfter:
		anchorCond = sq.GtOrEq{"revision_number": anchor}
	default:
		return nil, fmt.Errorf("unknown fetch direction %q", direction)
	}

	query, args, err := l.builder.
		Select(revisionColumns...).
		From(l.tables.FileRevisions).
		Where(sq.Eq{"site_id": siteID, "file_id": fileID}).
		Where(anchorCond).
		OrderBy("revision_number ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	executor := GetExecutor(ctx, l.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("range revisions: %w", err)
	}
	defer rows.Close()

	var revisions []models.FileRevision
	for rows.Next() {
		revision, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision row: %w", err)
		}
		revisions = append(revisions, *revision)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range revisions: %w", err)
	}

	return revisions, nil
}

// Count returns the number of revisions for the file. A count of zero
// means the file does not exist and surfaces as a not-found error.
func (l *PostgresRevisionLedger) Count(ctx context.Context, siteID, fileID int64) (int32, error) {
	query, args, err := l.builder.
		Select("COUNT(*)").
		From(l.tables.FileRevisions).
		Where(sq.Eq{"site_id": siteID, "file_id": fileID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	executor := GetExecutor(ctx, l.pool)
	var count int64
	if err := executor.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}

	if count == 0 {
		return 0, &domain.NotFoundError{
			Message: fmt.Sprintf("file %d has no revisions", fileID),
		}
	}
	if count > math.MaxInt32 {
		return 0, fmt.Errorf("revision count %d exceeds revision number range", count)
	}

	return int32(count), nil
}

// SetHidden replaces the hidden field-group set of the identified
// revision and returns the updated record. No other column is touched.
func (l *PostgresRevisionLedger) SetHidden(ctx context.Context, revisionID string, hidden []models.FieldGroup) (*models.FileRevision, error) {
	query, args, err := l.builder.
		Update(l.tables.FileRevisions).
		Set("hidden", models.FieldGroupStrings(hidden)).
		Where(sq.Eq{"revision_id": revisionID}).
		Suffix("RETURNING " + strings.Join(revisionColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build hidden update query: %w", err)
	}

	executor := GetExecutor(ctx, l.pool)
	revision, err := scanRevision(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{
				Message: fmt.Sprintf("revision %s not found", revisionID),
			}
		}
		return nil, fmt.Errorf("update hidden fields: %w", err)
	}

	return revision, nil
}

func scanRevision(row pgx.Row) (*models.FileRevision, error) {
	var (
		revision     models.FileRevision
		revisionType string
		licensing    []byte
		changes      []string
		hidden       []string
	)

	err := row.Scan(
		&revision.RevisionID,
		&revisionType,
		&revision.RevisionNumber,
		&revision.SiteID,
		&revision.PageID,
		&revision.FileID,
		&revision.UserID,
		&revision.Name,
		&revision.ContentHash,
		&revision.SizeHint,
		&revision.MimeHint,
		&licensing,
		&changes,
		&hidden,
		&revision.Comments,
		&revision.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	revision.RevisionType = models.RevisionType(revisionType)
	revision.Licensing = models.Licensing(licensing)
	revision.Changes = models.FieldGroupsFromStrings(changes)
	revision.Hidden = models.FieldGroupsFromStrings(hidden)
	return &revision, nil
}

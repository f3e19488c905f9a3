package repositories

import (
	"context"

	"papertrail/internal/domain/models"
)

// FetchDirection selects which side of an anchor a range scan covers.
type FetchDirection string

const (
	// FetchBefore selects revisions numbered at or below the anchor.
	FetchBefore FetchDirection = "before"
	// FetchAfter selects revisions numbered at or above the anchor.
	FetchAfter FetchDirection = "after"
)

// LatestRevisionAnchor is the sentinel anchor meaning "the most recent
// revision". It maps to the maximum representable revision number
// before the direction filter is applied.
const LatestRevisionAnchor int32 = -1

// RevisionLedger is the append-only store of file revision records.
// Appended records are immutable except for the hidden field, which
// SetHidden alone may update; records are never deleted.
type RevisionLedger interface {
	// Append persists a new revision, assigning its revision ID and
	// creation time. The ledger enforces revision-number uniqueness per
	// (site, file): a concurrent writer that computed the same number
	// fails with a conflict error instead of corrupting the sequence.
	Append(ctx context.Context, revision *models.FileRevision) (*models.FileRevision, error)

	// Latest returns the revision with the highest revision number, or
	// a not-found error when the file has no revisions at all. There is
	// no optional variant: every extant file has at least one revision,
	// so absence means the file does not exist.
	Latest(ctx context.Context, siteID, fileID int64) (*models.FileRevision, error)

	// Get returns the revision with the given number, or nil when no
	// such revision exists.
	Get(ctx context.Context, siteID, fileID int64, revisionNumber int32) (*models.FileRevision, error)

	// Range returns up to limit revisions on the direction side of the
	// anchor, always ascending by revision number. An anchor of
	// LatestRevisionAnchor means the most recent revision.
	Range(ctx context.Context, siteID, fileID int64, anchor int32, direction FetchDirection, limit uint64) ([]models.FileRevision, error)

	// Count returns the number of revisions for the file. Zero is not a
	// valid count: it means the file does not exist and surfaces as a
	// not-found error.
	Count(ctx context.Context, siteID, fileID int64) (int32, error)

	// SetHidden replaces the hidden field-group set of the identified
	// revision and returns the updated record. No other field is
	// touched. Callers are responsible for refusing the file's latest
	// revision before reaching the ledger.
	SetHidden(ctx context.Context, revisionID string, hidden []models.FieldGroup) (*models.FileRevision, error)
}

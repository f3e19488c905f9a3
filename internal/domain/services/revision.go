package services

import (
	"context"

	"papertrail/internal/domain/models"
	"papertrail/internal/domain/repositories"
)

// CreateFirstRevision is the input for the first revision of a newly
// uploaded file.
type CreateFirstRevision struct {
	SiteID      int64
	PageID      int64
	FileID      int64
	UserID      int64
	Name        string
	ContentHash []byte
	SizeHint    int64
	MimeHint    string
	Licensing   models.Licensing
	Comments    string
}

// CreateFirstRevisionOutput identifies the newly started history.
type CreateFirstRevisionOutput struct {
	FileID     int64
	RevisionID string
}

// CreateRevisionBody carries the tri-state partial update for an edit.
// An unset field keeps the previous revision's value; a set field that
// equals the previous value also keeps it and is not listed as changed.
type CreateRevisionBody struct {
	PageID    models.Maybe[int64]
	Name      models.Maybe[string]
	Blob      models.Maybe[models.Blob]
	Licensing models.Maybe[models.Licensing]
}

// CreateRevision is the input for a new revision on an existing file.
type CreateRevision struct {
	SiteID   int64
	PageID   int64
	FileID   int64
	UserID   int64
	Comments string
	Body     CreateRevisionBody
}

// CreateRevisionOutput identifies a newly appended revision.
type CreateRevisionOutput struct {
	RevisionID     string
	RevisionNumber int32
}

// CreateTombstoneRevision is the input for marking a file deleted.
type CreateTombstoneRevision struct {
	SiteID   int64
	PageID   int64
	FileID   int64
	UserID   int64
	Comments string
}

// CreateResurrectionRevision is the input for restoring a tombstoned
// file, possibly reattaching it to a different page under a new name.
type CreateResurrectionRevision struct {
	SiteID    int64
	PageID    int64 // page the file was attached to when tombstoned
	FileID    int64
	UserID    int64
	NewPageID int64
	NewName   string
	Comments  string
}

// SetRevisionHidden is the input for redacting field groups of a
// non-latest revision.
type SetRevisionHidden struct {
	SiteID     int64
	FileID     int64
	RevisionID string
	UserID     int64
	Hidden     []models.FieldGroup
}

// GetRevision identifies one revision by number. Queries are keyed by
// site and file only: a file's page attachment can change over its
// history, so the page is part of the record, not the key.
type GetRevision struct {
	SiteID         int64
	FileID         int64
	RevisionNumber int32
}

// GetRevisionRange selects a slice of a file's history around an
// anchor revision number.
type GetRevisionRange struct {
	SiteID         int64
	FileID         int64
	RevisionNumber int32
	Direction      repositories.FetchDirection
	Limit          uint64
}

// RevisionService drives the file revision lifecycle. The service does
// not look up a file's current state itself: callers supply the correct
// previous revision (or none, for creation) from their own inspection
// of the ledger, and the service asserts consistency.
type RevisionService interface {
	// CreateFirst starts a file's history with a create revision,
	// number 1, whose changes list is the full field-group set.
	CreateFirst(ctx context.Context, input CreateFirstRevision) (*CreateFirstRevisionOutput, error)

	// Create appends an update revision merging the partial body over
	// the previous snapshot. Returns nil when nothing changed: no
	// revision is appended and no invalidation runs.
	Create(ctx context.Context, input CreateRevision, previous *models.FileRevision) (*CreateRevisionOutput, error)

	// CreateTombstone appends a delete revision carrying the previous
	// snapshot forward unchanged, with an empty changes list.
	CreateTombstone(ctx context.Context, input CreateTombstoneRevision, previous *models.FileRevision) (*CreateRevisionOutput, error)

	// CreateResurrection appends an undelete revision. Only the page
	// and name may differ from the tombstoned snapshot; blob and
	// licensing are carried forward verbatim.
	CreateResurrection(ctx context.Context, input CreateResurrectionRevision, previous *models.FileRevision) (*CreateRevisionOutput, error)

	// SetHidden updates the hidden field-group set of a revision,
	// refusing the file's current latest revision.
	SetHidden(ctx context.Context, input SetRevisionHidden) (*models.FileRevision, error)

	// GetLatest returns the file's most recent revision, or a
	// not-found error when the file does not exist.
	GetLatest(ctx context.Context, siteID, fileID int64) (*models.FileRevision, error)

	// GetOptional returns the identified revision, or nil if absent.
	GetOptional(ctx context.Context, input GetRevision) (*models.FileRevision, error)

	// Get returns the identified revision, failing if it doesn't exist.
	Get(ctx context.Context, input GetRevision) (*models.FileRevision, error)

	// Count returns the number of revisions, failing with not-found
	// for a file with no history.
	Count(ctx context.Context, siteID, fileID int64) (int32, error)

	// GetRange returns revisions around the anchor, ascending by
	// revision number.
	GetRange(ctx context.Context, input GetRevisionRange) ([]models.FileRevision, error)
}

package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"papertrail/internal/domain"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/repositories"

	"github.com/google/uuid"
)

type fileKey struct {
	siteID int64
	fileID int64
}

// MemoryRevisionLedger implements the RevisionLedger interface entirely
// in memory. It backs the service tests and embedded callers that want
// the lifecycle semantics without a database. Semantics match the
// Postgres ledger, including the revision-number uniqueness check that
// serializes concurrent writers.
type MemoryRevisionLedger struct {
	mu     sync.Mutex
	byID   map[string]*models.FileRevision
	byFile map[fileKey][]*models.FileRevision // ascending by revision number
}

// NewRevisionLedger creates an empty in-memory ledger.
func NewRevisionLedger() *MemoryRevisionLedger {
	return &MemoryRevisionLedger{
		byID:   make(map[string]*models.FileRevision),
		byFile: make(map[fileKey][]*models.FileRevision),
	}
}

var _ repositories.RevisionLedger = (*MemoryRevisionLedger)(nil)

// Append persists a new revision, assigning its revision ID and
// creation time.
func (l *MemoryRevisionLedger) Append(ctx context.Context, revision *models.FileRevision) (*models.FileRevision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := fileKey{siteID: revision.SiteID, fileID: revision.FileID}
	for _, existing := range l.byFile[key] {
		if existing.RevisionNumber == revision.RevisionNumber {
			return nil, &domain.ConflictError{
				Message: fmt.Sprintf(
					"revision %d for file %d already exists (lost a concurrent write race)",
					revision.RevisionNumber, revision.FileID,
				),
			}
		}
	}

	appended := revision.Clone()
	appended.RevisionID = uuid.New().String()
	appended.CreatedAt = time.Now().UTC()

	l.byID[appended.RevisionID] = appended
	revisions := append(l.byFile[key], appended)
	sort.Slice(revisions, func(i, j int) bool {
		return revisions[i].RevisionNumber < revisions[j].RevisionNumber
	})
	l.byFile[key] = revisions

	return appended.Clone(), nil
}

// Latest returns the revision with the highest revision number.
func (l *MemoryRevisionLedger) Latest(ctx context.Context, siteID, fileID int64) (*models.FileRevision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	revisions := l.byFile[fileKey{siteID: siteID, fileID: fileID}]
	if len(revisions) == 0 {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("file %d has no revisions", fileID),
		}
	}
	return revisions[len(revisions)-1].Clone(), nil
}

// Get returns the revision with the given number, or nil when absent.
func (l *MemoryRevisionLedger) Get(ctx context.Context, siteID, fileID int64, revisionNumber int32) (*models.FileRevision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, revision := range l.byFile[fileKey{siteID: siteID, fileID: fileID}] {
		if revision.RevisionNumber == revisionNumber {
			return revision.Clone(), nil
		}
	}
	return nil, nil
}

// Range returns up to limit revisions on the direction side of the
// anchor, ascending by revision number.
func (l *MemoryRevisionLedger) Range(ctx context.Context, siteID, fileID int64, anchor int32, direction repositories.FetchDirection, limit uint64) ([]models.FileRevision, error) {
	if anchor < 0 {
		anchor = math.MaxInt32
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.FileRevision
	for _, revision := range l.byFile[fileKey{siteID: siteID, fileID: fileID}] {
		var keep bool
		switch direction {
		case repositories.FetchBefore:
			keep = revision.RevisionNumber <= anchor
		case repositories.FetchAfter:
			keep = revision.RevisionNumber >= anchor
		default:
			return nil, fmt.Errorf("unknown fetch direction %q", direction)
		}
		if !keep {
			continue
		}
		if uint64(len(out)) >= limit {
			break
		}
		out = append(out, *revision.Clone())
	}
	return out, nil
}

// Count returns the number of revisions for the file, failing with a
// not-found error when there are none.
func (l *MemoryRevisionLedger) Count(ctx context.Context, siteID, fileID int64) (int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := len(l.byFile[fileKey{siteID: siteID, fileID: fileID}])
	if count == 0 {
		return 0, &domain.NotFoundError{
			Message: fmt.Sprintf("file %d has no revisions", fileID),
		}
	}
	return int32(count), nil
}

// SetHidden replaces the hidden field-group set of the identified
// revision and returns the updated record.
func (l *MemoryRevisionLedger) SetHidden(ctx context.Context, revisionID string, hidden []models.FieldGroup) (*models.FileRevision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	revision, ok := l.byID[revisionID]
	if !ok {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("revision %s not found", revisionID),
		}
	}
	revision.Hidden = append([]models.FieldGroup(nil), hidden...)
	return revision.Clone(), nil
}

// snapshot captures the ledger state for transactional rollback.
func (l *MemoryRevisionLedger) snapshot() map[string]*models.FileRevision {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := make(map[string]*models.FileRevision, len(l.byID))
	for id, revision := range l.byID {
		state[id] = revision.Clone()
	}
	return state
}

// restore replaces the ledger state with a snapshot taken earlier.
func (l *MemoryRevisionLedger) restore(state map[string]*models.FileRevision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.byID = make(map[string]*models.FileRevision, len(state))
	l.byFile = make(map[fileKey][]*models.FileRevision)
	for id, revision := range state {
		clone := revision.Clone()
		l.byID[id] = clone
		key := fileKey{siteID: clone.SiteID, fileID: clone.FileID}
		l.byFile[key] = append(l.byFile[key], clone)
	}
	for key := range l.byFile {
		revisions := l.byFile[key]
		sort.Slice(revisions, func(i, j int) bool {
			return revisions[i].RevisionNumber < revisions[j].RevisionNumber
		})
		l.byFile[key] = revisions
	}
}

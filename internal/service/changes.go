package service

import (
	"fmt"
	"unicode/utf16"

	"papertrail/internal/config"
	"papertrail/internal/domain"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/services"
)

// mergedRevision is the result of layering a partial update over the
// previous revision's snapshot.
type mergedRevision struct {
	pageID    int64
	name      string
	blob      models.Blob
	licensing models.Licensing
	changes   []models.FieldGroup
}

// mergeRevisionBody merges a tri-state partial update with the previous
// snapshot. Only field groups whose provided value actually differs
// from the previous value are listed as changed; everything else keeps
// the previous value. The blob group is compared as a unit: any
// difference among content hash, size hint, or MIME hint marks the
// whole group.
//
// An empty changes list means the update is a no-op: the caller must
// not append a revision or run invalidation.
func mergeRevisionBody(previous *models.FileRevision, body services.CreateRevisionBody) mergedRevision {
	merged := mergedRevision{
		pageID:    previous.PageID,
		name:      previous.Name,
		blob:      previous.Blob(),
		licensing: previous.Licensing,
	}

	if newPageID, ok := body.PageID.Get(); ok {
		if merged.pageID != newPageID {
			merged.changes = append(merged.changes, models.FieldGroupPage)
			merged.pageID = newPageID
		}
	}

	if newName, ok := body.Name.Get(); ok {
		if merged.name != newName {
			merged.changes = append(merged.changes, models.FieldGroupName)
			merged.name = newName
		}
	}

	if newBlob, ok := body.Blob.Get(); ok {
		if !merged.blob.Equal(newBlob) {
			merged.changes = append(merged.changes, models.FieldGroupBlob)
			merged.blob = newBlob
		}
	}

	if newLicensing, ok := body.Licensing.Get(); ok {
		if !models.LicensingEqual(merged.licensing, newLicensing) {
			merged.changes = append(merged.changes, models.FieldGroupLicensing)
			merged.licensing = newLicensing
		}
	}

	return merged
}

// validateSnapshot checks the fields of a snapshot about to be
// persisted. It runs after merging and before any outdating or append,
// so a failing snapshot leaves no partial writes behind.
func validateSnapshot(name, mimeHint string) error {
	if name == "" {
		return &domain.ValidationError{Message: "file name is empty"}
	}
	if n := len(utf16.Encode([]rune(name))); n >= config.MaxFileNameCodeUnits {
		return &domain.ValidationError{
			Message: fmt.Sprintf("file name of invalid length: %d code units", n),
		}
	}
	if mimeHint == "" {
		return &domain.ValidationError{Message: "MIME type hint is empty"}
	}

	// TODO validate licensing field

	return nil
}

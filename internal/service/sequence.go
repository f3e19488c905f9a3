package service

import (
	"fmt"

	"papertrail/internal/domain/models"
)

// nextRevisionNumber computes the revision number following previous.
//
// The caller contract is that previous is already scoped to the file
// and page being mutated; a mismatch is a programming error in the
// caller, not a user-facing condition, so this panics rather than
// silently continuing with a corrupted history.
func nextRevisionNumber(previous *models.FileRevision, pageID, fileID int64) int32 {
	if previous.FileID != fileID {
		panic(fmt.Sprintf(
			"previous revision has an inconsistent file ID: %d != %d",
			previous.FileID, fileID,
		))
	}
	if previous.PageID != pageID {
		panic(fmt.Sprintf(
			"previous revision has an inconsistent page ID: %d != %d",
			previous.PageID, pageID,
		))
	}

	return previous.RevisionNumber + 1
}

package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// RevisionType identifies which lifecycle transition produced a revision.
type RevisionType string

const (
	RevisionCreate   RevisionType = "create"
	RevisionUpdate   RevisionType = "update"
	RevisionDelete   RevisionType = "delete"
	RevisionUndelete RevisionType = "undelete"
)

// FieldGroup tags a group of snapshot fields that can change together
// between two consecutive revisions.
type FieldGroup string

const (
	FieldGroupPage      FieldGroup = "page"
	FieldGroupName      FieldGroup = "name"
	FieldGroupBlob      FieldGroup = "blob"
	FieldGroupLicensing FieldGroup = "licensing"
)

// AllFieldGroups returns the full field-group set in display order.
// The first revision of a file is always considered to have changed
// everything, so its changes list is exactly this set.
func AllFieldGroups() []FieldGroup {
	return []FieldGroup{
		FieldGroupPage,
		FieldGroupName,
		FieldGroupBlob,
		FieldGroupLicensing,
	}
}

// FieldGroupStrings converts a field-group list for storage as text[].
func FieldGroupStrings(groups []FieldGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = string(g)
	}
	return out
}

// FieldGroupsFromStrings is the inverse of FieldGroupStrings.
func FieldGroupsFromStrings(values []string) []FieldGroup {
	out := make([]FieldGroup, len(values))
	for i, v := range values {
		out[i] = FieldGroup(v)
	}
	return out
}

// Licensing is an opaque JSON document describing the file's license.
// No cross-field validation is defined for it.
type Licensing = json.RawMessage

// LicensingEqual compares two licensing documents byte-wise.
func LicensingEqual(a, b Licensing) bool {
	return bytes.Equal(a, b)
}

// Blob describes the stored contents of a file. The three fields form
// one atomic group: a difference in any of them counts as a change to
// the whole blob.
type Blob struct {
	ContentHash []byte `json:"content_hash"`
	SizeHint    int64  `json:"size_hint"`
	MimeHint    string `json:"mime_hint"`
}

// Equal reports whether two blobs are identical in all three fields.
func (b Blob) Equal(other Blob) bool {
	return bytes.Equal(b.ContentHash, other.ContentHash) &&
		b.SizeHint == other.SizeHint &&
		b.MimeHint == other.MimeHint
}

// FileRevision is one immutable entry in a file's history. Records are
// created only by lifecycle transitions; the only permitted mutation
// after creation is updating Hidden, and records are never deleted.
type FileRevision struct {
	RevisionID     string       `json:"revision_id" db:"revision_id"`
	RevisionType   RevisionType `json:"revision_type" db:"revision_type"`
	RevisionNumber int32        `json:"revision_number" db:"revision_number"`
	SiteID         int64        `json:"site_id" db:"site_id"`
	PageID         int64        `json:"page_id" db:"page_id"`
	FileID         int64        `json:"file_id" db:"file_id"`
	UserID         int64        `json:"user_id" db:"user_id"`
	Name           string       `json:"name" db:"name"`
	ContentHash    []byte       `json:"content_hash" db:"content_hash"`
	SizeHint       int64        `json:"size_hint" db:"size_hint"`
	MimeHint       string       `json:"mime_hint" db:"mime_hint"`
	Licensing      Licensing    `json:"licensing" db:"licensing"`
	Changes        []FieldGroup `json:"changes" db:"changes"`
	Hidden         []FieldGroup `json:"hidden" db:"hidden"`
	Comments       string       `json:"comments" db:"comments"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// Blob returns the revision's blob group as one value.
func (r *FileRevision) Blob() Blob {
	return Blob{
		ContentHash: r.ContentHash,
		SizeHint:    r.SizeHint,
		MimeHint:    r.MimeHint,
	}
}

// HasChange reports whether the given field group differs from the
// immediately preceding revision.
func (r *FileRevision) HasChange(group FieldGroup) bool {
	for _, g := range r.Changes {
		if g == group {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the revision. Slices are copied so the
// clone shares no mutable state with the original.
func (r *FileRevision) Clone() *FileRevision {
	out := *r
	out.ContentHash = bytes.Clone(r.ContentHash)
	out.Licensing = bytes.Clone(r.Licensing)
	out.Changes = append([]FieldGroup(nil), r.Changes...)
	out.Hidden = append([]FieldGroup(nil), r.Hidden...)
	return &out
}

package service

import (
	"errors"
	"strings"
	"testing"

	"papertrail/internal/domain"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/services"

	"github.com/google/go-cmp/cmp"
)

func previousRevision() *models.FileRevision {
	return &models.FileRevision{
		RevisionID:     "rev-1",
		RevisionType:   models.RevisionCreate,
		RevisionNumber: 1,
		SiteID:         1,
		PageID:         10,
		FileID:         5,
		UserID:         7,
		Name:           "a.png",
		ContentHash:    []byte{0x01, 0x02},
		SizeHint:       100,
		MimeHint:       "image/png",
		Licensing:      models.Licensing(`{"license":"cc0"}`),
		Changes:        models.AllFieldGroups(),
		Hidden:         []models.FieldGroup{},
	}
}

func TestMergeRevisionBody(t *testing.T) {
	tests := []struct {
		name        string
		body        services.CreateRevisionBody
		wantChanges []models.FieldGroup
		check       func(t *testing.T, got mergedRevision)
	}{
		{
			name:        "empty body changes nothing",
			body:        services.CreateRevisionBody{},
			wantChanges: nil,
			check: func(t *testing.T, got mergedRevision) {
				if got.name != "a.png" || got.pageID != 10 {
					t.Errorf("previous values not retained: %+v", got)
				}
			},
		},
		{
			name: "set-but-equal values change nothing",
			body: services.CreateRevisionBody{
				PageID: models.Set[int64](10),
				Name:   models.Set("a.png"),
				Blob: models.Set(models.Blob{
					ContentHash: []byte{0x01, 0x02},
					SizeHint:    100,
					MimeHint:    "image/png",
				}),
				Licensing: models.Set(models.Licensing(`{"license":"cc0"}`)),
			},
			wantChanges: nil,
		},
		{
			name: "name change marks only name",
			body: services.CreateRevisionBody{
				Name: models.Set("b.png"),
			},
			wantChanges: []models.FieldGroup{models.FieldGroupName},
			check: func(t *testing.T, got mergedRevision) {
				if got.name != "b.png" {
					t.Errorf("name = %q, want b.png", got.name)
				}
			},
		},
		{
			name: "page change marks only page",
			body: services.CreateRevisionBody{
				PageID: models.Set[int64](11),
			},
			wantChanges: []models.FieldGroup{models.FieldGroupPage},
			check: func(t *testing.T, got mergedRevision) {
				if got.pageID != 11 {
					t.Errorf("pageID = %d, want 11", got.pageID)
				}
			},
		},
		{
			name: "size-only difference marks the whole blob group",
			body: services.CreateRevisionBody{
				Blob: models.Set(models.Blob{
					ContentHash: []byte{0x01, 0x02},
					SizeHint:    200,
					MimeHint:    "image/png",
				}),
			},
			wantChanges: []models.FieldGroup{models.FieldGroupBlob},
			check: func(t *testing.T, got mergedRevision) {
				if got.blob.SizeHint != 200 {
					t.Errorf("SizeHint = %d, want 200", got.blob.SizeHint)
				}
			},
		},
		{
			name: "mime-only difference marks the whole blob group",
			body: services.CreateRevisionBody{
				Blob: models.Set(models.Blob{
					ContentHash: []byte{0x01, 0x02},
					SizeHint:    100,
					MimeHint:    "image/jpeg",
				}),
			},
			wantChanges: []models.FieldGroup{models.FieldGroupBlob},
		},
		{
			name: "licensing change marks licensing",
			body: services.CreateRevisionBody{
				Licensing: models.Set(models.Licensing(`{"license":"cc-by-4.0"}`)),
			},
			wantChanges: []models.FieldGroup{models.FieldGroupLicensing},
		},
		{
			name: "multiple changes keep display order",
			body: services.CreateRevisionBody{
				PageID: models.Set[int64](11),
				Name:   models.Set("b.png"),
				Blob: models.Set(models.Blob{
					ContentHash: []byte{0x09},
					SizeHint:    1,
					MimeHint:    "image/png",
				}),
				Licensing: models.Set(models.Licensing(`{"license":"mit"}`)),
			},
			wantChanges: models.AllFieldGroups(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeRevisionBody(previousRevision(), tt.body)

			if diff := cmp.Diff(tt.wantChanges, got.changes); diff != "" {
				t.Errorf("changes mismatch (-want +got):\n%s", diff)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeHint string
		wantErr  bool
	}{
		{name: "valid", fileName: "a.png", mimeHint: "image/png", wantErr: false},
		{name: "empty name", fileName: "", mimeHint: "image/png", wantErr: true},
		{name: "empty mime hint", fileName: "a.png", mimeHint: "", wantErr: true},
		{name: "name at limit", fileName: strings.Repeat("x", 256), mimeHint: "image/png", wantErr: true},
		{name: "name just under limit", fileName: strings.Repeat("x", 255), mimeHint: "image/png", wantErr: false},
		// Each astral-plane rune is two UTF-16 code units, so 128 of
		// them hit the 256-unit limit.
		{name: "astral name at limit", fileName: strings.Repeat("\U0001F600", 128), mimeHint: "image/png", wantErr: true},
		{name: "astral name under limit", fileName: strings.Repeat("\U0001F600", 127), mimeHint: "image/png", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSnapshot(tt.fileName, tt.mimeHint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error %v does not match ErrValidation", err)
			}
		})
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"papertrail/internal/domain"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/repositories"
	"papertrail/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// revisionService implements the RevisionService interface. It is the
// lifecycle state machine for file histories: create-first, update,
// tombstone, and resurrection each append exactly one revision and run
// the outdater inside one transaction scope.
type revisionService struct {
	ledger    repositories.RevisionLedger
	txManager repositories.TransactionManager
	pages     services.PageResolver
	outdater  services.Outdater
	logger    *slog.Logger
}

// NewRevisionService creates a new revision service.
func NewRevisionService(
	ledger repositories.RevisionLedger,
	txManager repositories.TransactionManager,
	pages services.PageResolver,
	outdater services.Outdater,
	logger *slog.Logger,
) services.RevisionService {
	return &revisionService{
		ledger:    ledger,
		txManager: txManager,
		pages:     pages,
		outdater:  outdater,
		logger:    logger,
	}
}

// CreateFirst starts the history of a newly-uploaded file. The first
// revision is always considered to have changed everything, so its
// changes list is the full field-group set.
func (s *revisionService) CreateFirst(ctx context.Context, input services.CreateFirstRevision) (*services.CreateFirstRevisionOutput, error) {
	if err := validateCreateFirst(&input); err != nil {
		return nil, err
	}
	if err := validateSnapshot(input.Name, input.MimeHint); err != nil {
		return nil, err
	}

	var output *services.CreateFirstRevisionOutput
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		slug, err := s.pages.ResolveSlug(txCtx, input.SiteID, input.PageID)
		if err != nil {
			return fmt.Errorf("resolve page slug: %w", err)
		}

		// A brand-new file now exists where none did, so this is a
		// displacement rather than an edit.
		if err := s.outdater.ProcessPageDisplace(txCtx, input.SiteID, input.PageID, slug); err != nil {
			return fmt.Errorf("outdate page displace: %w", err)
		}

		appended, err := s.ledger.Append(txCtx, &models.FileRevision{
			RevisionType:   models.RevisionCreate,
			RevisionNumber: 1,
			SiteID:         input.SiteID,
			PageID:         input.PageID,
			FileID:         input.FileID,
			UserID:         input.UserID,
			Name:           input.Name,
			ContentHash:    input.ContentHash,
			SizeHint:       input.SizeHint,
			MimeHint:       input.MimeHint,
			Licensing:      input.Licensing,
			Changes:        models.AllFieldGroups(),
			Hidden:         []models.FieldGroup{},
			Comments:       input.Comments,
		})
		if err != nil {
			return err
		}

		output = &services.CreateFirstRevisionOutput{
			FileID:     input.FileID,
			RevisionID: appended.RevisionID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("first revision created",
		"site_id", input.SiteID,
		"file_id", input.FileID,
		"revision_id", output.RevisionID,
	)
	return output, nil
}

// Create appends a new revision on an existing, live file. The partial
// body is merged over the previous snapshot; if nothing actually
// differs, no revision is created and no invalidation runs.
func (s *revisionService) Create(ctx context.Context, input services.CreateRevision, previous *models.FileRevision) (*services.CreateRevisionOutput, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	revisionNumber := nextRevisionNumber(previous, input.PageID, input.FileID)
	merged := mergeRevisionBody(previous, input.Body)

	// If nothing has changed, don't create a new revision. This isn't
	// an edit, so the outdater must not run either.
	if len(merged.changes) == 0 {
		s.logger.Debug("no-op revision skipped",
			"site_id", input.SiteID,
			"file_id", input.FileID,
		)
		return nil, nil
	}

	if err := validateSnapshot(merged.name, merged.blob.MimeHint); err != nil {
		return nil, err
	}

	var output *services.CreateRevisionOutput
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		slug, err := s.pages.ResolveSlug(txCtx, input.SiteID, merged.pageID)
		if err != nil {
			return fmt.Errorf("resolve page slug: %w", err)
		}
		if err := s.outdater.ProcessPageEdit(txCtx, input.SiteID, merged.pageID, slug); err != nil {
			return fmt.Errorf("outdate page edit: %w", err)
		}

		appended, err := s.ledger.Append(txCtx, &models.FileRevision{
			RevisionType:   models.RevisionUpdate,
			RevisionNumber: revisionNumber,
			SiteID:         input.SiteID,
			PageID:         merged.pageID,
			FileID:         input.FileID,
			UserID:         input.UserID,
			Name:           merged.name,
			ContentHash:    merged.blob.ContentHash,
			SizeHint:       merged.blob.SizeHint,
			MimeHint:       merged.blob.MimeHint,
			Licensing:      merged.licensing,
			Changes:        merged.changes,
			Hidden:         []models.FieldGroup{},
			Comments:       input.Comments,
		})
		if err != nil {
			return err
		}

		output = &services.CreateRevisionOutput{
			RevisionID:     appended.RevisionID,
			RevisionNumber: revisionNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("revision created",
		"site_id", input.SiteID,
		"file_id", input.FileID,
		"revision_number", revisionNumber,
		"changes", models.FieldGroupStrings(merged.changes),
	)
	return output, nil
}

// CreateTombstone appends a revision marking the file as deleted. A
// tombstone is a lifecycle marker, not a content edit: the previous
// snapshot is carried forward unchanged and the changes list is empty.
func (s *revisionService) CreateTombstone(ctx context.Context, input services.CreateTombstoneRevision, previous *models.FileRevision) (*services.CreateRevisionOutput, error) {
	if err := validateTombstone(&input); err != nil {
		return nil, err
	}

	revisionNumber := nextRevisionNumber(previous, input.PageID, input.FileID)

	var output *services.CreateRevisionOutput
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		slug, err := s.pages.ResolveSlug(txCtx, input.SiteID, input.PageID)
		if err != nil {
			return fmt.Errorf("resolve page slug: %w", err)
		}
		if err := s.outdater.ProcessPageEdit(txCtx, input.SiteID, input.PageID, slug); err != nil {
			return fmt.Errorf("outdate page edit: %w", err)
		}

		appended, err := s.ledger.Append(txCtx, &models.FileRevision{
			RevisionType:   models.RevisionDelete,
			RevisionNumber: revisionNumber,
			SiteID:         input.SiteID,
			PageID:         input.PageID,
			FileID:         input.FileID,
			UserID:         input.UserID,
			Name:           previous.Name,
			ContentHash:    previous.ContentHash,
			SizeHint:       previous.SizeHint,
			MimeHint:       previous.MimeHint,
			Licensing:      previous.Licensing,
			Changes:        []models.FieldGroup{},
			Hidden:         []models.FieldGroup{},
			Comments:       input.Comments,
		})
		if err != nil {
			return err
		}

		output = &services.CreateRevisionOutput{
			RevisionID:     appended.RevisionID,
			RevisionNumber: revisionNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tombstone revision created",
		"site_id", input.SiteID,
		"file_id", input.FileID,
		"revision_number", revisionNumber,
	)
	return output, nil
}

// CreateResurrection appends a revision restoring a tombstoned file,
// possibly reattaching it to a different page under a new name. Blob
// and licensing are carried forward verbatim from the tombstoned
// snapshot; only page and name can appear in the changes list.
//
// Like CreateFirst, this assumes the caller has already verified that
// undeleting the file here will not cause conflicts.
func (s *revisionService) CreateResurrection(ctx context.Context, input services.CreateResurrectionRevision, previous *models.FileRevision) (*services.CreateRevisionOutput, error) {
	if err := validateResurrection(&input); err != nil {
		return nil, err
	}
	if err := validateSnapshot(input.NewName, previous.MimeHint); err != nil {
		return nil, err
	}

	revisionNumber := nextRevisionNumber(previous, input.PageID, input.FileID)

	changes := []models.FieldGroup{}
	if input.PageID != input.NewPageID {
		changes = append(changes, models.FieldGroupPage)
	}
	if previous.Name != input.NewName {
		changes = append(changes, models.FieldGroupName)
	}

	var output *services.CreateRevisionOutput
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// The edit lands on the destination page.
		slug, err := s.pages.ResolveSlug(txCtx, input.SiteID, input.NewPageID)
		if err != nil {
			return fmt.Errorf("resolve page slug: %w", err)
		}
		if err := s.outdater.ProcessPageEdit(txCtx, input.SiteID, input.NewPageID, slug); err != nil {
			return fmt.Errorf("outdate page edit: %w", err)
		}

		appended, err := s.ledger.Append(txCtx, &models.FileRevision{
			RevisionType:   models.RevisionUndelete,
			RevisionNumber: revisionNumber,
			SiteID:         input.SiteID,
			PageID:         input.NewPageID,
			FileID:         input.FileID,
			UserID:         input.UserID,
			Name:           input.NewName,
			ContentHash:    previous.ContentHash,
			SizeHint:       previous.SizeHint,
			MimeHint:       previous.MimeHint,
			Licensing:      previous.Licensing,
			Changes:        changes,
			Hidden:         []models.FieldGroup{},
			Comments:       input.Comments,
		})
		if err != nil {
			return err
		}

		output = &services.CreateRevisionOutput{
			RevisionID:     appended.RevisionID,
			RevisionNumber: revisionNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("resurrection revision created",
		"site_id", input.SiteID,
		"file_id", input.FileID,
		"new_page_id", input.NewPageID,
		"revision_number", revisionNumber,
	)
	return output, nil
}

// SetHidden redacts field groups of a revision. Revisions are immutable
// entries in an append-only log; the hidden set alone can be updated to
// cover spam and abuse. The latest revision cannot be hidden, because
// the file, its name, and its contents are exposed through it: it must
// be reverted first, and then it can be hidden.
func (s *revisionService) SetHidden(ctx context.Context, input services.SetRevisionHidden) (*models.FileRevision, error) {
	if err := validateSetHidden(&input); err != nil {
		return nil, err
	}

	var updated *models.FileRevision
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		latest, err := s.ledger.Latest(txCtx, input.SiteID, input.FileID)
		if err != nil {
			return err
		}
		if input.RevisionID == latest.RevisionID {
			s.logger.Warn("attempted to hide latest revision, denying request",
				"site_id", input.SiteID,
				"file_id", input.FileID,
				"revision_id", input.RevisionID,
			)
			return domain.ErrCannotHideLatestRevision
		}

		// TODO record the redaction in an audit log once one exists

		updated, err = s.ledger.SetHidden(txCtx, input.RevisionID, input.Hidden)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetLatest returns the most recent revision for the file.
func (s *revisionService) GetLatest(ctx context.Context, siteID, fileID int64) (*models.FileRevision, error) {
	return s.ledger.Latest(ctx, siteID, fileID)
}

// GetOptional returns the given revision, or nil when absent.
func (s *revisionService) GetOptional(ctx context.Context, input services.GetRevision) (*models.FileRevision, error) {
	return s.ledger.Get(ctx, input.SiteID, input.FileID, input.RevisionNumber)
}

// Get returns the given revision, failing if it doesn't exist.
func (s *revisionService) Get(ctx context.Context, input services.GetRevision) (*models.FileRevision, error) {
	revision, err := s.GetOptional(ctx, input)
	if err != nil {
		return nil, err
	}
	if revision == nil {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("file %d revision %d not found", input.FileID, input.RevisionNumber),
		}
	}
	return revision, nil
}

// Count returns the number of revisions for the file.
func (s *revisionService) Count(ctx context.Context, siteID, fileID int64) (int32, error) {
	return s.ledger.Count(ctx, siteID, fileID)
}

// GetRange returns a slice of the file's history around the anchor.
func (s *revisionService) GetRange(ctx context.Context, input services.GetRevisionRange) ([]models.FileRevision, error) {
	return s.ledger.Range(ctx, input.SiteID, input.FileID, input.RevisionNumber, input.Direction, input.Limit)
}

func validateCreateFirst(input *services.CreateFirstRevision) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.SiteID, validation.Required),
		validation.Field(&input.PageID, validation.Required),
		validation.Field(&input.FileID, validation.Required),
		validation.Field(&input.UserID, validation.Required),
		validation.Field(&input.ContentHash, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateCreate(input *services.CreateRevision) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.SiteID, validation.Required),
		validation.Field(&input.PageID, validation.Required),
		validation.Field(&input.FileID, validation.Required),
		validation.Field(&input.UserID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateTombstone(input *services.CreateTombstoneRevision) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.SiteID, validation.Required),
		validation.Field(&input.PageID, validation.Required),
		validation.Field(&input.FileID, validation.Required),
		validation.Field(&input.UserID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateResurrection(input *services.CreateResurrectionRevision) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.SiteID, validation.Required),
		validation.Field(&input.PageID, validation.Required),
		validation.Field(&input.FileID, validation.Required),
		validation.Field(&input.UserID, validation.Required),
		validation.Field(&input.NewPageID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateSetHidden(input *services.SetRevisionHidden) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.SiteID, validation.Required),
		validation.Field(&input.FileID, validation.Required),
		validation.Field(&input.RevisionID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"papertrail/internal/domain"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/repositories"
	"papertrail/internal/domain/services"
	"papertrail/internal/repository/memory"

	"github.com/google/go-cmp/cmp"
)

type outdateCall struct {
	siteID int64
	pageID int64
	slug   string
}

type fakeOutdater struct {
	edits     []outdateCall
	displaces []outdateCall
	err       error
}

func (o *fakeOutdater) ProcessPageEdit(ctx context.Context, siteID, pageID int64, slug string) error {
	if o.err != nil {
		return o.err
	}
	o.edits = append(o.edits, outdateCall{siteID: siteID, pageID: pageID, slug: slug})
	return nil
}

func (o *fakeOutdater) ProcessPageDisplace(ctx context.Context, siteID, pageID int64, slug string) error {
	if o.err != nil {
		return o.err
	}
	o.displaces = append(o.displaces, outdateCall{siteID: siteID, pageID: pageID, slug: slug})
	return nil
}

type fakePageResolver struct {
	slugs map[int64]string
}

func (r *fakePageResolver) ResolveSlug(ctx context.Context, siteID, pageID int64) (string, error) {
	slug, ok := r.slugs[pageID]
	if !ok {
		return "", &domain.NotFoundError{Message: fmt.Sprintf("page %d not found", pageID)}
	}
	return slug, nil
}

type testEnv struct {
	svc      services.RevisionService
	ledger   *memory.MemoryRevisionLedger
	outdater *fakeOutdater
}

func newTestEnv() *testEnv {
	ledger := memory.NewRevisionLedger()
	outdater := &fakeOutdater{}
	svc := NewRevisionService(
		ledger,
		memory.NewTransactionManager(ledger),
		&fakePageResolver{slugs: map[int64]string{10: "home", 11: "archive"}},
		outdater,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &testEnv{svc: svc, ledger: ledger, outdater: outdater}
}

func createFirstInput() services.CreateFirstRevision {
	return services.CreateFirstRevision{
		SiteID:      1,
		PageID:      10,
		FileID:      5,
		UserID:      7,
		Name:        "a.png",
		ContentHash: []byte{0xaa},
		SizeHint:    100,
		MimeHint:    "image/png",
		Licensing:   models.Licensing(`{"license":"cc0"}`),
		Comments:    "initial upload",
	}
}

func TestLifecycleWalk(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// create_first -> revision 1, type create, full change set
	first, err := env.svc.CreateFirst(ctx, createFirstInput())
	if err != nil {
		t.Fatalf("CreateFirst: %v", err)
	}
	latest, err := env.svc.GetLatest(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest.RevisionType != models.RevisionCreate || latest.RevisionNumber != 1 {
		t.Fatalf("first revision = %s #%d, want create #1", latest.RevisionType, latest.RevisionNumber)
	}
	if diff := cmp.Diff(models.AllFieldGroups(), latest.Changes); diff != "" {
		t.Fatalf("first revision changes (-want +got):\n%s", diff)
	}
	if latest.RevisionID != first.RevisionID {
		t.Fatalf("latest id %s != created id %s", latest.RevisionID, first.RevisionID)
	}
	if len(env.outdater.displaces) != 1 || env.outdater.displaces[0].slug != "home" {
		t.Fatalf("displace calls = %+v, want one for slug home", env.outdater.displaces)
	}

	// update(name) -> revision 2, changes = [name]
	edit, err := env.svc.Create(ctx, services.CreateRevision{
		SiteID: 1, PageID: 10, FileID: 5, UserID: 7,
		Comments: "rename",
		Body:     services.CreateRevisionBody{Name: models.Set("b.png")},
	}, latest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if edit == nil || edit.RevisionNumber != 2 {
		t.Fatalf("edit output = %+v, want revision 2", edit)
	}
	latest, err = env.svc.GetLatest(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if diff := cmp.Diff([]models.FieldGroup{models.FieldGroupName}, latest.Changes); diff != "" {
		t.Fatalf("edit changes (-want +got):\n%s", diff)
	}

	// repeating the identical update is a no-op: no revision, no outdate
	editsBefore := len(env.outdater.edits)
	noop, err := env.svc.Create(ctx, services.CreateRevision{
		SiteID: 1, PageID: 10, FileID: 5, UserID: 7,
		Comments: "rename again",
		Body:     services.CreateRevisionBody{Name: models.Set("b.png")},
	}, latest)
	if err != nil {
		t.Fatalf("no-op Create: %v", err)
	}
	if noop != nil {
		t.Fatalf("expected no-op, got %+v", noop)
	}
	if count, err := env.svc.Count(ctx, 1, 5); err != nil || count != 2 {
		t.Fatalf("Count = %d, %v; want 2, nil", count, err)
	}
	if len(env.outdater.edits) != editsBefore {
		t.Fatal("no-op update must not run the outdater")
	}

	// delete -> revision 3, type delete, empty changes, snapshot carried
	tombstone, err := env.svc.CreateTombstone(ctx, services.CreateTombstoneRevision{
		SiteID: 1, PageID: 10, FileID: 5, UserID: 7, Comments: "cleanup",
	}, latest)
	if err != nil {
		t.Fatalf("CreateTombstone: %v", err)
	}
	if tombstone.RevisionNumber != 3 {
		t.Fatalf("tombstone number = %d, want 3", tombstone.RevisionNumber)
	}
	latest, err = env.svc.GetLatest(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest.RevisionType != models.RevisionDelete || len(latest.Changes) != 0 {
		t.Fatalf("tombstone = %s changes %v, want delete with no changes", latest.RevisionType, latest.Changes)
	}
	if latest.Name != "b.png" || latest.MimeHint != "image/png" {
		t.Fatalf("tombstone snapshot not carried forward: %+v", latest)
	}

	// undelete(new page, new name) -> revision 4, changes = [page, name]
	resurrection, err := env.svc.CreateResurrection(ctx, services.CreateResurrectionRevision{
		SiteID: 1, PageID: 10, FileID: 5, UserID: 7,
		NewPageID: 11, NewName: "c.png", Comments: "restore",
	}, latest)
	if err != nil {
		t.Fatalf("CreateResurrection: %v", err)
	}
	if resurrection.RevisionNumber != 4 {
		t.Fatalf("resurrection number = %d, want 4", resurrection.RevisionNumber)
	}
	latest, err = env.svc.GetLatest(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	wantChanges := []models.FieldGroup{models.FieldGroupPage, models.FieldGroupName}
	if diff := cmp.Diff(wantChanges, latest.Changes); diff != "" {
		t.Fatalf("resurrection changes (-want +got):\n%s", diff)
	}
	if latest.PageID != 11 || latest.Name != "c.png" {
		t.Fatalf("resurrection record = page %d name %q, want page 11 name c.png", latest.PageID, latest.Name)
	}
	if latest.MimeHint != "image/png" || latest.SizeHint != 100 {
		t.Fatalf("resurrection must carry content fields verbatim: %+v", latest)
	}

	// full history scan: gapless ascending 1..4
	history, err := env.svc.GetRange(ctx, services.GetRevisionRange{
		SiteID: 1, FileID: 5,
		RevisionNumber: repositories.LatestRevisionAnchor,
		Direction:      repositories.FetchBefore,
		Limit:          100,
	})
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history length = %d, want 4", len(history))
	}
	for i, revision := range history {
		if revision.RevisionNumber != int32(i+1) {
			t.Fatalf("history[%d].RevisionNumber = %d, want %d", i, revision.RevisionNumber, i+1)
		}
	}

	// redact revision 2 succeeds and alters only hidden
	two, err := env.svc.Get(ctx, services.GetRevision{SiteID: 1, FileID: 5, RevisionNumber: 2})
	if err != nil {
		t.Fatalf("Get revision 2: %v", err)
	}
	hidden, err := env.svc.SetHidden(ctx, services.SetRevisionHidden{
		SiteID: 1, FileID: 5, UserID: 7,
		RevisionID: two.RevisionID,
		Hidden:     []models.FieldGroup{models.FieldGroupName},
	})
	if err != nil {
		t.Fatalf("SetHidden: %v", err)
	}
	if diff := cmp.Diff([]models.FieldGroup{models.FieldGroupName}, hidden.Hidden); diff != "" {
		t.Fatalf("hidden set (-want +got):\n%s", diff)
	}
	two.Hidden = hidden.Hidden
	if diff := cmp.Diff(two, hidden); diff != "" {
		t.Fatalf("redaction altered more than hidden (-want +got):\n%s", diff)
	}

	// redacting the latest revision fails with a conflict
	_, err = env.svc.SetHidden(ctx, services.SetRevisionHidden{
		SiteID: 1, FileID: 5, UserID: 7,
		RevisionID: latest.RevisionID,
		Hidden:     []models.FieldGroup{models.FieldGroupName},
	})
	if !errors.Is(err, domain.ErrCannotHideLatestRevision) {
		t.Fatalf("SetHidden(latest) error = %v, want ErrCannotHideLatestRevision", err)
	}
}

func TestCreateValidatesMergedSnapshotBeforeWrites(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.CreateFirst(ctx, createFirstInput()); err != nil {
		t.Fatalf("CreateFirst: %v", err)
	}
	previous, err := env.svc.GetLatest(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}

	editsBefore := len(env.outdater.edits)
	_, err = env.svc.Create(ctx, services.CreateRevision{
		SiteID: 1, PageID: 10, FileID: 5, UserID: 7,
		Body: services.CreateRevisionBody{Name: models.Set("")},
	}, previous)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create with empty name error = %v, want ErrValidation", err)
	}

	// fail fast: no append, no invalidation
	if count, err := env.svc.Count(ctx, 1, 5); err != nil || count != 1 {
		t.Fatalf("Count = %d, %v; want 1, nil", count, err)
	}
	if len(env.outdater.edits) != editsBefore {
		t.Fatal("failed validation must not run the outdater")
	}
}

func TestOutdaterFailureRollsBackAppend(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.CreateFirst(ctx, createFirstInput()); err != nil {
		t.Fatalf("CreateFirst: %v", err)
	}
	previous, err := env.svc.GetLatest(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}

	env.outdater.err = errors.New("invalidation backend down")
	_, err = env.svc.Create(ctx, services.CreateRevision{
		SiteID: 1, PageID: 10, FileID: 5, UserID: 7,
		Body: services.CreateRevisionBody{Name: models.Set("b.png")},
	}, previous)
	if err == nil {
		t.Fatal("expected error from failing outdater")
	}

	// the transaction rolled back, so no partial revision is visible
	if count, err := env.svc.Count(ctx, 1, 5); err != nil || count != 1 {
		t.Fatalf("Count after rollback = %d, %v; want 1, nil", count, err)
	}
}

func TestCreateFirstFailsWhenPageMissing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	input := createFirstInput()
	input.PageID = 99
	_, err := env.svc.CreateFirst(ctx, input)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("CreateFirst on missing page error = %v, want ErrNotFound", err)
	}

	// slug resolution failed inside the transaction, so nothing persisted
	if _, err := env.svc.GetLatest(ctx, 1, 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetLatest error = %v, want ErrNotFound", err)
	}
}

func TestGetLatestUnknownFile(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.GetLatest(context.Background(), 1, 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetLatest error = %v, want ErrNotFound", err)
	}
}

func TestCountUnknownFileIsNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Count(context.Background(), 1, 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Count error = %v, want ErrNotFound", err)
	}
}

func TestGetOptionalAbsentRevision(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.CreateFirst(ctx, createFirstInput()); err != nil {
		t.Fatalf("CreateFirst: %v", err)
	}

	revision, err := env.svc.GetOptional(ctx, services.GetRevision{SiteID: 1, FileID: 5, RevisionNumber: 9})
	if err != nil || revision != nil {
		t.Fatalf("GetOptional = %v, %v; want nil, nil", revision, err)
	}

	if _, err := env.svc.Get(ctx, services.GetRevision{SiteID: 1, FileID: 5, RevisionNumber: 9}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"papertrail/internal/config"
	"papertrail/internal/domain/models"
	"papertrail/internal/domain/repositories"
	"papertrail/internal/domain/services"
	"papertrail/internal/repository/postgres"
	"papertrail/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// seed drives a full file lifecycle through the real service stack:
// create, edit, no-op edit, tombstone, resurrection, redaction. It
// doubles as an end-to-end smoke check against a live database.
func main() {
	siteID := flag.Int64("site", 1, "Site ID to seed under")
	fileID := flag.Int64("file", 1, "File ID to seed")
	userID := flag.Int64("user", 1, "Acting user ID")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: seeding is for development and test environments only
	if cfg.Environment == "prod" {
		log.Fatalf("Cannot seed in production environment")
	}

	logFile, err := config.SetupLogFile(cfg.LogDir, 5)
	if err != nil {
		log.Fatalf("Failed to set up log file: %v", err)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stdout, logFile), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.ApplySchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	ledger := postgres.NewRevisionLedger(repoConfig)
	txManager := postgres.NewTransactionManager(pool)
	pages := postgres.NewPageResolver(repoConfig)
	outdater := &logOutdater{logger: logger}

	revisions := service.NewRevisionService(ledger, txManager, pages, outdater, logger)

	const (
		homePageID    = 10
		archivePageID = 11
	)
	if err := seedPage(ctx, pool, tables, *siteID, homePageID, "home"); err != nil {
		log.Fatalf("Failed to seed page: %v", err)
	}
	if err := seedPage(ctx, pool, tables, *siteID, archivePageID, "archive"); err != nil {
		log.Fatalf("Failed to seed page: %v", err)
	}

	licensing := models.Licensing(`{"license":"cc-by-sa-4.0"}`)

	first, err := revisions.CreateFirst(ctx, services.CreateFirstRevision{
		SiteID:      *siteID,
		PageID:      homePageID,
		FileID:      *fileID,
		UserID:      *userID,
		Name:        "diagram.png",
		ContentHash: []byte{0xde, 0xad, 0xbe, 0xef},
		SizeHint:    2048,
		MimeHint:    "image/png",
		Licensing:   licensing,
		Comments:    "initial upload",
	})
	if err != nil {
		log.Fatalf("Failed to create first revision: %v", err)
	}
	logger.Info("created first revision", "revision_id", first.RevisionID)

	previous, err := revisions.GetLatest(ctx, *siteID, *fileID)
	if err != nil {
		log.Fatalf("Failed to fetch latest revision: %v", err)
	}

	edit, err := revisions.Create(ctx, services.CreateRevision{
		SiteID:   *siteID,
		PageID:   homePageID,
		FileID:   *fileID,
		UserID:   *userID,
		Comments: "rename",
		Body: services.CreateRevisionBody{
			Name: models.Set("diagram-v2.png"),
		},
	}, previous)
	if err != nil {
		log.Fatalf("Failed to create edit revision: %v", err)
	}
	logger.Info("created edit revision", "revision_number", edit.RevisionNumber)

	// Repeating the same edit must be a no-op.
	previous, err = revisions.GetLatest(ctx, *siteID, *fileID)
	if err != nil {
		log.Fatalf("Failed to fetch latest revision: %v", err)
	}
	noop, err := revisions.Create(ctx, services.CreateRevision{
		SiteID:   *siteID,
		PageID:   homePageID,
		FileID:   *fileID,
		UserID:   *userID,
		Comments: "rename again",
		Body: services.CreateRevisionBody{
			Name: models.Set("diagram-v2.png"),
		},
	}, previous)
	if err != nil {
		log.Fatalf("Failed on no-op edit: %v", err)
	}
	if noop != nil {
		log.Fatalf("Expected a no-op, got revision %d", noop.RevisionNumber)
	}
	logger.Info("no-op edit skipped as expected")

	previous, err = revisions.GetLatest(ctx, *siteID, *fileID)
	if err != nil {
		log.Fatalf("Failed to fetch latest revision: %v", err)
	}
	tombstone, err := revisions.CreateTombstone(ctx, services.CreateTombstoneRevision{
		SiteID:   *siteID,
		PageID:   homePageID,
		FileID:   *fileID,
		UserID:   *userID,
		Comments: "cleanup",
	}, previous)
	if err != nil {
		log.Fatalf("Failed to create tombstone: %v", err)
	}
	logger.Info("created tombstone revision", "revision_number", tombstone.RevisionNumber)

	previous, err = revisions.GetLatest(ctx, *siteID, *fileID)
	if err != nil {
		log.Fatalf("Failed to fetch latest revision: %v", err)
	}
	resurrection, err := revisions.CreateResurrection(ctx, services.CreateResurrectionRevision{
		SiteID:    *siteID,
		PageID:    homePageID,
		FileID:    *fileID,
		UserID:    *userID,
		NewPageID: archivePageID,
		NewName:   "diagram-restored.png",
		Comments:  "restore to archive",
	}, previous)
	if err != nil {
		log.Fatalf("Failed to create resurrection: %v", err)
	}
	logger.Info("created resurrection revision", "revision_number", resurrection.RevisionNumber)

	// Redact the rename revision, which is safely non-latest by now.
	hidden, err := revisions.SetHidden(ctx, services.SetRevisionHidden{
		SiteID:     *siteID,
		FileID:     *fileID,
		RevisionID: edit.RevisionID,
		UserID:     *userID,
		Hidden:     []models.FieldGroup{models.FieldGroupName},
	})
	if err != nil {
		log.Fatalf("Failed to hide revision: %v", err)
	}
	logger.Info("hid revision fields",
		"revision_id", hidden.RevisionID,
		"hidden", models.FieldGroupStrings(hidden.Hidden),
	)

	count, err := revisions.Count(ctx, *siteID, *fileID)
	if err != nil {
		log.Fatalf("Failed to count revisions: %v", err)
	}
	history, err := revisions.GetRange(ctx, services.GetRevisionRange{
		SiteID:         *siteID,
		FileID:         *fileID,
		RevisionNumber: repositories.LatestRevisionAnchor,
		Direction:      repositories.FetchBefore,
		Limit:          config.DefaultRangeLimit,
	})
	if err != nil {
		log.Fatalf("Failed to scan history: %v", err)
	}
	for _, revision := range history {
		summary, _ := json.Marshal(map[string]any{
			"number":  revision.RevisionNumber,
			"type":    revision.RevisionType,
			"changes": revision.Changes,
		})
		logger.Info("history entry", "revision", string(summary))
	}
	logger.Info("seed complete", "revisions", count)
}

// logOutdater stands in for the cache-invalidation engine, which runs
// as a separate system. It records what would have been invalidated.
type logOutdater struct {
	logger *slog.Logger
}

func (o *logOutdater) ProcessPageEdit(ctx context.Context, siteID, pageID int64, slug string) error {
	o.logger.Debug("outdating page edit", "site_id", siteID, "page_id", pageID, "slug", slug)
	return nil
}

func (o *logOutdater) ProcessPageDisplace(ctx context.Context, siteID, pageID int64, slug string) error {
	o.logger.Debug("outdating page displace", "site_id", siteID, "page_id", pageID, "slug", slug)
	return nil
}

func seedPage(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, siteID, pageID int64, slug string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (page_id, site_id, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (site_id, page_id) DO UPDATE SET slug = EXCLUDED.slug
	`, tables.Pages)
	if _, err := pool.Exec(ctx, query, pageID, siteID, slug); err != nil {
		return fmt.Errorf("seed page %q: %w", slug, err)
	}
	return nil
}

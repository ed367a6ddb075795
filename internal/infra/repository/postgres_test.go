package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/totegamma/cardfeed/internal/domain"
	"github.com/totegamma/cardfeed/internal/infra/database"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("CARDFEED_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CARDFEED_TEST_POSTGRES_DSN not set")
	}

	db, err := database.NewPostgres(dsn)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.MigratePostgres(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func TestPostgresCardRoundTrip(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	repo := NewCardRepository(db)

	id := uuid.NewString()
	uri := "at://did:plc:abc123/network.cosmik.card/" + id
	card := domain.Card{
		ID:              id,
		Author:          "did:plc:abc123",
		Kind:            domain.ContentKindNote,
		Text:            "hello",
		Metadata:        map[string]any{"lang": "en"},
		PublishedRecord: &domain.PublishedRecord{URI: uri, CID: "bafy1"},
	}
	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	card.Text = "hello again"
	card.PublishedRecord.CID = "bafy2"
	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Text != "hello again" || got.PublishedRecord == nil || got.PublishedRecord.CID != "bafy2" {
		t.Fatalf("unexpected card: %+v", got)
	}
	if got.Metadata["lang"] != "en" {
		t.Fatalf("unexpected metadata: %v", got.Metadata)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = repo.FindByID(ctx, id)
	if !errors.Is(err, domain.NotFoundError{}) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresResolution(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	repo := NewResolutionRepository(db)

	uri := "at://did:plc:abc123/network.cosmik.collection/" + uuid.NewString()
	if err := repo.Store(ctx, domain.ResourceKindCollection, uri, "first"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := repo.Store(ctx, domain.ResourceKindCollection, uri, "second"); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	id, err := repo.Resolve(ctx, domain.ResourceKindCollection, uri)
	if err != nil || id == nil || *id != "second" {
		t.Fatalf("unexpected mapping: %v %v", id, err)
	}

	if err := repo.Remove(ctx, domain.ResourceKindCollection, uri); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	id, err = repo.Resolve(ctx, domain.ResourceKindCollection, uri)
	if err != nil || id != nil {
		t.Fatalf("expected no mapping, got %v %v", id, err)
	}
}

func TestPostgresLedger(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	repo := NewLedgerRepository(db)

	uri := "at://did:plc:abc123/network.cosmik.card/" + uuid.NewString()
	for _, cid := range []string{"bafy1", "bafy2", "bafy1"} {
		if err := repo.Record(ctx, uri, cid); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	exists, err := repo.Exists(ctx, uri, "bafy2")
	if err != nil || !exists {
		t.Fatalf("expected ledger hit, got %v %v", exists, err)
	}

	cids, err := repo.DeleteByURI(ctx, uri)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(cids) != 2 {
		t.Fatalf("expected two cids, got %v", cids)
	}

	exists, _ = repo.Exists(ctx, uri, "bafy1")
	if exists {
		t.Fatal("ledger entry survived delete")
	}
}

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-request-bot/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:archive_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func resolved(name string, votes int, resolvedAt time.Time) domain.ResolvedRequest {
	return domain.ResolvedRequest{
		MessageID:   "msg-" + name,
		Artist:      "artist",
		Name:        name,
		Link:        "http://" + name,
		RequestedBy: "user#1",
		Votes:       votes,
		SubmittedAt: resolvedAt.Add(-48 * time.Hour),
		ResolvedAt:  resolvedAt,
	}
}

func TestArchive_Record_GeneratesID(t *testing.T) {
	a := &Archive{DB: newTestDB(t)}
	ctx := context.Background()

	if err := a.Record(ctx, resolved("one", 3, time.Now().UTC())); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rows, err := a.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].ID == "" {
		t.Fatal("Record must generate a primary key")
	}
	if rows[0].Votes != 3 || rows[0].Name != "one" {
		t.Fatalf("row mismatch: %+v", rows[0])
	}
}

func TestArchive_Recent_NewestFirst(t *testing.T) {
	a := &Archive{DB: newTestDB(t)}
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"old", "mid", "new"} {
		if err := a.Record(ctx, resolved(name, i, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record %s: %v", name, err)
		}
	}

	rows, err := a.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "new" || rows[1].Name != "mid" {
		t.Fatalf("Recent order wrong: %+v", rows)
	}
}

func TestArchive_TopSince(t *testing.T) {
	a := &Archive{DB: newTestDB(t)}
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := a.Record(ctx, resolved("ancient", 99, base.Add(-30*24*time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := a.Record(ctx, resolved("low", 1, base)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := a.Record(ctx, resolved("high", 7, base.Add(time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rows, err := a.TopSince(ctx, base.Add(-time.Hour), 5)
	if err != nil {
		t.Fatalf("TopSince: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "high" || rows[1].Name != "low" {
		t.Fatalf("TopSince mismatch: %+v", rows)
	}
}

package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleProfile(userID int64) *models.UserProfile {
	return &models.UserProfile{
		UserID:       userID,
		Username:     "listener",
		FirstName:    "Test",
		LanguageCode: "zh",
	}
}

func sampleRecord(userID int64, title string) *models.HistoryRecord {
	return &models.HistoryRecord{
		UserID:     userID,
		Title:      title,
		Artist:     "Artist",
		Provenance: models.MediaRetrievable,
		SourceRef:  "https://youtube.com/watch?v=abc",
		Duration:   272,
		FileSize:   4 << 20,
	}
}

func TestUserRepository(t *testing.T) {
	t.Run("Upsert inserts on first contact", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		profile := sampleProfile(1001)

		if err := repo.Upsert(profile); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		if profile.ID == "" {
			t.Error("profile ID should be set after insert")
		}
		if profile.Sequence == 0 {
			t.Error("profile sequence should be assigned")
		}
		if profile.CreatedAt.IsZero() || profile.LastActiveAt.IsZero() {
			t.Error("timestamps should be stamped on insert")
		}
	})

	t.Run("Upsert updates on repeat contact", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		first := sampleProfile(1001)
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		second := sampleProfile(1001)
		second.Username = "renamed"
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to re-upsert user: %v", err)
		}

		if second.ID != first.ID || second.Sequence != first.Sequence {
			t.Error("repeat upsert must keep identity and sequence")
		}

		retrieved, err := repo.Get(1001)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Username != "renamed" {
			t.Errorf("username not refreshed: %q", retrieved.Username)
		}
		if !retrieved.LastActiveAt.After(retrieved.CreatedAt.Add(-time.Second)) {
			t.Error("last_active should be refreshed")
		}
	})

	t.Run("Upsert defaults language to en", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		profile := sampleProfile(1002)
		profile.LanguageCode = ""

		if err := repo.Upsert(profile); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		retrieved, err := repo.Get(1002)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.LanguageCode != "en" {
			t.Errorf("expected default language en, got %q", retrieved.LanguageCode)
		}
	})

	t.Run("Get fails for unknown user", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if _, err := repo.Get(9999); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Upsert rejects a zero user id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if err := repo.Upsert(&models.UserProfile{}); err == nil {
			t.Error("expected validation error for zero user id")
		}
	})

	t.Run("sequences increment per insert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		a := sampleProfile(1)
		b := sampleProfile(2)

		if err := repo.Upsert(a); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Upsert(b); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		if b.Sequence != a.Sequence+1 {
			t.Errorf("expected sequences %d, %d to be consecutive", a.Sequence, b.Sequence)
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	t.Run("Create assigns identity and timestamp", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		record := sampleRecord(1001, "Sunny Day")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if record.ID == "" || record.Sequence == 0 {
			t.Error("record identity should be assigned")
		}
		if record.DownloadedAt.IsZero() {
			t.Error("downloaded_at should be stamped")
		}
	})

	t.Run("RecentByUser returns newest first, scoped to user", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		for i, title := range []string{"first", "second", "third"} {
			record := sampleRecord(1001, title)
			record.DownloadedAt = base.Add(time.Duration(i) * time.Hour)
			if err := repo.Create(record); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		other := sampleRecord(2002, "other-user")
		if err := repo.Create(other); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		records, err := repo.RecentByUser(1001, 10)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}

		want := []string{"third", "second", "first"}
		if len(records) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(records))
		}
		for i, title := range want {
			if records[i].Title != title {
				t.Errorf("slot %d: expected %q, got %q", i, title, records[i].Title)
			}
		}
	})

	t.Run("RecentByUser honors the limit", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		for i := 0; i < 15; i++ {
			if err := repo.Create(sampleRecord(1001, "track")); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		records, err := repo.RecentByUser(1001, 5)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}
		if len(records) != 5 {
			t.Errorf("expected 5 records, got %d", len(records))
		}
	})

	t.Run("ties on timestamp break by sequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		when := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		for _, title := range []string{"older", "newer"} {
			record := sampleRecord(1001, title)
			record.DownloadedAt = when
			if err := repo.Create(record); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		records, err := repo.RecentByUser(1001, 10)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}
		if records[0].Title != "newer" {
			t.Errorf("expected later insert first, got %q", records[0].Title)
		}
	})

	t.Run("zero file size round-trips as zero", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		record := sampleRecord(1001, "unknown-size")
		record.FileSize = 0

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		records, err := repo.RecentByUser(1001, 1)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}
		if records[0].FileSize != 0 {
			t.Errorf("expected zero file size, got %d", records[0].FileSize)
		}
	})

	t.Run("Create rejects a record without a title", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		record := sampleRecord(1001, "")
		if err := repo.Create(record); err == nil {
			t.Error("expected validation error for missing title")
		}
	})
}

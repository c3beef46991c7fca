package shared

import (
	"database/sql"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return count > 0
}

func TestNewDatabase(t *testing.T) {
	db := openTestDB(t)

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("failed to read busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", timeout)
	}
}

func TestRunMigrations(t *testing.T) {
	t.Run("creates the schema", func(t *testing.T) {
		db := openTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}

		for _, table := range []string{
			"users", "download_history",
			"users_sequence", "download_history_sequence",
			"schema_migrations",
		} {
			if !tableExists(t, db, table) {
				t.Errorf("table %s missing after migrations", table)
			}
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := openTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
	})

	t.Run("seeds the sequence counters", func(t *testing.T) {
		db := openTestDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}

		for _, table := range []string{"users_sequence", "download_history_sequence"} {
			var value int
			if err := db.QueryRow("SELECT value FROM " + table).Scan(&value); err != nil {
				t.Fatalf("sequence table %s not seeded: %v", table, err)
			}
			if value != 0 {
				t.Errorf("sequence %s should start at 0, got %d", table, value)
			}
		}
	})
}

func TestRollbackMigration(t *testing.T) {
	t.Run("drops the schema", func(t *testing.T) {
		db := openTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}

		if tableExists(t, db, "users") || tableExists(t, db, "download_history") {
			t.Error("tables should be dropped after rollback")
		}
	})

	t.Run("fails with nothing applied", func(t *testing.T) {
		db := openTestDB(t)
		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error with no applied migrations")
		}
	})
}

// Package testutil provides shared test helpers for setting up databases and users.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notely-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(context.Background(), store.DialectSQLite, dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestUser inserts a user with the given email and returns it.
func TestUser(t *testing.T, db *store.DB, email string) models.User {
	t.Helper()
	u := models.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	if err := db.CreateUser(context.Background(), u, "not-a-real-hash"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

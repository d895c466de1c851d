// Package testutil holds helpers shared by the database-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/user"
	"github.com/trezcool/mwalimu/storage/database"
)

// Config returns the TEST configuration.
func Config() *core.Config {
	if os.Getenv("ENV") == "" {
		_ = os.Setenv("ENV", "TEST")
	}
	return core.NewConfig()
}

// PrepareDB opens a freshly migrated test database.
// The test is skipped unless TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}

	conf := Config()
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, "reset"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

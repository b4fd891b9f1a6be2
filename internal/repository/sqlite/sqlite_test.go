package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/yatube/internal/model"
)

// newTestDB returns a fresh in-memory database closed at test end.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestGroup(t *testing.T, db *DB, slug string) *model.Group {
	t.Helper()
	group := &model.Group{Title: "Group " + slug, Slug: slug, Description: "About " + slug}
	if err := db.Groups().Create(context.Background(), group); err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// createTestPost stores a post created at base plus offset minutes.
func createTestPost(t *testing.T, db *DB, author *model.User, group *model.Group, text string, offset int) *model.Post {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &model.Post{
		Text:      text,
		AuthorID:  author.ID,
		CreatedAt: base.Add(time.Duration(offset) * time.Minute),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := db.Posts().Create(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	if err := db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

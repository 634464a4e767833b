package page

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"linkleaf/app/internal/db"
)

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetPageBySlugReturnsNilForMissingPage(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	p, err := repo.GetPageBySlug(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetPageBySlug returned error: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil page for missing slug, got %#v", p)
	}
}

func TestGetAvatarByUserIDReturnsNilWhenAbsent(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	owner := seedUser(t, repo, "avatarless@example.com")

	avatar, err := repo.GetAvatarByUserID(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("GetAvatarByUserID returned error: %v", err)
	}
	if avatar != nil {
		t.Fatalf("expected nil avatar for user without one, got %#v", avatar)
	}
}

func TestListLinksByPageIDAscendingCreationOrder(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com")
	p := seedPage(t, repo, owner.ID, "ordered")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order to prove ordering comes from
	// created_at, not from insertion.
	inserts := []struct {
		title  string
		offset time.Duration
	}{
		{"third", 2 * time.Hour},
		{"first", 0},
		{"second", time.Hour},
	}

	for _, item := range inserts {
		link := &Link{PageID: p.ID, URL: "https://example.com/" + item.title, Title: item.title}
		link.CreatedAt = base.Add(item.offset)
		if err := repo.CreateLink(ctx, link); err != nil {
			t.Fatalf("CreateLink returned error: %v", err)
		}
	}

	links, err := repo.ListLinksByPageID(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListLinksByPageID returned error: %v", err)
	}

	expected := []string{"first", "second", "third"}
	if len(links) != len(expected) {
		t.Fatalf("expected %d links, got %d", len(expected), len(links))
	}

	for idx, title := range expected {
		if links[idx].Title != title {
			t.Fatalf("expected link %q at index %d, got %q", title, idx, links[idx].Title)
		}
	}
}

func TestDeleteLinkScopedToPage(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "scoped@example.com")
	p := seedPage(t, repo, owner.ID, "scoped")
	other := seedPage(t, repo, owner.ID, "other")

	link := &Link{PageID: p.ID, URL: "https://example.com", Title: "mine"}
	if err := repo.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	if err := repo.DeleteLink(ctx, other.ID, link.ID); err == nil {
		t.Fatalf("expected error deleting link through the wrong page")
	}

	if err := repo.DeleteLink(ctx, p.ID, link.ID); err != nil {
		t.Fatalf("DeleteLink returned error: %v", err)
	}

	links, err := repo.ListLinksByPageID(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListLinksByPageID returned error: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links after delete, got %d", len(links))
	}
}

func TestSetAvatarReplacesExistingRow(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "pictured@example.com")

	if err := repo.SetAvatar(ctx, &Avatar{UserID: owner.ID, ImageURL: "https://img.example.com/a.png"}); err != nil {
		t.Fatalf("SetAvatar returned error: %v", err)
	}
	if err := repo.SetAvatar(ctx, &Avatar{UserID: owner.ID, ImageURL: "https://img.example.com/b.png"}); err != nil {
		t.Fatalf("SetAvatar (replace) returned error: %v", err)
	}

	avatar, err := repo.GetAvatarByUserID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetAvatarByUserID returned error: %v", err)
	}
	if avatar == nil {
		t.Fatalf("expected avatar row")
	}
	if avatar.ImageURL != "https://img.example.com/b.png" {
		t.Fatalf("expected replaced image URL, got %q", avatar.ImageURL)
	}
}

func TestGetUserByEmailNormalisesInput(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	seedUser(t, repo, "Mixed.Case@Example.com")

	user, err := repo.GetUserByEmail(ctx, "  mixed.case@example.com ")
	if err != nil {
		t.Fatalf("GetUserByEmail returned error: %v", err)
	}
	if user == nil {
		t.Fatalf("expected user for normalised email lookup")
	}
}

func TestCountPages(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "counter@example.com")
	seedPage(t, repo, owner.ID, "one")
	seedPage(t, repo, owner.ID, "two")

	count, err := repo.CountPages(ctx)
	if err != nil {
		t.Fatalf("CountPages returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pages, got %d", count)
	}
}

// test helpers

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "repo.db")
	conn, err := db.Open(db.Options{Path: path})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := db.Close(conn); closeErr != nil {
			t.Fatalf("closing database failed: %v", closeErr)
		}
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if err := Migrate(context.Background(), conn, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := NewRepository(conn, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo
}

func seedUser(t *testing.T, repo *GormRepository, email string) *User {
	t.Helper()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	user := &User{Email: email, DisplayName: "Test Owner", PasswordHash: hash}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	return user
}

func seedPage(t *testing.T, repo *GormRepository, ownerID uint, slug string) *Page {
	t.Helper()

	p := &Page{Slug: slug, Title: "Test Page", Description: "A page under test", UserID: ownerID}
	if err := repo.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("CreatePage returned error: %v", err)
	}

	return p
}

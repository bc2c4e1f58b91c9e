package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
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

	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo *UserRepository, username, email string) *models.User {
	t.Helper()
	user := models.NewUser(0, username, email, "$2a$10$hash")
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func testSong(id string) models.Song {
	return models.Song{
		ID:         id,
		Title:      "Song " + id,
		Artist:     "Artist",
		Album:      "Album",
		AlbumCover: "https://i.scdn.co/image/" + id,
		Duration:   215,
		URI:        "spotify:track:" + id,
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "alice", "alice@example.com")

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "alice", "alice@example.com")

		retrieved, err := repo.Get(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.Email() != "alice@example.com" {
			t.Errorf("expected email alice@example.com, got %s", retrieved.Email())
		}
		if retrieved.PasswordHash() != "$2a$10$hash" {
			t.Errorf("expected password hash to round trip, got %s", retrieved.PasswordHash())
		}
	})

	t.Run("GetByEmail and GetByUsername", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "alice", "alice@example.com")

		byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetByEmail() error = %v", err)
		}
		if byEmail.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), byEmail.ID())
		}

		byName, err := repo.GetByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if byName.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), byName.ID())
		}

		if _, err := repo.GetByEmail(ctx, "bob@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("FindPrincipal", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "alice", "alice@example.com")

		principal, err := repo.FindPrincipal(ctx, user.ID())
		if err != nil {
			t.Fatalf("FindPrincipal() error = %v", err)
		}
		if principal == nil || principal.ID != user.ID() || principal.Username != "alice" {
			t.Fatalf("unexpected principal %+v", principal)
		}

		missing, err := repo.FindPrincipal(ctx, shared.GenerateID())
		if err != nil {
			t.Fatalf("FindPrincipal() for unknown id error = %v", err)
		}
		if missing != nil {
			t.Errorf("expected nil principal for unknown id, got %+v", missing)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "alice", "alice@example.com")

		user.SetUsername("alice2")
		if err := repo.Update(ctx, user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		retrieved, err := repo.Get(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Username() != "alice2" {
			t.Errorf("expected username alice2, got %s", retrieved.Username())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := createUser(t, repo, "alice", "alice@example.com")

		if err := repo.Delete(ctx, user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(ctx, user.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for deleted user, got %v", err)
		}

		principal, err := repo.FindPrincipal(ctx, user.ID())
		if err != nil || principal != nil {
			t.Errorf("expected no principal for deleted user, got %+v, %v", principal, err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		createUser(t, repo, "one", "user1@example.com")
		createUser(t, repo, "two", "user2@example.com")
		createUser(t, repo, "three", "user3@example.com")

		retrieved, err := repo.List(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(retrieved) != 3 {
			t.Errorf("expected 3 users, got %d", len(retrieved))
		}

		filtered, err := repo.List(ctx, map[string]any{"email": "user2@example.com"})
		if err != nil {
			t.Fatalf("failed to list filtered users: %v", err)
		}
		if len(filtered) != 1 || filtered[0].Username() != "two" {
			t.Errorf("expected only user two, got %d users", len(filtered))
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*PlaylistRepository, *models.User) {
		db := setupTestDB(t)
		user := createUser(t, NewUserRepository(db), "alice", "alice@example.com")
		return NewPlaylistRepository(db), user
	}

	t.Run("Create and Get", func(t *testing.T) {
		repo, user := setup(t)
		playlist := models.NewPlaylist(0, user.ID(), "Road Trip", "Long drives")

		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if playlist.ID() == "" {
			t.Fatal("playlist ID should be set after creation")
		}

		retrieved, err := repo.Get(ctx, playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}

		if retrieved.Name() != "Road Trip" || retrieved.Description() != "Long drives" {
			t.Errorf("unexpected playlist %s / %s", retrieved.Name(), retrieved.Description())
		}
		if retrieved.UserID() != user.ID() {
			t.Errorf("expected owner %s, got %s", user.ID(), retrieved.UserID())
		}
		if retrieved.CoverImage() != models.DefaultCoverImage {
			t.Errorf("expected default cover image, got %s", retrieved.CoverImage())
		}
		if len(retrieved.Songs()) != 0 {
			t.Errorf("expected no songs, got %d", len(retrieved.Songs()))
		}
	})

	t.Run("Create Unknown Owner", func(t *testing.T) {
		repo, _ := setup(t)
		playlist := models.NewPlaylist(0, shared.GenerateID(), "Orphan", "")

		if err := repo.Create(ctx, playlist); err == nil {
			t.Error("expected foreign key error for unknown owner")
		}
	})

	t.Run("ListByUser", func(t *testing.T) {
		repo, user := setup(t)

		for _, name := range []string{"First", "Second", "Third"} {
			if err := repo.Create(ctx, models.NewPlaylist(0, user.ID(), name, "")); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}

		playlists, err := repo.ListByUser(ctx, user.ID())
		if err != nil {
			t.Fatalf("ListByUser() error = %v", err)
		}
		if len(playlists) != 3 {
			t.Fatalf("expected 3 playlists, got %d", len(playlists))
		}
		if playlists[0].Name() != "Third" {
			t.Errorf("expected newest playlist first, got %s", playlists[0].Name())
		}

		others, err := repo.ListByUser(ctx, shared.GenerateID())
		if err != nil {
			t.Fatalf("ListByUser() error = %v", err)
		}
		if len(others) != 0 {
			t.Errorf("expected no playlists for another user, got %d", len(others))
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo, user := setup(t)
		playlist := models.NewPlaylist(0, user.ID(), "Old", "")
		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		playlist.SetName("New")
		playlist.SetDescription("Updated")
		if err := repo.Update(ctx, playlist); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}

		retrieved, err := repo.Get(ctx, playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name() != "New" || retrieved.Description() != "Updated" {
			t.Errorf("update not persisted: %s / %s", retrieved.Name(), retrieved.Description())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo, user := setup(t)
		playlist := models.NewPlaylist(0, user.ID(), "Gone", "")
		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := repo.Delete(ctx, playlist.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}
		if _, err := repo.Get(ctx, playlist.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, playlist.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("Songs", func(t *testing.T) {
		repo, user := setup(t)
		playlist := models.NewPlaylist(0, user.ID(), "Mix", "")
		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		for _, id := range []string{"a", "b", "c"} {
			if err := repo.AddSong(ctx, playlist.ID(), testSong(id)); err != nil {
				t.Fatalf("AddSong(%s) error = %v", id, err)
			}
		}

		if err := repo.AddSong(ctx, playlist.ID(), testSong("b")); !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists for duplicate song, got %v", err)
		}

		if err := repo.RemoveSong(ctx, playlist.ID(), "b"); err != nil {
			t.Fatalf("RemoveSong() error = %v", err)
		}
		if err := repo.RemoveSong(ctx, playlist.ID(), "missing"); err != nil {
			t.Errorf("removing an absent song should succeed, got %v", err)
		}
		if err := repo.AddSong(ctx, playlist.ID(), testSong("d")); err != nil {
			t.Fatalf("AddSong(d) error = %v", err)
		}

		retrieved, err := repo.Get(ctx, playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}

		var ids []string
		for _, s := range retrieved.Songs() {
			ids = append(ids, s.ID)
		}
		want := []string{"a", "c", "d"}
		if len(ids) != len(want) {
			t.Fatalf("expected songs %v, got %v", want, ids)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("expected songs %v, got %v", want, ids)
				break
			}
		}

		if got := retrieved.Songs()[0]; got != testSong("a") {
			t.Errorf("song did not round trip: %+v", got)
		}
	})

	t.Run("AddSong Missing Playlist", func(t *testing.T) {
		repo, _ := setup(t)

		if err := repo.AddSong(ctx, shared.GenerateID(), testSong("a")); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

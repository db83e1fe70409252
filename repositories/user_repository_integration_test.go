package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vidtube/backend/config"
	"github.com/vidtube/backend/database"
	"github.com/vidtube/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// newTestDatabase connects to the Mongo instance named by TEST_MONGODB_URI
// and returns a database with a unique name so runs do not interfere.
// Tests skip when the variable is unset.
func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set; skipping Mongo integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, &config.Config{
		MongoURI:     uri,
		DatabaseName: fmt.Sprintf("vidtube_test_%s", uuid.New().String()[:8]),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Disconnect(ctx)
	})
	return db
}

func testUserDoc(suffix string) models.User {
	return models.User{
		Username: "user" + suffix,
		Email:    "user" + suffix + "@example.com",
		FullName: "User " + suffix,
		Avatar:   "https://cdn.test/media/avatars/" + suffix + ".png",
		Password: "$2a$10$notarealhashnotarealhashnotarealhash",
	}
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testUserDoc("a"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("created user has zero id")
	}

	byID, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Username != created.Username {
		t.Errorf("username: got %q", byID.Username)
	}

	byName, err := repo.FindByUsernameOrEmail(ctx, "usera", "")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Error("username lookup returned a different user")
	}

	byEmail, err := repo.FindByUsernameOrEmail(ctx, "", "usera@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Error("email lookup returned a different user")
	}

	if _, err := repo.FindByUsernameOrEmail(ctx, "ghost", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryDuplicateKeys(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, testUserDoc("b")); err != nil {
		t.Fatalf("create: %v", err)
	}

	dupUsername := testUserDoc("b")
	dupUsername.Email = "unique@example.com"
	if _, err := repo.Create(ctx, dupUsername); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate username: expected ErrDuplicate, got %v", err)
	}

	dupEmail := testUserDoc("b")
	dupEmail.Username = "uniqueuser"
	if _, err := repo.Create(ctx, dupEmail); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email: expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testUserDoc("c"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetRefreshToken(ctx, created.ID, "refresh-1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	stored, _ := repo.FindByID(ctx, created.ID)
	if stored.RefreshToken != "refresh-1" {
		t.Errorf("refresh token: got %q", stored.RefreshToken)
	}

	// rotation overwrites
	if err := repo.SetRefreshToken(ctx, created.ID, "refresh-2"); err != nil {
		t.Fatalf("rotate refresh token: %v", err)
	}
	stored, _ = repo.FindByID(ctx, created.ID)
	if stored.RefreshToken != "refresh-2" {
		t.Errorf("rotated refresh token: got %q", stored.RefreshToken)
	}

	// clearing unsets and is idempotent
	if err := repo.ClearRefreshToken(ctx, created.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	if err := repo.ClearRefreshToken(ctx, created.ID); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	stored, _ = repo.FindByID(ctx, created.ID)
	if stored.RefreshToken != "" {
		t.Errorf("refresh token still set: %q", stored.RefreshToken)
	}
}

func TestUserRepositoryChannelProfileAggregation(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice, err := repo.Create(ctx, testUserDoc("alice"))
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	viewer, err := repo.Create(ctx, testUserDoc("viewer"))
	if err != nil {
		t.Fatalf("create viewer: %v", err)
	}
	other1, err := repo.Create(ctx, testUserDoc("o1"))
	if err != nil {
		t.Fatalf("create o1: %v", err)
	}
	other2, err := repo.Create(ctx, testUserDoc("o2"))
	if err != nil {
		t.Fatalf("create o2: %v", err)
	}

	subs := db.Collection(database.SubscriptionsCollection)
	now := time.Now().UTC()
	for _, sub := range []models.Subscription{
		{Subscriber: viewer.ID, Channel: alice.ID, CreatedAt: now},
		{Subscriber: other1.ID, Channel: alice.ID, CreatedAt: now},
		{Subscriber: other2.ID, Channel: alice.ID, CreatedAt: now},
		{Subscriber: alice.ID, Channel: other1.ID, CreatedAt: now},
	} {
		if _, err := subs.InsertOne(ctx, sub); err != nil {
			t.Fatalf("insert subscription: %v", err)
		}
	}

	profile, err := repo.ChannelProfile(ctx, alice.Username, viewer.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 3 {
		t.Errorf("subscribers count: got %d want 3", profile.SubscribersCount)
	}
	if profile.ChannelsSubscribedToCount != 1 {
		t.Errorf("subscribed-to count: got %d want 1", profile.ChannelsSubscribedToCount)
	}
	if !profile.IsSubscribed {
		t.Error("viewer subscribes to alice but isSubscribed is false")
	}

	profile, err = repo.ChannelProfile(ctx, alice.Username, other2.ID)
	if err != nil {
		t.Fatalf("channel profile for other2: %v", err)
	}
	if !profile.IsSubscribed {
		t.Error("other2 subscribes to alice but isSubscribed is false")
	}

	profile, err = repo.ChannelProfile(ctx, alice.Username, alice.ID)
	if err != nil {
		t.Fatalf("channel profile for alice: %v", err)
	}
	if profile.IsSubscribed {
		t.Error("alice does not subscribe to herself")
	}

	if _, err := repo.ChannelProfile(ctx, "ghost", viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryWatchHistoryAggregation(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	owner, err := repo.Create(ctx, testUserDoc("owner"))
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}

	videos := db.Collection(database.VideosCollection)
	videoIDs := make([]bson.ObjectID, 0, 2)
	for i, title := range []string{"First video", "Second video"} {
		video := models.Video{
			ID:          bson.NewObjectID(),
			VideoFile:   fmt.Sprintf("https://cdn.test/media/videos/%d.mp4", i),
			Thumbnail:   fmt.Sprintf("https://cdn.test/media/thumbs/%d.png", i),
			Title:       title,
			Description: "test video",
			Duration:    42.5,
			IsPublished: true,
			Owner:       owner.ID,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if _, err := videos.InsertOne(ctx, video); err != nil {
			t.Fatalf("insert video: %v", err)
		}
		videoIDs = append(videoIDs, video.ID)
	}

	watcher := testUserDoc("watcher")
	watcher.WatchHistory = videoIDs
	created, err := repo.Create(ctx, watcher)
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}

	history, err := repo.WatchHistory(ctx, created.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	for _, entry := range history {
		if entry.Owner.Username != owner.Username {
			t.Errorf("owner summary username: got %q", entry.Owner.Username)
		}
		if entry.Owner.Avatar == "" {
			t.Error("owner summary missing avatar")
		}
	}
}

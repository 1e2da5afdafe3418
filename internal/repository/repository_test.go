package repository

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/models"
	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The repository tests run against a real Postgres. BOOKMARKS_TEST_DATABASE_DSN
// points them at an existing server; otherwise an embedded one is started.
var (
	testDB     *Database
	skipReason string
)

func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	dsn := os.Getenv("BOOKMARKS_TEST_DATABASE_DSN")
	if dsn == "" {
		pg, cfg, err := startEmbedded()
		if err != nil {
			skipReason = fmt.Sprintf("no test database: %v", err)
			return m.Run()
		}
		defer pg.Stop()
		dsn = cfg.DSN()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		skipReason = fmt.Sprintf("failed to connect to test database: %v", err)
		return m.Run()
	}
	testDB = &Database{db}
	defer testDB.Close()

	if err := testDB.AutoMigrate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate test database: %v\n", err)
		return 1
	}
	return m.Run()
}

func startEmbedded() (*embeddedpostgres.EmbeddedPostgres, *config.DatabaseConfig, error) {
	port, err := freePort()
	if err != nil {
		return nil, nil, err
	}
	dir, err := os.MkdirTemp("", "bookmarks-pg-")
	if err != nil {
		return nil, nil, err
	}

	cfg := &config.DatabaseConfig{
		Host:     "localhost",
		Port:     port,
		User:     "postgres",
		Password: "postgres",
		DBName:   "bookmarks_test",
		SSLMode:  "disable",
	}
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(uint32(port)).
		Database(cfg.DBName).
		RuntimePath(filepath.Join(dir, "runtime")).
		Logger(io.Discard))
	if err := pg.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}
	return pg, cfg, nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// freshDB empties every table and returns the shared connection.
func freshDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip(skipReason)
	}
	if err := testDB.Exec("TRUNCATE users, profiles, follows, actions, images, image_likes RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return testDB.DB
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x", IsActive: true}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func createImage(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Image {
	t.Helper()
	img := &models.Image{UserID: owner.ID, Title: title, Slug: title, URL: "https://example.com/" + title + ".jpg"}
	if err := NewImageRepository(db).Create(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	return img
}

func actionAt(actor *models.User, verb string, at time.Time) *models.Action {
	kind := models.TargetUser
	id := actor.ID
	return &models.Action{ActorID: actor.ID, Verb: verb, TargetKind: &kind, TargetID: &id, CreatedAt: at}
}

func actionIDs(actions []*models.Action) []uint {
	ids := make([]uint, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}
	return ids
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestActionCreateUsesDatabaseClock(t *testing.T) {
	db := freshDB(t)
	alice := createUser(t, db, "alice")

	action := &models.Action{ActorID: alice.ID, Verb: models.VerbFollowing}
	if err := NewActionRepository(db).Create(context.Background(), action); err != nil {
		t.Fatal(err)
	}
	if action.ID == 0 {
		t.Fatal("expected an id")
	}
	if action.CreatedAt.IsZero() {
		t.Fatal("expected created_at from the database default")
	}
	if d := time.Since(action.CreatedAt); d < -time.Minute || d > time.Minute {
		t.Fatalf("created_at %v is far from now", action.CreatedAt)
	}
}

func TestRecentExcludingOrder(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewActionRepository(db)
	alice, bob, carol := createUser(t, db, "alice"), createUser(t, db, "bob"), createUser(t, db, "carol")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seed := []*models.Action{
		actionAt(bob, models.VerbLikes, base),
		actionAt(carol, models.VerbLikes, base),
		actionAt(alice, models.VerbLikes, base.Add(time.Hour)),
		actionAt(bob, models.VerbBookmarked, base.Add(time.Minute)),
	}
	for _, a := range seed {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.RecentExcluding(ctx, alice.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint{seed[3].ID, seed[1].ID, seed[0].ID}
	if !equalIDs(actionIDs(got), want) {
		t.Fatalf("RecentExcluding() = %v, want %v", actionIDs(got), want)
	}
	if got[0].Actor.Username != "bob" {
		t.Fatalf("actor not preloaded: %+v", got[0].Actor)
	}

	limited, _ := repo.RecentExcluding(ctx, alice.ID, 2)
	if !equalIDs(actionIDs(limited), want[:2]) {
		t.Fatalf("RecentExcluding(limit 2) = %v", actionIDs(limited))
	}
}

func TestRecentByActors(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewActionRepository(db)
	alice, bob, carol := createUser(t, db, "alice"), createUser(t, db, "bob"), createUser(t, db, "carol")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fromBob := actionAt(bob, models.VerbLikes, base)
	fromCarol := actionAt(carol, models.VerbLikes, base.Add(time.Second))
	fromAlice := actionAt(alice, models.VerbLikes, base.Add(time.Minute))
	for _, a := range []*models.Action{fromBob, fromCarol, fromAlice} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.RecentByActors(ctx, []uint{alice.ID, bob.ID}, alice.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(actionIDs(got), []uint{fromBob.ID}) {
		t.Fatalf("RecentByActors() = %v, want [%d]", actionIDs(got), fromBob.ID)
	}

	none, err := repo.RecentByActors(ctx, nil, alice.ID, 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("RecentByActors(nil) = %v, %v", none, err)
	}
}

func TestFollowCreateIgnoresDuplicates(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewFollowRepository(db)
	alice, bob, carol := createUser(t, db, "alice"), createUser(t, db, "bob"), createUser(t, db, "carol")

	created, err := repo.Create(ctx, &models.FollowEdge{FollowerID: alice.ID, FolloweeID: bob.ID})
	if err != nil || !created {
		t.Fatalf("first Create() = %v, %v", created, err)
	}
	created, err = repo.Create(ctx, &models.FollowEdge{FollowerID: alice.ID, FolloweeID: bob.ID})
	if err != nil || created {
		t.Fatalf("repeated Create() = %v, %v", created, err)
	}
	if _, err := repo.Create(ctx, &models.FollowEdge{FollowerID: carol.ID, FolloweeID: bob.ID}); err != nil {
		t.Fatal(err)
	}

	if n, _ := repo.CountFollowers(ctx, bob.ID); n != 2 {
		t.Fatalf("CountFollowers() = %d, want 2", n)
	}
	ids, _ := repo.FolloweeIDs(ctx, alice.ID)
	if !equalIDs(ids, []uint{bob.ID}) {
		t.Fatalf("FolloweeIDs() = %v", ids)
	}
	if ok, _ := repo.IsFollowing(ctx, bob.ID, alice.ID); ok {
		t.Fatal("follow edges are directed")
	}

	if err := repo.Delete(ctx, alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	created, err = repo.Create(ctx, &models.FollowEdge{FollowerID: alice.ID, FolloweeID: bob.ID})
	if err != nil || !created {
		t.Fatalf("Create() after Delete = %v, %v", created, err)
	}
}

func TestLikesAndRefreshTotalLikes(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewImageRepository(db)
	alice, bob, carol := createUser(t, db, "alice"), createUser(t, db, "bob"), createUser(t, db, "carol")
	img := createImage(t, db, alice, "dunes")
	other := createImage(t, db, alice, "cliffs")

	for _, u := range []*models.User{bob, bob, carol} {
		if err := repo.AddLike(ctx, img.ID, u.ID); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.AddLike(ctx, other.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	totalLikes := func(id uint) int64 {
		t.Helper()
		if err := repo.RefreshTotalLikes(ctx, id); err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetByID(ctx, id)
		if err != nil || got == nil {
			t.Fatalf("GetByID() = %v, %v", got, err)
		}
		return got.TotalLikes
	}

	if n := totalLikes(img.ID); n != 2 {
		t.Fatalf("total_likes = %d, want 2", n)
	}
	likers, _ := repo.LikedBy(ctx, img.ID)
	if len(likers) != 2 {
		t.Fatalf("LikedBy() = %d users, want 2", len(likers))
	}

	if err := repo.RemoveLike(ctx, img.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if n := totalLikes(img.ID); n != 1 {
		t.Fatalf("total_likes after unlike = %d, want 1", n)
	}
	if n := totalLikes(other.ID); n != 1 {
		t.Fatalf("other image total_likes = %d, want 1", n)
	}
}

func TestExistingIDs(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewImageRepository(db)
	alice := createUser(t, db, "alice")
	a, b := createImage(t, db, alice, "a"), createImage(t, db, alice, "b")

	ids := []uint{a.ID, b.ID}
	for id := b.ID + 1; id < b.ID+1000; id++ {
		ids = append(ids, id)
	}
	found, err := repo.ExistingIDs(ctx, ids)
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	if !equalIDs(found, []uint{a.ID, b.ID}) {
		t.Fatalf("ExistingIDs() = %v", found)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	found, _ = repo.ExistingIDs(ctx, []uint{a.ID, b.ID})
	if !equalIDs(found, []uint{b.ID}) {
		t.Fatalf("ExistingIDs() after delete = %v", found)
	}
}

func TestListActiveSkipsDeactivated(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	bob.IsActive = false
	if err := repo.Update(ctx, bob); err != nil {
		t.Fatal(err)
	}

	users, err := repo.ListActive(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("ListActive() = %v", users)
	}
}

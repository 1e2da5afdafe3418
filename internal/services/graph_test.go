package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bookmarks/bookmarks/internal/models"
)

func TestFollowIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, bob := h.users.Add("alice"), h.users.Add("bob")

	for i := 0; i < 2; i++ {
		if err := h.graph.Follow(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("follow #%d: %v", i+1, err)
		}
	}

	if n := h.follows.Len(); n != 1 {
		t.Fatalf("expected 1 edge, got %d", n)
	}
	followees, _ := h.graph.FolloweesOf(ctx, alice.ID)
	if len(followees) != 1 || followees[0] != bob.ID {
		t.Fatalf("unexpected followees %v", followees)
	}
	if n := h.verbs(alice.ID, models.VerbFollowing); n != 1 {
		t.Fatalf("expected 1 follow action, got %d", n)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	h := newHarness(t)
	alice := h.users.Add("alice")

	err := h.graph.Follow(context.Background(), alice.ID, alice.ID)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if n := h.follows.Len(); n != 0 {
		t.Fatalf("expected no edges, got %d", n)
	}
	if n := h.verbs(alice.ID, models.VerbFollowing); n != 0 {
		t.Fatalf("expected no actions, got %d", n)
	}
}

func TestFollowUnknownUser(t *testing.T) {
	h := newHarness(t)
	alice := h.users.Add("alice")

	if err := h.graph.Follow(context.Background(), alice.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := h.graph.Unfollow(context.Background(), alice.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on unfollow, got %v", err)
	}
}

func TestFollowUnfollowFollow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, bob := h.users.Add("alice"), h.users.Add("bob")

	if err := h.graph.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if err := h.graph.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if n := h.follows.Len(); n != 0 {
		t.Fatalf("expected no edges after unfollow, got %d", n)
	}
	if err := h.graph.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	if n := h.follows.Len(); n != 1 {
		t.Fatalf("expected 1 edge, got %d", n)
	}
	if n := h.verbs(alice.ID, models.VerbFollowing); n != 2 {
		t.Fatalf("expected 2 follow actions, got %d", n)
	}
}

func TestUnfollowWithoutEdge(t *testing.T) {
	h := newHarness(t)
	alice, bob := h.users.Add("alice"), h.users.Add("bob")

	if err := h.graph.Unfollow(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestFollowStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, bob, carol := h.users.Add("alice"), h.users.Add("bob"), h.users.Add("carol")

	_ = h.graph.Follow(ctx, alice.ID, bob.ID)
	_ = h.graph.Follow(ctx, carol.ID, bob.ID)
	_ = h.graph.Follow(ctx, bob.ID, carol.ID)

	stats, err := h.graph.Stats(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Followers != 2 || stats.Following != 1 || !stats.IsFollowing {
		t.Fatalf("unexpected stats %+v", stats)
	}

	stats, _ = h.graph.Stats(ctx, alice.ID, bob.ID)
	if stats.IsFollowing {
		t.Fatal("bob does not follow alice")
	}

	followers, _ := h.graph.Followers(ctx, bob.ID, 0, 10)
	if len(followers) != 2 {
		t.Fatalf("expected 2 followers, got %d", len(followers))
	}
}

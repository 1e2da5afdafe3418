package services

import (
	"context"
	"testing"
	"time"

	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/models"
)

func TestDashboardGlobalStreamWithoutFollowees(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	viewer, bob, carol := h.users.Add("viewer"), h.users.Add("bob"), h.users.Add("carol")

	_, _ = h.log.Record(ctx, viewer.ID, "logged in", nil)
	h.actions.Tick(time.Second)
	_, _ = h.log.Record(ctx, bob.ID, "logged in", nil)
	h.actions.Tick(time.Second)
	_, _ = h.log.Record(ctx, carol.ID, "logged in", nil)

	feed, err := h.feed.Dashboard(ctx, viewer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(feed))
	}
	if feed[0].ActorID != carol.ID || feed[1].ActorID != bob.ID {
		t.Fatalf("expected newest first, got actors %d, %d", feed[0].ActorID, feed[1].ActorID)
	}
}

func TestDashboardOnlyFollowees(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	viewer, bob, carol := h.users.Add("viewer"), h.users.Add("bob"), h.users.Add("carol")

	if err := h.graph.Follow(ctx, viewer.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	h.actions.Tick(time.Second)
	_, _ = h.log.Record(ctx, bob.ID, "logged in", nil)
	_, _ = h.log.Record(ctx, carol.ID, "logged in", nil)

	feed, err := h.feed.Dashboard(ctx, viewer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 || feed[0].ActorID != bob.ID {
		t.Fatalf("expected only bob's action, got %d actions", len(feed))
	}
	for _, a := range feed {
		if a.ActorID == viewer.ID {
			t.Fatal("viewer's own follow action leaked into the feed")
		}
	}
}

func TestDashboardCap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	viewer, bob := h.users.Add("viewer"), h.users.Add("bob")

	img := h.addImage(t, bob, "Mountains")
	for i := 0; i < 15; i++ {
		h.actions.Tick(time.Second)
		if _, err := h.log.Record(ctx, bob.ID, models.VerbLikes, &models.Target{Kind: models.TargetImage, ID: img.ID}); err != nil {
			t.Fatal(err)
		}
	}

	feed, err := h.feed.Dashboard(ctx, viewer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 10 {
		t.Fatalf("expected 10 actions, got %d", len(feed))
	}
	for i := 1; i < len(feed); i++ {
		if feed[i].CreatedAt.After(feed[i-1].CreatedAt) {
			t.Fatal("feed is not ordered newest first")
		}
	}
	if img, ok := feed[0].Target.(*models.Image); !ok || img.Title != "Mountains" {
		t.Fatalf("expected resolved image target, got %#v", feed[0].Target)
	}
}

func TestDashboardDefaultLimit(t *testing.T) {
	h := newHarness(t)
	f := NewFeedAssembler(h.graph, h.log, &config.FeedConfig{}, nil)
	if f.limit != defaultFeedLimit {
		t.Fatalf("expected default limit %d, got %d", defaultFeedLimit, f.limit)
	}
}

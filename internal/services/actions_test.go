package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

func TestRecordPublishesEvent(t *testing.T) {
	h := newHarness(t)
	alice := h.users.Add("alice")

	action, err := h.log.Record(context.Background(), alice.ID, "logged in", nil)
	if err != nil {
		t.Fatal(err)
	}
	if action.ID == 0 || action.TargetKind != nil || action.TargetID != nil {
		t.Fatalf("unexpected action %+v", action)
	}

	events := h.publisher.Events(queue.EventActionRecorded)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	var data queue.ActionEventData
	if err := events[0].Decode(&data); err != nil {
		t.Fatal(err)
	}
	if data.ActionID != action.ID || data.Verb != "logged in" || data.TargetKind != "" {
		t.Fatalf("unexpected event data %+v", data)
	}
}

func TestRecordSurvivesPublishFailure(t *testing.T) {
	h := newHarness(t)
	h.publisher.Err = errors.New("broker unavailable")
	alice, bob := h.users.Add("alice"), h.users.Add("bob")

	if err := h.graph.Follow(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("follow should not depend on the broker: %v", err)
	}
	if n := h.verbs(alice.ID, models.VerbFollowing); n != 1 {
		t.Fatalf("expected 1 action, got %d", n)
	}
}

func TestRecordRejectsUnknownKind(t *testing.T) {
	h := newHarness(t)
	alice := h.users.Add("alice")

	_, err := h.log.Record(context.Background(), alice.ID, "pinned", &models.Target{Kind: "board", ID: 1})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestRecordStoreError(t *testing.T) {
	h := newHarness(t)
	h.actions.Err = errStoreDown

	_, err := h.log.Record(context.Background(), 1, "logged in", nil)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestDanglingTargetResolvesToNil(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, bob, carol := h.users.Add("alice"), h.users.Add("bob"), h.users.Add("carol")
	img := h.addImage(t, bob, "Sunset")

	if _, err := h.log.Record(ctx, bob.ID, models.VerbBookmarked, &models.Target{Kind: models.TargetImage, ID: img.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.log.Record(ctx, bob.ID, models.VerbFollowing, &models.Target{Kind: models.TargetUser, ID: carol.ID}); err != nil {
		t.Fatal(err)
	}
	_ = h.images.Delete(ctx, img.ID)

	actions, err := h.log.RecentExcluding(ctx, alice.ID, 10)
	if err != nil {
		t.Fatalf("dangling target must not fail the read: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}

	// Same timestamp: the follow has the higher id and comes first.
	if u, ok := actions[0].Target.(*models.User); !ok || u.ID != carol.ID {
		t.Fatalf("expected carol as target, got %#v", actions[0].Target)
	}
	if actions[1].Target != nil {
		t.Fatalf("expected nil target for deleted image, got %#v", actions[1].Target)
	}
	if ref, ok := actions[1].Ref(); !ok || ref.ID != img.ID {
		t.Fatalf("reference must survive deletion, got %+v", ref)
	}
}

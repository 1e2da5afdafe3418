package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bookmarks/bookmarks/internal/config"
	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/internal/repository/memory"
	"github.com/bookmarks/bookmarks/pkg/cache"
	"github.com/bookmarks/bookmarks/pkg/logger"
)

var errStoreDown = errors.New("store down")

// harness wires every service over in-memory stores and a miniredis counter.
type harness struct {
	users     *memory.Users
	follows   *memory.Follows
	actions   *memory.Actions
	images    *memory.Images
	media     *memory.Media
	publisher *memory.Publisher
	redis     *miniredis.Miniredis

	log        *ActionLog
	graph      *SocialGraph
	feed       *FeedAssembler
	counter    *ViewCounter
	reconciler *RankingReconciler
	imageSvc   *ImageService
	userSvc    *UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := cache.NewRedisClient(mr.Addr(), "", 0, 4, 1)
	t.Cleanup(func() { client.Close() })

	log := logger.Discard()
	h := &harness{
		users:     memory.NewUsers(),
		actions:   memory.NewActions(),
		media:     &memory.Media{},
		publisher: &memory.Publisher{},
		redis:     mr,
	}
	h.follows = memory.NewFollows(h.users)
	h.images = memory.NewImages(h.users)

	resolvers := map[models.TargetKind]TargetResolver{
		models.TargetUser:  UserTargets(h.users),
		models.TargetImage: ImageTargets(h.images),
	}
	h.log = NewActionLog(h.actions, resolvers, h.publisher, log)
	h.graph = NewSocialGraph(h.follows, h.users, h.log, log)
	h.feed = NewFeedAssembler(h.graph, h.log, &config.FeedConfig{Limit: 10}, log)
	h.counter = NewViewCounter(client, log)
	h.reconciler = NewRankingReconciler(h.counter, h.images, log)
	h.imageSvc = NewImageService(h.images, h.media, h.log, h.counter, h.publisher, &config.ImagesConfig{
		PageSize:          8,
		RankingSize:       10,
		AllowedExtensions: []string{"jpg", "jpeg", "png"},
	}, log)
	h.userSvc = NewUserService(h.users, log)
	return h
}

func (h *harness) addImage(t *testing.T, owner *models.User, title string) *models.Image {
	t.Helper()
	img := &models.Image{UserID: owner.ID, Title: title, Slug: Slugify(title), URL: "http://example.com/" + Slugify(title) + ".jpg"}
	if err := h.images.Create(context.Background(), img); err != nil {
		t.Fatalf("create image: %v", err)
	}
	return img
}

// verbs counts the actions actorID recorded with verb.
func (h *harness) verbs(actorID uint, verb string) int {
	n, _ := h.actions.CountByActorAndVerb(context.Background(), actorID, verb)
	return int(n)
}

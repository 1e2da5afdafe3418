// Package memory holds in-process implementations of the repository
// interfaces, used by tests and local tooling.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

type Users struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func NewUsers() *Users {
	return &Users{byID: make(map[uint]*models.User)}
}

// Add creates an active user named username.
func (m *Users) Add(username string) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com", IsActive: true}
	_ = m.Create(context.Background(), u)
	return u
}

func (m *Users) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.byID[user.ID] = user
	return nil
}

func (m *Users) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *Users) GetByIDs(_ context.Context, ids []uint) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *Users) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
	return nil
}

func (m *Users) ListActive(_ context.Context, offset, limit int) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.byID {
		if u.IsActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, offset, limit), nil
}

type edge struct{ follower, followee uint }

type Follows struct {
	mu    sync.Mutex
	users *Users
	edges map[edge]time.Time
}

func NewFollows(users *Users) *Follows {
	return &Follows{users: users, edges: make(map[edge]time.Time)}
}

func (m *Follows) Create(_ context.Context, e *models.FollowEdge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := edge{e.FollowerID, e.FolloweeID}
	if _, ok := m.edges[k]; ok {
		return false, nil
	}
	m.edges[k] = time.Now()
	return true, nil
}

func (m *Follows) Delete(_ context.Context, followerID, followeeID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, edge{followerID, followeeID})
	return nil
}

func (m *Follows) FolloweeIDs(_ context.Context, userID uint) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint
	for k := range m.edges {
		if k.follower == userID {
			out = append(out, k.followee)
		}
	}
	return out, nil
}

func (m *Follows) collect(match func(edge) (uint, bool), offset, limit int) []*models.User {
	m.mu.Lock()
	var ids []uint
	for k := range m.edges {
		if id, ok := match(k); ok {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	users, _ := m.users.GetByIDs(context.Background(), ids)
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return window(users, offset, limit)
}

func (m *Follows) GetFollowers(_ context.Context, userID uint, offset, limit int) ([]*models.User, error) {
	return m.collect(func(k edge) (uint, bool) { return k.follower, k.followee == userID }, offset, limit), nil
}

func (m *Follows) GetFollowing(_ context.Context, userID uint, offset, limit int) ([]*models.User, error) {
	return m.collect(func(k edge) (uint, bool) { return k.followee, k.follower == userID }, offset, limit), nil
}

func (m *Follows) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	users, _ := m.GetFollowers(ctx, userID, 0, -1)
	return int64(len(users)), nil
}

func (m *Follows) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	users, _ := m.GetFollowing(ctx, userID, 0, -1)
	return int64(len(users)), nil
}

func (m *Follows) IsFollowing(_ context.Context, followerID, followeeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[edge{followerID, followeeID}]
	return ok, nil
}

// Len returns the number of follow edges.
func (m *Follows) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edges)
}

// Actions stamps every action with its clock, so actions recorded without a
// Tick in between share a timestamp and fall back to id order.
type Actions struct {
	mu      sync.Mutex
	nextID  uint
	clock   time.Time
	actions []*models.Action

	// Err, when set, fails every Create.
	Err error
}

func NewActions() *Actions {
	return &Actions{clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *Actions) Create(_ context.Context, action *models.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextID++
	action.ID = m.nextID
	action.CreatedAt = m.clock
	stored := *action
	m.actions = append(m.actions, &stored)
	return nil
}

// Tick advances the clock used for new actions.
func (m *Actions) Tick(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(d)
}

func (m *Actions) newest(match func(*models.Action) bool, limit int) []*models.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Action
	for _, a := range m.actions {
		if match(a) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Actions) RecentExcluding(_ context.Context, actorID uint, limit int) ([]*models.Action, error) {
	return m.newest(func(a *models.Action) bool { return a.ActorID != actorID }, limit), nil
}

func (m *Actions) RecentByActors(_ context.Context, actorIDs []uint, excludeID uint, limit int) ([]*models.Action, error) {
	set := make(map[uint]bool, len(actorIDs))
	for _, id := range actorIDs {
		set[id] = true
	}
	return m.newest(func(a *models.Action) bool { return set[a.ActorID] && a.ActorID != excludeID }, limit), nil
}

// CountByActorAndVerb counts what actorID recorded with verb. It is not part
// of ActionStore; tests use it to inspect the log.
func (m *Actions) CountByActorAndVerb(_ context.Context, actorID uint, verb string) (int64, error) {
	n := len(m.newest(func(a *models.Action) bool { return a.ActorID == actorID && a.Verb == verb }, -1))
	return int64(n), nil
}

type like struct{ image, user uint }

type Images struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.Image
	likes  map[like]bool
	users  *Users

	// Reversed makes GetByIDs return rows in descending id order.
	Reversed bool
}

func NewImages(users *Users) *Images {
	return &Images{byID: make(map[uint]*models.Image), likes: make(map[like]bool), users: users}
}

// Create keeps a preset ID, otherwise assigns the next one.
func (m *Images) Create(_ context.Context, image *models.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if image.ID == 0 {
		m.nextID++
		image.ID = m.nextID
	} else if image.ID > m.nextID {
		m.nextID = image.ID
	}
	image.CreatedAt = time.Now()
	m.byID[image.ID] = image
	return nil
}

func (m *Images) GetByID(_ context.Context, id uint) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *Images) GetByIDAndSlug(_ context.Context, id uint, slug string) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if img, ok := m.byID[id]; ok && img.Slug == slug {
		return img, nil
	}
	return nil, nil
}

func (m *Images) GetByIDs(_ context.Context, ids []uint) ([]*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Image
	for _, id := range ids {
		if img, ok := m.byID[id]; ok {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if m.Reversed {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Images) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	found, _ := m.GetByIDs(ctx, ids)
	out := make([]uint, 0, len(found))
	for _, img := range found {
		out = append(out, img.ID)
	}
	return out, nil
}

func (m *Images) List(_ context.Context, offset, limit int) ([]*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Image, 0, len(m.byID))
	for _, img := range m.byID {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, offset, limit), nil
}

func (m *Images) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

func (m *Images) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	for k := range m.likes {
		if k.image == id {
			delete(m.likes, k)
		}
	}
	return nil
}

func (m *Images) AddLike(_ context.Context, imageID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes[like{imageID, userID}] = true
	return nil
}

func (m *Images) RemoveLike(_ context.Context, imageID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.likes, like{imageID, userID})
	return nil
}

func (m *Images) LikedBy(ctx context.Context, imageID uint) ([]*models.User, error) {
	m.mu.Lock()
	var ids []uint
	for k := range m.likes {
		if k.image == imageID {
			ids = append(ids, k.user)
		}
	}
	m.mu.Unlock()
	users, err := m.users.GetByIDs(ctx, ids)
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, err
}

func (m *Images) RefreshTotalLikes(_ context.Context, imageID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byID[imageID]
	if !ok {
		return nil
	}
	img.TotalLikes = int64(m.likeCountLocked(imageID))
	return nil
}

// LikeCount returns the size of the image's liked-by set.
func (m *Images) LikeCount(imageID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.likeCountLocked(imageID)
}

func (m *Images) likeCountLocked(imageID uint) int {
	n := 0
	for k := range m.likes {
		if k.image == imageID {
			n++
		}
	}
	return n
}

// Media stores nothing; Fetch returns a ref derived from name and ext.
type Media struct {
	mu      sync.Mutex
	removed []string

	// Err, when set, fails every Fetch.
	Err error
}

func (m *Media) Fetch(_ context.Context, _, name, ext string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "images/" + name + "." + ext, nil
}

func (m *Media) Remove(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, ref)
	return nil
}

func (m *Media) URL(ref string) string {
	return "/media/" + ref
}

// Removed lists the refs passed to Remove, in call order.
func (m *Media) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// Publisher collects published events instead of sending them to Kafka.
type Publisher struct {
	mu     sync.Mutex
	events []queue.Event

	// Err, when set, fails every Publish.
	Err error
}

func (p *Publisher) Publish(_ context.Context, _ string, event queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns the published events of type t.
func (p *Publisher) Events(t queue.EventType) []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

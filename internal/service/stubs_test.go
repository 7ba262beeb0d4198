package service

import (
	"context"
	"sync"

	"murmur/internal/feed"
	"murmur/internal/graph"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/oauth"
	"murmur/internal/repository"
)

// Stubs return zero values for any func field left nil.

type userRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByUsernameFn  func(context.Context, string) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	usernameExistsFn func(context.Context, string) (bool, error)
	createFn         func(context.Context, *models.User) error
	updateFn         func(context.Context, *models.User) error
	directoryFn      func(context.Context, repository.DirectoryQuery) ([]feed.Connection, error)
	suggestionsFn    func(context.Context, uint, int) ([]feed.Connection, error)
	statsFn          func(context.Context, uint) (feed.ProfileStats, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn == nil {
		return &models.User{ID: id}, nil
	}
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.getByUsernameFn == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) UsernameExists(ctx context.Context, username string) (bool, error) {
	if s.usernameExistsFn == nil {
		return false, nil
	}
	return s.usernameExistsFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Directory(ctx context.Context, q repository.DirectoryQuery) ([]feed.Connection, error) {
	if s.directoryFn == nil {
		return nil, nil
	}
	return s.directoryFn(ctx, q)
}
func (s *userRepoStub) Suggestions(ctx context.Context, viewerID uint, limit int) ([]feed.Connection, error) {
	if s.suggestionsFn == nil {
		return nil, nil
	}
	return s.suggestionsFn(ctx, viewerID, limit)
}
func (s *userRepoStub) Stats(ctx context.Context, userID uint) (feed.ProfileStats, error) {
	if s.statsFn == nil {
		return feed.ProfileStats{}, nil
	}
	return s.statsFn(ctx, userID)
}

// followRepoStub keeps edges in memory and applies writes to them.
type followRepoStub struct {
	mu    sync.Mutex
	edges graph.Edges
	lists map[repository.FollowList][]feed.Connection
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{edges: graph.Edges{}}
}

func (s *followRepoStub) set(from, to uint, state models.FollowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[graph.Pair{From: from, To: to}] = state
}

func (s *followRepoStub) State(_ context.Context, from, to uint) (models.FollowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges.State(from, to), nil
}
func (s *followRepoStub) Request(_ context.Context, from, to uint, state models.FollowState) (bool, models.FollowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := graph.Pair{From: from, To: to}
	if cur, ok := s.edges[key]; ok {
		return false, cur, nil
	}
	s.edges[key] = state
	return true, state, nil
}
func (s *followRepoStub) Accept(_ context.Context, from, to uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := graph.Pair{From: from, To: to}
	if s.edges[key] != models.FollowPending {
		return false, nil
	}
	s.edges[key] = models.FollowAccepted
	return true, nil
}
func (s *followRepoStub) Reject(_ context.Context, from, to uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := graph.Pair{From: from, To: to}
	if s.edges[key] != models.FollowPending {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}
func (s *followRepoStub) Unfollow(_ context.Context, from, to uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := graph.Pair{From: from, To: to}
	if _, ok := s.edges[key]; !ok {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}
func (s *followRepoStub) Edges(_ context.Context, userID uint) (graph.Edges, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := graph.Edges{}
	for k, v := range s.edges {
		if k.From == userID || k.To == userID {
			out[k] = v
		}
	}
	return out, nil
}
func (s *followRepoStub) List(_ context.Context, _ uint, list repository.FollowList) ([]feed.Connection, error) {
	return s.lists[list], nil
}

// notificationRepoStub stores notifications in memory.
type notificationRepoStub struct {
	mu       sync.Mutex
	created  []models.Notification
	resolved []string
	withdrew int
	unread   int64
	setRead  func(recipientID, id uint, read bool) error
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *n)
	s.unread++
	return nil
}
func (s *notificationRepoStub) GetByID(_ context.Context, recipientID, id uint) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.created {
		if s.created[i].ID == id && s.created[i].RecipientID == recipientID {
			n := s.created[i]
			return &n, nil
		}
	}
	return nil, models.NewNotFoundError("Notification", id)
}
func (s *notificationRepoStub) List(_ context.Context, recipientID uint, _ bool, _, _ int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.created {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}
func (s *notificationRepoStub) UnreadCount(context.Context, uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread, nil
}
func (s *notificationRepoStub) SetRead(_ context.Context, recipientID, id uint, read bool) error {
	if s.setRead != nil {
		return s.setRead(recipientID, id, read)
	}
	return nil
}
func (s *notificationRepoStub) MarkAllRead(context.Context, uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.unread
	s.unread = 0
	return n, nil
}
func (s *notificationRepoStub) ResolveFollowRequest(_ context.Context, _, _ uint, extra string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, extra)
	return nil
}
func (s *notificationRepoStub) WithdrawFollowRequest(context.Context, uint, uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrew++
	return nil
}

func (s *notificationRepoStub) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.created))
	for _, n := range s.created {
		t := string(n.Type)
		if n.ExtraData != "" && n.Type == models.NotificationFollow {
			t += ":" + n.ExtraData
		}
		out = append(out, t)
	}
	return out
}

type engagementRepoStub struct {
	likeFn     func(context.Context, uint, models.TargetKind, uint) (bool, error)
	unlikeFn   func(context.Context, uint, models.TargetKind, uint) (bool, error)
	favoriteFn func(context.Context, uint, models.TargetKind, uint) (bool, error)
	repostFn   func(context.Context, uint, uint) (bool, error)
	count      int64
}

func (s *engagementRepoStub) Like(ctx context.Context, userID uint, kind models.TargetKind, id uint) (bool, error) {
	if s.likeFn == nil {
		return true, nil
	}
	return s.likeFn(ctx, userID, kind, id)
}
func (s *engagementRepoStub) Unlike(ctx context.Context, userID uint, kind models.TargetKind, id uint) (bool, error) {
	if s.unlikeFn == nil {
		return true, nil
	}
	return s.unlikeFn(ctx, userID, kind, id)
}
func (s *engagementRepoStub) Favorite(ctx context.Context, userID uint, kind models.TargetKind, id uint) (bool, error) {
	if s.favoriteFn == nil {
		return true, nil
	}
	return s.favoriteFn(ctx, userID, kind, id)
}
func (s *engagementRepoStub) Unfavorite(context.Context, uint, models.TargetKind, uint) (bool, error) {
	return true, nil
}
func (s *engagementRepoStub) Repost(ctx context.Context, userID, postID uint) (bool, error) {
	if s.repostFn == nil {
		return true, nil
	}
	return s.repostFn(ctx, userID, postID)
}
func (s *engagementRepoStub) Unrepost(context.Context, uint, uint) (bool, error) {
	return true, nil
}
func (s *engagementRepoStub) LikesCount(context.Context, models.TargetKind, uint) (int64, error) {
	return s.count, nil
}

type postRepoStub struct {
	posts    map[uint]*models.Post
	createFn func(context.Context, *models.Post, []string) error
	deleted  []uint
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	if s.createFn != nil {
		if err := s.createFn(ctx, post, tags); err != nil {
			return err
		}
	}
	if post.ID == 0 {
		post.ID = uint(len(s.posts) + 100)
	}
	if s.posts == nil {
		s.posts = map[uint]*models.Post{}
	}
	s.posts[post.ID] = post
	return nil
}
func (s *postRepoStub) GetByID(_ context.Context, id uint) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	cp := *p
	return &cp, nil
}
func (s *postRepoStub) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type commentRepoStub struct {
	comments map[uint]*models.Comment
	listFn   func(context.Context, uint, int, int) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(_ context.Context, c *models.Comment) error {
	if s.comments == nil {
		s.comments = map[uint]*models.Comment{}
	}
	c.ID = uint(len(s.comments) + 1)
	s.comments[c.ID] = c
	return nil
}
func (s *commentRepoStub) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *c
	return &cp, nil
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, postID, limit, offset)
}

type chatRepoStub struct {
	created []models.ChatMessage
	limit   int
}

func (s *chatRepoStub) CreateMessage(_ context.Context, msg *models.ChatMessage) error {
	msg.ID = uint(len(s.created) + 1)
	msg.User = models.User{ID: msg.UserID, Username: "talker"}
	s.created = append(s.created, *msg)
	return nil
}
func (s *chatRepoStub) Recent(_ context.Context, limit int) ([]models.ChatMessage, error) {
	s.limit = limit
	return s.created, nil
}

type sentEvent struct {
	UserID uint
	Type   string
}

// recordingPublisher remembers every event; UserID 0 marks a broadcast.
type recordingPublisher struct {
	mu     sync.Mutex
	events []sentEvent
}

func (p *recordingPublisher) ToUser(_ context.Context, userID uint, e notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{UserID: userID, Type: e.Type})
}
func (p *recordingPublisher) ToEveryone(_ context.Context, e notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{Type: e.Type})
}

func (p *recordingPublisher) sent() []sentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentEvent(nil), p.events...)
}

type tokenStub struct{}

func (tokenStub) Issue(userID uint, username string) (string, error) {
	return "token-for-" + username, nil
}

type providerStub struct {
	identity *oauth.Identity
	err      error
}

func (p *providerStub) Name() string                   { return "stub" }
func (p *providerStub) AuthCodeURL(state string) string { return "https://idp.test/auth?state=" + state }
func (p *providerStub) Exchange(context.Context, string) (*oauth.Identity, error) {
	return p.identity, p.err
}

// feedStoreStub answers post lookups from fixed maps and edges from follows.
type feedStoreStub struct {
	*followRepoStub
	users   map[uint]*models.User
	counts  map[uint]feed.Counts
	reposts []models.Repost
	liked   map[uint]bool
}

func (s *feedStoreStub) User(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return &models.User{ID: id}, nil
}
func (s *feedStoreStub) Candidates(context.Context, feed.Selection) ([]models.Post, error) {
	return nil, nil
}
func (s *feedStoreStub) Posts(context.Context, []uint) ([]models.Post, error) {
	return nil, nil
}
func (s *feedStoreStub) Counts(context.Context, []uint) (map[uint]feed.Counts, error) {
	return s.counts, nil
}
func (s *feedStoreStub) Reposts(context.Context, []uint) ([]models.Repost, error) {
	return s.reposts, nil
}
func (s *feedStoreStub) Marks(context.Context, uint, []uint) (feed.Marks, error) {
	return feed.Marks{Liked: s.liked}, nil
}

type mediaRepoStub struct {
	rows      []models.Media
	deleted   []uint
	createErr error
}

func (s *mediaRepoStub) Find(_ context.Context, kind models.TargetKind, ownerID uint, fileType string) (*models.Media, error) {
	for i := len(s.rows) - 1; i >= 0; i-- {
		m := s.rows[i]
		if m.OwnerKind == kind && m.OwnerID == ownerID && m.FileType == fileType {
			return &m, nil
		}
	}
	return nil, nil
}
func (s *mediaRepoStub) ForOwners(context.Context, models.TargetKind, []uint) ([]models.Media, error) {
	return s.rows, nil
}
func (s *mediaRepoStub) Create(_ context.Context, m *models.Media) error {
	if s.createErr != nil {
		return s.createErr
	}
	m.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, *m)
	return nil
}
func (s *mediaRepoStub) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	kept := s.rows[:0]
	for _, m := range s.rows {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.rows = kept
	return nil
}

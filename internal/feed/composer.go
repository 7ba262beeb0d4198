package feed

import (
	"context"

	"murmur/internal/graph"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/query"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

// Composer assembles feeds from a Store.
type Composer struct {
	store Store
}

// NewComposer returns a Composer reading from store.
func NewComposer(store Store) *Composer {
	return &Composer{store: store}
}

// Compose selects, filters, merges, sorts, pages and annotates a feed. Only
// the requested page is loaded in full.
func (c *Composer) Compose(ctx context.Context, req Request) (*Feed, error) {
	span, ctx := observability.NewSpan(ctx, "feed.compose")
	defer span.End()
	timer := prometheus.NewTimer(observability.FeedComposeDuration.WithLabelValues(string(req.Context)))
	defer timer.ObserveDuration()

	req.Sort = ParseSort(string(req.Sort))
	span.AddAttributes(
		attribute.String("feed.context", string(req.Context)),
		attribute.String("feed.sort", string(req.Sort)),
	)

	var viewerID uint
	if req.Viewer != nil {
		viewerID = req.Viewer.ID
	}
	if req.Context.RequiresViewer() && viewerID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to view this page")
	}
	if req.Context.RequiresTarget() {
		if req.TargetUserID == 0 {
			return nil, models.NewValidationError("Target user is required")
		}
		if _, err := c.store.User(ctx, req.TargetUserID); err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	edges := graph.Edges{}
	if viewerID != 0 {
		var err error
		if edges, err = c.store.Edges(ctx, viewerID); err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	visible := VisibleTo(viewerID)
	var sets [][]models.Post
	for _, sel := range c.selections(req, viewerID, visible) {
		posts, err := c.store.Candidates(ctx, sel)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		sets = append(sets, posts)
	}

	merged := Union(sets...)
	candidates := merged[:0]
	for i := range merged {
		if CanView(viewerID, &merged[i], edges) {
			candidates = append(candidates, merged[i])
		}
	}
	if dropped := len(merged) - len(candidates); dropped > 0 {
		observability.FeedPostsFiltered.WithLabelValues(string(req.Context)).Add(float64(dropped))
	}

	if req.Sort == SortRepostedFriends || req.Sort == SortFollowing {
		candidates = AuthoredByFollowed(candidates, viewerID, edges)
	}

	var counts map[uint]Counts
	if req.Sort == SortMostLiked {
		var err error
		if counts, err = c.store.Counts(ctx, postIDs(candidates)); err != nil {
			span.SetError(err)
			return nil, err
		}
	}
	SortPosts(candidates, req.Sort, counts)

	total := len(candidates)
	page, err := c.load(ctx, paginate(candidates, req.Offset, req.Limit))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if counts == nil {
		if counts, err = c.store.Counts(ctx, postIDs(page)); err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	items, err := c.annotate(ctx, page, viewerID, edges, counts)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	out := &Feed{Posts: items, Total: total, Sort: req.Sort}
	if req.Viewer != nil {
		summary := Summarize(req.Viewer)
		out.CurrentUser = &summary
	}
	span.AddAttributes(attribute.Int("feed.total", total))
	return out, nil
}

func (c *Composer) selections(req Request, viewerID uint, visible query.Expr) []Selection {
	sel := func(src Source, userID uint) Selection {
		return Selection{Source: src, UserID: userID, Visible: visible}
	}
	switch req.Context {
	case ContextProfileOriginals:
		return []Selection{sel(SourceAuthoredBy, req.TargetUserID)}
	case ContextProfileReposts:
		return []Selection{sel(SourceRepostedBy, req.TargetUserID)}
	case ContextProfileCombined:
		return []Selection{sel(SourceAuthoredBy, req.TargetUserID), sel(SourceRepostedBy, req.TargetUserID)}
	case ContextFavorites:
		return []Selection{sel(SourceFavoritedBy, viewerID)}
	case ContextLiked:
		return []Selection{sel(SourceLikedBy, viewerID)}
	case ContextFollowing:
		return []Selection{sel(SourceFollowedAuthors, viewerID)}
	}
	return nil
}

// load replaces page keys with full posts, keeping the page order.
func (c *Composer) load(ctx context.Context, keys []models.Post) ([]models.Post, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	full, err := c.store.Posts(ctx, postIDs(keys))
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Post, len(full))
	for _, p := range full {
		byID[p.ID] = p
	}
	page := make([]models.Post, 0, len(keys))
	for _, k := range keys {
		if p, ok := byID[k.ID]; ok {
			page = append(page, p)
		}
	}
	return page, nil
}

func (c *Composer) annotate(ctx context.Context, posts []models.Post, viewerID uint, edges graph.Edges, counts map[uint]Counts) ([]Item, error) {
	items := make([]Item, 0, len(posts))
	if len(posts) == 0 {
		return items, nil
	}
	ids := postIDs(posts)

	reposts, err := c.store.Reposts(ctx, ids)
	if err != nil {
		return nil, err
	}
	repostsByPost := make(map[uint][]models.Repost, len(posts))
	for _, r := range reposts {
		repostsByPost[r.PostID] = append(repostsByPost[r.PostID], r)
	}

	marks := Marks{}
	if viewerID != 0 {
		if marks, err = c.store.Marks(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}

	for i := range posts {
		items = append(items, Annotate(&posts[i], viewerID, edges, counts[posts[i].ID], repostsByPost[posts[i].ID], marks))
	}
	return items, nil
}

// Annotate builds the viewer-relative payload for one post.
func Annotate(p *models.Post, viewerID uint, edges graph.Edges, counts Counts, reposts []models.Repost, marks Marks) Item {
	item := Item{
		ID:             p.ID,
		Content:        p.Content,
		CreatedAt:      p.CreatedAt,
		ParentPostID:   p.ParentPostID,
		User:           Summarize(&p.User),
		Media:          make([]MediaItem, 0, len(p.Media)),
		Hashtags:       make([]HashtagItem, 0, len(p.Hashtags)),
		IsPrivate:      p.IsPrivate,
		LikesCount:     counts.Likes,
		IsLiked:        marks.Liked[p.ID],
		FavoritesCount: counts.Favorites,
		IsFavorited:    marks.Favorited[p.ID],
		CommentsCount:  counts.Comments,
		RepostsCount:   int64(len(reposts)),
		IsReposted:     marks.Reposted[p.ID],
	}
	for _, m := range p.Media {
		item.Media = append(item.Media, MediaItem{FilePath: m.FilePath, FileType: m.FileType, Disk: m.Disk, URL: m.URL})
	}
	for _, h := range p.Hashtags {
		item.Hashtags = append(item.Hashtags, HashtagItem{ID: h.ID, Hashtag: h.Hashtag})
	}
	item.RepostedByYou = item.IsReposted
	if u := ReposterOtherThanAuthor(reposts, p.UserID); u != nil {
		s := Summarize(u)
		item.RepostedByUser = &s
	}
	recent := RecentReposters(reposts, p.UserID, viewerID, edges, MaxRecentReposters)
	item.RepostedByRecent = make([]UserSummary, 0, len(recent))
	for i := range recent {
		item.RepostedByRecent = append(item.RepostedByRecent, Summarize(&recent[i]))
	}
	return item
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	return ids
}

func paginate(posts []models.Post, offset, limit int) []models.Post {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(posts) {
		return nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}

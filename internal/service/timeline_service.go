package service

import (
	"context"
	"time"

	"devcentral/internal/markdown"
	"devcentral/internal/models"
	"devcentral/internal/observability"
	"devcentral/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ExplorePageSize is the number of posts per explore page.
const ExplorePageSize = 25

// TimelinePost is a post ready for display.
type TimelinePost struct {
	*models.Post
	// RenderedHTML is nil when the body could not be rendered.
	RenderedHTML *string         `json:"rendered_html"`
	ImageURL     string          `json:"image_url"`
	Replies      []*models.Reply `json:"replies"`
}

// ExplorePage is one page of the global post list.
type ExplorePage struct {
	Posts       []*TimelinePost `json:"posts"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	TotalPages  int             `json:"total_pages"`
	TotalCount  int64           `json:"total_count"`
	HasNext     bool            `json:"has_next"`
	HasPrevious bool            `json:"has_previous"`
}

type TimelineService struct {
	posts    repository.PostRepository
	replies  repository.ReplyRepository
	follows  repository.FollowRepository
	renderer markdown.Renderer
	media    *MediaService
}

func NewTimelineService(
	posts repository.PostRepository,
	replies repository.ReplyRepository,
	follows repository.FollowRepository,
	renderer markdown.Renderer,
	media *MediaService,
) *TimelineService {
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	return &TimelineService{posts: posts, replies: replies, follows: follows, renderer: renderer, media: media}
}

// Feed returns posts by viewerID and everyone they follow, newest first.
func (s *TimelineService) Feed(ctx context.Context, viewerID uint) (_ []*TimelinePost, err error) {
	defer observeAssembly("feed", time.Now())
	ctx, span := observability.StartSpan(ctx, "timeline.feed", attribute.Int64("viewer.id", int64(viewerID)))
	defer func() { observability.EndSpan(span, err) }()

	following, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authors := make([]uint, 0, len(following)+1)
	authors = append(authors, viewerID)
	for _, id := range following {
		if id != viewerID {
			authors = append(authors, id)
		}
	}

	posts, err := s.posts.ListByAuthors(ctx, authors, viewerID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, posts)
}

// ProfileTimeline returns authorID's posts as seen by viewerID.
func (s *TimelineService) ProfileTimeline(ctx context.Context, viewerID, authorID uint) (_ []*TimelinePost, err error) {
	defer observeAssembly("profile", time.Now())
	ctx, span := observability.StartSpan(ctx, "timeline.profile", attribute.Int64("author.id", int64(authorID)))
	defer func() { observability.EndSpan(span, err) }()

	posts, err := s.posts.ListByAuthors(ctx, []uint{authorID}, viewerID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, posts)
}

// Explore pages through every post. Pages below 1 clamp to 1 and pages past
// the end clamp to the last page.
func (s *TimelineService) Explore(ctx context.Context, viewerID uint, page int) (_ *ExplorePage, err error) {
	defer observeAssembly("explore", time.Now())
	ctx, span := observability.StartSpan(ctx, "timeline.explore", attribute.Int("page.requested", page))
	defer func() { observability.EndSpan(span, err) }()

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + ExplorePageSize - 1) / ExplorePageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	span.SetAttributes(attribute.Int("page", page))

	posts, err := s.posts.List(ctx, ExplorePageSize, (page-1)*ExplorePageSize, viewerID)
	if err != nil {
		return nil, err
	}
	assembled, err := s.assemble(ctx, posts)
	if err != nil {
		return nil, err
	}

	return &ExplorePage{
		Posts:       assembled,
		Page:        page,
		PageSize:    ExplorePageSize,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}

// Post returns a single assembled post.
func (s *TimelineService) Post(ctx context.Context, viewerID, postID uint) (*TimelinePost, error) {
	post, err := s.posts.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	assembled, err := s.assemble(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return assembled[0], nil
}

// assemble attaches replies, fetched in one batch, and rendered bodies.
func (s *TimelineService) assemble(ctx context.Context, posts []*models.Post) (_ []*TimelinePost, err error) {
	ctx, span := observability.StartSpan(ctx, "timeline.assemble", attribute.Int("posts", len(posts)))
	defer func() { observability.EndSpan(span, err) }()

	out := make([]*TimelinePost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	replies, err := s.replies.ListByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byPost := make(map[uint][]*models.Reply, len(posts))
	for _, r := range replies {
		byPost[r.PostID] = append(byPost[r.PostID], r)
	}

	for _, p := range posts {
		thread := byPost[p.ID]
		if thread == nil {
			thread = []*models.Reply{}
		}
		out = append(out, &TimelinePost{
			Post:         p,
			RenderedHTML: markdown.RenderOrNil(ctx, s.renderer, p.Body),
			ImageURL:     s.media.URL(p.Image),
			Replies:      thread,
		})
	}
	return out, nil
}

func observeAssembly(kind string, start time.Time) {
	observability.TimelineAssembly.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

package services

import (
	"context"
	"fmt"
	"time"

	"quill/app/models"
	"quill/app/policies"
	"quill/app/repositories"
)

// PerPage is the size of a post listing page.
const PerPage = 15

// Pagination describes where a page sits in a listing.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// PostPage is one page of published posts.
type PostPage struct {
	Data       []*models.Post `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo repositories.PostRepository
	now      func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		now:      time.Now,
	}
}

// ListPosts returns a page of published posts with owners and comments.
// A non-zero userID keeps only that author's posts.
func (s *PostService) ListPosts(ctx context.Context, page int, userID int64) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	q := repositories.PostQuery{
		Status:    models.StatusPublished,
		UserID:    userID,
		Limit:     PerPage,
		Relations: []string{repositories.RelOwner, repositories.RelComments},
	}

	total, err := s.postRepo.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	lastPage := int((total + PerPage - 1) / PerPage)
	if lastPage < 1 {
		lastPage = 1
	}

	// Pages past the end are empty and never reach the store
	posts := []*models.Post{}
	if page <= lastPage {
		q.Offset = (page - 1) * PerPage
		found, err := s.postRepo.List(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		if found != nil {
			posts = found
		}
	}

	return &PostPage{
		Data: posts,
		Pagination: Pagination{
			CurrentPage: page,
			LastPage:    lastPage,
			PerPage:     PerPage,
			Total:       total,
		},
	}, nil
}

// CreatePost validates the input and stores a new post owned by actor
func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in models.CreatePostInput) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	// Validate post
	in.Normalize()
	if err := models.Validate(&in); err != nil {
		return nil, err
	}

	slug, err := models.UniqueSlug(in.Title, func(candidate string) (bool, error) {
		return s.postRepo.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, fmt.Errorf("derive slug: %w", err)
	}

	post := &models.Post{
		UserID:  actor.ID,
		Title:   in.Title,
		Slug:    slug,
		Content: in.Content,
		Status:  models.StatusDraft,
	}
	if models.Status(in.Status) == models.StatusPublished {
		post.Publish(s.now())
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, uniqueViolation(err)
	}
	return post, nil
}

// GetPost retrieves a post with its owner and comments if actor may see it
func (s *PostService) GetPost(ctx context.Context, actor *models.User, id int64) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id,
		repositories.RelOwner, repositories.RelComments, repositories.RelCommentAuthors)
	if err != nil {
		return nil, notFound(err, "post", id)
	}

	if !policies.CanViewPost(actor, post) {
		return nil, ErrForbidden
	}
	return post, nil
}

// UpdatePost applies the supplied fields. The slug never changes here.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id int64, in models.UpdatePostInput) (*models.Post, error) {
	post, err := s.authorize(ctx, actor, id, policies.CanUpdatePost)
	if err != nil {
		return nil, err
	}

	// Validate supplied fields
	in.Normalize()
	if err := models.Validate(&in); err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Status != nil {
		post.SetStatus(models.Status(*in.Status), s.now())
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, uniqueViolation(err)
	}
	return post, nil
}

// DeletePost deletes a post; its comments go with it
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id int64) error {
	if _, err := s.authorize(ctx, actor, id, policies.CanDeletePost); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return notFound(err, "post", id)
	}
	return nil
}

// PublishPost publishes the post and returns the stored version with its
// owner. Publishing twice refreshes published_at.
func (s *PostService) PublishPost(ctx context.Context, actor *models.User, id int64) (*models.Post, error) {
	post, err := s.authorize(ctx, actor, id, policies.CanPublishPost)
	if err != nil {
		return nil, err
	}

	post.Publish(s.now())
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("publish post %d: %w", id, err)
	}

	fresh, err := s.postRepo.GetByID(ctx, id, repositories.RelOwner)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return fresh, nil
}

// RegenerateSlug recomputes the slug from the current title without probing
// for a free suffix. A clash with another post is a validation error.
func (s *PostService) RegenerateSlug(ctx context.Context, actor *models.User, id int64) (string, error) {
	post, err := s.authorize(ctx, actor, id, policies.CanUpdatePost)
	if err != nil {
		return "", err
	}

	slug := models.Slugify(post.Title)
	if slug == post.Slug {
		return slug, nil
	}

	post.Slug = slug
	if err := s.postRepo.Update(ctx, post); err != nil {
		return "", uniqueViolation(err)
	}
	return slug, nil
}

// authorize loads the post, then checks for a signed in actor, then applies
// the policy. The order yields 404 before 401 before 403.
func (s *PostService) authorize(ctx context.Context, actor *models.User, id int64, allowed func(*models.User, *models.Post) bool) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !allowed(actor, post) {
		return nil, ErrForbidden
	}
	return post, nil
}

package services

import (
	"context"
	"fmt"

	"quill/app/models"
	"quill/app/policies"
	"quill/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// ListComments returns the comments on a post, oldest first. Only the post
// owner sees comments awaiting approval.
func (s *CommentService) ListComments(ctx context.Context, actor *models.User, postID int64) ([]*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	if !policies.CanViewPost(actor, post) {
		return nil, ErrForbidden
	}

	q := repositories.CommentQuery{
		ApprovedOnly: !policies.CanSeePendingComments(actor, post),
		Relations:    []string{repositories.RelOwner},
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID, q)
	if err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// CreateComment adds an unapproved comment by actor on a post
func (s *CommentService) CreateComment(ctx context.Context, actor *models.User, postID int64, in models.CreateCommentInput) (*models.Comment, error) {
	// Verify post exists
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !policies.CanComment(actor, post) {
		return nil, ErrForbidden
	}

	// Validate comment
	in.Normalize()
	if err := models.Validate(&in); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  post.ID,
		UserID:  actor.ID,
		Content: in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.User = actor
	return comment, nil
}

// ApproveComment marks a comment approved. Only the post owner may do it.
func (s *CommentService) ApproveComment(ctx context.Context, actor *models.User, id int64) (*models.Comment, error) {
	comment, post, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policies.CanApproveComment(actor, post) {
		return nil, ErrForbidden
	}

	comment.Approve()
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, notFound(err, "comment", id)
	}
	return comment, nil
}

// DeleteComment removes a comment. The author and the post owner may do it.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, id int64) error {
	comment, post, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policies.CanDeleteComment(actor, comment, post) {
		return ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return notFound(err, "comment", id)
	}
	return nil
}

func (s *CommentService) load(ctx context.Context, actor *models.User, id int64) (*models.Comment, *models.Post, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "comment", id)
	}
	if actor == nil {
		return nil, nil, ErrUnauthenticated
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, nil, notFound(err, "post", comment.PostID)
	}
	return comment, post, nil
}

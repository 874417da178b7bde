package repositories

import (
	"context"

	"quill/app/models"
)

// Relations that GetByID and List can eager load.
const (
	RelOwner          = "User"
	RelPost           = "Post"
	RelComments       = "Comments"
	RelCommentAuthors = "Comments.User"
)

// PostQuery filters and pages post listings. A zero Limit means no limit.
type PostQuery struct {
	Status    models.Status
	UserID    int64
	Limit     int
	Offset    int
	Relations []string
}

// CommentQuery filters comment listings.
type CommentQuery struct {
	ApprovedOnly bool
	Relations    []string
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByTokenHash(ctx context.Context, hash string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user together with their posts and comments.
	Delete(ctx context.Context, id int64) error
}

// PostRepository defines the interface for post data access. Listings are
// ordered newest first.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64, relations ...string) (*models.Post, error)
	List(ctx context.Context, q PostQuery) ([]*models.Post, error)
	Count(ctx context.Context, q PostQuery) (int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id int64) error
}

// CommentRepository defines the interface for comment data access. Listings
// are ordered oldest first.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64, relations ...string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int64, q CommentQuery) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error
}

func hasRelation(relations []string, name string) bool {
	for _, r := range relations {
		if r == name {
			return true
		}
	}
	return false
}

package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"quill/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		// Verify post and author exist
		if _, err := getPost(txn, comment.PostID); err != nil {
			return fmt.Errorf("comment post %d: %w", comment.PostID, err)
		}
		if _, err := getUser(txn, comment.UserID); err != nil {
			return fmt.Errorf("comment author %d: %w", comment.UserID, err)
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}

		rec := commentRecord(comment)
		rec.ID = id
		now := time.Now()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		if err := setEntity(txn, entityKey(CommentKeyPrefix, rec.ID), rec); err != nil {
			return err
		}

		comment.ID = rec.ID
		comment.CreatedAt = rec.CreatedAt
		comment.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id int64, relations ...string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		if err := getEntity(txn, entityKey(CommentKeyPrefix, id), &comment); err != nil {
			return err
		}
		return loadCommentRelations(txn, &comment, relations)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves the comments on a post, oldest first
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID int64, q CommentQuery) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		comments, err = scanComments(txn, func(c *models.Comment) bool {
			return c.PostID == postID && (!q.ApprovedOnly || c.Approved)
		})
		if err != nil {
			return err
		}
		sortComments(comments)

		for _, c := range comments {
			if err := loadCommentRelations(txn, c, q.Relations); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Update updates an existing comment
func (r *BadgerCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := entityKey(CommentKeyPrefix, comment.ID)

		// Verify comment exists
		exists, err := keyExists(txn, key)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		rec := commentRecord(comment)
		rec.UpdatedAt = time.Now()
		if err := setEntity(txn, key, rec); err != nil {
			return err
		}
		comment.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(ctx context.Context, id int64) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := entityKey(CommentKeyPrefix, id)

		exists, err := keyExists(txn, key)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return txn.Delete(key)
	})
}

func commentRecord(comment *models.Comment) *models.Comment {
	rec := *comment
	rec.User = nil
	rec.Post = nil
	return &rec
}

func scanComments(txn *badger.Txn, keep func(*models.Comment) bool) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := scanPrefix(txn, CommentKeyPrefix, func(val []byte) error {
		var comment models.Comment
		if err := unmarshalEntity(val, &comment); err != nil {
			return err
		}
		if keep == nil || keep(&comment) {
			comments = append(comments, &comment)
		}
		return nil
	})
	return comments, err
}

func sortComments(comments []*models.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
}

func loadCommentRelations(txn *badger.Txn, comment *models.Comment, relations []string) error {
	var err error
	if hasRelation(relations, RelOwner) {
		if comment.User, err = getUser(txn, comment.UserID); err != nil {
			return fmt.Errorf("author of comment %d: %w", comment.ID, err)
		}
	}
	if hasRelation(relations, RelPost) {
		if comment.Post, err = getPost(txn, comment.PostID); err != nil {
			return fmt.Errorf("post of comment %d: %w", comment.ID, err)
		}
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"quill/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		// Owner must exist
		if _, err := getUser(txn, post.UserID); err != nil {
			return fmt.Errorf("post owner %d: %w", post.UserID, err)
		}

		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}

		rec := postRecord(post)
		rec.ID = id
		now := time.Now()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		if err := setIndex(txn, indexKey(PostSlugIndexPrefix, rec.Slug), rec.ID, "slug"); err != nil {
			return err
		}
		if err := setEntity(txn, entityKey(PostKeyPrefix, rec.ID), rec); err != nil {
			return err
		}

		post.ID = rec.ID
		post.CreatedAt = rec.CreatedAt
		post.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int64, relations ...string) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		if err != nil {
			return err
		}
		return loadPostRelations(txn, post, relations)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List retrieves a filtered page of posts, newest first
func (r *BadgerPostRepository) List(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		all, err := scanPosts(txn, q.matches)
		if err != nil {
			return err
		}

		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID > all[j].ID
		})

		// Skip offset items
		if q.Offset < 0 || q.Offset >= len(all) {
			return nil
		}
		all = all[q.Offset:]
		if q.Limit > 0 && q.Limit < len(all) {
			all = all[:q.Limit]
		}

		for _, p := range all {
			if err := loadPostRelations(txn, p, q.Relations); err != nil {
				return err
			}
		}
		posts = all
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Count counts the posts matching q, ignoring paging
func (r *BadgerPostRepository) Count(ctx context.Context, q PostQuery) (int64, error) {
	var n int64
	err := r.db.View(func(txn *badger.Txn) error {
		posts, err := scanPosts(txn, q.matches)
		n = int64(len(posts))
		return err
	})
	return n, err
}

// SlugExists reports whether any post uses slug
func (r *BadgerPostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		exists, err = keyExists(txn, indexKey(PostSlugIndexPrefix, slug))
		return err
	})
	return exists, err
}

// Update updates an existing post
func (r *BadgerPostRepository) Update(ctx context.Context, post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		// Verify post exists
		existing, err := getPost(txn, post.ID)
		if err != nil {
			return err
		}

		rec := postRecord(post)
		rec.UpdatedAt = time.Now()

		if err := setIndex(txn, indexKey(PostSlugIndexPrefix, rec.Slug), rec.ID, "slug"); err != nil {
			return err
		}
		if existing.Slug != rec.Slug {
			if err := txn.Delete(indexKey(PostSlugIndexPrefix, existing.Slug)); err != nil {
				return err
			}
		}
		if err := setEntity(txn, entityKey(PostKeyPrefix, rec.ID), rec); err != nil {
			return err
		}

		post.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// Delete deletes a post and all its comments
func (r *BadgerPostRepository) Delete(ctx context.Context, id int64) error {
	return update(r.db, func(txn *badger.Txn) error {
		return deletePost(txn, id)
	})
}

func (q PostQuery) matches(p *models.Post) bool {
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.UserID != 0 && p.UserID != q.UserID {
		return false
	}
	return true
}

// postRecord returns a copy of post without its relations.
func postRecord(post *models.Post) *models.Post {
	rec := *post
	rec.User = nil
	rec.Comments = nil
	return &rec
}

func getPost(txn *badger.Txn, id int64) (*models.Post, error) {
	var post models.Post
	if err := getEntity(txn, entityKey(PostKeyPrefix, id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func scanPosts(txn *badger.Txn, keep func(*models.Post) bool) ([]*models.Post, error) {
	var posts []*models.Post
	err := scanPrefix(txn, PostKeyPrefix, func(val []byte) error {
		var post models.Post
		if err := unmarshalEntity(val, &post); err != nil {
			return err
		}
		if keep == nil || keep(&post) {
			posts = append(posts, &post)
		}
		return nil
	})
	return posts, err
}

// deletePost removes a post, its slug index entry and its comments.
func deletePost(txn *badger.Txn, id int64) error {
	post, err := getPost(txn, id)
	if err != nil {
		return err
	}

	comments, err := scanComments(txn, func(c *models.Comment) bool { return c.PostID == id })
	if err != nil {
		return err
	}
	for _, c := range comments {
		if err := txn.Delete(entityKey(CommentKeyPrefix, c.ID)); err != nil {
			return err
		}
	}

	if err := txn.Delete(indexKey(PostSlugIndexPrefix, post.Slug)); err != nil {
		return err
	}
	return txn.Delete(entityKey(PostKeyPrefix, id))
}

func loadPostRelations(txn *badger.Txn, post *models.Post, relations []string) error {
	if hasRelation(relations, RelOwner) {
		owner, err := getUser(txn, post.UserID)
		if err != nil {
			return fmt.Errorf("owner of post %d: %w", post.ID, err)
		}
		post.User = owner
	}

	withAuthors := hasRelation(relations, RelCommentAuthors)
	if !withAuthors && !hasRelation(relations, RelComments) {
		return nil
	}

	comments, err := scanComments(txn, func(c *models.Comment) bool { return c.PostID == post.ID })
	if err != nil {
		return err
	}
	sortComments(comments)

	post.Comments = make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if withAuthors {
			if c.User, err = getUser(txn, c.UserID); err != nil {
				return fmt.Errorf("author of comment %d: %w", c.ID, err)
			}
		}
		post.Comments = append(post.Comments, *c)
	}
	return nil
}

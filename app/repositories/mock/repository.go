// Package mock provides in-memory repositories for tests. They share one
// DB so cascades and relations behave like the real stores.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"quill/app/models"
	"quill/app/repositories"
)

// DB is the shared in-memory state.
type DB struct {
	users    map[int64]*models.User
	posts    map[int64]*models.Post
	comments map[int64]*models.Comment
	nextID   int64
	last     time.Time
	mutex    sync.RWMutex
}

func NewDB() *DB {
	return &DB{
		users:    make(map[int64]*models.User),
		posts:    make(map[int64]*models.Post),
		comments: make(map[int64]*models.Comment),
		nextID:   1,
	}
}

// NewStore returns a repositories.Store backed by a fresh DB.
func NewStore() *repositories.Store {
	db := NewDB()
	return &repositories.Store{
		Users:    &UserRepository{db: db},
		Posts:    &PostRepository{db: db},
		Comments: &CommentRepository{db: db},
		Driver:   repositories.DriverMemory,
	}
}

func (db *DB) Clear() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[int64]*models.User)
	db.posts = make(map[int64]*models.Post)
	db.comments = make(map[int64]*models.Comment)
	db.nextID = 1
	db.last = time.Time{}
}

func (db *DB) id() int64 {
	id := db.nextID
	db.nextID++
	return id
}

// stamp fills created_at and updated_at. Timestamps are strictly increasing
// so ordering by creation time is deterministic.
func (db *DB) stamp(createdAt *time.Time, updatedAt *time.Time) {
	now := time.Now()
	if !now.After(db.last) {
		now = db.last.Add(time.Microsecond)
	}
	db.last = now
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	for _, u := range m.db.users {
		if u.Email == user.Email {
			return &repositories.DuplicateError{Field: "email"}
		}
	}

	user.ID = m.db.id()
	m.db.stamp(&user.CreatedAt, &user.UpdatedAt)
	m.db.users[user.ID] = copyUser(user)
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()

	u, exists := m.db.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *UserRepository) GetByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.TokenHash != nil && *u.TokenHash == hash })
}

func (m *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()

	for _, u := range m.db.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.users[user.ID]; !exists {
		return repositories.ErrNotFound
	}
	for _, u := range m.db.users {
		if u.ID != user.ID && u.Email == user.Email {
			return &repositories.DuplicateError{Field: "email"}
		}
	}

	m.db.stamp(nil, &user.UpdatedAt)
	m.db.users[user.ID] = copyUser(user)
	return nil
}

func (m *UserRepository) Delete(ctx context.Context, id int64) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.users[id]; !exists {
		return repositories.ErrNotFound
	}
	for postID, p := range m.db.posts {
		if p.UserID == id {
			m.db.deletePost(postID)
		}
	}
	for commentID, c := range m.db.comments {
		if c.UserID == id {
			delete(m.db.comments, commentID)
		}
	}
	delete(m.db.users, id)
	return nil
}

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.users[post.UserID]; !exists {
		return repositories.ErrNotFound
	}
	if m.db.slugOwner(post.Slug) != 0 {
		return &repositories.DuplicateError{Field: "slug"}
	}

	post.ID = m.db.id()
	m.db.stamp(&post.CreatedAt, &post.UpdatedAt)
	m.db.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int64, relations ...string) (*models.Post, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()

	p, exists := m.db.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return m.db.withPostRelations(p, relations), nil
}

func (m *PostRepository) List(ctx context.Context, q repositories.PostQuery) ([]*models.Post, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()

	all := m.db.filterPosts(q)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if q.Offset < 0 || q.Offset >= len(all) {
		return []*models.Post{}, nil
	}
	all = all[q.Offset:]
	if q.Limit > 0 && q.Limit < len(all) {
		all = all[:q.Limit]
	}

	posts := make([]*models.Post, 0, len(all))
	for _, p := range all {
		posts = append(posts, m.db.withPostRelations(p, q.Relations))
	}
	return posts, nil
}

func (m *PostRepository) Count(ctx context.Context, q repositories.PostQuery) (int64, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()
	return int64(len(m.db.filterPosts(q))), nil
}

func (m *PostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()
	return m.db.slugOwner(slug) != 0, nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	if owner := m.db.slugOwner(post.Slug); owner != 0 && owner != post.ID {
		return &repositories.DuplicateError{Field: "slug"}
	}

	m.db.stamp(nil, &post.UpdatedAt)
	m.db.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int64) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	m.db.deletePost(id)
	return nil
}

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.posts[comment.PostID]; !exists {
		return repositories.ErrNotFound
	}
	if _, exists := m.db.users[comment.UserID]; !exists {
		return repositories.ErrNotFound
	}

	comment.ID = m.db.id()
	m.db.stamp(&comment.CreatedAt, &comment.UpdatedAt)
	m.db.comments[comment.ID] = copyComment(comment)
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id int64, relations ...string) (*models.Comment, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()

	c, exists := m.db.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return m.db.withCommentRelations(c, relations), nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID int64, q repositories.CommentQuery) ([]*models.Comment, error) {
	m.db.mutex.RLock()
	defer m.db.mutex.RUnlock()

	comments := []*models.Comment{}
	for _, c := range m.db.sortedComments(postID) {
		if q.ApprovedOnly && !c.Approved {
			continue
		}
		comments = append(comments, m.db.withCommentRelations(c, q.Relations))
	}
	return comments, nil
}

func (m *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.comments[comment.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.db.stamp(nil, &comment.UpdatedAt)
	m.db.comments[comment.ID] = copyComment(comment)
	return nil
}

func (m *CommentRepository) Delete(ctx context.Context, id int64) error {
	m.db.mutex.Lock()
	defer m.db.mutex.Unlock()

	if _, exists := m.db.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.db.comments, id)
	return nil
}

// Helpers below expect the caller to hold the mutex.

func (db *DB) deletePost(id int64) {
	for commentID, c := range db.comments {
		if c.PostID == id {
			delete(db.comments, commentID)
		}
	}
	delete(db.posts, id)
}

func (db *DB) slugOwner(slug string) int64 {
	for _, p := range db.posts {
		if p.Slug == slug {
			return p.ID
		}
	}
	return 0
}

func (db *DB) filterPosts(q repositories.PostQuery) []*models.Post {
	var posts []*models.Post
	for _, p := range db.posts {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.UserID != 0 && p.UserID != q.UserID {
			continue
		}
		posts = append(posts, p)
	}
	return posts
}

func (db *DB) sortedComments(postID int64) []*models.Comment {
	var comments []*models.Comment
	for _, c := range db.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}

func (db *DB) withPostRelations(p *models.Post, relations []string) *models.Post {
	post := copyPost(p)
	if contains(relations, repositories.RelOwner) {
		if u, ok := db.users[post.UserID]; ok {
			post.User = copyUser(u)
		}
	}

	withAuthors := contains(relations, repositories.RelCommentAuthors)
	if withAuthors || contains(relations, repositories.RelComments) {
		post.Comments = []models.Comment{}
		for _, c := range db.sortedComments(post.ID) {
			comment := copyComment(c)
			if withAuthors {
				if u, ok := db.users[comment.UserID]; ok {
					comment.User = copyUser(u)
				}
			}
			post.Comments = append(post.Comments, *comment)
		}
	}
	return post
}

func (db *DB) withCommentRelations(c *models.Comment, relations []string) *models.Comment {
	comment := copyComment(c)
	if contains(relations, repositories.RelOwner) {
		if u, ok := db.users[comment.UserID]; ok {
			comment.User = copyUser(u)
		}
	}
	if contains(relations, repositories.RelPost) {
		if p, ok := db.posts[comment.PostID]; ok {
			comment.Post = copyPost(p)
		}
	}
	return comment
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Posts = nil
	c.Comments = nil
	return &c
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.User = nil
	c.Comments = nil
	return &c
}

func copyComment(cm *models.Comment) *models.Comment {
	c := *cm
	c.User = nil
	c.Post = nil
	return &c
}

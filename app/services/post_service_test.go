package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"quill/app/models"
	"quill/app/repositories"
	"quill/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	ctx      context.Context
	store    *repositories.Store
	posts    *PostService
	comments *CommentService
	users    *UserService
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := mock.NewStore()
	f := &fixture{
		ctx:      context.Background(),
		store:    store,
		posts:    NewPostService(store.Posts),
		comments: NewCommentService(store.Comments, store.Posts),
		users:    NewUserService(store.Users, 4),
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.posts.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "User " + email, Email: email, Password: "x"}
	require.NoError(t, f.store.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) post(t *testing.T, owner *models.User, title, status string) *models.Post {
	t.Helper()
	p, err := f.posts.CreatePost(f.ctx, owner, models.CreatePostInput{
		Title:   title,
		Content: "Yeterince uzun bir içerik metni.",
		Status:  status,
	})
	require.NoError(t, err)
	return p
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")

	t.Run("draft by default", func(t *testing.T) {
		post := f.post(t, alice, "Hello World", "")
		assert.NotZero(t, post.ID)
		assert.Equal(t, "hello-world", post.Slug)
		assert.Equal(t, models.StatusDraft, post.Status)
		assert.Nil(t, post.PublishedAt)
		assert.Equal(t, alice.ID, post.UserID)
	})

	t.Run("duplicate titles get suffixed slugs", func(t *testing.T) {
		second := f.post(t, alice, "Hello World", "")
		third := f.post(t, alice, "Hello World", "")
		assert.Equal(t, "hello-world-1", second.Slug)
		assert.Equal(t, "hello-world-2", third.Slug)
	})

	t.Run("published on create", func(t *testing.T) {
		post := f.post(t, alice, "Live", "published")
		assert.Equal(t, models.StatusPublished, post.Status)
		require.NotNil(t, post.PublishedAt)
		assert.True(t, post.PublishedAt.Equal(f.clock))
	})

	t.Run("requires an actor", func(t *testing.T) {
		_, err := f.posts.CreatePost(f.ctx, nil, models.CreatePostInput{Title: "x", Content: "long enough body"})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.posts.CreatePost(f.ctx, alice, models.CreatePostInput{})
		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "title")
		assert.Contains(t, fields, "content")

		_, err = f.posts.CreatePost(f.ctx, alice, models.CreatePostInput{
			Title:   strings.Repeat("a", 256),
			Content: "short",
			Status:  "archived",
		})
		fields = fieldErrors(t, err)
		assert.Equal(t, []string{models.Message("title", "max")}, fields["title"])
		assert.Equal(t, []string{models.Message("content", "min")}, fields["content"])
		assert.Contains(t, fields, "status")
	})
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")

	for i := 0; i < 17; i++ {
		f.post(t, alice, fmt.Sprintf("Published %d", i), "published")
	}
	f.post(t, alice, "Secret draft", "")

	page, err := f.posts.ListPosts(f.ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Data, PerPage)
	assert.Equal(t, Pagination{CurrentPage: 1, LastPage: 2, PerPage: PerPage, Total: 17}, page.Pagination)
	assert.Equal(t, "Published 16", page.Data[0].Title)
	require.NotNil(t, page.Data[0].User)
	assert.Equal(t, alice.ID, page.Data[0].User.ID)

	page, err = f.posts.ListPosts(f.ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, "Published 0", page.Data[1].Title)

	// Out of range and invalid pages
	page, err = f.posts.ListPosts(f.ctx, 9, 0)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)

	page, err = f.posts.ListPosts(f.ctx, -3, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.CurrentPage)

	huge := math.MaxInt/PerPage + 2
	page, err = f.posts.ListPosts(f.ctx, huge, 0)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, huge, page.Pagination.CurrentPage)
	assert.Equal(t, 2, page.Pagination.LastPage)

	for _, p := range page.Data {
		assert.Equal(t, models.StatusPublished, p.Status)
	}
}

func TestListPostsByAuthor(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	f.post(t, alice, "Alice one", "published")
	f.post(t, alice, "Alice draft", "")
	f.post(t, bob, "Bob one", "published")

	page, err := f.posts.ListPosts(f.ctx, 1, bob.ID)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Bob one", page.Data[0].Title)
	assert.Equal(t, int64(1), page.Pagination.Total)

	page, err = f.posts.ListPosts(f.ctx, 1, alice.ID)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Alice one", page.Data[0].Title)

	page, err = f.posts.ListPosts(f.ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestListPostsEmpty(t *testing.T) {
	f := newFixture(t)
	page, err := f.posts.ListPosts(f.ctx, 1, 0)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Equal(t, 1, page.Pagination.LastPage)
	assert.Equal(t, int64(0), page.Pagination.Total)
}

func TestGetPost(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	draft := f.post(t, alice, "Draft", "")
	live := f.post(t, alice, "Live", "published")

	_, err := f.comments.CreateComment(f.ctx, bob, live.ID, models.CreateCommentInput{Content: "Nice"})
	require.NoError(t, err)

	got, err := f.posts.GetPost(f.ctx, nil, live.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	require.Len(t, got.Comments, 1)
	require.NotNil(t, got.Comments[0].User)
	assert.Equal(t, bob.ID, got.Comments[0].User.ID)

	_, err = f.posts.GetPost(f.ctx, nil, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.posts.GetPost(f.ctx, bob, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.posts.GetPost(f.ctx, alice, draft.ID)
	assert.NoError(t, err)

	_, err = f.posts.GetPost(f.ctx, alice, 999)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, `No query results for model [App\Models\Post] 999`, nf.Error())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUpdatePost(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	post := f.post(t, alice, "Original Title", "")

	t.Run("partial update keeps slug", func(t *testing.T) {
		updated, err := f.posts.UpdatePost(f.ctx, alice, post.ID, models.UpdatePostInput{Title: strPtr("  New Title  ")})
		require.NoError(t, err)
		assert.Equal(t, "New Title", updated.Title)
		assert.Equal(t, "original-title", updated.Slug)
		assert.Equal(t, post.Content, updated.Content)
	})

	t.Run("status transitions", func(t *testing.T) {
		updated, err := f.posts.UpdatePost(f.ctx, alice, post.ID, models.UpdatePostInput{Status: strPtr("published")})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPublished, updated.Status)
		assert.NotNil(t, updated.PublishedAt)

		updated, err = f.posts.UpdatePost(f.ctx, alice, post.ID, models.UpdatePostInput{Status: strPtr("draft")})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, updated.Status)
		assert.Nil(t, updated.PublishedAt)
	})

	t.Run("error order", func(t *testing.T) {
		_, err := f.posts.UpdatePost(f.ctx, nil, 999, models.UpdatePostInput{})
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = f.posts.UpdatePost(f.ctx, nil, post.ID, models.UpdatePostInput{Title: strPtr("")})
		assert.ErrorIs(t, err, ErrUnauthenticated)

		_, err = f.posts.UpdatePost(f.ctx, bob, post.ID, models.UpdatePostInput{Title: strPtr("")})
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.posts.UpdatePost(f.ctx, alice, post.ID, models.UpdatePostInput{Title: strPtr("")})
		assert.Contains(t, fieldErrors(t, err), "title")
	})
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	post := f.post(t, alice, "Doomed", "published")
	comment, err := f.comments.CreateComment(f.ctx, bob, post.ID, models.CreateCommentInput{Content: "First"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.posts.DeletePost(f.ctx, nil, post.ID), ErrUnauthenticated)
	assert.ErrorIs(t, f.posts.DeletePost(f.ctx, bob, post.ID), ErrForbidden)
	require.NoError(t, f.posts.DeletePost(f.ctx, alice, post.ID))

	_, err = f.store.Posts.GetByID(f.ctx, post.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.store.Comments.GetByID(f.ctx, comment.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.ErrorIs(t, f.posts.DeletePost(f.ctx, alice, post.ID), repositories.ErrNotFound)
}

func TestPublishPost(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	post := f.post(t, alice, "Soon", "")

	_, err := f.posts.PublishPost(f.ctx, bob, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	published, err := f.posts.PublishPost(f.ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, published.PublishedAt.Equal(f.clock))
	require.NotNil(t, published.User)
	assert.Equal(t, alice.ID, published.User.ID)

	// Publishing again moves published_at forward
	f.clock = f.clock.Add(time.Hour)
	again, err := f.posts.PublishPost(f.ctx, alice, post.ID)
	require.NoError(t, err)
	assert.True(t, again.PublishedAt.Equal(f.clock))
}

func TestRegenerateSlug(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	first := f.post(t, alice, "Taken", "")
	second := f.post(t, alice, "Other", "")

	_, err := f.posts.UpdatePost(f.ctx, alice, second.ID, models.UpdatePostInput{Title: strPtr("Renamed Post")})
	require.NoError(t, err)

	slug, err := f.posts.RegenerateSlug(f.ctx, alice, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed-post", slug)

	// Regenerating an unchanged slug is a no-op
	slug, err = f.posts.RegenerateSlug(f.ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "taken", slug)

	_, err = f.posts.UpdatePost(f.ctx, alice, second.ID, models.UpdatePostInput{Title: strPtr("Taken")})
	require.NoError(t, err)
	_, err = f.posts.RegenerateSlug(f.ctx, alice, second.ID)
	assert.Equal(t, []string{models.Message("slug", "unique")}, fieldErrors(t, err)["slug"])
}

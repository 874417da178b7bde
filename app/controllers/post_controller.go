package controllers

import (
	"net/http"
	"strconv"

	"quill/app/auth"
	"quill/app/models"
	"quill/app/services"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService) *PostController {
	return &PostController{postService: postService}
}

// Index lists published posts, newest first, optionally by one author
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	// Parse page parameter
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	// Optional author filter
	var userID int64
	if idStr := r.URL.Query().Get("user_id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > 0 {
			userID = id
		}
	}

	posts, err := pc.postService.ListPosts(r.Context(), page, userID)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, posts)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	post, err := pc.postService.GetPost(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, post)
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	if actor == nil {
		sendError(w, r, services.ErrUnauthenticated)
		return
	}

	var in models.CreatePostInput
	if err := decodeJSON(r, &in); err != nil {
		sendError(w, r, err)
		return
	}

	post, err := pc.postService.CreatePost(r.Context(), actor, in)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusCreated, post)
}

// Update handles partial updates of an existing post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	var in models.UpdatePostInput
	if err := decodeJSON(r, &in); err != nil {
		sendError(w, r, err)
		return
	}

	post, err := pc.postService.UpdatePost(r.Context(), auth.UserFromContext(r.Context()), id, in)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, post)
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	if err := pc.postService.DeletePost(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Publish marks a post as published
func (pc *PostController) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	post, err := pc.postService.PublishPost(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post published successfully",
		"post":    post,
	})
}

// RegenerateSlug rebuilds the slug from the current title
func (pc *PostController) RegenerateSlug(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	slug, err := pc.postService.RegenerateSlug(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, map[string]string{"slug": slug})
}

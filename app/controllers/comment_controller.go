package controllers

import (
	"net/http"

	"quill/app/auth"
	"quill/app/models"
	"quill/app/services"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService) *CommentController {
	return &CommentController{commentService: commentService}
}

// Index lists the comments on a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	comments, err := cc.commentService.ListComments(r.Context(), auth.UserFromContext(r.Context()), postID)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, comments)
}

// Create handles commenting on a post
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	var in models.CreateCommentInput
	if err := decodeJSON(r, &in); err != nil {
		sendError(w, r, err)
		return
	}

	comment, err := cc.commentService.CreateComment(r.Context(), auth.UserFromContext(r.Context()), postID, in)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusCreated, comment)
}

// Approve marks a comment approved
func (cc *CommentController) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	comment, err := cc.commentService.ApproveComment(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, comment)
}

// Delete handles deleting a comment
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		SendMessage(w, http.StatusNotFound, MsgNotFound)
		return
	}

	if err := cc.commentService.DeleteComment(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Package policies decides who may do what to posts and comments. Every
// check is a pure function of the actor and the records involved; a nil
// actor stands for an anonymous request.
package policies

import "quill/app/models"

// CanViewPost allows anyone to see a published post and only the owner to
// see a draft.
func CanViewPost(actor *models.User, post *models.Post) bool {
	if post.IsPublished() {
		return true
	}
	return actor.Owns(post)
}

// CanUpdatePost allows only the owner.
func CanUpdatePost(actor *models.User, post *models.Post) bool {
	return actor.Owns(post)
}

// CanDeletePost allows only the owner.
func CanDeletePost(actor *models.User, post *models.Post) bool {
	return actor.Owns(post)
}

// CanPublishPost allows only the owner.
func CanPublishPost(actor *models.User, post *models.Post) bool {
	return CanUpdatePost(actor, post)
}

// CanComment allows any signed in user who can see the post.
func CanComment(actor *models.User, post *models.Post) bool {
	return actor != nil && CanViewPost(actor, post)
}

// CanSeePendingComments allows the post owner to see unapproved comments.
func CanSeePendingComments(actor *models.User, post *models.Post) bool {
	return actor.Owns(post)
}

// CanApproveComment allows the owner of the commented post.
func CanApproveComment(actor *models.User, post *models.Post) bool {
	return actor.Owns(post)
}

// CanDeleteComment allows the comment's author and the post owner.
func CanDeleteComment(actor *models.User, comment *models.Comment, post *models.Post) bool {
	return comment.IsAuthoredBy(actor) || actor.Owns(post)
}

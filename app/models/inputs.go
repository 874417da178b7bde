package models

import "strings"

// CreatePostInput is the payload accepted when creating a post.
type CreatePostInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required,min=10"`
	Status  string `json:"status" validate:"omitempty,oneof=draft published"`
}

// Normalize trims surrounding whitespace.
func (in *CreatePostInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Status = strings.TrimSpace(in.Status)
}

// UpdatePostInput is a partial post update. Nil fields are left alone.
type UpdatePostInput struct {
	Title   *string `json:"title" validate:"omitnil,required,max=255"`
	Content *string `json:"content" validate:"omitnil,required,min=10"`
	Status  *string `json:"status" validate:"omitnil,oneof=draft published"`
}

// Normalize trims surrounding whitespace on supplied fields.
func (in *UpdatePostInput) Normalize() {
	for _, s := range []*string{in.Title, in.Content, in.Status} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// CreateCommentInput is the payload accepted when commenting on a post.
type CreateCommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Normalize trims surrounding whitespace.
func (in *CreateCommentInput) Normalize() {
	in.Content = strings.TrimSpace(in.Content)
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Normalize trims the name and lowercases the email.
func (in *RegisterInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// LoginInput is the payload for exchanging credentials for a token.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Normalize lowercases the email.
func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

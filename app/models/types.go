package models

import "time"

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// User is an author and commenter.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	TokenHash *string   `json:"-" gorm:"size:64;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Posts     []Post    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Comments  []Comment `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Post represents a blog post owned by a user.
type Post struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	UserID      int64      `json:"user_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Slug        string     `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	Status      Status     `json:"status" gorm:"size:16;not null;index"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        *User      `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Comments    []Comment  `json:"comments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Comment represents a comment on a blog post.
type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	PostID    int64     `json:"post_id" gorm:"not null;index"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Approved  bool      `json:"approved" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      *User     `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Post      *Post     `json:"post,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

package models

// Owns reports whether the post belongs to the user.
func (u *User) Owns(p *Post) bool {
	return u != nil && p != nil && p.UserID == u.ID
}

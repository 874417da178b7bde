package models

// Approve marks the comment as approved. There is no way back to pending.
func (c *Comment) Approve() {
	c.Approved = true
}

// IsAuthoredBy reports whether the user wrote the comment.
func (c *Comment) IsAuthoredBy(u *User) bool {
	return u != nil && c.UserID == u.ID
}

package models

import (
	"time"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	StatusPending  CommentStatus = "pending"
	StatusApproved CommentStatus = "approved"
	StatusRejected CommentStatus = "rejected"
)

// ParseCommentStatus validates a status string coming from the outside
// (query params, request bodies). Returns false for anything outside the
// three known states.
func ParseCommentStatus(s string) (CommentStatus, bool) {
	switch CommentStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return CommentStatus(s), true
	}
	return "", false
}

// IsModerationTarget reports whether a status is one an admin may set.
// Comments are born pending; moderation only ever moves them to approved
// or rejected, in either direction, any number of times.
func (s CommentStatus) IsModerationTarget() bool {
	return s == StatusApproved || s == StatusRejected
}

type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Cid      string `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	Post     Post   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostSlug string `gorm:"size:120;not null;index" json:"post_slug"`

	// UserID is nil for guest comments; guests carry a name/email pair
	// instead. The two author forms are mutually exclusive.
	UserID     *uint  `gorm:"index" json:"user_id,omitempty"`
	User       *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	GuestName  string `gorm:"size:80" json:"guest_name,omitempty"`
	GuestEmail string `gorm:"size:120" json:"-"`

	ParentID *uint    `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent   *Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Content   string        `gorm:"type:text;not null" json:"content"`
	Status    CommentStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// AuthorName returns the display name regardless of author form.
func (c *Comment) AuthorName() string {
	if c.User != nil {
		return c.User.Username
	}
	return c.GuestName
}

// NotifyEmail returns the address moderation notifications go to,
// empty when none is known.
func (c *Comment) NotifyEmail() string {
	if c.User != nil {
		return c.User.Email
	}
	return c.GuestEmail
}

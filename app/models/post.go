package models

import (
	"strings"
	"time"
	"unicode"
)

// ExcerptLength is the maximum number of characters returned by Excerpt.
const ExcerptLength = 150

const excerptMarker = "..."

// IsPublished reports whether the post is visible to everyone.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// Publish marks the post as published at the given time. Publishing an
// already published post moves published_at forward.
func (p *Post) Publish(now time.Time) {
	p.Status = StatusPublished
	p.PublishedAt = &now
}

// SetStatus changes the status while keeping published_at in step with it.
func (p *Post) SetStatus(status Status, now time.Time) {
	switch status {
	case StatusPublished:
		if p.PublishedAt == nil {
			p.PublishedAt = &now
		}
	case StatusDraft:
		p.PublishedAt = nil
	}
	p.Status = status
}

// Excerpt returns a short preview of the content, cut on a word boundary
// where one is available.
func (p *Post) Excerpt() string {
	runes := []rune(p.Content)
	if len(runes) <= ExcerptLength {
		return p.Content
	}

	cut := runes[:ExcerptLength-len(excerptMarker)]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}

	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + excerptMarker
}

package domain

import (
	"context"
	"strings"
	"time"
)

// MaxCommentLength bounds comment content.
const MaxCommentLength = 2000

// Tip is a community gardening tip
type Tip struct {
	ID             int64
	Title          string
	Content        string
	UserID         int64
	AuthorUsername string // filled on reads
	CreatedAt      time.Time
}

func (t *Tip) OwnerID() int64 { return t.UserID }

// ForumPost is a forum thread opener
type ForumPost struct {
	ID             int64
	Title          string
	Content        string
	AuthorID       int64
	AuthorUsername string // filled on reads
	CreatedAt      time.Time
}

func (p *ForumPost) OwnerID() int64 { return p.AuthorID }

// Comment is a reply on a forum post. It deliberately has no OwnerID:
// which user controls a comment depends on the configured owner policy.
type Comment struct {
	ID             int64
	PostID         int64
	AuthorID       int64
	AuthorUsername string // filled on reads
	Content        string
	CreatedAt      time.Time
}

// TextPatch is a partial update of a titled text resource
type TextPatch struct {
	Title   *string
	Content *string
}

// Apply validates and copies the patch onto a tip.
func (t *Tip) Apply(patch TextPatch) error {
	title, content, err := patchText(t.Title, t.Content, MaxTipTitleLength, patch)
	if err != nil {
		return err
	}
	t.Title, t.Content = title, content
	return nil
}

// Apply validates and copies the patch onto a forum post.
func (p *ForumPost) Apply(patch TextPatch) error {
	title, content, err := patchText(p.Title, p.Content, MaxPostTitleLength, patch)
	if err != nil {
		return err
	}
	p.Title, p.Content = title, content
	return nil
}

func patchText(title, content string, maxTitle int, patch TextPatch) (string, string, error) {
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return "", "", Validationf("title is required")
		}
		if err := CheckLength("title", title, maxTitle); err != nil {
			return "", "", err
		}
	}
	if patch.Content != nil {
		content = *patch.Content
		if strings.TrimSpace(content) == "" {
			return "", "", Validationf("content is required")
		}
	}
	return title, content, nil
}

// ValidateCommentContent enforces non-empty, bounded comment text.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return Validationf("content is required")
	}
	if len(content) > MaxCommentLength {
		return Validationf("content exceeds %d characters", MaxCommentLength)
	}
	return nil
}

// TipRepository defines data access for tips
type TipRepository interface {
	Create(ctx context.Context, tip *Tip) error
	GetByID(ctx context.Context, id int64) (*Tip, error)
	List(ctx context.Context) ([]*Tip, error)
	Update(ctx context.Context, tip *Tip) error
	Delete(ctx context.Context, id int64) error
}

// ForumPostRepository defines data access for forum posts
type ForumPostRepository interface {
	Create(ctx context.Context, post *ForumPost) error
	GetByID(ctx context.Context, id int64) (*ForumPost, error)
	List(ctx context.Context) ([]*ForumPost, error)
	Update(ctx context.Context, post *ForumPost) error
	Delete(ctx context.Context, id int64) error
}

// CommentRepository defines data access for comments
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id int64) (*Comment, error)
	ListByPost(ctx context.Context, postID int64) ([]*Comment, error)
	Update(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, id int64) error
}

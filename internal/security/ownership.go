package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/greenthumb/internal/domain"
)

// CommentOwnerPolicy decides which user controls a comment
type CommentOwnerPolicy string

const (
	// CommentOwnerPostAuthor gives the author of the parent post control of
	// every comment under it.
	CommentOwnerPostAuthor CommentOwnerPolicy = "post_author"
	// CommentOwnerCommentAuthor gives control to whoever wrote the comment.
	CommentOwnerCommentAuthor CommentOwnerPolicy = "comment_author"
)

// ParseCommentOwnerPolicy accepts the configured policy name.
func ParseCommentOwnerPolicy(s string) (CommentOwnerPolicy, error) {
	switch p := CommentOwnerPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CommentOwnerPostAuthor, CommentOwnerCommentAuthor:
		return p, nil
	case "":
		return CommentOwnerPostAuthor, nil
	default:
		return "", fmt.Errorf("invalid comment owner policy %q: want %s or %s", s, CommentOwnerPostAuthor, CommentOwnerCommentAuthor)
	}
}

// OwnerResolver finds the user that controls a resource, following parent
// links for resources that carry no owner of their own.
type OwnerResolver struct {
	plants        domain.PlantRepository
	posts         domain.ForumPostRepository
	commentPolicy CommentOwnerPolicy
}

func NewOwnerResolver(plants domain.PlantRepository, posts domain.ForumPostRepository, policy CommentOwnerPolicy) *OwnerResolver {
	if policy == "" {
		policy = CommentOwnerPostAuthor
	}
	return &OwnerResolver{plants: plants, posts: posts, commentPolicy: policy}
}

// CommentPolicy reports the active comment owner policy.
func (r *OwnerResolver) CommentPolicy() CommentOwnerPolicy {
	return r.commentPolicy
}

// ResolveOwner returns the owning user id of resource.
func (r *OwnerResolver) ResolveOwner(ctx context.Context, resource any) (int64, error) {
	switch res := resource.(type) {
	case *domain.CareSchedule:
		plant, err := r.plants.GetByID(ctx, res.PlantID)
		if err != nil {
			return 0, fmt.Errorf("resolve owner of care schedule %d: %w", res.ID, err)
		}
		return plant.UserID, nil
	case *domain.Comment:
		if r.commentPolicy == CommentOwnerCommentAuthor {
			return res.AuthorID, nil
		}
		post, err := r.posts.GetByID(ctx, res.PostID)
		if err != nil {
			return 0, fmt.Errorf("resolve owner of comment %d: %w", res.ID, err)
		}
		return post.AuthorID, nil
	case domain.Owned:
		return res.OwnerID(), nil
	default:
		return 0, fmt.Errorf("%w: no owner rule for %T", domain.ErrInternal, resource)
	}
}

// Describe names a resource for logs, audit lines and metrics.
func Describe(resource any) (kind string, id int64) {
	switch res := resource.(type) {
	case *domain.Plant:
		return "plant", res.ID
	case *domain.CareSchedule:
		return "care_schedule", res.ID
	case *domain.Tip:
		return "tip", res.ID
	case *domain.ForumPost:
		return "forum_post", res.ID
	case *domain.Comment:
		return "comment", res.ID
	case *domain.GardenLayout:
		return "garden_layout", res.ID
	default:
		return fmt.Sprintf("%T", resource), 0
	}
}

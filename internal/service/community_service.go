package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/security"
)

// TipService manages community tips. Anyone signed in may read them.
type TipService struct {
	tips   domain.TipRepository
	guard  *security.Guard
	logger *slog.Logger
}

func NewTipService(tips domain.TipRepository, guard *security.Guard, logger *slog.Logger) *TipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TipService{tips: tips, guard: guard, logger: logger}
}

func (s *TipService) Create(ctx context.Context, userID int64, title, content string) (*domain.Tip, error) {
	tip := &domain.Tip{UserID: userID}
	if err := tip.Apply(domain.TextPatch{Title: &title, Content: &content}); err != nil {
		return nil, err
	}
	if err := s.tips.Create(ctx, tip); err != nil {
		return nil, err
	}
	s.guard.Record(ctx, userID, security.ActionCreate, tip)
	// re-read for the author username
	return s.tips.GetByID(ctx, tip.ID)
}

func (s *TipService) List(ctx context.Context) ([]*domain.Tip, error) {
	return s.tips.List(ctx)
}

func (s *TipService) Get(ctx context.Context, id int64) (*domain.Tip, error) {
	return s.tips.GetByID(ctx, id)
}

func (s *TipService) Update(ctx context.Context, userID, id int64, patch domain.TextPatch) (*domain.Tip, error) {
	tip, err := s.tips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.guard.Mutate(ctx, userID, security.ActionUpdate, tip, func(ctx context.Context) error {
		if err := tip.Apply(patch); err != nil {
			return err
		}
		return s.tips.Update(ctx, tip)
	})
	if err != nil {
		return nil, err
	}
	return tip, nil
}

func (s *TipService) Delete(ctx context.Context, userID, id int64) error {
	tip, err := s.tips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.guard.Mutate(ctx, userID, security.ActionDelete, tip, func(ctx context.Context) error {
		return s.tips.Delete(ctx, tip.ID)
	})
}

// ForumService manages forum posts and their comments. Which user may edit
// a comment follows the guard's comment owner policy.
type ForumService struct {
	posts    domain.ForumPostRepository
	comments domain.CommentRepository
	guard    *security.Guard
	logger   *slog.Logger
}

func NewForumService(posts domain.ForumPostRepository, comments domain.CommentRepository, guard *security.Guard, logger *slog.Logger) *ForumService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForumService{posts: posts, comments: comments, guard: guard, logger: logger}
}

func (s *ForumService) CreatePost(ctx context.Context, userID int64, title, content string) (*domain.ForumPost, error) {
	post := &domain.ForumPost{AuthorID: userID}
	if err := post.Apply(domain.TextPatch{Title: &title, Content: &content}); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.guard.Record(ctx, userID, security.ActionCreate, post)
	return s.posts.GetByID(ctx, post.ID)
}

func (s *ForumService) ListPosts(ctx context.Context) ([]*domain.ForumPost, error) {
	return s.posts.List(ctx)
}

func (s *ForumService) GetPost(ctx context.Context, id int64) (*domain.ForumPost, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *ForumService) UpdatePost(ctx context.Context, userID, id int64, patch domain.TextPatch) (*domain.ForumPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.guard.Mutate(ctx, userID, security.ActionUpdate, post, func(ctx context.Context) error {
		if err := post.Apply(patch); err != nil {
			return err
		}
		return s.posts.Update(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post and every comment on it.
func (s *ForumService) DeletePost(ctx context.Context, userID, id int64) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.guard.Mutate(ctx, userID, security.ActionDelete, post, func(ctx context.Context) error {
		return s.posts.Delete(ctx, post.ID)
	})
}

// AddComment replies to an existing post.
func (s *ForumService) AddComment(ctx context.Context, userID, postID int64, content string) (*domain.Comment, error) {
	if err := domain.ValidateCommentContent(content); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comment := &domain.Comment{PostID: postID, AuthorID: userID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.guard.Record(ctx, userID, security.ActionCreate, comment)
	return s.comments.GetByID(ctx, comment.ID)
}

func (s *ForumService) ListComments(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *ForumService) UpdateComment(ctx context.Context, userID, id int64, content string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.guard.Mutate(ctx, userID, security.ActionUpdate, comment, func(ctx context.Context) error {
		if err := domain.ValidateCommentContent(content); err != nil {
			return err
		}
		comment.Content = content
		return s.comments.Update(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ForumService) DeleteComment(ctx context.Context, userID, id int64) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.guard.Mutate(ctx, userID, security.ActionDelete, comment, func(ctx context.Context) error {
		return s.comments.Delete(ctx, comment.ID)
	})
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
)

// PostgresTipRepository implements domain.TipRepository
type PostgresTipRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresTipRepository(db *sql.DB, logger *slog.Logger) *PostgresTipRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTipRepository{db: db, logger: logger}
}

const tipSelect = `
	SELECT t.id, t.title, t.content, t.user_id, u.username, t.created_at
	FROM tips t JOIN users u ON u.id = t.user_id
`

func scanTip(row rowScanner) (*domain.Tip, error) {
	t := &domain.Tip{}
	err := row.Scan(&t.ID, &t.Title, &t.Content, &t.UserID, &t.AuthorUsername, &t.CreatedAt)
	return t, err
}

func (r *PostgresTipRepository) Create(ctx context.Context, tip *domain.Tip) error {
	query := `INSERT INTO tips (title, content, user_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, tip.Title, tip.Content, tip.UserID).Scan(&tip.ID, &tip.CreatedAt); err != nil {
		r.logger.Error("failed to create tip", slog.Int64("user_id", tip.UserID), slog.String("error", err.Error()))
		return translate(err, "tip")
	}
	return nil
}

func (r *PostgresTipRepository) GetByID(ctx context.Context, id int64) (*domain.Tip, error) {
	t, err := scanTip(r.db.QueryRowContext(ctx, tipSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("tip %d", id))
	}
	return t, nil
}

// List returns every tip, newest first.
func (r *PostgresTipRepository) List(ctx context.Context) ([]*domain.Tip, error) {
	rows, err := r.db.QueryContext(ctx, tipSelect+` ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	defer rows.Close()

	tips := []*domain.Tip{}
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tip: %w", err)
		}
		tips = append(tips, t)
	}
	return tips, rows.Err()
}

func (r *PostgresTipRepository) Update(ctx context.Context, tip *domain.Tip) error {
	what := fmt.Sprintf("tip %d", tip.ID)
	res, err := r.db.ExecContext(ctx, `UPDATE tips SET title = $1, content = $2 WHERE id = $3`, tip.Title, tip.Content, tip.ID)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

func (r *PostgresTipRepository) Delete(ctx context.Context, id int64) error {
	what := fmt.Sprintf("tip %d", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM tips WHERE id = $1`, id)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

// PostgresForumPostRepository implements domain.ForumPostRepository
type PostgresForumPostRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresForumPostRepository(db *sql.DB, logger *slog.Logger) *PostgresForumPostRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresForumPostRepository{db: db, logger: logger}
}

const postSelect = `
	SELECT f.id, f.title, f.content, f.author_id, u.username, f.created_at
	FROM forum_posts f JOIN users u ON u.id = f.author_id
`

func scanPost(row rowScanner) (*domain.ForumPost, error) {
	p := &domain.ForumPost{}
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorUsername, &p.CreatedAt)
	return p, err
}

func (r *PostgresForumPostRepository) Create(ctx context.Context, post *domain.ForumPost) error {
	query := `INSERT INTO forum_posts (title, content, author_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, post.Title, post.Content, post.AuthorID).Scan(&post.ID, &post.CreatedAt); err != nil {
		r.logger.Error("failed to create forum post", slog.Int64("author_id", post.AuthorID), slog.String("error", err.Error()))
		return translate(err, "forum post")
	}
	return nil
}

func (r *PostgresForumPostRepository) GetByID(ctx context.Context, id int64) (*domain.ForumPost, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE f.id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("forum post %d", id))
	}
	return p, nil
}

// List returns every post, newest first.
func (r *PostgresForumPostRepository) List(ctx context.Context) ([]*domain.ForumPost, error) {
	rows, err := r.db.QueryContext(ctx, postSelect+` ORDER BY f.created_at DESC, f.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list forum posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.ForumPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forum post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostgresForumPostRepository) Update(ctx context.Context, post *domain.ForumPost) error {
	what := fmt.Sprintf("forum post %d", post.ID)
	res, err := r.db.ExecContext(ctx, `UPDATE forum_posts SET title = $1, content = $2 WHERE id = $3`, post.Title, post.Content, post.ID)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

// Delete removes the post and, by cascade, its comments.
func (r *PostgresForumPostRepository) Delete(ctx context.Context, id int64) error {
	what := fmt.Sprintf("forum post %d", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM forum_posts WHERE id = $1`, id)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

// PostgresCommentRepository implements domain.CommentRepository
type PostgresCommentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresCommentRepository(db *sql.DB, logger *slog.Logger) *PostgresCommentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentRepository{db: db, logger: logger}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at
	FROM comments c JOIN users u ON u.id = c.author_id
`

func scanComment(row rowScanner) (*domain.Comment, error) {
	c := &domain.Comment{}
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Content, &c.CreatedAt)
	return c, err
}

func (r *PostgresCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `INSERT INTO comments (post_id, author_id, content) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, comment.PostID, comment.AuthorID, comment.Content).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create comment", slog.Int64("post_id", comment.PostID), slog.String("error", err.Error()))
		return translate(err, fmt.Sprintf("forum post %d", comment.PostID))
	}
	return nil
}

func (r *PostgresCommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("comment %d", id))
	}
	return c, nil
}

// ListByPost returns a post's comments oldest first.
func (r *PostgresCommentRepository) ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *PostgresCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	what := fmt.Sprintf("comment %d", comment.ID)
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET content = $1 WHERE id = $2`, comment.Content, comment.ID)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

func (r *PostgresCommentRepository) Delete(ctx context.Context, id int64) error {
	what := fmt.Sprintf("comment %d", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

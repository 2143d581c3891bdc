package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/service"
)

// TextRequest is the payload of tips and forum posts
type TextRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (req TextRequest) patch() domain.TextPatch {
	return domain.TextPatch{Title: req.Title, Content: req.Content}
}

// TipResponse is the API view of a tip
type TipResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toTipResponse(t *domain.Tip) TipResponse {
	return TipResponse{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Author:    t.AuthorUsername,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
	}
}

// PostResponse is the API view of a forum post. Comments are only set on
// the single-post view.
type PostResponse struct {
	ID        int64             `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	AuthorID  int64             `json:"author_id"`
	Author    string            `json:"author"`
	CreatedAt time.Time         `json:"created_at"`
	Comments  []CommentResponse `json:"comments,omitempty"`
}

func toPostResponse(p *domain.ForumPost) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Author:    p.AuthorUsername,
		CreatedAt: p.CreatedAt,
	}
}

// CommentRequest is the payload of a comment
type CommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the API view of a comment
type CommentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		Author:    c.AuthorUsername,
		CreatedAt: c.CreatedAt,
	}
}

func toCommentResponses(comments []*domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

// TipHandler serves community tips
type TipHandler struct {
	tips   *service.TipService
	logger *slog.Logger
}

func NewTipHandler(tips *service.TipService, logger *slog.Logger) *TipHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TipHandler{tips: tips, logger: logger}
}

// Create handles POST /api/tips
func (h *TipHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	tip, err := h.tips.Create(r.Context(), userID, deref(req.Title), deref(req.Content))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTipResponse(tip))
}

// List handles GET /api/tips
func (h *TipHandler) List(w http.ResponseWriter, r *http.Request) {
	tips, err := h.tips.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	out := make([]TipResponse, 0, len(tips))
	for _, t := range tips {
		out = append(out, toTipResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/tips/{id}
func (h *TipHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	tip, err := h.tips.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTipResponse(tip))
}

// Update handles PATCH /api/tips/{id}
func (h *TipHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	var req TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	tip, err := h.tips.Update(r.Context(), userID, id, req.patch())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTipResponse(tip))
}

// Delete handles DELETE /api/tips/{id}
func (h *TipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.tips.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "tip deleted"})
}

// ForumHandler serves forum posts and their comments
type ForumHandler struct {
	forum  *service.ForumService
	logger *slog.Logger
}

func NewForumHandler(forum *service.ForumService, logger *slog.Logger) *ForumHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForumHandler{forum: forum, logger: logger}
}

// CreatePost handles POST /api/forum
func (h *ForumHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	post, err := h.forum.CreatePost(r.Context(), userID, deref(req.Title), deref(req.Content))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(post))
}

// ListPosts handles GET /api/forum. It is public.
func (h *ForumHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.forum.ListPosts(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPost handles GET /api/forum/{id}. It is public and embeds the comments.
func (h *ForumHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	post, err := h.forum.GetPost(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	comments, err := h.forum.ListComments(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	resp := toPostResponse(post)
	resp.Comments = toCommentResponses(comments)
	writeJSON(w, http.StatusOK, resp)
}

// UpdatePost handles PATCH /api/forum/{id}
func (h *ForumHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	var req TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	post, err := h.forum.UpdatePost(r.Context(), userID, id, req.patch())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(post))
}

// DeletePost handles DELETE /api/forum/{id}
func (h *ForumHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.forum.DeletePost(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "post deleted"})
}

// AddComment handles POST /api/forum/{id}/comments
func (h *ForumHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, postID, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	comment, err := h.forum.AddComment(r.Context(), userID, postID, req.Content)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// ListComments handles GET /api/forum/{id}/comments
func (h *ForumHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	comments, err := h.forum.ListComments(r.Context(), postID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(comments))
}

// UpdateComment handles PATCH /api/comments/{id}
func (h *ForumHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	comment, err := h.forum.UpdateComment(r.Context(), userID, id, req.Content)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}

// DeleteComment handles DELETE /api/comments/{id}
func (h *ForumHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.forum.DeleteComment(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "comment deleted"})
}

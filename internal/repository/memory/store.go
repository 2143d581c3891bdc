// Package memory holds process-local implementations of every repository.
// It backs STORAGE_BACKEND=memory, the service tests and the CLI dry runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
)

// Store is a single locked dataset shared by all repository views, so
// cascades and joins behave like the relational schema.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID    int64
	users     map[int64]domain.User
	plants    map[int64]domain.Plant
	schedules map[int64]domain.CareSchedule
	tips      map[int64]domain.Tip
	posts     map[int64]domain.ForumPost
	comments  map[int64]domain.Comment
	layouts   map[int64]domain.GardenLayout

	revoked map[string]time.Time
	claims  map[string]time.Time
}

func NewStore() *Store {
	return &Store{
		now:       time.Now,
		users:     map[int64]domain.User{},
		plants:    map[int64]domain.Plant{},
		schedules: map[int64]domain.CareSchedule{},
		tips:      map[int64]domain.Tip{},
		posts:     map[int64]domain.ForumPost{},
		comments:  map[int64]domain.Comment{},
		layouts:   map[int64]domain.GardenLayout{},
		revoked:   map[string]time.Time{},
		claims:    map[string]time.Time{},
	}
}

// SetClock overrides the time source for expiry and timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() *UserRepository { return &UserRepository{s} }
func (s *Store) Plants() *PlantRepository { return &PlantRepository{s} }
func (s *Store) Schedules() *CareScheduleRepository { return &CareScheduleRepository{s} }
func (s *Store) Tips() *TipRepository { return &TipRepository{s} }
func (s *Store) Posts() *ForumPostRepository { return &ForumPostRepository{s} }
func (s *Store) Comments() *CommentRepository { return &CommentRepository{s} }
func (s *Store) Layouts() *GardenLayoutRepository { return &GardenLayoutRepository{s} }
func (s *Store) Denylist() *TokenDenylist { return &TokenDenylist{s} }
func (s *Store) Ledger() *NotificationLedger { return &NotificationLedger{s} }

var (
	_ domain.UserRepository         = (*UserRepository)(nil)
	_ domain.PlantRepository        = (*PlantRepository)(nil)
	_ domain.CareScheduleRepository = (*CareScheduleRepository)(nil)
	_ domain.TipRepository          = (*TipRepository)(nil)
	_ domain.ForumPostRepository    = (*ForumPostRepository)(nil)
	_ domain.CommentRepository      = (*CommentRepository)(nil)
	_ domain.GardenLayoutRepository = (*GardenLayoutRepository)(nil)
	_ domain.TokenDenylist          = (*TokenDenylist)(nil)
	_ domain.NotificationLedger     = (*NotificationLedger)(nil)
)

func sortedIDs[T any](m map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UserRepository implements domain.UserRepository
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username already taken", domain.ErrConflict)
		}
		if u.Email == user.Email {
			return fmt.Errorf("%w: email already taken", domain.ErrConflict)
		}
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.NotFoundf("user %d", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, domain.NotFoundf("user")
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.NotFoundf("user %d", user.ID)
	}
	for id, u := range s.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return fmt.Errorf("%w: username or email already taken", domain.ErrConflict)
		}
	}
	s.users[user.ID] = *user
	return nil
}

// PlantRepository implements domain.PlantRepository
type PlantRepository struct{ s *Store }

func (r *PlantRepository) Create(_ context.Context, plant *domain.Plant) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[plant.UserID]; !ok {
		return domain.NotFoundf("user %d", plant.UserID)
	}
	plant.ID = s.id()
	plant.CreatedAt = s.now()
	s.plants[plant.ID] = *plant
	return nil
}

func (r *PlantRepository) GetByID(_ context.Context, id int64) (*domain.Plant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.plants[id]
	if !ok {
		return nil, domain.NotFoundf("plant %d", id)
	}
	return &p, nil
}

func (r *PlantRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.Plant, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.NotFoundf("plant %d", id)
	}
	return p, nil
}

func (r *PlantRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Plant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Plant{}
	for _, id := range sortedIDs(r.s.plants, func(p domain.Plant) bool { return p.UserID == userID }) {
		p := r.s.plants[id]
		out = append(out, &p)
	}
	return out, nil
}

func (r *PlantRepository) Update(_ context.Context, plant *domain.Plant) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plants[plant.ID]; !ok {
		return domain.NotFoundf("plant %d", plant.ID)
	}
	s.plants[plant.ID] = *plant
	return nil
}

// Delete removes the plant and its schedules.
func (r *PlantRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plants[id]; !ok {
		return domain.NotFoundf("plant %d", id)
	}
	delete(s.plants, id)
	for sid, sched := range s.schedules {
		if sched.PlantID == id {
			delete(s.schedules, sid)
		}
	}
	return nil
}

// CareScheduleRepository implements domain.CareScheduleRepository
type CareScheduleRepository struct{ s *Store }

func (r *CareScheduleRepository) Create(_ context.Context, schedule *domain.CareSchedule) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plants[schedule.PlantID]; !ok {
		return domain.NotFoundf("plant %d", schedule.PlantID)
	}
	schedule.ID = s.id()
	schedule.CreatedAt = s.now()
	s.schedules[schedule.ID] = *schedule
	return nil
}

func (r *CareScheduleRepository) GetByID(_ context.Context, id int64) (*domain.CareSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return nil, domain.NotFoundf("care schedule %d", id)
	}
	return &sched, nil
}

func (r *CareScheduleRepository) ListByPlant(_ context.Context, plantID int64) ([]*domain.CareSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.CareSchedule{}
	for _, id := range sortedIDs(r.s.schedules, func(c domain.CareSchedule) bool { return c.PlantID == plantID }) {
		sched := r.s.schedules[id]
		out = append(out, &sched)
	}
	return out, nil
}

func (r *CareScheduleRepository) ListByOwner(_ context.Context, userID int64) ([]*domain.ScheduleListing, error) {
	return r.listings(func(p domain.Plant) bool { return p.UserID == userID }), nil
}

func (r *CareScheduleRepository) ListAll(_ context.Context) ([]*domain.ScheduleListing, error) {
	return r.listings(nil), nil
}

func (r *CareScheduleRepository) listings(keep func(domain.Plant) bool) []*domain.ScheduleListing {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.ScheduleListing{}
	for _, id := range sortedIDs(r.s.schedules, nil) {
		sched := r.s.schedules[id]
		plant, ok := r.s.plants[sched.PlantID]
		if !ok || (keep != nil && !keep(plant)) {
			continue
		}
		owner := r.s.users[plant.UserID]
		out = append(out, &domain.ScheduleListing{
			Schedule:   &sched,
			PlantName:  plant.Name,
			OwnerID:    plant.UserID,
			OwnerEmail: owner.Email,
		})
	}
	return out
}

func (r *CareScheduleRepository) Update(_ context.Context, schedule *domain.CareSchedule) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[schedule.ID]; !ok {
		return domain.NotFoundf("care schedule %d", schedule.ID)
	}
	s.schedules[schedule.ID] = *schedule
	return nil
}

func (r *CareScheduleRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return domain.NotFoundf("care schedule %d", id)
	}
	delete(s.schedules, id)
	return nil
}

// TipRepository implements domain.TipRepository
type TipRepository struct{ s *Store }

func (r *TipRepository) Create(_ context.Context, tip *domain.Tip) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	author, ok := s.users[tip.UserID]
	if !ok {
		return domain.NotFoundf("user %d", tip.UserID)
	}
	tip.ID = s.id()
	tip.CreatedAt = s.now()
	tip.AuthorUsername = author.Username
	s.tips[tip.ID] = *tip
	return nil
}

func (r *TipRepository) GetByID(_ context.Context, id int64) (*domain.Tip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tips[id]
	if !ok {
		return nil, domain.NotFoundf("tip %d", id)
	}
	t.AuthorUsername = r.s.users[t.UserID].Username
	return &t, nil
}

// List returns every tip, newest first.
func (r *TipRepository) List(_ context.Context) ([]*domain.Tip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := sortedIDs(r.s.tips, nil)
	out := make([]*domain.Tip, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		t := r.s.tips[ids[i]]
		t.AuthorUsername = r.s.users[t.UserID].Username
		out = append(out, &t)
	}
	return out, nil
}

func (r *TipRepository) Update(_ context.Context, tip *domain.Tip) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tips[tip.ID]; !ok {
		return domain.NotFoundf("tip %d", tip.ID)
	}
	s.tips[tip.ID] = *tip
	return nil
}

func (r *TipRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tips[id]; !ok {
		return domain.NotFoundf("tip %d", id)
	}
	delete(s.tips, id)
	return nil
}

// ForumPostRepository implements domain.ForumPostRepository
type ForumPostRepository struct{ s *Store }

func (r *ForumPostRepository) Create(_ context.Context, post *domain.ForumPost) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	author, ok := s.users[post.AuthorID]
	if !ok {
		return domain.NotFoundf("user %d", post.AuthorID)
	}
	post.ID = s.id()
	post.CreatedAt = s.now()
	post.AuthorUsername = author.Username
	s.posts[post.ID] = *post
	return nil
}

func (r *ForumPostRepository) GetByID(_ context.Context, id int64) (*domain.ForumPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.NotFoundf("forum post %d", id)
	}
	p.AuthorUsername = r.s.users[p.AuthorID].Username
	return &p, nil
}

// List returns every post, newest first.
func (r *ForumPostRepository) List(_ context.Context) ([]*domain.ForumPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := sortedIDs(r.s.posts, nil)
	out := make([]*domain.ForumPost, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		p := r.s.posts[ids[i]]
		p.AuthorUsername = r.s.users[p.AuthorID].Username
		out = append(out, &p)
	}
	return out, nil
}

func (r *ForumPostRepository) Update(_ context.Context, post *domain.ForumPost) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[post.ID]; !ok {
		return domain.NotFoundf("forum post %d", post.ID)
	}
	s.posts[post.ID] = *post
	return nil
}

// Delete removes the post and its comments.
func (r *ForumPostRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return domain.NotFoundf("forum post %d", id)
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

// CommentRepository implements domain.CommentRepository
type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[comment.PostID]; !ok {
		return domain.NotFoundf("forum post %d", comment.PostID)
	}
	author, ok := s.users[comment.AuthorID]
	if !ok {
		return domain.NotFoundf("user %d", comment.AuthorID)
	}
	comment.ID = s.id()
	comment.CreatedAt = s.now()
	comment.AuthorUsername = author.Username
	s.comments[comment.ID] = *comment
	return nil
}

func (r *CommentRepository) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, domain.NotFoundf("comment %d", id)
	}
	c.AuthorUsername = r.s.users[c.AuthorID].Username
	return &c, nil
}

// ListByPost returns a post's comments oldest first.
func (r *CommentRepository) ListByPost(_ context.Context, postID int64) ([]*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Comment{}
	for _, id := range sortedIDs(r.s.comments, func(c domain.Comment) bool { return c.PostID == postID }) {
		c := r.s.comments[id]
		c.AuthorUsername = r.s.users[c.AuthorID].Username
		out = append(out, &c)
	}
	return out, nil
}

func (r *CommentRepository) Update(_ context.Context, comment *domain.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; !ok {
		return domain.NotFoundf("comment %d", comment.ID)
	}
	s.comments[comment.ID] = *comment
	return nil
}

func (r *CommentRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return domain.NotFoundf("comment %d", id)
	}
	delete(s.comments, id)
	return nil
}

// GardenLayoutRepository implements domain.GardenLayoutRepository
type GardenLayoutRepository struct{ s *Store }

func copyLayout(l domain.GardenLayout) *domain.GardenLayout {
	l.LayoutData = append(json.RawMessage(nil), l.LayoutData...)
	return &l
}

func (r *GardenLayoutRepository) Create(_ context.Context, layout *domain.GardenLayout) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[layout.UserID]; !ok {
		return domain.NotFoundf("user %d", layout.UserID)
	}
	layout.ID = s.id()
	layout.CreatedAt = s.now()
	layout.UpdatedAt = layout.CreatedAt
	s.layouts[layout.ID] = *copyLayout(*layout)
	return nil
}

func (r *GardenLayoutRepository) GetByID(_ context.Context, id int64) (*domain.GardenLayout, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.layouts[id]
	if !ok {
		return nil, domain.NotFoundf("garden layout %d", id)
	}
	return copyLayout(l), nil
}

func (r *GardenLayoutRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.GardenLayout, error) {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, domain.NotFoundf("garden layout %d", id)
	}
	return l, nil
}

func (r *GardenLayoutRepository) ListByUser(_ context.Context, userID int64) ([]*domain.GardenLayout, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.GardenLayout{}
	for _, id := range sortedIDs(r.s.layouts, func(l domain.GardenLayout) bool { return l.UserID == userID }) {
		out = append(out, copyLayout(r.s.layouts[id]))
	}
	return out, nil
}

func (r *GardenLayoutRepository) Update(_ context.Context, layout *domain.GardenLayout) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[layout.ID]; !ok {
		return domain.NotFoundf("garden layout %d", layout.ID)
	}
	layout.UpdatedAt = s.now()
	s.layouts[layout.ID] = *copyLayout(*layout)
	return nil
}

func (r *GardenLayoutRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[id]; !ok {
		return domain.NotFoundf("garden layout %d", id)
	}
	delete(s.layouts, id)
	return nil
}

// TokenDenylist implements domain.TokenDenylist
type TokenDenylist struct{ s *Store }

func (d *TokenDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.revoked[jti] = until
	return nil
}

func (d *TokenDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	until, ok := d.s.revoked[jti]
	if !ok {
		return false, nil
	}
	if !d.s.now().Before(until) {
		delete(d.s.revoked, jti)
		return false, nil
	}
	return true, nil
}

// NotificationLedger implements domain.NotificationLedger
type NotificationLedger struct{ s *Store }

func (l *NotificationLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	now := l.s.now()
	if exp, ok := l.s.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.s.claims[key] = now.Add(ttl)
	return true, nil
}

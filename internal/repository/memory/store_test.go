package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/greenthumb/internal/domain"
)

func seedUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUser(t, s, "alice")

	err := s.Users().Create(ctx, &domain.User{Username: "alice2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.Users().Create(ctx, &domain.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestPlantDeleteCascadesSchedules(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s, "alice")

	plant := &domain.Plant{Name: "Basil", UserID: u.ID}
	require.NoError(t, s.Plants().Create(ctx, plant))
	sched := &domain.CareSchedule{PlantID: plant.ID, Task: domain.TaskWatering, Interval: domain.IntervalDaily}
	require.NoError(t, s.Schedules().Create(ctx, sched))

	require.NoError(t, s.Plants().Delete(ctx, plant.ID))

	_, err := s.Schedules().GetByID(ctx, sched.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetOwnedHidesOtherUsersPlant(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	plant := &domain.Plant{Name: "Fern", UserID: alice.ID}
	require.NoError(t, s.Plants().Create(ctx, plant))

	_, err := s.Plants().GetOwned(ctx, plant.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.Plants().GetOwned(ctx, plant.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fern", got.Name)
}

func TestScheduleListingsJoinOwner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	mine := &domain.Plant{Name: "Basil", UserID: alice.ID}
	theirs := &domain.Plant{Name: "Mint", UserID: bob.ID}
	require.NoError(t, s.Plants().Create(ctx, mine))
	require.NoError(t, s.Plants().Create(ctx, theirs))
	require.NoError(t, s.Schedules().Create(ctx, &domain.CareSchedule{PlantID: mine.ID, Task: domain.TaskWatering, Interval: domain.IntervalDaily}))
	require.NoError(t, s.Schedules().Create(ctx, &domain.CareSchedule{PlantID: theirs.ID, Task: domain.TaskPruning, Interval: domain.IntervalWeekly}))

	listings, err := s.Schedules().ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Basil", listings[0].PlantName)
	assert.Equal(t, "alice@example.com", listings[0].OwnerEmail)

	all, err := s.Schedules().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostDeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s, "alice")

	post := &domain.ForumPost{Title: "Aphids", Content: "help", AuthorID: u.ID}
	require.NoError(t, s.Posts().Create(ctx, post))
	comment := &domain.Comment{PostID: post.ID, AuthorID: u.ID, Content: "neem oil"}
	require.NoError(t, s.Comments().Create(ctx, comment))
	assert.Equal(t, "alice", comment.AuthorUsername)

	require.NoError(t, s.Posts().Delete(ctx, post.ID))

	comments, err := s.Comments().ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentOnMissingPost(t *testing.T) {
	s := NewStore()
	u := seedUser(t, s, "alice")

	err := s.Comments().Create(context.Background(), &domain.Comment{PostID: 99, AuthorID: u.ID, Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLayoutDataIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s, "alice")

	data := json.RawMessage(`{"beds":[1,2]}`)
	layout := &domain.GardenLayout{Name: "Yard", UserID: u.ID, LayoutData: data}
	require.NoError(t, s.Layouts().Create(ctx, layout))
	data[2] = 'X'

	got, err := s.Layouts().GetByID(ctx, layout.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"beds":[1,2]}`, string(got.LayoutData))
}

func TestListsAreEmptyNotNil(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	plants, err := s.Plants().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, plants)
	assert.Empty(t, plants)

	tips, err := s.Tips().List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tips)
}

func TestTipsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s, "alice")

	require.NoError(t, s.Tips().Create(ctx, &domain.Tip{Title: "first", Content: "a", UserID: u.ID}))
	require.NoError(t, s.Tips().Create(ctx, &domain.Tip{Title: "second", Content: "b", UserID: u.ID}))

	tips, err := s.Tips().List(ctx)
	require.NoError(t, err)
	require.Len(t, tips, 2)
	assert.Equal(t, "second", tips[0].Title)
	assert.Equal(t, "alice", tips[0].AuthorUsername)
}

func TestDenylistExpires(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Denylist().Revoke(ctx, "jti-1", now.Add(time.Hour)))
	revoked, err := s.Denylist().IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = s.Denylist().IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestLedgerClaimsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	ok, err := s.Ledger().Claim(ctx, "notified:1:2024-08-08", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Ledger().Claim(ctx, "notified:1:2024-08-08", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/security"
)

func TestPlantCreateRequiresName(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	a := env.user(t, "alice")

	_, err := env.plants.Create(context.Background(), a.ID, PlantInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := env.plants.Create(context.Background(), a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)
	assert.Empty(t, p.ImgURL, "image is optional")
}

func TestNonOwnerCannotDeletePlant(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Watermelon"})
	require.NoError(t, err)

	err = env.plants.Delete(ctx, b.ID, p.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	still, err := env.plants.Get(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Watermelon", still.Name)
}

func TestNonOwnerUpdateLeavesPlantUnchanged(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Mint"})
	require.NoError(t, err)

	_, err = env.plants.Update(ctx, b.ID, p.ID, domain.PlantPatch{Name: strPtr("Stolen")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := env.plants.Get(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mint", got.Name)
}

func TestPlantReadsAreScopedToCaller(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Lily"})
	require.NoError(t, err)

	_, err = env.plants.Get(ctx, b.ID, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := env.plants.List(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMissingPlantIsNotFound(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	a := env.user(t, "alice")

	err := env.plants.Delete(context.Background(), a.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlantPartialUpdate(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")

	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Fern", Description: "shade"})
	require.NoError(t, err)

	updated, err := env.plants.Update(ctx, a.ID, p.ID, domain.PlantPatch{ImgURL: strPtr("fern.png")})
	require.NoError(t, err)
	assert.Equal(t, "Fern", updated.Name)
	assert.Equal(t, "shade", updated.Description)
	assert.Equal(t, "fern.png", updated.ImgURL)
}

func TestScheduleWeeklyScenario(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")

	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)

	env.schedules.now = func() time.Time { return time.Date(2024, 8, 7, 12, 0, 0, 0, time.UTC) }
	v, err := env.schedules.Create(ctx, a.ID, ScheduleInput{
		PlantID: p.ID, Task: "Watering", ScheduleDate: "2024-08-01", Interval: "Weekly",
	})
	require.NoError(t, err)
	require.NotNil(t, v.NextDue)
	assert.Equal(t, "2024-08-08", v.NextDue.Format(domain.DateLayout))
	assert.False(t, v.Due)
	assert.Equal(t, "Basil", v.PlantName)

	env.schedules.now = func() time.Time { return time.Date(2024, 8, 8, 0, 0, 0, 0, time.UTC) }
	due, err := env.schedules.ListDue(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, v.Schedule.ID, due[0].Schedule.ID)
}

func TestScheduleCreateValidation(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)

	_, err = env.schedules.Create(ctx, a.ID, ScheduleInput{PlantID: p.ID, Task: "Watering", ScheduleDate: "2024-08-01", Interval: "Fortnightly"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedInterval)

	_, err = env.schedules.Create(ctx, a.ID, ScheduleInput{PlantID: p.ID, Task: "Singing", ScheduleDate: "2024-08-01", Interval: "Daily"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.schedules.Create(ctx, a.ID, ScheduleInput{PlantID: p.ID, Task: "Watering", ScheduleDate: "08/01/2024", Interval: "Daily"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.schedules.Create(ctx, a.ID, ScheduleInput{PlantID: 999, Task: "Watering", ScheduleDate: "2024-08-01", Interval: "Daily"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleOnOthersPlantIsUnauthorized(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)

	_, err = env.schedules.Create(ctx, b.ID, ScheduleInput{PlantID: p.ID, Task: "Pruning", ScheduleDate: "2024-08-01", Interval: "Daily"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	all, err := env.store.Schedules().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestScheduleOwnershipFollowsPlant(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)
	v, err := env.schedules.Create(ctx, a.ID, ScheduleInput{PlantID: p.ID, Task: "Watering", ScheduleDate: "2024-08-01", Interval: "Daily"})
	require.NoError(t, err)

	_, err = env.schedules.Update(ctx, b.ID, v.Schedule.ID, domain.SchedulePatch{Interval: strPtr("Monthly")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, env.schedules.Delete(ctx, b.ID, v.Schedule.ID), domain.ErrUnauthorized)

	updated, err := env.schedules.Update(ctx, a.ID, v.Schedule.ID, domain.SchedulePatch{Interval: strPtr("monthly")})
	require.NoError(t, err)
	assert.Equal(t, domain.IntervalMonthly, updated.Schedule.Interval)
	assert.Equal(t, "2024-08-29", updated.NextDue.Format(domain.DateLayout))

	require.NoError(t, env.schedules.Delete(ctx, a.ID, v.Schedule.ID))
}

func TestScheduleListForPlantHidesOthers(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)

	_, err = env.schedules.ListForPlant(ctx, b.ID, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	views, err := env.schedules.ListForPlant(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestLegacyIntervalHasNoNextDue(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Mint"})
	require.NoError(t, err)

	// written directly, as rows predating interval validation would be
	legacy := &domain.CareSchedule{PlantID: p.ID, Task: "Mint", ScheduleDate: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), Interval: "Bi-weekly"}
	require.NoError(t, env.store.Schedules().Create(ctx, legacy))

	views, err := env.schedules.ListOwned(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].NextDue)
	assert.False(t, views[0].Due)
}

func TestDeletingPlantRemovesSchedules(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Basil"})
	require.NoError(t, err)
	_, err = env.schedules.Create(ctx, a.ID, ScheduleInput{PlantID: p.ID, Task: "Watering", ScheduleDate: "2024-08-01", Interval: "Daily"})
	require.NoError(t, err)

	require.NoError(t, env.plants.Delete(ctx, a.ID, p.ID))

	views, err := env.schedules.ListOwned(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestTipLifecycle(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	_, err := env.tips.Create(ctx, a.ID, "", "content")
	assert.ErrorIs(t, err, domain.ErrValidation)

	tip, err := env.tips.Create(ctx, a.ID, "Morning Watering", "Water early.")
	require.NoError(t, err)

	tips, err := env.tips.List(ctx)
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, "alice", tips[0].AuthorUsername)

	_, err = env.tips.Update(ctx, b.ID, tip.ID, domain.TextPatch{Content: strPtr("mine now")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	updated, err := env.tips.Update(ctx, a.ID, tip.ID, domain.TextPatch{Content: strPtr("Water before 9am.")})
	require.NoError(t, err)
	assert.Equal(t, "Morning Watering", updated.Title)
	assert.Equal(t, "Water before 9am.", updated.Content)

	assert.ErrorIs(t, env.tips.Delete(ctx, b.ID, tip.ID), domain.ErrUnauthorized)
	require.NoError(t, env.tips.Delete(ctx, a.ID, tip.ID))
	_, err = env.tips.Get(ctx, tip.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommentOwnerIsPostAuthorByDefault(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	post, err := env.forum.CreatePost(ctx, a.ID, "How to grow watermelon?", "Any tips?")
	require.NoError(t, err)
	comment, err := env.forum.AddComment(ctx, b.ID, post.ID, "Lots of sun.")
	require.NoError(t, err)
	assert.Equal(t, "bob", comment.AuthorUsername)

	_, err = env.forum.UpdateComment(ctx, b.ID, comment.ID, "edited")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "the comment author does not control it")

	_, err = env.forum.UpdateComment(ctx, a.ID, comment.ID, "moderated")
	require.NoError(t, err)
	require.NoError(t, env.forum.DeleteComment(ctx, a.ID, comment.ID))
}

func TestCommentOwnerPolicyCommentAuthor(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerCommentAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	post, err := env.forum.CreatePost(ctx, a.ID, "Aphids", "Help")
	require.NoError(t, err)
	comment, err := env.forum.AddComment(ctx, b.ID, post.ID, "Neem oil.")
	require.NoError(t, err)

	assert.ErrorIs(t, env.forum.DeleteComment(ctx, a.ID, comment.ID), domain.ErrUnauthorized)
	_, err = env.forum.UpdateComment(ctx, b.ID, comment.ID, "Neem oil, weekly.")
	require.NoError(t, err)
}

func TestCommentsNeedExistingPost(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")

	_, err := env.forum.AddComment(ctx, a.ID, 404, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.forum.ListComments(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	post, err := env.forum.CreatePost(ctx, a.ID, "t", "c")
	require.NoError(t, err)
	_, err = env.forum.AddComment(ctx, a.ID, post.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeletingPostRemovesComments(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	post, err := env.forum.CreatePost(ctx, a.ID, "Roses", "Pruning?")
	require.NoError(t, err)
	_, err = env.forum.AddComment(ctx, b.ID, post.ID, "Late winter.")
	require.NoError(t, err)

	assert.ErrorIs(t, env.forum.DeletePost(ctx, b.ID, post.ID), domain.ErrUnauthorized)
	require.NoError(t, env.forum.DeletePost(ctx, a.ID, post.ID))

	_, err = env.forum.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLayoutRoundTripsBytes(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")

	raw := json.RawMessage(`{"beds": [ {"x":1, "plant":"Basil"} ], "z": null}`)
	layout, err := env.layouts.Create(ctx, a.ID, "Vegetable Garden", raw)
	require.NoError(t, err)

	got, err := env.layouts.Get(ctx, a.ID, layout.ID)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(got.LayoutData))

	_, err = env.layouts.Get(ctx, b.ID, layout.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.layouts.Update(ctx, b.ID, layout.ID, domain.LayoutPatch{Name: strPtr("Mine")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = env.layouts.Create(ctx, a.ID, "Broken", json.RawMessage(`{not json`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := env.layouts.Update(ctx, a.ID, layout.ID, domain.LayoutPatch{LayoutData: json.RawMessage(`"Layout data for vegetable garden"`)})
	require.NoError(t, err)
	assert.Equal(t, "Vegetable Garden", updated.Name)
	assert.Equal(t, `"Layout data for vegetable garden"`, string(updated.LayoutData))

	require.NoError(t, env.layouts.Delete(ctx, a.ID, layout.ID))
}

func TestCreateRejectsValuesWiderThanColumns(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	over := func(n int) string { return strings.Repeat("x", n+1) }
	layoutData := json.RawMessage(`{}`)

	tests := []struct {
		name   string
		create func() error
	}{
		{"plant name", func() error {
			_, err := env.plants.Create(ctx, a.ID, PlantInput{Name: over(domain.MaxPlantNameLength)})
			return err
		}},
		{"plant img_url", func() error {
			_, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Mint", ImgURL: over(domain.MaxImgURLLength)})
			return err
		}},
		{"plant description", func() error {
			_, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Mint", Description: over(domain.MaxDescriptionLength)})
			return err
		}},
		{"tip title", func() error {
			_, err := env.tips.Create(ctx, a.ID, over(domain.MaxTipTitleLength), "content")
			return err
		}},
		{"post title", func() error {
			_, err := env.forum.CreatePost(ctx, a.ID, over(domain.MaxPostTitleLength), "content")
			return err
		}},
		{"layout name", func() error {
			_, err := env.layouts.Create(ctx, a.ID, over(domain.MaxLayoutNameLength), layoutData)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.create(), domain.ErrValidation)
		})
	}

	plants, err := env.plants.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, plants, "nothing is stored after a rejected create")
}

func TestCreateAcceptsValuesAtColumnWidth(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")

	p, err := env.plants.Create(ctx, a.ID, PlantInput{
		Name:        strings.Repeat("é", domain.MaxPlantNameLength),
		ImgURL:      strings.Repeat("i", domain.MaxImgURLLength),
		Description: strings.Repeat("d", domain.MaxDescriptionLength),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPlantNameLength, len([]rune(p.Name)), "limits count characters, not bytes")

	_, err = env.tips.Create(ctx, a.ID, strings.Repeat("t", domain.MaxTipTitleLength), "content")
	require.NoError(t, err)
	_, err = env.forum.CreatePost(ctx, a.ID, strings.Repeat("t", domain.MaxPostTitleLength), "content")
	require.NoError(t, err)
	_, err = env.layouts.Create(ctx, a.ID, strings.Repeat("n", domain.MaxLayoutNameLength), json.RawMessage(`[]`))
	require.NoError(t, err)
}

func TestUpdateRejectsValuesWiderThanColumns(t *testing.T) {
	env := newTestEnv(t, security.CommentOwnerPostAuthor)
	ctx := context.Background()
	a := env.user(t, "alice")
	long := strPtr(strings.Repeat("x", 200))

	p, err := env.plants.Create(ctx, a.ID, PlantInput{Name: "Mint"})
	require.NoError(t, err)
	_, err = env.plants.Update(ctx, a.ID, p.ID, domain.PlantPatch{Name: long})
	assert.ErrorIs(t, err, domain.ErrValidation)

	tip, err := env.tips.Create(ctx, a.ID, "Mulch", "Keep roots cool")
	require.NoError(t, err)
	_, err = env.tips.Update(ctx, a.ID, tip.ID, domain.TextPatch{Title: long})
	assert.ErrorIs(t, err, domain.ErrValidation)

	post, err := env.forum.CreatePost(ctx, a.ID, "Aphids", "Any advice?")
	require.NoError(t, err)
	_, err = env.forum.UpdatePost(ctx, a.ID, post.ID, domain.TextPatch{Title: long})
	assert.ErrorIs(t, err, domain.ErrValidation)

	layout, err := env.layouts.Create(ctx, a.ID, "Backyard", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = env.layouts.Update(ctx, a.ID, layout.ID, domain.LayoutPatch{Name: long})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := env.plants.Get(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mint", got.Name)
}

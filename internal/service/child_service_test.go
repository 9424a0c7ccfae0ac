package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlearn/internal/database"
	"playlearn/internal/models"
	"playlearn/internal/repository"
	"playlearn/internal/validation"
)

func newTestChildService(t *testing.T, db *database.DB) *ChildService {
	t.Helper()

	return NewChildService(
		repository.NewChildRepository(db),
		repository.NewUserRepository(db),
		repository.NewProgressRepository(db),
		repository.NewAchievementRepository(db),
		newTestCatalog(t, db),
	)
}

func createParent(t *testing.T, db *database.DB, email string) *models.User {
	t.Helper()

	parent := &models.User{Email: email, Name: "Parent"}
	require.NoError(t, repository.NewUserRepository(db).CreateUser(parent))
	return parent
}

func TestChildServiceCreate(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestChildService(t, db)
	parent := createParent(t, db, "create@example.com")
	actor := Actor{UserID: parent.ID}

	child, err := svc.CreateChild(actor, CreateChildRequest{Name: "  Ava  ", Nickname: "Super Ava!", Age: 6})
	require.NoError(t, err)
	assert.Equal(t, "Ava", child.Name)
	assert.Equal(t, "super-ava", child.Nickname)
	assert.NotEmpty(t, child.AvatarColor)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, parent.ID, child.ParentID)

	generated, err := svc.CreateChild(actor, CreateChildRequest{Name: "Ben", AvatarColor: "#123ABC"})
	require.NoError(t, err)
	assert.NotEmpty(t, generated.Nickname)
	assert.Equal(t, "#123ABC", generated.AvatarColor)

	_, err = svc.CreateChild(actor, CreateChildRequest{Name: "   "})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)

	_, err = svc.CreateChild(actor, CreateChildRequest{Name: "Cy", AvatarColor: "blue"})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.CreateChild(Actor{UserID: 9999}, CreateChildRequest{Name: "Orphan"})
	assert.ErrorIs(t, err, ErrParentNotFound)

	children, err := svc.ListChildren(actor)
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestChildServiceAccess(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestChildService(t, db)
	owner := createParent(t, db, "owner-child@example.com")
	other := createParent(t, db, "other-child@example.com")

	child, err := svc.CreateChild(Actor{UserID: owner.ID}, CreateChildRequest{Name: "Dee", Age: 4})
	require.NoError(t, err)

	_, err = svc.GetChild(Actor{UserID: other.ID}, child.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateChild(Actor{UserID: other.ID}, child.ID, UpdateChildRequest{Name: "Hacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.DeleteChild(Actor{UserID: other.ID}, child.ID), ErrForbidden)

	_, err = svc.GetChild(Actor{UserID: owner.ID}, 9999)
	assert.ErrorIs(t, err, ErrChildNotFound)

	view, err := svc.GetChild(Actor{UserID: other.ID, Admin: true}, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dee", view.Name)

	others, err := svc.ListChildren(Actor{UserID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestChildServiceUpdateAndDelete(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestChildService(t, db)
	parent := createParent(t, db, "update@example.com")
	actor := Actor{UserID: parent.ID}

	child, err := svc.CreateChild(actor, CreateChildRequest{Name: "Eli", Nickname: "eli", AvatarColor: "#FF0000", Age: 5})
	require.NoError(t, err)

	updated, err := svc.UpdateChild(actor, child.ID, UpdateChildRequest{Name: "Elias", Age: 6})
	require.NoError(t, err)
	assert.Equal(t, "Elias", updated.Name)
	assert.Equal(t, "eli", updated.Nickname, "blank nickname keeps the current one")
	assert.Equal(t, "#FF0000", updated.AvatarColor)
	assert.Equal(t, 6, updated.Age)

	require.NoError(t, svc.DeleteChild(actor, child.ID))
	_, err = svc.GetChild(actor, child.ID)
	assert.ErrorIs(t, err, ErrChildNotFound)
}

func TestChildServiceProgressViews(t *testing.T) {
	db := setupServiceDB(t)
	children := newTestChildService(t, db)
	settlement := newTestSettlement(t, db)
	parent, child := createFamily(t, db, "views@example.com", models.SubscriptionNone)
	actor := Actor{UserID: parent.ID}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		submit(t, settlement, actor, SubmitRequest{ChildID: child.ID, GameSlug: "feelings-faces", Accuracy: 100, Score: 5})
	}

	view, err := children.GetChild(actor, child.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.AchievementCount)
	assert.Greater(t, view.NextLevelXP, view.XP)
	assert.Greater(t, view.LevelProgress, 0.0)
	assert.Less(t, view.LevelProgress, 1.0)

	unlocked, err := children.GetAchievements(ctx, actor, child.ID)
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
	for _, a := range unlocked {
		assert.NotEmpty(t, a.Title)
		assert.False(t, a.UnlockedAt.IsZero())
	}

	history, err := children.GetHistory(actor, child.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = children.GetHistory(actor, child.ID, 0, 2)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestChildServiceDailyResetOnRead(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestChildService(t, db)
	svc.now = func() time.Time { return testNow }
	parent, stale := createFamily(t, db, "reset@example.com", models.SubscriptionNone)
	actor := Actor{UserID: parent.ID}

	fresh, err := repository.NewChildRepository(db).CreateChild(parent.ID, "Mia", "calm-otter", 4, "#FFAA00")
	require.NoError(t, err)

	_, err = db.Exec("UPDATE children SET daily_play_minutes_used = ?, last_daily_reset = ? WHERE id = ?",
		10.0, testNow.Add(-48*time.Hour), stale.ID)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE children SET daily_play_minutes_used = ?, last_daily_reset = ? WHERE id = ?",
		7.0, testNow.Add(-time.Hour), fresh.ID)
	require.NoError(t, err)

	view, err := svc.GetChild(actor, stale.ID)
	require.NoError(t, err)
	assert.Zero(t, view.DailyPlayMinutesUsed)
	require.NotNil(t, view.LastDailyReset)
	assert.True(t, view.LastDailyReset.Equal(testNow))

	view, err = svc.GetChild(actor, fresh.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, view.DailyPlayMinutesUsed, 0.001)

	list, err := svc.ListChildren(actor)
	require.NoError(t, err)
	require.Len(t, list, 2)
	used := map[int64]float64{}
	for _, c := range list {
		used[c.ID] = c.DailyPlayMinutesUsed
	}
	assert.Zero(t, used[stale.ID])
	assert.InDelta(t, 7.0, used[fresh.ID], 0.001)
}

package post

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database/dbtest"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	db       *gorm.DB
	store    *Store
	business *user.User
	customer *user.User
}

func seedUser(t *testing.T, db *gorm.DB, ext string, kind user.AccountKind) *user.User {
	t.Helper()
	u := &user.User{ExternalID: ext, Email: ext + "@example.com", Kind: kind}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&user.Profile{UserID: u.ID, FirstName: ext, LastName: "Test"}).Error)
	return u
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	models := append([]interface{}{&user.User{}, &user.Profile{}}, Models()...)
	db := dbtest.Open(t, models...)

	store := NewStore(db)
	clock := &testClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	store.now = clock.now

	return &fixture{
		db:       db,
		store:    store,
		business: seedUser(t, db, "biz", user.KindBusiness),
		customer: seedUser(t, db, "cust", user.KindCustomer),
	}
}

func (f *fixture) post(t *testing.T, title string) *Post {
	t.Helper()
	p, err := f.store.CreatePost(context.Background(), f.business.ID, PostInput{Title: title, Body: title + " body"})
	require.NoError(t, err)
	return p
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Business author", func(t *testing.T) {
		p, err := f.store.CreatePost(ctx, f.business.ID, PostInput{Title: "  Hi ", Body: "World"})
		require.NoError(t, err)

		assert.Equal(t, "Hi", p.Title)
		assert.Equal(t, "World", p.Body)
		assert.Zero(t, p.LikeCount)
		assert.Zero(t, p.CommentCount)
		require.NotNil(t, p.User)
		require.NotNil(t, p.User.Profile)
		assert.Equal(t, "biz", p.User.Profile.FirstName)
	})

	tests := []struct {
		name     string
		authorID string
		input    PostInput
		kind     apperr.Kind
	}{
		{"Customer author", f.customer.ID, PostInput{Title: "Hi", Body: "World"}, apperr.KindForbidden},
		{"Unknown author", "00000000-0000-0000-0000-000000000000", PostInput{Title: "Hi", Body: "World"}, apperr.KindForbidden},
		{"Customer with invalid input", f.customer.ID, PostInput{}, apperr.KindForbidden},
		{"Empty title", f.business.ID, PostInput{Title: "   ", Body: "World"}, apperr.KindInvalidInput},
		{"Empty body", f.business.ID, PostInput{Title: "Hi"}, apperr.KindInvalidInput},
		{"Title too long", f.business.ID, PostInput{Title: strings.Repeat("é", 101), Body: "World"}, apperr.KindInvalidInput},
		{"Body too long", f.business.ID, PostInput{Title: "Hi", Body: strings.Repeat("a", 1001)}, apperr.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.store.CreatePost(ctx, tt.authorID, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	t.Run("Limits count characters", func(t *testing.T) {
		_, err := f.store.CreatePost(ctx, f.business.ID, PostInput{Title: strings.Repeat("é", 100), Body: strings.Repeat("ü", 1000)})
		assert.NoError(t, err)
	})
}

func TestUpdatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.post(t, "Hi")

	t.Run("Non owner is forbidden and the post is unchanged", func(t *testing.T) {
		_, err := f.store.UpdatePost(ctx, f.customer.ID, original.ID, PostInput{Title: "Hacked", Body: "x"})
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		current, err := f.store.GetPost(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hi", current.Title)
	})

	t.Run("Missing post", func(t *testing.T) {
		_, err := f.store.UpdatePost(ctx, f.business.ID, "missing", PostInput{Title: "A", Body: "B"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Owner with invalid input", func(t *testing.T) {
		_, err := f.store.UpdatePost(ctx, f.business.ID, original.ID, PostInput{Title: "", Body: "B"})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("Owner updates", func(t *testing.T) {
		updated, err := f.store.UpdatePost(ctx, f.business.ID, original.ID, PostInput{Title: "Hello", Body: "Everyone"})
		require.NoError(t, err)

		assert.Equal(t, "Hello", updated.Title)
		assert.Equal(t, "Everyone", updated.Body)
		assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(original.CreatedAt))
		require.NotNil(t, updated.User)
	})
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "Hi")

	_, err := f.store.CreateComment(ctx, f.customer.ID, p.ID, CommentInput{Content: "nice"})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&Like{UserID: f.customer.ID, PostID: p.ID, CreatedAt: time.Now()}).Error)

	t.Run("Non owner is forbidden", func(t *testing.T) {
		err := f.store.DeletePost(ctx, f.customer.ID, p.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		current, err := f.store.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), current.LikeCount)
		assert.Equal(t, int64(1), current.CommentCount)
	})

	t.Run("Session without profile is forbidden", func(t *testing.T) {
		assert.ErrorIs(t, f.store.DeletePost(ctx, "", p.ID), apperr.ErrForbidden)
	})

	t.Run("Owner deletes likes and comments too", func(t *testing.T) {
		require.NoError(t, f.store.DeletePost(ctx, f.business.ID, p.ID))

		_, err := f.store.GetPost(ctx, p.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		var likes, comments int64
		require.NoError(t, f.db.Model(&Like{}).Where("post_id = ?", p.ID).Count(&likes).Error)
		require.NoError(t, f.db.Model(&Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
		assert.Zero(t, likes)
		assert.Zero(t, comments)
	})

	t.Run("Deleting twice", func(t *testing.T) {
		assert.ErrorIs(t, f.store.DeletePost(ctx, f.business.ID, p.ID), apperr.ErrNotFound)
	})
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.post(t, "first")
	second := f.post(t, "second")

	// Deux posts créés au même instant
	same := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.store.now = func() time.Time { return same }
	tieA := f.post(t, "tie-a")
	tieB := f.post(t, "tie-b")

	_, err := f.store.CreateComment(ctx, f.customer.ID, second.ID, CommentInput{Content: "nice"})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&Like{UserID: f.customer.ID, PostID: second.ID, CreatedAt: same}).Error)
	require.NoError(t, f.db.Create(&Like{UserID: f.business.ID, PostID: second.ID, CreatedAt: same}).Error)

	posts, err := f.store.ListPosts(ctx, 50)
	require.NoError(t, err)
	require.Len(t, posts, 4)

	tieFirst, tieSecond := tieA.ID, tieB.ID
	if tieFirst < tieSecond {
		tieFirst, tieSecond = tieSecond, tieFirst
	}
	assert.Equal(t, []string{tieFirst, tieSecond, second.ID, first.ID}, []string{posts[0].ID, posts[1].ID, posts[2].ID, posts[3].ID})

	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
	}

	assert.Equal(t, int64(2), posts[2].LikeCount)
	assert.Equal(t, int64(1), posts[2].CommentCount)
	require.NotNil(t, posts[2].User)
	assert.NotNil(t, posts[2].User.Profile)

	again, err := f.store.ListPosts(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, posts[0].ID, again[0].ID)

	limited, err := f.store.ListPosts(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "Hi")
	other := f.post(t, "Other")

	created, err := f.store.CreateComment(ctx, f.customer.ID, p.ID, CommentInput{Content: " nice "})
	require.NoError(t, err)
	assert.Equal(t, "nice", created.Content)
	require.NotNil(t, created.User)
	assert.Equal(t, f.customer.ID, created.User.ID)

	t.Run("Listed on its post", func(t *testing.T) {
		comments, err := f.store.ListComments(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, created.ID, comments[0].ID)
		assert.NotNil(t, comments[0].User.Profile)

		comments, err = f.store.ListComments(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("Update changes content and updated_at", func(t *testing.T) {
		updated, err := f.store.UpdateComment(ctx, f.customer.ID, p.ID, created.ID, CommentInput{Content: "very nice"})
		require.NoError(t, err)
		assert.Equal(t, "very nice", updated.Content)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("Non owner cannot update", func(t *testing.T) {
		_, err := f.store.UpdateComment(ctx, f.business.ID, p.ID, created.ID, CommentInput{Content: "meh"})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("Comment of another post is not found", func(t *testing.T) {
		_, err := f.store.UpdateComment(ctx, f.customer.ID, other.ID, created.ID, CommentInput{Content: "x"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.ErrorIs(t, f.store.DeleteComment(ctx, f.customer.ID, other.ID, created.ID), apperr.ErrNotFound)
	})

	t.Run("Empty content", func(t *testing.T) {
		_, err := f.store.CreateComment(ctx, f.customer.ID, p.ID, CommentInput{Content: "  "})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)

		_, err = f.store.CreateComment(ctx, f.customer.ID, p.ID, CommentInput{Content: strings.Repeat("x", 501)})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("Missing post", func(t *testing.T) {
		_, err := f.store.CreateComment(ctx, f.customer.ID, "missing", CommentInput{Content: ""})
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = f.store.ListComments(ctx, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Owner deletes", func(t *testing.T) {
		require.NoError(t, f.store.DeleteComment(ctx, f.customer.ID, p.ID, created.ID))

		comments, err := f.store.ListComments(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}

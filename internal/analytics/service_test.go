package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database/dbtest"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/post"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

var now = time.Date(2025, 3, 31, 15, 30, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 10, 0, 0, 0, time.UTC)
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  DateRange
		err   bool
	}{
		{name: "Default is the last 30 days", want: DateRange{"2025-03-02", "2025-03-31"}},
		{name: "Explicit range", start: "2025-01-01", end: "2025-01-31", want: DateRange{"2025-01-01", "2025-01-31"}},
		{name: "End only", end: "2025-02-28", want: DateRange{"2025-01-30", "2025-02-28"}},
		{name: "Start only", start: "2025-03-20", want: DateRange{"2025-03-20", "2025-03-31"}},
		{name: "Bad format", start: "03/20/2025", err: true},
		{name: "Reversed", start: "2025-03-20", end: "2025-03-01", err: true},
		{name: "Too long", start: "2023-01-01", end: "2025-01-01", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWindow(tt.start, tt.end, now)
			if tt.err {
				assert.ErrorIs(t, err, apperr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, DateRange{w.Start.Format(dateLayout), w.End.Format(dateLayout)})
		})
	}
}

func seed(t *testing.T, db *gorm.DB, kind user.AccountKind, ext string) *user.User {
	t.Helper()
	u := &user.User{ExternalID: ext, Kind: kind}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestReport(t *testing.T) {
	models := append([]interface{}{&user.User{}, &user.Profile{}}, post.Models()...)
	db := dbtest.Open(t, models...)

	owner := seed(t, db, user.KindBusiness, "owner")
	rival := seed(t, db, user.KindBusiness, "rival")
	fan := seed(t, db, user.KindCustomer, "fan")

	old := &post.Post{Title: "Old", Body: "b", UserID: owner.ID, CreatedAt: time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)}
	recent := &post.Post{Title: "Recent", Body: "b", UserID: owner.ID, CreatedAt: day(10)}
	other := &post.Post{Title: "Other", Body: "b", UserID: rival.ID, CreatedAt: day(10)}
	for _, p := range []*post.Post{old, recent, other} {
		p.UpdatedAt = p.CreatedAt
		require.NoError(t, db.Create(p).Error)
	}

	likes := []post.Like{
		{UserID: fan.ID, PostID: old.ID, CreatedAt: time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)},
		{UserID: fan.ID, PostID: recent.ID, CreatedAt: day(11)},
		{UserID: rival.ID, PostID: recent.ID, CreatedAt: day(11)},
		{UserID: fan.ID, PostID: other.ID, CreatedAt: day(11)},
	}
	require.NoError(t, db.Create(&likes).Error)

	comments := []post.Comment{
		{UserID: fan.ID, PostID: recent.ID, Content: "nice", CreatedAt: day(12), UpdatedAt: day(12)},
		{UserID: fan.ID, PostID: other.ID, Content: "meh", CreatedAt: day(12), UpdatedAt: day(12)},
	}
	require.NoError(t, db.Create(&comments).Error)

	w, err := ParseWindow("", "", now)
	require.NoError(t, err)

	report, err := NewService(db).Report(context.Background(), owner.ID, w)
	require.NoError(t, err)

	assert.Equal(t, Counts{Posts: 2, Likes: 3, Comments: 1}, report.Totals)
	assert.Equal(t, Counts{Posts: 1, Likes: 2, Comments: 1}, report.InRange)
	assert.Equal(t, DateRange{"2025-03-02", "2025-03-31"}, report.Range)

	require.Len(t, report.Daily, 30)
	byDate := make(map[string]DayPoint)
	for _, p := range report.Daily {
		byDate[p.Date] = p
	}
	assert.Equal(t, int64(1), byDate["2025-03-10"].Posts)
	assert.Equal(t, int64(2), byDate["2025-03-11"].Likes)
	assert.Equal(t, int64(1), byDate["2025-03-12"].Comments)
	assert.Zero(t, byDate["2025-03-13"].Likes)

	require.Len(t, report.TopPosts, 2)
	assert.Equal(t, recent.ID, report.TopPosts[0].ID)
	assert.Equal(t, int64(2), report.TopPosts[0].LikeCount)
	assert.Equal(t, int64(1), report.TopPosts[0].CommentCount)
}

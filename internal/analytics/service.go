// Package analytics calcule l'engagement reçu par les posts d'un compte BUSINESS.
package analytics

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/post"
)

const (
	dateLayout   = "2006-01-02"
	defaultDays  = 30
	maxRangeDays = 366
	topPosts     = 5
)

// Window couvre les jours [Start, End], End inclus
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) endExclusive() time.Time {
	return w.End.AddDate(0, 0, 1)
}

// DefaultWindow : les 30 derniers jours, aujourd'hui compris
func DefaultWindow(now time.Time) Window {
	end := truncateDay(now)
	return Window{Start: end.AddDate(0, 0, -(defaultDays - 1)), End: end}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseWindow lit start_date / end_date (YYYY-MM-DD), chacun optionnel
func ParseWindow(startRaw, endRaw string, now time.Time) (Window, error) {
	w := DefaultWindow(now)

	if endRaw != "" {
		end, err := time.Parse(dateLayout, endRaw)
		if err != nil {
			return Window{}, apperr.Invalid("end_date must use the YYYY-MM-DD format")
		}
		w.End = end
		w.Start = end.AddDate(0, 0, -(defaultDays - 1))
	}
	if startRaw != "" {
		start, err := time.Parse(dateLayout, startRaw)
		if err != nil {
			return Window{}, apperr.Invalid("start_date must use the YYYY-MM-DD format")
		}
		w.Start = start
	}

	if w.End.Before(w.Start) {
		return Window{}, apperr.Invalid("end_date must not be before start_date")
	}
	if w.End.Sub(w.Start) >= maxRangeDays*24*time.Hour {
		return Window{}, apperr.Invalid("date range must not exceed 366 days")
	}
	return w, nil
}

type Counts struct {
	Posts    int64 `json:"posts"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

type DayPoint struct {
	Date     string `json:"date"`
	Posts    int64  `json:"posts"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

type TopPost struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Report struct {
	Totals   Counts     `json:"totals"`
	InRange  Counts     `json:"inRange"`
	Range    DateRange  `json:"dateRange"`
	Daily    []DayPoint `json:"daily"`
	TopPosts []TopPost  `json:"topPosts"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// source décrit une table comptée pour les posts de l'auteur
type source struct {
	model interface{}
	table string
}

func (src source) column() string {
	return src.table + ".created_at"
}

var (
	postsSource    = source{model: &post.Post{}, table: "posts"}
	likesSource    = source{model: &post.Like{}, table: "likes"}
	commentsSource = source{model: &post.Comment{}, table: "comments"}
)

func (s *Service) scoped(ctx context.Context, src source, ownerID string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(src.model)
	if src.table != "posts" {
		q = q.Joins("JOIN posts ON posts.id = " + src.table + ".post_id")
	}
	return q.Where("posts.user_id = ?", ownerID)
}

func (s *Service) count(ctx context.Context, src source, ownerID string, w *Window) (int64, error) {
	q := s.scoped(ctx, src, ownerID)
	if w != nil {
		q = q.Where(src.column()+" >= ? AND "+src.column()+" < ?", w.Start, w.endExclusive())
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, apperr.Store(err, "count "+src.table)
	}
	return n, nil
}

func (s *Service) counts(ctx context.Context, ownerID string, w *Window) (Counts, error) {
	var c Counts
	var err error
	if c.Posts, err = s.count(ctx, postsSource, ownerID, w); err != nil {
		return Counts{}, err
	}
	if c.Likes, err = s.count(ctx, likesSource, ownerID, w); err != nil {
		return Counts{}, err
	}
	if c.Comments, err = s.count(ctx, commentsSource, ownerID, w); err != nil {
		return Counts{}, err
	}
	return c, nil
}

// daily répartit les créations par jour ; les jours vides sont présents à 0
func (s *Service) daily(ctx context.Context, ownerID string, w Window) ([]DayPoint, error) {
	points := make([]DayPoint, 0)
	index := make(map[string]int)
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		index[d.Format(dateLayout)] = len(points)
		points = append(points, DayPoint{Date: d.Format(dateLayout)})
	}

	for _, src := range []source{postsSource, likesSource, commentsSource} {
		var stamps []time.Time
		err := s.scoped(ctx, src, ownerID).
			Where(src.column()+" >= ? AND "+src.column()+" < ?", w.Start, w.endExclusive()).
			Pluck(src.column(), &stamps).Error
		if err != nil {
			return nil, apperr.Store(err, "load "+src.table)
		}

		for _, ts := range stamps {
			i, ok := index[ts.UTC().Format(dateLayout)]
			if !ok {
				continue
			}
			switch src.table {
			case "posts":
				points[i].Posts++
			case "likes":
				points[i].Likes++
			default:
				points[i].Comments++
			}
		}
	}
	return points, nil
}

func (s *Service) topPosts(ctx context.Context, ownerID string) ([]TopPost, error) {
	top := make([]TopPost, 0)
	err := s.db.WithContext(ctx).
		Model(&post.Post{}).
		Select(`posts.id, posts.title, posts.created_at,
			(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count,
			(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count`).
		Where("posts.user_id = ?", ownerID).
		Order("like_count DESC").
		Order("comment_count DESC").
		Order("posts.created_at DESC").
		Limit(topPosts).
		Scan(&top).Error
	if err != nil {
		return nil, apperr.Store(err, "top posts")
	}
	return top, nil
}

// Report agrège l'engagement reçu par les posts de ownerID
func (s *Service) Report(ctx context.Context, ownerID string, w Window) (*Report, error) {
	totals, err := s.counts(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}
	inRange, err := s.counts(ctx, ownerID, &w)
	if err != nil {
		return nil, err
	}
	daily, err := s.daily(ctx, ownerID, w)
	if err != nil {
		return nil, err
	}
	top, err := s.topPosts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return &Report{
		Totals:  totals,
		InRange: inRange,
		Range: DateRange{
			Start: w.Start.Format(dateLayout),
			End:   w.End.Format(dateLayout),
		},
		Daily:    daily,
		TopPosts: top,
	}, nil
}

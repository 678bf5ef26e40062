package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/ownership"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/utils"
)

type PostInput struct {
	Title string `json:"title" validate:"required,max=100"`
	Body  string `json:"body" validate:"required,max=1000"`

	// malformed est renvoyé à l'étape de validation, après les contrôles
	// d'existence et de droits
	malformed error
}

// MalformedPostInput représente un corps de requête illisible
func MalformedPostInput(err error) PostInput {
	return PostInput{malformed: err}
}

func (in PostInput) check() error {
	if in.malformed != nil {
		return in.malformed
	}
	return utils.Validate(in)
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
}

type CommentInput struct {
	Content string `json:"content" validate:"required,max=500"`

	malformed error
}

func MalformedCommentInput(err error) CommentInput {
	return CommentInput{malformed: err}
}

func (in CommentInput) check() error {
	if in.malformed != nil {
		return in.malformed
	}
	return utils.Validate(in)
}

// checkID : un identifiant qui n'est pas un uuid ne désigne aucune ligne
func checkID(id, what string) error {
	if !utils.IsUUID(id) {
		return apperr.NotFound(what)
	}
	return nil
}

func (in *CommentInput) normalize() {
	in.Content = strings.TrimSpace(in.Content)
}

// postColumns ajoute les compteurs calculés à chaque post
const postColumns = `posts.*,
	(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count`

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func withCounts(db *gorm.DB) *gorm.DB {
	return db.Model(&Post{}).Select(postColumns).Preload("User.Profile")
}

func loadPost(db *gorm.DB, postID string) (*Post, error) {
	if err := checkID(postID, "post"); err != nil {
		return nil, err
	}
	var p Post
	err := withCounts(db).Where("posts.id = ?", postID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post")
	}
	if err != nil {
		return nil, apperr.Store(err, "load post")
	}
	return &p, nil
}

// LockForShare vérifie que le post existe et empêche sa suppression
// jusqu'à la fin de la transaction tx.
func LockForShare(tx *gorm.DB, postID string) error {
	if err := checkID(postID, "post"); err != nil {
		return err
	}
	var p Post
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id").
		Where("id = ?", postID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("post")
	}
	if err != nil {
		return apperr.Store(err, "lock post")
	}
	return nil
}

// CreatePost est réservé aux comptes BUSINESS
func (s *Store) CreatePost(ctx context.Context, authorID string, in PostInput) (*Post, error) {
	in.normalize()

	var created *Post
	err := database.WithTx(ctx, s.db, "create post", func(tx *gorm.DB) error {
		var author user.User
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("id = ?", authorID).First(&author).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Store(err, "load author")
		}
		if err != nil || !author.IsBusiness() {
			return apperr.Forbidden("only business accounts can create posts")
		}

		if err := in.check(); err != nil {
			return err
		}

		now := s.now()
		p := Post{
			Title:     in.Title,
			Body:      in.Body,
			UserID:    author.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&p).Error; err != nil {
			return apperr.Store(err, "insert post")
		}

		created, err = loadPost(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) UpdatePost(ctx context.Context, actorID, postID string, in PostInput) (*Post, error) {
	in.normalize()
	if err := checkID(postID, "post"); err != nil {
		return nil, err
	}

	return ownership.Mutate(ctx, s.db, actorID, "post", in.check,
		func(tx *gorm.DB, p *Post) error {
			if err := tx.Model(p).Updates(map[string]interface{}{
				"title":      in.Title,
				"body":       in.Body,
				"updated_at": s.now(),
			}).Error; err != nil {
				return apperr.Store(err, "update post")
			}

			updated, err := loadPost(tx, p.ID)
			if err != nil {
				return err
			}
			*p = *updated
			return nil
		},
		"id = ?", postID,
	)
}

// DeletePost supprime aussi les likes et commentaires du post
func (s *Store) DeletePost(ctx context.Context, actorID, postID string) error {
	if err := checkID(postID, "post"); err != nil {
		return err
	}
	_, err := ownership.Mutate(ctx, s.db, actorID, "post", nil,
		func(tx *gorm.DB, p *Post) error {
			if err := tx.Where("post_id = ?", p.ID).Delete(&Like{}).Error; err != nil {
				return apperr.Store(err, "delete post likes")
			}
			if err := tx.Where("post_id = ?", p.ID).Delete(&Comment{}).Error; err != nil {
				return apperr.Store(err, "delete post comments")
			}
			if err := tx.Delete(p).Error; err != nil {
				return apperr.Store(err, "delete post")
			}
			return nil
		},
		"id = ?", postID,
	)
	return err
}

func (s *Store) GetPost(ctx context.Context, postID string) (*Post, error) {
	return loadPost(s.db.WithContext(ctx), postID)
}

// ListPosts retourne les posts du plus récent au plus ancien
func (s *Store) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	posts := make([]Post, 0)
	err := withCounts(s.db.WithContext(ctx)).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, apperr.Store(err, "list posts")
	}
	return posts, nil
}

func (s *Store) CreateComment(ctx context.Context, authorID, postID string, in CommentInput) (*Comment, error) {
	in.normalize()
	if err := checkID(postID, "post"); err != nil {
		return nil, err
	}

	var created Comment
	err := database.WithTx(ctx, s.db, "create comment", func(tx *gorm.DB) error {
		if err := LockForShare(tx, postID); err != nil {
			return err
		}
		if err := in.check(); err != nil {
			return err
		}

		now := s.now()
		c := Comment{
			PostID:    postID,
			UserID:    authorID,
			Content:   in.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&c).Error; err != nil {
			return apperr.Store(err, "insert comment")
		}

		if err := tx.Preload("User.Profile").Where("id = ?", c.ID).First(&created).Error; err != nil {
			return apperr.Store(err, "reload comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func checkCommentIDs(postID, commentID string) error {
	if err := checkID(postID, "post"); err != nil {
		return err
	}
	return checkID(commentID, "comment")
}

// UpdateComment : un commentaire d'un autre post est traité comme introuvable
func (s *Store) UpdateComment(ctx context.Context, actorID, postID, commentID string, in CommentInput) (*Comment, error) {
	in.normalize()
	if err := checkCommentIDs(postID, commentID); err != nil {
		return nil, err
	}

	return ownership.Mutate(ctx, s.db, actorID, "comment", in.check,
		func(tx *gorm.DB, c *Comment) error {
			if err := tx.Model(c).Updates(map[string]interface{}{
				"content":    in.Content,
				"updated_at": s.now(),
			}).Error; err != nil {
				return apperr.Store(err, "update comment")
			}

			var updated Comment
			if err := tx.Preload("User.Profile").Where("id = ?", c.ID).First(&updated).Error; err != nil {
				return apperr.Store(err, "reload comment")
			}
			*c = updated
			return nil
		},
		"id = ? AND post_id = ?", commentID, postID,
	)
}

func (s *Store) DeleteComment(ctx context.Context, actorID, postID, commentID string) error {
	if err := checkCommentIDs(postID, commentID); err != nil {
		return err
	}
	_, err := ownership.Mutate(ctx, s.db, actorID, "comment", nil,
		func(tx *gorm.DB, c *Comment) error {
			if err := tx.Delete(c).Error; err != nil {
				return apperr.Store(err, "delete comment")
			}
			return nil
		},
		"id = ? AND post_id = ?", commentID, postID,
	)
	return err
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	if err := checkID(postID, "post"); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, apperr.Store(err, "check post")
	}
	if exists == 0 {
		return nil, apperr.NotFound("post")
	}

	comments := make([]Comment, 0)
	err := db.Preload("User.Profile").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Store(err, "list comments")
	}
	return comments, nil
}

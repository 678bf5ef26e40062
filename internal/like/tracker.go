package like

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/post"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/utils"
)

// Tracker gère les likes. L'unicité repose sur la clé primaire (user_id, post_id),
// pas sur un verrou applicatif.
type Tracker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db, now: time.Now}
}

// ToggleLike retire le like s'il existe, sinon l'ajoute. Deux appels
// concurrents ne créent jamais deux lignes.
func (t *Tracker) ToggleLike(ctx context.Context, userID, postID string) (State, error) {
	if !utils.IsUUID(postID) {
		return State{}, apperr.NotFound("post")
	}

	state := State{PostID: postID}
	err := database.WithTx(ctx, t.db, "toggle like", func(tx *gorm.DB) error {
		if err := post.LockForShare(tx, postID); err != nil {
			return err
		}

		removed, err := removeLike(tx, userID, postID)
		if err != nil {
			return err
		}
		if !removed {
			if err := t.insertLike(tx, userID, postID); err != nil {
				return err
			}
		}
		state.Liked = !removed

		state.LikeCount, err = countLikes(tx, postID)
		return err
	})
	if err != nil {
		return State{}, err
	}
	return state, nil
}

// SetLike impose l'état voulu. Rejouer la même requête ne change rien.
func (t *Tracker) SetLike(ctx context.Context, userID, postID string, liked bool) (State, error) {
	if !utils.IsUUID(postID) {
		return State{}, apperr.NotFound("post")
	}

	state := State{PostID: postID, Liked: liked}
	err := database.WithTx(ctx, t.db, "set like", func(tx *gorm.DB) error {
		if err := post.LockForShare(tx, postID); err != nil {
			return err
		}

		var err error
		if liked {
			err = t.insertLike(tx, userID, postID)
		} else {
			_, err = removeLike(tx, userID, postID)
		}
		if err != nil {
			return err
		}

		state.LikeCount, err = countLikes(tx, postID)
		return err
	})
	if err != nil {
		return State{}, err
	}
	return state, nil
}

// GetLikeState : liked est false pour un visiteur anonyme (userID vide)
func (t *Tracker) GetLikeState(ctx context.Context, userID, postID string) (State, error) {
	if !utils.IsUUID(postID) {
		return State{}, apperr.NotFound("post")
	}

	state := State{PostID: postID}
	db := t.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&post.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return State{}, apperr.Store(err, "check post")
	}
	if exists == 0 {
		return State{}, apperr.NotFound("post")
	}

	var err error
	if state.LikeCount, err = countLikes(db, postID); err != nil {
		return State{}, err
	}

	if userID != "" {
		var mine int64
		if err := db.Model(&post.Like{}).Where("user_id = ? AND post_id = ?", userID, postID).Count(&mine).Error; err != nil {
			return State{}, apperr.Store(err, "check like")
		}
		state.Liked = mine > 0
	}
	return state, nil
}

// LikedPostIDs retourne, parmi postIDs, ceux que userID a likés
func (t *Tracker) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}

	var ids []string
	err := t.db.WithContext(ctx).
		Model(&post.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, apperr.Store(err, "load liked posts")
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func removeLike(tx *gorm.DB, userID, postID string) (bool, error) {
	res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&post.Like{})
	if res.Error != nil {
		return false, apperr.Store(res.Error, "delete like")
	}
	return res.RowsAffected > 0, nil
}

// insertLike ne fait rien si le like existe déjà
func (t *Tracker) insertLike(tx *gorm.DB, userID, postID string) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&post.Like{
		UserID:    userID,
		PostID:    postID,
		CreatedAt: t.now(),
	}).Error
	if err != nil {
		return apperr.Store(err, "insert like")
	}
	return nil
}

func countLikes(db *gorm.DB, postID string) (int64, error) {
	var n int64
	if err := db.Model(&post.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, apperr.Store(err, "count likes")
	}
	return n, nil
}

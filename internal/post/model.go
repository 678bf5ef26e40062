package post

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Post struct {
	ID     string     `json:"id" gorm:"primaryKey;type:uuid"`
	Title  string     `json:"title" gorm:"size:100;not null"`
	Body   string     `json:"body" gorm:"type:text;not null"`
	UserID string     `json:"userId" gorm:"type:uuid;index;not null"`
	User   *user.User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	// Calculés par la requête de liste, jamais écrits
	LikeCount    int64 `json:"likeCount" gorm:"->;-:migration"`
	CommentCount int64 `json:"commentCount" gorm:"->;-:migration"`
	LikedByMe    bool  `json:"likedByMe" gorm:"-"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (p *Post) OwnedBy() string { return p.UserID }

// Like : la clé primaire (user_id, post_id) garantit un seul like par utilisateur et par post
type Like struct {
	UserID    string     `json:"userId" gorm:"primaryKey;type:uuid"`
	PostID    string     `json:"postId" gorm:"primaryKey;type:uuid;index"`
	User      *user.User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Post      *Post      `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Models liste les tables du package dans l'ordre de migration
func Models() []interface{} {
	return []interface{}{&Post{}, &Comment{}, &Like{}}
}

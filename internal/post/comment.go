package post

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Comment struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	PostID    string     `json:"postId" gorm:"type:uuid;index;not null"`
	Post      *Post      `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	UserID    string     `json:"userId" gorm:"type:uuid;not null"`
	User      *user.User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (c *Comment) OwnedBy() string { return c.UserID }

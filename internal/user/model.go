package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountKind est fixé au premier enregistrement du profil
type AccountKind string

const (
	KindCustomer AccountKind = "CUSTOMER"
	KindBusiness AccountKind = "BUSINESS"
)

type User struct {
	ID         string      `json:"id" gorm:"primaryKey;type:uuid"`
	ExternalID string      `json:"-" gorm:"uniqueIndex;not null"` // sub du fournisseur d'identité
	Email      string      `json:"email"`
	Kind       AccountKind `json:"userType" gorm:"column:user_type;size:16;not null"`
	Profile    *Profile    `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *User) IsBusiness() bool {
	return u.Kind == KindBusiness
}

type Profile struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       string    `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	FirstName    string    `json:"firstName" gorm:"size:50"`
	LastName     string    `json:"lastName" gorm:"size:50"`
	BusinessName *string   `json:"businessName"`
	Bio          string    `json:"bio" gorm:"type:text"`
	AvatarURL    string    `json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

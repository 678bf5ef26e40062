package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/utils"
)

type ProfileInput struct {
	FirstName    string `json:"firstName" validate:"required,max=50"`
	LastName     string `json:"lastName" validate:"required,max=50"`
	BusinessName string `json:"businessName" validate:"max=100"`
	Bio          string `json:"bio" validate:"max=500"`
}

func (in *ProfileInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.Bio = strings.TrimSpace(in.Bio)
}

type ProfileService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, now: time.Now}
}

// Save crée l'utilisateur au premier enregistrement puis met à jour son profil.
// Le type de compte est décidé à la création (BUSINESS si un nom d'entreprise
// est fourni) et ne change plus ensuite.
func (s *ProfileService) Save(ctx context.Context, principal auth.Principal, in ProfileInput) (*User, error) {
	in.normalize()
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	var saved User
	err := database.WithTx(ctx, s.db, "save profile", func(tx *gorm.DB) error {
		u, err := s.ensureUser(tx, principal, in)
		if err != nil {
			return err
		}

		if err := checkKind(u.Kind, in.BusinessName); err != nil {
			return err
		}

		now := s.now()
		var businessName *string
		if in.BusinessName != "" {
			businessName = &in.BusinessName
		}
		profile := Profile{
			UserID:       u.ID,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			BusinessName: businessName,
			Bio:          in.Bio,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "business_name", "bio", "updated_at"}),
		}).Create(&profile).Error; err != nil {
			return apperr.Store(err, "upsert profile")
		}

		if err := tx.Preload("Profile").Where("id = ?", u.ID).First(&saved).Error; err != nil {
			return apperr.Store(err, "reload user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ensureUser verrouille la ligne existante ou la crée. Deux premiers
// enregistrements concurrents ne créent qu'un utilisateur grâce à l'index
// unique sur external_id.
func (s *ProfileService) ensureUser(tx *gorm.DB, principal auth.Principal, in ProfileInput) (*User, error) {
	var existing User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_id = ?", principal.ID).
		First(&existing).Error
	if err == nil {
		if existing.Email == "" && principal.Email != "" {
			if err := tx.Model(&existing).Update("email", principal.Email).Error; err != nil {
				return nil, apperr.Store(err, "update email")
			}
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Store(err, "load user")
	}

	kind := KindCustomer
	if in.BusinessName != "" {
		kind = KindBusiness
	}
	now := s.now()
	created := User{
		ExternalID: principal.ID,
		Email:      principal.Email,
		Kind:       kind,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(&created).Error; err != nil {
		return nil, apperr.Store(err, "create user")
	}

	// Relecture : une requête concurrente a pu créer la ligne avant nous
	var current User
	if err := tx.Where("external_id = ?", principal.ID).First(&current).Error; err != nil {
		return nil, apperr.Store(err, "reload user")
	}
	return &current, nil
}

func checkKind(kind AccountKind, businessName string) error {
	switch {
	case kind == KindBusiness && businessName == "":
		return apperr.Invalid("businessName is required for business accounts")
	case kind == KindCustomer && businessName != "":
		return apperr.Invalid("account type cannot be changed")
	}
	return nil
}

// SetAvatar enregistre l'URL de l'avatar et retourne l'ancienne
func (s *ProfileService) SetAvatar(ctx context.Context, userID, url string) (string, error) {
	var previous string
	err := database.WithTx(ctx, s.db, "set avatar", func(tx *gorm.DB) error {
		var p Profile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("profile")
		}
		if err != nil {
			return apperr.Store(err, "load profile")
		}

		previous = p.AvatarURL
		if err := tx.Model(&p).Updates(map[string]interface{}{
			"avatar_url": url,
			"updated_at": s.now(),
		}).Error; err != nil {
			return apperr.Store(err, "update avatar")
		}
		return nil
	})
	return previous, err
}

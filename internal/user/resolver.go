package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
)

// Resolver associe le principal du fournisseur d'identité à l'utilisateur interne
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve retourne found=false (sans erreur) tant qu'aucun profil n'a été
// enregistré pour ce principal.
func (r *Resolver) Resolve(ctx context.Context, principalID string) (*User, bool, error) {
	var u User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("external_id = ?", principalID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, apperr.Store(err, "resolve principal")
	}
	return &u, true, nil
}

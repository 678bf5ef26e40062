// Package ownership applique la règle "seul l'auteur modifie" à toutes les
// entités possédées (posts, commentaires).
package ownership

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database"
)

// Owned est implémenté par les modèles qui ont un auteur
type Owned interface {
	OwnedBy() string
}

// Mutate charge la ligne désignée par where en la verrouillant, puis vérifie
// dans l'ordre : existence, propriété, validation. apply n'est appelé que si
// tout passe, dans la même transaction.
func Mutate[T any, PT interface {
	*T
	Owned
}](
	ctx context.Context,
	db *gorm.DB,
	actorID, what string,
	validate func() error,
	apply func(tx *gorm.DB, row PT) error,
	where ...interface{},
) (PT, error) {
	row := PT(new(T))

	err := database.WithTx(ctx, db, "mutate "+what, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(row, where...).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(what)
		}
		if err != nil {
			return apperr.Store(err, "load "+what)
		}

		if row.OwnedBy() != actorID {
			return apperr.Forbidden(fmt.Sprintf("only the author can modify this %s", what))
		}

		if validate != nil {
			if err := validate(); err != nil {
				return err
			}
		}

		return apply(tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

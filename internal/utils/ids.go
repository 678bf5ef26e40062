package utils

import "github.com/google/uuid"

// IsUUID n'accepte que la forme canonique 8-4-4-4-12, la seule que
// les colonnes uuid de Postgres acceptent sans erreur de syntaxe.
func IsUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

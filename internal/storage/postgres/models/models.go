package models

import (
	"strings"

	"yamdb/proj/internal/storage/postgres"
)

type Models struct {
	Users      *UserModel
	Categories *CategoryModel
	Genres     *GenreModel
	Titles     *TitleModel
	Reviews    *ReviewModel
	Comments   *CommentModel
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE/ILIKE metacharacters so a user-supplied search
// term matches as a literal substring.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func New(db *postgres.Storage) *Models {
	return &Models{
		Users:      &UserModel{db.Conn},
		Categories: &CategoryModel{db.Conn},
		Genres:     &GenreModel{db.Conn},
		Titles:     &TitleModel{db.Conn},
		Reviews:    &ReviewModel{db.Conn},
		Comments:   &CommentModel{db.Conn},
	}
}

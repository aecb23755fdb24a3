package titles

import "errors"

var (
	ErrTitleNotFound    = errors.New("title not found")
	ErrCategoryNotFound = errors.New("category with that slug does not exist")
	ErrGenreNotFound    = errors.New("genre with that slug does not exist")
)

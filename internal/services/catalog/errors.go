package catalog

import "errors"

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with that slug already exists")
	ErrGenreNotFound         = errors.New("genre not found")
	ErrGenreAlreadyExists    = errors.New("genre with that slug already exists")
)

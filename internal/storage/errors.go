package storage

import "errors"

const EmptyIntValue = -1

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrReferenceNotFound = errors.New("referenced record not found")
)

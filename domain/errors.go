package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateSlug    = errors.New("a community with this slug already exists")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrPersistence      = errors.New("persistence error")
)

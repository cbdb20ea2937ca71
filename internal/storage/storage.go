// Package storage содержит общие ошибки слоя хранения.
package storage

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
)

// UniqueError нарушение уникального ограничения Constraint. Совпадает с
// ErrAlreadyExists через errors.Is.
type UniqueError struct {
	Constraint string
}

func (e *UniqueError) Error() string {
	return ErrAlreadyExists.Error() + ": " + e.Constraint
}

func (e *UniqueError) Unwrap() error {
	return ErrAlreadyExists
}

package service

import (
	"errors"
	"fmt"

	"github.com/BuzzLyutic/taskflow/internal/repo"
)

var (
	ErrNotFound           = errors.New("task not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrConflict           = errors.New("task was modified concurrently")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// StorageError оборачивает любой сбой хранилища, кроме "не найдено".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrorNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repo.ErrorConflict):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return &StorageError{Op: op, Err: err}
	}
}

package modules

import (
	"errors"
	"fmt"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnknownTable = errors.New("unknown table")
	ErrNotDeletable = errors.New("only wallet entries can be deleted")
	ErrLevelIndex   = errors.New("take-profit level index out of range")
	ErrNotList      = errors.New("key does not hold a take-profit list")
)

// StoreError is a persistence failure. It is kept apart from validation
// errors so a rejected value is never reported as a connectivity problem.
type StoreError struct {
	Op    string
	Table models.Table
	Key   string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("could not %s %s/%s: %v", e.Op, e.Table, e.Key, e.Err)
	}

	return fmt.Sprintf("could not %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, table models.Table, key string, err error) error {
	if err == nil {
		return nil
	}

	return &StoreError{Op: op, Table: table, Key: key, Err: err}
}

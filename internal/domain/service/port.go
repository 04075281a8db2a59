package service

import (
	"context"
	"errors"
	"fmt"
)

// Store persists the registry as one document. Save replaces the document as a whole.
type Store interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (Registry, error)
	LoadOrEmpty(ctx context.Context) (Registry, error)
	Save(ctx context.Context, r Registry) error
}

var ErrNoDocument = errors.New("no persisted document")

const (
	OpExists = "exists"
	OpLoad   = "load"
	OpDecode = "decode"
	OpEncode = "encode"
	OpSave   = "save"
)

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// Normalize makes sure a decoded registry never carries a nil slice.
func Normalize(r Registry) Registry {
	if r.Services == nil {
		r.Services = []Service{}
	}
	return r
}

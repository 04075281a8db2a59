package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NordCoder/Krymon/internal/domain/service"
)

var _ service.Store = (*Store)(nil)

// Store keeps the registry as one JSON document on local disk.
type Store struct {
	path string
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, service.NewStoreError(service.OpExists, err)
	}
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, service.NewStoreError(service.OpExists, err)
	}
}

func (s *Store) Load(ctx context.Context) (service.Registry, error) {
	if err := ctx.Err(); err != nil {
		return service.Registry{}, service.NewStoreError(service.OpLoad, err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return service.Registry{}, service.NewStoreError(service.OpLoad, service.ErrNoDocument)
		}
		return service.Registry{}, service.NewStoreError(service.OpLoad, fmt.Errorf("read %s: %w", s.path, err))
	}
	if len(data) == 0 {
		return service.EmptyRegistry(), nil
	}

	var reg service.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return service.Registry{}, service.NewStoreError(service.OpDecode, err)
	}
	if err := reg.Validate(); err != nil {
		return service.Registry{}, service.NewStoreError(service.OpDecode, err)
	}
	return service.Normalize(reg), nil
}

func (s *Store) LoadOrEmpty(ctx context.Context) (service.Registry, error) {
	ok, err := s.Exists(ctx)
	if err != nil {
		return service.Registry{}, err
	}
	if !ok {
		return service.EmptyRegistry(), nil
	}
	return s.Load(ctx)
}

func (s *Store) Save(ctx context.Context, r service.Registry) error {
	if err := ctx.Err(); err != nil {
		return service.NewStoreError(service.OpSave, err)
	}
	bytes, err := json.MarshalIndent(service.Normalize(r), "", "  ")
	if err != nil {
		return service.NewStoreError(service.OpEncode, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return service.NewStoreError(service.OpSave, fmt.Errorf("create temp document: %w", err))
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(bytes)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return service.NewStoreError(service.OpSave, fmt.Errorf("write temp document: %w", err))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return service.NewStoreError(service.OpSave, fmt.Errorf("replace document: %w", err))
	}
	return nil
}

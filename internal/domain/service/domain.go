package service

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusOK      Status = "OK"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusFail, StatusUnknown:
		return true
	}
	return false
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %q", string(s))
	}
	return []byte(s), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v := Status(b)
	if !v.Valid() {
		return fmt.Errorf("invalid status %q", string(b))
	}
	*s = v
	return nil
}

// Service is a monitored endpoint. ID, Name and URL never change after creation.
type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	LastCheck time.Time `json:"lastCheck"`
}

// NewService is the creation payload accepted from clients.
type NewService struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Registry is the unit of persistence: the whole ordered list of services.
type Registry struct {
	Services []Service `json:"services"`
}

func EmptyRegistry() Registry {
	return Registry{Services: []Service{}}
}

// Checked returns a copy of s carrying the given probe outcome.
func (s Service) Checked(status Status, at time.Time) Service {
	return Service{
		ID:        s.ID,
		Name:      s.Name,
		URL:       s.URL,
		Status:    status,
		LastCheck: at.UTC(),
	}
}

func (r Registry) Len() int { return len(r.Services) }

// Validate rejects documents carrying a missing or unrecognised status.
func (r Registry) Validate() error {
	for i, s := range r.Services {
		if !s.Status.Valid() {
			return fmt.Errorf("service %d (%q): invalid status %q", i, s.ID, string(s.Status))
		}
	}
	return nil
}

func (r Registry) IndexOf(id string) int {
	for i, s := range r.Services {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// With returns a new registry with s appended. r is not modified.
func (r Registry) With(s Service) Registry {
	out := make([]Service, 0, len(r.Services)+1)
	out = append(out, r.Services...)
	out = append(out, s)
	return Registry{Services: out}
}

// Without returns a new registry lacking the entry with the given id and
// reports whether such an entry existed.
func (r Registry) Without(id string) (Registry, bool) {
	idx := r.IndexOf(id)
	if idx < 0 {
		return r, false
	}
	out := make([]Service, 0, len(r.Services)-1)
	out = append(out, r.Services[:idx]...)
	out = append(out, r.Services[idx+1:]...)
	return Registry{Services: out}, true
}

// Merge overlays probed services onto r by id. Entries of r that were not
// probed are kept unchanged, probed entries that are no longer in r are dropped.
func (r Registry) Merge(probed []Service) Registry {
	byID := make(map[string]Service, len(probed))
	for _, p := range probed {
		byID[p.ID] = p
	}
	out := make([]Service, 0, len(r.Services))
	for _, s := range r.Services {
		if p, ok := byID[s.ID]; ok {
			out = append(out, s.Checked(p.Status, p.LastCheck))
			continue
		}
		out = append(out, s)
	}
	return Registry{Services: out}
}

package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(id string) Service {
	return Service{
		ID:        id,
		Name:      "svc-" + id,
		URL:       "http://" + id + ".example.com",
		Status:    StatusUnknown,
		LastCheck: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestServiceJSONShape(t *testing.T) {
	b, err := json.Marshal(sample("a"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "a",
		"name": "svc-a",
		"url": "http://a.example.com",
		"status": "UNKNOWN",
		"lastCheck": "2024-01-02T03:04:05Z"
	}`, string(b))
}

func TestStatusRejectsUnknownValue(t *testing.T) {
	var s Service
	err := json.Unmarshal([]byte(`{"id":"x","status":"DOWN"}`), &s)
	require.Error(t, err)

	_, err = json.Marshal(Service{ID: "x", Status: "DOWN"})
	require.Error(t, err)
}

func TestRegistryValidate(t *testing.T) {
	var r Registry
	require.NoError(t, json.Unmarshal([]byte(`{"services":[{"id":"a","name":"n","url":"u"}]}`), &r))
	assert.Error(t, r.Validate())

	assert.NoError(t, Registry{Services: []Service{sample("a"), sample("b")}}.Validate())
	assert.NoError(t, EmptyRegistry().Validate())
}

func TestRegistryWithDoesNotAlias(t *testing.T) {
	base := Registry{Services: make([]Service, 1, 4)}
	base.Services[0] = sample("a")

	r1 := base.With(sample("b"))
	r2 := base.With(sample("c"))

	require.Equal(t, 2, r1.Len())
	require.Equal(t, 2, r2.Len())
	assert.Equal(t, "b", r1.Services[1].ID)
	assert.Equal(t, "c", r2.Services[1].ID)
	assert.Equal(t, 1, base.Len())
}

func TestRegistryWithout(t *testing.T) {
	r := Registry{Services: []Service{sample("a"), sample("b"), sample("c")}}

	out, ok := r.Without("b")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Equal(t, []string{"a", "b", "c"}, ids(r))

	same, ok := r.Without("b-suffix")
	assert.False(t, ok)
	assert.Equal(t, ids(r), ids(same))
}

func TestRegistryMerge(t *testing.T) {
	at := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	current := Registry{Services: []Service{sample("a"), sample("new")}}
	probed := []Service{
		sample("a").Checked(StatusOK, at),
		sample("gone").Checked(StatusFail, at),
	}

	merged := current.Merge(probed)

	require.Equal(t, []string{"a", "new"}, ids(merged))
	assert.Equal(t, StatusOK, merged.Services[0].Status)
	assert.Equal(t, at, merged.Services[0].LastCheck)
	assert.Equal(t, StatusUnknown, merged.Services[1].Status)
}

func TestStoreErrorUnwraps(t *testing.T) {
	err := NewStoreError(OpLoad, ErrNoDocument)

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, OpLoad, se.Op)
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Nil(t, NewStoreError(OpSave, nil))
}

func ids(r Registry) []string {
	out := make([]string, 0, r.Len())
	for _, s := range r.Services {
		out = append(out, s.ID)
	}
	return out
}

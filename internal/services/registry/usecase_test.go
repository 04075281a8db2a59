package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/NordCoder/Krymon/internal/repository/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func newUsecase(t *testing.T, opts ...Option) (*Usecase, *file.Store) {
	t.Helper()
	st, err := file.New(filepath.Join(t.TempDir(), "services.json"))
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(st, opts...), st
}

type brokenStore struct {
	service.Store
	err error
}

func (b brokenStore) LoadOrEmpty(context.Context) (service.Registry, error) {
	return service.Registry{}, b.err
}

func TestList_EmptyWhenAbsent(t *testing.T) {
	uc, _ := newUsecase(t)

	reg, err := uc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.NotNil(t, reg.Services)
}

func TestAdd_AssignsIdentityAndUnknown(t *testing.T) {
	ctx := context.Background()
	uc, st := newUsecase(t)

	svc, err := uc.Add(ctx, service.NewService{Name: "example", URL: "http://www.example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, svc.ID)
	assert.Equal(t, service.StatusUnknown, svc.Status)
	assert.Equal(t, fixedNow, svc.LastCheck)

	persisted, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, persisted.Len())
	assert.Equal(t, svc, persisted.Services[0])
}

func TestAdd_DistinctIDs(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUsecase(t)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		svc, err := uc.Add(ctx, service.NewService{Name: fmt.Sprintf("s%d", i), URL: "http://x"})
		require.NoError(t, err)
		seen[svc.ID] = true
	}
	reg, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, reg.Len())
	assert.Len(t, seen, 5)
}

func TestAdd_RejectsIDCollision(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUsecase(t, WithIDGenerator(func() string { return "same" }))

	_, err := uc.Add(ctx, service.NewService{Name: "a"})
	require.NoError(t, err)
	_, err = uc.Add(ctx, service.NewService{Name: "b"})
	require.Error(t, err)

	reg, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestAdd_ConcurrentNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUsecase(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Add(ctx, service.NewService{Name: fmt.Sprintf("s%d", i), URL: "http://x"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	reg, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, reg.Len())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUsecase(t)

	removed, err := uc.Delete(ctx, "foobar")
	require.NoError(t, err)
	assert.False(t, removed)

	a, err := uc.Add(ctx, service.NewService{Name: "a", URL: "http://a"})
	require.NoError(t, err)
	b, err := uc.Add(ctx, service.NewService{Name: "b", URL: "http://b"})
	require.NoError(t, err)

	removed, err = uc.Delete(ctx, a.ID+"foobar")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = uc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	reg, err := uc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())
	assert.Equal(t, b.ID, reg.Services[0].ID)
}

func TestApplyProbes_KeepsConcurrentChanges(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUsecase(t)

	a, err := uc.Add(ctx, service.NewService{Name: "a", URL: "http://a"})
	require.NoError(t, err)
	b, err := uc.Add(ctx, service.NewService{Name: "b", URL: "http://b"})
	require.NoError(t, err)

	checkedAt := fixedNow.Add(time.Minute)
	probed := []service.Service{a.Checked(service.StatusOK, checkedAt), b.Checked(service.StatusFail, checkedAt)}

	// b removed and c added while the probes were in flight
	_, err = uc.Delete(ctx, b.ID)
	require.NoError(t, err)
	c, err := uc.Add(ctx, service.NewService{Name: "c", URL: "http://c"})
	require.NoError(t, err)

	merged, err := uc.ApplyProbes(ctx, probed)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, a.ID, merged.Services[0].ID)
	assert.Equal(t, service.StatusOK, merged.Services[0].Status)
	assert.Equal(t, checkedAt, merged.Services[0].LastCheck)
	assert.Equal(t, c.ID, merged.Services[1].ID)
	assert.Equal(t, service.StatusUnknown, merged.Services[1].Status)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := service.NewStoreError(service.OpLoad, errors.New("disk gone"))
	uc := New(brokenStore{err: boom})
	ctx := context.Background()

	_, err := uc.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = uc.Add(ctx, service.NewService{Name: "a"})
	assert.ErrorIs(t, err, boom)
	_, err = uc.Delete(ctx, "x")
	assert.ErrorIs(t, err, boom)
	_, err = uc.ApplyProbes(ctx, nil)
	assert.ErrorIs(t, err, boom)
}
